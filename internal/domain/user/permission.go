package user

type Permission string

const (
	// Commission statements
	PermissionCommissionViewOwn Permission = "commission.view_own"
	PermissionCommissionViewAll Permission = "commission.view_all"
	PermissionCommissionConfirm Permission = "commission.confirm"
	PermissionCommissionReopen  Permission = "commission.reopen"
	PermissionCommissionExport  Permission = "commission.export"

	// Misc adjustments
	PermissionMiscView   Permission = "misc.view"
	PermissionMiscManage Permission = "misc.manage"

	// Sales DB
	PermissionSalesCreate       Permission = "sales.create"
	PermissionSalesView         Permission = "sales.view"
	PermissionSalesManage       Permission = "sales.manage"
	PermissionSalesClientManage Permission = "sales_client.manage"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleOwner: {
		// Owner has all permissions
		PermissionCommissionViewOwn,
		PermissionCommissionViewAll,
		PermissionCommissionConfirm,
		PermissionCommissionReopen,
		PermissionCommissionExport,
		PermissionMiscView,
		PermissionMiscManage,
		PermissionSalesCreate,
		PermissionSalesView,
		PermissionSalesManage,
		PermissionSalesClientManage,
	},
	RoleAdmin: {
		PermissionCommissionViewOwn,
		PermissionCommissionViewAll,
		PermissionCommissionConfirm,
		PermissionCommissionExport,
		PermissionMiscView,
		PermissionMiscManage,
		PermissionSalesCreate,
		PermissionSalesView,
		PermissionSalesManage,
		PermissionSalesClientManage,
	},
	RoleSalesperson: {
		PermissionCommissionViewOwn,
		PermissionMiscView,
		PermissionSalesCreate,
		PermissionSalesView,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}
