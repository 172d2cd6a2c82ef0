package commission

import "context"

type CommissionService interface {
	// Statements
	GetStatement(ctx context.Context, scope Scope) (StatementResponse, error)
	GetMonthlySummary(ctx context.Context, year, month string) (MonthlySummaryResponse, error)
	ConfirmStatement(ctx context.Context, req ConfirmStatementRequest) (StatementResponse, error)
	ReopenStatement(ctx context.Context, req ReopenStatementRequest) (StatementResponse, error)
	ListEvents(ctx context.Context, scope Scope) ([]StatementEventResponse, error)
	ExportStatement(ctx context.Context, scope Scope) (ExportFile, error)

	// Misc adjustments
	ListMiscCommissions(ctx context.Context, scope Scope) ([]MiscCommissionResponse, error)
	CreateMiscCommission(ctx context.Context, req CreateMiscCommissionRequest) (MiscCommissionResponse, error)
	DeleteMiscCommission(ctx context.Context, id int64) error
}

// Operations checked by the Gate.
const (
	OperationMiscCreate = "misc_create"
	OperationMiscDelete = "misc_delete"
	OperationRateEdit   = "rate_edit"
	OperationPeriodEdit = "period_edit"
)

// Gate is the single check for "may inputs of this scope still change".
// Callers must invoke it inside the transaction that performs the write.
type Gate interface {
	EnsureOpen(ctx context.Context, scope Scope, operation string) error
}
