package commission

import (
	"time"

	"github.com/cmlabs-hris/erp-backend-go/internal/pkg/validator"
)

// ========== MISC COMMISSION DTOs ==========

type CreateMiscCommissionRequest struct {
	SalespersonID int64  `json:"salesperson_id" validate:"gt=0"`
	Year          string `json:"year"`
	Month         string `json:"month"`
	Description   string `json:"description" validate:"required,max=500"`
	Amount        *int64 `json:"amount" validate:"required"`
	CreatedBy     int64  `json:"-"`
}

// Validate also zero-pads Month.
func (r *CreateMiscCommissionRequest) Validate() error {
	errs := validator.Struct(r)

	if r.Description != "" && validator.IsEmpty(r.Description) {
		errs.Add("description", "is required")
	}
	if !validator.IsValidYear(r.Year) {
		errs.Add("year", "must be a 4-digit year")
	}
	if month, ok := validator.NormalizeMonth(r.Month); ok {
		r.Month = month
	} else {
		errs.Add("month", "must be between 01 and 12")
	}

	return errs.OrNil()
}

func (r *CreateMiscCommissionRequest) Scope() Scope {
	return Scope{SalespersonID: r.SalespersonID, Year: r.Year, Month: r.Month}
}

type MiscCommissionResponse struct {
	ID            int64  `json:"id"`
	SalespersonID int64  `json:"salesperson_id"`
	Year          string `json:"year"`
	Month         string `json:"month"`
	Description   string `json:"description"`
	Amount        int64  `json:"amount"`
	CreatedAt     string `json:"created_at"`
}

func ToMiscResponse(m MiscCommission) MiscCommissionResponse {
	return MiscCommissionResponse{
		ID:            m.ID,
		SalespersonID: m.SalespersonID,
		Year:          m.Year,
		Month:         m.Month,
		Description:   m.Description,
		Amount:        m.Amount,
		CreatedAt:     m.CreatedAt.Format(time.RFC3339),
	}
}

// ========== STATEMENT DTOs ==========

// ConfirmDetail mirrors a line as the client displayed it. Only used for logging a diff.
type ConfirmDetail struct {
	SalesRecordID int64 `json:"sales_record_id"`
	Amount        int64 `json:"amount"`
}

type ConfirmStatementRequest struct {
	SalespersonID   int64           `json:"salesperson_id" validate:"gt=0"`
	Year            string          `json:"year"`
	Month           string          `json:"month"`
	Details         []ConfirmDetail `json:"details"`
	TotalCommission *int64          `json:"total_commission"`
	ConfirmedBy     int64           `json:"-"`
}

func (r *ConfirmStatementRequest) Validate() error {
	errs := validator.Struct(r)
	if !validator.IsValidYear(r.Year) {
		errs.Add("year", "must be a 4-digit year")
	}
	if month, ok := validator.NormalizeMonth(r.Month); ok {
		r.Month = month
	} else {
		errs.Add("month", "must be between 01 and 12")
	}
	return errs.OrNil()
}

func (r *ConfirmStatementRequest) Scope() Scope {
	return Scope{SalespersonID: r.SalespersonID, Year: r.Year, Month: r.Month}
}

type ReopenStatementRequest struct {
	SalespersonID int64  `json:"salesperson_id" validate:"gt=0"`
	Year          string `json:"year"`
	Month         string `json:"month"`
	Reason        string `json:"reason" validate:"required,max=1000"`
	ReopenedBy    int64  `json:"-"`
}

func (r *ReopenStatementRequest) Validate() error {
	errs := validator.Struct(r)
	if r.Reason != "" && validator.IsEmpty(r.Reason) {
		errs.Add("reason", "is required")
	}
	if !validator.IsValidYear(r.Year) {
		errs.Add("year", "must be a 4-digit year")
	}
	if month, ok := validator.NormalizeMonth(r.Month); ok {
		r.Month = month
	} else {
		errs.Add("month", "must be between 01 and 12")
	}
	return errs.OrNil()
}

func (r *ReopenStatementRequest) Scope() Scope {
	return Scope{SalespersonID: r.SalespersonID, Year: r.Year, Month: r.Month}
}

type StatementResponse struct {
	SalespersonID           int64      `json:"salesperson_id"`
	Year                    string     `json:"year"`
	Month                   string     `json:"month"`
	Lines                   []Line     `json:"lines"`
	MiscCommissions         []MiscLine `json:"misc_commissions"`
	TotalContractCommission int64      `json:"total_contract_commission"`
	TotalMisc               int64      `json:"total_misc"`
	TotalCommission         int64      `json:"total_commission"`
	WithholdingTax          int64      `json:"withholding_tax"`
	NetPay                  int64      `json:"net_pay"`
	IsConfirmed             bool       `json:"isConfirmed"`
	ConfirmedAt             *string    `json:"confirmed_at,omitempty"`
	SnapshotHash            string     `json:"snapshot_hash,omitempty"`
	Version                 int        `json:"version"`
}

func ToStatementResponse(s Statement) StatementResponse {
	var confirmedAt *string
	if s.ConfirmedAt != nil {
		str := s.ConfirmedAt.Format(time.RFC3339)
		confirmedAt = &str
	}
	lines := s.Lines
	if lines == nil {
		lines = []Line{}
	}
	misc := s.Misc
	if misc == nil {
		misc = []MiscLine{}
	}
	return StatementResponse{
		SalespersonID:           s.Scope.SalespersonID,
		Year:                    s.Scope.Year,
		Month:                   s.Scope.Month,
		Lines:                   lines,
		MiscCommissions:         misc,
		TotalContractCommission: s.TotalContractCommission,
		TotalMisc:               s.TotalMisc,
		TotalCommission:         s.TotalCommission,
		WithholdingTax:          s.WithholdingTax,
		NetPay:                  s.NetPay,
		IsConfirmed:             s.IsConfirmed,
		ConfirmedAt:             confirmedAt,
		SnapshotHash:            s.SnapshotHash,
		Version:                 s.Version,
	}
}

// StatementSummaryResponse is one row of the monthly overview.
type StatementSummaryResponse struct {
	SalespersonID   int64  `json:"salesperson_id"`
	SalespersonName string `json:"salesperson_name"`
	LineCount       int    `json:"line_count"`
	TotalCommission int64  `json:"total_commission"`
	WithholdingTax  int64  `json:"withholding_tax"`
	NetPay          int64  `json:"net_pay"`
	IsConfirmed     bool   `json:"is_confirmed"`
}

type MonthlySummaryResponse struct {
	Year            string                     `json:"year"`
	Month           string                     `json:"month"`
	Statements      []StatementSummaryResponse `json:"statements"`
	TotalCommission int64                      `json:"total_commission"`
	TotalNetPay     int64                      `json:"total_net_pay"`
	ConfirmedCount  int                        `json:"confirmed_count"`
}

// Add appends one salesperson's statement and rolls its totals into the month.
func (m *MonthlySummaryResponse) Add(salespersonName string, stmt Statement) {
	m.Statements = append(m.Statements, StatementSummaryResponse{
		SalespersonID:   stmt.Scope.SalespersonID,
		SalespersonName: salespersonName,
		LineCount:       len(stmt.Lines),
		TotalCommission: stmt.TotalCommission,
		WithholdingTax:  stmt.WithholdingTax,
		NetPay:          stmt.NetPay,
		IsConfirmed:     stmt.IsConfirmed,
	})
	m.TotalCommission += stmt.TotalCommission
	m.TotalNetPay += stmt.NetPay
	if stmt.IsConfirmed {
		m.ConfirmedCount++
	}
}

type StatementEventResponse struct {
	ID              string  `json:"id"`
	Action          string  `json:"action"`
	ActorID         *int64  `json:"actor_id,omitempty"`
	Reason          *string `json:"reason,omitempty"`
	TotalCommission int64   `json:"total_commission"`
	SnapshotHash    string  `json:"snapshot_hash,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

// ExportFile is a rendered statement document.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}
