package commission

import (
	"strconv"
	"time"

	"github.com/cmlabs-hris/erp-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// Scope identifies one statement: a salesperson's commission for one month.
type Scope struct {
	SalespersonID int64
	Year          string // 4 digits
	Month         string // 2 digits, zero-padded
}

// ParseScope validates raw query/body values and zero-pads the month.
func ParseScope(salespersonID, year, month string) (Scope, error) {
	var errs validator.ValidationErrors

	id, err := strconv.ParseInt(salespersonID, 10, 64)
	if err != nil || id <= 0 {
		errs.Add("salesperson_id", "must be a positive integer")
	}
	if !validator.IsValidYear(year) {
		errs.Add("year", "must be a 4-digit year")
	}
	normMonth, ok := validator.NormalizeMonth(month)
	if !ok {
		errs.Add("month", "must be between 01 and 12")
	}

	if len(errs) > 0 {
		return Scope{}, errs
	}
	return Scope{SalespersonID: id, Year: year, Month: normMonth}, nil
}

func (s Scope) String() string {
	return strconv.FormatInt(s.SalespersonID, 10) + "/" + s.Year + "-" + s.Month
}

// RateSource tells where a line's rate came from.
type RateSource string

const (
	RateSourceRecord  RateSource = "record"
	RateSourceClient  RateSource = "client"
	RateSourceDefault RateSource = "default"
)

// MiscCommission - manual bonus (positive) or deduction (negative) on a statement
type MiscCommission struct {
	ID            int64
	SalespersonID int64
	Year          string
	Month         string
	Description   string
	Amount        int64
	CreatedBy     *int64
	CreatedAt     time.Time
}

func (m MiscCommission) Scope() Scope {
	return Scope{SalespersonID: m.SalespersonID, Year: m.Year, Month: m.Month}
}

// Line is one sales record's contribution to a statement.
type Line struct {
	SalesRecordID  int64           `json:"sales_record_id"`
	CompanyName    string          `json:"company_name"`
	ContractStatus string          `json:"contract_status"`
	ContractDate   string          `json:"contract_date"`
	ContractClient int64           `json:"contract_client"`
	Rate           decimal.Decimal `json:"rate"`
	RateSource     RateSource      `json:"rate_source"`
	Commission     int64           `json:"commission"`
	Amount         int64           `json:"amount"`
	Warnings       []string        `json:"warnings,omitempty"`
}

// MiscLine is the frozen form of a misc entry inside a snapshot.
type MiscLine struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
}

// Statement is the aggregation result for one scope.
type Statement struct {
	Scope                   Scope
	Lines                   []Line
	Misc                    []MiscLine
	TotalContractCommission int64
	TotalMisc               int64
	TotalCommission         int64
	WithholdingTax          int64
	NetPay                  int64
	IsConfirmed             bool
	ConfirmedAt             *time.Time
	ConfirmedBy             *int64
	SnapshotHash            string
	Version                 int
}

// StatementState is the persisted lock row of a scope.
type StatementState struct {
	Scope                   Scope
	IsConfirmed             bool
	Version                 int
	TotalContractCommission int64
	TotalMisc               int64
	TotalCommission         int64
	WithholdingTax          int64
	NetPay                  int64
	Snapshot                []byte
	SnapshotHash            string
	ConfirmedAt             *time.Time
	ConfirmedBy             *int64
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// EventAction enum
type EventAction string

const (
	EventActionConfirmed EventAction = "confirmed"
	EventActionReopened  EventAction = "reopened"
)

// StatementEvent - audit trail entry for confirm/reopen
type StatementEvent struct {
	ID              string
	Scope           Scope
	Action          EventAction
	ActorID         *int64
	Reason          *string
	TotalCommission int64
	SnapshotHash    string
	CreatedAt       time.Time
}
