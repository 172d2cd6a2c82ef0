package sales

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ContractStatus enum
type ContractStatus string

const (
	ContractStatusPending    ContractStatus = "N"
	ContractStatusCompleted  ContractStatus = "Y"
	ContractStatusTerminated ContractStatus = "terminated"
)

// ParseContractStatus accepts the stored codes plus the cancelled aliases.
func ParseContractStatus(s string) (ContractStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "n", "pending":
		return ContractStatusPending, true
	case "y", "completed":
		return ContractStatusCompleted, true
	case "terminated", "cancelled", "canceled":
		return ContractStatusTerminated, true
	}
	return "", false
}

// IsCommissionable reports whether a record in this status appears on a statement.
func (s ContractStatus) IsCommissionable() bool {
	return s == ContractStatusCompleted || s == ContractStatusTerminated
}

// CanTransitionTo allows N -> Y, Y -> terminated and same-state writes.
func (s ContractStatus) CanTransitionTo(next ContractStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case ContractStatusPending:
		return next == ContractStatusCompleted
	case ContractStatusCompleted:
		return next == ContractStatusTerminated
	}
	return false
}

// SalesRecord - one lead/contract attempt
type SalesRecord struct {
	ID             int64
	CompanyName    string
	Phone          *string
	SalespersonID  int64
	ClientName     *string
	ContractStatus ContractStatus
	ContractDate   *time.Time
	ActualSales    *int64
	ContractClient *int64
	CommissionRate *decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Dedup keys, maintained by the service on write
	CompanyNameKey string
	PhoneKey       string
}

// Period returns the statement year and month the record belongs to.
func (r SalesRecord) Period() (year, month string, ok bool) {
	if r.ContractDate == nil {
		return "", "", false
	}
	return r.ContractDate.Format("2006"), r.ContractDate.Format("01"), true
}

// SalesClient - channel/client name with its default commission rate
type SalesClient struct {
	ID             int64
	Name           string
	CommissionRate decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// MonthRange returns [first day of month, first day of next month) in UTC.
func MonthRange(year, month string) (from, to time.Time, err error) {
	from, err = time.Parse("2006-01", year+"-"+month)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid period %s-%s: %w", year, month, err)
	}
	return from, from.AddDate(0, 1, 0), nil
}
