package sales

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/cmlabs-hris/erp-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// Amount is an integer currency value that also accepts numeric strings ("500,000") on input.
// A value that cannot be parsed is kept as Invalid so Validate can report it per field.
type Amount struct {
	Value   int64
	Set     bool
	Invalid bool
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	a.Set = true
	if bytes.Equal(data, []byte("null")) {
		a.Set = false
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			a.Invalid = true
			return nil
		}
		v, ok := validator.ParseAmount(s)
		a.Value, a.Invalid = v, !ok
		return nil
	}

	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		a.Invalid = true
		return nil
	}
	a.Value = v
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Set || a.Invalid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(a.Value, 10)), nil
}

// Ptr returns nil when the amount was not provided.
func (a Amount) Ptr() *int64 {
	if !a.Set || a.Invalid {
		return nil
	}
	v := a.Value
	return &v
}

// maxRate is the largest percent NUMERIC(10, 2) can hold.
var maxRate = decimal.RequireFromString("99999999.99")

// checkRate rejects rates the rate columns would round or overflow.
func checkRate(rate decimal.Decimal) (string, bool) {
	if !rate.Equal(rate.Round(2)) {
		return "must have at most 2 decimal places", false
	}
	if rate.GreaterThan(maxRate) {
		return "must not exceed 99999999.99", false
	}
	return "", true
}

// ========== SALES RECORD DTOs ==========

type CreateSalesRecordRequest struct {
	CompanyName   string `json:"company_name" validate:"required,max=255"`
	Phone         string `json:"phone" validate:"omitempty,max=50"`
	SalespersonID int64  `json:"salesperson_id" validate:"gt=0"`
	ClientName    string `json:"client_name" validate:"omitempty,max=255"`
	Force         bool   `json:"force"`
}

func (r *CreateSalesRecordRequest) Validate() error {
	errs := validator.Struct(r)
	if r.CompanyName != "" && validator.IsEmpty(r.CompanyName) {
		errs.Add("company_name", "is required")
	}
	return errs.OrNil()
}

// UpdateSalesRecordRequest is a partial update; nil fields are left untouched.
// A commission_rate of 0 removes the per-record override.
type UpdateSalesRecordRequest struct {
	ID             int64            `json:"-"`
	CompanyName    *string          `json:"company_name,omitempty"`
	Phone          *string          `json:"phone,omitempty"`
	ClientName     *string          `json:"client_name,omitempty"`
	ContractStatus *string          `json:"contract_status,omitempty"`
	ContractDate   *string          `json:"contract_date,omitempty"`
	ActualSales    Amount           `json:"actual_sales"`
	ContractClient Amount           `json:"contract_client"`
	CommissionRate *decimal.Decimal `json:"commission_rate,omitempty"`
}

func (r *UpdateSalesRecordRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.CompanyName != nil && validator.IsEmpty(*r.CompanyName) {
		errs.Add("company_name", "must not be empty")
	}
	if r.ContractStatus != nil {
		if _, ok := ParseContractStatus(*r.ContractStatus); !ok {
			errs.Add("contract_status", "must be one of: N, Y, terminated")
		}
	}
	if r.ContractDate != nil && *r.ContractDate != "" {
		if _, ok := validator.IsValidDate(*r.ContractDate); !ok {
			errs.Add("contract_date", "must be a date in YYYY-MM-DD format")
		}
	}
	if r.ActualSales.Invalid {
		errs.Add("actual_sales", "must be an integer amount")
	}
	if r.ContractClient.Invalid {
		errs.Add("contract_client", "must be an integer amount")
	} else if r.ContractClient.Set && r.ContractClient.Value < 0 {
		errs.Add("contract_client", "must be non-negative")
	}
	if r.CommissionRate != nil {
		if r.CommissionRate.IsNegative() {
			errs.Add("commission_rate", "must be non-negative")
		} else if msg, ok := checkRate(*r.CommissionRate); !ok {
			errs.Add("commission_rate", msg)
		}
	}

	return errs.OrNil()
}

// TouchesCommissionRate reports whether the update writes the per-record rate override.
func (r *UpdateSalesRecordRequest) TouchesCommissionRate() bool {
	return r.CommissionRate != nil
}

type DuplicateCheckRequest struct {
	CompanyName string `json:"company_name"`
	Phone       string `json:"phone"`
}

func (r *DuplicateCheckRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.CompanyName) && validator.IsEmpty(r.Phone) {
		errs.Add("company_name", "company_name or phone is required")
	}
	return errs.OrNil()
}

type SalesRecordResponse struct {
	ID             int64            `json:"id"`
	CompanyName    string           `json:"company_name"`
	Phone          *string          `json:"phone,omitempty"`
	SalespersonID  int64            `json:"salesperson_id"`
	ClientName     *string          `json:"client_name,omitempty"`
	ContractStatus string           `json:"contract_status"`
	ContractDate   *string          `json:"contract_date,omitempty"`
	ActualSales    *int64           `json:"actual_sales,omitempty"`
	ContractClient *int64           `json:"contract_client,omitempty"`
	CommissionRate *decimal.Decimal `json:"commission_rate,omitempty"`
	CreatedAt      string           `json:"created_at"`
	UpdatedAt      string           `json:"updated_at"`
}

func ToRecordResponse(r SalesRecord) SalesRecordResponse {
	var contractDate *string
	if r.ContractDate != nil {
		s := r.ContractDate.Format("2006-01-02")
		contractDate = &s
	}
	return SalesRecordResponse{
		ID:             r.ID,
		CompanyName:    r.CompanyName,
		Phone:          r.Phone,
		SalespersonID:  r.SalespersonID,
		ClientName:     r.ClientName,
		ContractStatus: string(r.ContractStatus),
		ContractDate:   contractDate,
		ActualSales:    r.ActualSales,
		ContractClient: r.ContractClient,
		CommissionRate: r.CommissionRate,
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      r.UpdatedAt.Format(time.RFC3339),
	}
}

func ToRecordResponses(records []SalesRecord) []SalesRecordResponse {
	result := make([]SalesRecordResponse, 0, len(records))
	for _, r := range records {
		result = append(result, ToRecordResponse(r))
	}
	return result
}

// ========== SALES CLIENT DTOs ==========

type UpsertSalesClientRequest struct {
	Name           string          `json:"name" validate:"required,max=255"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
}

func (r *UpsertSalesClientRequest) Validate() error {
	errs := validator.Struct(r)
	if !r.CommissionRate.IsPositive() {
		errs.Add("commission_rate", "must be greater than 0")
	} else if msg, ok := checkRate(r.CommissionRate); !ok {
		errs.Add("commission_rate", msg)
	}
	return errs.OrNil()
}

type SalesClientResponse struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
}
