package commission

import (
	"github.com/cmlabs-hris/erp-backend-go/internal/domain/commission"
	"github.com/cmlabs-hris/erp-backend-go/internal/domain/sales"
	"github.com/shopspring/decimal"
)

const WarningMissingContractClient = "contract_client missing; counted as 0"

var (
	hundred         = decimal.NewFromInt(100)
	half            = decimal.New(5, -1)
	withholdingRate = decimal.RequireFromString("0.033")
)

// LineCalculator turns sales records into signed statement lines.
type LineCalculator struct {
	resolver *RateResolver
}

func NewLineCalculator(resolver *RateResolver) *LineCalculator {
	return &LineCalculator{resolver: resolver}
}

// CommissionAmount = floor(base * rate / 100 + 0.5), so halves round toward positive infinity.
func CommissionAmount(base int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(base).Mul(rate).Div(hundred).Add(half).Floor().IntPart()
}

// WithholdingTax = floor(total * 3.3%). A negative total yields a negative (refund) figure.
func WithholdingTax(total int64) int64 {
	return decimal.NewFromInt(total).Mul(withholdingRate).Floor().IntPart()
}

// Calculate builds the line for one record. Terminated records contribute the negated commission.
func (c *LineCalculator) Calculate(rec sales.SalesRecord) commission.Line {
	rate, source := c.resolver.Resolve(rec)

	line := commission.Line{
		SalesRecordID:  rec.ID,
		CompanyName:    rec.CompanyName,
		ContractStatus: string(rec.ContractStatus),
		Rate:           rate,
		RateSource:     source,
	}
	if rec.ContractDate != nil {
		line.ContractDate = rec.ContractDate.Format("2006-01-02")
	}

	if rec.ContractClient == nil {
		line.Warnings = append(line.Warnings, WarningMissingContractClient)
	} else {
		line.ContractClient = *rec.ContractClient
	}

	line.Commission = CommissionAmount(line.ContractClient, rate)
	line.Amount = line.Commission
	if rec.ContractStatus == sales.ContractStatusTerminated {
		line.Amount = -line.Commission
	}
	return line
}
