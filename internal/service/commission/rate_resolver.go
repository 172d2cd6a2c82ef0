package commission

import (
	"github.com/cmlabs-hris/erp-backend-go/internal/domain/commission"
	"github.com/cmlabs-hris/erp-backend-go/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// DefaultRate is the fallback percent when neither the record nor its client carries a rate.
var DefaultRate = decimal.NewFromInt(500)

// RateResolver resolves the effective percent for a sales record.
// Client names match exactly; no trimming or case folding.
type RateResolver struct {
	defaultRate decimal.Decimal
	clientRates map[string]decimal.Decimal
}

func NewRateResolver(defaultRate decimal.Decimal, clients []sales.SalesClient) *RateResolver {
	if !defaultRate.IsPositive() {
		defaultRate = DefaultRate
	}
	rates := make(map[string]decimal.Decimal, len(clients))
	for _, c := range clients {
		rates[c.Name] = c.CommissionRate
	}
	return &RateResolver{defaultRate: defaultRate, clientRates: rates}
}

// Resolve never fails: override, then client default, then the hard default.
func (r *RateResolver) Resolve(rec sales.SalesRecord) (decimal.Decimal, commission.RateSource) {
	if rec.CommissionRate != nil && !rec.CommissionRate.IsZero() {
		return *rec.CommissionRate, commission.RateSourceRecord
	}
	if rec.ClientName != nil {
		if rate, ok := r.clientRates[*rec.ClientName]; ok && !rate.IsZero() {
			return rate, commission.RateSourceClient
		}
	}
	return r.defaultRate, commission.RateSourceDefault
}
