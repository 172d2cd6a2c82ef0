package commission

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/cmlabs-hris/erp-backend-go/internal/domain/commission"
	"github.com/cmlabs-hris/erp-backend-go/internal/domain/sales"
)

// Aggregate sums lines and misc entries into an unconfirmed statement.
// Records outside completed/terminated are skipped.
func Aggregate(scope commission.Scope, calc *LineCalculator, records []sales.SalesRecord, misc []commission.MiscCommission) commission.Statement {
	stmt := commission.Statement{
		Scope: scope,
		Lines: make([]commission.Line, 0, len(records)),
		Misc:  make([]commission.MiscLine, 0, len(misc)),
	}

	for _, rec := range records {
		if !rec.ContractStatus.IsCommissionable() {
			continue
		}
		line := calc.Calculate(rec)
		stmt.Lines = append(stmt.Lines, line)
		stmt.TotalContractCommission += line.Amount
	}

	for _, m := range misc {
		stmt.Misc = append(stmt.Misc, commission.MiscLine{ID: m.ID, Description: m.Description, Amount: m.Amount})
		stmt.TotalMisc += m.Amount
	}

	stmt.TotalCommission = stmt.TotalContractCommission + stmt.TotalMisc
	stmt.WithholdingTax = WithholdingTax(stmt.TotalCommission)
	stmt.NetPay = stmt.TotalCommission - stmt.WithholdingTax
	return stmt
}

// snapshot is the frozen JSON document stored on confirm.
type snapshot struct {
	SalespersonID           int64                 `json:"salesperson_id"`
	Year                    string                `json:"year"`
	Month                   string                `json:"month"`
	Lines                   []commission.Line     `json:"lines"`
	Misc                    []commission.MiscLine `json:"misc_commissions"`
	TotalContractCommission int64                 `json:"total_contract_commission"`
	TotalMisc               int64                 `json:"total_misc"`
	TotalCommission         int64                 `json:"total_commission"`
	WithholdingTax          int64                 `json:"withholding_tax"`
	NetPay                  int64                 `json:"net_pay"`
}

// EncodeSnapshot returns the canonical snapshot bytes and their SHA-256 hex digest.
func EncodeSnapshot(stmt commission.Statement) ([]byte, string, error) {
	doc := snapshot{
		SalespersonID:           stmt.Scope.SalespersonID,
		Year:                    stmt.Scope.Year,
		Month:                   stmt.Scope.Month,
		Lines:                   stmt.Lines,
		Misc:                    stmt.Misc,
		TotalContractCommission: stmt.TotalContractCommission,
		TotalMisc:               stmt.TotalMisc,
		TotalCommission:         stmt.TotalCommission,
		WithholdingTax:          stmt.WithholdingTax,
		NetPay:                  stmt.NetPay,
	}
	if doc.Lines == nil {
		doc.Lines = []commission.Line{}
	}
	if doc.Misc == nil {
		doc.Misc = []commission.MiscLine{}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, "", fmt.Errorf("marshal snapshot: %w", err)
	}
	sum := sha256.Sum256(data)
	return data, hex.EncodeToString(sum[:]), nil
}

// DecodeSnapshot rebuilds a confirmed statement from its stored row.
func DecodeSnapshot(state commission.StatementState) (commission.Statement, error) {
	if len(state.Snapshot) == 0 {
		return commission.Statement{}, commission.ErrCorruptSnapshot
	}

	var doc snapshot
	if err := json.Unmarshal(state.Snapshot, &doc); err != nil {
		return commission.Statement{}, fmt.Errorf("%w: %v", commission.ErrCorruptSnapshot, err)
	}
	if state.SnapshotHash != "" {
		sum := sha256.Sum256(state.Snapshot)
		if hex.EncodeToString(sum[:]) != state.SnapshotHash {
			return commission.Statement{}, fmt.Errorf("%w: hash mismatch", commission.ErrCorruptSnapshot)
		}
	}

	return commission.Statement{
		Scope:                   state.Scope,
		Lines:                   doc.Lines,
		Misc:                    doc.Misc,
		TotalContractCommission: doc.TotalContractCommission,
		TotalMisc:               doc.TotalMisc,
		TotalCommission:         doc.TotalCommission,
		WithholdingTax:          doc.WithholdingTax,
		NetPay:                  doc.NetPay,
		IsConfirmed:             true,
		ConfirmedAt:             state.ConfirmedAt,
		ConfirmedBy:             state.ConfirmedBy,
		SnapshotHash:            state.SnapshotHash,
		Version:                 state.Version,
	}, nil
}
