package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/cmlabs-hris/erp-backend-go/internal/domain/commission"
	"github.com/xuri/excelize/v2"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	SummarySheet = "Summary"
	LinesSheet   = "Lines"
	MiscSheet    = "Misc"
)

var (
	lineHeaders = []string{"Record ID", "Company", "Status", "Contract Date", "Contract Client", "Rate (%)", "Rate Source", "Commission", "Amount", "Warnings"}
	miscHeaders = []string{"ID", "Description", "Amount"}
)

// StatementFilename returns the attachment name for a statement workbook.
func StatementFilename(scope commission.Scope) string {
	return fmt.Sprintf("commission_%d_%s%s.xlsx", scope.SalespersonID, scope.Year, scope.Month)
}

// BuildStatementXLSX renders a statement as a workbook with summary, lines and misc sheets.
func BuildStatementXLSX(stmt commission.Statement, salespersonName string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(LinesSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(MiscSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	status := "Unconfirmed"
	confirmedAt := ""
	if stmt.IsConfirmed {
		status = "Confirmed"
		if stmt.ConfirmedAt != nil {
			confirmedAt = stmt.ConfirmedAt.Format(time.RFC3339)
		}
	}

	summary := [][2]interface{}{
		{"Salesperson ID", stmt.Scope.SalespersonID},
		{"Salesperson", salespersonName},
		{"Period", stmt.Scope.Year + "-" + stmt.Scope.Month},
		{"Status", status},
		{"Confirmed At", confirmedAt},
		{"Snapshot Hash", stmt.SnapshotHash},
		{"Total Contract Commission", stmt.TotalContractCommission},
		{"Total Misc", stmt.TotalMisc},
		{"Total Commission", stmt.TotalCommission},
		{"Withholding Tax (3.3%)", stmt.WithholdingTax},
		{"Net Pay", stmt.NetPay},
	}
	_ = f.SetCellValue(SummarySheet, "A1", "Commission Statement")
	_ = f.SetCellStyle(SummarySheet, "A1", "A1", headerStyle)
	for i, kv := range summary {
		row := i + 3
		_ = f.SetCellValue(SummarySheet, fmt.Sprintf("A%d", row), kv[0])
		_ = f.SetCellValue(SummarySheet, fmt.Sprintf("B%d", row), kv[1])
	}
	_ = f.SetColWidth(SummarySheet, "A", "A", 28)
	_ = f.SetColWidth(SummarySheet, "B", "B", 30)

	if err := writeHeader(f, LinesSheet, lineHeaders, headerStyle); err != nil {
		return nil, err
	}
	for i, line := range stmt.Lines {
		row := i + 2
		warnings := ""
		for j, w := range line.Warnings {
			if j > 0 {
				warnings += "; "
			}
			warnings += w
		}
		values := []interface{}{
			line.SalesRecordID,
			line.CompanyName,
			line.ContractStatus,
			line.ContractDate,
			line.ContractClient,
			line.Rate.String(),
			string(line.RateSource),
			line.Commission,
			line.Amount,
			warnings,
		}
		if err := writeRow(f, LinesSheet, row, values); err != nil {
			return nil, err
		}
	}

	if err := writeHeader(f, MiscSheet, miscHeaders, headerStyle); err != nil {
		return nil, err
	}
	for i, m := range stmt.Misc {
		if err := writeRow(f, MiscSheet, i+2, []interface{}{m.ID, m.Description, m.Amount}); err != nil {
			return nil, err
		}
	}

	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, style)
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, col, col, 16)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}
