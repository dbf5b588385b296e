// Package export renders processed batches as XLSX and CSV downloads.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/opensource-finance/gridpay/internal/domain"
)

// Columns is the output column order, shared by the XLSX and CSV writers.
var Columns = []string{
	"Segment",
	"Policy Type",
	"Location",
	"Payin",
	"Remarks",
	"Calculated Payout",
	"Formula Used",
	"Rule Explanation",
}

const sheetName = "Policy Data"

// ExcelBytes renders a batch result as an XLSX workbook: a merged title
// row with the company name, a bold header row, then one row per record.
func ExcelBytes(result *domain.BatchResult) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("batch result is required")
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	// Title row, merged across all columns
	title := fmt.Sprintf("%s - Policy Data", result.Company)
	if err := f.SetCellValue(sheetName, "A1", title); err != nil {
		return nil, err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(Columns))
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err == nil {
		_ = f.SetCellStyle(sheetName, "A1", lastCol+"1", titleStyle)
	}

	// Header row
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	for i, h := range Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, h)
	}
	if headerStyle != 0 {
		_ = f.SetCellStyle(sheetName, "A2", lastCol+"2", headerStyle)
	}

	// Data rows
	for rowIdx, rec := range result.Records {
		row := rowIdx + 3
		for colIdx, value := range recordRow(rec) {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, row)
			_ = f.SetCellValue(sheetName, cell, value)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 26)
	_ = f.SetColWidth(sheetName, "B", "C", 16)
	_ = f.SetColWidth(sheetName, "D", "E", 14)
	_ = f.SetColWidth(sheetName, "F", "G", 20)
	_ = f.SetColWidth(sheetName, "H", "H", 64)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func recordRow(rec domain.OutputRecord) []string {
	return []string{
		rec.Segment,
		rec.PolicyType,
		rec.Location,
		rec.Payin,
		rec.Remarks,
		rec.CalculatedPayout,
		rec.FormulaUsed,
		rec.RuleExplanation,
	}
}
