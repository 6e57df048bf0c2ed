// Package export renders sale listings as spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/domain"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet that holds the sales.
const SheetName = "Vendas"

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var headers = []string{"Data", "Cliente", "Cidade", "Valor"}

const moneyFormat = `"R$" #,##0.00`

// WriteSalesXLSX writes list as a single-sheet workbook: one row per sale,
// then total, average and commission rows. Dates are shown in loc.
func WriteSalesXLSX(w io.Writer, list domain.SaleList, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	numFmt := moneyFormat
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return fmt.Errorf("create money style: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "D1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	row := 2
	for _, s := range list.Sales {
		values := []any{s.Date.In(loc).Format("02/01/2006"), s.ClientName, s.City, s.Value.InexactFloat64()}
		if err := setRow(f, row, values); err != nil {
			return err
		}
		row++
	}

	summary := []struct {
		label string
		value float64
	}{
		{"Total", list.Summary.Total.InexactFloat64()},
		{"Média", list.Summary.Average.InexactFloat64()},
		{"Comissão", list.Summary.Commission.InexactFloat64()},
	}
	firstSummary := row + 1
	for i, s := range summary {
		if err := setRow(f, firstSummary+i, []any{s.label, "", "", s.value}); err != nil {
			return err
		}
	}
	lastRow := firstSummary + len(summary) - 1

	if err := f.SetCellStyle(SheetName, "D2", cell(4, lastRow), money); err != nil {
		return fmt.Errorf("style values: %w", err)
	}
	if err := f.SetCellStyle(SheetName, cell(1, firstSummary), cell(1, lastRow), bold); err != nil {
		return fmt.Errorf("style summary: %w", err)
	}
	if err := f.SetColWidth(SheetName, "A", "D", 18); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []any) error {
	if err := f.SetSheetRow(SheetName, cell(1, row), &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
