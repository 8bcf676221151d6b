// Package export writes query results to spreadsheet formats.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"finance-tracker/internal/models"
	"finance-tracker/internal/util"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "Transactions"

const createdLayout = "2006-01-02 15:04:05"

// Columns is the header row of every export. Internal ids and owners are
// not exported.
var Columns = []string{"date", "category", "subcategory", "amount", "comment", "created_at"}

// Row is one exported transaction.
type Row struct {
	Date        time.Time
	Category    string
	Subcategory string
	Amount      decimal.Decimal
	Comment     string
	CreatedAt   time.Time
}

// RowsFrom converts stored transactions, keeping their order.
func RowsFrom(txs []models.Transaction) []Row {
	rows := make([]Row, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, Row{
			Date:        t.Date.UTC(),
			Category:    t.Category,
			Subcategory: t.Subcategory,
			Amount:      t.Amount,
			Comment:     t.Comment,
			CreatedAt:   t.CreatedAt.UTC().Truncate(time.Second),
		})
	}
	return rows
}

func (r Row) strings() []string {
	return []string{
		r.Date.Format(util.DateLayout),
		r.Category,
		r.Subcategory,
		r.Amount.String(),
		r.Comment,
		r.CreatedAt.Format(createdLayout),
	}
}

// amountCell stores the amount as a number when a float64 holds it exactly,
// and as text otherwise so no digits are lost.
func amountCell(d decimal.Decimal) interface{} {
	f := d.InexactFloat64()
	if decimal.NewFromFloat(f).Equal(d) {
		return f
	}
	return d.String()
}

// WriteXLSX writes rows to a workbook with a single Transactions sheet.
// Amounts are stored as numbers where that is exact so the sheet can sum
// them.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			r.Date.Format(util.DateLayout),
			r.Category,
			r.Subcategory,
			amountCell(r.Amount),
			r.Comment,
			r.CreatedAt.Format(createdLayout),
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ReadXLSX reads a workbook produced by WriteXLSX.
func ReadXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	// raw values, the General format rounds numbers to 15 digits
	cells, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", SheetName, err)
	}
	if len(cells) == 0 {
		return nil, errors.New("missing header row")
	}
	for i, c := range Columns {
		if i >= len(cells[0]) || cells[0][i] != c {
			return nil, fmt.Errorf("unexpected header %v", cells[0])
		}
	}

	rows := make([]Row, 0, len(cells)-1)
	for n, line := range cells[1:] {
		// trailing empty cells are dropped by GetRows
		for len(line) < len(Columns) {
			line = append(line, "")
		}
		row, err := parseRow(line)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(line []string) (Row, error) {
	date, err := util.ParseDate(line[0])
	if err != nil {
		return Row{}, err
	}
	amount, err := util.ParseAmount(line[3])
	if err != nil {
		return Row{}, err
	}
	created, err := time.ParseInLocation(createdLayout, line[5], time.UTC)
	if err != nil {
		return Row{}, fmt.Errorf("created_at: %w", err)
	}
	return Row{
		Date:        date,
		Category:    line[1],
		Subcategory: line[2],
		Amount:      amount,
		Comment:     line[4],
		CreatedAt:   created,
	}, nil
}

// WriteCSV writes the same columns as WriteXLSX.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.strings()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
