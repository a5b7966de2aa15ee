// Package export writes ledger data to xlsx workbooks for sharing outside
// the application.
package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"florist/db"

	"github.com/xuri/excelize/v2"
)

// worksheet names in the exported workbook.
const (
	sheetDaily       = "Daily Sheet"
	sheetBuyerDebts  = "Buyer Debts"
	sheetFlowerSales = "Flower Sales"
)

// Exporter builds xlsx workbooks from the ledger database.
type Exporter struct {
	db *db.DB
}

// New returns an Exporter over the provided database.
func New(dbConn *db.DB) *Exporter {
	return &Exporter{db: dbConn}
}

// Workbook builds a workbook for the given date holding the daily sheet
// entries, the outstanding buyer debts and the per-flower sales totals.
// Callers own the returned file and should Close it when done.
func (e *Exporter) Workbook(ctx context.Context, date time.Time) (*excelize.File, error) {

	f := excelize.NewFile()

	// Rename the default sheet rather than leaving an empty Sheet1 around.
	if err := f.SetSheetName("Sheet1", sheetDaily); err != nil {
		return nil, fmt.Errorf("worksheet naming error: %w", err)
	}

	if err := e.writeDailySheet(ctx, f, date); err != nil {
		return nil, err
	}
	if err := e.writeBuyerDebts(ctx, f); err != nil {
		return nil, err
	}
	if err := e.writeFlowerSales(ctx, f, date); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)
	return f, nil
}

// WriteFile builds the workbook for the given date and saves it to path.
func (e *Exporter) WriteFile(ctx context.Context, date time.Time, path string) error {
	f, err := e.Workbook(ctx, date)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("workbook save error for %q: %w", path, err)
	}
	return nil
}

func (e *Exporter) writeDailySheet(ctx context.Context, f *excelize.File, date time.Time) error {

	transactions, err := e.db.TransactionsByDate(ctx, date)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	headers := []any{"Date", "Customer", "Flower", "Qty", "Rate", "Amount", "Direction", "Buyer", "Debt"}
	if err := f.SetSheetRow(sheetDaily, "A1", &headers); err != nil {
		return fmt.Errorf("daily sheet header error: %w", err)
	}
	for i, t := range transactions {
		row := []any{
			t.Date.Format("2006-01-02"),
			t.CustomerName,
			t.FlowerName,
			t.Qty,
			t.Rate,
			t.Amount,
			string(t.Direction),
			t.BuyerName,
			t.Debt,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetDaily, cell, &row); err != nil {
			return fmt.Errorf("daily sheet row error: %w", err)
		}
	}
	return nil
}

func (e *Exporter) writeBuyerDebts(ctx context.Context, f *excelize.File) error {

	debts, err := e.db.ReportBuyerDebts(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	if _, err := f.NewSheet(sheetBuyerDebts); err != nil {
		return fmt.Errorf("worksheet creation error: %w", err)
	}
	headers := []any{"Buyer", "Debt"}
	if err := f.SetSheetRow(sheetBuyerDebts, "A1", &headers); err != nil {
		return fmt.Errorf("buyer debts header error: %w", err)
	}
	for i, d := range debts {
		row := []any{d.BuyerName, d.Debt}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetBuyerDebts, cell, &row); err != nil {
			return fmt.Errorf("buyer debts row error: %w", err)
		}
	}
	return nil
}

func (e *Exporter) writeFlowerSales(ctx context.Context, f *excelize.File, date time.Time) error {

	sales, err := e.db.ReportFlowerSales(ctx, date)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	if _, err := f.NewSheet(sheetFlowerSales); err != nil {
		return fmt.Errorf("worksheet creation error: %w", err)
	}
	headers := []any{"Flower", "Qty", "Amount"}
	if err := f.SetSheetRow(sheetFlowerSales, "A1", &headers); err != nil {
		return fmt.Errorf("flower sales header error: %w", err)
	}
	for i, s := range sales {
		row := []any{s.FlowerName, s.TotalQty, s.TotalAmount}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetFlowerSales, cell, &row); err != nil {
			return fmt.Errorf("flower sales row error: %w", err)
		}
	}
	return nil
}
