package db

// reports.go holds the read-only report queries over the daily sheet. None of
// these mutate; each is recomputed on demand.

import (
	"context"
	"fmt"
	"time"
)

// CustomerBalance is one row of the customer balance report: the unsigned sum
// of amounts for a customer on a date. Note this is a different signing and
// grouping than the buyer running-debt sweep and is not guaranteed consistent
// with it.
type CustomerBalance struct {
	Date         time.Time `db:"date"`
	CustomerName string    `db:"customer_name"`
	Balance      float64   `db:"balance"`
}

// BuyerDebt is one row of the buyer debts report: the debt value of the
// buyer's highest-id row, whatever its direction. When that latest row is a
// Debit its debt field is stale, since the recalculation sweep only writes
// Credit rows; the report carries that figure as the source system did.
type BuyerDebt struct {
	BuyerName string  `db:"buyer_name"`
	Debt      float64 `db:"debt"`
}

// FlowerSales is one row of the flower sales summary: quantity and amount
// sums for a single flower on a date.
type FlowerSales struct {
	FlowerName  string  `db:"flower_name"`
	TotalQty    float64 `db:"total_qty"`
	TotalAmount float64 `db:"total_amount"`
}

// ReportDailyTotal returns the sum of amounts for all rows on a date, over
// both directions. A day with no rows totals zero.
func (db *DB) ReportDailyTotal(ctx context.Context, date time.Time) (float64, error) {
	stmt := db.reportDailyTotalStmt
	namedArgs := map[string]any{"SheetDate": date.Format(dateFormat)}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return 0, fmt.Errorf("daily total verify arguments error: %v", err)
	}
	var total float64
	err := stmt.GetContext(ctx, &total, namedArgs)
	db.logQuery("report daily total", stmt, namedArgs, err)
	if err != nil {
		return 0, fmt.Errorf("daily total error: %w", err)
	}
	return total, nil
}

// ReportCustomerBalances returns amount sums grouped by date and customer
// over the whole sheet.
func (db *DB) ReportCustomerBalances(ctx context.Context) ([]CustomerBalance, error) {
	var balances []CustomerBalance
	err := db.SelectContext(ctx, &balances, `
		SELECT date, customer_name, sum(amount) AS balance
		FROM daily_sheet
		GROUP BY date, customer_name
		ORDER BY date, customer_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("customer balances error: %w", err)
	}
	return balances, nil
}

// ReportBuyerDebts returns, for each buyer appearing on the sheet, the debt
// of that buyer's highest-id row.
func (db *DB) ReportBuyerDebts(ctx context.Context) ([]BuyerDebt, error) {
	var debts []BuyerDebt
	err := db.SelectContext(ctx, &debts, `
		SELECT d.buyer_name, d.debt
		FROM daily_sheet d
		INNER JOIN (
			SELECT buyer_name, max(id) AS max_id
			FROM daily_sheet
			WHERE buyer_name <> ''
			GROUP BY buyer_name
		) latest
		ON d.buyer_name = latest.buyer_name AND d.id = latest.max_id
		ORDER BY d.buyer_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("buyer debts error: %w", err)
	}
	return debts, nil
}

// ReportFlowerSales returns per-flower quantity and amount totals for a date.
func (db *DB) ReportFlowerSales(ctx context.Context, date time.Time) ([]FlowerSales, error) {
	stmt := db.reportFlowerSalesStmt
	namedArgs := map[string]any{"SheetDate": date.Format(dateFormat)}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return nil, fmt.Errorf("flower sales verify arguments error: %v", err)
	}
	var sales []FlowerSales
	err := stmt.SelectContext(ctx, &sales, namedArgs)
	db.logQuery("report flower sales", stmt, namedArgs, err)
	if err != nil {
		return nil, fmt.Errorf("flower sales error: %w", err)
	}
	return sales, nil
}
