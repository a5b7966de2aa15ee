package db

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// sheetFixture loads a small mixed daily sheet used by the report tests.
func sheetFixture(t *testing.T, db *DB) {
	t.Helper()
	ctx := context.Background()

	rows := []struct {
		date      string
		customer  string
		flower    string
		qty       float64
		rate      float64
		direction Direction
		buyer     string
	}{
		{"2026-03-15", "murugan stores", "Rose", 2, 50, Credit, "kumar"},    // 100
		{"2026-03-15", "murugan stores", "Jasmine", 1, 80, Debit, ""},      // 80
		{"2026-03-15", "city florist", "Rose", 4, 50, Credit, "anand"},     // 200
		{"2026-03-16", "city florist", "Marigold", 3, 20, Credit, "kumar"}, // 60
	}
	for _, r := range rows {
		_, err := db.TransactionInsert(ctx, Transaction{
			Date:         testDate(t, r.date),
			CustomerName: r.customer,
			FlowerName:   r.flower,
			Qty:          r.qty,
			Rate:         r.rate,
			Amount:       r.qty * r.rate,
			Direction:    r.direction,
			BuyerName:    r.buyer,
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	for _, buyer := range []string{"kumar", "anand"} {
		if err := db.RecalculateDebts(ctx, buyer); err != nil {
			t.Fatal(err)
		}
	}
}

func TestReportDailyTotal(t *testing.T) {

	db := setupTestDB(t)
	ctx := context.Background()
	sheetFixture(t, db)

	total, err := db.ReportDailyTotal(ctx, testDate(t, "2026-03-15"))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := total, 380.0; got != want {
		t.Errorf("got %v, want %v", got, want)
	}

	// A day with no rows totals zero.
	total, err = db.ReportDailyTotal(ctx, testDate(t, "2026-03-17"))
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 {
		t.Errorf("got %v, want 0", total)
	}
}

func TestReportCustomerBalances(t *testing.T) {

	db := setupTestDB(t)
	ctx := context.Background()
	sheetFixture(t, db)

	balances, err := db.ReportCustomerBalances(ctx)
	if err != nil {
		t.Fatal(err)
	}

	type row struct {
		date     string
		customer string
		balance  float64
	}
	var got []row
	for _, b := range balances {
		got = append(got, row{b.Date.Format(dateFormat), b.CustomerName, b.Balance})
	}
	// Sums are unsigned amount totals grouped by date and customer.
	want := []row{
		{"2026-03-15", "city florist", 200},
		{"2026-03-15", "murugan stores", 180},
		{"2026-03-16", "city florist", 60},
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(row{})); diff != "" {
		t.Errorf("balances mismatch (-want +got):\n%s", diff)
	}
}

func TestReportBuyerDebts(t *testing.T) {

	db := setupTestDB(t)
	ctx := context.Background()
	sheetFixture(t, db)

	debts, err := db.ReportBuyerDebts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []BuyerDebt{
		{BuyerName: "anand", Debt: 200},
		{BuyerName: "kumar", Debt: 160},
	}
	if diff := cmp.Diff(want, debts); diff != "" {
		t.Errorf("buyer debts mismatch (-want +got):\n%s", diff)
	}
}

// TestReportBuyerDebtsStaleDebitRow documents the inherited ambiguity: the
// report reads the buyer's latest row regardless of direction, so when that
// row is a Debit, never written by the recalculation sweep, the reported
// figure is the Debit row's stale debt field.
func TestReportBuyerDebtsStaleDebitRow(t *testing.T) {

	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.TransactionInsert(ctx, creditRow(t, "kumar", "2026-03-15", 100)); err != nil {
		t.Fatal(err)
	}
	debit := creditRow(t, "kumar", "2026-03-16", 30)
	debit.Direction = Debit
	debit.Debt = -30 // the provisional value the entry form computes
	if _, err := db.TransactionInsert(ctx, debit); err != nil {
		t.Fatal(err)
	}
	if err := db.RecalculateDebts(ctx, "kumar"); err != nil {
		t.Fatal(err)
	}

	debts, err := db.ReportBuyerDebts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []BuyerDebt{{BuyerName: "kumar", Debt: -30}}
	if diff := cmp.Diff(want, debts); diff != "" {
		t.Errorf("buyer debts mismatch (-want +got):\n%s", diff)
	}
}

func TestReportFlowerSales(t *testing.T) {

	db := setupTestDB(t)
	ctx := context.Background()
	sheetFixture(t, db)

	sales, err := db.ReportFlowerSales(ctx, testDate(t, "2026-03-15"))
	if err != nil {
		t.Fatal(err)
	}
	want := []FlowerSales{
		{FlowerName: "Jasmine", TotalQty: 1, TotalAmount: 80},
		{FlowerName: "Rose", TotalQty: 6, TotalAmount: 300},
	}
	if diff := cmp.Diff(want, sales); diff != "" {
		t.Errorf("flower sales mismatch (-want +got):\n%s", diff)
	}

	// No sales for an empty day.
	sales, err = db.ReportFlowerSales(ctx, testDate(t, "2026-03-17"))
	if err != nil {
		t.Fatal(err)
	}
	if len(sales) != 0 {
		t.Errorf("expected no rows, got %d", len(sales))
	}
}
