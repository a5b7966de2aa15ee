package db

// ledger.go deals with the daily sheet, the ledger of debit and credit
// transactions, and the recalculation of buyer running debts over it.
//
// Inserts, updates and deletes do not recalculate debts themselves. The
// caller must run RecalculateDebts for any buyer whose Credit sequence may
// have shifted: after inserting a Credit row, and after an update or delete
// that changes a row's buyer, direction or amount, or removes it. To do so
// for updates and deletes the caller needs the row's previous buyer, fetched
// before mutating. The sweep is idempotent and fully re-derivable, so a
// missed recalculation is repaired by the next one (or `florist recalc`).

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Direction is the debit/credit tag of a daily sheet row.
type Direction string

const (
	Debit  Direction = "Debit"
	Credit Direction = "Credit"
)

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool {
	return d == Debit || d == Credit
}

// Transaction is one daily sheet row. Amount is fixed at entry time from the
// quantity and rate then in force; later rate changes do not alter it. Debt
// is the running balance as of this row, maintained by RecalculateDebts and
// only meaningful on Credit rows with a buyer.
type Transaction struct {
	ID           int64     `db:"id"`
	Date         time.Time `db:"date"`
	CustomerName string    `db:"customer_name"`
	FlowerName   string    `db:"flower_name"`
	Qty          float64   `db:"qty"`
	Rate         float64   `db:"rate"`
	Amount       float64   `db:"amount"`
	Direction    Direction `db:"direction"`
	Debt         float64   `db:"debt"`
	BuyerName    string    `db:"buyer_name"`
	RowCount     int       `db:"row_count"` // only set by TransactionsList
}

// SignedAmount is the transaction's contribution to a buyer's balance:
// positive for Credit, negative for Debit.
func (t Transaction) SignedAmount() float64 {
	if t.Direction == Credit {
		return t.Amount
	}
	return -t.Amount
}

// namedArgs returns the named argument map shared by the insert and update
// statements.
func (t Transaction) namedArgs() map[string]any {
	return map[string]any{
		"SheetDate":    t.Date.Format(dateFormat),
		"CustomerName": t.CustomerName,
		"FlowerName":   t.FlowerName,
		"Qty":          t.Qty,
		"Rate":         t.Rate,
		"Amount":       t.Amount,
		"Direction":    string(t.Direction),
		"Debt":         t.Debt,
		"BuyerName":    t.BuyerName,
	}
}

// TransactionInsert appends a daily sheet row and returns its newly assigned
// id. Ids are strictly monotonic; a row inserted later always sorts after
// earlier rows in the running-debt order regardless of its date. The Debt
// field is stored as supplied and is provisional until the next
// RecalculateDebts pass.
func (db *DB) TransactionInsert(ctx context.Context, t Transaction) (int64, error) {
	stmt := db.sheetInsertStmt
	namedArgs := t.namedArgs()
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return 0, fmt.Errorf("transaction insert verify arguments error: %v", err)
	}
	res, err := stmt.ExecContext(ctx, namedArgs)
	db.logQuery("transaction insert", stmt, namedArgs, err)
	if err != nil {
		return 0, fmt.Errorf("failed to insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("could not read new transaction id: %w", err)
	}
	return id, nil
}

// TransactionUpdate rewrites the row with the given id, returning
// sql.ErrNoRows if it does not exist. The caller must have fetched the row's
// previous buyer beforehand to recalculate both sequences after a buyer
// change.
func (db *DB) TransactionUpdate(ctx context.Context, id int64, t Transaction) error {
	stmt := db.sheetUpdateStmt
	namedArgs := t.namedArgs()
	namedArgs["Id"] = id
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return fmt.Errorf("transaction update verify arguments error: %v", err)
	}
	res, err := stmt.ExecContext(ctx, namedArgs)
	db.logQuery("transaction update", stmt, namedArgs, err)
	if err != nil {
		return fmt.Errorf("failed to update transaction %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// TransactionDelete deletes the row with the given id. Deleting an unknown id
// is a no-op. The caller must have retained the row's buyer to recalculate
// afterwards.
func (db *DB) TransactionDelete(ctx context.Context, id int64) error {
	stmt := db.sheetDeleteStmt
	namedArgs := map[string]any{"Id": id}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return fmt.Errorf("transaction delete verify arguments error: %v", err)
	}
	_, err := stmt.ExecContext(ctx, namedArgs)
	db.logQuery("transaction delete", stmt, namedArgs, err)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %d: %w", id, err)
	}
	return nil
}

// TransactionGet returns the row with the given id, or sql.ErrNoRows.
func (db *DB) TransactionGet(ctx context.Context, id int64) (Transaction, error) {
	stmt := db.sheetGetStmt
	namedArgs := map[string]any{"Id": id}
	var t Transaction
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return t, fmt.Errorf("transaction get verify arguments error: %v", err)
	}
	err := stmt.GetContext(ctx, &t, namedArgs)
	db.logQuery("transaction get", stmt, namedArgs, err)
	if err != nil {
		if err == sql.ErrNoRows {
			return t, err
		}
		return t, fmt.Errorf("failed to get transaction %d: %w", id, err)
	}
	return t, nil
}

// TransactionsByBuyer returns all of a buyer's rows ordered by ascending id.
func (db *DB) TransactionsByBuyer(ctx context.Context, buyerName string) ([]Transaction, error) {
	stmt := db.sheetByBuyerStmt
	namedArgs := map[string]any{"BuyerName": buyerName}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return nil, fmt.Errorf("transactions by buyer verify arguments error: %v", err)
	}
	var transactions []Transaction
	err := stmt.SelectContext(ctx, &transactions, namedArgs)
	db.logQuery("transactions by buyer", stmt, namedArgs, err)
	if err != nil {
		return nil, fmt.Errorf("transactions by buyer select error: %w", err)
	}
	return transactions, nil
}

// TransactionsByDate returns all rows for a date ordered by ascending id.
func (db *DB) TransactionsByDate(ctx context.Context, date time.Time) ([]Transaction, error) {
	stmt := db.sheetByDateStmt
	namedArgs := map[string]any{"SheetDate": date.Format(dateFormat)}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return nil, fmt.Errorf("transactions by date verify arguments error: %v", err)
	}
	var transactions []Transaction
	err := stmt.SelectContext(ctx, &transactions, namedArgs)
	db.logQuery("transactions by date", stmt, namedArgs, err)
	if err != nil {
		return nil, fmt.Errorf("transactions by date select error: %w", err)
	}
	return transactions, nil
}

// TransactionsList returns a page of the daily sheet, newest rows first, with
// an optional text search over the customer, flower and buyer names. Each
// returned row carries the search's total row count for pagination. An empty
// page returns sql.ErrNoRows.
func (db *DB) TransactionsList(ctx context.Context, search string, limit, offset int) ([]Transaction, error) {
	stmt := db.sheetsListStmt
	namedArgs := map[string]any{
		"TextSearch": search,
		"HereLimit":  limit,
		"HereOffset": offset,
	}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return nil, fmt.Errorf("transactions list verify arguments error: %v", err)
	}
	var transactions []Transaction
	err := stmt.SelectContext(ctx, &transactions, namedArgs)
	db.logQuery("transactions list", stmt, namedArgs, err)
	if err != nil {
		return nil, fmt.Errorf("transactions list select error: %w", err)
	}
	if len(transactions) == 0 {
		return nil, sql.ErrNoRows
	}
	return transactions, nil
}

// CurrentDebt returns the signed sum over all of a buyer's rows, Credit
// positive and Debit negative. A buyer with no rows has a zero balance. The
// web form uses this to precompute the provisional debt stored on insert.
func (db *DB) CurrentDebt(ctx context.Context, buyerName string) (float64, error) {
	stmt := db.sheetCurrentDebtStmt
	namedArgs := map[string]any{"BuyerName": buyerName}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return 0, fmt.Errorf("current debt verify arguments error: %v", err)
	}
	var debt float64
	err := stmt.GetContext(ctx, &debt, namedArgs)
	db.logQuery("current debt", stmt, namedArgs, err)
	if err != nil {
		return 0, fmt.Errorf("current debt error for %q: %w", buyerName, err)
	}
	return debt, nil
}

// RecalculateDebts recomputes the running debt across a buyer's Credit rows
// in ascending id order, writing each row's debt as the prefix sum of the
// Credit amounts so far. Debit rows are not touched. A buyer with no Credit
// rows is a no-op. The sweep runs in a single database transaction and is
// idempotent: it can be re-run for any buyer at any time with no effect
// beyond overwriting the debt column.
func (db *DB) RecalculateDebts(ctx context.Context, buyerName string) error {

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("recalculate begin error: %w", err)
	}
	defer tx.Rollback() // no-op after commit.

	selectStmt := tx.NamedStmtContext(ctx, db.sheetCreditsStmt.NamedStmt)
	updateStmt := tx.NamedStmtContext(ctx, db.sheetDebtUpdateStmt.NamedStmt)

	var credits []Transaction
	selectArgs := map[string]any{"BuyerName": buyerName}
	if err := db.sheetCreditsStmt.verifyArgs(selectArgs); err != nil {
		return fmt.Errorf("recalculate verify arguments error: %v", err)
	}
	if err := selectStmt.SelectContext(ctx, &credits, selectArgs); err != nil {
		return fmt.Errorf("recalculate select error for %q: %w", buyerName, err)
	}
	if len(credits) == 0 {
		return nil
	}

	var running float64
	for _, row := range credits {
		running += row.Amount
		updateArgs := map[string]any{
			"Id":   row.ID,
			"Debt": running,
		}
		if _, err := updateStmt.ExecContext(ctx, updateArgs); err != nil {
			return fmt.Errorf("recalculate update error for row %d: %w", row.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("recalculate commit error for %q: %w", buyerName, err)
	}
	db.logger.Debug("recalculated debts", "buyer", buyerName, "rows", len(credits), "balance", running)
	return nil
}
