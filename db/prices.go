package db

// prices.go deals with the daily flower price catalog. Prices are keyed by
// (flower, date). An absent price is reported as sql.ErrNoRows so callers can
// tell it apart from an explicit zero price; any defaulting to zero is a
// presentation decision made upstream.

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// dateFormat is the format dates are stored in. Only the calendar day is
// significant; no time component is kept.
const dateFormat = "2006-01-02"

// PriceEntry is the authoritative unit price for a flower on a date.
type PriceEntry struct {
	FlowerName string    `db:"flower_name"`
	Date       time.Time `db:"date"`
	Price      float64   `db:"price"`
}

// PriceSet sets the price for a flower on a date, overwriting any existing
// entry for that (flower, date) pair.
func (db *DB) PriceSet(ctx context.Context, flowerName string, date time.Time, price float64) error {
	stmt := db.priceSetStmt
	namedArgs := map[string]any{
		"FlowerName": flowerName,
		"PriceDate":  date.Format(dateFormat),
		"Price":      price,
	}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return fmt.Errorf("price set verify arguments error: %v", err)
	}
	_, err := stmt.ExecContext(ctx, namedArgs)
	db.logQuery("price set", stmt, namedArgs, err)
	if err != nil {
		return fmt.Errorf("failed to set price for %q on %s: %w",
			flowerName, date.Format(dateFormat), err)
	}
	return nil
}

// PriceGet returns the price for a flower on exactly the given date, or
// sql.ErrNoRows if no entry exists for that day.
func (db *DB) PriceGet(ctx context.Context, flowerName string, date time.Time) (float64, error) {
	stmt := db.priceGetStmt
	namedArgs := map[string]any{
		"FlowerName": flowerName,
		"PriceDate":  date.Format(dateFormat),
	}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return 0, fmt.Errorf("price get verify arguments error: %v", err)
	}
	var price float64
	err := stmt.GetContext(ctx, &price, namedArgs)
	db.logQuery("price get", stmt, namedArgs, err)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, err
		}
		return 0, fmt.Errorf("failed to get price for %q: %w", flowerName, err)
	}
	return price, nil
}

// PriceEffective returns the most recent price for a flower on or before the
// given date, or sql.ErrNoRows if no price has been set by then. This is the
// lookup used to auto-fill the rate when recording a daily sheet row.
func (db *DB) PriceEffective(ctx context.Context, flowerName string, date time.Time) (float64, error) {
	stmt := db.priceEffectiveStmt
	namedArgs := map[string]any{
		"FlowerName": flowerName,
		"PriceDate":  date.Format(dateFormat),
	}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return 0, fmt.Errorf("price effective verify arguments error: %v", err)
	}
	var price float64
	err := stmt.GetContext(ctx, &price, namedArgs)
	db.logQuery("price effective", stmt, namedArgs, err)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, err
		}
		return 0, fmt.Errorf("failed to get effective price for %q: %w", flowerName, err)
	}
	return price, nil
}

// PriceDelete deletes a single price entry. Deleting an absent entry is a
// no-op.
func (db *DB) PriceDelete(ctx context.Context, flowerName string, date time.Time) error {
	stmt := db.priceDeleteStmt
	namedArgs := map[string]any{
		"FlowerName": flowerName,
		"PriceDate":  date.Format(dateFormat),
	}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return fmt.Errorf("price delete verify arguments error: %v", err)
	}
	_, err := stmt.ExecContext(ctx, namedArgs)
	db.logQuery("price delete", stmt, namedArgs, err)
	if err != nil {
		return fmt.Errorf("failed to delete price for %q: %w", flowerName, err)
	}
	return nil
}

// PricesList returns all price entries, newest dates first.
func (db *DB) PricesList(ctx context.Context) ([]PriceEntry, error) {
	var prices []PriceEntry
	err := db.SelectContext(ctx, &prices,
		"SELECT flower_name, date, price FROM daily_prices ORDER BY date DESC, flower_name",
	)
	if err != nil {
		return nil, fmt.Errorf("prices list error: %w", err)
	}
	return prices, nil
}
