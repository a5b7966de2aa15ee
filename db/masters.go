package db

// masters.go deals with the flower, customer and buyer master records. Each is
// keyed by its natural (English) name with an opaque localized display label.
// Deleting a master record does not repair daily sheet rows referencing it;
// those keep the name as plain text.

import (
	"context"
	"database/sql"
	"fmt"
)

// Flower is a flower master record.
type Flower struct {
	Name        string `db:"name"`
	DisplayName string `db:"display_name"`
}

// Customer is a customer master record.
type Customer struct {
	Name        string `db:"name"`
	DisplayName string `db:"display_name"`
	Address     string `db:"address"`
	ContactNo   string `db:"contact_no"`
}

// Buyer is a buyer master record: a party owed a running debt for flowers
// sold on credit.
type Buyer struct {
	Name        string `db:"name"`
	DisplayName string `db:"display_name"`
	Address     string `db:"address"`
	ContactNo   string `db:"contact_no"`
}

// FlowerAdd adds a flower master record, returning ErrDuplicate if the name
// already exists.
func (db *DB) FlowerAdd(ctx context.Context, f Flower) error {
	stmt := db.flowerAddStmt
	namedArgs := map[string]any{
		"Name":        f.Name,
		"DisplayName": f.DisplayName,
	}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return fmt.Errorf("flower add verify arguments error: %v", err)
	}
	_, err := stmt.ExecContext(ctx, namedArgs)
	db.logQuery("flower add", stmt, namedArgs, err)
	if err != nil {
		if isUniqueConstraint(err) {
			return fmt.Errorf("%w: flower %q", ErrDuplicate, f.Name)
		}
		return fmt.Errorf("failed to add flower %q: %w", f.Name, err)
	}
	return nil
}

// FlowerUpdate updates a flower's display label, returning sql.ErrNoRows if
// no flower has the given name.
func (db *DB) FlowerUpdate(ctx context.Context, f Flower) error {
	stmt := db.flowerUpdateStmt
	namedArgs := map[string]any{
		"Name":        f.Name,
		"DisplayName": f.DisplayName,
	}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return fmt.Errorf("flower update verify arguments error: %v", err)
	}
	res, err := stmt.ExecContext(ctx, namedArgs)
	db.logQuery("flower update", stmt, namedArgs, err)
	if err != nil {
		return fmt.Errorf("failed to update flower %q: %w", f.Name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FlowerDelete deletes a flower master record. Deleting an unknown name is a
// no-op.
func (db *DB) FlowerDelete(ctx context.Context, name string) error {
	stmt := db.flowerDeleteStmt
	namedArgs := map[string]any{"Name": name}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return fmt.Errorf("flower delete verify arguments error: %v", err)
	}
	_, err := stmt.ExecContext(ctx, namedArgs)
	db.logQuery("flower delete", stmt, namedArgs, err)
	if err != nil {
		return fmt.Errorf("failed to delete flower %q: %w", name, err)
	}
	return nil
}

// FlowerGet returns the flower with the given name, or sql.ErrNoRows.
func (db *DB) FlowerGet(ctx context.Context, name string) (Flower, error) {
	stmt := db.flowerGetStmt
	namedArgs := map[string]any{"Name": name}
	var f Flower
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return f, fmt.Errorf("flower get verify arguments error: %v", err)
	}
	err := stmt.GetContext(ctx, &f, namedArgs)
	db.logQuery("flower get", stmt, namedArgs, err)
	if err != nil {
		if err == sql.ErrNoRows {
			return f, err
		}
		return f, fmt.Errorf("failed to get flower %q: %w", name, err)
	}
	return f, nil
}

// FlowersList returns all flower master records ordered by name.
func (db *DB) FlowersList(ctx context.Context) ([]Flower, error) {
	var flowers []Flower
	err := db.SelectContext(ctx, &flowers,
		"SELECT name, display_name FROM flowers ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("flowers list error: %w", err)
	}
	return flowers, nil
}

// CustomerAdd adds a customer master record, returning ErrDuplicate if the
// name already exists.
func (db *DB) CustomerAdd(ctx context.Context, c Customer) error {
	stmt := db.customerAddStmt
	namedArgs := map[string]any{
		"Name":        c.Name,
		"DisplayName": c.DisplayName,
		"Address":     c.Address,
		"ContactNo":   c.ContactNo,
	}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return fmt.Errorf("customer add verify arguments error: %v", err)
	}
	_, err := stmt.ExecContext(ctx, namedArgs)
	db.logQuery("customer add", stmt, namedArgs, err)
	if err != nil {
		if isUniqueConstraint(err) {
			return fmt.Errorf("%w: customer %q", ErrDuplicate, c.Name)
		}
		return fmt.Errorf("failed to add customer %q: %w", c.Name, err)
	}
	return nil
}

// CustomerUpdate updates a customer's display label and contact details,
// returning sql.ErrNoRows if no customer has the given name.
func (db *DB) CustomerUpdate(ctx context.Context, c Customer) error {
	stmt := db.customerUpdateStmt
	namedArgs := map[string]any{
		"Name":        c.Name,
		"DisplayName": c.DisplayName,
		"Address":     c.Address,
		"ContactNo":   c.ContactNo,
	}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return fmt.Errorf("customer update verify arguments error: %v", err)
	}
	res, err := stmt.ExecContext(ctx, namedArgs)
	db.logQuery("customer update", stmt, namedArgs, err)
	if err != nil {
		return fmt.Errorf("failed to update customer %q: %w", c.Name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CustomerDelete deletes a customer master record. Deleting an unknown name
// is a no-op.
func (db *DB) CustomerDelete(ctx context.Context, name string) error {
	stmt := db.customerDeleteStmt
	namedArgs := map[string]any{"Name": name}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return fmt.Errorf("customer delete verify arguments error: %v", err)
	}
	_, err := stmt.ExecContext(ctx, namedArgs)
	db.logQuery("customer delete", stmt, namedArgs, err)
	if err != nil {
		return fmt.Errorf("failed to delete customer %q: %w", name, err)
	}
	return nil
}

// CustomerGet returns the customer with the given name, or sql.ErrNoRows.
func (db *DB) CustomerGet(ctx context.Context, name string) (Customer, error) {
	stmt := db.customerGetStmt
	namedArgs := map[string]any{"Name": name}
	var c Customer
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return c, fmt.Errorf("customer get verify arguments error: %v", err)
	}
	err := stmt.GetContext(ctx, &c, namedArgs)
	db.logQuery("customer get", stmt, namedArgs, err)
	if err != nil {
		if err == sql.ErrNoRows {
			return c, err
		}
		return c, fmt.Errorf("failed to get customer %q: %w", name, err)
	}
	return c, nil
}

// CustomersList returns all customer master records ordered by name.
func (db *DB) CustomersList(ctx context.Context) ([]Customer, error) {
	var customers []Customer
	err := db.SelectContext(ctx, &customers,
		"SELECT name, display_name, address, contact_no FROM customers ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("customers list error: %w", err)
	}
	return customers, nil
}

// BuyerAdd adds a buyer master record, returning ErrDuplicate if the name
// already exists.
func (db *DB) BuyerAdd(ctx context.Context, b Buyer) error {
	stmt := db.buyerAddStmt
	namedArgs := map[string]any{
		"Name":        b.Name,
		"DisplayName": b.DisplayName,
		"Address":     b.Address,
		"ContactNo":   b.ContactNo,
	}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return fmt.Errorf("buyer add verify arguments error: %v", err)
	}
	_, err := stmt.ExecContext(ctx, namedArgs)
	db.logQuery("buyer add", stmt, namedArgs, err)
	if err != nil {
		if isUniqueConstraint(err) {
			return fmt.Errorf("%w: buyer %q", ErrDuplicate, b.Name)
		}
		return fmt.Errorf("failed to add buyer %q: %w", b.Name, err)
	}
	return nil
}

// BuyerUpdate updates a buyer's display label and contact details, returning
// sql.ErrNoRows if no buyer has the given name.
func (db *DB) BuyerUpdate(ctx context.Context, b Buyer) error {
	stmt := db.buyerUpdateStmt
	namedArgs := map[string]any{
		"Name":        b.Name,
		"DisplayName": b.DisplayName,
		"Address":     b.Address,
		"ContactNo":   b.ContactNo,
	}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return fmt.Errorf("buyer update verify arguments error: %v", err)
	}
	res, err := stmt.ExecContext(ctx, namedArgs)
	db.logQuery("buyer update", stmt, namedArgs, err)
	if err != nil {
		return fmt.Errorf("failed to update buyer %q: %w", b.Name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// BuyerDelete deletes a buyer master record. Deleting an unknown name is a
// no-op. Daily sheet rows referencing the buyer are untouched.
func (db *DB) BuyerDelete(ctx context.Context, name string) error {
	stmt := db.buyerDeleteStmt
	namedArgs := map[string]any{"Name": name}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return fmt.Errorf("buyer delete verify arguments error: %v", err)
	}
	_, err := stmt.ExecContext(ctx, namedArgs)
	db.logQuery("buyer delete", stmt, namedArgs, err)
	if err != nil {
		return fmt.Errorf("failed to delete buyer %q: %w", name, err)
	}
	return nil
}

// BuyerGet returns the buyer with the given name, or sql.ErrNoRows.
func (db *DB) BuyerGet(ctx context.Context, name string) (Buyer, error) {
	stmt := db.buyerGetStmt
	namedArgs := map[string]any{"Name": name}
	var b Buyer
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return b, fmt.Errorf("buyer get verify arguments error: %v", err)
	}
	err := stmt.GetContext(ctx, &b, namedArgs)
	db.logQuery("buyer get", stmt, namedArgs, err)
	if err != nil {
		if err == sql.ErrNoRows {
			return b, err
		}
		return b, fmt.Errorf("failed to get buyer %q: %w", name, err)
	}
	return b, nil
}

// BuyersList returns all buyer master records ordered by name.
func (db *DB) BuyersList(ctx context.Context) ([]Buyer, error) {
	var buyers []Buyer
	err := db.SelectContext(ctx, &buyers,
		"SELECT name, display_name, address, contact_no FROM buyers ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("buyers list error: %w", err)
	}
	return buyers, nil
}
