// Package db provides the database component of the florist ledger.
//
// The backend is a single-file sqlite database so the application can run as a
// local desktop tool. The database is not treated as a dumb storage layer:
// each query below is held in an sql file in the `sql` directory which can be
// run directly on the sqlite command line. The use of external, runnable sql
// files as Go prepared statements is made possible through the
// parameterization scheme set out in parameterize.go.
//
// The daily sheet is the ledger at the centre of the application. Writes to
// it do not recalculate buyer debts themselves; callers are required to run
// RecalculateDebts for any buyer whose Credit sequence may have shifted.
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed sql
var SQLEmbeddedFS embed.FS

// ErrDuplicate reports an insert that would duplicate a primary key, such as
// adding a flower with a name that already exists. Nothing is written.
var ErrDuplicate = errors.New("record already exists")

// isUniqueConstraint reports whether err is a sqlite primary key or unique
// constraint failure.
func isUniqueConstraint(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}

// preparedQuery describes an sql file parsed into an sqlx NamedStmt expecting
// the provided args.
type preparedQuery struct {
	sqlFile string
	args    []string
	*sqlx.NamedStmt
}

// verifyArgs determines if the number of arguments provided to a preparedQuery
// is as expected. This check could be more thorough.
func (p *preparedQuery) verifyArgs(args map[string]any) error {
	if got, want := len(args), len(p.args); got != want {
		return fmt.Errorf(
			"argument length to named statement from %q incorrect: got %d want %d",
			p.sqlFile,
			got,
			want,
		)
	}
	return nil
}

// DB wraps the sqlx connection with the application's prepared statements.
type DB struct {
	*sqlx.DB
	logger *log.Logger
	sqlFS  fs.FS

	// Master records.
	flowerAddStmt      *preparedQuery
	flowerUpdateStmt   *preparedQuery
	flowerDeleteStmt   *preparedQuery
	flowerGetStmt      *preparedQuery
	customerAddStmt    *preparedQuery
	customerUpdateStmt *preparedQuery
	customerDeleteStmt *preparedQuery
	customerGetStmt    *preparedQuery
	buyerAddStmt       *preparedQuery
	buyerUpdateStmt    *preparedQuery
	buyerDeleteStmt    *preparedQuery
	buyerGetStmt       *preparedQuery

	// Price catalog.
	priceSetStmt       *preparedQuery
	priceGetStmt       *preparedQuery
	priceEffectiveStmt *preparedQuery
	priceDeleteStmt    *preparedQuery

	// Daily sheet.
	sheetInsertStmt      *preparedQuery
	sheetUpdateStmt      *preparedQuery
	sheetDeleteStmt      *preparedQuery
	sheetGetStmt         *preparedQuery
	sheetsListStmt       *preparedQuery
	sheetByBuyerStmt     *preparedQuery
	sheetCreditsStmt     *preparedQuery
	sheetByDateStmt      *preparedQuery
	sheetCurrentDebtStmt *preparedQuery
	sheetDebtUpdateStmt  *preparedQuery

	// Reports.
	reportDailyTotalStmt  *preparedQuery
	reportFlowerSalesStmt *preparedQuery
}

// NewConnection creates a new connection to an SQLite database at the given
// path, loads the idempotent schema and prepares the named statements from the
// sql files in sqlFS. A nil logger discards output.
func NewConnection(dbPath string, sqlFS fs.FS, logger *log.Logger) (*DB, error) {

	// dataSource is the default setting for file-based databases.
	dataSource := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", dbPath)

	// for in-memory test databases, check the necessary cached setting is used.
	if strings.Contains(dbPath, ":memory:") {
		if !strings.Contains(dbPath, "cache=shared") {
			return nil, fmt.Errorf("in-memory connection %q should contain '?cache=shared'", dbPath)
		}
		dataSource = dbPath
	}
	dbDB, err := sql.Open("sqlite", dataSource)
	if err != nil {
		return nil, err
	}
	if err := dbDB.Ping(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = log.New(io.Discard)
	}

	// Wrap the standard library *sql.DB with sqlx.
	db := &DB{
		DB:     sqlx.NewDb(dbDB, "sqlite"),
		logger: logger,
		sqlFS:  sqlFS,
	}

	// The schema must be in place before the statements referring to its
	// tables can be prepared.
	if err := db.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.prepareNamedStatements(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not prepare named statements: %w", err)
	}
	return db, nil
}

// SetLogLevel sets the level of the db logger.
func (db *DB) SetLogLevel(level log.Level) {
	db.logger.SetLevel(level)
}

// initSchema creates the necessary tables if they don't already exist. The
// schema file can be run idempotently.
func (db *DB) initSchema() error {
	schema, err := fs.ReadFile(db.sqlFS, schemaSQL)
	if err != nil {
		return fmt.Errorf("could not read schema file at %q: %w", schemaSQL, err)
	}
	_, err = db.ExecContext(context.Background(), string(schema))
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Wipe drops the application tables, losing all data. The next connection
// recreates them empty.
func (db *DB) Wipe(ctx context.Context) error {
	for _, table := range []string{"flowers", "customers", "buyers", "daily_sheet", "daily_prices"} {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("could not drop table %q: %w", table, err)
		}
	}
	db.logger.Warn("database wiped")
	return nil
}

// prepareNamedStatements prepares all the named statements for this database
// connection.
func (db *DB) prepareNamedStatements() error {

	for _, item := range []struct {
		stmt    **preparedQuery
		sqlFile string
	}{
		{&db.flowerAddStmt, flowerAddSQL},
		{&db.flowerUpdateStmt, flowerUpdateSQL},
		{&db.flowerDeleteStmt, flowerDeleteSQL},
		{&db.flowerGetStmt, flowerGetSQL},
		{&db.customerAddStmt, customerAddSQL},
		{&db.customerUpdateStmt, customerUpdateSQL},
		{&db.customerDeleteStmt, customerDeleteSQL},
		{&db.customerGetStmt, customerGetSQL},
		{&db.buyerAddStmt, buyerAddSQL},
		{&db.buyerUpdateStmt, buyerUpdateSQL},
		{&db.buyerDeleteStmt, buyerDeleteSQL},
		{&db.buyerGetStmt, buyerGetSQL},
		{&db.priceSetStmt, priceSetSQL},
		{&db.priceGetStmt, priceGetSQL},
		{&db.priceEffectiveStmt, priceEffectiveSQL},
		{&db.priceDeleteStmt, priceDeleteSQL},
		{&db.sheetInsertStmt, sheetInsertSQL},
		{&db.sheetUpdateStmt, sheetUpdateSQL},
		{&db.sheetDeleteStmt, sheetDeleteSQL},
		{&db.sheetGetStmt, sheetGetSQL},
		{&db.sheetsListStmt, sheetsListSQL},
		{&db.sheetByBuyerStmt, sheetByBuyerSQL},
		{&db.sheetCreditsStmt, sheetCreditsSQL},
		{&db.sheetByDateStmt, sheetByDateSQL},
		{&db.sheetCurrentDebtStmt, sheetCurrentDebtSQL},
		{&db.sheetDebtUpdateStmt, sheetDebtUpdateSQL},
		{&db.reportDailyTotalStmt, reportDailyTotalSQL},
		{&db.reportFlowerSalesStmt, reportFlowerSalesSQL},
	} {
		stmt, err := db.prepNamedStatement(db.sqlFS, item.sqlFile)
		if err != nil {
			return fmt.Errorf("%s statement error: %w", item.sqlFile, err)
		}
		*item.stmt = stmt
	}
	return nil
}

// prepNamedStatement prepares the SQL query held in filePath.
func (db *DB) prepNamedStatement(fileFS fs.FS, filePath string) (*preparedQuery, error) {
	query, err := ParameterizeFile(fileFS, filePath)
	if err != nil {
		return nil, fmt.Errorf("could not parameterize %q: %w", filePath, err)
	}
	pQuery, err := db.PrepareNamed(string(query.Body))
	if err != nil {
		return nil, fmt.Errorf("could not prepare statement %q: %w", filePath, err)
	}
	return &preparedQuery{
		filePath,
		query.Parameters,
		pQuery,
	}, nil
}

// logQuery is for helping debug SQL issues.
func (db *DB) logQuery(name string, stmt *preparedQuery, args map[string]any, err error) {
	db.logger.Debug(
		"sql",
		"name", name,
		"query", stmt.QueryString,
		"args", args,
		"error", err,
	)
}
