package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"florist/config"
	"florist/db"
	"florist/export"
	"florist/internal"
	"florist/web"

	"github.com/charmbracelet/log"
)

// App is the central orchestrator for the application's business logic. It
// coordinates the configuration, the ledger database and the web server.
type App struct{}

// NewApp creates and returns a new App instance.
func NewApp() *App {
	return &App{}
}

// setup loads the configuration, builds the logger and opens the database
// with the schema loaded.
func (a *App) setup(cfgPath string) (*config.Config, *log.Logger, *db.DB, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "florist",
	})
	logger.SetLevel(cfg.LogLevel)

	sqlFS, err := internal.NewFileMount("sql", db.SQLEmbeddedFS, "")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("sql file mount error: %w", err)
	}
	dbConn, err := db.NewConnection(cfg.DatabasePath, sqlFS, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("database setup error: %w", err)
	}
	return cfg, logger, dbConn, nil
}

// Serve runs the web server until interrupted.
func (a *App) Serve(ctx context.Context, cfgPath string) error {
	cfg, logger, dbConn, err := a.setup(cfgPath)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	staticFS, err := internal.NewFileMount("static", web.StaticEmbeddedFS, cfg.Web.StaticPath)
	if err != nil {
		return fmt.Errorf("static file mount error: %w", err)
	}
	templatesFS, err := internal.NewFileMount("templates", web.TemplatesEmbeddedFS, cfg.Web.TemplatesPath)
	if err != nil {
		return fmt.Errorf("templates file mount error: %w", err)
	}

	webApp, err := web.New(logger, cfg, dbConn, staticFS, templatesFS)
	if err != nil {
		return fmt.Errorf("web app setup error: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return webApp.StartServer(ctx)
}

// InitDB creates the database file and schema.
func (a *App) InitDB(ctx context.Context, cfgPath string) error {
	cfg, logger, dbConn, err := a.setup(cfgPath)
	if err != nil {
		return err
	}
	defer dbConn.Close()
	logger.Info("database initialised", "path", cfg.DatabasePath)
	return nil
}

// Recalculate settles the running balances of one buyer, or of every buyer
// on record when buyerName is empty.
func (a *App) Recalculate(ctx context.Context, cfgPath, buyerName string) error {
	_, logger, dbConn, err := a.setup(cfgPath)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if buyerName != "" {
		if err := dbConn.RecalculateDebts(ctx, buyerName); err != nil {
			return err
		}
		logger.Info("running balances settled", "buyer", buyerName)
		return nil
	}

	buyers, err := dbConn.BuyersList(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	for _, buyer := range buyers {
		if err := dbConn.RecalculateDebts(ctx, buyer.Name); err != nil {
			return fmt.Errorf("recalculation error for buyer %q: %w", buyer.Name, err)
		}
	}
	logger.Info("running balances settled", "buyers", len(buyers))
	return nil
}

// Export writes the daily sheet, buyer debts and flower sales for a date to
// an xlsx workbook at outPath.
func (a *App) Export(ctx context.Context, cfgPath string, date time.Time, outPath string) error {
	_, logger, dbConn, err := a.setup(cfgPath)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if err := export.New(dbConn).WriteFile(ctx, date, outPath); err != nil {
		return err
	}
	logger.Info("workbook written", "path", outPath, "date", date.Format("2006-01-02"))
	return nil
}

// Wipe drops all ledger tables. The caller is expected to have confirmed.
func (a *App) Wipe(ctx context.Context, cfgPath string) error {
	cfg, logger, dbConn, err := a.setup(cfgPath)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if err := dbConn.Wipe(ctx); err != nil {
		return err
	}
	logger.Info("database wiped", "path", cfg.DatabasePath)
	return nil
}
