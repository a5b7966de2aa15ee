package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
)

// Applicator defines the interface for the core application logic.
// This allows the CLI to be tested independently of the main app implementation.
type Applicator interface {
	Serve(ctx context.Context, cfgPath string) error
	InitDB(ctx context.Context, cfgPath string) error
	Recalculate(ctx context.Context, cfgPath, buyerName string) error
	Export(ctx context.Context, cfgPath string, date time.Time, outPath string) error
	Wipe(ctx context.Context, cfgPath string) error
}

// BuildCLI creates the full CLI command structure for the application.
// It injects the core application logic (the Applicator) into the command actions.
func BuildCLI(app Applicator) *cli.Command {
	// The config flag is common across all commands.
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Value:   "config.yaml",
		Usage:   "path to the configuration file",
	}

	serveCmd := &cli.Command{
		Name:  "serve",
		Usage: "Run the ledger web server",
		Flags: []cli.Flag{configFlag},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.Serve(ctx, c.String("config"))
		},
	}

	initCmd := &cli.Command{
		Name:  "initdb",
		Usage: "Create the database file and schema",
		Flags: []cli.Flag{configFlag},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.InitDB(ctx, c.String("config"))
		},
	}

	recalcCmd := &cli.Command{
		Name:  "recalc",
		Usage: "Settle buyer running balances, for one buyer or all",
		Flags: []cli.Flag{
			configFlag,
			&cli.StringFlag{
				Name:    "buyer",
				Aliases: []string{"b"},
				Usage:   "settle only this buyer's balances",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.Recalculate(ctx, c.String("config"), c.String("buyer"))
		},
	}

	exportCmd := &cli.Command{
		Name:  "export",
		Usage: "Write a day's ledger to an xlsx workbook",
		Flags: []cli.Flag{
			configFlag,
			&cli.StringFlag{
				Name:    "date",
				Aliases: []string{"d"},
				Usage:   "the sheet date to export (format: '2006-01-02'; default today)",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Value:   "ledger.xlsx",
				Usage:   "the output workbook path",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			date := time.Now()
			if dateStr := c.String("date"); dateStr != "" {
				var err error
				date, err = time.Parse("2006-01-02", dateStr)
				if err != nil {
					return fmt.Errorf("invalid --date format: %w", err)
				}
			}
			return app.Export(ctx, c.String("config"), date, c.String("out"))
		},
	}

	wipeCmd := &cli.Command{
		Name:  "wipe",
		Usage: "Drop all ledger tables",
		Flags: []cli.Flag{
			configFlag,
			&cli.BoolFlag{
				Name:  "yes",
				Usage: "confirm the wipe",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if !c.Bool("yes") {
				return fmt.Errorf("wipe drops all tables; re-run with --yes to confirm")
			}
			return app.Wipe(ctx, c.String("config"))
		},
	}

	// Assemble the root command.
	rootCmd := &cli.Command{
		Name:     "florist",
		Usage:    "A daily ledger for a flower shop",
		Commands: []*cli.Command{serveCmd, initCmd, recalcCmd, exportCmd, wipeCmd},
	}

	return rootCmd
}
