package main

import (
	"context"
	"testing"
	"time"
)

// fakeApp records the calls the CLI makes into the Applicator.
type fakeApp struct {
	calls   []string
	cfgPath string
	buyer   string
	date    time.Time
	outPath string
}

func (f *fakeApp) Serve(ctx context.Context, cfgPath string) error {
	f.calls = append(f.calls, "serve")
	f.cfgPath = cfgPath
	return nil
}

func (f *fakeApp) InitDB(ctx context.Context, cfgPath string) error {
	f.calls = append(f.calls, "initdb")
	f.cfgPath = cfgPath
	return nil
}

func (f *fakeApp) Recalculate(ctx context.Context, cfgPath, buyerName string) error {
	f.calls = append(f.calls, "recalc")
	f.cfgPath = cfgPath
	f.buyer = buyerName
	return nil
}

func (f *fakeApp) Export(ctx context.Context, cfgPath string, date time.Time, outPath string) error {
	f.calls = append(f.calls, "export")
	f.cfgPath = cfgPath
	f.date = date
	f.outPath = outPath
	return nil
}

func (f *fakeApp) Wipe(ctx context.Context, cfgPath string) error {
	f.calls = append(f.calls, "wipe")
	f.cfgPath = cfgPath
	return nil
}

func TestCLIServe(t *testing.T) {
	app := &fakeApp{}
	cmd := BuildCLI(app)
	if err := cmd.Run(context.Background(), []string{"florist", "serve", "-c", "custom.yaml"}); err != nil {
		t.Fatalf("unexpected cli error: %v", err)
	}
	if len(app.calls) != 1 || app.calls[0] != "serve" {
		t.Errorf("expected a single serve call, got %v", app.calls)
	}
	if app.cfgPath != "custom.yaml" {
		t.Errorf("expected custom config path, got %q", app.cfgPath)
	}
}

func TestCLIRecalcBuyer(t *testing.T) {
	app := &fakeApp{}
	cmd := BuildCLI(app)
	if err := cmd.Run(context.Background(), []string{"florist", "recalc", "--buyer", "kumar"}); err != nil {
		t.Fatalf("unexpected cli error: %v", err)
	}
	if app.buyer != "kumar" {
		t.Errorf("expected buyer kumar, got %q", app.buyer)
	}
	if app.cfgPath != "config.yaml" {
		t.Errorf("expected default config path, got %q", app.cfgPath)
	}
}

func TestCLIExportDate(t *testing.T) {
	app := &fakeApp{}
	cmd := BuildCLI(app)
	args := []string{"florist", "export", "--date", "2026-03-15", "--out", "day.xlsx"}
	if err := cmd.Run(context.Background(), args); err != nil {
		t.Fatalf("unexpected cli error: %v", err)
	}
	want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	if !app.date.Equal(want) {
		t.Errorf("export date: got %v want %v", app.date, want)
	}
	if app.outPath != "day.xlsx" {
		t.Errorf("export path: got %q want %q", app.outPath, "day.xlsx")
	}

	cmd = BuildCLI(app)
	if err := cmd.Run(context.Background(), []string{"florist", "export", "--date", "15/03/2026"}); err == nil {
		t.Error("expected an error for a non-ISO export date")
	}
}

func TestCLIWipeNeedsConfirmation(t *testing.T) {
	app := &fakeApp{}
	cmd := BuildCLI(app)
	if err := cmd.Run(context.Background(), []string{"florist", "wipe"}); err == nil {
		t.Fatal("expected an error for wipe without --yes")
	}
	if len(app.calls) != 0 {
		t.Errorf("wipe must not run without confirmation, got calls %v", app.calls)
	}

	cmd = BuildCLI(app)
	if err := cmd.Run(context.Background(), []string{"florist", "wipe", "--yes"}); err != nil {
		t.Fatalf("unexpected cli error: %v", err)
	}
	if len(app.calls) != 1 || app.calls[0] != "wipe" {
		t.Errorf("expected a single wipe call, got %v", app.calls)
	}
}
