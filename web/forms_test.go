package web

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"florist/db"

	"github.com/google/go-cmp/cmp"
)

func TestSheetFormValidate(t *testing.T) {

	valid := SheetForm{
		Date:         time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		CustomerName: "ravi",
		FlowerName:   "rose",
		Qty:          10,
		Rate:         2.5,
		Direction:    "Credit",
		BuyerName:    "kumar",
	}

	tests := []struct {
		name      string
		mutate    func(f *SheetForm)
		errFields []string
	}{
		{
			name:   "valid credit entry",
			mutate: func(f *SheetForm) {},
		},
		{
			name: "valid debit entry without buyer",
			mutate: func(f *SheetForm) {
				f.Direction = "Debit"
				f.BuyerName = ""
			},
		},
		{
			name:      "credit requires a buyer",
			mutate:    func(f *SheetForm) { f.BuyerName = "" },
			errFields: []string{"buyer-name"},
		},
		{
			name:      "direction must be valid",
			mutate:    func(f *SheetForm) { f.Direction = "Sideways" },
			errFields: []string{"direction"},
		},
		{
			name:      "date is required",
			mutate:    func(f *SheetForm) { f.Date = time.Time{} },
			errFields: []string{"date"},
		},
		{
			name:      "negative quantities rejected",
			mutate:    func(f *SheetForm) { f.Qty = -1 },
			errFields: []string{"qty"},
		},
		{
			name: "customer and flower required",
			mutate: func(f *SheetForm) {
				f.CustomerName = ""
				f.FlowerName = ""
			},
			errFields: []string{"customer-name", "flower-name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := valid
			tt.mutate(&form)
			validator := NewValidator()
			form.Validate(validator)
			if got, want := len(validator.Errors), len(tt.errFields); got != want {
				t.Fatalf("error count: got %d (%v) want %d", got, validator.Errors, want)
			}
			for _, field := range tt.errFields {
				if !validator.FieldError(field) {
					t.Errorf("expected error for field %q, got %v", field, validator.Errors)
				}
			}
		})
	}
}

func TestSheetFormTransaction(t *testing.T) {
	form := SheetForm{
		Date:         time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		CustomerName: "ravi",
		FlowerName:   "rose",
		Qty:          10,
		Rate:         2.5,
		Direction:    "Credit",
		BuyerName:    "kumar",
	}
	got := form.Transaction()
	want := db.Transaction{
		Date:         form.Date,
		CustomerName: "ravi",
		FlowerName:   "rose",
		Qty:          10,
		Rate:         2.5,
		Amount:       25,
		Direction:    db.Credit,
		BuyerName:    "kumar",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("transaction mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeFormDates(t *testing.T) {

	body := url.Values{
		"date":          {"2026-03-15"},
		"customer-name": {"ravi"},
		"flower-name":   {"rose"},
		"qty":           {"10"},
		"rate":          {"2.5"},
		"direction":     {"Debit"},
	}
	r := httptest.NewRequest("POST", "/sheet/add", strings.NewReader(body.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	form := &SheetForm{}
	if err := DecodeForm(r, form); err != nil {
		t.Fatalf("unexpected decoding error: %v", err)
	}
	if got, want := form.Date, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("date: got %v want %v", got, want)
	}
	if form.Qty != 10 || form.Rate != 2.5 {
		t.Errorf("numeric fields: got qty %v rate %v", form.Qty, form.Rate)
	}
}

func TestDecodeFormBadDate(t *testing.T) {
	body := url.Values{"date": {"15/03/2026"}}
	r := httptest.NewRequest("POST", "/prices/set", strings.NewReader(body.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	form := &PriceForm{}
	if err := DecodeForm(r, form); err == nil {
		t.Fatal("expected a decoding error for a non-ISO date")
	}
}

func TestMasterFormValidate(t *testing.T) {
	form := &MasterForm{}
	validator := NewValidator()
	form.Validate(validator)
	if validator.Valid() {
		t.Fatal("expected validation errors for an empty master form")
	}
	for _, field := range []string{"name", "display-name"} {
		if !validator.FieldError(field) {
			t.Errorf("expected error for field %q", field)
		}
	}
}

func TestSearchForm(t *testing.T) {

	form := NewSearchForm()
	if form.Page != 1 {
		t.Fatalf("expected default page 1, got %d", form.Page)
	}

	form.Search = "rose"
	form.Page = 3
	if got, want := form.Offset(15), 30; got != want {
		t.Errorf("offset: got %d want %d", got, want)
	}
	if got, want := form.QueryValues().Encode(), "page=3&search=rose"; got != want {
		t.Errorf("query values: got %q want %q", got, want)
	}

	// A page below 1 is reset rather than rejected.
	form.Page = -2
	validator := NewValidator()
	form.Validate(validator)
	if !validator.Valid() || form.Page != 1 {
		t.Errorf("expected page reset to 1, got %d (errors %v)", form.Page, validator.Errors)
	}
}

func TestReportFormValidate(t *testing.T) {
	form := NewReportForm()
	validator := NewValidator()
	form.Validate(validator)
	if !validator.Valid() {
		t.Fatalf("default report form should be valid, got %v", validator.Errors)
	}

	form.Type = "weekly-gossip"
	validator = NewValidator()
	form.Validate(validator)
	if !validator.FieldError("type") {
		t.Error("expected an error for an unknown report type")
	}
}

func TestValidatorSummary(t *testing.T) {
	validator := NewValidator()
	validator.AddError("b", "Second.")
	validator.AddError("a", "First.")
	if got, want := validator.Summary(), "First. Second."; got != want {
		t.Errorf("summary: got %q want %q", got, want)
	}
}
