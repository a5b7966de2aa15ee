package web

import (
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"reflect"
	"slices"
	"strings"
	"time"

	"florist/db"

	"github.com/google/go-querystring/query"
	"github.com/gorilla/schema"
)

// ------------------------------------------------------------------------------
// Helpers
// ------------------------------------------------------------------------------

// Validator holds a map of validation errors, keyed by the form field name.
type Validator struct {
	Errors map[string]string
}

// NewValidator creates a new, initialized Validator.
func NewValidator() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid returns true if the Errors map is empty.
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError adds an error message to the map for a given field if one
// doesn't already exist for that field.
func (v *Validator) AddError(key, message string) {
	if _, exists := v.Errors[key]; !exists {
		v.Errors[key] = message
	}
}

// Check is a helper for conditional validation. If `ok` is false, it
// calls AddError with the provided key and message.
func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

// FieldError is a helper to check if the specified field has triggered
// an error.
func (v *Validator) FieldError(field string) bool {
	_, ok := v.Errors[field]
	return ok
}

// Summary joins the error messages into a single string, suitable for a
// flash message.
func (v *Validator) Summary() string {
	messages := make([]string, 0, len(v.Errors))
	for _, key := range slices.Sorted(maps.Keys(v.Errors)) {
		messages = append(messages, v.Errors[key])
	}
	return strings.Join(messages, " ")
}

// ------------------------------------------------------------------------------
// Decoding
// ------------------------------------------------------------------------------

// formDecoder decodes url query parameters and posted forms into form
// structs using `schema` field tags.
var formDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	d.RegisterConverter(time.Time{}, timeConverter)
	return d
}()

// timeConverter converts yyyy-mm-dd form values for time.Time fields. An
// invalid reflect.Value reports a conversion failure to the decoder.
func timeConverter(value string) reflect.Value {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return reflect.Value{}
	}
	return reflect.ValueOf(t)
}

// DecodeURLParams decodes the url query parameters of a request into dst.
func DecodeURLParams(r *http.Request, dst any) error {
	if err := formDecoder.Decode(dst, r.URL.Query()); err != nil {
		return fmt.Errorf("url query decoding error: %w", err)
	}
	return nil
}

// DecodeForm decodes the posted form values of a request into dst.
func DecodeForm(r *http.Request, dst any) error {
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("form parsing error: %w", err)
	}
	if err := formDecoder.Decode(dst, r.PostForm); err != nil {
		return fmt.Errorf("form decoding error: %w", err)
	}
	return nil
}

// ------------------------------------------------------------------------------
// Forms
// ------------------------------------------------------------------------------

// MasterForm carries the fields of the flower, customer and buyer add and
// update forms. Address and contact are unused for flowers.
type MasterForm struct {
	Name        string `schema:"name"`
	DisplayName string `schema:"display-name"`
	Address     string `schema:"address"`
	ContactNo   string `schema:"contact-no"`
}

// Validate checks the form, adding any errors to the validator.
func (f *MasterForm) Validate(v *Validator) {
	v.Check(f.Name != "", "name", "Name is required.")
	v.Check(f.DisplayName != "", "display-name", "Display name cannot be empty.")
}

// PriceForm carries the fields of the daily price set and delete forms.
type PriceForm struct {
	FlowerName string    `schema:"flower-name"`
	Date       time.Time `schema:"date"`
	Price      float64   `schema:"price"`
}

// Validate checks the form, adding any errors to the validator.
func (f *PriceForm) Validate(v *Validator) {
	v.Check(f.FlowerName != "", "flower-name", "Flower name is required.")
	v.Check(!f.Date.IsZero(), "date", "A date in yyyy-mm-dd format is required.")
	v.Check(f.Price >= 0, "price", "Price cannot be negative.")
}

// SheetForm carries the fields of the daily sheet add and edit forms.
type SheetForm struct {
	Date         time.Time `schema:"date"`
	CustomerName string    `schema:"customer-name"`
	FlowerName   string    `schema:"flower-name"`
	Qty          float64   `schema:"qty"`
	Rate         float64   `schema:"rate"`
	Direction    string    `schema:"direction"`
	BuyerName    string    `schema:"buyer-name"`
}

// Validate checks the form, adding any errors to the validator. A buyer is
// required when the direction is Credit.
func (f *SheetForm) Validate(v *Validator) {
	v.Check(!f.Date.IsZero(), "date", "A date in yyyy-mm-dd format is required.")
	v.Check(f.CustomerName != "", "customer-name", "Customer name is required.")
	v.Check(f.FlowerName != "", "flower-name", "Flower name is required.")
	v.Check(f.Qty >= 0, "qty", "Quantity cannot be negative.")
	v.Check(f.Rate >= 0, "rate", "Rate cannot be negative.")
	v.Check(db.Direction(f.Direction).Valid(), "direction", "Direction must be Debit or Credit.")
	if db.Direction(f.Direction) == db.Credit {
		v.Check(f.BuyerName != "", "buyer-name",
			"Buyer name is required when direction is set to Credit.")
	}
}

// Transaction returns the daily sheet row described by the form with the
// amount fixed from the quantity and rate. The Debt field is left for the
// caller to fill with the provisional balance.
func (f *SheetForm) Transaction() db.Transaction {
	return db.Transaction{
		Date:         f.Date,
		CustomerName: f.CustomerName,
		FlowerName:   f.FlowerName,
		Qty:          f.Qty,
		Rate:         f.Rate,
		Amount:       f.Qty * f.Rate,
		Direction:    db.Direction(f.Direction),
		BuyerName:    f.BuyerName,
	}
}

// SearchForm represents the url query parameter filters of the daily sheet
// listing. The `url` tags are used to rebuild the canonical query string for
// pagination links.
type SearchForm struct {
	Search string `schema:"search" url:"search,omitempty"`
	Page   int    `schema:"page" url:"page,omitempty"`
}

// NewSearchForm creates a SearchForm with defaults.
func NewSearchForm() *SearchForm {
	return &SearchForm{Page: 1} // 1-based pagination.
}

// Validate checks the form, adding any errors to the validator.
func (f *SearchForm) Validate(v *Validator) {
	if f.Page < 1 {
		f.Page = 1
	}
}

// Offset is the record offset of the form's page for the given page length.
func (f *SearchForm) Offset(pageLen int) int {
	return (f.Page - 1) * pageLen
}

// QueryValues returns the form's canonical url query values.
func (f *SearchForm) QueryValues() url.Values {
	vals, err := query.Values(f)
	if err != nil {
		return url.Values{}
	}
	return vals
}

// ReportForm represents the url query parameters of the reports page.
type ReportForm struct {
	Type string    `schema:"type"`
	Date time.Time `schema:"date"`
}

// report types shown on the reports page.
const (
	reportDailySales       = "daily-sales"
	reportCustomerBalances = "customer-balances"
	reportBuyerDebts       = "buyer-debts"
	reportFlowerSales      = "flower-sales"
)

// NewReportForm creates a ReportForm with defaults: the daily sales report
// for today.
func NewReportForm() *ReportForm {
	return &ReportForm{
		Type: reportDailySales,
		Date: time.Now().UTC().Truncate(24 * time.Hour),
	}
}

// Validate checks the form, adding any errors to the validator.
func (f *ReportForm) Validate(v *Validator) {
	switch f.Type {
	case reportDailySales, reportCustomerBalances, reportBuyerDebts, reportFlowerSales:
	default:
		v.AddError("type", "Unknown report type.")
	}
	v.Check(!f.Date.IsZero(), "date", "A date in yyyy-mm-dd format is required.")
}
