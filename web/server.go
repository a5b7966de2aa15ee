package web

// This file describes the web server for this project.
//
// Note that modules called by this server should provide self-describing errors since
// these are sent directly to an internal server error func:
//
//	web.ServerError(w, r, err)
//
// This web server also sets out each endpoint handler as a HandlerFunc. This allows for
// the router to provide arguments to the handler, as discussed in Mat Ryer's post at
//
//	https://grafana.com/blog/how-i-write-http-services-in-go-after-13-years/
//
// Data-changing endpoints follow the post/redirect/get pattern, reporting the
// outcome through a session flash message.
//
// Helper functions, such as `ServerError` and `clientError` are at the end of the file.

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"florist/config"
	"florist/db"

	"github.com/alexedwards/scs/v2"
	"github.com/charmbracelet/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"
)

// pageLen is the number of items to show in a page listing.
const pageLen = 15

// isoDate is the format used for date form fields and url parameters.
const isoDate = "2006-01-02"

//go:embed static
var StaticEmbeddedFS embed.FS

//go:embed templates
var TemplatesEmbeddedFS embed.FS

// WebApp is the configuration object for the web server.
type WebApp struct {
	log        *log.Logger
	cfg        *config.Config
	db         *db.DB
	staticFS   fs.FS // the fs holding the static web resources.
	templateFS fs.FS // the fs holding the web templates.
	sessions   *scs.SessionManager
	server     *http.Server

	// templateCache holds parsed template sets by page name. The cache is
	// dropped on template writes in development mode.
	templateMu    sync.RWMutex
	templateCache map[string]*template.Template
}

// New initialises a WebApp.
func New(
	logger *log.Logger,
	cfg *config.Config,
	dbConn *db.DB,
	staticFS fs.FS,
	templateFS fs.FS,
) (*WebApp, error) {
	if dbConn == nil {
		return nil, errors.New("no database connection provided")
	}

	sessions := scs.New()
	sessions.Lifetime = 12 * time.Hour
	sessions.Cookie.SameSite = http.SameSiteLaxMode

	// Add settings for the http server.
	server := &http.Server{
		Addr:              cfg.Web.ListenAddress,
		ReadHeaderTimeout: time.Duration(30 * time.Second),
		WriteTimeout:      time.Duration(30 * time.Second),
		MaxHeaderBytes:    1 << 19, // 100k ish
	}

	webApp := &WebApp{
		log:           logger,
		cfg:           cfg,
		db:            dbConn,
		staticFS:      staticFS,
		templateFS:    templateFS,
		sessions:      sessions,
		server:        server,
		templateCache: map[string]*template.Template{},
	}
	return webApp, nil
}

// StartServer starts a WebApp, serving until the context is cancelled. In
// development mode a template watcher drops the parsed template cache when a
// template file is written.
func (web *WebApp) StartServer(ctx context.Context) error {
	web.server.Handler = web.routes()
	web.log.Info("starting server", "address", web.cfg.Web.ListenAddress)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := web.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return web.server.Shutdown(shutdownCtx)
	})

	if web.cfg.Web.DevelopmentMode {
		watcher, err := newTemplateWatcher(web.cfg.Web.TemplatesPath, "html")
		if err != nil {
			return fmt.Errorf("template watcher error: %w", err)
		}
		g.Go(func() error {
			return watcher.watch(ctx)
		})
		g.Go(func() error {
			for range watcher.updates() {
				web.log.Info("template change detected, clearing cache")
				web.clearTemplateCache()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// templates returns the parsed template set for a page, parsing and caching
// it on first use.
func (web *WebApp) templates(name string, files ...string) (*template.Template, error) {
	web.templateMu.RLock()
	cached, ok := web.templateCache[name]
	web.templateMu.RUnlock()
	if ok {
		return cached, nil
	}

	parsed, err := template.ParseFS(web.templateFS, files...)
	if err != nil {
		return nil, fmt.Errorf("template parsing error for %q: %w", name, err)
	}
	web.templateMu.Lock()
	web.templateCache[name] = parsed
	web.templateMu.Unlock()
	return parsed, nil
}

// clearTemplateCache drops the parsed template cache.
func (web *WebApp) clearTemplateCache() {
	web.templateMu.Lock()
	web.templateCache = map[string]*template.Template{}
	web.templateMu.Unlock()
}

// routes connects all of the endpoints and provides middleware.
func (web *WebApp) routes() http.Handler {

	r := mux.NewRouter()

	fileServer := http.FileServerFS(web.staticFS)
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", fileServer))

	r.Handle(
		"/",
		web.handleRoot(), // synonym for /sheet
	)

	// Master record pages.
	r.Handle("/flowers", web.handleFlowers()).Methods("GET")
	r.Handle("/flowers/add", web.handleFlowerAdd()).Methods("POST")
	r.Handle("/flowers/update", web.handleFlowerUpdate()).Methods("POST")
	r.Handle("/flowers/delete", web.handleFlowerDelete()).Methods("POST")

	r.Handle("/customers", web.handleCustomers()).Methods("GET")
	r.Handle("/customers/add", web.handleCustomerAdd()).Methods("POST")
	r.Handle("/customers/update", web.handleCustomerUpdate()).Methods("POST")
	r.Handle("/customers/delete", web.handleCustomerDelete()).Methods("POST")

	r.Handle("/buyers", web.handleBuyers()).Methods("GET")
	r.Handle("/buyers/add", web.handleBuyerAdd()).Methods("POST")
	r.Handle("/buyers/update", web.handleBuyerUpdate()).Methods("POST")
	r.Handle("/buyers/delete", web.handleBuyerDelete()).Methods("POST")

	// Daily price pages.
	r.Handle("/prices", web.handlePrices()).Methods("GET")
	r.Handle("/prices/set", web.handlePriceSet()).Methods("POST")
	r.Handle("/prices/delete", web.handlePriceDelete()).Methods("POST")

	// Daily sheet pages.
	r.Handle("/sheet", web.handleSheet()).Methods("GET")
	r.Handle("/sheet/add", web.handleSheetAdd()).Methods("POST")
	r.Handle("/sheet/{id:[0-9]+}", web.handleSheetEdit()).Methods("GET")
	r.Handle("/sheet/{id:[0-9]+}/update", web.handleSheetUpdate()).Methods("POST")
	r.Handle("/sheet/{id:[0-9]+}/delete", web.handleSheetDelete()).Methods("POST")

	// Reports.
	r.Handle("/reports", web.handleReports()).Methods("GET")

	// The effective rate JSON endpoint used by the sheet entry form.
	r.Handle("/rate", web.handleRate()).Methods("GET")

	logging := handlers.LoggingHandler(os.Stdout, r)
	return web.sessions.LoadAndSave(web.enforceCSRF(logging))
}

// flash stores a one-shot session message shown on the next rendered page.
func (web *WebApp) flash(r *http.Request, message string) {
	web.sessions.Put(r.Context(), "flash", message)
}

// popFlash retrieves and removes the session flash message, if any.
func (web *WebApp) popFlash(r *http.Request) string {
	return web.sessions.PopString(r.Context(), "flash")
}

// handleRoot deals with http calls to "/" by redirecting to "/sheet".
func (web *WebApp) handleRoot() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/sheet", http.StatusFound)
	})
}

/* -------------------------------------------------------------------------- */
// Master records
/* -------------------------------------------------------------------------- */

// handleFlowers serves the /flowers list and add form.
func (web *WebApp) handleFlowers() http.Handler {

	name := "flowers.html"
	tpls := []string{"base.html", "flowers.html"}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		flowers, err := web.db.FlowersList(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			web.ServerError(w, r, err)
			return
		}

		data := struct {
			PageTitle   string
			CurrentPage string
			Flash       string
			Flowers     []db.Flower
		}{
			PageTitle:   "Flowers",
			CurrentPage: "flowers",
			Flash:       web.popFlash(r),
			Flowers:     flowers,
		}
		web.render(w, r, name, tpls, data)
	})
}

// handleFlowerAdd adds a flower master record.
func (web *WebApp) handleFlowerAdd() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		form := &MasterForm{}
		if err := DecodeForm(r, form); err != nil {
			web.clientError(w, err.Error(), http.StatusBadRequest)
			return
		}
		validator := NewValidator()
		form.Validate(validator)
		if !validator.Valid() {
			web.flash(r, validator.Summary())
			http.Redirect(w, r, "/flowers", http.StatusSeeOther)
			return
		}

		err := web.db.FlowerAdd(ctx, db.Flower{Name: form.Name, DisplayName: form.DisplayName})
		switch {
		case errors.Is(err, db.ErrDuplicate):
			web.flash(r, fmt.Sprintf("Flower %q already exists.", form.Name))
		case err != nil:
			web.ServerError(w, r, err)
			return
		default:
			web.flash(r, fmt.Sprintf("Flower %q added.", form.Name))
		}
		http.Redirect(w, r, "/flowers", http.StatusSeeOther)
	})
}

// handleFlowerUpdate updates a flower master record.
func (web *WebApp) handleFlowerUpdate() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		form := &MasterForm{}
		if err := DecodeForm(r, form); err != nil {
			web.clientError(w, err.Error(), http.StatusBadRequest)
			return
		}
		validator := NewValidator()
		form.Validate(validator)
		if !validator.Valid() {
			web.flash(r, validator.Summary())
			http.Redirect(w, r, "/flowers", http.StatusSeeOther)
			return
		}

		err := web.db.FlowerUpdate(ctx, db.Flower{Name: form.Name, DisplayName: form.DisplayName})
		switch {
		case errors.Is(err, sql.ErrNoRows):
			web.flash(r, fmt.Sprintf("Flower %q not found.", form.Name))
		case err != nil:
			web.ServerError(w, r, err)
			return
		default:
			web.flash(r, fmt.Sprintf("Flower %q updated.", form.Name))
		}
		http.Redirect(w, r, "/flowers", http.StatusSeeOther)
	})
}

// handleFlowerDelete deletes a flower master record. Daily sheet rows
// referring to the flower are left in place.
func (web *WebApp) handleFlowerDelete() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := r.ParseForm(); err != nil {
			web.clientError(w, err.Error(), http.StatusBadRequest)
			return
		}
		flowerName := r.PostForm.Get("name")
		if flowerName == "" {
			web.clientError(w, "name is required", http.StatusBadRequest)
			return
		}
		if err := web.db.FlowerDelete(ctx, flowerName); err != nil {
			web.ServerError(w, r, err)
			return
		}
		web.flash(r, fmt.Sprintf("Flower %q deleted.", flowerName))
		http.Redirect(w, r, "/flowers", http.StatusSeeOther)
	})
}

// handleCustomers serves the /customers list and add form.
func (web *WebApp) handleCustomers() http.Handler {

	name := "customers.html"
	tpls := []string{"base.html", "customers.html"}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		customers, err := web.db.CustomersList(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			web.ServerError(w, r, err)
			return
		}

		data := struct {
			PageTitle   string
			CurrentPage string
			Flash       string
			Customers   []db.Customer
		}{
			PageTitle:   "Customers",
			CurrentPage: "customers",
			Flash:       web.popFlash(r),
			Customers:   customers,
		}
		web.render(w, r, name, tpls, data)
	})
}

// handleCustomerAdd adds a customer master record.
func (web *WebApp) handleCustomerAdd() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		form := &MasterForm{}
		if err := DecodeForm(r, form); err != nil {
			web.clientError(w, err.Error(), http.StatusBadRequest)
			return
		}
		validator := NewValidator()
		form.Validate(validator)
		if !validator.Valid() {
			web.flash(r, validator.Summary())
			http.Redirect(w, r, "/customers", http.StatusSeeOther)
			return
		}

		customer := db.Customer{
			Name:        form.Name,
			DisplayName: form.DisplayName,
			Address:     form.Address,
			ContactNo:   form.ContactNo,
		}
		err := web.db.CustomerAdd(ctx, customer)
		switch {
		case errors.Is(err, db.ErrDuplicate):
			web.flash(r, fmt.Sprintf("Customer %q already exists.", form.Name))
		case err != nil:
			web.ServerError(w, r, err)
			return
		default:
			web.flash(r, fmt.Sprintf("Customer %q added.", form.Name))
		}
		http.Redirect(w, r, "/customers", http.StatusSeeOther)
	})
}

// handleCustomerUpdate updates a customer master record.
func (web *WebApp) handleCustomerUpdate() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		form := &MasterForm{}
		if err := DecodeForm(r, form); err != nil {
			web.clientError(w, err.Error(), http.StatusBadRequest)
			return
		}
		validator := NewValidator()
		form.Validate(validator)
		if !validator.Valid() {
			web.flash(r, validator.Summary())
			http.Redirect(w, r, "/customers", http.StatusSeeOther)
			return
		}

		customer := db.Customer{
			Name:        form.Name,
			DisplayName: form.DisplayName,
			Address:     form.Address,
			ContactNo:   form.ContactNo,
		}
		err := web.db.CustomerUpdate(ctx, customer)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			web.flash(r, fmt.Sprintf("Customer %q not found.", form.Name))
		case err != nil:
			web.ServerError(w, r, err)
			return
		default:
			web.flash(r, fmt.Sprintf("Customer %q updated.", form.Name))
		}
		http.Redirect(w, r, "/customers", http.StatusSeeOther)
	})
}

// handleCustomerDelete deletes a customer master record.
func (web *WebApp) handleCustomerDelete() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := r.ParseForm(); err != nil {
			web.clientError(w, err.Error(), http.StatusBadRequest)
			return
		}
		customerName := r.PostForm.Get("name")
		if customerName == "" {
			web.clientError(w, "name is required", http.StatusBadRequest)
			return
		}
		if err := web.db.CustomerDelete(ctx, customerName); err != nil {
			web.ServerError(w, r, err)
			return
		}
		web.flash(r, fmt.Sprintf("Customer %q deleted.", customerName))
		http.Redirect(w, r, "/customers", http.StatusSeeOther)
	})
}

// handleBuyers serves the /buyers list and add form.
func (web *WebApp) handleBuyers() http.Handler {

	name := "buyers.html"
	tpls := []string{"base.html", "buyers.html"}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		buyers, err := web.db.BuyersList(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			web.ServerError(w, r, err)
			return
		}

		data := struct {
			PageTitle   string
			CurrentPage string
			Flash       string
			Buyers      []db.Buyer
		}{
			PageTitle:   "Buyers",
			CurrentPage: "buyers",
			Flash:       web.popFlash(r),
			Buyers:      buyers,
		}
		web.render(w, r, name, tpls, data)
	})
}

// handleBuyerAdd adds a buyer master record.
func (web *WebApp) handleBuyerAdd() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		form := &MasterForm{}
		if err := DecodeForm(r, form); err != nil {
			web.clientError(w, err.Error(), http.StatusBadRequest)
			return
		}
		validator := NewValidator()
		form.Validate(validator)
		if !validator.Valid() {
			web.flash(r, validator.Summary())
			http.Redirect(w, r, "/buyers", http.StatusSeeOther)
			return
		}

		buyer := db.Buyer{
			Name:        form.Name,
			DisplayName: form.DisplayName,
			Address:     form.Address,
			ContactNo:   form.ContactNo,
		}
		err := web.db.BuyerAdd(ctx, buyer)
		switch {
		case errors.Is(err, db.ErrDuplicate):
			web.flash(r, fmt.Sprintf("Buyer %q already exists.", form.Name))
		case err != nil:
			web.ServerError(w, r, err)
			return
		default:
			web.flash(r, fmt.Sprintf("Buyer %q added.", form.Name))
		}
		http.Redirect(w, r, "/buyers", http.StatusSeeOther)
	})
}

// handleBuyerUpdate updates a buyer master record.
func (web *WebApp) handleBuyerUpdate() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		form := &MasterForm{}
		if err := DecodeForm(r, form); err != nil {
			web.clientError(w, err.Error(), http.StatusBadRequest)
			return
		}
		validator := NewValidator()
		form.Validate(validator)
		if !validator.Valid() {
			web.flash(r, validator.Summary())
			http.Redirect(w, r, "/buyers", http.StatusSeeOther)
			return
		}

		buyer := db.Buyer{
			Name:        form.Name,
			DisplayName: form.DisplayName,
			Address:     form.Address,
			ContactNo:   form.ContactNo,
		}
		err := web.db.BuyerUpdate(ctx, buyer)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			web.flash(r, fmt.Sprintf("Buyer %q not found.", form.Name))
		case err != nil:
			web.ServerError(w, r, err)
			return
		default:
			web.flash(r, fmt.Sprintf("Buyer %q updated.", form.Name))
		}
		http.Redirect(w, r, "/buyers", http.StatusSeeOther)
	})
}

// handleBuyerDelete deletes a buyer master record. Daily sheet rows
// referring to the buyer, and their running balances, are left in place.
func (web *WebApp) handleBuyerDelete() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := r.ParseForm(); err != nil {
			web.clientError(w, err.Error(), http.StatusBadRequest)
			return
		}
		buyerName := r.PostForm.Get("name")
		if buyerName == "" {
			web.clientError(w, "name is required", http.StatusBadRequest)
			return
		}
		if err := web.db.BuyerDelete(ctx, buyerName); err != nil {
			web.ServerError(w, r, err)
			return
		}
		web.flash(r, fmt.Sprintf("Buyer %q deleted.", buyerName))
		http.Redirect(w, r, "/buyers", http.StatusSeeOther)
	})
}

/* -------------------------------------------------------------------------- */
// Daily prices
/* -------------------------------------------------------------------------- */

// handlePrices serves the /prices listing and set form.
func (web *WebApp) handlePrices() http.Handler {

	name := "prices.html"
	tpls := []string{"base.html", "prices.html"}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		prices, err := web.db.PricesList(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			web.ServerError(w, r, err)
			return
		}
		flowers, err := web.db.FlowersList(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			web.ServerError(w, r, err)
			return
		}

		data := struct {
			PageTitle   string
			CurrentPage string
			Flash       string
			Prices      []viewPrice
			Flowers     []db.Flower
			Today       string
		}{
			PageTitle:   "Daily Prices",
			CurrentPage: "prices",
			Flash:       web.popFlash(r),
			Prices:      newViewPrices(prices),
			Flowers:     flowers,
			Today:       time.Now().Format(isoDate),
		}
		web.render(w, r, name, tpls, data)
	})
}

// handlePriceSet sets (or overwrites) the price of a flower for a date.
func (web *WebApp) handlePriceSet() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		form := &PriceForm{}
		if err := DecodeForm(r, form); err != nil {
			web.clientError(w, err.Error(), http.StatusBadRequest)
			return
		}
		validator := NewValidator()
		form.Validate(validator)
		if !validator.Valid() {
			web.flash(r, validator.Summary())
			http.Redirect(w, r, "/prices", http.StatusSeeOther)
			return
		}

		if err := web.db.PriceSet(ctx, form.FlowerName, form.Date, form.Price); err != nil {
			web.ServerError(w, r, err)
			return
		}
		web.flash(r, fmt.Sprintf("Price for %q on %s set.", form.FlowerName, form.Date.Format(isoDate)))
		http.Redirect(w, r, "/prices", http.StatusSeeOther)
	})
}

// handlePriceDelete removes the price of a flower for a date.
func (web *WebApp) handlePriceDelete() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		form := &PriceForm{}
		if err := DecodeForm(r, form); err != nil {
			web.clientError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if form.FlowerName == "" || form.Date.IsZero() {
			web.clientError(w, "flower name and date are required", http.StatusBadRequest)
			return
		}

		if err := web.db.PriceDelete(ctx, form.FlowerName, form.Date); err != nil {
			web.ServerError(w, r, err)
			return
		}
		web.flash(r, fmt.Sprintf("Price for %q on %s removed.", form.FlowerName, form.Date.Format(isoDate)))
		http.Redirect(w, r, "/prices", http.StatusSeeOther)
	})
}

/* -------------------------------------------------------------------------- */
// Daily sheet
/* -------------------------------------------------------------------------- */

// handleSheet serves the /sheet daily sheet listing and entry form.
func (web *WebApp) handleSheet() http.Handler {

	name := "sheet.html"
	tpls := []string{"base.html", "sheet.html"}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		form := NewSearchForm()
		if err := DecodeURLParams(r, form); err != nil {
			web.ServerError(w, r, err)
			return
		}

		// Create a validator and validate the form.
		validator := NewValidator()
		form.Validate(validator)

		// Initialise pagination for default state.
		pagination, _ := NewPagination(pageLen, 1, form.Page, form.QueryValues())

		flowers, customers, buyers, err := web.entryFormOptions(ctx)
		if err != nil {
			web.ServerError(w, r, err)
			return
		}

		// Prepare data for the template, allowing passing of validation
		// errors back to the template if necessary.
		data := struct {
			PageTitle    string
			CurrentPage  string
			Flash        string
			Transactions []viewTransaction
			Form         *SearchForm
			Validator    *Validator
			Pagination   *Pagination
			Flowers      []db.Flower
			Customers    []db.Customer
			Buyers       []db.Buyer
			Today        string
		}{
			PageTitle:   "Daily Sheet",
			CurrentPage: "sheet",
			Flash:       web.popFlash(r),
			Form:        form,
			Validator:   validator,
			Pagination:  pagination,
			Flowers:     flowers,
			Customers:   customers,
			Buyers:      buyers,
			Today:       time.Now().Format(isoDate),
		}

		// Render template with errors and return if the form is invalid.
		if !validator.Valid() {
			web.render(w, r, name, tpls, data)
			return
		}

		transactions, err := web.db.TransactionsList(ctx, form.Search, pageLen, form.Offset(pageLen))
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			web.ServerError(w, r, err)
			return
		}

		// Set valid data from successful database call.
		data.Transactions = newViewTransactions(transactions)

		// Set pagination for the number of records found. Each row carries
		// the search query row count as a field.
		recordsNo := 1
		if len(data.Transactions) > 0 {
			recordsNo = data.Transactions[0].RowCount
		}
		data.Pagination, err = NewPagination(pageLen, recordsNo, form.Page, form.QueryValues())
		if err != nil {
			web.ServerError(w, r, err)
			return
		}

		web.render(w, r, name, tpls, data)
	})
}

// entryFormOptions loads the master records needed by the sheet entry form
// selects.
func (web *WebApp) entryFormOptions(ctx context.Context) ([]db.Flower, []db.Customer, []db.Buyer, error) {
	flowers, err := web.db.FlowersList(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil, err
	}
	customers, err := web.db.CustomersList(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil, err
	}
	buyers, err := web.db.BuyersList(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil, err
	}
	return flowers, customers, buyers, nil
}

// handleSheetAdd inserts a daily sheet entry. Credit entries receive a
// provisional running balance which is then settled by a full buyer
// recalculation.
func (web *WebApp) handleSheetAdd() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		form := &SheetForm{}
		if err := DecodeForm(r, form); err != nil {
			web.clientError(w, err.Error(), http.StatusBadRequest)
			return
		}
		validator := NewValidator()
		form.Validate(validator)
		if !validator.Valid() {
			web.flash(r, validator.Summary())
			http.Redirect(w, r, "/sheet", http.StatusSeeOther)
			return
		}

		t := form.Transaction()
		if t.Direction == db.Credit {
			current, err := web.db.CurrentDebt(ctx, t.BuyerName)
			if err != nil {
				web.ServerError(w, r, err)
				return
			}
			t.Debt = current + t.Amount
		} else {
			t.Debt = -t.Amount
		}

		if _, err := web.db.TransactionInsert(ctx, t); err != nil {
			web.ServerError(w, r, err)
			return
		}
		if t.BuyerName != "" {
			if err := web.db.RecalculateDebts(ctx, t.BuyerName); err != nil {
				web.ServerError(w, r, err)
				return
			}
		}
		web.flash(r, "Sheet entry added.")
		http.Redirect(w, r, "/sheet", http.StatusSeeOther)
	})
}

// handleSheetEdit serves the edit page at /sheet/<id> for a single entry.
func (web *WebApp) handleSheetEdit() http.Handler {

	name := "sheet_edit.html"
	tpls := []string{"base.html", "sheet_edit.html"}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		id, err := muxVarInt(r, "id")
		if err != nil {
			web.clientError(w, err.Error(), http.StatusBadRequest)
			return
		}

		t, err := web.db.TransactionGet(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			web.notFound(w, r, fmt.Sprintf("Sheet entry %d not found", id))
			return
		}
		if err != nil {
			web.ServerError(w, r, err)
			return
		}

		flowers, customers, buyers, err := web.entryFormOptions(ctx)
		if err != nil {
			web.ServerError(w, r, err)
			return
		}

		data := struct {
			PageTitle   string
			CurrentPage string
			Flash       string
			Transaction db.Transaction
			DateISO     string
			Flowers     []db.Flower
			Customers   []db.Customer
			Buyers      []db.Buyer
		}{
			PageTitle:   fmt.Sprintf("Sheet Entry %d", id),
			CurrentPage: "sheet",
			Flash:       web.popFlash(r),
			Transaction: t,
			DateISO:     t.Date.Format(isoDate),
			Flowers:     flowers,
			Customers:   customers,
			Buyers:      buyers,
		}
		web.render(w, r, name, tpls, data)
	})
}

// handleSheetUpdate updates a daily sheet entry and settles the running
// balances of the affected buyers.
func (web *WebApp) handleSheetUpdate() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		id, err := muxVarInt(r, "id")
		if err != nil {
			web.clientError(w, err.Error(), http.StatusBadRequest)
			return
		}

		old, err := web.db.TransactionGet(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			web.notFound(w, r, fmt.Sprintf("Sheet entry %d not found", id))
			return
		}
		if err != nil {
			web.ServerError(w, r, err)
			return
		}

		form := &SheetForm{}
		if err := DecodeForm(r, form); err != nil {
			web.clientError(w, err.Error(), http.StatusBadRequest)
			return
		}
		validator := NewValidator()
		form.Validate(validator)
		if !validator.Valid() {
			web.flash(r, validator.Summary())
			http.Redirect(w, r, fmt.Sprintf("/sheet/%d", id), http.StatusSeeOther)
			return
		}

		t := form.Transaction()

		// Provisional running balance against the (possibly new) buyer,
		// excluding the old row's contribution when the buyer is unchanged.
		temp, err := web.db.CurrentDebt(ctx, t.BuyerName)
		if err != nil {
			web.ServerError(w, r, err)
			return
		}
		if old.BuyerName == t.BuyerName {
			temp -= old.SignedAmount()
		}
		t.Debt = temp + t.SignedAmount()

		if err := web.db.TransactionUpdate(ctx, id, t); err != nil {
			web.ServerError(w, r, err)
			return
		}

		if old.BuyerName != "" {
			if err := web.db.RecalculateDebts(ctx, old.BuyerName); err != nil {
				web.ServerError(w, r, err)
				return
			}
		}
		if t.BuyerName != "" && t.BuyerName != old.BuyerName {
			if err := web.db.RecalculateDebts(ctx, t.BuyerName); err != nil {
				web.ServerError(w, r, err)
				return
			}
		}
		web.flash(r, fmt.Sprintf("Sheet entry %d updated.", id))
		http.Redirect(w, r, "/sheet", http.StatusSeeOther)
	})
}

// handleSheetDelete deletes a daily sheet entry and settles the running
// balance of its buyer.
func (web *WebApp) handleSheetDelete() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		id, err := muxVarInt(r, "id")
		if err != nil {
			web.clientError(w, err.Error(), http.StatusBadRequest)
			return
		}

		old, err := web.db.TransactionGet(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			web.notFound(w, r, fmt.Sprintf("Sheet entry %d not found", id))
			return
		}
		if err != nil {
			web.ServerError(w, r, err)
			return
		}

		if err := web.db.TransactionDelete(ctx, id); err != nil {
			web.ServerError(w, r, err)
			return
		}
		if old.BuyerName != "" {
			if err := web.db.RecalculateDebts(ctx, old.BuyerName); err != nil {
				web.ServerError(w, r, err)
				return
			}
		}
		web.flash(r, fmt.Sprintf("Sheet entry %d deleted.", id))
		http.Redirect(w, r, "/sheet", http.StatusSeeOther)
	})
}

/* -------------------------------------------------------------------------- */
// Reports
/* -------------------------------------------------------------------------- */

// handleReports serves the /reports page. The report shown is selected by
// the "type" url parameter.
func (web *WebApp) handleReports() http.Handler {

	name := "reports.html"
	tpls := []string{"base.html", "reports.html"}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		form := NewReportForm()
		if err := DecodeURLParams(r, form); err != nil {
			web.ServerError(w, r, err)
			return
		}
		validator := NewValidator()
		form.Validate(validator)

		data := struct {
			PageTitle        string
			CurrentPage      string
			Flash            string
			Form             *ReportForm
			Validator        *Validator
			DateISO          string
			DailyTotal       string
			Transactions     []viewTransaction
			CustomerBalances []viewCustomerBalance
			BuyerDebts       []viewBuyerDebt
			FlowerSales      []viewFlowerSales
		}{
			PageTitle:   "Reports",
			CurrentPage: "reports",
			Flash:       web.popFlash(r),
			Form:        form,
			Validator:   validator,
			DateISO:     form.Date.Format(isoDate),
		}

		// Render template with errors and return if the form is invalid.
		if !validator.Valid() {
			web.render(w, r, name, tpls, data)
			return
		}

		switch form.Type {
		case reportDailySales:
			total, err := web.db.ReportDailyTotal(ctx, form.Date)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				web.ServerError(w, r, err)
				return
			}
			data.DailyTotal = money(total)
			transactions, err := web.db.TransactionsByDate(ctx, form.Date)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				web.ServerError(w, r, err)
				return
			}
			data.Transactions = newViewTransactions(transactions)
		case reportCustomerBalances:
			balances, err := web.db.ReportCustomerBalances(ctx)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				web.ServerError(w, r, err)
				return
			}
			data.CustomerBalances = newViewCustomerBalances(balances)
		case reportBuyerDebts:
			debts, err := web.db.ReportBuyerDebts(ctx)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				web.ServerError(w, r, err)
				return
			}
			data.BuyerDebts = newViewBuyerDebts(debts)
		case reportFlowerSales:
			sales, err := web.db.ReportFlowerSales(ctx, form.Date)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				web.ServerError(w, r, err)
				return
			}
			data.FlowerSales = newViewFlowerSales(sales)
		}

		web.render(w, r, name, tpls, data)
	})
}

/* -------------------------------------------------------------------------- */
// Rates
/* -------------------------------------------------------------------------- */

// rateResponse is the JSON body of the /rate endpoint. An absent price is
// reported as found == false, never as a zero rate.
type rateResponse struct {
	Found bool    `json:"found"`
	Rate  float64 `json:"rate,omitempty"`
}

// handleRate serves /rate?flower=<name>&date=<yyyy-mm-dd>, a small JSON
// endpoint used by the sheet entry form to pre-fill the rate field from the
// daily price catalogue.
func (web *WebApp) handleRate() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		flowerName := r.URL.Query().Get("flower")
		if flowerName == "" {
			web.clientError(w, "flower parameter is required", http.StatusBadRequest)
			return
		}
		date, err := time.Parse(isoDate, r.URL.Query().Get("date"))
		if err != nil {
			web.clientError(w, "date parameter must be in yyyy-mm-dd format", http.StatusBadRequest)
			return
		}

		response := rateResponse{}
		rate, err := web.db.PriceEffective(ctx, flowerName, date)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// no price on or before the date; leave Found false
		case err != nil:
			web.ServerError(w, r, err)
			return
		default:
			response.Found = true
			response.Rate = rate
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			web.log.Error("rate response encoding error", "error", err)
		}
	})
}

/* -------------------------------------------------------------------------- */
// Helpers
/* -------------------------------------------------------------------------- */

// muxVarInt extracts an integer route parameter.
func muxVarInt(r *http.Request, key string) (int64, error) {
	v, ok := mux.Vars(r)[key]
	if !ok {
		return 0, fmt.Errorf("parameter %q missing", key)
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parameter %q is not an integer", key)
	}
	return i, nil
}

// render renders the specified template.
func (web *WebApp) render(w http.ResponseWriter, r *http.Request, name string, tpls []string, data any) {
	templates, err := web.templates(name, tpls...)
	if err != nil {
		web.ServerError(w, r, err)
		return
	}
	buf := new(bytes.Buffer)
	if err := templates.ExecuteTemplate(buf, name, data); err != nil {
		web.log.Error("template rendering error", "template", name, "error", err)
		web.ServerError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// ServerError logs and returns an internal server error. The error should
// contain the information needed for logging.
func (web *WebApp) ServerError(w http.ResponseWriter, r *http.Request, errs ...error) {
	err := errors.Join(errs...)
	web.log.Error(err.Error(), "method", r.Method, "uri", r.URL.RequestURI())
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// clientError returns a client error.
func (web *WebApp) clientError(w http.ResponseWriter, message string, status int) {
	if message == "" {
		message = http.StatusText(status)
	}
	http.Error(w, message, status)
}

// notFound returns a 404 with a message.
func (web *WebApp) notFound(w http.ResponseWriter, r *http.Request, message string) {
	web.clientError(w, message, http.StatusNotFound)
}
