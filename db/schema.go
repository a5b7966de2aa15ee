package db

// The sql files making up the database layer. Each (other than the schema) is
// parameterized as described in parameterize.go and prepared on startup.

// schemaSQL creates the application's tables for SQLite. It is designed to be
// idempotent using `CREATE TABLE IF NOT EXISTS`.
const schemaSQL = "schema.sql"

// Master record statements.
const (
	flowerAddSQL      = "flower_add.sql"
	flowerUpdateSQL   = "flower_update.sql"
	flowerDeleteSQL   = "flower_delete.sql"
	flowerGetSQL      = "flower.sql"
	customerAddSQL    = "customer_add.sql"
	customerUpdateSQL = "customer_update.sql"
	customerDeleteSQL = "customer_delete.sql"
	customerGetSQL    = "customer.sql"
	buyerAddSQL       = "buyer_add.sql"
	buyerUpdateSQL    = "buyer_update.sql"
	buyerDeleteSQL    = "buyer_delete.sql"
	buyerGetSQL       = "buyer.sql"
)

// Price catalog statements.
const (
	priceSetSQL       = "price_set.sql"
	priceGetSQL       = "price.sql"
	priceEffectiveSQL = "price_effective.sql"
	priceDeleteSQL    = "price_delete.sql"
)

// Daily sheet statements.
const (
	sheetInsertSQL      = "sheet_insert.sql"
	sheetUpdateSQL      = "sheet_update.sql"
	sheetDeleteSQL      = "sheet_delete.sql"
	sheetGetSQL         = "sheet.sql"
	sheetsListSQL       = "sheets.sql"
	sheetByBuyerSQL     = "sheet_by_buyer.sql"
	sheetCreditsSQL     = "sheet_credits.sql"
	sheetByDateSQL      = "sheet_by_date.sql"
	sheetCurrentDebtSQL = "sheet_current_debt.sql"
	sheetDebtUpdateSQL  = "sheet_debt_update.sql"
)

// Report statements.
const (
	reportDailyTotalSQL  = "report_daily_total.sql"
	reportFlowerSalesSQL = "report_flower_sales.sql"
)
