package web

/* view types for the web server */

import (
	"fmt"

	"florist/db"
)

// viewDate is the display format used in listings.
const viewDate = "02/01/2006"

// viewTransaction is a view version of the db.Transaction type with
// pre-formatted date and money fields.
type viewTransaction struct {
	ID           int64
	DateStr      string
	CustomerName string
	FlowerName   string
	Qty          string
	Rate         string
	Amount       string
	Direction    string
	Debt         string
	BuyerName    string
	RowCount     int
}

// newViewTransactions maps db.Transaction records to a slice of
// viewTransaction.
func newViewTransactions(transactions []db.Transaction) []viewTransaction {
	tv := make([]viewTransaction, len(transactions))
	for i, t := range transactions {
		tv[i].ID = t.ID
		tv[i].DateStr = t.Date.Format(viewDate)
		tv[i].CustomerName = t.CustomerName
		tv[i].FlowerName = t.FlowerName
		tv[i].Qty = trimFloat(t.Qty)
		tv[i].Rate = money(t.Rate)
		tv[i].Amount = money(t.Amount)
		tv[i].Direction = string(t.Direction)
		tv[i].BuyerName = t.BuyerName
		tv[i].RowCount = t.RowCount
		// Debit rows carry no meaningful running balance.
		if t.Direction == db.Credit {
			tv[i].Debt = money(t.Debt)
		}
	}
	return tv
}

// viewPrice is a view version of the db.PriceEntry type.
type viewPrice struct {
	FlowerName string
	DateStr    string
	DateISO    string
	Price      string
}

// newViewPrices maps db.PriceEntry records to a slice of viewPrice.
func newViewPrices(prices []db.PriceEntry) []viewPrice {
	pv := make([]viewPrice, len(prices))
	for i, p := range prices {
		pv[i].FlowerName = p.FlowerName
		pv[i].DateStr = p.Date.Format(viewDate)
		pv[i].DateISO = p.Date.Format("2006-01-02")
		pv[i].Price = money(p.Price)
	}
	return pv
}

// viewCustomerBalance is a view version of the db.CustomerBalance type.
type viewCustomerBalance struct {
	DateStr      string
	CustomerName string
	Balance      string
}

func newViewCustomerBalances(balances []db.CustomerBalance) []viewCustomerBalance {
	bv := make([]viewCustomerBalance, len(balances))
	for i, b := range balances {
		bv[i].DateStr = b.Date.Format(viewDate)
		bv[i].CustomerName = b.CustomerName
		bv[i].Balance = money(b.Balance)
	}
	return bv
}

// viewBuyerDebt is a view version of the db.BuyerDebt type.
type viewBuyerDebt struct {
	BuyerName string
	Debt      string
}

func newViewBuyerDebts(debts []db.BuyerDebt) []viewBuyerDebt {
	dv := make([]viewBuyerDebt, len(debts))
	for i, d := range debts {
		dv[i].BuyerName = d.BuyerName
		dv[i].Debt = money(d.Debt)
	}
	return dv
}

// viewFlowerSales is a view version of the db.FlowerSales type.
type viewFlowerSales struct {
	FlowerName string
	Qty        string
	Amount     string
}

func newViewFlowerSales(sales []db.FlowerSales) []viewFlowerSales {
	sv := make([]viewFlowerSales, len(sales))
	for i, s := range sales {
		sv[i].FlowerName = s.FlowerName
		sv[i].Qty = trimFloat(s.TotalQty)
		sv[i].Amount = money(s.TotalAmount)
	}
	return sv
}

// money formats an amount with two decimal places.
func money(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// trimFloat formats a quantity, dropping a trailing ".0" for whole
// numbers.
func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
