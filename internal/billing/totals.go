package billing

import (
	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/vyapar/app/models"
)

// Totals are the document-level sums of an invoice's priced items.
type Totals struct {
	SubTotal      decimal.Decimal
	TotalDiscount decimal.Decimal
	GST           decimal.Decimal
	TotalAmount   decimal.Decimal
}

// Aggregate sums priced items into invoice totals. Pure; called only
// after every item has been priced and inventory-checked.
//
//	subTotal      = Σ taxableValue
//	totalDiscount = Σ taxableValue*discountPct/100
//	gst           = Σ gstAmount
//	totalAmount   = subTotal + gst − totalDiscount
func Aggregate(items []models.InvoiceItem) Totals {
	var t Totals

	for _, it := range items {
		t.SubTotal = t.SubTotal.Add(it.TaxableValue)
		t.TotalDiscount = t.TotalDiscount.Add(it.TaxableValue.Mul(it.DiscountPct).Div(hundred))
		t.GST = t.GST.Add(it.GSTAmount)
	}

	t.TotalAmount = t.SubTotal.Add(t.GST).Sub(t.TotalDiscount)
	return t
}
