package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultDueAfter is added to the invoice date when no due date is given.
const DefaultDueAfter = 7 * 24 * time.Hour

// Line item sources.
const (
	ItemSourceCatalog = "catalog"
	ItemSourceCustom  = "custom"
)

// InvoiceItem is one priced line of an invoice. ProductID is nil for a
// custom line. The monetary fields are filled by the pricing calculator
// and are never recomputed after the invoice commits.
type InvoiceItem struct {
	ProductID    *primitive.ObjectID `bson:"productId,omitempty" json:"productId,omitempty"`
	Title        string              `bson:"title" json:"title"`
	Quantity     int64               `bson:"quantity" json:"quantity"`
	Rate         decimal.Decimal     `bson:"rate" json:"rate"`
	DiscountPct  decimal.Decimal     `bson:"discountPct" json:"discountPct"`
	GSTRate      decimal.Decimal     `bson:"gstRate" json:"gstRate"`
	TaxableValue decimal.Decimal     `bson:"taxableValue" json:"taxableValue"`
	GSTAmount    decimal.Decimal     `bson:"gstAmount" json:"gstAmount"`
	Amount       decimal.Decimal     `bson:"amount" json:"amount"`
	Source       string              `bson:"source" json:"source"`
}

// Invoice is one committed sale. Line composition is immutable after
// creation; the totals always equal the exact sums of the item fields.
type Invoice struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InvoiceNumber string             `bson:"invoiceNumber" json:"invoiceNumber"`
	BuyerID       primitive.ObjectID `bson:"buyerId" json:"buyerId"`
	SellerID      primitive.ObjectID `bson:"sellerId,omitempty" json:"sellerId,omitempty"`
	InvoiceDate   time.Time          `bson:"invoiceDate" json:"invoiceDate"`
	DueDate       time.Time          `bson:"dueDate" json:"dueDate"`
	Items         []InvoiceItem      `bson:"items" json:"items"`
	SubTotal      decimal.Decimal    `bson:"subTotal" json:"subTotal"`
	TotalDiscount decimal.Decimal    `bson:"totalDiscount" json:"totalDiscount"`
	GST           decimal.Decimal    `bson:"gst" json:"gst"`
	TotalAmount   decimal.Decimal    `bson:"totalAmount" json:"totalAmount"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// EnsureDates defaults the invoice date to now and the due date to
// invoiceDate + 7 days when unset.
func (inv *Invoice) EnsureDates(now time.Time) {
	if inv.InvoiceDate.IsZero() {
		inv.InvoiceDate = now
	}
	if inv.DueDate.IsZero() {
		inv.DueDate = inv.InvoiceDate.Add(DefaultDueAfter)
	}
}
