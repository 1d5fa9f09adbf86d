package billing

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/vyapar/app/models"
)

var hundred = decimal.NewFromInt(100)

// LineInput is one candidate invoice line as accepted from the caller.
// A nil ProductID makes it a custom line; nil Rate/GSTRate mean "take the
// catalogue value" for catalogue lines and are errors/defaults for custom
// ones.
type LineInput struct {
	ProductID   *primitive.ObjectID `json:"productId,omitempty"`
	Title       string              `json:"title,omitempty"`
	Quantity    int64               `json:"quantity" validate:"required,gte=1"`
	Rate        *decimal.Decimal    `json:"rate,omitempty"`
	DiscountPct decimal.Decimal     `json:"discountPct"`
	GSTRate     *decimal.Decimal    `json:"gstRate,omitempty"`
}

// CreateInvoiceInput is the validated payload of one invoice-create
// request.
type CreateInvoiceInput struct {
	BuyerID       primitive.ObjectID `json:"buyerId"`
	SellerID      primitive.ObjectID `json:"sellerId,omitempty"`
	InvoiceNumber string             `json:"invoiceNumber,omitempty"`
	InvoiceDate   time.Time          `json:"invoiceDate,omitempty"`
	DueDate       time.Time          `json:"dueDate,omitempty"`
	Items         []LineInput        `json:"items" validate:"required"`
}

// PriceItem turns one line input into a fully priced invoice item.
// Pure: no I/O, deterministic, exact decimal arithmetic.
//
// With a product snapshot the line is catalogue-sourced: missing
// rate/gstRate/title are filled from the product, explicit values win,
// and a snapshot stock below the requested quantity is rejected early
// (the decrement re-checks under the transaction either way).
//
// Without a product the line is custom: title and rate are mandatory,
// gstRate defaults to zero.
func PriceItem(line LineInput, product *models.Product) (models.InvoiceItem, error) {
	item := models.InvoiceItem{
		Quantity:    line.Quantity,
		Title:       line.Title,
		DiscountPct: line.DiscountPct,
	}

	if product != nil {
		if product.Stock < line.Quantity {
			return models.InvoiceItem{}, &InsufficientStockError{
				ProductID: product.ID,
				Title:     product.Title,
				Requested: line.Quantity,
				Available: product.Stock,
			}
		}

		id := product.ID
		item.ProductID = &id
		item.Source = models.ItemSourceCatalog

		if item.Title == "" {
			item.Title = product.Title
		}
		if line.Rate != nil {
			item.Rate = *line.Rate
		} else {
			item.Rate = product.Rate
		}
		if line.GSTRate != nil {
			item.GSTRate = *line.GSTRate
		} else {
			item.GSTRate = product.GSTRate
		}
	} else {
		item.Source = models.ItemSourceCustom

		if item.Title == "" {
			return models.InvoiceItem{}, ErrMissingTitle
		}
		if line.Rate == nil {
			return models.InvoiceItem{}, ErrMissingRate
		}
		item.Rate = *line.Rate
		if line.GSTRate != nil {
			item.GSTRate = *line.GSTRate
		}
	}

	qty := decimal.NewFromInt(line.Quantity)
	item.TaxableValue = qty.Mul(item.Rate)

	discounted := item.TaxableValue.Sub(item.TaxableValue.Mul(item.DiscountPct).Div(hundred))
	item.GSTAmount = discounted.Mul(item.GSTRate).Div(hundred)
	item.Amount = discounted.Add(item.GSTAmount)

	return item, nil
}
