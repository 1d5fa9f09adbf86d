package billing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/vyapar/app/models"
)

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestPriceItemCatalogDefaults(t *testing.T) {
	product := &models.Product{
		ID:      primitive.NewObjectID(),
		Title:   "Barcode Scanner",
		Rate:    dec("2150.50"),
		GSTRate: dec("18"),
		Stock:   10,
	}

	item, err := PriceItem(LineInput{ProductID: &product.ID, Quantity: 2}, product)
	require.NoError(t, err)

	assert.Equal(t, models.ItemSourceCatalog, item.Source)
	assert.Equal(t, "Barcode Scanner", item.Title)
	require.NotNil(t, item.ProductID)
	assert.Equal(t, product.ID, *item.ProductID)

	assert.True(t, item.Rate.Equal(dec("2150.50")), "rate filled from catalogue")
	assert.True(t, item.TaxableValue.Equal(dec("4301.00")), "taxable = qty*rate, got %s", item.TaxableValue)
	assert.True(t, item.GSTAmount.Equal(dec("774.18")), "gst = 18%% of taxable, got %s", item.GSTAmount)
	assert.True(t, item.Amount.Equal(dec("5075.18")), "amount, got %s", item.Amount)
}

func TestPriceItemExplicitValuesWin(t *testing.T) {
	product := &models.Product{
		ID:      primitive.NewObjectID(),
		Title:   "Cash Drawer",
		Rate:    dec("3250"),
		GSTRate: dec("28"),
		Stock:   5,
	}

	line := LineInput{
		ProductID: &product.ID,
		Title:     "Cash Drawer (negotiated)",
		Quantity:  1,
		Rate:      decPtr("3000"),
		GSTRate:   decPtr("18"),
	}

	item, err := PriceItem(line, product)
	require.NoError(t, err)

	assert.Equal(t, "Cash Drawer (negotiated)", item.Title)
	assert.True(t, item.Rate.Equal(dec("3000")))
	assert.True(t, item.GSTRate.Equal(dec("18")))
	assert.True(t, item.Amount.Equal(dec("3540")), "got %s", item.Amount)
}

func TestPriceItemDiscountBeforeGST(t *testing.T) {
	// 10% off 1000 = 900, then 18% GST on the discounted base.
	product := &models.Product{
		ID:      primitive.NewObjectID(),
		Title:   "Printer",
		Rate:    dec("1000"),
		GSTRate: dec("18"),
		Stock:   3,
	}

	item, err := PriceItem(LineInput{
		ProductID:   &product.ID,
		Quantity:    1,
		DiscountPct: dec("10"),
	}, product)
	require.NoError(t, err)

	assert.True(t, item.TaxableValue.Equal(dec("1000")))
	assert.True(t, item.GSTAmount.Equal(dec("162")), "gst on discounted base, got %s", item.GSTAmount)
	assert.True(t, item.Amount.Equal(dec("1062")), "got %s", item.Amount)
}

func TestPriceItemSnapshotStockRejected(t *testing.T) {
	product := &models.Product{
		ID:    primitive.NewObjectID(),
		Title: "Ink Ribbon",
		Rate:  dec("89.99"),
		Stock: 3,
	}

	_, err := PriceItem(LineInput{ProductID: &product.ID, Quantity: 5}, product)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, int64(5), stockErr.Requested)
	assert.Equal(t, int64(3), stockErr.Available)
	assert.Equal(t, "Ink Ribbon", stockErr.Title)
}

func TestPriceItemCustomLine(t *testing.T) {
	item, err := PriceItem(LineInput{
		Title:    "Installation service",
		Quantity: 1,
		Rate:     decPtr("500"),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ItemSourceCustom, item.Source)
	assert.Nil(t, item.ProductID)
	assert.True(t, item.GSTRate.IsZero(), "custom gst defaults to zero")
	assert.True(t, item.Amount.Equal(dec("500")))
}

func TestPriceItemCustomLineValidation(t *testing.T) {
	_, err := PriceItem(LineInput{Quantity: 1, Rate: decPtr("10")}, nil)
	assert.ErrorIs(t, err, ErrMissingTitle)

	_, err = PriceItem(LineInput{Title: "Delivery", Quantity: 1}, nil)
	assert.ErrorIs(t, err, ErrMissingRate)
}

func TestPriceItemExactDecimalArithmetic(t *testing.T) {
	// 0.1 + 0.2 style inputs must not pick up float drift.
	item, err := PriceItem(LineInput{
		Title:    "Odd lot",
		Quantity: 3,
		Rate:     decPtr("0.10"),
		GSTRate:  decPtr("5"),
	}, nil)
	require.NoError(t, err)

	assert.True(t, item.TaxableValue.Equal(dec("0.30")), "got %s", item.TaxableValue)
	assert.True(t, item.GSTAmount.Equal(dec("0.015")), "got %s", item.GSTAmount)
	assert.True(t, item.Amount.Equal(dec("0.315")), "got %s", item.Amount)
}
