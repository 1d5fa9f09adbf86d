package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/vyapar/app/models"
)

func TestAggregateEmpty(t *testing.T) {
	got := Aggregate(nil)
	assert.True(t, got.SubTotal.IsZero())
	assert.True(t, got.TotalDiscount.IsZero())
	assert.True(t, got.GST.IsZero())
	assert.True(t, got.TotalAmount.IsZero())
}

func TestAggregateSumsItems(t *testing.T) {
	items := []models.InvoiceItem{
		pricedLine(t, LineInput{Title: "A", Quantity: 2, Rate: decPtr("100"), GSTRate: decPtr("18")}),
		pricedLine(t, LineInput{Title: "B", Quantity: 1, Rate: decPtr("50")}),
		pricedLine(t, LineInput{Title: "C", Quantity: 1, Rate: decPtr("1000"), DiscountPct: dec("10"), GSTRate: decPtr("18")}),
	}

	got := Aggregate(items)

	// subTotal = 200 + 50 + 1000
	assert.True(t, got.SubTotal.Equal(dec("1250")), "got %s", got.SubTotal)
	// only line C is discounted: 1000 * 10%
	assert.True(t, got.TotalDiscount.Equal(dec("100")), "got %s", got.TotalDiscount)
	// gst = 36 + 0 + 162
	assert.True(t, got.GST.Equal(dec("198")), "got %s", got.GST)
	// total = 1250 + 198 - 100
	assert.True(t, got.TotalAmount.Equal(dec("1348")), "got %s", got.TotalAmount)

	// Document total must equal the sum of item amounts exactly.
	sum := dec("0")
	for _, it := range items {
		sum = sum.Add(it.Amount)
	}
	assert.True(t, got.TotalAmount.Equal(sum), "totals drifted from items: %s vs %s", got.TotalAmount, sum)
}

func pricedLine(t *testing.T, line LineInput) models.InvoiceItem {
	t.Helper()
	item, err := PriceItem(line, nil)
	require.NoError(t, err)
	return item
}
