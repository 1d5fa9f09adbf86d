package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRecomputeDerived(t *testing.T) {
	p := Product{
		Rate:        decimal.RequireFromString("1000"),
		GSTRate:     decimal.RequireFromString("18"),
		DiscountPct: decimal.RequireFromString("10"),
		Stock:       5,
	}
	p.RecomputeDerived()

	assert.True(t, p.Price.Equal(decimal.RequireFromString("1180")), "got %s", p.Price)
	assert.True(t, p.FinalPrice.Equal(decimal.RequireFromString("1062")), "got %s", p.FinalPrice)
	assert.Equal(t, StatusLowStock, p.Status)
}

func TestRecomputeDerivedExactFractions(t *testing.T) {
	// 99.99 + 12% must not pick up binary float noise.
	p := Product{
		Rate:    decimal.RequireFromString("99.99"),
		GSTRate: decimal.RequireFromString("12"),
		Stock:   100,
	}
	p.RecomputeDerived()

	assert.True(t, p.Price.Equal(decimal.RequireFromString("111.9888")), "got %s", p.Price)
	assert.True(t, p.FinalPrice.Equal(p.Price), "no discount, final equals price")
}

func TestStockStatus(t *testing.T) {
	assert.Equal(t, StatusOutOfStock, StockStatus(0))
	assert.Equal(t, StatusOutOfStock, StockStatus(-1))
	assert.Equal(t, StatusLowStock, StockStatus(1))
	assert.Equal(t, StatusLowStock, StockStatus(LowStockThreshold))
	assert.Equal(t, StatusInStock, StockStatus(LowStockThreshold+1))
}
