package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LowStockThreshold is the stock level at or below which a product is
// reported as low_stock.
const LowStockThreshold = 10

// Availability status values, derived from stock only.
const (
	StatusOutOfStock = "out_of_stock"
	StatusLowStock   = "low_stock"
	StatusInStock    = "in_stock"
)

// Product is a catalogue product. Price, FinalPrice and Status are
// derived fields; call RecomputeDerived after mutating Rate, GSTRate,
// DiscountPct or Stock.
type Product struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title" validate:"required,min=2,max=255"`
	Description   string             `bson:"description,omitempty" json:"description" validate:"nullable,max=5000"`
	Rate          decimal.Decimal    `bson:"rate" json:"rate"`
	GSTRate       decimal.Decimal    `bson:"gstRate" json:"gstRate"`
	DiscountPct   decimal.Decimal    `bson:"discountPct" json:"discountPct"`
	Price         decimal.Decimal    `bson:"price" json:"price"`
	FinalPrice    decimal.Decimal    `bson:"finalPrice" json:"finalPrice"`
	Stock         int64              `bson:"stock" json:"stock"`
	Status        string             `bson:"status" json:"status"`
	RatingAverage float64            `bson:"ratingAverage" json:"ratingAverage"`
	RatingCount   int64              `bson:"ratingCount" json:"ratingCount"`
	SellerID      primitive.ObjectID `bson:"sellerId,omitempty" json:"sellerId,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// RecomputeDerived refreshes the derived pricing fields and the stock
// status:
//
//	price      = rate + rate*gstRate/100
//	finalPrice = price − price*discountPct/100
func (p *Product) RecomputeDerived() {
	hundred := decimal.NewFromInt(100)
	p.Price = p.Rate.Add(p.Rate.Mul(p.GSTRate).Div(hundred))
	p.FinalPrice = p.Price.Sub(p.Price.Mul(p.DiscountPct).Div(hundred))
	p.Status = StockStatus(p.Stock)
}

// StockStatus maps a stock count to an availability status.
func StockStatus(stock int64) string {
	switch {
	case stock <= 0:
		return StatusOutOfStock
	case stock <= LowStockThreshold:
		return StatusLowStock
	default:
		return StatusInStock
	}
}
