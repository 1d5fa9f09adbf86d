package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/vyapar/pkg/collection"
)

// CartEntry records every invoice that ever included a given product for
// one customer. InvoiceIDs has set semantics: a retried ledger reconcile
// must not duplicate references.
type CartEntry struct {
	ProductID  primitive.ObjectID   `bson:"productId" json:"productId"`
	InvoiceIDs []primitive.ObjectID `bson:"invoiceIds" json:"invoiceIds"`
}

// Customer is a buying customer. TotalPurchasedAmount and
// RemainingAmount are derived aggregates owned by the customer ledger;
// they are recomputed from the invoice and payment history, never
// incremented in place.
type Customer struct {
	ID                   primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name                 string               `bson:"name" json:"name" validate:"required,min=2,max=255"`
	Email                string               `bson:"email" json:"email" validate:"required,email"`
	Phone                string               `bson:"phone,omitempty" json:"phone" validate:"nullable,min=7,max=20"`
	Address              string               `bson:"address,omitempty" json:"address"`
	Cart                 []CartEntry          `bson:"cart" json:"cart"`
	PaymentIDs           []primitive.ObjectID `bson:"paymentIds" json:"paymentIds"`
	TotalPurchasedAmount decimal.Decimal      `bson:"totalPurchasedAmount" json:"totalPurchasedAmount"`
	RemainingAmount      decimal.Decimal      `bson:"remainingAmount" json:"remainingAmount"`
	CreatedAt            time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// AppendInvoiceRef unions invoiceID into the cart entry for productID,
// creating the entry on first purchase of that product. Idempotent.
func (c *Customer) AppendInvoiceRef(productID, invoiceID primitive.ObjectID) {
	for i := range c.Cart {
		if c.Cart[i].ProductID == productID {
			exists := collection.Contains(c.Cart[i].InvoiceIDs, func(id primitive.ObjectID) bool {
				return id == invoiceID
			})
			if !exists {
				c.Cart[i].InvoiceIDs = append(c.Cart[i].InvoiceIDs, invoiceID)
			}
			return
		}
	}

	c.Cart = append(c.Cart, CartEntry{
		ProductID:  productID,
		InvoiceIDs: []primitive.ObjectID{invoiceID},
	})
}
