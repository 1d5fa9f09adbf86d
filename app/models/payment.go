package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment status values.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Payment records an amount already settled elsewhere; there is no
// gateway integration. Creating one triggers the customer ledger
// recompute for its customer.
type Payment struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CustomerID primitive.ObjectID `bson:"customerId" json:"customerId"`
	Amount     decimal.Decimal    `bson:"amount" json:"amount"`
	Method     string             `bson:"method" json:"method" validate:"required,in=cash,card,upi,bank_transfer"`
	Status     string             `bson:"status" json:"status"`
	PaidAt     time.Time          `bson:"paidAt" json:"paidAt"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
