package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAppendInvoiceRef(t *testing.T) {
	var c Customer
	productA := primitive.NewObjectID()
	productB := primitive.NewObjectID()
	inv1 := primitive.NewObjectID()
	inv2 := primitive.NewObjectID()

	c.AppendInvoiceRef(productA, inv1)
	c.AppendInvoiceRef(productB, inv1)
	c.AppendInvoiceRef(productA, inv2)

	require.Len(t, c.Cart, 2)
	assert.Equal(t, []primitive.ObjectID{inv1, inv2}, c.Cart[0].InvoiceIDs)
	assert.Equal(t, []primitive.ObjectID{inv1}, c.Cart[1].InvoiceIDs)
}

func TestAppendInvoiceRefIsIdempotent(t *testing.T) {
	var c Customer
	product := primitive.NewObjectID()
	inv := primitive.NewObjectID()

	for i := 0; i < 5; i++ {
		c.AppendInvoiceRef(product, inv)
	}

	require.Len(t, c.Cart, 1)
	assert.Len(t, c.Cart[0].InvoiceIDs, 1, "re-appending the same invoice must not duplicate")
}
