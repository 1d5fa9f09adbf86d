package billing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/vyapar/app/models"
)

func TestReconcileIsIdempotent(t *testing.T) {
	db := newMemDB()
	svc := newTestService(db)

	productID := seedProduct(db, "Notebook", "120", "12", 100)
	buyerID := seedCustomer(db, "asha")

	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		BuyerID: buyerID,
		Items:   []LineInput{{ProductID: &productID, Quantity: 2}},
	})
	require.NoError(t, err)

	before := db.customers[buyerID]

	// Re-running the reconcile with the same invoice must change nothing:
	// same balances, no duplicate cart references.
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.ReconcileCustomer(context.Background(), buyerID, inv))
	}

	after := db.customers[buyerID]
	assert.True(t, after.TotalPurchasedAmount.Equal(before.TotalPurchasedAmount))
	assert.True(t, after.RemainingAmount.Equal(before.RemainingAmount))
	require.Len(t, after.Cart, 1)
	assert.Len(t, after.Cart[0].InvoiceIDs, 1, "invoice refs have set semantics")
}

func TestRepeatPurchaseUnionsCart(t *testing.T) {
	db := newMemDB()
	svc := newTestService(db)

	productID := seedProduct(db, "Ribbon", "89.99", "12", 500)
	buyerID := seedCustomer(db, "ravi")

	first, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		BuyerID: buyerID,
		Items:   []LineInput{{ProductID: &productID, Quantity: 1}},
	})
	require.NoError(t, err)

	second, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		BuyerID: buyerID,
		Items:   []LineInput{{ProductID: &productID, Quantity: 2}},
	})
	require.NoError(t, err)

	cust := db.customers[buyerID]
	require.Len(t, cust.Cart, 1, "one entry per product")
	assert.ElementsMatch(t,
		[]string{first.ID.Hex(), second.ID.Hex()},
		[]string{cust.Cart[0].InvoiceIDs[0].Hex(), cust.Cart[0].InvoiceIDs[1].Hex()},
	)
}

func TestRecordPaymentReducesRemaining(t *testing.T) {
	db := newMemDB()
	svc := newTestService(db)

	productID := seedProduct(db, "Printer", "1000", "18", 10)
	buyerID := seedCustomer(db, "meena")

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		BuyerID: buyerID,
		Items:   []LineInput{{ProductID: &productID, Quantity: 1}},
	})
	require.NoError(t, err) // total 1180

	pay, err := svc.RecordPayment(context.Background(), &models.Payment{
		CustomerID: buyerID,
		Amount:     dec("500"),
		Method:     "upi",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, pay.Status)
	assert.Equal(t, testNow, pay.PaidAt)

	cust := db.customers[buyerID]
	assert.True(t, cust.TotalPurchasedAmount.Equal(dec("1180")), "got %s", cust.TotalPurchasedAmount)
	assert.True(t, cust.RemainingAmount.Equal(dec("680")), "got %s", cust.RemainingAmount)
	assert.Contains(t, cust.PaymentIDs, pay.ID)
}

func TestPendingPaymentsDoNotReduceRemaining(t *testing.T) {
	db := newMemDB()
	svc := newTestService(db)

	productID := seedProduct(db, "Printer", "1000", "18", 10)
	buyerID := seedCustomer(db, "sunil")

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		BuyerID: buyerID,
		Items:   []LineInput{{ProductID: &productID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), &models.Payment{
		CustomerID: buyerID,
		Amount:     dec("400"),
		Method:     "card",
		Status:     models.PaymentPending,
	})
	require.NoError(t, err)

	cust := db.customers[buyerID]
	assert.True(t, cust.RemainingAmount.Equal(dec("1180")),
		"pending payment must not count, got %s", cust.RemainingAmount)
}

func TestOverpaymentClampsRemainingAtZero(t *testing.T) {
	db := newMemDB()
	svc := newTestService(db)

	productID := seedProduct(db, "Notebook", "120", "12", 100)
	buyerID := seedCustomer(db, "lata")

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		BuyerID: buyerID,
		Items:   []LineInput{{ProductID: &productID, Quantity: 1}},
	})
	require.NoError(t, err) // total 134.40

	_, err = svc.RecordPayment(context.Background(), &models.Payment{
		CustomerID: buyerID,
		Amount:     dec("200"),
		Method:     "cash",
	})
	require.NoError(t, err)

	cust := db.customers[buyerID]
	assert.True(t, cust.RemainingAmount.IsZero(), "got %s", cust.RemainingAmount)
}

func TestRecordPaymentRejectsNegativeAmount(t *testing.T) {
	db := newMemDB()
	svc := newTestService(db)
	buyerID := seedCustomer(db, "noor")

	_, err := svc.RecordPayment(context.Background(), &models.Payment{
		CustomerID: buyerID,
		Amount:     dec("-1"),
		Method:     "cash",
	})
	require.Error(t, err)
	assert.Empty(t, db.payments)
}

func TestRecordPaymentUnknownCustomer(t *testing.T) {
	db := newMemDB()
	svc := newTestService(db)

	_, err := svc.RecordPayment(context.Background(), &models.Payment{
		CustomerID: seedProduct(db, "not a customer", "1", "0", 1),
		Amount:     dec("10"),
		Method:     "cash",
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, db.payments)
}
