package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnsureDates(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	var inv Invoice
	inv.EnsureDates(now)
	assert.Equal(t, now, inv.InvoiceDate)
	assert.Equal(t, now.Add(DefaultDueAfter), inv.DueDate)

	// Explicit dates survive.
	explicit := Invoice{
		InvoiceDate: now.AddDate(0, 0, -3),
		DueDate:     now.AddDate(0, 1, 0),
	}
	explicit.EnsureDates(now)
	assert.Equal(t, now.AddDate(0, 0, -3), explicit.InvoiceDate)
	assert.Equal(t, now.AddDate(0, 1, 0), explicit.DueDate)

	// Due date defaults relative to the given invoice date, not now.
	backdated := Invoice{InvoiceDate: now.AddDate(0, 0, -10)}
	backdated.EnsureDates(now)
	assert.Equal(t, backdated.InvoiceDate.Add(DefaultDueAfter), backdated.DueDate)
}
