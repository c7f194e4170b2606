package internal

import (
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"paybridge/entity"
	"testing"
)

func TestAppendStatus(t *testing.T) {
	database := newFakeDatabase()
	audit := NewAuditTrail(database)
	basket := newBasket("b1", "INV-1")

	require.NoError(t, audit.AppendStatus(context.Background(), basket, "ord_1", "created"))
	require.NoError(t, audit.AppendStatus(context.Background(), basket, "ord_1", "paid"))
	require.NoError(t, audit.AppendStatus(context.Background(), basket, "ord_1", "paid"))

	assert.Equal(t, "ord_1", basket.Main.GetDetailValue(entity.TransactionIdProperty))
	assert.Equal(t, "paid", basket.Main.GetDetailValue(entity.TransactionStatusProperty))
	assert.Equal(t, "created, paid, paid", basket.Main.GetDetailValue(entity.PaymentHistoryProperty))
	assert.Equal(t, 3, database.saved)
}

func TestAppendStatusReplacesKeyCase(t *testing.T) {
	basket := newBasket("b1", "INV-1")
	basket.Main.Details["PSP_History"] = "open"

	require.NoError(t, NewAuditTrail(newFakeDatabase()).AppendStatus(context.Background(), basket, "ord_1", "paid"))

	assert.Equal(t, "open, paid", basket.Main.Details[entity.PaymentHistoryProperty])
	_, ok := basket.Main.Details["PSP_History"]
	assert.False(t, ok)
}

func TestAppendStatusStoreErrors(t *testing.T) {
	basket := newBasket("b1", "INV-1")
	assert.Error(t, NewAuditTrail(nil).AppendStatus(context.Background(), basket, "ord_1", "paid"))

	database := newFakeDatabase()
	database.saveErr = errors.New("connection refused")
	err := NewAuditTrail(database).AppendStatus(context.Background(), basket, "ord_1", "paid")
	require.Error(t, err)
	assert.ErrorIs(t, err, database.saveErr)
	assert.Contains(t, err.Error(), "save basket b1")
}
