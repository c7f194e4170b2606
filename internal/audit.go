package internal

import (
	"context"
	"fmt"
	"paybridge/entity"
	"paybridge/services"
)

const historySeparator = ", "

// AuditTrail appends provider status changes to basket records.
type AuditTrail struct {
	database services.Database
}

func NewAuditTrail(database services.Database) *AuditTrail {
	return &AuditTrail{database: database}
}

// AppendStatus records status as the current provider state of the basket and appends it to the history.
// Repeated statuses are appended again; the history is a log.
func (a *AuditTrail) AppendStatus(ctx context.Context, basket *entity.Basket, providerOrderId, status string) error {
	history := basket.Main.GetDetailValue(entity.PaymentHistoryProperty)
	if history != "" {
		history += historySeparator
	}
	history += status

	basket.Main.SetDetail(entity.TransactionIdProperty, providerOrderId)
	basket.Main.SetDetail(entity.TransactionStatusProperty, status)
	basket.Main.SetDetail(entity.PaymentHistoryProperty, history)

	if a.database == nil {
		return fmt.Errorf("database not set")
	}
	if err := a.database.SaveBasket(ctx, basket); err != nil {
		return fmt.Errorf("save basket %s: %w", basket.Main.Id, err)
	}
	return nil
}
