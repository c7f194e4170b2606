package services

import (
	"context"
	"paybridge/entity"
)

// ProviderCall carries the per-request identity of a provider call.
type ProviderCall struct {
	ApiKey        string
	InvoiceNumber string
}

// OrderGateway talks to the provider's order API.
type OrderGateway interface {
	CreateOrder(ctx context.Context, call ProviderCall, request *entity.OrderRequest) (*entity.OrderSnapshot, error)
	FetchOrder(ctx context.Context, call ProviderCall, orderId string) (*entity.OrderSnapshot, error)
}
