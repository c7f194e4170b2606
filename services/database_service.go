package services

import (
	"context"
	"paybridge/entity"
)

// Database is the basket store, settings lookup and audit log sink.
type Database interface {
	WriteLogMessage(ctx context.Context, data Data) error

	GetOrdersByInvoiceNumber(ctx context.Context, invoiceNumber string) ([]*entity.Basket, error)
	SaveBasket(ctx context.Context, basket *entity.Basket) error
	GetUserDetails(ctx context.Context, userId string) (*entity.Item, error)

	GetProviderSettingsRecord(ctx context.Context, id string) (*entity.ProviderSettingsRecord, error)
	FindSystemObjectByDomainName(ctx context.Context, key string) (string, error)
}

type Data interface {
	DataType() string
}
