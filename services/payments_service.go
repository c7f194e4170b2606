package services

import (
	"context"
	"net/url"
	"paybridge/entity"
)

// Checkout is everything needed to start one payment attempt.
type Checkout struct {
	Baskets        []*entity.Basket
	UserDetails    *entity.Item
	PaymentMethod  *entity.PaymentMethodSettings
	InvoiceNumber  string
	AcceptLanguage string
}

// Payments is the provider facing surface of the service.
type Payments interface {
	LoadCheckout(ctx context.Context, invoiceNumber, externalName, acceptLanguage string) (*Checkout, error)
	HandlePaymentRequest(ctx context.Context, checkout *Checkout) *entity.PaymentRequestResult
	ProcessStatusUpdate(ctx context.Context, method *entity.PaymentMethodSettings, form url.Values) *entity.StatusUpdateResult
	HandlePaymentReturn(ctx context.Context, method *entity.PaymentMethodSettings, values url.Values) *entity.PaymentReturnResult
	GetInvoiceNumberFromRequest(values url.Values) (string, error)
	GetPaymentMethodSettings(ctx context.Context, externalName string) (*entity.PaymentMethodSettings, error)
}
