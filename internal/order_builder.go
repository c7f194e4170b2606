package internal

import (
	"context"
	"fmt"
	"github.com/shopspring/decimal"
	"net/url"
	"paybridge/entity"
	"paybridge/services"
	"strings"
)

// InvoiceNumberParameter is the query parameter carrying the invoice number on redirect and webhook urls.
const InvoiceNumberParameter = "invoice_number"

const issuerPrefix = "ideal_"

// idealIssuers maps issuer keys, by bank name and by prefixed BIC, to provider issuer codes.
var idealIssuers = map[string]string{
	"abnamro":        "ideal_ABNANL2A",
	"asnbank":        "ideal_ASNBNL21",
	"bunq":           "ideal_BUNQNL2A",
	"handelsbanken":  "ideal_HANDNL2A",
	"ing":            "ideal_INGBNL2A",
	"knab":           "ideal_KNABNL2H",
	"n26":            "ideal_NTSBDEB1",
	"nn":             "ideal_NNBANL2G",
	"rabobank":       "ideal_RABONL2U",
	"regiobank":      "ideal_RBRBNL21",
	"revolut":        "ideal_REVOLT21",
	"snsbank":        "ideal_SNSBNL2A",
	"triodosbank":    "ideal_TRIONL2U",
	"vanlanschot":    "ideal_FVLBNL22",
	"yoursafe":       "ideal_BITSNL2A",
	"ideal_abnanl2a": "ideal_ABNANL2A",
	"ideal_asnbnl21": "ideal_ASNBNL21",
	"ideal_bunqnl2a": "ideal_BUNQNL2A",
	"ideal_handnl2a": "ideal_HANDNL2A",
	"ideal_ingbnl2a": "ideal_INGBNL2A",
	"ideal_knabnl2h": "ideal_KNABNL2H",
	"ideal_ntsbdeb1": "ideal_NTSBDEB1",
	"ideal_nnbanl2g": "ideal_NNBANL2G",
	"ideal_rabonl2u": "ideal_RABONL2U",
	"ideal_rbrbnl21": "ideal_RBRBNL21",
	"ideal_revolt21": "ideal_REVOLT21",
	"ideal_snsbnl2a": "ideal_SNSBNL2A",
	"ideal_trionl2u": "ideal_TRIONL2U",
	"ideal_fvlbnl22": "ideal_FVLBNL22",
	"ideal_bitsnl2a": "ideal_BITSNL2A",
}

// IssuerCode resolves a stored issuer value: exact key first, then the prefixed key.
func IssuerCode(value string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(value))
	if key == "" {
		return "", false
	}
	if code, ok := idealIssuers[key]; ok {
		return code, true
	}
	code, ok := idealIssuers[issuerPrefix+key]
	return code, ok
}

// OrderBuilder assembles provider order requests from baskets.
type OrderBuilder struct {
	pricing   services.Pricing
	converter *LineConverter
}

func NewOrderBuilder(pricing services.Pricing) *OrderBuilder {
	return &OrderBuilder{
		pricing:   pricing,
		converter: NewLineConverter(pricing),
	}
}

func (b *OrderBuilder) BuildOrderRequest(ctx context.Context, checkout *services.Checkout, settings *entity.MollieSettings) (*entity.OrderRequest, error) {
	basketSettings, err := b.pricing.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("basket settings: %w", err)
	}

	total := decimal.Zero
	for _, basket := range checkout.Baskets {
		price, err := b.pricing.GetPrice(ctx, basket, basketSettings, entity.PricePspPriceInVat)
		if err != nil {
			return nil, fmt.Errorf("basket price: %w", err)
		}
		total = total.Add(price)
	}

	lines := make([]entity.OrderLine, 0)
	for _, basket := range checkout.Baskets {
		for i := range basket.Lines {
			line, err := b.converter.ConvertLine(ctx, basket, &basket.Lines[i], basketSettings, settings.Currency)
			if err != nil {
				return nil, err
			}
			lines = append(lines, line)
		}
	}

	billing, err := ResolveBillingAddress(checkout.UserDetails)
	if err != nil {
		return nil, err
	}

	redirectUrl, err := withInvoiceNumber(settings.ReturnUrl, checkout.InvoiceNumber)
	if err != nil {
		return nil, fmt.Errorf("redirect url: %w", err)
	}
	webhookUrl, err := withInvoiceNumber(settings.WebhookUrl, checkout.InvoiceNumber)
	if err != nil {
		return nil, fmt.Errorf("webhook url: %w", err)
	}

	request := &entity.OrderRequest{
		Amount:         entity.NewMoney(total, settings.Currency),
		OrderNumber:    checkout.InvoiceNumber,
		RedirectUrl:    redirectUrl,
		WebhookUrl:     webhookUrl,
		Locale:         settings.Locale,
		Method:         checkout.PaymentMethod.ExternalName,
		Lines:          lines,
		BillingAddress: billing,
		Metadata:       checkout.InvoiceNumber,
	}

	if shipping := ResolveAddress(checkout.UserDetails, ShippingPrefix); !shipping.IsEmpty() {
		request.ShippingAddress = &shipping
	}

	if strings.EqualFold(checkout.PaymentMethod.ExternalName, "ideal") && len(checkout.Baskets) > 0 {
		if code, ok := IssuerCode(checkout.Baskets[0].Main.GetDetailValue(entity.PaymentMethodIssuer)); ok {
			request.Payment = &entity.PaymentParameters{Issuer: code}
		}
	}

	return request, nil
}

// withInvoiceNumber adds the invoice number to the query of rawUrl, keeping existing parameters.
func withInvoiceNumber(rawUrl, invoiceNumber string) (string, error) {
	if rawUrl == "" {
		return "", nil
	}
	u, err := url.Parse(rawUrl)
	if err != nil {
		return "", err
	}
	query := u.Query()
	query.Set(InvoiceNumberParameter, invoiceNumber)
	u.RawQuery = query.Encode()
	return u.String(), nil
}
