package entity

import (
	"encoding/json"
	"github.com/shopspring/decimal"
)

// Money is an amount in a currency. Value always carries exactly two decimals.
type Money struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

// NewMoney formats amount with two decimals and a '.' separator.
func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{
		Currency: currency,
		Value:    amount.StringFixed(2),
	}
}

// OrderLine is one line of an order sent to the provider.
type OrderLine struct {
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPrice      Money  `json:"unitPrice"`
	TotalAmount    Money  `json:"totalAmount"`
	DiscountAmount Money  `json:"discountAmount"`
	VatAmount      Money  `json:"vatAmount"`
	// VatRate is the canonical percentage, e.g. "21.00"
	VatRate string `json:"vatRate"`
}

// Address is a billing or shipping address. It is either complete or empty.
type Address struct {
	StreetAndNumber  string `json:"streetAndNumber,omitempty"`
	PostalCode       string `json:"postalCode,omitempty"`
	City             string `json:"city,omitempty"`
	Country          string `json:"country,omitempty"`
	OrganizationName string `json:"organizationName,omitempty"`
	GivenName        string `json:"givenName,omitempty"`
	FamilyName       string `json:"familyName,omitempty"`
	Email            string `json:"email,omitempty"`
	Phone            string `json:"phone,omitempty"`
}

// IsEmpty reports whether the address carries no location.
func (a Address) IsEmpty() bool {
	return a.StreetAndNumber == "" && a.PostalCode == "" && a.City == "" && a.Country == ""
}

// PaymentParameters are method specific parameters of an order.
type PaymentParameters struct {
	Issuer string `json:"issuer,omitempty"`
}

// OrderRequest is the payload of an order creation call.
type OrderRequest struct {
	Amount          Money              `json:"amount"`
	OrderNumber     string             `json:"orderNumber"`
	RedirectUrl     string             `json:"redirectUrl"`
	WebhookUrl      string             `json:"webhookUrl,omitempty"`
	Locale          string             `json:"locale"`
	Method          string             `json:"method,omitempty"`
	Lines           []OrderLine        `json:"lines"`
	BillingAddress  Address            `json:"billingAddress"`
	ShippingAddress *Address           `json:"shippingAddress,omitempty"`
	Metadata        string             `json:"metadata"`
	Payment         *PaymentParameters `json:"payment,omitempty"`
}

type Link struct {
	Href string `json:"href"`
	Type string `json:"type,omitempty"`
}

type OrderLinks struct {
	Self     *Link `json:"self,omitempty"`
	Checkout *Link `json:"checkout,omitempty"`
}

// OrderSnapshot is the provider's view of an order.
type OrderSnapshot struct {
	Id          string          `json:"id"`
	OrderNumber string          `json:"orderNumber"`
	Status      string          `json:"status"`
	Method      string          `json:"method,omitempty"`
	Amount      *Money          `json:"amount,omitempty"`
	RawMetadata json.RawMessage `json:"metadata,omitempty"`
	Links       OrderLinks      `json:"_links"`
}

// Metadata returns the metadata as a string. Non-string metadata is returned as raw JSON.
func (o *OrderSnapshot) Metadata() string {
	if len(o.RawMetadata) == 0 || string(o.RawMetadata) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(o.RawMetadata, &s); err == nil {
		return s
	}
	return string(o.RawMetadata)
}

// CheckoutUrl returns the hosted checkout link, if any.
func (o *OrderSnapshot) CheckoutUrl() string {
	if o.Links.Checkout == nil {
		return ""
	}
	return o.Links.Checkout.Href
}
