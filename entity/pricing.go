package entity

import "github.com/shopspring/decimal"

// PriceType selects which figure a pricing call returns.
type PriceType int

const (
	PriceInVat PriceType = iota
	PriceExVat
	PriceVatOnly
	PriceDiscountInVat
	PricePspPriceInVat
)

// BasketSettings holds the pricing configuration of shopping baskets.
type BasketSettings struct {
	QuantityPropertyName string
	PricesIncludeVat     bool
	DefaultVatRate       int
	// VatFactors maps a whole VAT percentage to its authoritative factor, e.g. 21 -> 0.21.
	VatFactors map[int]decimal.Decimal
}
