package services

import (
	"context"
	"github.com/shopspring/decimal"
	"paybridge/entity"
)

// Pricing calculates basket and line prices.
type Pricing interface {
	GetSettings(ctx context.Context) (*entity.BasketSettings, error)
	GetPrice(ctx context.Context, basket *entity.Basket, settings *entity.BasketSettings, priceType entity.PriceType) (decimal.Decimal, error)
	GetLinePrice(ctx context.Context, basket *entity.Basket, line *entity.Item, settings *entity.BasketSettings, priceType entity.PriceType) (decimal.Decimal, error)
	GetVatFactorByRate(ctx context.Context, basket *entity.Basket, settings *entity.BasketSettings, rate int) (decimal.Decimal, error)
}
