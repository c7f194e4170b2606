package internal

import (
	"context"
	"fmt"
	"github.com/shopspring/decimal"
	"paybridge/config"
	"paybridge/entity"
	"strconv"
	"strings"
)

// Line detail keys read by the pricing engine.
const (
	linePriceProperty    = "price"
	lineVatRateProperty  = "vatrate"
	lineDiscountProperty = "discount"
)

var hundred = decimal.NewFromInt(100)

// Pricing calculates basket prices from line details.
type Pricing struct {
	settings entity.BasketSettings
}

func NewPricing(conf *config.Config) (*Pricing, error) {
	settings := entity.BasketSettings{
		QuantityPropertyName: conf.Basket.QuantityProperty,
		PricesIncludeVat:     conf.Basket.PricesIncludeVat,
		DefaultVatRate:       conf.Basket.DefaultVatRate,
		VatFactors:           make(map[int]decimal.Decimal, len(conf.Basket.VatFactors)),
	}
	for rate, factor := range conf.Basket.VatFactors {
		r, err := strconv.Atoi(strings.TrimSpace(rate))
		if err != nil {
			return nil, fmt.Errorf("vat rate %q: %w", rate, err)
		}
		f, err := decimal.NewFromString(strings.TrimSpace(factor))
		if err != nil {
			return nil, fmt.Errorf("vat factor for rate %d: %w", r, err)
		}
		settings.VatFactors[r] = f
	}
	return &Pricing{settings: settings}, nil
}

func (p *Pricing) GetSettings(_ context.Context) (*entity.BasketSettings, error) {
	settings := p.settings
	return &settings, nil
}

// GetPrice sums the line prices of the basket.
func (p *Pricing) GetPrice(ctx context.Context, basket *entity.Basket, settings *entity.BasketSettings, priceType entity.PriceType) (decimal.Decimal, error) {
	total := decimal.Zero
	for i := range basket.Lines {
		price, err := p.GetLinePrice(ctx, basket, &basket.Lines[i], settings, priceType)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(price)
	}
	return total, nil
}

// GetLinePrice returns one figure of a line, discount already subtracted from the totals.
func (p *Pricing) GetLinePrice(ctx context.Context, basket *entity.Basket, line *entity.Item, settings *entity.BasketSettings, priceType entity.PriceType) (decimal.Decimal, error) {
	price, err := decimalDetail(line, linePriceProperty)
	if err != nil {
		return decimal.Zero, err
	}
	discount, err := decimalDetail(line, lineDiscountProperty)
	if err != nil {
		return decimal.Zero, err
	}

	rate := settings.DefaultVatRate
	if value := strings.TrimSpace(line.GetDetailValue(lineVatRateProperty)); value != "" {
		rate, err = strconv.Atoi(value)
		if err != nil {
			return decimal.Zero, fmt.Errorf("line %s: vat rate %q: %w", line.Id, value, err)
		}
	}
	factor, err := p.GetVatFactorByRate(ctx, basket, settings, rate)
	if err != nil {
		return decimal.Zero, err
	}

	quantity := decimal.NewFromInt(int64(parseQuantity(line.GetDetailValue(settings.QuantityPropertyName))))
	gross := price.Mul(quantity)
	discount = discount.Mul(quantity)

	multiplier := decimal.NewFromInt(1).Add(factor)
	var inVat, exVat, discountInVat decimal.Decimal
	if settings.PricesIncludeVat {
		inVat = gross.Sub(discount)
		exVat = inVat.Div(multiplier)
		discountInVat = discount
	} else {
		exVat = gross.Sub(discount)
		inVat = exVat.Mul(multiplier)
		discountInVat = discount.Mul(multiplier)
	}
	inVat = inVat.Round(2)
	exVat = exVat.Round(2)

	switch priceType {
	case entity.PriceInVat, entity.PricePspPriceInVat:
		return inVat, nil
	case entity.PriceExVat:
		return exVat, nil
	case entity.PriceVatOnly:
		return inVat.Sub(exVat), nil
	case entity.PriceDiscountInVat:
		return discountInVat.Round(2), nil
	}
	return decimal.Zero, fmt.Errorf("unknown price type %d", priceType)
}

// GetVatFactorByRate returns the configured factor for a whole percentage, or rate/100.
func (p *Pricing) GetVatFactorByRate(_ context.Context, _ *entity.Basket, settings *entity.BasketSettings, rate int) (decimal.Decimal, error) {
	if rate < 0 {
		return decimal.Zero, fmt.Errorf("negative vat rate %d", rate)
	}
	if factor, ok := settings.VatFactors[rate]; ok {
		return factor, nil
	}
	return decimal.NewFromInt(int64(rate)).Div(hundred), nil
}

func decimalDetail(item *entity.Item, key string) (decimal.Decimal, error) {
	value := strings.TrimSpace(item.GetDetailValue(key))
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(value, ",", "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("line %s: %s %q: %w", item.Id, key, value, err)
	}
	return d, nil
}

// parseQuantity reads a line quantity; lines without a usable quantity count as one.
func parseQuantity(value string) int {
	quantity, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || quantity < 1 {
		return 1
	}
	return quantity
}
