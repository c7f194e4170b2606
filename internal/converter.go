package internal

import (
	"context"
	"fmt"
	"github.com/shopspring/decimal"
	"paybridge/entity"
	"paybridge/services"
)

// LineConverter turns basket lines into provider order lines.
type LineConverter struct {
	pricing services.Pricing
}

func NewLineConverter(pricing services.Pricing) *LineConverter {
	return &LineConverter{pricing: pricing}
}

// ConvertLine derives the monetary figures of one basket line.
func (c *LineConverter) ConvertLine(ctx context.Context, basket *entity.Basket, line *entity.Item, settings *entity.BasketSettings, currency string) (entity.OrderLine, error) {
	name := line.GetDetailValue("title")
	if name == "" {
		name = line.Title
	}
	// lines like shipping costs have no title
	if name == "" {
		name = line.GetDetailValue("type")
	}

	linePrice, err := c.pricing.GetLinePrice(ctx, basket, line, settings, entity.PriceInVat)
	if err != nil {
		return entity.OrderLine{}, fmt.Errorf("line price: %w", err)
	}
	vatOnly, err := c.pricing.GetLinePrice(ctx, basket, line, settings, entity.PriceVatOnly)
	if err != nil {
		return entity.OrderLine{}, fmt.Errorf("line vat: %w", err)
	}
	discount, err := c.pricing.GetLinePrice(ctx, basket, line, settings, entity.PriceDiscountInVat)
	if err != nil {
		return entity.OrderLine{}, fmt.Errorf("line discount: %w", err)
	}

	quantity := parseQuantity(line.GetDetailValue(settings.QuantityPropertyName))

	rate := VatRatePercent(linePrice, vatOnly)
	factor, err := c.pricing.GetVatFactorByRate(ctx, basket, settings, rate)
	if err != nil {
		return entity.OrderLine{}, fmt.Errorf("vat factor for rate %d: %w", rate, err)
	}

	return entity.OrderLine{
		Name:           name,
		Quantity:       quantity,
		UnitPrice:      entity.NewMoney(linePrice.Div(decimal.NewFromInt(int64(quantity))), currency),
		TotalAmount:    entity.NewMoney(linePrice, currency),
		DiscountAmount: entity.NewMoney(discount, currency),
		VatAmount:      entity.NewMoney(vatOnly, currency),
		VatRate:        factor.Mul(hundred).StringFixed(2),
	}, nil
}

// VatRatePercent recovers the whole VAT percentage of a line: round(100 * vat / total),
// halves rounded to even. A zero total has no defined rate and reports 0.
func VatRatePercent(total, vatOnly decimal.Decimal) int {
	if total.IsZero() {
		return 0
	}
	rate := hundred.Mul(vatOnly).Div(total).RoundBank(0).IntPart()
	if rate < 0 {
		return 0
	}
	return int(rate)
}
