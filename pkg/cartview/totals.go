package cartview

import (
	"github.com/shopspring/decimal"

	"cartflow/pkg/catalog"
)

// Pricing holds the fee and tax configuration.
type Pricing struct {
	DeliveryFee           decimal.Decimal
	FreeDeliveryThreshold decimal.Decimal
	TaxRate               decimal.Decimal
}

// DefaultPricing returns a 4.99 delivery fee waived from a subtotal of 25
// and an 8% tax rate.
func DefaultPricing() Pricing {
	return Pricing{
		DeliveryFee:           decimal.RequireFromString("4.99"),
		FreeDeliveryThreshold: decimal.NewFromInt(25),
		TaxRate:               decimal.RequireFromString("0.08"),
	}
}

// Totals are the amounts shown for a cart.
type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	DeliveryFee   decimal.Decimal `json:"delivery_fee"`
	PromoCode     string          `json:"promo_code,omitempty"`
	PromoDiscount decimal.Decimal `json:"promo_discount"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
}

const cents = 2

// ComputeTotals folds lines into totals. Unresolved lines contribute nothing.
// Unknown promo codes are ignored. A cart without lines, or whose lines are
// all unresolved, totals zero.
func ComputeTotals(lines []catalog.Line, promoCode string, p Pricing) Totals {
	t := Totals{
		Subtotal:      decimal.Zero,
		DeliveryFee:   decimal.Zero,
		PromoDiscount: decimal.Zero,
		Tax:           decimal.Zero,
		Total:         decimal.Zero,
	}
	if len(lines) == 0 {
		return t
	}

	for _, l := range lines {
		t.Subtotal = t.Subtotal.Add(l.LineTotal())
	}

	if t.Subtotal.IsPositive() && t.Subtotal.LessThan(p.FreeDeliveryThreshold) {
		t.DeliveryFee = p.DeliveryFee
	}

	if promo, ok := LookupPromo(promoCode); ok {
		t.PromoCode = promo.Code
		switch promo.Kind {
		case PercentOff:
			t.PromoDiscount = t.Subtotal.Mul(promo.Percent).Div(decimal.NewFromInt(100)).Round(cents)
		case FeeWaiver:
			t.PromoDiscount = t.DeliveryFee
		}
	}
	if t.PromoDiscount.GreaterThan(t.Subtotal) {
		t.PromoDiscount = t.Subtotal
	}

	t.Tax = t.Subtotal.Sub(t.PromoDiscount).Mul(p.TaxRate).Round(cents)
	if t.Tax.IsNegative() {
		t.Tax = decimal.Zero
	}

	t.Total = t.Subtotal.Sub(t.PromoDiscount).Add(t.DeliveryFee).Add(t.Tax)
	return t
}

// FreeDeliveryShortfall is how much more subtotal waives the delivery fee,
// zero once it is waived.
func (t Totals) FreeDeliveryShortfall(p Pricing) decimal.Decimal {
	if t.DeliveryFee.IsZero() {
		return decimal.Zero
	}
	return p.FreeDeliveryThreshold.Sub(t.Subtotal)
}
