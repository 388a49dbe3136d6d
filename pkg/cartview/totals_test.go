package cartview

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"cartflow/pkg/catalog"
)

func line(price string, qty int) catalog.Line {
	return catalog.Line{Price: decimal.RequireFromString(price), Quantity: qty, Resolved: true, Tier: catalog.TierExact, MenuItemID: 1}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func TestComputeTotalsThresholdInclusive(t *testing.T) {
	lines := []catalog.Line{line("10", 2), line("5", 1)}

	got := ComputeTotals(lines, "", DefaultPricing())

	assertDec(t, "25", got.Subtotal, "subtotal")
	assertDec(t, "0", got.DeliveryFee, "delivery fee")
	assertDec(t, "0", got.PromoDiscount, "discount")
	assertDec(t, "2.00", got.Tax, "tax")
	assertDec(t, "27.00", got.Total, "total")
	assert.Empty(t, got.PromoCode)
}

func TestComputeTotalsBelowThreshold(t *testing.T) {
	got := ComputeTotals([]catalog.Line{line("10", 1)}, "", DefaultPricing())

	assertDec(t, "4.99", got.DeliveryFee, "delivery fee")
	assertDec(t, "0.80", got.Tax, "tax")
	assertDec(t, "15.79", got.Total, "total")
	assertDec(t, "15", got.FreeDeliveryShortfall(DefaultPricing()), "shortfall")
}

func TestComputeTotalsPromos(t *testing.T) {
	lines := []catalog.Line{line("10", 2), line("5", 1)}

	save := ComputeTotals(lines, "save10", DefaultPricing())
	assert.Equal(t, "SAVE10", save.PromoCode)
	assertDec(t, "2.50", save.PromoDiscount, "discount")
	assertDec(t, "1.80", save.Tax, "tax")
	assertDec(t, "24.30", save.Total, "total")

	small := ComputeTotals([]catalog.Line{line("10", 1)}, "FREEDELIV", DefaultPricing())
	assertDec(t, "4.99", small.PromoDiscount, "discount")
	assertDec(t, "0.40", small.Tax, "tax")
	assertDec(t, "10.40", small.Total, "total")

	waived := ComputeTotals(lines, "FREEDELIV", DefaultPricing())
	assertDec(t, "0", waived.PromoDiscount, "discount")

	unknown := ComputeTotals(lines, "FIRST20", DefaultPricing())
	assert.Empty(t, unknown.PromoCode)
	assertDec(t, "0", unknown.PromoDiscount, "discount")
}

func TestComputeTotalsDiscountClampedToSubtotal(t *testing.T) {
	p := DefaultPricing()
	p.DeliveryFee = dec("9")
	p.FreeDeliveryThreshold = dec("100")

	got := ComputeTotals([]catalog.Line{line("2", 1)}, "FREEDELIV", p)

	assertDec(t, "2", got.PromoDiscount, "discount")
	assertDec(t, "0", got.Tax, "tax")
	assertDec(t, "9", got.Total, "total")
}

func TestComputeTotalsUnresolvedLines(t *testing.T) {
	lines := []catalog.Line{line("10", 3), catalog.Unresolved("1-Ghost", 4)}

	got := ComputeTotals(lines, "", DefaultPricing())
	assertDec(t, "30", got.Subtotal, "subtotal")
}

func TestComputeTotalsOnlyUnresolvedLines(t *testing.T) {
	lines := []catalog.Line{catalog.Unresolved("1-Ghost", 2), catalog.Unresolved("9", 1)}

	got := ComputeTotals(lines, "", DefaultPricing())
	assertDec(t, "0", got.DeliveryFee, "delivery fee")
	assertDec(t, "0", got.Total, "total")
	assertDec(t, "0", got.FreeDeliveryShortfall(DefaultPricing()), "shortfall")
}

func TestComputeTotalsEmpty(t *testing.T) {
	got := ComputeTotals(nil, "SAVE10", DefaultPricing())
	assertDec(t, "0", got.Total, "total")
	assertDec(t, "0", got.DeliveryFee, "delivery fee")
}

func TestPromoSelection(t *testing.T) {
	lines := []catalog.Line{line("10", 2), line("5", 1)}
	var sel PromoSelection

	_, err := sel.Apply("SAVE10")
	assert.NoError(t, err)
	once := ComputeTotals(lines, sel.Code(), DefaultPricing())

	_, err = sel.Apply("SAVE10")
	assert.NoError(t, err)
	twice := ComputeTotals(lines, sel.Code(), DefaultPricing())
	assert.True(t, once.PromoDiscount.Equal(twice.PromoDiscount))

	_, err = sel.Apply("BOGUS")
	assert.ErrorIs(t, err, ErrUnknownPromo)
	assert.Equal(t, "SAVE10", sel.Code())

	_, err = sel.Apply(" freedeliv ")
	assert.NoError(t, err)
	assert.Equal(t, "FREEDELIV", sel.Code())

	sel.Remove()
	assert.Empty(t, sel.Code())
}
