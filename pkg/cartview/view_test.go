package cartview

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartflow/pkg/cart"
	"cartflow/pkg/catalog"
	"cartflow/pkg/logger"
)

func readySnapshot() catalog.Snapshot {
	idx := catalog.Build([]catalog.Item{
		{ID: 1, OutletID: "1", OutletName: "Lagos Grill", ItemName: "Pizza", Price: decimal.NewFromInt(10)},
		{ID: 2, OutletID: "2", OutletName: "Capetown Kitchen", ItemName: "Bobotie", Price: decimal.NewFromInt(5)},
	})
	return catalog.Snapshot{Status: catalog.StatusReady, Index: idx}
}

func aggregator() Aggregator {
	return Aggregator{Resolver: catalog.NewResolver(""), Pricing: DefaultPricing(), Log: logger.Nop()}
}

func TestViewReady(t *testing.T) {
	entries := []cart.Entry{
		{Key: "1-Pizza", Quantity: 2},
		{Key: "2", Quantity: 1},
		{Key: "9-Nothing", Quantity: 1},
		{Key: "Garbage", Quantity: 3},
		{Key: "addon-201", Quantity: 1},
	}

	v := aggregator().View(context.Background(), entries, readySnapshot(), "")

	assert.Equal(t, catalog.StatusReady, v.Status)
	require.Len(t, v.Lines, 4)
	assert.Equal(t, []string{"Garbage"}, v.Skipped)
	assert.Equal(t, 8, v.TotalItems)
	assert.Equal(t, 4, v.Outlets)

	unresolved := 0
	for _, l := range v.Lines {
		if !l.Resolved {
			unresolved++
			assert.Equal(t, "9-Nothing", l.Key)
			assert.True(t, l.Price.IsZero())
		}
	}
	assert.Equal(t, 1, unresolved)
	assert.True(t, decimal.NewFromInt(75).Equal(v.Totals.Subtotal), v.Totals.Subtotal.String())

	orderable := v.Orderable()
	require.Len(t, orderable, 2)
	assert.EqualValues(t, 1, orderable[0].MenuItemID)
	assert.EqualValues(t, 2, orderable[1].MenuItemID)
}

func TestViewLoading(t *testing.T) {
	entries := []cart.Entry{{Key: "1-Pizza", Quantity: 2}}

	v := aggregator().View(context.Background(), entries, catalog.Snapshot{}, "SAVE10")

	assert.Equal(t, catalog.StatusLoading, v.Status)
	assert.Empty(t, v.Lines)
	assert.Empty(t, v.Error)
	assert.Equal(t, 2, v.TotalItems)
}

func TestViewFailed(t *testing.T) {
	entries := []cart.Entry{{Key: "1-Pizza", Quantity: 2}}
	snap := catalog.Snapshot{Status: catalog.StatusFailed, Err: errors.New("timeout")}

	v := aggregator().View(context.Background(), entries, snap, "")

	assert.Equal(t, catalog.StatusFailed, v.Status)
	assert.Equal(t, catalog.ErrFetch.Error(), v.Error)
	assert.Empty(t, v.Lines)
}

func TestViewEmptyCatalogFlagsEveryLine(t *testing.T) {
	snap := catalog.Snapshot{Status: catalog.StatusReady, Index: catalog.Build(nil)}
	entries := []cart.Entry{{Key: "1-Pizza", Quantity: 1}, {Key: "2", Quantity: 1}}

	v := aggregator().View(context.Background(), entries, snap, "")

	require.Len(t, v.Lines, 2)
	for _, l := range v.Lines {
		assert.False(t, l.Resolved)
	}
	assert.Empty(t, v.Orderable())
}
