package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartflow/pkg/cart"
)

func sampleItems() []Item {
	return []Item{
		{ID: 11, OutletID: "5", OutletName: "Lagos Grill", ItemName: "Jollof Rice", Price: decimal.RequireFromString("12.50"), ImagePath: "/jollof.jpg", Category: "Mains"},
		{ID: 12, OutletID: "5", OutletName: "Lagos Grill", ItemName: "Suya-Skewers", Price: decimal.NewFromInt(9)},
		{ID: 21, OutletID: "7", OutletName: "Capetown Kitchen", ItemName: "Bobotie", Price: decimal.NewFromInt(15), ImagePath: "bobotie.png"},
	}
}

func resolve(t *testing.T, key string, idx *Index) Line {
	t.Helper()
	id, err := cart.Decode(key)
	require.NoError(t, err)
	return NewResolver("http://localhost:5555").Resolve(id, 2, idx)
}

func TestResolveTiers(t *testing.T) {
	idx := Build(sampleItems())

	tests := []struct {
		key  string
		tier Tier
		name string
	}{
		{"11", TierID, "Jollof Rice"},
		{"addon-202", TierAddon, "Extra Rice"},
		{"5-Jollof Rice", TierExact, "Jollof Rice"},
		{"5-jollof rice", TierFolded, "Jollof Rice"},
		{"5- JOLLOF RICE ", TierFolded, "Jollof Rice"},
		{"5-Suya-Skewers", TierExact, "Suya-Skewers"},
		{"9-bobotie", TierName, "Bobotie"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			line := resolve(t, tt.key, idx)
			assert.True(t, line.Resolved)
			assert.Equal(t, tt.tier, line.Tier)
			assert.Equal(t, tt.name, line.Name)
			assert.Equal(t, tt.key, line.Key)
			assert.Equal(t, 2, line.Quantity)
		})
	}
}

func TestResolveFallbackKeepsPrice(t *testing.T) {
	idx := Build(sampleItems())

	exact := resolve(t, "5-Jollof Rice", idx)
	loose := resolve(t, "5-jollof rice", idx)

	assert.Equal(t, TierExact, exact.Tier)
	assert.Contains(t, []Tier{TierFolded, TierName}, loose.Tier)
	assert.True(t, exact.Price.Equal(loose.Price))
	assert.Equal(t, exact.MenuItemID, loose.MenuItemID)
}

func TestResolveUnresolved(t *testing.T) {
	idx := Build(sampleItems())

	for _, key := range []string{"999", "addon-999", "5-Pounded Yam"} {
		line := resolve(t, key, idx)
		assert.False(t, line.Resolved, key)
		assert.Equal(t, TierUnresolved, line.Tier)
		assert.Equal(t, UnknownName, line.Name)
		assert.True(t, line.Price.IsZero())
		assert.Equal(t, PlaceholderImage, line.Image)
		assert.Equal(t, 2, line.Quantity)
		assert.True(t, line.LineTotal().IsZero())
	}
}

func TestResolveNilIndex(t *testing.T) {
	line := resolve(t, "5-Jollof Rice", nil)
	assert.False(t, line.Resolved)

	addon := resolve(t, "addon-201", nil)
	assert.True(t, addon.Resolved)
	assert.True(t, addon.IsAddon())
}

func TestResolveImageURL(t *testing.T) {
	idx := Build(sampleItems())

	assert.Equal(t, "http://localhost:5555/uploads/jollof.jpg", resolve(t, "11", idx).Image)
	assert.Equal(t, "http://localhost:5555/uploads/bobotie.png", resolve(t, "21", idx).Image)
	assert.Equal(t, PlaceholderImage, resolve(t, "12", idx).Image)
	assert.Equal(t, DefaultCategory, resolve(t, "12", idx).Category)
}

func TestBuildLastWriteWins(t *testing.T) {
	idx := Build([]Item{
		{ID: 1, OutletID: "1", ItemName: "Tea", Price: decimal.NewFromInt(1)},
		{ID: 2, OutletID: "2", ItemName: "tea", Price: decimal.NewFromInt(2)},
		{ID: 3, OutletID: "1", ItemName: "Tea", Price: decimal.NewFromInt(3)},
	})

	it, ok := idx.Exact("1", "Tea")
	require.True(t, ok)
	assert.EqualValues(t, 3, it.ID)

	it, ok = idx.ByName("TEA")
	require.True(t, ok)
	assert.EqualValues(t, 3, it.ID)

	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, 2, idx.Outlets())
}

func TestLineTotal(t *testing.T) {
	l := Line{Quantity: 3, Price: decimal.RequireFromString("4.20"), Resolved: true}
	assert.Equal(t, "12.6", l.LineTotal().String())
}
