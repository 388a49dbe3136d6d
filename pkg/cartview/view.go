// Package cartview combines the cart ledger with the catalog into priced
// lines and totals.
package cartview

import (
	"context"
	"slices"

	"github.com/shopspring/decimal"

	"cartflow/pkg/cart"
	"cartflow/pkg/catalog"
	"cartflow/pkg/logger"
)

// View is what a cart page renders. Lines and Totals are populated only when
// Status is catalog.StatusReady.
type View struct {
	Status     catalog.Status  `json:"status"`
	Error      string          `json:"error,omitempty"`
	Lines      []catalog.Line  `json:"lines,omitempty"`
	Skipped    []string        `json:"skipped,omitempty"`
	TotalItems int             `json:"total_items"`
	Outlets    int             `json:"outlets"`
	Totals     Totals          `json:"totals"`
	Shortfall  decimal.Decimal `json:"free_delivery_shortfall"`

	// Entries is the ledger the view was built from.
	Entries []cart.Entry `json:"-"`
}

// Orderable returns the lines that reference a catalog record: resolved,
// not a placeholder and not an add-on.
func (v View) Orderable() []catalog.Line {
	var out []catalog.Line
	for _, l := range v.Lines {
		if l.Resolved && !l.IsAddon() && l.MenuItemID != 0 {
			out = append(out, l)
		}
	}
	return out
}

// Aggregator builds views.
type Aggregator struct {
	Resolver catalog.Resolver
	Pricing  Pricing
	Log      *logger.Logger
}

// View decodes and resolves every entry against the catalog snapshot and
// totals the result. Entries with malformed keys are skipped and logged;
// unresolved entries stay as flagged lines.
func (a Aggregator) View(ctx context.Context, entries []cart.Entry, snap catalog.Snapshot, promoCode string) View {
	v := View{
		Status:    snap.Status,
		Totals:    ComputeTotals(nil, "", a.Pricing),
		Shortfall: decimal.Zero,
		Entries:   slices.Clone(entries),
	}
	for _, e := range entries {
		v.TotalItems += e.Quantity
	}

	switch snap.Status {
	case catalog.StatusLoading:
		return v
	case catalog.StatusFailed:
		v.Error = catalog.ErrFetch.Error()
		return v
	}

	outlets := make(map[string]struct{})
	for _, e := range entries {
		id, err := cart.Decode(e.Key)
		if err != nil {
			a.Log.Warn(ctx, "skipping cart entry", "key", e.Key, "error", err)
			v.Skipped = append(v.Skipped, e.Key)
			continue
		}

		line := a.Resolver.Resolve(id, e.Quantity, snap.Index)
		switch line.Tier {
		case catalog.TierFolded, catalog.TierName:
			a.Log.Debug(ctx, "cart entry matched loosely", "key", e.Key, "tier", line.Tier.String(), "item", line.Name)
		case catalog.TierUnresolved:
			a.Log.Warn(ctx, "cart entry not in catalog", "key", e.Key)
		}

		v.Lines = append(v.Lines, line)
		outlets[line.OutletName] = struct{}{}
	}

	v.Outlets = len(outlets)
	v.Totals = ComputeTotals(v.Lines, promoCode, a.Pricing)
	v.Shortfall = v.Totals.FreeDeliveryShortfall(a.Pricing)
	return v
}
