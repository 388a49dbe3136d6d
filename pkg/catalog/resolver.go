package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"cartflow/pkg/cart"
)

// Placeholder values for lines that match nothing.
const (
	UnknownName      = "Unknown Item"
	UnknownOutlet    = "Unknown Outlet"
	UnknownCategory  = "Unknown"
	PlaceholderImage = "/placeholder.svg"
	AddonCategory    = "Add-on"
	DefaultCategory  = "Food Item"
)

// Tier records which lookup strategy matched a line.
type Tier int

const (
	TierUnresolved Tier = iota
	TierID
	TierAddon
	TierExact
	TierFolded
	TierName
)

func (t Tier) String() string {
	switch t {
	case TierID:
		return "id"
	case TierAddon:
		return "addon"
	case TierExact:
		return "exact"
	case TierFolded:
		return "folded"
	case TierName:
		return "name"
	default:
		return "unresolved"
	}
}

// MarshalText renders the tier name in JSON.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses a tier name. Unknown names decode as TierUnresolved.
func (t *Tier) UnmarshalText(b []byte) error {
	*t = TierUnresolved
	for c := TierID; c <= TierName; c++ {
		if c.String() == string(b) {
			*t = c
		}
	}
	return nil
}

// Line is a cart entry matched (or not) against the catalog.
type Line struct {
	Key        string          `json:"key"`
	Quantity   int             `json:"quantity"`
	Name       string          `json:"name"`
	OutletID   string          `json:"outlet_id,omitempty"`
	OutletName string          `json:"outlet_name"`
	Price      decimal.Decimal `json:"price"`
	Image      string          `json:"image"`
	Category   string          `json:"category"`
	MenuItemID int64           `json:"menu_item_id,omitempty"`
	Resolved   bool            `json:"resolved"`
	Tier       Tier            `json:"tier"`
}

// LineTotal is price times quantity; unresolved lines count as zero.
func (l Line) LineTotal() decimal.Decimal {
	if !l.Resolved {
		return decimal.Zero
	}
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// IsAddon reports whether the line came from the add-on table.
func (l Line) IsAddon() bool {
	return l.Tier == TierAddon
}

// Addon is an extra purchasable item outside the backend catalog.
type Addon struct {
	ID     int64
	Name   string
	Price  decimal.Decimal
	Outlet string
}

// DefaultAddons is the fixed add-on table offered on the cart page.
func DefaultAddons() map[int64]Addon {
	return map[int64]Addon{
		201: {ID: 201, Name: "Extra Sauce", Price: decimal.NewFromInt(50), Outlet: "All Outlets"},
		202: {ID: 202, Name: "Extra Rice", Price: decimal.NewFromInt(300), Outlet: "Zanzibari Spice House"},
		203: {ID: 203, Name: "Grilled Chicken", Price: decimal.NewFromInt(599), Outlet: "Lagos Grill"},
		204: {ID: 204, Name: "Fresh Juice", Price: decimal.NewFromInt(120), Outlet: "Capetown Kitchen"},
	}
}

// Resolver matches identifiers to catalog records.
type Resolver struct {
	Addons       map[int64]Addon
	ImageBaseURL string
}

// NewResolver creates a resolver over the default add-on table.
func NewResolver(imageBaseURL string) Resolver {
	return Resolver{Addons: DefaultAddons(), ImageBaseURL: imageBaseURL}
}

// Resolve matches id against idx, trying in order: primary key, add-on
// table, exact composite key, case-folded composite key, bare item name.
// When nothing matches a placeholder line with Resolved=false is returned.
func (r Resolver) Resolve(id cart.Identifier, quantity int, idx *Index) Line {
	switch id.Kind {
	case cart.KindNumeric:
		if it, ok := idx.ByID(id.ID); ok {
			return r.itemLine(id, quantity, it, TierID)
		}
	case cart.KindAddon:
		if a, ok := r.Addons[id.ID]; ok {
			return Line{
				Key:        id.Encode(),
				Quantity:   quantity,
				Name:       a.Name,
				OutletName: a.Outlet,
				Price:      a.Price,
				Image:      PlaceholderImage,
				Category:   AddonCategory,
				Resolved:   true,
				Tier:       TierAddon,
			}
		}
	case cart.KindComposite:
		if it, ok := idx.Exact(id.OutletID, id.ItemName); ok {
			return r.itemLine(id, quantity, it, TierExact)
		}
		if it, ok := idx.Folded(id.OutletID, id.ItemName); ok {
			return r.itemLine(id, quantity, it, TierFolded)
		}
		// Matches across outlets; only reached when both keyed tiers miss.
		if it, ok := idx.ByName(id.ItemName); ok {
			return r.itemLine(id, quantity, it, TierName)
		}
	}
	return Unresolved(id.Encode(), quantity)
}

// Unresolved builds the placeholder line for key.
func Unresolved(key string, quantity int) Line {
	return Line{
		Key:        key,
		Quantity:   quantity,
		Name:       UnknownName,
		OutletName: UnknownOutlet,
		Price:      decimal.Zero,
		Image:      PlaceholderImage,
		Category:   UnknownCategory,
		Tier:       TierUnresolved,
	}
}

func (r Resolver) itemLine(id cart.Identifier, quantity int, it Item, tier Tier) Line {
	category := it.Category
	if category == "" {
		category = DefaultCategory
	}
	return Line{
		Key:        id.Encode(),
		Quantity:   quantity,
		Name:       it.ItemName,
		OutletID:   it.OutletID,
		OutletName: it.OutletName,
		Price:      it.Price,
		Image:      r.imageURL(it.ImagePath),
		Category:   category,
		MenuItemID: it.ID,
		Resolved:   true,
		Tier:       tier,
	}
}

func (r Resolver) imageURL(path string) string {
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "" {
		return PlaceholderImage
	}
	return strings.TrimRight(r.ImageBaseURL, "/") + "/uploads/" + path
}
