package catalog

import (
	"strings"

	"golang.org/x/text/cases"
)

// Index is a read-only set of lookup maps over one catalog fetch. Later items
// overwrite earlier ones on key collisions.
type Index struct {
	byID     map[int64]Item
	exact    map[string]Item
	folded   map[string]Item
	byName   map[string]Item
	outlets  map[string]struct{}
	numItems int
}

// Build indexes items by primary key, exact composite key, case-folded
// composite key and case-folded bare item name.
func Build(items []Item) *Index {
	idx := &Index{
		byID:     make(map[int64]Item, len(items)),
		exact:    make(map[string]Item, len(items)),
		folded:   make(map[string]Item, len(items)),
		byName:   make(map[string]Item, len(items)),
		outlets:  make(map[string]struct{}),
		numItems: len(items),
	}
	for _, it := range items {
		idx.byID[it.ID] = it
		idx.exact[compositeKey(it.OutletID, it.ItemName)] = it
		idx.folded[foldedKey(it.OutletID, it.ItemName)] = it
		idx.byName[fold(it.ItemName)] = it
		idx.outlets[it.OutletID] = struct{}{}
	}
	return idx
}

// Len returns the number of items the index was built from.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return x.numItems
}

// Outlets returns the number of distinct outlets in the catalog.
func (x *Index) Outlets() int {
	if x == nil {
		return 0
	}
	return len(x.outlets)
}

// ByID looks an item up by primary key.
func (x *Index) ByID(id int64) (Item, bool) {
	if x == nil {
		return Item{}, false
	}
	it, ok := x.byID[id]
	return it, ok
}

// Exact looks an item up by its verbatim outlet id and item name.
func (x *Index) Exact(outletID, itemName string) (Item, bool) {
	if x == nil {
		return Item{}, false
	}
	it, ok := x.exact[compositeKey(outletID, itemName)]
	return it, ok
}

// Folded looks an item up ignoring case and surrounding whitespace.
func (x *Index) Folded(outletID, itemName string) (Item, bool) {
	if x == nil {
		return Item{}, false
	}
	it, ok := x.folded[foldedKey(outletID, itemName)]
	return it, ok
}

// ByName looks an item up by case-folded name across all outlets.
func (x *Index) ByName(itemName string) (Item, bool) {
	if x == nil {
		return Item{}, false
	}
	it, ok := x.byName[fold(itemName)]
	return it, ok
}

func compositeKey(outletID, itemName string) string {
	return outletID + "-" + itemName
}

func foldedKey(outletID, itemName string) string {
	return fold(outletID) + "-" + fold(itemName)
}

// fold normalizes a key part for case-insensitive matching. A new Caser is
// built per call because Casers are not safe for concurrent use.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
