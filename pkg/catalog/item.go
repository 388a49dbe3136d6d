// Package catalog turns a fetched product catalog into lookup structures and
// resolves cart identifiers against it.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Item is one menu record as served by the backend: an item offered by an
// outlet. ID is the menu-outlet-item primary key that orders reference.
type Item struct {
	ID          int64           `json:"id"`
	OutletID    string          `json:"outlet_id"`
	OutletName  string          `json:"outlet_name"`
	ItemID      int64           `json:"item_id"`
	ItemName    string          `json:"item_name"`
	Price       decimal.Decimal `json:"price"`
	ImagePath   string          `json:"image_path"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Available   bool            `json:"is_available"`
}

// UnmarshalJSON accepts outlet ids encoded as numbers or strings.
func (i *Item) UnmarshalJSON(data []byte) error {
	type alias Item
	aux := struct {
		*alias
		OutletID  json.RawMessage `json:"outlet_id"`
		Available *bool           `json:"is_available"`
	}{alias: (*alias)(i)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	i.Available = aux.Available == nil || *aux.Available

	raw := bytes.TrimSpace(aux.OutletID)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		i.OutletID = ""
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &i.OutletID); err != nil {
			return fmt.Errorf("outlet_id: %w", err)
		}
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return fmt.Errorf("outlet_id: %w", err)
		}
		i.OutletID = n.String()
	}
	return nil
}
