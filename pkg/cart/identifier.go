package cart

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedIdentifier is returned when a key cannot be decoded.
var ErrMalformedIdentifier = errors.New("malformed identifier")

const addonPrefix = "addon-"

// Kind tags the variant an Identifier holds.
type Kind int

const (
	KindNumeric Kind = iota + 1
	KindComposite
	KindAddon
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindComposite:
		return "composite"
	case KindAddon:
		return "addon"
	default:
		return "unknown"
	}
}

// Identifier references a cart line before it is matched to a catalog record.
// Exactly one of the variants is meaningful, selected by Kind.
type Identifier struct {
	Kind     Kind
	ID       int64
	OutletID string
	ItemName string
}

// Numeric references a catalog item by its primary key.
func Numeric(id int64) Identifier {
	return Identifier{Kind: KindNumeric, ID: id}
}

// Composite references a catalog item by outlet and item name. Both parts
// are kept verbatim.
func Composite(outletID, itemName string) Identifier {
	return Identifier{Kind: KindComposite, OutletID: outletID, ItemName: itemName}
}

// Addon references an entry of the static add-on table.
func Addon(id int64) Identifier {
	return Identifier{Kind: KindAddon, ID: id}
}

// Encode returns the serialized key used in the cart ledger.
func (i Identifier) Encode() string {
	switch i.Kind {
	case KindNumeric:
		return strconv.FormatInt(i.ID, 10)
	case KindAddon:
		return addonPrefix + strconv.FormatInt(i.ID, 10)
	default:
		return i.OutletID + "-" + i.ItemName
	}
}

func (i Identifier) String() string {
	return i.Encode()
}

// Validate reports whether the identifier survives an Encode/Decode round
// trip unchanged.
func (i Identifier) Validate() error {
	switch i.Kind {
	case KindNumeric, KindAddon:
		if i.ID < 0 {
			return fmt.Errorf("%w: negative %s id %d", ErrMalformedIdentifier, i.Kind, i.ID)
		}
	case KindComposite:
		if strings.Contains(i.OutletID, "-") {
			return fmt.Errorf("%w: outlet id %q contains a hyphen", ErrMalformedIdentifier, i.OutletID)
		}
		if i.OutletID == strings.TrimSuffix(addonPrefix, "-") {
			return fmt.Errorf("%w: outlet id %q is reserved", ErrMalformedIdentifier, i.OutletID)
		}
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrMalformedIdentifier, i.Kind)
	}
	return nil
}

// Decode parses a ledger key. Keys with an "addon-" prefix are add-ons, keys
// without any hyphen are numeric, everything else is split on the first
// hyphen into outlet id and item name.
func Decode(key string) (Identifier, error) {
	if rest, ok := strings.CutPrefix(key, addonPrefix); ok {
		id, err := parseID(rest)
		if err != nil {
			return Identifier{}, fmt.Errorf("%w: add-on key %q: %v", ErrMalformedIdentifier, key, err)
		}
		return Addon(id), nil
	}

	outlet, name, found := strings.Cut(key, "-")
	if found {
		return Composite(outlet, name), nil
	}

	id, err := parseID(key)
	if err != nil {
		return Identifier{}, fmt.Errorf("%w: key %q: %v", ErrMalformedIdentifier, key, err)
	}
	return Numeric(id), nil
}

func parseID(s string) (int64, error) {
	if s == "" {
		return 0, errors.New("empty id")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-digit %q", r)
		}
	}
	return strconv.ParseInt(s, 10, 64)
}
