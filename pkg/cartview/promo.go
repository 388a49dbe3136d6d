package cartview

import (
	"errors"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// ErrUnknownPromo is returned when a promo code is not in the table.
var ErrUnknownPromo = errors.New("unknown promo code")

// PromoKind is the effect a promo code has on the totals.
type PromoKind int

const (
	// PercentOff discounts a percentage of the subtotal.
	PercentOff PromoKind = iota + 1
	// FeeWaiver discounts the delivery fee that would be charged.
	FeeWaiver
)

// Promo is one entry of the promo table.
type Promo struct {
	Code        string          `json:"code"`
	Kind        PromoKind       `json:"-"`
	Percent     decimal.Decimal `json:"percent"`
	Description string          `json:"description"`
}

var promos = map[string]Promo{
	"SAVE10":    {Code: "SAVE10", Kind: PercentOff, Percent: decimal.NewFromInt(10), Description: "Get 10% off your order"},
	"FREEDELIV": {Code: "FREEDELIV", Kind: FeeWaiver, Description: "Free delivery"},
}

// LookupPromo finds a code, ignoring case and surrounding spaces.
func LookupPromo(code string) (Promo, bool) {
	p, ok := promos[normalizeCode(code)]
	return p, ok
}

// Promos lists the available codes.
func Promos() []Promo {
	return []Promo{promos["SAVE10"], promos["FREEDELIV"]}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// PromoSelection holds the single active promo code of a cart. Applying a
// code replaces the previous one.
type PromoSelection struct {
	mu   sync.Mutex
	code string
}

// Apply activates code. Unknown codes leave the selection unchanged.
func (p *PromoSelection) Apply(code string) (Promo, error) {
	promo, ok := LookupPromo(code)
	if !ok {
		return Promo{}, ErrUnknownPromo
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.code = promo.Code
	return promo, nil
}

// Remove deactivates the current code.
func (p *PromoSelection) Remove() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.code = ""
}

// Code returns the active code or "".
func (p *PromoSelection) Code() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.code
}
