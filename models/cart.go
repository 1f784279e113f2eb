package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ErrInvalidRoute is returned for empty or malformed cart keys.
var ErrInvalidRoute = errors.New("invalid route")

// Route identifies a purchasable test or service, e.g. "/lab-test/cbc".
// It is the cart key: at most one line item exists per route.
type Route string

// ParseRoute trims s and checks it is a usable cart key.
func ParseRoute(s string) (Route, error) {
	s = strings.TrimSpace(s)
	if s == "" || !strings.HasPrefix(s, "/") || len(s) < 2 {
		return "", ErrInvalidRoute
	}
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return "", ErrInvalidRoute
	}
	return Route(s), nil
}

// Valid reports whether r would be accepted by ParseRoute unchanged.
func (r Route) Valid() bool {
	parsed, err := ParseRoute(string(r))
	return err == nil && parsed == r
}

func (r Route) String() string { return string(r) }

// Price is a money amount. Non-numeric JSON values decode as zero so a bad
// price never poisons the cart totals.
type Price struct {
	decimal.Decimal
}

func NewPrice(v int64) Price { return Price{decimal.NewFromInt(v)} }

func PriceFromFloat(f float64) Price { return Price{decimal.NewFromFloat(f)} }

func (p Price) Mul(q int) Price { return Price{p.Decimal.Mul(decimal.NewFromInt(int64(q)))} }

func (p Price) Add(o Price) Price { return Price{p.Decimal.Add(o.Decimal)} }

func (p Price) Sub(o Price) Price { return Price{p.Decimal.Sub(o.Decimal)} }

func (p Price) EqualInt(v int64) bool { return p.Decimal.Equal(decimal.NewFromInt(v)) }

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.Decimal.String()), nil
}

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			p.Decimal = decimal.Zero
			return nil
		}
		raw = strings.TrimSpace(s)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		d = decimal.Zero
	}
	p.Decimal = d
	return nil
}

// TemplateName tells lab tests (home collection eligible) from scans and other services.
type TemplateName string

const (
	TemplateLabTest    TemplateName = "labtest"
	TemplateNonLabTest TemplateName = "non-labtest"
)

// CartLineItem is one distinct bookable test plus quantity.
type CartLineItem struct {
	Route           Route          `json:"route"`
	Title           string         `json:"title"`
	Price           Price          `json:"price"`
	DiscountedPrice Price          `json:"discountedPrice"`
	Quantity        int            `json:"quantity"`
	TemplateName    TemplateName   `json:"templateName"`
	BasicInfo       map[string]any `json:"basicInfo,omitempty"`
}

// HomeCollectionEligible reports whether a sample can be picked up at home.
func (i CartLineItem) HomeCollectionEligible() bool {
	return i.TemplateName == TemplateLabTest
}

// CartTotals are derived from the line items, never stored.
type CartTotals struct {
	Total         Price `json:"total"`
	OriginalTotal Price `json:"originalTotal"`
	Savings       Price `json:"savings"`
	ItemCount     int   `json:"itemCount"`
}

// CartView is the cart as returned to the storefront.
type CartView struct {
	Items  []CartLineItem `json:"items"`
	Totals CartTotals     `json:"totals"`
}
