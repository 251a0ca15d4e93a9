package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultLocationName is the synthetic location assigned to line items
// with no resolvable inventory data.
const DefaultLocationName = "Default Location"

// Order is the normalized form of a remote order record. The identifier
// is immutable once fetched; the only field this system ever mutates
// upstream is the tag set, by appending "printed".
type Order struct {
	ID                string
	Name              string
	CreatedAt         time.Time
	FulfillmentStatus string
	FinancialStatus   string
	Tags              []string
	Email             string
	Phone             string
	Note              string
	ShippingAddress   Address
	ShippingMethod    string
	LineItems         []LineItem
	Total             decimal.Decimal
	Currency          string
}

// HasTag reports whether the order carries the given tag.
func (o Order) HasTag(tag string) bool {
	for _, t := range o.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

type Address struct {
	Name     string
	Company  string
	Address1 string
	Address2 string
	City     string
	Province string
	Zip      string
	Country  string
	Phone    string
}

// LineItem keeps optional metadata as pointers so "absent" stays
// distinguishable from empty; display fallbacks belong to the renderer.
type LineItem struct {
	Title        string
	VariantTitle *string
	SKU          *string
	Vendor       *string
	Quantity     int
	Locations    []LocationQuantity
}

type LocationQuantity struct {
	Name      string
	Available int
}
