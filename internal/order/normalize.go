package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopops/pickticket/internal/common"
	"github.com/shopops/pickticket/internal/shopify"
)

// Normalize maps a raw detail record into an Order. It is a pure function:
// the same input always yields the same output and nothing is mutated.
// Records failing schema validation or missing required fields (identifier,
// number, line items) return ErrMalformedRecord.
func Normalize(raw shopify.RawOrder) (Order, error) {
	if len(raw.Raw) > 0 {
		if err := ValidateRawOrder(raw.Raw); err != nil {
			return Order{}, fmt.Errorf("%w: %v", common.ErrMalformedRecord, err)
		}
	}
	if raw.ID == "" || raw.Name == "" {
		return Order{}, fmt.Errorf("%w: missing order identifier or number", common.ErrMalformedRecord)
	}
	if len(raw.LineItems.Edges) == 0 {
		return Order{}, fmt.Errorf("%w: order %s has no line items", common.ErrMalformedRecord, raw.ID)
	}

	createdAt, err := time.Parse(time.RFC3339, raw.CreatedAt)
	if err != nil {
		return Order{}, fmt.Errorf("%w: bad createdAt %q: %v", common.ErrMalformedRecord, raw.CreatedAt, err)
	}

	total := decimal.Zero
	currency := ""
	if raw.TotalPriceSet != nil {
		money := raw.TotalPriceSet.ShopMoney
		if money.Amount != "" {
			total, err = decimal.NewFromString(money.Amount)
			if err != nil {
				return Order{}, fmt.Errorf("%w: bad total amount %q: %v", common.ErrMalformedRecord, money.Amount, err)
			}
		}
		currency = money.CurrencyCode
	}

	items := make([]LineItem, 0, len(raw.LineItems.Edges))
	for _, edge := range raw.LineItems.Edges {
		items = append(items, normalizeLineItem(edge.Node))
	}

	o := Order{
		ID:                raw.ID,
		Name:              raw.Name,
		CreatedAt:         createdAt,
		FulfillmentStatus: raw.DisplayFulfillmentStatus,
		FinancialStatus:   raw.DisplayFinancialStatus,
		Tags:              append([]string(nil), raw.Tags...),
		Email:             raw.Email,
		Phone:             raw.Phone,
		Note:              raw.Note,
		ShippingAddress:   normalizeAddress(raw.ShippingAddress),
		ShippingMethod:    shippingMethod(raw),
		LineItems:         items,
		Total:             total,
		Currency:          currency,
	}
	return o, nil
}

func normalizeLineItem(raw shopify.RawLineItem) LineItem {
	item := LineItem{
		Title:    "Unknown Product",
		Quantity: raw.Quantity,
		SKU:      optional(raw.SKU),
		Vendor:   optional(raw.Vendor),
	}
	if raw.Product != nil && raw.Product.Title != "" {
		item.Title = raw.Product.Title
	}
	if raw.Variant != nil {
		item.VariantTitle = optional(raw.Variant.Title)
		item.Locations = flattenLocations(raw.Variant.InventoryItem.InventoryLevels)
	}
	if len(item.Locations) == 0 {
		// The renderer always needs at least one location row.
		item.Locations = []LocationQuantity{{Name: DefaultLocationName, Available: 0}}
	}
	return item
}

// flattenLocations collapses the nested per-variant inventory structure
// into a flat location/available list. Quantities other than "available"
// are ignored; a missing entry counts as 0.
func flattenLocations(levels shopify.RawInventoryLevelConn) []LocationQuantity {
	out := make([]LocationQuantity, 0, len(levels.Edges))
	for _, edge := range levels.Edges {
		name := edge.Node.Location.Name
		if name == "" {
			name = "Unknown"
		}
		available := 0
		for _, q := range edge.Node.Quantities {
			if q.Name == "available" {
				available = q.Quantity
				break
			}
		}
		if available < 0 {
			available = 0
		}
		out = append(out, LocationQuantity{Name: name, Available: available})
	}
	return out
}

func normalizeAddress(raw *shopify.RawAddress) Address {
	if raw == nil {
		return Address{}
	}
	name := raw.Name
	if name == "" {
		name = strings.TrimSpace(raw.FirstName + " " + raw.LastName)
	}
	return Address{
		Name:     name,
		Company:  raw.Company,
		Address1: raw.Address1,
		Address2: raw.Address2,
		City:     raw.City,
		Province: raw.Province,
		Zip:      raw.Zip,
		Country:  raw.Country,
		Phone:    raw.Phone,
	}
}

func shippingMethod(raw shopify.RawOrder) string {
	for _, edge := range raw.ShippingLines.Edges {
		if edge.Node.Title != "" {
			return edge.Node.Title
		}
	}
	return "Unknown"
}

// optional maps GraphQL nulls and empty strings to an explicit absence.
func optional(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
