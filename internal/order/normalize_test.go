package order

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopops/pickticket/internal/common"
	"github.com/shopops/pickticket/internal/shopify"
)

func strPtr(s string) *string { return &s }

func rawLineItem(qty int, sku, vendor *string, locations ...shopify.RawInventoryLevel) shopify.RawLineItem {
	li := shopify.RawLineItem{
		Quantity: qty,
		SKU:      sku,
		Vendor:   vendor,
		Product:  &shopify.RawProduct{Title: "Widget"},
	}
	variant := &shopify.RawVariant{Title: strPtr("Blue / L")}
	for _, loc := range locations {
		variant.InventoryItem.InventoryLevels.Edges = append(variant.InventoryItem.InventoryLevels.Edges,
			shopify.RawInventoryLevelEdge{Node: loc})
	}
	li.Variant = variant
	return li
}

func level(name string, available int) shopify.RawInventoryLevel {
	var lvl shopify.RawInventoryLevel
	lvl.Location.Name = name
	lvl.Quantities = []shopify.RawQuantity{{Name: "available", Quantity: available}}
	return lvl
}

func validRawOrder() shopify.RawOrder {
	ro := shopify.RawOrder{
		ID:        "gid://shop/Order/123",
		Name:      "#1001",
		CreatedAt: "2024-06-01T10:30:00Z",
		Tags:      []string{"wholesale"},
		Note:      "leave at door",
		TotalPriceSet: &shopify.RawPriceSet{
			ShopMoney: shopify.RawMoney{Amount: "42.50", CurrencyCode: "USD"},
		},
		ShippingAddress: &shopify.RawAddress{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Address1:  "1 Analytical Way",
			City:      "London",
			Zip:       "N1",
			Country:   "UK",
		},
	}
	ro.LineItems.Edges = append(ro.LineItems.Edges, shopify.RawLineItemEdge{
		Node: rawLineItem(2, strPtr("SKU-1"), strPtr("Acme"), level("Warehouse A", 5), level("Warehouse B", 0)),
	})
	ro.ShippingLines.Edges = append(ro.ShippingLines.Edges, shopify.RawShipLineEdge{
		Node: shopify.RawShipLine{Title: "Standard Shipping"},
	})
	return ro
}

func TestNormalizeValidOrder(t *testing.T) {
	o, err := Normalize(validRawOrder())
	require.NoError(t, err)

	assert.Equal(t, "gid://shop/Order/123", o.ID)
	assert.Equal(t, "#1001", o.Name)
	assert.Equal(t, 2024, o.CreatedAt.Year())
	assert.Equal(t, []string{"wholesale"}, o.Tags)
	assert.True(t, o.HasTag("wholesale"))
	assert.False(t, o.HasTag("printed"))
	assert.Equal(t, "leave at door", o.Note)
	assert.Equal(t, "Standard Shipping", o.ShippingMethod)
	assert.Equal(t, "Ada Lovelace", o.ShippingAddress.Name)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("42.50")))
	assert.Equal(t, "USD", o.Currency)

	require.Len(t, o.LineItems, 1)
	li := o.LineItems[0]
	assert.Equal(t, "Widget", li.Title)
	require.NotNil(t, li.SKU)
	assert.Equal(t, "SKU-1", *li.SKU)
	require.NotNil(t, li.VariantTitle)
	assert.Equal(t, "Blue / L", *li.VariantTitle)
	assert.Equal(t, 2, li.Quantity)
	assert.Equal(t, []LocationQuantity{
		{Name: "Warehouse A", Available: 5},
		{Name: "Warehouse B", Available: 0},
	}, li.Locations)
}

func TestNormalizeNoInventoryYieldsSyntheticLocation(t *testing.T) {
	ro := validRawOrder()
	ro.LineItems.Edges[0].Node = rawLineItem(1, nil, nil) // no inventory levels

	o, err := Normalize(ro)
	require.NoError(t, err)
	require.Len(t, o.LineItems, 1)
	assert.Equal(t, []LocationQuantity{{Name: DefaultLocationName, Available: 0}}, o.LineItems[0].Locations)
}

func TestNormalizeOptionalFieldsStayAbsent(t *testing.T) {
	ro := validRawOrder()
	ro.LineItems.Edges[0].Node.SKU = nil
	ro.LineItems.Edges[0].Node.Vendor = strPtr("") // empty upstream is still absent

	o, err := Normalize(ro)
	require.NoError(t, err)
	assert.Nil(t, o.LineItems[0].SKU)
	assert.Nil(t, o.LineItems[0].Vendor)
}

func TestNormalizeMissingRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*shopify.RawOrder)
	}{
		{"missing id", func(ro *shopify.RawOrder) { ro.ID = "" }},
		{"missing name", func(ro *shopify.RawOrder) { ro.Name = "" }},
		{"no line items", func(ro *shopify.RawOrder) { ro.LineItems.Edges = nil }},
		{"bad createdAt", func(ro *shopify.RawOrder) { ro.CreatedAt = "yesterday" }},
		{"bad amount", func(ro *shopify.RawOrder) { ro.TotalPriceSet.ShopMoney.Amount = "four" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ro := validRawOrder()
			tt.mutate(&ro)
			_, err := Normalize(ro)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrMalformedRecord)
		})
	}
}

func TestNormalizeSchemaRejectsMalformedRaw(t *testing.T) {
	ro := validRawOrder()
	ro.Raw = json.RawMessage(`{"id": "gid://shop/Order/123", "createdAt": "2024-06-01T10:30:00Z"}`)

	_, err := Normalize(ro)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMalformedRecord)
}

func TestNormalizeSchemaAcceptsValidRaw(t *testing.T) {
	ro := validRawOrder()
	raw, err := json.Marshal(map[string]any{
		"id":        ro.ID,
		"name":      ro.Name,
		"createdAt": ro.CreatedAt,
		"lineItems": map[string]any{
			"edges": []any{map[string]any{"node": map[string]any{"quantity": 2}}},
		},
	})
	require.NoError(t, err)
	ro.Raw = raw

	_, err = Normalize(ro)
	require.NoError(t, err)
}

func TestNormalizeShippingMethodFallback(t *testing.T) {
	ro := validRawOrder()
	ro.ShippingLines.Edges = nil

	o, err := Normalize(ro)
	require.NoError(t, err)
	assert.Equal(t, "Unknown", o.ShippingMethod)
}

func TestNormalizeIsPure(t *testing.T) {
	ro := validRawOrder()
	o1, err := Normalize(ro)
	require.NoError(t, err)
	o2, err := Normalize(ro)
	require.NoError(t, err)
	assert.Equal(t, o1, o2)

	// Mutating the normalized tags must not touch the raw record.
	o1.Tags = append(o1.Tags, "printed")
	assert.Equal(t, []string{"wholesale"}, ro.Tags)
}
