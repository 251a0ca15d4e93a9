package shopify

import "encoding/json"

// PageCursor is an opaque continuation token for order pagination.
// The zero value starts traversal from the beginning.
type PageCursor string

// Page is one page of an order traversal.
type Page struct {
	Orders     []RawOrder
	NextCursor PageCursor
	HasMore    bool
}

// RawOrder is an order record exactly as the Admin GraphQL API returns it.
// Page queries populate only the summary fields; FetchOne populates the
// full shape including line items. Raw keeps the undecoded node for
// downstream schema validation.
type RawOrder struct {
	ID                       string          `json:"id"`
	Name                     string          `json:"name"`
	CreatedAt                string          `json:"createdAt"`
	Tags                     []string        `json:"tags"`
	Note                     string          `json:"note"`
	Email                    string          `json:"email"`
	Phone                    string          `json:"phone"`
	DisplayFinancialStatus   string          `json:"displayFinancialStatus"`
	DisplayFulfillmentStatus string          `json:"displayFulfillmentStatus"`
	TotalPriceSet            *RawPriceSet    `json:"totalPriceSet"`
	ShippingAddress          *RawAddress     `json:"shippingAddress"`
	LineItems                RawLineItemConn `json:"lineItems"`
	ShippingLines            RawShipLineConn `json:"shippingLines"`

	Raw json.RawMessage `json:"-"`
}

type RawPriceSet struct {
	ShopMoney RawMoney `json:"shopMoney"`
}

type RawMoney struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type RawAddress struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Name      string `json:"name"`
	Company   string `json:"company"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2"`
	City      string `json:"city"`
	Province  string `json:"province"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
}

type RawLineItemConn struct {
	Edges []RawLineItemEdge `json:"edges"`
}

type RawLineItemEdge struct {
	Node RawLineItem `json:"node"`
}

type RawLineItem struct {
	Quantity int         `json:"quantity"`
	SKU      *string     `json:"sku"`
	Vendor   *string     `json:"vendor"`
	Product  *RawProduct `json:"product"`
	Variant  *RawVariant `json:"variant"`
}

type RawProduct struct {
	Title string `json:"title"`
}

type RawVariant struct {
	Title         *string          `json:"title"`
	InventoryItem RawInventoryItem `json:"inventoryItem"`
}

type RawInventoryItem struct {
	InventoryLevels RawInventoryLevelConn `json:"inventoryLevels"`
}

type RawInventoryLevelConn struct {
	Edges []RawInventoryLevelEdge `json:"edges"`
}

type RawInventoryLevelEdge struct {
	Node RawInventoryLevel `json:"node"`
}

type RawInventoryLevel struct {
	Location   RawLocation   `json:"location"`
	Quantities []RawQuantity `json:"quantities"`
}

type RawLocation struct {
	Name string `json:"name"`
}

type RawQuantity struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type RawShipLineConn struct {
	Edges []RawShipLineEdge `json:"edges"`
}

type RawShipLineEdge struct {
	Node RawShipLine `json:"node"`
}

type RawShipLine struct {
	Title string `json:"title"`
	Code  string `json:"code"`
}
