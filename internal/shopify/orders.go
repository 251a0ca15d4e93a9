package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopops/pickticket/internal/common"
)

// MaxPageSize is the per-request cap the Admin API enforces on order queries.
const MaxPageSize = 200

// DefaultFilter selects open orders that have not been printed yet.
const DefaultFilter = "tag_not:printed AND status:open"

// DateRangeFilter builds a creation-date window filter. Either bound may
// be zero to leave that side open.
func DateRangeFilter(from, to time.Time) string {
	f := ""
	if !from.IsZero() {
		f = fmt.Sprintf("created_at:>=%s", from.UTC().Format("2006-01-02"))
	}
	if !to.IsZero() {
		if f != "" {
			f += " "
		}
		f += fmt.Sprintf("created_at:<=%s", to.UTC().Format("2006-01-02"))
	}
	return f
}

const ordersPageQuery = `
query GetManyOrders($first: Int!, $query: String, $after: String) {
  orders(first: $first, query: $query, sortKey: CREATED_AT, reverse: true, after: $after) {
    edges {
      node {
        id
        name
        createdAt
        tags
        totalPriceSet {
          shopMoney {
            amount
            currencyCode
          }
        }
        shippingAddress {
          city
          province
          name
        }
      }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
  }
}`

const orderDetailQuery = `
query GetOrder($id: ID!) {
  order(id: $id) {
    id
    name
    createdAt
    tags
    note
    displayFinancialStatus
    displayFulfillmentStatus
    email
    phone
    totalPriceSet {
      shopMoney {
        amount
        currencyCode
      }
    }
    shippingAddress {
      firstName
      lastName
      company
      address1
      address2
      city
      province
      zip
      country
      phone
    }
    lineItems(first: 50) {
      edges {
        node {
          quantity
          sku
          vendor
          product {
            title
          }
          variant {
            title
            inventoryItem {
              inventoryLevels(first: 100) {
                edges {
                  node {
                    location {
                      name
                    }
                    quantities(names: ["available"]) {
                      name
                      quantity
                    }
                  }
                }
              }
            }
          }
        }
      }
    }
    shippingLines(first: 1) {
      edges {
        node {
          title
          code
        }
      }
    }
  }
}`

// FetchPage returns one page of orders matching the filter, newest first.
// An empty cursor starts the traversal; the returned cursor resumes it.
// The client does not deduplicate across page boundaries.
func (c *Client) FetchPage(ctx context.Context, filter string, pageSize int, cursor PageCursor) (Page, error) {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if filter == "" {
		filter = DefaultFilter
	}

	variables := map[string]any{
		"first": pageSize,
		"query": filter,
	}
	if cursor != "" {
		variables["after"] = string(cursor)
	}

	data, err := c.execute(ctx, ordersPageQuery, variables)
	if err != nil {
		return Page{}, common.WrapError(err, "fetch orders page")
	}

	var out struct {
		Orders struct {
			Edges []struct {
				Node json.RawMessage `json:"node"`
			} `json:"edges"`
			PageInfo struct {
				HasNextPage bool   `json:"hasNextPage"`
				EndCursor   string `json:"endCursor"`
			} `json:"pageInfo"`
		} `json:"orders"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return Page{}, fmt.Errorf("%w: decode orders payload: %v", common.ErrRemoteUnavailable, err)
	}

	page := Page{
		NextCursor: PageCursor(out.Orders.PageInfo.EndCursor),
		HasMore:    out.Orders.PageInfo.HasNextPage,
	}
	for _, edge := range out.Orders.Edges {
		var ro RawOrder
		// A node that fails to decode still flows downstream carrying its
		// raw bytes; the normalizer reports it as a malformed record.
		_ = json.Unmarshal(edge.Node, &ro)
		ro.Raw = edge.Node
		page.Orders = append(page.Orders, ro)
	}

	c.logger.Info("shopify.fetch_page",
		"filter", filter,
		"page_size", pageSize,
		"returned", len(page.Orders),
		"has_more", page.HasMore,
	)
	return page, nil
}

// FetchOne returns the full detail record for a single order.
func (c *Client) FetchOne(ctx context.Context, orderID string) (RawOrder, error) {
	data, err := c.execute(ctx, orderDetailQuery, map[string]any{"id": orderID})
	if err != nil {
		return RawOrder{}, common.WrapError(err, "fetch order")
	}

	var out struct {
		Order json.RawMessage `json:"order"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return RawOrder{}, fmt.Errorf("%w: decode order payload: %v", common.ErrRemoteUnavailable, err)
	}
	if len(out.Order) == 0 || string(out.Order) == "null" {
		return RawOrder{}, fmt.Errorf("%w: order %s", common.ErrNotFound, orderID)
	}

	var ro RawOrder
	_ = json.Unmarshal(out.Order, &ro)
	ro.Raw = out.Order

	c.logger.Info("shopify.fetch_one", "order_id", orderID, "order_name", ro.Name)
	return ro, nil
}
