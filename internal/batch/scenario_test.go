package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopops/pickticket/constants"
	"github.com/shopops/pickticket/internal/common"
	"github.com/shopops/pickticket/internal/order"
	"github.com/shopops/pickticket/internal/printer"
	"github.com/shopops/pickticket/internal/render"
	"github.com/shopops/pickticket/internal/shopify"
)

// shopState is a minimal in-memory shop: full order detail records,
// tag-aware filtering, and the tagsAdd mutation.
type shopState struct {
	mu     sync.Mutex
	orders []map[string]any
}

func shopOrder(i int) map[string]any {
	return map[string]any{
		"id":        fmt.Sprintf("gid://shop/Order/%d", i),
		"name":      fmt.Sprintf("#10%02d", i),
		"createdAt": "2024-06-01T10:30:00Z",
		"tags":      []string{},
		"note":      "",
		"totalPriceSet": map[string]any{
			"shopMoney": map[string]any{"amount": "19.99", "currencyCode": "USD"},
		},
		"shippingAddress": map[string]any{
			"firstName": "Ada",
			"lastName":  "Lovelace",
			"address1":  "1 Analytical Way",
			"city":      "London",
			"zip":       "N1",
			"country":   "UK",
		},
		"lineItems": map[string]any{
			"edges": []any{map[string]any{"node": map[string]any{
				"quantity": 1,
				"sku":      "SKU-1",
				"vendor":   "Acme",
				"product":  map[string]any{"title": "Widget"},
				"variant": map[string]any{
					"title": "Blue",
					"inventoryItem": map[string]any{
						"inventoryLevels": map[string]any{
							"edges": []any{map[string]any{"node": map[string]any{
								"location":   map[string]any{"name": "Warehouse A"},
								"quantities": []any{map[string]any{"name": "available", "quantity": 4}},
							}}},
						},
					},
				},
			}}},
		},
		"shippingLines": map[string]any{
			"edges": []any{map[string]any{"node": map[string]any{"title": "Standard Shipping"}}},
		},
	}
}

func (s *shopState) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		var req struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")

		respond := func(v any) {
			_ = json.NewEncoder(w).Encode(v)
		}

		switch {
		case strings.Contains(req.Query, "GetManyOrders"):
			var edges []map[string]any
			for _, o := range s.orders {
				if tagged(o, "printed") {
					continue
				}
				edges = append(edges, map[string]any{"node": o})
			}
			respond(map[string]any{"data": map[string]any{"orders": map[string]any{
				"edges":    edges,
				"pageInfo": map[string]any{"hasNextPage": false, "endCursor": ""},
			}}})
		case strings.Contains(req.Query, "GetOrder"):
			id, _ := req.Variables["id"].(string)
			for _, o := range s.orders {
				if o["id"] == id {
					respond(map[string]any{"data": map[string]any{"order": o}})
					return
				}
			}
			respond(map[string]any{"data": map[string]any{"order": nil}})
		case strings.Contains(req.Query, "tagsAdd"):
			id, _ := req.Variables["id"].(string)
			for _, o := range s.orders {
				if o["id"] != id {
					continue
				}
				tags := o["tags"].([]string)
				for _, raw := range req.Variables["tags"].([]any) {
					tag := raw.(string)
					if !tagged(o, tag) {
						tags = append(tags, tag)
					}
				}
				o["tags"] = tags
			}
			respond(map[string]any{"data": map[string]any{"tagsAdd": map[string]any{
				"node":       map[string]any{"id": id},
				"userErrors": []any{},
			}}})
		}
	}
}

func tagged(o map[string]any, tag string) bool {
	for _, t := range o["tags"].([]string) {
		if t == tag {
			return true
		}
	}
	return false
}

// TestBatchEndToEnd runs a full three-order batch against an in-memory
// shop: fetch, normalize, render with the built-in template, tag via the
// real client, then verify a refetch of unprinted orders comes back empty.
func TestBatchEndToEnd(t *testing.T) {
	shop := &shopState{orders: []map[string]any{shopOrder(1), shopOrder(2), shopOrder(3)}}
	srv := httptest.NewServer(shop.handler())
	defer srv.Close()

	cfg := common.ShopifyConfig{
		ShopURL:     "example.myshopify.com",
		AccessToken: "shpat_test",
		APIVersion:  "2024-10",
		Timeout:     5 * time.Second,
	}
	client := shopify.NewClient(cfg, testLogger(),
		shopify.WithEndpoint(srv.URL),
		shopify.WithRateLimit(10000, 100),
	)
	ctx := context.Background()

	page, err := client.FetchPage(ctx, shopify.DefaultFilter, 50, "")
	require.NoError(t, err)
	require.Len(t, page.Orders, 3)

	var orders []order.Order
	for _, summary := range page.Orders {
		detail, err := client.FetchOne(ctx, summary.ID)
		require.NoError(t, err)
		o, err := order.Normalize(detail)
		require.NoError(t, err)
		orders = append(orders, o)
	}

	renderer := render.NewRenderer(render.NewEmbeddedStore(), testLogger())
	sink := printer.NewNopSink(testLogger())
	job, err := NewJob(render.DefaultTemplateID, "", 1, true)
	require.NoError(t, err)

	exec := NewExecutor(renderer, sink, client, testLogger(), WithWorkers(2))
	report, err := exec.Run(common.WithBatchID(ctx, job.ID.String()), job, orders)
	require.NoError(t, err)

	assert.Len(t, report.Results, 3)
	assert.Equal(t, 3, report.Count(constants.OutcomeTagged))
	assert.Equal(t, 0, report.Count(constants.OutcomeFailed))

	// Every order now carries the printed tag, so the default filter
	// matches nothing.
	after, err := client.FetchPage(ctx, shopify.DefaultFilter, 50, "")
	require.NoError(t, err)
	assert.Empty(t, after.Orders)
}
