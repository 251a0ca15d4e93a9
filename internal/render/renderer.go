package render

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"sync"

	"github.com/shopops/pickticket/internal/common"
	"github.com/shopops/pickticket/internal/order"
)

// noSKU is the display fallback for line items without a SKU.
const noSKU = "No SKU"

// Renderer binds normalized orders to a paged HTML layout. Rendering is
// deterministic: identical Order + templateID inputs always produce
// byte-identical output, so a retried render after a transient print
// failure is verifiably the same document. Times are formatted in a
// fixed zone and no generation timestamps are embedded.
type Renderer struct {
	store  Store
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]*template.Template
}

func NewRenderer(store Store, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		store:  store,
		logger: logger,
		cache:  make(map[string]*template.Template),
	}
}

type docModel struct {
	OrderNumber    string
	CreatedAt      string
	ShippingMethod string
	Address        order.Address
	Items          []itemModel
	Note           string
	Total          string
}

type itemModel struct {
	Title        string
	VariantTitle string
	SKU          string
	Vendor       string
	Quantity     int
	Locations    []order.LocationQuantity
}

// Render produces the printable document for one order, one order per page.
func (r *Renderer) Render(o order.Order, templateID string) ([]byte, error) {
	tmpl, err := r.lookup(templateID)
	if err != nil {
		return nil, err
	}

	model, err := buildModel(o)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, model); err != nil {
		return nil, fmt.Errorf("%w: execute template %q: %v", common.ErrRenderFailure, templateID, err)
	}

	r.logger.Debug("render.document",
		"order_id", o.ID,
		"order_name", o.Name,
		"template_id", templateID,
		"bytes", buf.Len(),
	)
	return buf.Bytes(), nil
}

// Preload resolves and parses a template without rendering anything.
// Batch callers use it to fail fast before dispatching any order.
func (r *Renderer) Preload(templateID string) error {
	_, err := r.lookup(templateID)
	return err
}

func (r *Renderer) lookup(templateID string) (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tmpl, ok := r.cache[templateID]; ok {
		return tmpl, nil
	}

	content, err := r.store.Resolve(templateID)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(templateID).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: parse template %q: %v", common.ErrRenderFailure, templateID, err)
	}
	r.cache[templateID] = tmpl
	return tmpl, nil
}

// buildModel applies the display fallbacks and rejects orders that passed
// normalization but violate renderer assumptions.
func buildModel(o order.Order) (docModel, error) {
	if len(o.LineItems) == 0 {
		return docModel{}, fmt.Errorf("%w: order %s has no line items", common.ErrRenderFailure, o.ID)
	}

	items := make([]itemModel, 0, len(o.LineItems))
	for i, li := range o.LineItems {
		if li.Quantity < 1 {
			return docModel{}, fmt.Errorf("%w: order %s line %d has non-positive quantity %d",
				common.ErrRenderFailure, o.ID, i, li.Quantity)
		}
		if len(li.Locations) == 0 {
			return docModel{}, fmt.Errorf("%w: order %s line %d has no locations",
				common.ErrRenderFailure, o.ID, i)
		}
		items = append(items, itemModel{
			Title:        li.Title,
			VariantTitle: deref(li.VariantTitle, ""),
			SKU:          deref(li.SKU, noSKU),
			Vendor:       deref(li.Vendor, ""),
			Quantity:     li.Quantity,
			Locations:    li.Locations,
		})
	}

	total := o.Total.StringFixed(2)
	if o.Currency != "" {
		total += " " + o.Currency
	}

	return docModel{
		OrderNumber:    o.Name,
		CreatedAt:      o.CreatedAt.UTC().Format("2006-01-02 15:04"),
		ShippingMethod: o.ShippingMethod,
		Address:        o.ShippingAddress,
		Items:          items,
		Note:           o.Note,
		Total:          total,
	}, nil
}

func deref(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
