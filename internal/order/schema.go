package order

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildRawOrderJSONSchema returns a JSON-Schema (draft 2020-12 subset) for
// a detail order record as the Admin API returns it. Only the fields the
// normalizer depends on are constrained; anything else may appear freely.
func BuildRawOrderJSONSchema() map[string]any {
	edgeList := func(min int) map[string]any {
		props := map[string]any{
			"edges": map[string]any{"type": "array"},
		}
		if min > 0 {
			props["edges"] = map[string]any{"type": "array", "minItems": min}
		}
		return map[string]any{
			"type":       "object",
			"required":   []string{"edges"},
			"properties": props,
		}
	}

	return map[string]any{
		"type":     "object",
		"required": []string{"id", "name", "createdAt", "lineItems"},
		"properties": map[string]any{
			"id":        map[string]any{"type": "string", "minLength": 1},
			"name":      map[string]any{"type": "string", "minLength": 1},
			"createdAt": map[string]any{"type": "string", "minLength": 1},
			"tags": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"lineItems": edgeList(1),
			"totalPriceSet": map[string]any{
				"type": []any{"object", "null"},
				"properties": map[string]any{
					"shopMoney": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"amount":       map[string]any{"type": "string", "pattern": `^-?\d+(\.\d+)?$`},
							"currencyCode": map[string]any{"type": "string"},
						},
					},
				},
			},
		},
	}
}

var (
	rawOrderSchemaOnce sync.Once
	rawOrderSchema     *jsonschema.Schema
	rawOrderSchemaErr  error
)

// ValidateRawOrder validates raw order bytes against the record schema.
func ValidateRawOrder(data []byte) error {
	rawOrderSchemaOnce.Do(func() {
		b, err := json.Marshal(BuildRawOrderJSONSchema())
		if err != nil {
			rawOrderSchemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("raw_order.json", bytes.NewReader(b)); err != nil {
			rawOrderSchemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		rawOrderSchema, rawOrderSchemaErr = compiler.Compile("raw_order.json")
	})
	if rawOrderSchemaErr != nil {
		return rawOrderSchemaErr
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	if err := rawOrderSchema.Validate(v); err != nil {
		return fmt.Errorf("record does not match schema: %w", err)
	}
	return nil
}
