package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopops/pickticket/internal/common"
)

// PrintedTag marks an order as already printed in the shop.
const PrintedTag = "printed"

const tagsAddMutation = `
mutation AddTags($id: ID!, $tags: [String!]!) {
  tagsAdd(id: $id, tags: $tags) {
    node {
      id
    }
    userErrors {
      field
      message
    }
  }
}`

// MarkPrinted commits the "printed" tag to an order. The remote tag-add is
// a no-op when the tag is already present, so repeated calls for the same
// order succeed without further effect. Throttling follows the client's
// backoff policy; userErrors surface as common.UserErrors and must not be
// retried by callers.
func (c *Client) MarkPrinted(ctx context.Context, orderID string) error {
	variables := map[string]any{
		"id":   orderID,
		"tags": []string{PrintedTag},
	}
	data, err := c.execute(ctx, tagsAddMutation, variables)
	if err != nil {
		return common.WrapError(err, "mark printed")
	}

	var out struct {
		TagsAdd struct {
			Node *struct {
				ID string `json:"id"`
			} `json:"node"`
			UserErrors []struct {
				Field   []string `json:"field"`
				Message string   `json:"message"`
			} `json:"userErrors"`
		} `json:"tagsAdd"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("%w: decode tagsAdd payload: %v", common.ErrRemoteUnavailable, err)
	}

	if len(out.TagsAdd.UserErrors) > 0 {
		ues := &common.UserErrors{}
		for _, ue := range out.TagsAdd.UserErrors {
			ues.Errors = append(ues.Errors, common.UserError{
				Field:   strings.Join(ue.Field, "."),
				Message: ue.Message,
			})
		}
		c.logger.Error("shopify.mark_printed.rejected", "order_id", orderID, "user_errors", ues.Error())
		return ues
	}

	c.logger.Info("shopify.mark_printed", "order_id", orderID)
	return nil
}
