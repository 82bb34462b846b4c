package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shop-agent/backend/internal/adapters"
	"github.com/shop-agent/backend/internal/llm"
	"github.com/shop-agent/backend/internal/metrics"
)

const (
	toolCheckInventory    = "check_inventory"
	toolGetOrderStatus    = "get_order_status"
	toolGetProductDetails = "get_product_details"
)

// toolSpecs declares the three commerce lookups offered to the model during
// the tool-augmented stage.
var toolSpecs = []llm.ToolSpec{
	{
		Name:        toolCheckInventory,
		Description: "Check stock availability for a product SKU",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"sku": map[string]interface{}{
					"type":        "string",
					"description": "The product SKU to check",
				},
			},
			"required": []string{"sku"},
		},
	},
	{
		Name:        toolGetOrderStatus,
		Description: "Look up the current status of an order by its ID",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"orderId": map[string]interface{}{
					"type":        "string",
					"description": "The order ID to look up",
				},
			},
			"required": []string{"orderId"},
		},
	},
	{
		Name:        toolGetProductDetails,
		Description: "Search products by name or SKU",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Product name to search for",
				},
				"sku": map[string]interface{}{
					"type":        "string",
					"description": "Exact product SKU",
				},
			},
		},
	},
}

// executeTool decodes the model's tool call against the closed set of known
// tools and formats a deterministic sentence from the structured result.
// Unknown tool names are not trusted and report ErrToolExecutionFailed.
func executeTool(ctx context.Context, adapter adapters.DatabaseAdapter, call *llm.ToolCall) (string, error) {
	if adapter == nil {
		return "", ErrNotConfigured
	}

	answer, err := dispatchTool(ctx, adapter, call)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.ToolCallsTotal.WithLabelValues(call.Name, outcome).Inc()
	return answer, err
}

func dispatchTool(ctx context.Context, adapter adapters.DatabaseAdapter, call *llm.ToolCall) (string, error) {
	switch call.Name {
	case toolCheckInventory:
		var args struct {
			SKU string `json:"sku"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil || args.SKU == "" {
			return "", fmt.Errorf("%w: bad %s arguments", ErrToolExecutionFailed, call.Name)
		}
		status, err := adapter.CheckInventory(ctx, args.SKU)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrToolExecutionFailed, err)
		}
		if status.Available {
			return fmt.Sprintf("SKU %s is in stock: %d units.", status.SKU, status.Quantity), nil
		}
		return fmt.Sprintf("SKU %s is out of stock.", status.SKU), nil

	case toolGetOrderStatus:
		var args struct {
			OrderID string `json:"orderId"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil || args.OrderID == "" {
			return "", fmt.Errorf("%w: bad %s arguments", ErrToolExecutionFailed, call.Name)
		}
		order, err := adapter.GetOrderStatus(ctx, args.OrderID)
		if errors.Is(err, adapters.ErrOrderNotFound) {
			return fmt.Sprintf("Order %s was not found. Please double-check the order ID.", args.OrderID), nil
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrToolExecutionFailed, err)
		}
		return fmt.Sprintf("Order %s status: %s.", order.ID, order.Status), nil

	case toolGetProductDetails:
		var args struct {
			Name string `json:"name"`
			SKU  string `json:"sku"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return "", fmt.Errorf("%w: bad %s arguments", ErrToolExecutionFailed, call.Name)
		}
		products, err := adapter.GetProducts(ctx, adapters.ProductFilter{Name: args.Name, SKU: args.SKU})
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrToolExecutionFailed, err)
		}
		if len(products) == 0 {
			return "No matching products found.", nil
		}
		top := products[0]
		return fmt.Sprintf("Found %d product(s). Top: %s (SKU %s) at $%v.", len(products), top.Name, top.SKU, top.Price), nil

	default:
		return "", fmt.Errorf("%w: unknown tool %q", ErrToolExecutionFailed, call.Name)
	}
}
