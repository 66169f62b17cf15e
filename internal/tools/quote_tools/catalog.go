package quote_tools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxquote/internal/quote"
	"github.com/teemow/inboxquote/internal/resources"
	"github.com/teemow/inboxquote/internal/server"
	"github.com/teemow/inboxquote/internal/tools/common"
)

const productCodeArg = "code"

// productDetails is a catalog entry together with the quantities at which
// each discount tier starts.
type productDetails struct {
	Code        string          `json:"code"`
	UnitPrice   string          `json:"unit_price"`
	MinOrderQty int64           `json:"min_order_qty"`
	Currency    string          `json:"currency"`
	Discounts   []discountBreak `json:"discounts"`
}

type discountBreak struct {
	MinQuantity int64 `json:"min_quantity"`
	DiscountPct int   `json:"discount_pct"`
}

func registerCatalogTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	listProductsTool := mcp.NewTool("catalog_list_products",
		mcp.WithDescription("List every product in the price catalog with its unit price and minimum order quantity"),
		mcp.WithTitleAnnotation("List Catalog Products"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(listProductsTool, common.InstrumentedToolHandler("catalog_list_products", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			listing := resources.NewListing(sc.Catalog())
			data, err := json.MarshalIndent(listing, "", "  ")
			if err != nil {
				return mcp.NewToolResultErrorFromErr("failed to encode catalog", err), nil
			}
			return mcp.NewToolResultStructured(listing, string(data)), nil
		}))

	getProductTool := mcp.NewTool("catalog_get_product",
		mcp.WithDescription("Get a single catalog product and the quantities at which its volume discounts start"),
		mcp.WithTitleAnnotation("Get Catalog Product"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
		mcp.WithString(productCodeArg,
			mcp.Required(),
			mcp.Description("Product code, e.g. '08-50-0113'. Case and surrounding spaces are ignored."),
		),
	)

	s.AddTool(getProductTool, common.InstrumentedToolHandler("catalog_get_product", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			code, err := request.RequireString(productCodeArg)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			entry, ok := sc.Catalog().Lookup(code)
			if !ok {
				return mcp.NewToolResultErrorf("product %s is not in the catalog", code), nil
			}

			details := productDetails{
				Code:        entry.Code,
				UnitPrice:   entry.UnitPrice.String(),
				MinOrderQty: entry.MinOrderQty,
				Currency:    entry.Currency,
			}
			// Tiers come highest first; list breaks in ascending quantity.
			tiers := quote.Tiers()
			for i := len(tiers) - 1; i >= 0; i-- {
				details.Discounts = append(details.Discounts, discountBreak{
					MinQuantity: tiers[i].MinMultiple * entry.MinOrderQty,
					DiscountPct: tiers[i].Percent,
				})
			}

			data, err := json.MarshalIndent(details, "", "  ")
			if err != nil {
				return mcp.NewToolResultErrorFromErr("failed to encode product", err), nil
			}
			return mcp.NewToolResultStructured(details, string(data)), nil
		}))
}
