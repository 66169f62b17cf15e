package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxquote/internal/catalog"
	"github.com/teemow/inboxquote/internal/quote"
	"github.com/teemow/inboxquote/internal/server"
)

const (
	CatalogProductsURI = "catalog://products"
	DiscountTiersURI   = "catalog://discount-tiers"
)

// Listing is the JSON view of a catalog.
type Listing struct {
	Currency string          `json:"currency"`
	Count    int             `json:"count"`
	Products []catalog.Entry `json:"products"`
}

// NewListing builds the listing for c. Products are sorted by code.
func NewListing(c *catalog.Catalog) Listing {
	products := c.Entries()
	if products == nil {
		products = []catalog.Entry{}
	}
	return Listing{
		Currency: c.Currency(),
		Count:    len(products),
		Products: products,
	}
}

// RegisterCatalogResources registers the catalog and discount schedule
// resources.
func RegisterCatalogResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if s == nil || sc == nil {
		return fmt.Errorf("failed to register catalog resources: server and context are required")
	}

	productsResource := mcp.NewResource(
		CatalogProductsURI,
		"Product Catalog",
		mcp.WithResourceDescription("Products that can be quoted with unit price, minimum order quantity and currency"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(productsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleCatalogProducts(ctx, request, sc)
	})

	tiersResource := mcp.NewResource(
		DiscountTiersURI,
		"Volume Discount Tiers",
		mcp.WithResourceDescription("Discount applied when a line quantity reaches a multiple of the product's minimum order quantity"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(tiersResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleDiscountTiers(ctx, request)
	})

	return nil
}

func handleCatalogProducts(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	return jsonContents(request.Params.URI, NewListing(sc.Catalog()))
}

func handleDiscountTiers(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data := map[string]any{
		"tiers":       quote.Tiers(),
		"description": "Tiers are checked from the highest multiple down; the first match applies to the whole line",
	}
	return jsonContents(request.Params.URI, data)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource %s: %w", uri, err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
