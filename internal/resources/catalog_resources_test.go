package resources

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxquote/internal/catalog"
	"github.com/teemow/inboxquote/internal/clock"
	"github.com/teemow/inboxquote/internal/logging"
	"github.com/teemow/inboxquote/internal/quote"
	"github.com/teemow/inboxquote/internal/server"
)

func newTestClient(t *testing.T, cat *catalog.Catalog) *client.Client {
	t.Helper()

	engine, err := quote.NewEngine(quote.Options{Catalog: cat, Logger: logging.Discard()})
	require.NoError(t, err)
	clk, err := clock.New("UTC")
	require.NoError(t, err)
	sc, err := server.NewServerContext(context.Background(), engine, clk)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	s := mcpserver.NewMCPServer("test", "1.0.0", mcpserver.WithResourceCapabilities(false, false))
	require.NoError(t, RegisterCatalogResources(s, sc))

	c, err := client.NewInProcessClient(s)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "test-client", Version: "1.0.0"}
	_, err = c.Initialize(ctx, initReq)
	require.NoError(t, err)
	return c
}

func readText(t *testing.T, c *client.Client, uri string) string {
	t.Helper()
	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri
	result, err := c.ReadResource(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	text, ok := mcp.AsTextResourceContents(result.Contents[0])
	require.True(t, ok, "expected text contents")
	assert.Equal(t, "application/json", text.MIMEType)
	return text.Text
}

func TestRegisterCatalogResources_List(t *testing.T) {
	c := newTestClient(t, catalog.Default())

	result, err := c.ListResources(context.Background(), mcp.ListResourcesRequest{})
	require.NoError(t, err)

	uris := make([]string, 0, len(result.Resources))
	for _, r := range result.Resources {
		uris = append(uris, r.URI)
	}
	assert.ElementsMatch(t, []string{CatalogProductsURI, DiscountTiersURI}, uris)
}

func TestCatalogProductsResource(t *testing.T) {
	c := newTestClient(t, catalog.Default())

	var listing struct {
		Currency string `json:"currency"`
		Count    int    `json:"count"`
		Products []struct {
			Code        string `json:"code"`
			UnitPrice   string `json:"unit_price"`
			MinOrderQty int64  `json:"min_order_qty"`
		} `json:"products"`
	}
	require.NoError(t, json.Unmarshal([]byte(readText(t, c, CatalogProductsURI)), &listing))

	assert.Equal(t, "USD", listing.Currency)
	assert.Equal(t, 3, listing.Count)
	require.Len(t, listing.Products, 3)
	assert.Equal(t, "08-50-0113", listing.Products[0].Code)
	assert.Equal(t, "1.25", listing.Products[0].UnitPrice)
	assert.Equal(t, int64(1000), listing.Products[0].MinOrderQty)
}

func TestCatalogProductsResource_EmptyCatalog(t *testing.T) {
	empty, err := catalog.New(nil)
	require.NoError(t, err)
	c := newTestClient(t, empty)

	text := readText(t, c, CatalogProductsURI)
	assert.JSONEq(t, `{"currency":"USD","count":0,"products":[]}`, text)
}

func TestDiscountTiersResource(t *testing.T) {
	c := newTestClient(t, catalog.Default())

	var data struct {
		Tiers []quote.Tier `json:"tiers"`
	}
	require.NoError(t, json.Unmarshal([]byte(readText(t, c, DiscountTiersURI)), &data))
	assert.Equal(t, quote.Tiers(), data.Tiers)
}

func TestRegisterCatalogResources_NilArgs(t *testing.T) {
	assert.Error(t, RegisterCatalogResources(nil, nil))
}
