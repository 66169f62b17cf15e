package quote_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxquote/internal/instrumentation"
	"github.com/teemow/inboxquote/internal/message"
	"github.com/teemow/inboxquote/internal/parser"
	"github.com/teemow/inboxquote/internal/quote"
	"github.com/teemow/inboxquote/internal/server"
	"github.com/teemow/inboxquote/internal/tools/batch"
	"github.com/teemow/inboxquote/internal/tools/common"
)

const (
	emailContentArg = "email_content"
	emailsArg       = "emails"
	formatArg       = "format"
	rawMessageArg   = "raw_message"
)

func withRawMessageArg() mcp.ToolOption {
	return mcp.WithBoolean(rawMessageArg,
		mcp.Description("Set when email_content is a complete RFC 5322 message with headers and MIME parts. The text body is extracted before parsing."),
		mcp.DefaultBool(false),
	)
}

// registerQuoteGenerationTools registers the tools that read order lines
// from email text.
func registerQuoteGenerationTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	generateQuoteTool := mcp.NewTool("generate_quote",
		mcp.WithDescription("Generate a price quote from the text of a customer email. "+
			"Lines such as '1) 08-50-0113, 20Kpcs' are matched against the product catalog and a volume discount is applied per line. "+
			"Codes missing from the catalog are reported in unknown_codes; the call fails only when no code is known."),
		mcp.WithTitleAnnotation("Generate Quote"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
		mcp.WithString(emailContentArg,
			mcp.Required(),
			mcp.Description("Plain-text body of the customer email"),
		),
		withRawMessageArg(),
		mcp.WithString(common.CustomerArg,
			mcp.Description("Email address of the customer asking for the quote. Only used for auditing."),
		),
		mcp.WithString(formatArg,
			mcp.Description("Output format: 'json' for the structured quote, 'text' for a reply-ready table"),
			mcp.Enum(string(quote.FormatJSON), string(quote.FormatText)),
			mcp.DefaultString(string(quote.FormatJSON)),
		),
	)

	s.AddTool(generateQuoteTool, common.InstrumentedToolHandler("generate_quote", sc, handleGenerateQuote(sc)))

	generateQuotesTool := mcp.NewTool("generate_quotes",
		mcp.WithDescription(fmt.Sprintf("Generate one quote per email for up to %d emails. "+
			"Each email is quoted independently; a failing email is reported in its own result and does not affect the others.", batch.MaxItems)),
		mcp.WithTitleAnnotation("Generate Quotes (Batch)"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
		mcp.WithArray(emailsArg,
			mcp.Required(),
			mcp.WithStringItems(),
			mcp.Description("Email bodies to quote. A single string is accepted as a batch of one."),
		),
		mcp.WithString(common.CustomerArg,
			mcp.Description("Email address of the customer asking for the quotes. Only used for auditing."),
		),
	)

	s.AddTool(generateQuotesTool, common.InstrumentedToolHandler("generate_quotes", sc, handleGenerateQuotes(sc)))

	parseOrderLinesTool := mcp.NewTool("parse_order_lines",
		mcp.WithDescription("Extract product codes and quantities from email text without pricing them. "+
			"Useful to check what generate_quote will see. Each line reports whether its code is in the catalog."),
		mcp.WithTitleAnnotation("Parse Order Lines"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
		mcp.WithString(emailContentArg,
			mcp.Required(),
			mcp.Description("Plain-text body of the customer email"),
		),
		withRawMessageArg(),
	)

	s.AddTool(parseOrderLinesTool, common.InstrumentedToolHandler("parse_order_lines", sc, handleParseOrderLines(sc)))
}

func handleGenerateQuote(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		body, errResult := emailBody(request)
		if errResult != nil {
			return errResult, nil
		}

		format, err := quote.ParseFormat(common.GetStringArg(args, formatArg, string(quote.FormatJSON)))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		q, err := generate(ctx, sc, body)
		if err != nil {
			return quoteErrorResult(err), nil
		}
		common.RecordQuote(ctx, q.ID, len(q.Lines), len(q.UnknownCodes))

		if format == quote.FormatText {
			return mcp.NewToolResultText(quote.Text(q)), nil
		}

		data, err := json.MarshalIndent(q, "", "  ")
		if err != nil {
			return mcp.NewToolResultErrorFromErr("failed to encode quote", err), nil
		}
		return mcp.NewToolResultStructured(q, string(data)), nil
	}
}

func handleGenerateQuotes(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		emails, err := batch.ParseStringOrArray(request.GetArguments()[emailsArg], emailsArg)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		results, err := batch.ProcessBatch(ctx, emails, batch.DefaultConcurrency,
			func(ctx context.Context, email string) (*quote.Quote, error) {
				return generate(ctx, sc, email)
			})
		if err != nil {
			return mcp.NewToolResultErrorFromErr("batch quoting was interrupted", err), nil
		}

		output, err := batch.FormatResults(results)
		if err != nil {
			return mcp.NewToolResultErrorFromErr("failed to encode quotes", err), nil
		}
		return mcp.NewToolResultText(output), nil
	}
}

// orderLine is a parsed line annotated with catalog membership.
type orderLine struct {
	parser.LineItem
	InCatalog bool `json:"in_catalog"`
}

type orderLinesResult struct {
	Count int         `json:"count"`
	Lines []orderLine `json:"lines"`
}

func handleParseOrderLines(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		body, errResult := emailBody(request)
		if errResult != nil {
			return errResult, nil
		}

		items, err := parser.ParseValue(body)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		cat := sc.Catalog()
		result := orderLinesResult{Lines: []orderLine{}}
		for item := range items {
			_, known := cat.Lookup(item.ProductCode)
			result.Lines = append(result.Lines, orderLine{LineItem: item, InCatalog: known})
		}
		result.Count = len(result.Lines)

		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return mcp.NewToolResultErrorFromErr("failed to encode order lines", err), nil
		}
		return mcp.NewToolResultStructured(result, string(data)), nil
	}
}

// emailBody returns the email_content argument, reduced to its text body
// when raw_message is set.
func emailBody(request mcp.CallToolRequest) (any, *mcp.CallToolResult) {
	body, ok := request.GetArguments()[emailContentArg]
	if !ok || body == nil {
		return nil, mcp.NewToolResultError("email_content is required")
	}
	if !request.GetBool(rawMessageArg, false) {
		return body, nil
	}

	raw, ok := body.(string)
	if !ok {
		return nil, mcp.NewToolResultError("email_content must be a string when raw_message is set")
	}
	msg, err := message.Parse(raw)
	if err != nil {
		return nil, mcp.NewToolResultErrorFromErr("failed to read raw message", err)
	}
	return msg.Body, nil
}

// generate quotes one email body and records the outcome metrics.
func generate(ctx context.Context, sc *server.ServerContext, body any) (*quote.Quote, error) {
	metrics := sc.Metrics()

	q, err := sc.Engine().GenerateValue(ctx, body)
	if err != nil {
		var unknown *quote.UnknownProductError
		switch {
		case errors.As(err, &unknown):
			metrics.RecordQuoteFailure(ctx, instrumentation.QuoteResultUnknownProduct, unknown.Codes)
		case errors.Is(err, parser.ErrParse):
			metrics.RecordQuoteFailure(ctx, instrumentation.QuoteResultParseError, nil)
		}
		return nil, err
	}

	metrics.RecordQuote(ctx, len(q.Lines), q.UnknownCodes, q.GrandTotal.InexactFloat64(), q.Currency)
	return q, nil
}

// quoteErrorResult maps a generation error to a tool error result.
func quoteErrorResult(err error) *mcp.CallToolResult {
	if errors.Is(err, quote.ErrUnknownProduct) || errors.Is(err, parser.ErrParse) {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultErrorFromErr("failed to generate quote", err)
}
