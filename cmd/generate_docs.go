package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	"github.com/teemow/inboxquote/internal/server"
)

const categoryOther = "Other"

// docCategories fixes the section order of the generated reference.
var docCategories = []string{"Quote Tools", "Catalog Tools", "Time Tools", categoryOther}

func newGenerateDocsCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate a markdown reference of every MCP tool the server registers.
The output is built from the live tool definitions, so argument names,
types and enums always match what clients see.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(cmd.OutOrStdout(), outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runGenerateDocs(out io.Writer, outputFile string) error {
	// Only tool definitions are needed; the built-in catalog and UTC do.
	engine, clk, err := newQuoteEngine(QuoteConfig{Timezone: "UTC", ValidityDays: 30}, slog.Default())
	if err != nil {
		return err
	}
	sc, err := server.NewServerContext(context.Background(), engine, clk)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() { _ = sc.Shutdown() }()

	mcpSrv := server.NewMCPServer(version, sc)
	if err := registerAllTools(mcpSrv, sc); err != nil {
		return err
	}

	var tools []mcp.Tool
	for _, st := range mcpSrv.ListTools() {
		tools = append(tools, st.Tool)
	}

	var doc bytes.Buffer
	writeToolsReference(&doc, tools)

	if outputFile == "" {
		_, err := doc.WriteTo(out)
		return err
	}
	if err := os.WriteFile(outputFile, doc.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	slog.Info("documentation written", slog.String("file", outputFile))
	return nil
}

func writeToolsReference(w io.Writer, tools []mcp.Tool) {
	grouped := make(map[string][]mcp.Tool)
	for _, tool := range tools {
		c := toolCategory(tool.Name)
		grouped[c] = append(grouped[c], tool)
	}

	fmt.Fprint(w, "# MCP Tools Reference\n\n")
	fmt.Fprint(w, "Every tool inboxquote exposes when running as an MCP server.\n\n")
	fmt.Fprint(w, "**Note:** Generated from the tool definitions by `inboxquote generate-docs`.\n\n")

	fmt.Fprint(w, "## Table of Contents\n\n")
	for _, c := range docCategories {
		if len(grouped[c]) > 0 {
			fmt.Fprintf(w, "- [%s](#%s)\n", c, strings.ToLower(strings.ReplaceAll(c, " ", "-")))
		}
	}
	fmt.Fprintln(w)

	fmt.Fprint(w, "## Customer Attribution\n\n")
	fmt.Fprint(w, "The quote tools accept an optional `customer` argument with the address of the person asking.\n")
	fmt.Fprint(w, "It never changes prices or discounts. Audit logs record a hash and the domain unless `AUDIT_LOGGING_INCLUDE_PII=true`.\n\n")

	for _, c := range docCategories {
		section := grouped[c]
		if len(section) == 0 {
			continue
		}
		slices.SortFunc(section, func(a, b mcp.Tool) int { return strings.Compare(a.Name, b.Name) })

		fmt.Fprintf(w, "## %s\n\n", c)
		for _, tool := range section {
			writeTool(w, tool)
		}
	}
}

func toolCategory(name string) string {
	switch {
	case name == "get_current_time":
		return "Time Tools"
	case strings.HasPrefix(name, "catalog_"):
		return "Catalog Tools"
	case strings.Contains(name, "quote"), strings.Contains(name, "order"):
		return "Quote Tools"
	}
	return categoryOther
}

func writeTool(w io.Writer, tool mcp.Tool) {
	fmt.Fprintf(w, "### %s\n\n", tool.Name)
	if tool.Description != "" {
		fmt.Fprintf(w, "%s\n\n", tool.Description)
	}

	props := tool.InputSchema.Properties
	if len(props) == 0 {
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintln(w, "**Arguments:**")
	for _, name := range slices.Sorted(maps.Keys(props)) {
		schema, ok := props[name].(map[string]any)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "- `%s` (%s, %s): %s\n", name, schemaType(schema), requirement(tool, name), argumentText(schema))
	}
	fmt.Fprint(w, "\n\n")
}

func requirement(tool mcp.Tool, arg string) string {
	if slices.Contains(tool.InputSchema.Required, arg) {
		return "required"
	}
	return "optional"
}

func argumentText(schema map[string]any) string {
	text, ok := schema["description"].(string)
	if !ok {
		text = schemaType(schema) + " parameter"
	}
	if enum, ok := schema["enum"].([]string); ok && len(enum) > 0 {
		text += fmt.Sprintf(" One of: `%s`.", strings.Join(enum, "`, `"))
	}
	return text
}

func schemaType(schema map[string]any) string {
	if t, ok := schema["type"].(string); ok {
		return t
	}
	return "any"
}
