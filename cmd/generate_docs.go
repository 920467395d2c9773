package cmd

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	"github.com/XueTang422/calendar-mcp/internal/tools/calendar_tools"
)

func newGenerateDocsCmd() *cobra.Command {
	var (
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools.
The output is built from the same tool definitions the server registers,
so it stays in sync with what clients see in tools/list.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runGenerateDocs(outputFile string) error {
	markdown := generateToolsMarkdown(calendar_tools.Definitions())

	// Write to output
	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
	} else {
		fmt.Print(markdown)
	}

	return nil
}

func generateToolsMarkdown(tools []mcp.Tool) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("This document provides a complete reference of all tools available when running calendar-mcp as an MCP server.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")

	sorted := slices.Clone(tools)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	// Table of contents
	sb.WriteString("## Table of Contents\n\n")
	for _, tool := range sorted {
		sb.WriteString(fmt.Sprintf("- [%s](#%s)\n", tool.Name, tool.Name))
	}
	sb.WriteString("\n")

	sb.WriteString("## Calendar Selection\n\n")
	sb.WriteString("Every tool accepts an optional `calendarId`. When it is omitted the `primary` calendar of the authenticated account is used.\n\n")

	sb.WriteString("## Google Calendar Tools\n\n")
	for _, tool := range sorted {
		sb.WriteString(generateToolMarkdown(tool))
		sb.WriteString("\n")
	}

	return sb.String()
}

func generateToolMarkdown(tool mcp.Tool) string {
	var sb strings.Builder

	// Tool name
	sb.WriteString(fmt.Sprintf("### %s\n\n", tool.Name))

	// Description
	if tool.Description != "" {
		sb.WriteString(fmt.Sprintf("%s\n\n", tool.Description))
	}

	if hints := annotationHints(tool.Annotations); hints != "" {
		sb.WriteString(fmt.Sprintf("_%s_\n\n", hints))
	}

	// Input schema
	if len(tool.InputSchema.Properties) > 0 {
		sb.WriteString("**Arguments:**\n")
		writeProperties(&sb, tool.InputSchema.Properties, tool.InputSchema.Required, "")
		sb.WriteString("\n")
	}

	return sb.String()
}

// writeProperties renders one bullet per property, recursing into object
// and array-of-object schemas with deeper indentation.
func writeProperties(sb *strings.Builder, props map[string]any, required []string, indent string) {
	// Sort properties for consistent output
	propNames := make([]string, 0, len(props))
	for name := range props {
		propNames = append(propNames, name)
	}
	sort.Strings(propNames)

	for _, name := range propNames {
		propMap, ok := props[name].(map[string]any)
		if !ok {
			continue
		}

		requiredStr := "optional"
		if slices.Contains(required, name) {
			requiredStr = "required"
		}

		propType := getPropertyType(propMap)
		sb.WriteString(fmt.Sprintf("%s- `%s` (%s, %s): ", indent, name, propType, requiredStr))

		// Get description
		if desc, ok := propMap["description"].(string); ok {
			sb.WriteString(desc)
		} else {
			sb.WriteString(fmt.Sprintf("%s parameter", propType))
		}
		sb.WriteString("\n")

		nested, nestedRequired := nestedProperties(propMap)
		if len(nested) > 0 {
			writeProperties(sb, nested, nestedRequired, indent+"  ")
		}
	}
}

func nestedProperties(prop map[string]any) (map[string]any, []string) {
	schema := prop
	if items, ok := prop["items"].(map[string]any); ok {
		schema = items
	}
	nested, _ := schema["properties"].(map[string]any)
	return nested, requiredList(schema["required"])
}

func requiredList(v any) []string {
	switch r := v.(type) {
	case []string:
		return r
	case []any:
		out := make([]string, 0, len(r))
		for _, item := range r {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func annotationHints(a mcp.ToolAnnotation) string {
	var hints []string
	if a.ReadOnlyHint != nil && *a.ReadOnlyHint {
		hints = append(hints, "read-only")
	}
	if a.DestructiveHint != nil && *a.DestructiveHint && (a.ReadOnlyHint == nil || !*a.ReadOnlyHint) {
		hints = append(hints, "destructive")
	}
	if a.IdempotentHint != nil && *a.IdempotentHint {
		hints = append(hints, "idempotent")
	}
	return strings.Join(hints, ", ")
}

func getPropertyType(prop map[string]any) string {
	if t, ok := prop["type"].(string); ok {
		if t == "array" {
			if items, ok := prop["items"].(map[string]any); ok {
				if it, ok := items["type"].(string); ok {
					return "array of " + it
				}
			}
		}
		return t
	}
	return "any"
}
