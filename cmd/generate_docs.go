package cmd

import (
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	"github.com/teemow/mailcampaign/internal/config"
	"github.com/teemow/mailcampaign/internal/server"
	"github.com/teemow/mailcampaign/internal/store"
)

func newGenerateDocsCmd(opts *globalOptions) *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools.
The tools are registered against an in-memory store and introspected, so the
output always matches the tool definitions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			markdown, err := buildToolsMarkdown(cmd)
			if err != nil {
				return err
			}
			if outputFile == "" {
				_, err := io.WriteString(cmd.OutOrStdout(), markdown)
				return err
			}
			if err := os.WriteFile(outputFile, []byte(markdown), 0o644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			cmd.PrintErrf("Documentation written to: %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

// buildToolsMarkdown registers every tool twice, read-only and with writes
// enabled, to mark which tools need --yolo.
func buildToolsMarkdown(cmd *cobra.Command) (string, error) {
	listTools := func(readOnly bool) ([]mcp.Tool, error) {
		sc, err := server.NewServerContext(cmd.Context(), config.Default(), server.Options{KV: store.NewMemoryKV()})
		if err != nil {
			return nil, fmt.Errorf("failed to create server context: %w", err)
		}
		defer func() { _ = sc.Shutdown() }()

		mcpSrv := newMCPServer()
		if err := registerAllTools(mcpSrv, sc, readOnly); err != nil {
			return nil, err
		}
		serverTools := mcpSrv.ListTools()
		tools := make([]mcp.Tool, 0, len(serverTools))
		for _, st := range serverTools {
			tools = append(tools, st.Tool)
		}
		return tools, nil
	}

	readTools, err := listTools(true)
	if err != nil {
		return "", err
	}
	allTools, err := listTools(false)
	if err != nil {
		return "", err
	}
	readOnly := make(map[string]bool, len(readTools))
	for _, t := range readTools {
		readOnly[t.Name] = true
	}
	return generateToolsMarkdown(allTools, readOnly), nil
}

func generateToolsMarkdown(tools []mcp.Tool, readOnly map[string]bool) string {
	var sb strings.Builder

	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("This document lists every tool available when running mailcampaign as an MCP server.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")
	sb.WriteString("Tools marked *write* are only registered when the server runs with `--yolo`.\n\n")

	toolsByCategory := groupToolsByCategory(tools)

	sb.WriteString("## Table of Contents\n\n")
	categories := make([]string, 0, len(toolsByCategory))
	for category := range toolsByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		anchor := strings.ToLower(strings.ReplaceAll(category, " ", "-"))
		fmt.Fprintf(&sb, "- [%s](#%s)\n", category, anchor)
	}
	sb.WriteString("\n")

	for _, category := range categories {
		categoryTools := toolsByCategory[category]
		sort.Slice(categoryTools, func(i, j int) bool {
			return categoryTools[i].Name < categoryTools[j].Name
		})

		fmt.Fprintf(&sb, "## %s\n\n", category)
		for _, tool := range categoryTools {
			sb.WriteString(generateToolMarkdown(tool, !readOnly[tool.Name]))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func groupToolsByCategory(tools []mcp.Tool) map[string][]mcp.Tool {
	categories := make(map[string][]mcp.Tool)
	for _, tool := range tools {
		category := getCategoryFromToolName(tool.Name)
		categories[category] = append(categories[category], tool)
	}
	return categories
}

func getCategoryFromToolName(name string) string {
	prefix, _, _ := strings.Cut(name, "_")
	switch prefix {
	case "contacts":
		return "Contact Tools"
	case "groups":
		return "Group Tools"
	case "campaigns":
		return "Campaign Tools"
	case "auth":
		return "Session Tools"
	default:
		return "Other"
	}
}

func generateToolMarkdown(tool mcp.Tool, write bool) string {
	var sb strings.Builder

	if write {
		fmt.Fprintf(&sb, "### %s *(write)*\n\n", tool.Name)
	} else {
		fmt.Fprintf(&sb, "### %s\n\n", tool.Name)
	}

	if tool.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", tool.Description)
	}

	if len(tool.InputSchema.Properties) > 0 {
		sb.WriteString("**Arguments:**\n")

		propNames := make([]string, 0, len(tool.InputSchema.Properties))
		for name := range tool.InputSchema.Properties {
			propNames = append(propNames, name)
		}
		sort.Strings(propNames)

		for _, name := range propNames {
			propMap, ok := tool.InputSchema.Properties[name].(map[string]any)
			if !ok {
				continue
			}

			requiredStr := "optional"
			if slices.Contains(tool.InputSchema.Required, name) {
				requiredStr = "required"
			}

			fmt.Fprintf(&sb, "- `%s` (%s): ", name, requiredStr)
			if desc, ok := propMap["description"].(string); ok {
				sb.WriteString(desc)
			} else {
				fmt.Fprintf(&sb, "%s parameter", getPropertyType(propMap))
			}
			if values, ok := propMap["enum"].([]string); ok && len(values) > 0 {
				fmt.Fprintf(&sb, " One of: `%s`.", strings.Join(values, "`, `"))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func getPropertyType(prop map[string]any) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}
