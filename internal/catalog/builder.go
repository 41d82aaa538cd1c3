package catalog

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// ToolDefinition is one invocable operation of the catalog.
type ToolDefinition struct {
	Name        string
	Description string
	Schema      ArgumentSchema
	Path        string // path template, may contain {param} placeholders
	Method      string // upper-case HTTP verb
}

// Build turns a parsed description into tool definitions, one per (verb, path)
// in document order. A synthesized name that is already taken gets the first
// free numeric suffix ("_2", "_3", ...).
func Build(desc *Description) []ToolDefinition {
	if desc == nil {
		return nil
	}

	tools := make([]ToolDefinition, 0, desc.OperationCount())
	taken := make(map[string]bool, desc.OperationCount())

	for _, item := range desc.Paths {
		for _, op := range item.Operations {
			base := SynthesizeName(op.Verb, item.Path)
			name := base
			for i := 2; taken[name]; i++ {
				name = fmt.Sprintf("%s_%d", base, i)
			}
			taken[name] = true

			tools = append(tools, ToolDefinition{
				Name:        name,
				Description: describe(op, item.Path),
				Schema:      ResolveSchema(op, desc.Components),
				Path:        item.Path,
				Method:      strings.ToUpper(op.Verb),
			})
		}
	}

	return tools
}

func describe(op Operation, path string) string {
	if op.Summary != "" {
		return op.Summary
	}
	if op.Description != "" {
		return op.Description
	}
	return fmt.Sprintf("Call %s on %s", strings.ToUpper(op.Verb), path)
}

// MCPTool flattens the definition into the wire tool description.
func (t ToolDefinition) MCPTool() mcp.Tool {
	props := make(map[string]any, len(t.Schema.Properties))
	for k, v := range t.Schema.Properties {
		props[k] = v
	}
	required := make([]string, len(t.Schema.Required))
	copy(required, t.Schema.Required)

	tool := mcp.Tool{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   required,
		},
	}
	switch t.Method {
	case http.MethodGet:
		tool.Annotations.ReadOnlyHint = mcp.ToBoolPtr(true)
	case http.MethodDelete:
		tool.Annotations.DestructiveHint = mcp.ToBoolPtr(true)
	}
	return tool
}
