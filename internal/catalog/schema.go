package catalog

import (
	"sort"
	"strings"

	"github.com/elnormous/contenttype"
)

var jsonMediaType = contenttype.NewMediaType("application/json")

// ArgumentSchema is the flattened object schema of a tool's arguments.
type ArgumentSchema struct {
	Properties map[string]any
	Required   []string
}

// ResolveSchema builds the argument schema of an operation: path and query
// parameters first, then the properties of the JSON request body. A body that
// is a "$ref" to a named component is resolved one level deep. Body
// properties overwrite parameters of the same name; required names are
// unioned in first-seen order.
func ResolveSchema(op Operation, components Components) ArgumentSchema {
	schema := ArgumentSchema{Properties: map[string]any{}, Required: []string{}}

	for _, p := range op.Parameters {
		if p.Name == "" || (p.In != "path" && p.In != "query") {
			continue
		}
		typ := "string"
		if t, ok := p.Schema["type"].(string); ok && t != "" {
			typ = t
		}
		desc := p.Description
		if desc == "" {
			desc = p.Name
		}
		schema.Properties[p.Name] = map[string]any{
			"type":        typ,
			"description": desc,
		}
		if p.Required {
			schema.Required = appendUnique(schema.Required, p.Name)
		}
	}

	body := jsonBodySchema(op.RequestBody)
	if body == nil {
		return schema
	}

	if ref, ok := body["$ref"].(string); ok {
		name := ref[strings.LastIndex(ref, "/")+1:]
		component, found := components.Schemas[name]
		if !found {
			return schema
		}
		body = component
	}

	if props, ok := body["properties"].(map[string]any); ok {
		for k, v := range props {
			schema.Properties[k] = v
		}
	}
	for _, name := range stringList(body["required"]) {
		schema.Required = appendUnique(schema.Required, name)
	}

	return schema
}

// jsonBodySchema returns the schema of the JSON media type of a request body.
// "application/json" wins over other JSON-compatible keys, which are
// considered in sorted order.
func jsonBodySchema(rb *RequestBody) map[string]any {
	if rb == nil || len(rb.Content) == 0 {
		return nil
	}
	if mt, ok := rb.Content["application/json"]; ok {
		return mt.Schema
	}
	keys := make([]string, 0, len(rb.Content))
	for k := range rb.Content {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		mt := contenttype.NewMediaType(k)
		if mt.Matches(jsonMediaType) {
			return rb.Content[k].Schema
		}
	}
	return nil
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
