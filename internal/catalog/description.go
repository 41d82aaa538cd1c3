package catalog

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// supportedVerbs is the whitelist of operation keys under a path item.
var supportedVerbs = map[string]bool{
	"get": true, "post": true, "put": true, "patch": true, "delete": true,
}

// Description is a parsed API description: paths and their operations in
// document order, plus the named schema components a request body may refer to.
type Description struct {
	Paths      []PathItem
	Components Components
	// Warnings lists operations that were skipped because they could not be decoded.
	Warnings []string
}

// PathItem is one entry of the description's paths mapping.
type PathItem struct {
	Path       string
	Operations []Operation
}

// Operation describes one HTTP verb on a path.
type Operation struct {
	Verb        string       `yaml:"-"` // lower-case
	Summary     string       `yaml:"summary"`
	Description string       `yaml:"description"`
	OperationID string       `yaml:"operationId"`
	Parameters  []Parameter  `yaml:"parameters"`
	RequestBody *RequestBody `yaml:"requestBody"`
}

// Parameter is a declared operation parameter.
type Parameter struct {
	Name        string         `yaml:"name"`
	In          string         `yaml:"in"` // path, query, header, cookie
	Description string         `yaml:"description"`
	Required    bool           `yaml:"required"`
	Schema      map[string]any `yaml:"schema"`
}

// RequestBody holds the request body content keyed by media type.
type RequestBody struct {
	Content map[string]MediaTypeObject `yaml:"content"`
}

// MediaTypeObject holds the schema for one request body media type.
type MediaTypeObject struct {
	Schema map[string]any `yaml:"schema"`
}

// Components holds the named schemas a body schema may reference.
type Components struct {
	Schemas map[string]map[string]any `yaml:"schemas"`
}

// OperationCount returns the number of supported operations in the description.
func (d *Description) OperationCount() int {
	n := 0
	for _, p := range d.Paths {
		n += len(p.Operations)
	}
	return n
}

// Empty reports whether the description has no usable operation.
func (d *Description) Empty() bool {
	return d == nil || d.OperationCount() == 0
}

// ParseDescription parses a JSON or YAML API description. JSON is accepted
// through the YAML parser so that mapping order is preserved.
func ParseDescription(data []byte) (*Description, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse API description: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("API description is empty")
	}
	root := resolve(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("API description root must be an object")
	}

	desc := &Description{}

	if comps := mappingValue(root, "components"); comps != nil && comps.Kind == yaml.MappingNode {
		if err := comps.Decode(&desc.Components); err != nil {
			desc.Warnings = append(desc.Warnings, fmt.Sprintf("components: %v", err))
		}
	}

	paths := mappingValue(root, "paths")
	if paths == nil {
		return desc, nil
	}
	if paths.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("API description paths must be an object")
	}

	for i := 0; i+1 < len(paths.Content); i += 2 {
		path := paths.Content[i].Value
		item := resolve(paths.Content[i+1])
		if item.Kind != yaml.MappingNode {
			continue
		}

		pi := PathItem{Path: path}
		for j := 0; j+1 < len(item.Content); j += 2 {
			verb := strings.ToLower(item.Content[j].Value)
			if !supportedVerbs[verb] {
				continue
			}
			opNode := resolve(item.Content[j+1])
			if opNode.Kind != yaml.MappingNode {
				continue
			}
			var op Operation
			if err := opNode.Decode(&op); err != nil {
				desc.Warnings = append(desc.Warnings, fmt.Sprintf("%s %s: %v", strings.ToUpper(verb), path, err))
				continue
			}
			op.Verb = verb
			pi.Operations = append(pi.Operations, op)
		}
		desc.Paths = append(desc.Paths, pi)
	}

	return desc, nil
}

// mappingValue returns the value node for key in a mapping node, or nil.
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return resolve(node.Content[i+1])
		}
	}
	return nil
}

// resolve follows YAML aliases.
func resolve(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}
