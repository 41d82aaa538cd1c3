package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildFrom(t *testing.T, doc string) []ToolDefinition {
	t.Helper()
	desc, err := ParseDescription([]byte(doc))
	require.NoError(t, err)
	return Build(desc)
}

func TestBuild_SignIn(t *testing.T) {
	tools := buildFrom(t, `{"paths":{"/auth/signin":{"post":{"summary":"Sign in"}}}}`)

	require.Len(t, tools, 1)
	assert.Equal(t, "post_auth_signin", tools[0].Name)
	assert.Equal(t, "Sign in", tools[0].Description)
	assert.Empty(t, tools[0].Schema.Required)
	assert.Equal(t, "/auth/signin", tools[0].Path)
	assert.Equal(t, "POST", tools[0].Method)
}

func TestBuild_ComponentRef(t *testing.T) {
	tools := buildFrom(t, `{
  "paths": {
    "/users/{id}": {
      "put": {
        "parameters": [
          {"name": "id", "in": "path", "required": true, "schema": {"type": "integer"}},
          {"name": "X-Trace", "in": "header", "schema": {"type": "string"}}
        ],
        "requestBody": {
          "content": {"application/json": {"schema": {"$ref": "#/components/schemas/Foo"}}}
        }
      }
    }
  },
  "components": {
    "schemas": {
      "Foo": {
        "type": "object",
        "properties": {"a": {"type": "string"}, "b": {"type": "number"}},
        "required": ["a"]
      }
    }
  }
}`)

	require.Len(t, tools, 1)
	schema := tools[0].Schema
	assert.Len(t, schema.Properties, 3)
	assert.Contains(t, schema.Properties, "a")
	assert.Contains(t, schema.Properties, "b")
	assert.Equal(t, map[string]any{"type": "integer", "description": "id"}, schema.Properties["id"])
	assert.NotContains(t, schema.Properties, "X-Trace")
	assert.Equal(t, []string{"id", "a"}, schema.Required)
}

func TestBuild_MissingComponentRef(t *testing.T) {
	tools := buildFrom(t, `{"paths":{"/x":{"post":{"requestBody":{"content":{"application/json":{"schema":{"$ref":"#/components/schemas/Nope"}}}}}}}}`)

	require.Len(t, tools, 1)
	assert.Empty(t, tools[0].Schema.Properties)
	assert.Empty(t, tools[0].Schema.Required)
}

func TestBuild_InlineBodyOverridesParameter(t *testing.T) {
	tools := buildFrom(t, `
paths:
  /items:
    post:
      parameters:
        - name: name
          in: query
          required: true
          description: query name
      requestBody:
        content:
          application/json; charset=utf-8:
            schema:
              properties:
                name:
                  type: string
                  description: body name
                count:
                  type: integer
              required: [name, count]
`)

	require.Len(t, tools, 1)
	schema := tools[0].Schema
	assert.Equal(t, map[string]any{"type": "string", "description": "body name"}, schema.Properties["name"])
	assert.Equal(t, []string{"name", "count"}, schema.Required)
}

func TestBuild_DocumentOrderAndVerbFilter(t *testing.T) {
	tools := buildFrom(t, `{"paths":{
"/z":{"get":{},"parameters":[],"options":{},"delete":{}},
"/a":{"head":{},"post":{"description":"Create an a"}}}}`)

	require.Len(t, tools, 3)
	assert.Equal(t, "get_z", tools[0].Name)
	assert.Equal(t, "delete_z", tools[1].Name)
	assert.Equal(t, "post_a", tools[2].Name)
	assert.Equal(t, "Call GET on /z", tools[0].Description)
	assert.Equal(t, "Create an a", tools[2].Description)
}

func TestParseDescription_Errors(t *testing.T) {
	for name, doc := range map[string]string{
		"empty":     "",
		"malformed": `{"paths":`,
		"array":     `[1,2]`,
		"bad paths": `{"paths":[1]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDescription([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestParseDescription_NoPathsIsEmpty(t *testing.T) {
	desc, err := ParseDescription([]byte(`{"openapi":"3.0.0"}`))
	require.NoError(t, err)
	assert.True(t, desc.Empty())
}

func TestToolDefinition_MCPTool(t *testing.T) {
	def := ToolDefinition{
		Name:        "get_users_id",
		Description: "Get a user",
		Schema: ArgumentSchema{
			Properties: map[string]any{"id": map[string]any{"type": "string", "description": "id"}},
			Required:   []string{"id"},
		},
		Path:   "/users/{id}",
		Method: "GET",
	}

	tool := def.MCPTool()
	assert.Equal(t, "get_users_id", tool.Name)
	assert.Equal(t, "object", tool.InputSchema.Type)
	assert.Equal(t, []string{"id"}, tool.InputSchema.Required)
	require.NotNil(t, tool.Annotations.ReadOnlyHint)
	assert.True(t, *tool.Annotations.ReadOnlyHint)
	assert.Nil(t, tool.Annotations.DestructiveHint)

	tool.InputSchema.Required[0] = "changed"
	assert.Equal(t, "id", def.Schema.Required[0])

	del := ToolDefinition{Name: "delete_x", Method: "DELETE"}.MCPTool()
	require.NotNil(t, del.Annotations.DestructiveHint)
	assert.True(t, *del.Annotations.DestructiveHint)
}
