package catalog

import (
	"net/http"

	"github.com/invopop/jsonschema"
)

// Argument structs of the built-in tools. Fields without omitempty are required.

type authenticateArgs struct {
	Username string `json:"username" jsonschema_description:"The user's username"`
	Password string `json:"password" jsonschema_description:"The user's password"`
}

type validateArgs struct {
	Token string `json:"token,omitempty" jsonschema_description:"The authentication token to validate; defaults to the current session token"`
}

type registerArgs struct {
	Username string `json:"username" jsonschema_description:"The user's desired username"`
	Email    string `json:"email" jsonschema_description:"The user's email address"`
	Password string `json:"password" jsonschema_description:"The user's password"`
}

type logoutArgs struct{}

type checkPermissionArgs struct {
	Permission string `json:"permission" jsonschema_description:"The permission to check"`
}

type rolesArgs struct{}

// Fallback returns the built-in catalog served when the API description is
// unavailable. Every call returns a fresh slice.
func Fallback() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "authenticate_user",
			Description: "Authenticate a user with username and password",
			Schema:      reflectSchema[authenticateArgs](),
			Path:        "/auth/login",
			Method:      http.MethodPost,
		},
		{
			Name:        "validate_token",
			Description: "Validate an authentication token",
			Schema:      reflectSchema[validateArgs](),
			Path:        "/auth/validate",
			Method:      http.MethodGet,
		},
		{
			Name:        "register_user",
			Description: "Register a new user",
			Schema:      reflectSchema[registerArgs](),
			Path:        "/auth/register",
			Method:      http.MethodPost,
		},
		{
			Name:        "logout_user",
			Description: "Log out the current session",
			Schema:      reflectSchema[logoutArgs](),
			Path:        "/auth/logout",
			Method:      http.MethodPost,
		},
		{
			Name:        "check_permission",
			Description: "Check if the current user has a specific permission",
			Schema:      reflectSchema[checkPermissionArgs](),
			Path:        "/auth/permission/{permission}",
			Method:      http.MethodGet,
		},
		{
			Name:        "get_user_roles",
			Description: "Get the roles of the current user",
			Schema:      reflectSchema[rolesArgs](),
			Path:        "/auth/roles",
			Method:      http.MethodGet,
		},
	}
}

// reflectSchema reflects a Go argument struct into an ArgumentSchema.
func reflectSchema[A any]() ArgumentSchema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	s := r.Reflect(new(A))

	schema := ArgumentSchema{Properties: map[string]any{}, Required: []string{}}
	if s == nil || s.Properties == nil {
		return schema
	}
	for el := s.Properties.Oldest(); el != nil; el = el.Next() {
		schema.Properties[el.Key] = map[string]any{
			"type":        el.Value.Type,
			"description": el.Value.Description,
		}
	}
	schema.Required = append(schema.Required, s.Required...)
	return schema
}
