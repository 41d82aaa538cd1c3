package router

import "fmt"

// AuthRequiredError rejects a protected call made without a valid session.
type AuthRequiredError struct {
	Tool  string
	State string
}

func (e *AuthRequiredError) Error() string {
	if e.State == "expired" {
		return fmt.Sprintf("authentication required for %s: session expired, please sign in again", e.Tool)
	}
	return fmt.Sprintf("authentication required for %s: no active session, please sign in first", e.Tool)
}

// UnknownToolError is returned for a name that is not in the catalog.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

// ArgumentError reports tool arguments that cannot be dispatched.
type ArgumentError struct {
	Message string
}

func (e *ArgumentError) Error() string {
	return "invalid arguments: " + e.Message
}
