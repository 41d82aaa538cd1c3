package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// RemoteError is returned when the service answered with an error status.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("API Error: %d - %s", e.Status, e.Message)
}

// NetworkError is returned when no response was received.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("Network Error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsUnauthorized reports whether err is a 401 from the remote service.
func IsUnauthorized(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Status == http.StatusUnauthorized
}

// parseErrorResponse builds a RemoteError from an error body, preferring
// the service's own message fields over the status text.
func parseErrorResponse(status int, body []byte) *RemoteError {
	var errResp struct {
		Message          string `json:"message"`
		Error            any    `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	msg := ""
	if json.Unmarshal(body, &errResp) == nil {
		switch {
		case errResp.Message != "":
			msg = errResp.Message
		case errResp.ErrorDescription != "":
			msg = errResp.ErrorDescription
		default:
			msg = errorField(errResp.Error)
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
		if len(msg) > 200 || strings.ContainsAny(msg, "{<") {
			msg = ""
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &RemoteError{Status: status, Message: msg}
}

// errorField handles both {"error":"text"} and {"error":{"message":"text"}}.
func errorField(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if m, ok := t["message"].(string); ok {
			return m
		}
	}
	return ""
}
