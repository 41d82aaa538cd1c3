package router

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var placeholder = regexp.MustCompile(`\{([^{}]+)\}`)

// credentialArgs are never forwarded; the session supplies credentials.
var credentialArgs = []string{"token", "authorization"}

// SubstitutePath fills each {name} in template with the path-escaped
// argument of the same name. It returns the concrete path and the
// arguments left over for the query string or body. args is not modified.
func SubstitutePath(template string, args map[string]any) (string, map[string]any, error) {
	rest := make(map[string]any, len(args))
	for k, v := range args {
		rest[k] = v
	}

	var missing []string
	path := placeholder.ReplaceAllStringFunc(template, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := rest[name]
		if !ok || v == nil {
			missing = append(missing, name)
			return m
		}
		delete(rest, name)
		return url.PathEscape(argString(v))
	})
	if len(missing) > 0 {
		return "", nil, &ArgumentError{Message: fmt.Sprintf("missing path argument(s): %s", strings.Join(missing, ", "))}
	}
	return path, rest, nil
}

// stripCredentials removes credential arguments from args and returns an
// explicit token if one was passed.
func stripCredentials(args map[string]any) string {
	var token string
	for _, name := range credentialArgs {
		if v, ok := args[name]; ok {
			if s, ok := v.(string); ok && token == "" {
				token = strings.TrimSpace(strings.TrimPrefix(s, "Bearer "))
			}
			delete(args, name)
		}
	}
	return token
}

func argString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprint(t)
	default:
		return fmt.Sprint(t)
	}
}
