package catalog

import (
	"regexp"
	"strings"
)

var (
	braceStripper = strings.NewReplacer("{", "", "}", "")
	validName     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// SynthesizeName derives a tool name from an HTTP verb and a path template,
// e.g. ("POST", "/users/{id}/roles") -> "post_users_id_roles".
//
// The verb and path are joined before sanitizing: braces must be removed
// while they are still recognizable, otherwise "/{id}" would become "__id_".
func SynthesizeName(verb, path string) string {
	p := strings.TrimPrefix(path, "/")
	p = braceStripper.Replace(p)
	p = strings.ReplaceAll(p, "/", "_")
	return SanitizeName(strings.ToLower(verb) + "_" + p)
}

// SanitizeName replaces every character outside [A-Za-z0-9_] with an
// underscore and prefixes an underscore when the result starts with a digit.
func SanitizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 1)
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" {
		return "_"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}

// IsValidName reports whether s is a bare identifier usable as a tool name.
func IsValidName(s string) bool {
	return validName.MatchString(s)
}
