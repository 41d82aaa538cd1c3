// Package router decides how a tool call interacts with the session and
// dispatches it to the remote service.
package router

import "strings"

// Class is the session policy applied to a tool call.
type Class string

const (
	ClassLogin     Class = "login"
	ClassLogout    Class = "logout"
	ClassPublic    Class = "public"
	ClassProtected Class = "protected"
)

// Marker maps a substring of a tool name or path to a class.
type Marker struct {
	Substring string
	Class     Class
}

// DefaultMarkers is checked in order and the first match wins. Login markers
// come before logout so that e.g. "signin" is never shadowed, and both come
// before the public markers. Anything unmatched is protected.
var DefaultMarkers = []Marker{
	{"signin", ClassLogin},
	{"sign_in", ClassLogin},
	{"sign-in", ClassLogin},
	{"login", ClassLogin},
	{"authenticate", ClassLogin},

	{"signout", ClassLogout},
	{"sign_out", ClassLogout},
	{"sign-out", ClassLogout},
	{"logout", ClassLogout},

	{"health", ClassPublic},
	{"signup", ClassPublic},
	{"sign_up", ClassPublic},
	{"sign-up", ClassPublic},
	{"register", ClassPublic},
	{"forgot", ClassPublic},
	{"send_otp", ClassPublic},
	{"send-otp", ClassPublic},
	{"otp/send", ClassPublic},
	{"verify_otp", ClassPublic},
	{"verify-otp", ClassPublic},
	{"otp/verify", ClassPublic},
	{"resend_otp", ClassPublic},
	{"resend-otp", ClassPublic},
	{"otp/resend", ClassPublic},
}

// Classify returns the class of the first marker contained in name or
// path, compared case-insensitively.
func Classify(markers []Marker, name, path string) Class {
	name = strings.ToLower(name)
	path = strings.ToLower(path)
	for _, m := range markers {
		sub := strings.ToLower(m.Substring)
		if sub == "" {
			continue
		}
		if strings.Contains(name, sub) || strings.Contains(path, sub) {
			return m.Class
		}
	}
	return ClassProtected
}
