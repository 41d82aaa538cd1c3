package session

import (
	"math"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tidwall/gjson"
)

// Probe lists the gjson paths searched, in order, when extracting a token
// and its expiry from a login response. The first non-empty match wins.
type Probe struct {
	TokenPaths     []string
	ExpiresInPaths []string
	ExpiresAtPaths []string
}

// DefaultProbe covers the response shapes seen from common auth services:
// fields at the top level, under "data", and under "data.session".
var DefaultProbe = Probe{
	TokenPaths:     nested("accessToken", "access_token", "token"),
	ExpiresInPaths: nested("expiresIn", "expires_in"),
	ExpiresAtPaths: nested("expiresAt", "expires_at"),
}

func nested(fields ...string) []string {
	var paths []string
	for _, prefix := range []string{"", "data.", "data.session."} {
		for _, f := range fields {
			paths = append(paths, prefix+f)
		}
	}
	return paths
}

// Token returns the first non-empty string found at one of the token paths.
func (p Probe) Token(body []byte) (string, bool) {
	if !gjson.ValidBytes(body) {
		return "", false
	}
	for _, path := range p.TokenPaths {
		r := gjson.GetBytes(body, path)
		if r.Type == gjson.String && r.Str != "" {
			return r.Str, true
		}
	}
	return "", false
}

// Expiry works out when token expires. Relative seconds take precedence
// over an absolute unix timestamp, which takes precedence over a JWT exp
// claim. Returns nil when nothing usable is found.
func (p Probe) Expiry(body []byte, token string, now time.Time) *time.Time {
	if secs, ok := firstNumber(body, p.ExpiresInPaths); ok {
		if secs >= maxDurationSeconds {
			return nil
		}
		at := now.Add(time.Duration(secs * float64(time.Second)))
		return &at
	}
	if unix, ok := firstNumber(body, p.ExpiresAtPaths); ok {
		if unix >= millisThreshold {
			unix /= 1000
		}
		if unix >= maxUnixSeconds {
			return nil
		}
		at := time.Unix(int64(unix), 0)
		return &at
	}
	return jwtExpiry(token)
}

const (
	// Relative lifetimes this long cannot be represented as a Duration
	// and are treated as unbounded.
	maxDurationSeconds = float64(math.MaxInt64) / float64(time.Second)
	// Absolute expiries at or above this are unix milliseconds (year 33658
	// in seconds).
	millisThreshold = 1e12
	maxUnixSeconds  = float64(math.MaxInt64) / 1000
)

func firstNumber(body []byte, paths []string) (float64, bool) {
	for _, path := range paths {
		r := gjson.GetBytes(body, path)
		if r.Type != gjson.Number && r.Type != gjson.String {
			continue
		}
		if v := r.Float(); v > 0 {
			return v, true
		}
	}
	return 0, false
}

// jwtExpiry reads the exp claim without verifying the signature. The token
// is opaque to this process; the claim only hints at when to stop sending it.
func jwtExpiry(token string) *time.Time {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	at := exp.Time
	return &at
}
