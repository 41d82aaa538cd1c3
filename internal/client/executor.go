// Package client sends tool calls to the remote authentication service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/bobmcallan/auth-mcp/internal/common"
)

// maxResponseSize caps remote response bodies (4MB).
const maxResponseSize = 4 << 20

// Executor performs one HTTP call against the remote service. On a status
// of 400 or above it returns the status and body together with a
// *RemoteError.
type Executor interface {
	Execute(ctx context.Context, method, path string, params map[string]any) (int, []byte, error)
}

// TokenSource supplies the bearer token for outgoing requests.
type TokenSource interface {
	BearerToken() (string, bool)
}

type tokenKey struct{}

// WithToken returns a context whose requests use token as the bearer,
// overriding the TokenSource.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// WithoutToken returns a context whose requests carry no bearer.
func WithoutToken(ctx context.Context) context.Context {
	return context.WithValue(ctx, tokenKey{}, "")
}

// TokenFromContext reports the bearer override set by WithToken or
// WithoutToken. ok is false when the context carries no override.
func TokenFromContext(ctx context.Context) (token string, ok bool) {
	token, ok = ctx.Value(tokenKey{}).(string)
	return token, ok
}

// HTTPExecutor is the net/http Executor.
type HTTPExecutor struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *common.Logger
}

// NewHTTPExecutor creates an executor for the service at baseURL. tokens may be nil.
func NewHTTPExecutor(baseURL string, timeout time.Duration, tokens TokenSource, logger *common.Logger) *HTTPExecutor {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &HTTPExecutor{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		logger:     logger,
	}
}

// Execute sends the request. GET carries params as a query string, the
// other verbs as a JSON body when params is non-empty.
func (e *HTTPExecutor) Execute(ctx context.Context, method, path string, params map[string]any) (int, []byte, error) {
	method = strings.ToUpper(method)
	target := e.baseURL + path

	var body io.Reader
	if method == http.MethodGet {
		if q := encodeQuery(params); q != "" {
			sep := "?"
			if strings.Contains(target, "?") {
				sep = "&"
			}
			target += sep + q
		}
	} else if len(params) > 0 {
		data, err := json.Marshal(params)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return 0, nil, &NetworkError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := e.bearer(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	e.logger.Debug().
		Str("method", method).
		Str("path", path).
		Msg("Remote Request")

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		e.logger.Error().Err(err).Str("path", path).Dur("duration", duration).Msg("Remote Request Failed")
		return 0, nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return resp.StatusCode, nil, &NetworkError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	e.logger.Debug().
		Int("status_code", resp.StatusCode).
		Dur("duration", duration).
		Msg("Remote Response")

	if resp.StatusCode >= 400 {
		return resp.StatusCode, respBody, parseErrorResponse(resp.StatusCode, respBody)
	}
	return resp.StatusCode, respBody, nil
}

func (e *HTTPExecutor) bearer(ctx context.Context) (string, bool) {
	if v, ok := TokenFromContext(ctx); ok {
		return v, v != ""
	}
	if e.tokens == nil {
		return "", false
	}
	return e.tokens.BearerToken()
}

// encodeQuery renders params in key order. Slices repeat the key.
func encodeQuery(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := url.Values{}
	for _, k := range keys {
		switch v := params[k].(type) {
		case nil:
		case []any:
			for _, item := range v {
				values.Add(k, scalar(item))
			}
		case []string:
			for _, item := range v {
				values.Add(k, item)
			}
		default:
			values.Add(k, scalar(v))
		}
	}
	return values.Encode()
}

func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any, []any:
		data, _ := json.Marshal(t)
		return string(data)
	default:
		return fmt.Sprint(t)
	}
}
