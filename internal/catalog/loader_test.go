package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/auth-mcp/internal/common"
)

type stubFetcher struct {
	mu    sync.Mutex
	calls int
	data  []byte
	err   error
	block bool
}

func (f *stubFetcher) FetchDocument(ctx context.Context, _ string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.data, f.err
}

func (f *stubFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testLogger() *common.Logger {
	return common.NewLoggerFromConfig(common.LoggingConfig{Level: "error"})
}

func TestFallback(t *testing.T) {
	tools := Fallback()
	require.Len(t, tools, 6)

	names := make([]string, len(tools))
	for i, tool := range tools {
		names[i] = tool.Name
		assert.True(t, IsValidName(tool.Name), tool.Name)
		assert.NotEmpty(t, tool.Description)
		assert.NotEmpty(t, tool.Path)
		assert.NotEmpty(t, tool.Method)
	}
	assert.Equal(t, []string{
		"authenticate_user", "validate_token", "register_user",
		"logout_user", "check_permission", "get_user_roles",
	}, names)

	auth := tools[0].Schema
	assert.ElementsMatch(t, []string{"username", "password"}, auth.Required)
	assert.Equal(t, "string", auth.Properties["username"].(map[string]any)["type"])

	assert.Empty(t, tools[1].Schema.Required, "token is optional")
	assert.Contains(t, tools[1].Schema.Properties, "token")
	assert.ElementsMatch(t, []string{"username", "email", "password"}, tools[2].Schema.Required)
	assert.Empty(t, tools[3].Schema.Properties)
	assert.Equal(t, []string{"permission"}, tools[4].Schema.Required)

	tools[0].Name = "mutated"
	assert.Equal(t, "authenticate_user", Fallback()[0].Name)
}

func TestLoader_FromDescription(t *testing.T) {
	f := &stubFetcher{data: []byte(`{"paths":{"/auth/signin":{"post":{"summary":"Sign in"}},"/me":{"get":{}}}}`)}
	l := NewLoader(f, "http://remote/swagger.json", time.Second, testLogger())

	tools, err := l.Tools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 2)
	assert.Equal(t, SourceDescription, l.Source())

	tool, ok, err := l.Lookup(context.Background(), "get_me")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/me", tool.Path)

	_, ok, err = l.Lookup(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoader_FallbackCases(t *testing.T) {
	tests := []struct {
		name    string
		fetcher *stubFetcher
	}{
		{"fetch error", &stubFetcher{err: errors.New("connection refused")}},
		{"malformed", &stubFetcher{data: []byte(`{"paths":`)}},
		{"no operations", &stubFetcher{data: []byte(`{"paths":{"/x":{"options":{}}}}`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLoader(tt.fetcher, "http://remote/swagger.json", time.Second, testLogger())
			tools, err := l.Tools(context.Background())
			require.NoError(t, err)
			assert.Len(t, tools, 6)
			assert.Equal(t, SourceFallback, l.Source())
		})
	}
}

func TestLoader_NoLocationSkipsFetch(t *testing.T) {
	f := &stubFetcher{}
	l := NewLoader(f, "", time.Second, testLogger())

	tools, err := l.Tools(context.Background())
	require.NoError(t, err)
	assert.Len(t, tools, 6)
	assert.Equal(t, 0, f.Calls())
}

func TestLoader_HangingFetchFallsBack(t *testing.T) {
	f := &stubFetcher{block: true}
	l := NewLoader(f, "http://remote/swagger.json", 50*time.Millisecond, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tools, err := l.Tools(ctx)
	require.NoError(t, err)
	assert.Len(t, tools, 6)
}

func TestLoader_BuildsOnce(t *testing.T) {
	f := &stubFetcher{data: []byte(`{"paths":{"/a":{"get":{}}}}`)}
	l := NewLoader(f, "http://remote/swagger.json", time.Second, testLogger())
	l.Start(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tools, err := l.Tools(context.Background())
			assert.NoError(t, err)
			assert.Len(t, tools, 1)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, f.Calls())
}

func TestLoader_WaiterContextCancelled(t *testing.T) {
	f := &stubFetcher{block: true}
	l := NewLoader(f, "http://remote/swagger.json", time.Minute, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Tools(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Source(""), l.Source())
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"paths":{}}`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(time.Second)

	data, err := f.FetchDocument(context.Background(), srv.URL+"/swagger.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"paths":{}}`, string(data))

	_, err = f.FetchDocument(context.Background(), srv.URL+"/missing")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "api.yaml")
	require.NoError(t, os.WriteFile(path, []byte("paths: {}\n"), 0600))
	data, err = f.FetchDocument(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, "paths: {}\n", string(data))
}
