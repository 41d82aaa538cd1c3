package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bobmcallan/auth-mcp/internal/common"
)

// Source identifies where a loaded catalog came from.
type Source string

const (
	SourceDescription Source = "description"
	SourceFallback    Source = "fallback"
)

// defaultFetchTimeout bounds the description fetch when no timeout is configured.
const defaultFetchTimeout = 10 * time.Second

// UnavailableError reports why the API description could not be turned into
// a catalog. It is logged and answered with the fallback catalog, never
// returned to protocol clients.
type UnavailableError struct {
	Location string
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("API description %q unavailable: %v", e.Location, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Loader builds the catalog once per process and lets any number of callers
// wait for the result.
type Loader struct {
	fetcher  Fetcher
	location string
	timeout  time.Duration
	logger   *common.Logger

	once   sync.Once
	done   chan struct{}
	tools  []ToolDefinition
	index  map[string]int
	source Source
}

// NewLoader creates a loader for the description at location. An empty
// location selects the fallback catalog without fetching.
func NewLoader(fetcher Fetcher, location string, timeout time.Duration, logger *common.Logger) *Loader {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Loader{
		fetcher:  fetcher,
		location: location,
		timeout:  timeout,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start begins building the catalog in the background. Only the first call
// has an effect. Cancelling ctx does not abort a build already waited on by
// other callers; the fetch is bounded by the loader's own timeout.
func (l *Loader) Start(ctx context.Context) {
	l.once.Do(func() {
		go l.load(context.WithoutCancel(ctx))
	})
}

// Tools waits for the catalog and returns it. Every caller gets the same
// slice, which must not be modified.
func (l *Loader) Tools(ctx context.Context) ([]ToolDefinition, error) {
	l.Start(ctx)
	select {
	case <-l.done:
		return l.tools, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Lookup waits for the catalog and returns the tool with the given name.
func (l *Loader) Lookup(ctx context.Context, name string) (ToolDefinition, bool, error) {
	if _, err := l.Tools(ctx); err != nil {
		return ToolDefinition{}, false, err
	}
	i, ok := l.index[name]
	if !ok {
		return ToolDefinition{}, false, nil
	}
	return l.tools[i], true, nil
}

// Source reports where the catalog came from. Empty until the build completes.
func (l *Loader) Source() Source {
	select {
	case <-l.done:
		return l.source
	default:
		return ""
	}
}

func (l *Loader) load(ctx context.Context) {
	defer close(l.done)
	defer func() {
		if r := recover(); r != nil {
			l.useFallback(&UnavailableError{Location: l.location, Err: fmt.Errorf("catalog build panicked: %v", r)})
		}
	}()

	if l.location == "" {
		l.logger.Info().Msg("no API description configured, using fallback catalog")
		l.useFallback(nil)
		return
	}

	tools, err := l.build(ctx)
	if err != nil {
		l.useFallback(err)
		return
	}
	l.set(tools, SourceDescription)
	l.logger.Info().
		Int("tools", len(tools)).
		Str("location", l.location).
		Msg("loaded tools from API description")
}

func (l *Loader) build(ctx context.Context) ([]ToolDefinition, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	data, err := l.fetcher.FetchDocument(ctx, l.location)
	if err != nil {
		return nil, &UnavailableError{Location: l.location, Err: err}
	}
	desc, err := ParseDescription(data)
	if err != nil {
		return nil, &UnavailableError{Location: l.location, Err: err}
	}
	for _, w := range desc.Warnings {
		l.logger.Warn().Str("detail", w).Msg("skipping undecodable operation")
	}
	if desc.Empty() {
		return nil, &UnavailableError{Location: l.location, Err: fmt.Errorf("description has no operations")}
	}
	return Build(desc), nil
}

func (l *Loader) useFallback(err error) {
	if err != nil {
		l.logger.Warn().Str("error", err.Error()).Msg("failed to load API description, using fallback catalog")
	}
	l.set(Fallback(), SourceFallback)
}

func (l *Loader) set(tools []ToolDefinition, source Source) {
	index := make(map[string]int, len(tools))
	for i, t := range tools {
		index[t.Name] = i
	}
	l.tools = tools
	l.index = index
	l.source = source
}
