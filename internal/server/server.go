// Package server runs the line-delimited JSON-RPC loop that exposes the
// tool catalog to MCP clients.
package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/auth-mcp/internal/catalog"
	"github.com/bobmcallan/auth-mcp/internal/common"
	"github.com/bobmcallan/auth-mcp/internal/router"
)

// maxLineSize bounds a single request line (4MB).
const maxLineSize = 4 << 20

// ToolLister supplies the catalog, waiting for it to be built if necessary.
type ToolLister interface {
	Tools(ctx context.Context) ([]catalog.ToolDefinition, error)
}

// ToolCaller executes a tool call.
type ToolCaller interface {
	Call(ctx context.Context, name string, args map[string]any) (router.Result, error)
}

// Server answers MCP requests read one per line.
type Server struct {
	name          string
	version       string
	tools         ToolLister
	caller        ToolCaller
	logger        *common.Logger
	maxConcurrent int

	writeMu sync.Mutex
}

// New creates a server identifying itself as name/version.
func New(name, version string, tools ToolLister, caller ToolCaller, logger *common.Logger) *Server {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Server{
		name:          name,
		version:       version,
		tools:         tools,
		caller:        caller,
		logger:        logger,
		maxConcurrent: 1,
	}
}

// WithMaxConcurrent sets how many requests may be handled at once.
// Values below 1 mean one.
func (s *Server) WithMaxConcurrent(n int) *Server {
	if n < 1 {
		n = 1
	}
	s.maxConcurrent = n
	return s
}

// Serve reads requests from r and writes responses to w until r is
// exhausted or ctx is done. On end of input it waits for in-flight requests
// before returning. A read error other than EOF is returned.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	var g errgroup.Group
	g.SetLimit(s.maxConcurrent)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("shutting down, context done")
			return nil
		case line, ok := <-lines:
			if !ok {
				g.Wait()
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("failed to read request: %w", err)
					}
				default:
				}
				s.logger.Info().Msg("input closed, shutting down")
				return nil
			}
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			g.Go(func() error {
				if resp := s.HandleMessage(ctx, line); resp != nil {
					s.write(w, resp)
				}
				return nil
			})
		}
	}
}

// write emits one response as a single line.
func (s *Server) write(w io.Writer, resp any) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
		return
	}
	data = append(data, '\n')

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := w.Write(data); err != nil {
		s.logger.Error().Err(err).Msg("failed to write response")
	}
}
