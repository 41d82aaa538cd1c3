package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/bobmcallan/auth-mcp/internal/router"
)

// request is the incoming envelope. ID stays raw so a missing id
// (notification) can be told apart from an explicit null.
type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// HandleMessage processes one request line and returns the response to
// send, or nil when the line needs no reply.
func (s *Server) HandleMessage(ctx context.Context, line []byte) any {
	var req request
	if err := json.Unmarshal(line, &req); err != nil || req.Method == "" {
		s.logger.Warn().Str("line", truncate(string(line), 200)).Msg("unparseable request")
		return parseError()
	}

	if len(req.ID) == 0 {
		s.logger.Debug().Str("method", req.Method).Msg("notification received")
		return nil
	}
	var id mcp.RequestId
	if err := json.Unmarshal(req.ID, &id); err != nil {
		s.logger.Warn().Str("id", string(req.ID)).Msg("invalid request id")
		return parseError()
	}

	switch mcp.MCPMethod(req.Method) {
	case mcp.MethodInitialize:
		return mcp.NewJSONRPCResultResponse(id, s.initialize(req.Params))
	case mcp.MethodPing:
		return mcp.NewJSONRPCResultResponse(id, mcp.EmptyResult{})
	case mcp.MethodToolsList:
		return s.listTools(ctx, id)
	case mcp.MethodToolsCall:
		return s.callTool(ctx, id, req.Params)
	default:
		s.logger.Debug().Str("method", req.Method).Msg("method not found")
		return mcp.NewJSONRPCError(id, mcp.METHOD_NOT_FOUND, fmt.Sprintf("Method not found: %s", req.Method), nil)
	}
}

func parseError() mcp.JSONRPCError {
	return mcp.NewJSONRPCError(mcp.NewRequestId(nil), mcp.PARSE_ERROR, "Parse error", nil)
}

// initialize echoes the client's protocol version when it is one we know,
// otherwise offers the latest.
func (s *Server) initialize(params json.RawMessage) mcp.InitializeResult {
	var p mcp.InitializeParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			s.logger.Debug().Err(err).Msg("malformed initialize params, offering latest protocol version")
			p = mcp.InitializeParams{}
		}
	}
	version := mcp.LATEST_PROTOCOL_VERSION
	if slices.Contains(mcp.ValidProtocolVersions, p.ProtocolVersion) {
		version = p.ProtocolVersion
	}
	s.logger.Info().
		Str("client", p.ClientInfo.Name).
		Str("protocol_version", version).
		Msg("client initialized")

	return mcp.InitializeResult{
		ProtocolVersion: version,
		Capabilities: mcp.ServerCapabilities{
			Tools: &struct {
				ListChanged bool `json:"listChanged,omitempty"`
			}{},
		},
		ServerInfo: mcp.Implementation{Name: s.name, Version: s.version},
	}
}

func (s *Server) listTools(ctx context.Context, id mcp.RequestId) any {
	defs, err := s.tools.Tools(ctx)
	if err != nil {
		return mcp.NewJSONRPCError(id, mcp.INTERNAL_ERROR, fmt.Sprintf("tool catalog unavailable: %v", err), nil)
	}
	tools := make([]mcp.Tool, len(defs))
	for i, d := range defs {
		tools[i] = d.MCPTool()
	}
	return mcp.NewJSONRPCResultResponse(id, mcp.ListToolsResult{Tools: tools})
}

func (s *Server) callTool(ctx context.Context, id mcp.RequestId, raw json.RawMessage) any {
	var p callParams
	if len(raw) == 0 || json.Unmarshal(raw, &p) != nil || p.Name == "" {
		return mcp.NewJSONRPCError(id, mcp.INVALID_PARAMS, "Invalid params: tools/call requires a tool name", nil)
	}
	if p.Arguments == nil {
		p.Arguments = map[string]any{}
	}

	logger := s.logger.WithCorrelationId(uuid.NewString())
	start := time.Now()
	res, err := s.caller.Call(ctx, p.Name, p.Arguments)
	duration := time.Since(start)
	if err != nil {
		logger.Warn().
			Str("tool", p.Name).
			Str("class", string(res.Class)).
			Dur("duration", duration).
			Err(err).
			Msg("tool call failed")
		code := mcp.INTERNAL_ERROR
		var argErr *router.ArgumentError
		if errors.As(err, &argErr) {
			code = mcp.INVALID_PARAMS
		}
		return mcp.NewJSONRPCError(id, code, err.Error(), nil)
	}

	logger.Info().
		Str("tool", res.Tool).
		Str("class", string(res.Class)).
		Int("status_code", res.Status).
		Dur("duration", duration).
		Msg("tool call completed")

	return mcp.NewJSONRPCResultResponse(id, mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(renderBody(res.Status, res.Body))},
	})
}

// renderBody pretty-prints JSON bodies and passes anything else through.
func renderBody(status int, body []byte) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Sprintf("Request completed with status %d", status)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err == nil {
		return out.String()
	}
	return string(body)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
