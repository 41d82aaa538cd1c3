package router

import (
	"context"
	"strings"

	"github.com/bobmcallan/auth-mcp/internal/catalog"
	"github.com/bobmcallan/auth-mcp/internal/client"
	"github.com/bobmcallan/auth-mcp/internal/common"
	"github.com/bobmcallan/auth-mcp/internal/session"
)

// Catalog resolves tool names. Lookup may block until the catalog is built.
type Catalog interface {
	Lookup(ctx context.Context, name string) (catalog.ToolDefinition, bool, error)
}

// Credentials is the part of the session the router drives.
type Credentials interface {
	Status() session.Status
	Absorb(ctx context.Context, body []byte) bool
	Clear(ctx context.Context)
}

// Result is the outcome of a dispatched call.
type Result struct {
	Tool   string
	Class  Class
	Status int
	Body   []byte
	// SessionEstablished is set when a login call yielded a token.
	SessionEstablished bool
}

// Router applies session policy to tool calls and dispatches them.
type Router struct {
	catalog  Catalog
	session  Credentials
	executor client.Executor
	markers  []Marker
	logger   *common.Logger
}

// New creates a router using DefaultMarkers.
func New(cat Catalog, creds Credentials, exec client.Executor, logger *common.Logger) *Router {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Router{
		catalog:  cat,
		session:  creds,
		executor: exec,
		markers:  DefaultMarkers,
		logger:   logger,
	}
}

// WithMarkers replaces the classification table.
func (r *Router) WithMarkers(markers []Marker) *Router {
	r.markers = markers
	return r
}

// Call runs one tool call through classification, the session gate,
// dispatch and the post-dispatch session effects. A 401 from the remote
// clears the session whatever the class.
func (r *Router) Call(ctx context.Context, name string, args map[string]any) (Result, error) {
	logger := r.logger
	logger.Debug().Str("tool", name).Str("state", "received").Msg("tool call")

	tool, ok, err := r.catalog.Lookup(ctx, name)
	if err != nil {
		return Result{Tool: name}, err
	}
	if !ok {
		return Result{Tool: name}, &UnknownToolError{Name: name}
	}

	class := Classify(r.markers, tool.Name, tool.Path)
	res := Result{Tool: tool.Name, Class: class}
	logger.Debug().Str("tool", tool.Name).Str("class", string(class)).Str("state", "classified").Msg("tool call")

	path, params, err := SubstitutePath(tool.Path, args)
	if err != nil {
		return res, err
	}
	explicitToken := stripCredentials(params)

	// Credential arguments never stand in for a session.
	if class == ClassProtected {
		st := r.session.Status()
		if st.State != session.StateValid {
			if st.State == session.StateExpired {
				r.session.Clear(ctx)
			}
			logger.Debug().Str("tool", tool.Name).Str("session", string(st.State)).Str("state", "rejected").Msg("tool call")
			return res, &AuthRequiredError{Tool: tool.Name, State: string(st.State)}
		}
	}
	logger.Debug().Str("tool", tool.Name).Str("state", "authorized").Msg("tool call")

	callCtx := ctx
	switch {
	case explicitToken != "":
		callCtx = client.WithToken(ctx, explicitToken)
	case class == ClassLogin:
		callCtx = client.WithoutToken(ctx)
	}

	logger.Debug().Str("tool", tool.Name).Str("method", tool.Method).Str("path", path).Str("state", "dispatched").Msg("tool call")
	status, body, err := r.executor.Execute(callCtx, strings.ToUpper(tool.Method), path, params)
	res.Status, res.Body = status, body
	if err != nil {
		if client.IsUnauthorized(err) {
			logger.Info().Str("tool", tool.Name).Msg("remote rejected credentials, clearing session")
			r.session.Clear(ctx)
		}
		logger.Debug().Str("tool", tool.Name).Err(err).Str("state", "failed").Msg("tool call")
		return res, err
	}

	switch class {
	case ClassLogin:
		res.SessionEstablished = r.session.Absorb(ctx, body)
		if !res.SessionEstablished {
			logger.Warn().Str("tool", tool.Name).Msg("login response carried no recognizable token")
		}
	case ClassLogout:
		r.session.Clear(ctx)
	}
	logger.Debug().Str("tool", tool.Name).Int("status_code", status).Str("state", "completed").Msg("tool call")
	return res, nil
}
