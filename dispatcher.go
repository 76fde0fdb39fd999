package httpaction

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Dispatcher is the HTTP boundary of an HTTPActionFactory.  For each
// request it installs ambient request state, invokes the action named by
// the URL path, renders what the action returned, and clears the ambient
// state again.
//
// Rendering: nil renders nothing (the action is assumed to have written
// the response itself), a string is written as text/plain, a []byte as
// application/octet-stream, and anything else is encoded as JSON.  An
// unknown path is a 404 and a failed invocation a 500.
type Dispatcher struct {
	factory   *HTTPActionFactory
	server    *ServerContext
	logger    *zap.Logger
	metrics   *Metrics
	extension string
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger overrides the logger, which defaults to the one of
// the factory.
func WithDispatcherLogger(l *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

func WithMetrics(m *Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithExtension makes the dispatcher strip a suffix such as ".do" from
// request paths before looking up the action.
func WithExtension(ext string) DispatcherOption {
	return func(d *Dispatcher) { d.extension = ext }
}

// NewDispatcher creates a Dispatcher.  A nil sc gets a default
// ServerContext.
func NewDispatcher(f *HTTPActionFactory, sc *ServerContext, opts ...DispatcherOption) *Dispatcher {
	if sc == nil {
		sc = NewServerContext("default", nil)
	}
	d := &Dispatcher{
		factory: f,
		server:  sc,
		logger:  f.Logger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) ServerContext() *ServerContext { return d.server }

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.dispatch(w, r, nil)
}

// Middleware dispatches to actions and hands requests that match no
// action to next.
func (d *Dispatcher) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d.dispatch(w, r, next)
	})
}

// Mount binds the dispatcher to router for every registered action path.
// Actions registered after Mount are not bound when paths are case
// sensitive.  When they are not, a single matcher covers all actions.
func (d *Dispatcher) Mount(router *mux.Router) {
	if d.factory.ActionPathCaseSensitive() {
		for _, p := range d.factory.ActionPaths() {
			router.Handle(p+d.extension, d)
		}
		return
	}
	router.MatcherFunc(func(r *http.Request, _ *mux.RouteMatch) bool {
		_, ok := d.factory.Action(strings.ToLower(d.actionPath(r)))
		return ok
	}).Handler(d)
}

func (d *Dispatcher) actionPath(r *http.Request) string {
	p := r.URL.Path
	if d.extension != "" {
		p = strings.TrimSuffix(p, d.extension)
	}
	return p
}

func (d *Dispatcher) dispatch(w http.ResponseWriter, r *http.Request, next http.Handler) {
	start := time.Now()
	path := d.actionPath(r)
	label := d.factory.normalize(path)

	r, done := BeginRequest(w, r, d.server)
	defer done()

	result, err := d.factory.InvokeHTTP(r.Context(), path, r, w, d.server)
	switch {
	case errors.Is(err, ErrActionNotFound):
		d.metrics.observe(label, outcomeNotFound, time.Since(start))
		if next != nil {
			next.ServeHTTP(w, r)
			return
		}
		d.logger.Debug("no action for request", zap.String("path", path))
		http.NotFound(w, r)
	case err != nil:
		d.metrics.observe(label, outcomeError, time.Since(start))
		d.logger.Error("action failed", zap.String("path", path), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	default:
		d.metrics.observe(label, outcomeOK, time.Since(start))
		d.render(w, path, result)
	}
}

func (d *Dispatcher) render(w http.ResponseWriter, path string, result any) {
	setType := func(ct string) {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", ct)
		}
	}
	switch v := result.(type) {
	case nil:
	case string:
		setType("text/plain; charset=utf-8")
		_, _ = io.WriteString(w, v)
	case []byte:
		setType("application/octet-stream")
		_, _ = w.Write(v)
	default:
		setType("application/json")
		if err := json.NewEncoder(w).Encode(v); err != nil {
			d.logger.Error("encode result", zap.String("path", path), zap.Error(err))
		}
	}
}
