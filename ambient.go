package httpaction

import (
	"context"
	"net/http"
)

// Ambient request state.
//
// Code that was not handed the request-scope objects explicitly can find
// them in the context.Context of the request.  The holder is installed by
// the dispatch boundary with BeginRequest or WithRequestScope, and the
// returned func must be called when the request is done so nothing stale
// outlives it.  Only this file reads or writes the holder.
//
// A holder belongs to exactly one request and is not locked.

type ambientKey struct{}

// RequestScope is the set of objects associated with one request.
type RequestScope struct {
	Request    *http.Request
	Response   http.ResponseWriter
	Server     *ServerContext
	Attributes map[string]any
}

type ambient struct {
	scope      RequestScope
	invocation *RequestInvocation
}

// WithRequestScope returns a context carrying scope as ambient state and
// the func that clears it.
func WithRequestScope(ctx context.Context, scope RequestScope) (context.Context, func()) {
	a := &ambient{scope: scope}
	return context.WithValue(ctx, ambientKey{}, a), func() { *a = ambient{} }
}

// BeginRequest installs ambient state for an incoming request.  The
// returned request carries the ambient context and is the one recorded in
// the scope.  A fresh attribute map is created for the request.
func BeginRequest(w http.ResponseWriter, r *http.Request, sc *ServerContext) (*http.Request, func()) {
	a := &ambient{}
	r = r.WithContext(context.WithValue(r.Context(), ambientKey{}, a))
	a.scope = RequestScope{
		Request:    r,
		Response:   w,
		Server:     sc,
		Attributes: make(map[string]any),
	}
	return r, func() { *a = ambient{} }
}

func ambientFrom(ctx context.Context) *ambient {
	if ctx == nil {
		return nil
	}
	a, _ := ctx.Value(ambientKey{}).(*ambient)
	return a
}

func CurrentRequest(ctx context.Context) *http.Request {
	if a := ambientFrom(ctx); a != nil {
		return a.scope.Request
	}
	return nil
}

func CurrentResponse(ctx context.Context) http.ResponseWriter {
	if a := ambientFrom(ctx); a != nil {
		return a.scope.Response
	}
	return nil
}

func CurrentServerContext(ctx context.Context) *ServerContext {
	if a := ambientFrom(ctx); a != nil {
		return a.scope.Server
	}
	return nil
}

// CurrentAttributes returns the attribute map shared by everything that
// runs on behalf of the request.
func CurrentAttributes(ctx context.Context) map[string]any {
	if a := ambientFrom(ctx); a != nil {
		return a.scope.Attributes
	}
	return nil
}

// CurrentInvocation returns the RequestInvocation most recently created
// for the request.
func CurrentInvocation(ctx context.Context) *RequestInvocation {
	if a := ambientFrom(ctx); a != nil {
		return a.invocation
	}
	return nil
}

func setCurrentInvocation(ctx context.Context, inv *RequestInvocation) {
	if a := ambientFrom(ctx); a != nil {
		a.invocation = inv
	}
}

// currentTriple reports the ambient request-scope objects when all three
// are present.
func currentTriple(ctx context.Context) (*http.Request, http.ResponseWriter, *ServerContext, bool) {
	a := ambientFrom(ctx)
	if a == nil || a.scope.Request == nil || nilWriter(a.scope.Response) || a.scope.Server == nil {
		return nil, nil, nil, false
	}
	return a.scope.Request, a.scope.Response, a.scope.Server, true
}
