package httpaction

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"go.uber.org/zap"
)

// HTTPActionFactory is an ActionFactory whose invocations know about the
// HTTP request they run for.
//
// Invocations created by it are RequestInvocations whenever request-scope
// objects can be found, either passed explicitly to InvokeHTTP (or to
// InvokeAction as exactly a *http.Request, an http.ResponseWriter and a
// *ServerContext, in that order) or present as ambient state in the
// context.  The converter of such an invocation is obtained for the
// RequestInvocation, and receives
//
//	(request, response, serverContext, requestInvocation)
//
// as its convert params, so actions can ask for any of them by type.
type HTTPActionFactory struct {
	*ActionFactory

	caseSensitive bool
	useAmbient    bool
}

// NewHTTPActionFactory builds an HTTPActionFactory.  On top of the keys
// understood by NewActionFactory, "actionPathCaseSensitive" (default
// true) controls whether action paths are lowercased.
//
// The factory registers two result types: "redirect", which redirects the
// client to the location of the result, and "forward", which invokes the
// action at the location within the same request.
func NewHTTPActionFactory(properties map[string]any, opts ...Option) (*HTTPActionFactory, error) {
	f := &HTTPActionFactory{useAmbient: true}
	base, err := newActionFactory(properties, opts, hooks{
		createInvocation: f.createActionInvocation,
		buildPath:        f.buildActionPath,
	})
	if err != nil {
		return nil, err
	}
	f.ActionFactory = base
	f.caseSensitive = base.cfg.ActionPathCaseSensitive
	f.AddResultType("redirect", f.redirectResult)
	f.AddResultType("forward", f.forwardResult)
	return f, nil
}

// ActionPathCaseSensitive reports whether action paths keep their case.
func (f *HTTPActionFactory) ActionPathCaseSensitive() bool { return f.caseSensitive }

func (f *HTTPActionFactory) normalize(path string) string {
	if f.caseSensitive {
		return path
	}
	return strings.ToLower(path)
}

// InvokeHTTP invokes the action at path on behalf of a request.  Errors
// come straight from the underlying ActionFactory.
func (f *HTTPActionFactory) InvokeHTTP(ctx context.Context, path string, r *http.Request, w http.ResponseWriter, sc *ServerContext) (any, error) {
	return f.InvokeAction(ctx, f.normalize(path), r, w, sc)
}

// InvokeAs is InvokeHTTP with the result asserted to T.  A nil result
// gives the zero T.
func InvokeAs[T any](ctx context.Context, f *HTTPActionFactory, path string, r *http.Request, w http.ResponseWriter, sc *ServerContext) (T, error) {
	var zero T
	v, err := f.InvokeHTTP(ctx, path, r, w, sc)
	if err != nil || v == nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s returned %T, want %T", ErrResultType, path, v, zero)
	}
	return t, nil
}

func (f *HTTPActionFactory) buildActionPath(namespace, name string, m Method) string {
	return f.normalize(f.defaultActionPath(namespace, name, m))
}

func (f *HTTPActionFactory) createActionInvocation(ctx context.Context, path string, args ...any) (Invocation, error) {
	inv, err := f.createBareInvocation(ctx, path)
	if err != nil {
		return nil, err
	}

	var ri *RequestInvocation
	// explicit arguments win over ambient state
	if r, w, sc, ok := requestTriple(args); ok {
		ri = NewRequestInvocation(inv, r, w, sc, CurrentAttributes(ctx))
	} else if f.useAmbient {
		if r, w, sc, ok := currentTriple(ctx); ok {
			ri = NewRequestInvocation(inv, r, w, sc, CurrentAttributes(ctx))
		}
	}
	if ri == nil {
		f.logger.Debug("no request scope available, invoking without it",
			zap.String("path", path),
			zap.String("invocation", inv.ID()))
		return inv, nil
	}

	if f.useAmbient {
		setCurrentInvocation(ctx, ri)
	}
	inv.SetParameterConverter(f.converters.ParameterConverter(ri))
	inv.SetConvertParams(ri.Request(), ri.Response(), ri.ServerContext(), ri)
	return ri, nil
}

func requestTriple(args []any) (*http.Request, http.ResponseWriter, *ServerContext, bool) {
	if len(args) != 3 {
		return nil, nil, nil, false
	}
	r, ok := args[0].(*http.Request)
	if !ok || r == nil {
		return nil, nil, nil, false
	}
	w, ok := args[1].(http.ResponseWriter)
	if !ok || nilWriter(w) {
		return nil, nil, nil, false
	}
	sc, ok := args[2].(*ServerContext)
	if !ok || sc == nil {
		return nil, nil, nil, false
	}
	return r, w, sc, true
}

// nilWriter reports whether w is nil or a typed nil pointer.
func nilWriter(w http.ResponseWriter) bool {
	if w == nil {
		return true
	}
	v := reflect.ValueOf(w)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

var errNoRequestScope = errors.New("result needs a request scope")

// MaxForwards bounds how many forward results can chain within one
// request.
const MaxForwards = 8

type forwardsKey struct{}

func forwards(ctx context.Context) int {
	n, _ := ctx.Value(forwardsKey{}).(int)
	return n
}

func (f *HTTPActionFactory) redirectResult(inv Invocation) (any, error) {
	ri := RequestInvocationOf(inv)
	if ri == nil {
		return nil, errNoRequestScope
	}
	http.Redirect(ri.Response(), ri.Request(), inv.Result().Location, http.StatusFound)
	return nil, nil
}

func (f *HTTPActionFactory) forwardResult(inv Invocation) (any, error) {
	ri := RequestInvocationOf(inv)
	if ri == nil {
		return nil, errNoRequestScope
	}
	ctx := inv.Context()
	n := forwards(ctx)
	if n >= MaxForwards {
		return nil, fmt.Errorf("%w: %d forwards, last to %s", ErrForwardLimit, n, inv.Result().Location)
	}
	ctx = context.WithValue(ctx, forwardsKey{}, n+1)
	return f.InvokeHTTP(ctx, inv.Result().Location, ri.Request(), ri.Response(), ri.ServerContext())
}
