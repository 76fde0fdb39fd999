package httpaction_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BlueOwlOpenSource/httpaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmbientStateAbsent(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, httpaction.CurrentRequest(ctx))
	assert.Nil(t, httpaction.CurrentResponse(ctx))
	assert.Nil(t, httpaction.CurrentServerContext(ctx))
	assert.Nil(t, httpaction.CurrentAttributes(ctx))
	assert.Nil(t, httpaction.CurrentInvocation(ctx))
}

func TestBeginRequest(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	sc := httpaction.NewServerContext("s", nil)

	r2, done := httpaction.BeginRequest(w, r, sc)
	ctx := r2.Context()
	assert.NotSame(t, r, r2)
	assert.Same(t, r2, httpaction.CurrentRequest(ctx))
	assert.Same(t, w, httpaction.CurrentResponse(ctx))
	assert.Same(t, sc, httpaction.CurrentServerContext(ctx))
	attrs := httpaction.CurrentAttributes(ctx)
	require.NotNil(t, attrs)
	attrs["k"] = 1
	assert.Equal(t, 1, httpaction.CurrentAttributes(ctx)["k"])

	// the incoming request knows nothing about it
	assert.Nil(t, httpaction.CurrentRequest(r.Context()))

	done()
	assert.Nil(t, httpaction.CurrentRequest(ctx))
	assert.Nil(t, httpaction.CurrentResponse(ctx))
	assert.Nil(t, httpaction.CurrentServerContext(ctx))
	assert.Nil(t, httpaction.CurrentAttributes(ctx))
}

func TestClearDropsCurrentInvocation(t *testing.T) {
	f := newHTTPFactory(t, nil)
	f.AddAction("", httpaction.Func("a", noop, httpaction.Action{}))
	rt := newTriple("/a")

	ctx, done := httpaction.WithRequestScope(context.Background(), rt.scope(map[string]any{}))
	_, err := f.CreateActionInvocation(ctx, "/a")
	require.NoError(t, err)
	require.NotNil(t, httpaction.CurrentInvocation(ctx))

	done()
	assert.Nil(t, httpaction.CurrentInvocation(ctx))

	// once cleared, the context no longer yields a request scope
	inv, err := f.CreateActionInvocation(ctx, "/a")
	require.NoError(t, err)
	_, decorated := inv.(*httpaction.RequestInvocation)
	assert.False(t, decorated)
}

func TestRequestInvocationOf(t *testing.T) {
	f := newHTTPFactory(t, nil)
	var fromInterceptor *httpaction.RequestInvocation
	f.AddInterceptor("grab", func(inv httpaction.Invocation) (any, error) {
		fromInterceptor = httpaction.RequestInvocationOf(inv)
		return inv.Invoke()
	})
	f.AddAction("", httpaction.Func("a", noop, httpaction.Action{Interceptors: []string{"grab"}}))
	rt := newTriple("/a")

	inv, err := f.CreateActionInvocation(context.Background(), "/a", rt.r, rt.w, rt.sc)
	require.NoError(t, err)
	ri := inv.(*httpaction.RequestInvocation)
	assert.Same(t, ri, httpaction.RequestInvocationOf(ri))
	assert.Same(t, ri, httpaction.RequestInvocationOf(ri.Unwrap()))
	assert.Nil(t, httpaction.RequestInvocationOf(nil))

	_, err = inv.Invoke(rt.r, rt.w, rt.sc)
	require.NoError(t, err)
	assert.Same(t, ri, fromInterceptor)
}
