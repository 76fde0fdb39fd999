package httpaction

import (
	"context"
	"net/http"
)

// RequestInvocation decorates an Invocation with the objects of the
// request it runs for.  All Invocation methods are forwarded to the
// wrapped invocation.  The wrapped invocation and the request-scope
// objects never change; the attribute map is borrowed from whoever owns
// the request.
type RequestInvocation struct {
	invocation Invocation
	request    *http.Request
	response   http.ResponseWriter
	server     *ServerContext
	params     *RequestParameters
	attributes map[string]any
}

var _ Invocation = (*RequestInvocation)(nil)

// NewRequestInvocation wraps inv.
func NewRequestInvocation(inv Invocation, r *http.Request, w http.ResponseWriter, sc *ServerContext, attributes map[string]any) *RequestInvocation {
	return &RequestInvocation{
		invocation: inv,
		request:    r,
		response:   w,
		server:     sc,
		params:     newRequestParameters(r),
		attributes: attributes,
	}
}

func (ri *RequestInvocation) Request() *http.Request                { return ri.request }
func (ri *RequestInvocation) Response() http.ResponseWriter         { return ri.response }
func (ri *RequestInvocation) ServerContext() *ServerContext         { return ri.server }
func (ri *RequestInvocation) RequestParameters() *RequestParameters { return ri.params }

// Attributes returns the attribute map of the request.  It is nil when
// the invocation was created without ambient state.
func (ri *RequestInvocation) Attributes() map[string]any { return ri.attributes }

// Unwrap returns the decorated invocation.
func (ri *RequestInvocation) Unwrap() Invocation { return ri.invocation }

func (ri *RequestInvocation) ID() string                { return ri.invocation.ID() }
func (ri *RequestInvocation) Context() context.Context  { return ri.invocation.Context() }
func (ri *RequestInvocation) Factory() *ActionFactory   { return ri.invocation.Factory() }
func (ri *RequestInvocation) Proxy() *ActionProxy       { return ri.invocation.Proxy() }
func (ri *RequestInvocation) Executed() bool            { return ri.invocation.Executed() }
func (ri *RequestInvocation) Params() []any             { return ri.invocation.Params() }
func (ri *RequestInvocation) InvokeResult() any         { return ri.invocation.InvokeResult() }
func (ri *RequestInvocation) SetInvokeResult(r any)     { ri.invocation.SetInvokeResult(r) }
func (ri *RequestInvocation) Result() *Result           { return ri.invocation.Result() }
func (ri *RequestInvocation) SetResult(r *Result)       { ri.invocation.SetResult(r) }
func (ri *RequestInvocation) ConvertParams() []any      { return ri.invocation.ConvertParams() }
func (ri *RequestInvocation) SetConvertParams(p ...any) { ri.invocation.SetConvertParams(p...) }

func (ri *RequestInvocation) Invoke(params ...any) (any, error) {
	return ri.invocation.Invoke(params...)
}

func (ri *RequestInvocation) InvokeActionOnly(params ...any) (any, error) {
	return ri.invocation.InvokeActionOnly(params...)
}

func (ri *RequestInvocation) ParameterConverter() ParameterConverter {
	return ri.invocation.ParameterConverter()
}

func (ri *RequestInvocation) SetParameterConverter(c ParameterConverter) {
	ri.invocation.SetParameterConverter(c)
}

// RequestInvocationOf finds the RequestInvocation associated with inv:
// inv itself, the one handed to its converter through the convert params,
// or the current ambient one.
func RequestInvocationOf(inv Invocation) *RequestInvocation {
	if inv == nil {
		return nil
	}
	if ri, ok := inv.(*RequestInvocation); ok {
		return ri
	}
	for _, p := range inv.ConvertParams() {
		if ri, ok := p.(*RequestInvocation); ok {
			return ri
		}
	}
	return CurrentInvocation(inv.Context())
}
