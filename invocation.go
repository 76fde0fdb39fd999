package httpaction

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// Interceptor wraps the invocation of an action.  It continues the chain
// by calling inv.Invoke() and may inspect or replace what comes back.  An
// interceptor that answers without calling inv.Invoke() may return the
// name of a Result, which is handled as if the action had returned it.
type Interceptor func(inv Invocation) (any, error)

// ResultHandler runs when an action returns the name of a declared
// Result.  Its return value replaces the value returned by the action.
type ResultHandler func(inv Invocation) (any, error)

// Invocation is one in-flight call of an action.  An Invocation belongs to
// the call that created it and is never shared between requests.
type Invocation interface {
	// ID identifies the invocation in logs.
	ID() string
	Context() context.Context
	Factory() *ActionFactory
	Proxy() *ActionProxy

	// Executed reports whether the action itself has run.  It never goes
	// back to false.
	Executed() bool

	// Params are the raw arguments the invocation was invoked with.
	Params() []any

	// Invoke runs the rest of the interceptor chain followed by the action
	// and its result handler.
	Invoke(params ...any) (any, error)

	// InvokeActionOnly runs the action, bypassing interceptors and result
	// handling.
	InvokeActionOnly(params ...any) (any, error)

	InvokeResult() any
	SetInvokeResult(result any)
	Result() *Result
	SetResult(result *Result)

	// ParameterConverter turns Params and ConvertParams into the
	// arguments of the action.  It can only be replaced before the action
	// has been executed.
	ParameterConverter() ParameterConverter
	SetParameterConverter(c ParameterConverter)

	// ConvertParams are the extra inputs handed to the ParameterConverter
	// alongside Params.  They can only be set before the action has been
	// executed.
	ConvertParams() []any
	SetConvertParams(params ...any)
}

// ActionProxy is a registered action: the func to call and the metadata
// it was registered with.
type ActionProxy struct {
	path         string
	namespace    string
	method       Method
	action       Action
	interceptors []Interceptor
	results      map[string]Result
	parameters   map[string][]string
}

func (p *ActionProxy) Path() string       { return p.path }
func (p *ActionProxy) Namespace() string  { return p.namespace }
func (p *ActionProxy) MethodName() string { return p.method.Name }
func (p *ActionProxy) Scope() Scope       { return p.action.Scope }

// Action returns a copy of the metadata the action was registered with.
func (p *ActionProxy) Action() Action { return p.action.clone() }

// Parameter returns the values of a static action parameter.
func (p *ActionProxy) Parameter(name string) []string {
	return append([]string(nil), p.parameters[name]...)
}

// Result looks up a result declared on the action.
func (p *ActionProxy) Result(name string) (Result, bool) {
	r, ok := p.results[name]
	return r, ok
}

// target returns the func to call.  Prototype actions get a fresh
// receiver every time.
func (p *ActionProxy) target() reflect.Value {
	if p.action.Scope != ScopePrototype || p.method.Receiver == nil {
		return p.method.Func
	}
	t := reflect.TypeOf(p.method.Receiver)
	var recv reflect.Value
	if t.Kind() == reflect.Ptr {
		recv = reflect.New(t.Elem())
	} else {
		recv = reflect.New(t).Elem()
	}
	return recv.MethodByName(p.method.Name)
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func splitReturns(out []reflect.Value) (any, error) {
	var result any
	var err error
	found := false
	for _, v := range out {
		if v.Type() == errorType {
			if !v.IsNil() {
				err = v.Interface().(error)
			}
			continue
		}
		if !found {
			result = v.Interface()
			found = true
		}
	}
	return result, err
}

type actionInvocation struct {
	id            string
	ctx           context.Context
	factory       *ActionFactory
	proxy         *ActionProxy
	params        []any
	convertParams []any
	converter     ParameterConverter
	invokeResult  any
	result        *Result
	executed      bool
	handled       bool
	next          int
}

func newActionInvocation(ctx context.Context, f *ActionFactory, proxy *ActionProxy) *actionInvocation {
	if ctx == nil {
		ctx = context.Background()
	}
	return &actionInvocation{
		id:      uuid.NewString(),
		ctx:     ctx,
		factory: f,
		proxy:   proxy,
	}
}

func (i *actionInvocation) ID() string               { return i.id }
func (i *actionInvocation) Context() context.Context { return i.ctx }
func (i *actionInvocation) Factory() *ActionFactory  { return i.factory }
func (i *actionInvocation) Proxy() *ActionProxy      { return i.proxy }
func (i *actionInvocation) Executed() bool           { return i.executed }
func (i *actionInvocation) Params() []any            { return i.params }
func (i *actionInvocation) InvokeResult() any        { return i.invokeResult }
func (i *actionInvocation) SetInvokeResult(r any)    { i.invokeResult = r }
func (i *actionInvocation) Result() *Result          { return i.result }
func (i *actionInvocation) SetResult(r *Result)      { i.result = r }
func (i *actionInvocation) ConvertParams() []any     { return i.convertParams }
func (i *actionInvocation) ParameterConverter() ParameterConverter {
	return i.converter
}

func (i *actionInvocation) SetParameterConverter(c ParameterConverter) {
	if i.executed {
		panic(fmt.Sprintf("parameter converter of %s replaced after execution", i.proxy.path))
	}
	i.converter = c
}

func (i *actionInvocation) SetConvertParams(params ...any) {
	if i.executed {
		panic(fmt.Sprintf("convert params of %s set after execution", i.proxy.path))
	}
	i.convertParams = params
}

func (i *actionInvocation) Invoke(params ...any) (any, error) {
	if len(params) > 0 {
		i.params = params
	}
	if i.next < len(i.proxy.interceptors) {
		outermost := i.next == 0
		ic := i.proxy.interceptors[i.next]
		i.next++
		res, err := ic(i)
		if err != nil {
			return nil, i.wrap(err)
		}
		i.invokeResult = res
		if outermost && !i.handled {
			// an interceptor answered in place of the action
			return i.handleResult(res)
		}
		return res, nil
	}
	res, err := i.InvokeActionOnly(i.params...)
	if err != nil {
		return nil, err
	}
	return i.handleResult(res)
}

func (i *actionInvocation) InvokeActionOnly(params ...any) (any, error) {
	if len(params) > 0 {
		i.params = params
	}
	fn := i.proxy.target()
	var args []reflect.Value
	if i.converter != nil {
		var err error
		args, err = i.converter.Convert(i.ctx, fn, i.params, i.convertParams)
		if err != nil {
			return nil, i.wrap(err)
		}
	} else {
		args = make([]reflect.Value, fn.Type().NumIn())
		for n := range args {
			t := fn.Type().In(n)
			if n < len(i.params) && i.params[n] != nil && reflect.TypeOf(i.params[n]).AssignableTo(t) {
				args[n] = reflect.ValueOf(i.params[n])
			} else {
				args[n] = reflect.Zero(t)
			}
		}
	}
	res, err := splitReturns(fn.Call(args))
	i.executed = true
	i.invokeResult = res
	if err != nil {
		return nil, i.wrap(err)
	}
	return res, nil
}

func (i *actionInvocation) handleResult(res any) (any, error) {
	i.handled = true
	name, ok := res.(string)
	if !ok {
		return res, nil
	}
	r, ok := i.proxy.results[name]
	if !ok {
		r, ok = i.factory.result(name)
		if !ok {
			return res, nil
		}
		if r.Type == "" {
			r.Type = i.factory.cfg.DefaultResultType
		}
	}
	i.result = &r
	handler := i.factory.resultType(r.Type)
	if handler == nil {
		return res, nil
	}
	out, err := handler(i)
	if err != nil {
		return nil, i.wrap(err)
	}
	i.invokeResult = out
	return out, nil
}

func (i *actionInvocation) wrap(err error) error {
	var ie *InvocationError
	if errors.As(err, &ie) {
		return err
	}
	return &InvocationError{Path: i.proxy.path, Err: err}
}
