package httpaction

import (
	"reflect"
)

// Scope says how the receiver of an action is managed.
type Scope int

const (
	// ScopeSingleton actions run on the receiver that was registered.
	ScopeSingleton Scope = iota
	// ScopePrototype actions run on a freshly allocated receiver for
	// every invocation.
	ScopePrototype
)

func (s Scope) String() string {
	switch s {
	case ScopeSingleton:
		return "singleton"
	case ScopePrototype:
		return "prototype"
	default:
		return "unknown"
	}
}

// Result maps a string returned by an action to a result type handler.
// Location is interpreted by the handler (a redirect target, another
// action path, etc).
type Result struct {
	Name     string
	Type     string
	Location string
}

// Parameter is a static name/values pair attached to an action.
type Parameter struct {
	Name  string
	Value []string
}

// Action is the route metadata of one action method.  Value holds the
// path aliases of the action and must not be empty once registered.
//
// An Action can be declared natively (see ActionDeclarer) or synthesized
// by an ActionFilter from some other style of declaration.  Either way
// it is treated as an immutable value once it has been handed to the
// ActionFactory.
type Action struct {
	Value            []string
	Interceptors     []string
	InterceptorStack string
	Scope            Scope
	Results          []Result
	Parameters       []Parameter
}

func (a Action) clone() Action {
	c := a
	c.Value = append([]string(nil), a.Value...)
	c.Interceptors = append([]string(nil), a.Interceptors...)
	c.Results = append([]Result(nil), a.Results...)
	c.Parameters = make([]Parameter, len(a.Parameters))
	for i, p := range a.Parameters {
		c.Parameters[i] = Parameter{Name: p.Name, Value: append([]string(nil), p.Value...)}
	}
	return c
}

// ActionDeclarer is implemented by controllers that declare their actions
// natively.  The map is keyed by method name.
type ActionDeclarer interface {
	Actions() map[string]Action
}

// Namespacer is implemented by controllers whose relative action names
// live under a namespace.
type Namespacer interface {
	Namespace() string
}

// Method is a candidate action: a method of a controller or a free
// standing func.
//
// Annotations carries declarations attached directly to the method.  For
// methods discovered on a controller, declarations can also come from
// interfaces the receiver implements (ActionDeclarer and the like).
type Method struct {
	Name        string
	Receiver    any
	Func        reflect.Value
	Annotations []any
}

// Func builds a Method for a free standing function.
func Func(name string, fn any, annotations ...any) Method {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		panic("httpaction.Func: " + name + " is not a func")
	}
	return Method{
		Name:        name,
		Func:        v,
		Annotations: annotations,
	}
}

// Annotation returns the first annotation of type T attached directly to
// the method.
func Annotation[T any](m Method) (T, bool) {
	for _, a := range m.Annotations {
		switch t := a.(type) {
		case T:
			return t, true
		case *T:
			if t != nil {
				return *t, true
			}
		}
	}
	var zero T
	return zero, false
}

// Action returns the native action declaration of the method, if any.
// A copy is returned each time.
func (m Method) Action() *Action {
	if a, ok := Annotation[Action](m); ok {
		c := a.clone()
		return &c
	}
	if d, ok := m.Receiver.(ActionDeclarer); ok {
		if a, ok := d.Actions()[m.Name]; ok {
			c := a.clone()
			return &c
		}
	}
	return nil
}

// ActionFilter lets actions be discovered from declarations other than
// the native Action.  Accept says whether the method is a candidate at
// all; Annotation returns the metadata to register it with, or nil to
// defer to the native declaration.
type ActionFilter interface {
	Accept(m Method) bool
	Annotation(m Method) *Action
}

// methods that are part of the controller protocol rather than actions
var protocolMethods = map[string]bool{
	"Actions":         true,
	"Namespace":       true,
	"RequestMappings": true,
}

func controllerMethods(controller any) []Method {
	v := reflect.ValueOf(controller)
	t := v.Type()
	methods := make([]Method, 0, t.NumMethod())
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if !m.IsExported() || protocolMethods[m.Name] {
			continue
		}
		methods = append(methods, Method{
			Name:     m.Name,
			Receiver: controller,
			Func:     v.Method(i),
		})
	}
	return methods
}
