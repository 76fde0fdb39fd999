package httpaction

import (
	"context"
	"fmt"
	"path"
	"reflect"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Option configures an ActionFactory.
type Option func(*options)

type options struct {
	logger     *zap.Logger
	filter     ActionFilter
	converters ConverterFactory
}

// WithLogger sets the logger used by the factory.  The default discards
// everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithActionFilter makes AddActions discover actions through filter in
// addition to native declarations.
func WithActionFilter(filter ActionFilter) Option {
	return func(o *options) { o.filter = filter }
}

// WithConverterFactory replaces the default TypeConverterFactory.
func WithConverterFactory(c ConverterFactory) Option {
	return func(o *options) { o.converters = c }
}

// hooks are the points where a specialized factory takes over from the
// base behavior.
type hooks struct {
	createInvocation func(ctx context.Context, path string, args ...any) (Invocation, error)
	buildPath        func(namespace, name string, m Method) string
}

// ActionFactory registers actions by path and invokes them.
//
// Registration (AddActions, AddAction, AddInterceptor and friends) is
// expected to happen before the factory starts serving invocations, but
// it is safe to do concurrently.  Registration mistakes such as a
// duplicate path panic.
type ActionFactory struct {
	cfg        Config
	logger     *zap.Logger
	filter     ActionFilter
	converters ConverterFactory
	hooks      hooks

	lock         sync.RWMutex
	actions      map[string]*ActionProxy
	interceptors map[string]Interceptor
	stacks       map[string][]string
	resultTypes  map[string]ResultHandler
	results      map[string]Result
}

// NewActionFactory builds a factory from a properties map (see Config for
// the recognized keys).
func NewActionFactory(properties map[string]any, opts ...Option) (*ActionFactory, error) {
	return newActionFactory(properties, opts, hooks{})
}

func newActionFactory(properties map[string]any, opts []Option, h hooks) (*ActionFactory, error) {
	cfg, err := decodeConfig(properties)
	if err != nil {
		return nil, err
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.converters == nil {
		o.converters = NewTypeConverterFactory()
	}
	f := &ActionFactory{
		cfg:          cfg,
		logger:       o.logger,
		filter:       o.filter,
		converters:   o.converters,
		actions:      make(map[string]*ActionProxy),
		interceptors: make(map[string]Interceptor),
		stacks:       make(map[string][]string),
		resultTypes:  make(map[string]ResultHandler),
		results:      make(map[string]Result),
	}
	if h.createInvocation == nil {
		h.createInvocation = f.createBareInvocation
	}
	if h.buildPath == nil {
		h.buildPath = f.defaultActionPath
	}
	f.hooks = h
	return f, nil
}

func (f *ActionFactory) Config() Config               { return f.cfg }
func (f *ActionFactory) Logger() *zap.Logger          { return f.logger }
func (f *ActionFactory) Converters() ConverterFactory { return f.converters }

// AddInterceptor registers a named interceptor.  Interceptors must be
// registered before the actions that use them.
func (f *ActionFactory) AddInterceptor(name string, ic Interceptor) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if _, dup := f.interceptors[name]; dup {
		panic("interceptor already registered: " + name)
	}
	f.interceptors[name] = ic
}

// AddInterceptorStack registers a named, ordered list of interceptors.
func (f *ActionFactory) AddInterceptorStack(name string, interceptors ...string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	for _, ic := range interceptors {
		if _, ok := f.interceptors[ic]; !ok {
			panic(fmt.Sprintf("interceptor stack %s: unknown interceptor %s", name, ic))
		}
	}
	f.stacks[name] = append([]string(nil), interceptors...)
}

// AddResultType registers (or replaces) the handler for a result type.
func (f *ActionFactory) AddResultType(name string, h ResultHandler) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.resultTypes[name] = h
}

// AddResult registers a result shared by all actions.  Results declared
// on an action take precedence.
func (f *ActionFactory) AddResult(r Result) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.results[r.Name] = r
}

func (f *ActionFactory) resultType(name string) ResultHandler {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return f.resultTypes[name]
}

func (f *ActionFactory) result(name string) (Result, bool) {
	f.lock.RLock()
	defer f.lock.RUnlock()
	r, ok := f.results[name]
	return r, ok
}

// AddActions registers every action method of controller.  A method is an
// action when it carries a native Action declaration, or when the
// factory's ActionFilter accepts it and produces metadata for it.
func (f *ActionFactory) AddActions(controller any) []*ActionProxy {
	if controller == nil {
		panic("nil controller")
	}
	namespace := ""
	if ns, ok := controller.(Namespacer); ok {
		namespace = ns.Namespace()
	}
	var added []*ActionProxy
	for _, m := range controllerMethods(controller) {
		a := f.actionOf(m)
		if a == nil {
			continue
		}
		added = append(added, f.register(namespace, m, *a)...)
	}
	return added
}

// AddAction registers a single method or func.  It panics if the method
// carries no declaration the factory understands.
func (f *ActionFactory) AddAction(namespace string, m Method) []*ActionProxy {
	a := f.actionOf(m)
	if a == nil {
		panic(fmt.Sprintf("%s: no action declaration", m.Name))
	}
	return f.register(namespace, m, *a)
}

func (f *ActionFactory) actionOf(m Method) *Action {
	if f.filter != nil && f.filter.Accept(m) {
		if a := f.filter.Annotation(m); a != nil {
			return a
		}
	}
	return m.Action()
}

func (f *ActionFactory) register(namespace string, m Method, a Action) []*ActionProxy {
	if !m.Func.IsValid() || m.Func.Kind() != reflect.Func {
		panic(fmt.Sprintf("%s: action is not a func", m.Name))
	}
	if m.Func.Type().IsVariadic() {
		panic(fmt.Sprintf("%s: variadic actions are not supported", m.Name))
	}
	aliases := a.Value
	if len(aliases) == 0 {
		aliases = []string{""}
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	interceptors := f.interceptorsFor(m, a)
	results := make(map[string]Result, len(a.Results))
	for _, r := range a.Results {
		if r.Type == "" {
			r.Type = f.cfg.DefaultResultType
		}
		results[r.Name] = r
	}
	parameters := make(map[string][]string, len(a.Parameters))
	for _, p := range a.Parameters {
		parameters[p.Name] = append([]string(nil), p.Value...)
	}

	proxies := make([]*ActionProxy, 0, len(aliases))
	for _, alias := range aliases {
		p := f.hooks.buildPath(namespace, alias, m)
		if _, dup := f.actions[p]; dup {
			panic("action path already registered: " + p)
		}
		proxy := &ActionProxy{
			path:         p,
			namespace:    namespace,
			method:       m,
			action:       a.clone(),
			interceptors: interceptors,
			results:      results,
			parameters:   parameters,
		}
		f.actions[p] = proxy
		proxies = append(proxies, proxy)
		f.logger.Debug("action registered",
			zap.String("path", p),
			zap.String("method", m.Name),
			zap.Stringer("scope", a.Scope))
	}
	return proxies
}

// must be called with the lock held
func (f *ActionFactory) interceptorsFor(m Method, a Action) []Interceptor {
	names := a.Interceptors
	if len(names) == 0 {
		stack := a.InterceptorStack
		if stack == "" {
			stack = f.cfg.DefaultInterceptorStack
		}
		if stack != "" {
			s, ok := f.stacks[stack]
			if !ok {
				panic(fmt.Sprintf("%s: unknown interceptor stack %s", m.Name, stack))
			}
			names = s
		}
	}
	ics := make([]Interceptor, 0, len(names))
	for _, n := range names {
		ic, ok := f.interceptors[n]
		if !ok {
			panic(fmt.Sprintf("%s: unknown interceptor %s", m.Name, n))
		}
		ics = append(ics, ic)
	}
	return ics
}

// defaultActionPath builds the path an action alias is registered under.
// A blank alias falls back to the method name; aliases starting with "/"
// are absolute, everything else lives under the namespace.
func (f *ActionFactory) defaultActionPath(namespace, name string, m Method) string {
	if strings.TrimSpace(name) == "" {
		name = m.Name
	}
	if strings.HasPrefix(name, "/") {
		return path.Clean(name)
	}
	return path.Join("/", namespace, name)
}

// Action looks up a registered action by its exact path.
func (f *ActionFactory) Action(path string) (*ActionProxy, bool) {
	f.lock.RLock()
	defer f.lock.RUnlock()
	p, ok := f.actions[path]
	return p, ok
}

// ActionPaths lists every registered path in sorted order.
func (f *ActionFactory) ActionPaths() []string {
	f.lock.RLock()
	defer f.lock.RUnlock()
	paths := make([]string, 0, len(f.actions))
	for p := range f.actions {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// InvokeAction creates an invocation for path and invokes it with args.
// It fails with ErrActionNotFound when nothing is registered under path
// and with an *InvocationError when the action or its chain fails.
func (f *ActionFactory) InvokeAction(ctx context.Context, path string, args ...any) (any, error) {
	inv, err := f.CreateActionInvocation(ctx, path, args...)
	if err != nil {
		return nil, err
	}
	return inv.Invoke(args...)
}

// CreateActionInvocation materializes the invocation InvokeAction runs.
// Specialized factories (HTTPActionFactory) take this over.
func (f *ActionFactory) CreateActionInvocation(ctx context.Context, path string, args ...any) (Invocation, error) {
	return f.hooks.createInvocation(ctx, path, args...)
}

// createBareInvocation builds an invocation that carries no arguments;
// they are supplied when the invocation is invoked.
func (f *ActionFactory) createBareInvocation(ctx context.Context, path string, _ ...any) (Invocation, error) {
	proxy, ok := f.Action(path)
	if !ok {
		return nil, notFound(path)
	}
	inv := newActionInvocation(ctx, f, proxy)
	inv.converter = f.converters.ParameterConverter(nil)
	return inv, nil
}
