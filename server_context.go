package httpaction

import (
	"sort"
	"sync"
)

// ServerContext is the application-wide scope shared by every request a
// server handles: a name, read-only init parameters, and attributes.
// Attribute access is safe for concurrent use.
type ServerContext struct {
	name       string
	initParams map[string]string

	lock  sync.RWMutex
	attrs map[string]any
}

// NewServerContext creates a ServerContext.  initParams is copied.
func NewServerContext(name string, initParams map[string]string) *ServerContext {
	params := make(map[string]string, len(initParams))
	for k, v := range initParams {
		params[k] = v
	}
	return &ServerContext{
		name:       name,
		initParams: params,
		attrs:      make(map[string]any),
	}
}

func (sc *ServerContext) Name() string { return sc.name }

func (sc *ServerContext) InitParameter(name string) string {
	return sc.initParams[name]
}

func (sc *ServerContext) Attribute(name string) (any, bool) {
	sc.lock.RLock()
	defer sc.lock.RUnlock()
	v, ok := sc.attrs[name]
	return v, ok
}

func (sc *ServerContext) SetAttribute(name string, v any) {
	sc.lock.Lock()
	defer sc.lock.Unlock()
	sc.attrs[name] = v
}

func (sc *ServerContext) RemoveAttribute(name string) {
	sc.lock.Lock()
	defer sc.lock.Unlock()
	delete(sc.attrs, name)
}

// AttributeNames returns the attribute names in sorted order.
func (sc *ServerContext) AttributeNames() []string {
	sc.lock.RLock()
	defer sc.lock.RUnlock()
	names := make([]string, 0, len(sc.attrs))
	for n := range sc.attrs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
