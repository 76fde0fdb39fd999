// Package mapping discovers actions from RequestMapping declarations, a
// declaration style borrowed from annotation driven web frameworks,
// instead of the native httpaction.Action.
package mapping

import (
	"strings"

	"github.com/BlueOwlOpenSource/httpaction"
)

// RequestMapping maps a method to one or more paths.  The first non-empty
// of Value, Path, and a non-blank Name gives the paths; when all are empty
// the method name is used.
type RequestMapping struct {
	Value []string
	Path  []string
	Name  string
}

// Mapper is implemented by controllers that declare request mappings for
// their methods, keyed by method name.
type Mapper interface {
	RequestMappings() map[string]RequestMapping
}

// Filter is an httpaction.ActionFilter for RequestMapping declarations.
// It holds no state and is safe for concurrent use.
type Filter struct{}

var _ httpaction.ActionFilter = Filter{}

// Accept reports whether m carries a RequestMapping.
func (Filter) Accept(m httpaction.Method) bool {
	_, ok := lookup(m)
	return ok
}

// Annotation synthesizes the action metadata for m.  It returns nil when
// m carries a native httpaction.Action, which takes precedence, or no
// RequestMapping at all.
func (Filter) Annotation(m httpaction.Method) *httpaction.Action {
	if m.Action() != nil {
		return nil
	}
	rm, ok := lookup(m)
	if !ok {
		return nil
	}
	return &httpaction.Action{
		Value: Aliases(rm, m.Name),
		Scope: httpaction.ScopeSingleton,
	}
}

// Aliases resolves the paths of a RequestMapping.  The returned slice is
// always new and never empty.
func Aliases(rm RequestMapping, methodName string) []string {
	switch {
	case len(rm.Value) > 0:
		return append([]string(nil), rm.Value...)
	case len(rm.Path) > 0:
		return append([]string(nil), rm.Path...)
	case strings.TrimSpace(rm.Name) != "":
		return []string{rm.Name}
	default:
		return []string{methodName}
	}
}

func lookup(m httpaction.Method) (RequestMapping, bool) {
	if rm, ok := httpaction.Annotation[RequestMapping](m); ok {
		return rm, true
	}
	if mapper, ok := m.Receiver.(Mapper); ok {
		rm, ok := mapper.RequestMappings()[m.Name]
		return rm, ok
	}
	return RequestMapping{}, false
}
