package httpaction

import (
	"net/http"
	"net/url"
	"sort"
	"sync"
)

// RequestParameters is a read-only view of the query and form parameters
// of a request.  A name may carry several values.  The form is parsed the
// first time the view is used, not when it is created.
type RequestParameters struct {
	request *http.Request
	once    sync.Once
	values  url.Values
	err     error
}

func newRequestParameters(r *http.Request) *RequestParameters {
	return &RequestParameters{request: r}
}

func (p *RequestParameters) load() url.Values {
	if p == nil {
		return nil
	}
	p.once.Do(func() {
		if p.request == nil {
			return
		}
		// r.Form holds the query even when reading the body fails
		p.err = p.request.ParseForm()
		p.values = p.request.Form
	})
	return p.values
}

// Get returns the first value of name, or "".
func (p *RequestParameters) Get(name string) string {
	vs := p.load()[name]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// Values returns a copy of all the values of name.
func (p *RequestParameters) Values(name string) []string {
	return append([]string(nil), p.load()[name]...)
}

func (p *RequestParameters) Has(name string) bool {
	_, ok := p.load()[name]
	return ok
}

func (p *RequestParameters) Len() int { return len(p.load()) }

// Names returns the parameter names in sorted order.
func (p *RequestParameters) Names() []string {
	vals := p.load()
	names := make([]string, 0, len(vals))
	for n := range vals {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Err reports a failure to parse the request body.  Query parameters are
// still available when it is non-nil.
func (p *RequestParameters) Err() error {
	p.load()
	if p == nil {
		return nil
	}
	return p.err
}

// decodeInput shapes the parameters for mapstructure: single values as
// strings, repeated values as string slices.
func (p *RequestParameters) decodeInput() map[string]any {
	vals := p.load()
	m := make(map[string]any, len(vals))
	for n, vs := range vals {
		switch len(vs) {
		case 0:
		case 1:
			m[n] = vs[0]
		default:
			m[n] = append([]string(nil), vs...)
		}
	}
	return m
}
