package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/BlueOwlOpenSource/httpaction"
	"github.com/BlueOwlOpenSource/httpaction/mapping"
)

// greeter declares its actions natively.
type greeter struct{}

func (greeter) Namespace() string { return "/demo" }

func (greeter) Actions() map[string]httpaction.Action {
	return map[string]httpaction.Action{
		"Hello": {Value: []string{"hello", "hi"}},
		"Echo":  {Value: []string{"echo"}, InterceptorStack: "timed"},
		"Home": {
			Value:   []string{"home"},
			Results: []httpaction.Result{{Name: "hello", Type: "redirect", Location: "/demo/hello"}},
		},
	}
}

type helloQuery struct {
	Name string `param:"name"`
}

func (greeter) Hello(q helloQuery) string {
	name := strings.TrimSpace(q.Name)
	if name == "" {
		name = "world"
	}
	return "Hello, " + name + "\n"
}

func (greeter) Echo(r *http.Request, sc *httpaction.ServerContext) map[string]any {
	return map[string]any{
		"method": r.Method,
		"path":   r.URL.Path,
		"server": sc.Name(),
	}
}

func (greeter) Home() string { return "hello" }

// users declares its actions with request mappings.
type users struct{}

func (users) Namespace() string { return "/users" }

func (users) RequestMappings() map[string]mapping.RequestMapping {
	return map[string]mapping.RequestMapping{
		"FetchUser": {Value: []string{"/users/get", "/users/fetch"}},
		"ListUsers": {Name: "list"},
	}
}

type userQuery struct {
	ID int `param:"id"`
}

func (users) FetchUser(q userQuery) (map[string]any, error) {
	if q.ID <= 0 {
		return nil, fmt.Errorf("bad user id %d", q.ID)
	}
	return map[string]any{"id": q.ID, "name": fmt.Sprintf("user-%d", q.ID)}, nil
}

func (users) ListUsers(p *httpaction.RequestParameters) []string {
	n := 3
	if p.Has("all") {
		n = 5
	}
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("user-%d", i+1)
	}
	return out
}

// register wires the demo interceptors and controllers into f.
func register(f *httpaction.HTTPActionFactory) {
	f.AddInterceptor("timing", func(inv httpaction.Invocation) (any, error) {
		start := time.Now()
		res, err := inv.Invoke()
		if ri := httpaction.RequestInvocationOf(inv); ri != nil {
			ri.Response().Header().Set("X-Action-Duration", time.Since(start).String())
		}
		return res, err
	})
	f.AddInterceptorStack("timed", "timing")
	f.AddActions(greeter{})
	f.AddActions(users{})
}
