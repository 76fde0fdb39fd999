package httpaction_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/BlueOwlOpenSource/httpaction"
)

type greeter struct{}

func (greeter) Namespace() string { return "/greet" }

func (greeter) Actions() map[string]httpaction.Action {
	return map[string]httpaction.Action{
		"Hello": {Value: []string{"Hello"}},
	}
}

func (greeter) Hello(r *http.Request, sc *httpaction.ServerContext) string {
	return fmt.Sprintf("hello %s from %s", r.URL.Query().Get("name"), sc.Name())
}

func ExampleHTTPActionFactory_InvokeHTTP() {
	f, _ := httpaction.NewHTTPActionFactory(map[string]any{
		"actionPathCaseSensitive": false,
	})
	f.AddActions(greeter{})
	fmt.Println(f.ActionPaths())

	r := httptest.NewRequest(http.MethodGet, "/greet/hello?name=gopher", nil)
	w := httptest.NewRecorder()
	res, err := f.InvokeHTTP(context.Background(), "/GREET/HELLO", r, w, httpaction.NewServerContext("example", nil))
	fmt.Println(res, err)
	// Output:
	// [/greet/hello]
	// hello gopher from example <nil>
}

func ExampleDispatcher() {
	f, _ := httpaction.NewHTTPActionFactory(nil)
	f.AddActions(greeter{})
	d := httpaction.NewDispatcher(f, httpaction.NewServerContext("dispatcher", nil))

	w := httptest.NewRecorder()
	d.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/greet/Hello?name=you", nil))
	fmt.Println(w.Code, w.Body.String())
	// Output: 200 hello you from dispatcher
}
