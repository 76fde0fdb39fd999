package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T, mutate func(*fileConfig)) http.Handler {
	cfg := defaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	h, _, err := newHandler(cfg, zap.NewNop(), prometheus.NewRegistry())
	require.NoError(t, err)
	return h
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestServeDemoActions(t *testing.T) {
	h := newTestHandler(t, nil)

	w := get(h, "/demo/hello?name=gopher")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hello, gopher\n", w.Body.String())

	w = get(h, "/demo/hi")
	assert.Equal(t, "Hello, world\n", w.Body.String())

	w = get(h, "/demo/echo")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Action-Duration"))
	var echo map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &echo))
	assert.Equal(t, map[string]string{"method": "GET", "path": "/demo/echo", "server": "httpactiond"}, echo)

	w = get(h, "/demo/home")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/demo/hello", w.Header().Get("Location"))
}

func TestServeMappedActions(t *testing.T) {
	h := newTestHandler(t, nil)

	for _, p := range []string{"/users/get?id=7", "/users/fetch?id=7"} {
		w := get(h, p)
		require.Equal(t, http.StatusOK, w.Code, p)
		assert.JSONEq(t, `{"id":7,"name":"user-7"}`, w.Body.String())
	}

	w := get(h, "/users/get?id=0")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = get(h, "/users/list?all")
	assert.JSONEq(t, `["user-1","user-2","user-3","user-4","user-5"]`, w.Body.String())

	assert.Equal(t, http.StatusNotFound, get(h, "/users/ListUsers").Code)
}

func TestServeCaseInsensitiveWithExtension(t *testing.T) {
	h := newTestHandler(t, func(cfg *fileConfig) {
		cfg.Factory.ActionPathCaseSensitive = false
		cfg.Server.Extension = ".do"
	})
	w := get(h, "/Demo/Hello.do?name=x")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hello, x\n", w.Body.String())
}

func TestServeMetrics(t *testing.T) {
	h := newTestHandler(t, nil)
	get(h, "/demo/hello")

	w := get(h, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `httpaction_invocations_total{outcome="ok",path="/demo/hello"} 1`)
}

func TestRoutesCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"routes"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	require.NoError(t, rootCmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{
		"/demo/echo\tEcho",
		"/demo/hello\tHello",
		"/demo/hi\tHello",
		"/demo/home\tHome",
		"/users/fetch\tFetchUser",
		"/users/get\tFetchUser",
		"/users/list\tListUsers",
	}, lines)
}
