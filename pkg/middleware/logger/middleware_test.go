package logger

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/contentops/pkg/middleware/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := New(zap.New(core))
	AddBodyLogPaths("/echo")

	h := chimd.RequestID(m.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	})))

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"a":1}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(auth.WithUser(req.Context(), auth.User{Username: "ana", Role: auth.Role{Name: "editor"}}))
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "ana", fields["username"])
	assert.Equal(t, "editor", fields["role"])
	assert.Equal(t, int64(http.StatusTeapot), fields["status"])
	assert.Equal(t, int64(15), fields["responseSize"])
	assert.Equal(t, `{"a":1}`, fields["requestData"])
	assert.NotEmpty(t, fields["requestId"])

	req = httptest.NewRequest(http.MethodPost, "/other", strings.NewReader(`{"secret":1}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, 2, logs.Len())
	_, logged := logs.All()[1].ContextMap()["requestData"]
	assert.False(t, logged)
	assert.Equal(t, false, logs.All()[1].ContextMap()["isAuthenticated"])
}

func TestBodyStillReadable(t *testing.T) {
	var got string
	h := New(nil).Middleware()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		b := new(bytes.Buffer)
		_, _ = b.ReadFrom(r.Body)
		got = b.String()
	}))
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"k":"v"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, `{"k":"v"}`, got)
}

func TestShouldLogBodyPrefixAndForms(t *testing.T) {
	AddBodyLogPaths("/articles/actions/*", " ")

	req := httptest.NewRequest(http.MethodPost, "/articles/actions/n0.1", nil)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.True(t, shouldLogBody(req, []byte("topic=go")))

	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	assert.False(t, shouldLogBody(req, []byte("--x")))

	req = httptest.NewRequest(http.MethodGet, "/articles/actions/n0.1", nil)
	req.Header.Set("Content-Type", "application/json")
	assert.False(t, shouldLogBody(req, []byte(`{}`)))

	req = httptest.NewRequest(http.MethodPost, "/articles", nil)
	req.Header.Set("Content-Type", "application/json")
	assert.False(t, shouldLogBody(req, []byte(`{}`)))
}
