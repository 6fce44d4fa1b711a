package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandleNormalizesMethod(t *testing.T) {
	r := NewChi()
	r.Handle(" patch ", "/things/{id}", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(URLParam(req, "id")))
	}))

	w := httptest.NewRecorder()
	r.Mux().ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/things/42", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "42", w.Body.String())
}

func TestURLParamsSkipsCatchAll(t *testing.T) {
	r := NewChi()
	var got map[string]string
	r.Get("/a/{x}/b/*", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		got = URLParams(req)
	}))
	r.Mux().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/a/one/b/c/d", nil))
	assert.Equal(t, map[string]string{"x": "one"}, got)

	assert.Nil(t, URLParams(httptest.NewRequest(http.MethodGet, "/", nil)))
}
