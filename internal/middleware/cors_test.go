package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func preflight(handler http.Handler, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/product/get-product", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestCORSMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	t.Run("development accepts any origin without credentials", func(t *testing.T) {
		handler := CORSMiddleware([]string{"https://shop.example.com"}, true)(ok)
		w := preflight(handler, "https://elsewhere.example.org")

		assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("production honours the listed origins", func(t *testing.T) {
		handler := CORSMiddleware([]string{"https://shop.example.com"}, false)(ok)

		w := preflight(handler, "https://shop.example.com")
		assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

		w = preflight(handler, "https://evil.example.net")
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}
