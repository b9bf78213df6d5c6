package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveRateTier(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		want   string
	}{
		{"Pay is strict", http.MethodPost, "/api/orders/abc/pay", "strict"},
		{"Cancel is strict", http.MethodPost, "/api/orders/abc/cancel", "strict"},
		{"Ship is general", http.MethodPost, "/api/orders/abc/ship", "general"},
		{"Read is general", http.MethodGet, "/api/orders/abc/pay", "general"},
		{"List is general", http.MethodGet, "/api/orders", "general"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			_, _, tier := resolveRateTier(req)
			assert.Equal(t, tt.want, tier)
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimitMiddleware(next)

	t.Run("Strict tier exhausts after burst", func(t *testing.T) {
		var lastCode int
		for i := 0; i < burstStrict+1; i++ {
			req := httptest.NewRequest(http.MethodPost, "/api/orders/abc/pay", nil)
			req.Header.Set("X-Device-ID", "device-strict-test")
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)
			lastCode = w.Code

			if i < burstStrict {
				assert.Equal(t, http.StatusOK, w.Code, "request %d should pass", i)
			}
		}

		assert.Equal(t, http.StatusTooManyRequests, lastCode)
	})

	t.Run("Tiers have separate quotas", func(t *testing.T) {
		// Exhaust the strict bucket for this device.
		for i := 0; i < burstStrict+1; i++ {
			req := httptest.NewRequest(http.MethodPost, "/api/orders/abc/cancel", nil)
			req.Header.Set("X-Device-ID", "device-tier-test")
			handler.ServeHTTP(httptest.NewRecorder(), req)
		}

		// General reads still go through.
		req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		req.Header.Set("X-Device-ID", "device-tier-test")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Devices are isolated", func(t *testing.T) {
		for i := 0; i < burstStrict+1; i++ {
			req := httptest.NewRequest(http.MethodPost, "/api/orders/abc/pay", nil)
			req.Header.Set("X-Device-ID", "device-a")
			handler.ServeHTTP(httptest.NewRecorder(), req)
		}

		req := httptest.NewRequest(http.MethodPost, "/api/orders/abc/pay", nil)
		req.Header.Set("X-Device-ID", "device-b")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
