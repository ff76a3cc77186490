package deploy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewHealthCheckStep(t *testing.T) {
	ctx := context.Background()

	t.Run("healthy endpoint", func(t *testing.T) {
		server := httptest.NewServer(
			http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}),
		)
		defer server.Close()

		err := NewHealthCheckStep(server.URL, 1).Run(ctx)
		assert.NoError(t, err)
	})

	t.Run("endpoint recovering after errors", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(
			http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if atomic.AddInt32(&calls, 1) < 3 {
					w.WriteHeader(http.StatusServiceUnavailable)
					return
				}
				w.WriteHeader(http.StatusOK)
			}),
		)
		defer server.Close()

		err := NewHealthCheckStep(server.URL, 5).Run(ctx)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(3))
	})

	t.Run("persistently failing endpoint", func(t *testing.T) {
		server := httptest.NewServer(
			http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}),
		)
		defer server.Close()

		err := NewHealthCheckStep(server.URL, 1).Run(ctx)
		assert.Error(t, err)
	})

	t.Run("non-retryable status is reported", func(t *testing.T) {
		server := httptest.NewServer(
			http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}),
		)
		defer server.Close()

		err := NewHealthCheckStep(server.URL, 1).Run(ctx)
		assert.Error(t, err)
		assert.ErrorContains(t, err, "404")
	})
}
