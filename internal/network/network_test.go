// File: internal/network/network_test.go
package network

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewClientDefaults(t *testing.T) {
	client, err := NewClient(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultRequestTimeout, client.Timeout)

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, DefaultTLSHandshakeTimeout, transport.TLSHandshakeTimeout)
	assert.False(t, transport.TLSClientConfig.InsecureSkipVerify)
}

func TestNewClientIgnoresTLSErrors(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	strict, err := NewClient(nil)
	require.NoError(t, err)
	_, err = strict.Get(srv.URL)
	require.Error(t, err, "self-signed certs should fail the strict client")

	lenient, err := NewClient(&ClientConfig{IgnoreTLSErrors: true})
	require.NoError(t, err)
	resp, err := lenient.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
}

func TestPreflight(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Run("passes on 200", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		client, err := NewClient(nil)
		require.NoError(t, err)
		assert.NoError(t, Preflight(context.Background(), client, srv.URL, logger))
	})

	t.Run("passes on auth redirect target", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "sign in required", http.StatusUnauthorized)
		}))
		defer srv.Close()

		client, err := NewClient(nil)
		require.NoError(t, err)
		assert.NoError(t, Preflight(context.Background(), client, srv.URL, logger))
	})

	t.Run("fails on server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))
		defer srv.Close()

		client, err := NewClient(nil)
		require.NoError(t, err)
		err = Preflight(context.Background(), client, srv.URL, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("fails when unreachable", func(t *testing.T) {
		client, err := NewClient(&ClientConfig{RequestTimeout: 500 * time.Millisecond})
		require.NoError(t, err)
		err = Preflight(context.Background(), client, "http://127.0.0.1:1", logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "portal unreachable")
	})
}
