package redstone

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KNICEX/token-watch/internal/service/oracle"
	"github.com/KNICEX/token-watch/pkg/decimalx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ETH", r.URL.Query().Get("symbol"))
		assert.Equal(t, "redstone", r.URL.Query().Get("provider"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"symbol":"ETH","value":4123.45,"timestamp":1735689600000}]`))
	}))
	defer srv.Close()

	svc := NewService(WithBaseURL(srv.URL))
	res := svc.GetPrice(context.Background(), "eth")

	require.NoError(t, res.Err)
	assert.Equal(t, "ETH", res.Symbol)
	assert.True(t, res.Price.Equal(decimalx.MustFromString("4123.45")))
	assert.Equal(t, time.UnixMilli(1735689600000), res.Timestamp)
}

func TestGetPriceEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	svc := NewService(WithBaseURL(srv.URL))
	res := svc.GetPrice(context.Background(), "ETH")
	assert.ErrorIs(t, res.Err, oracle.ErrEmptyResponse)
}

func TestGetPriceZeroValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"symbol":"ETH","value":0}]`))
	}))
	defer srv.Close()

	svc := NewService(WithBaseURL(srv.URL))
	res := svc.GetPrice(context.Background(), "ETH")
	assert.ErrorIs(t, res.Err, oracle.ErrEmptyResponse)
}

func TestGetPriceServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	svc := NewService(WithBaseURL(srv.URL))
	res := svc.GetPrice(context.Background(), "ETH")
	assert.ErrorIs(t, res.Err, oracle.ErrFetchFailed)
}

func TestGetPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("symbol") {
		case "ETH":
			_, _ = w.Write([]byte(`[{"symbol":"ETH","value":4000}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	svc := NewService(WithBaseURL(srv.URL))
	out := svc.GetPrices(context.Background(), []string{"ETH", "SOL"})

	require.Len(t, out, 2)
	assert.True(t, out["ETH"].Ok())
	assert.False(t, out["SOL"].Ok())
}
