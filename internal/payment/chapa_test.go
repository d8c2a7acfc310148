package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weddingplanner/weddingplanner/internal/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return NewClient(config.ChapaConfig{
		SecretKey: "CHASECK_TEST-123",
		BaseURL:   srv.URL + "/v1",
		ReturnURL: "http://localhost:5173/payment/success",
		Timeout:   2 * time.Second,
		Breaker:   config.BreakerConfig{MaxFailures: 2, OpenTimeout: time.Minute},
	}, "http://api.local/api/v1/payments/callback")
}

func TestInitialize_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer CHASECK_TEST-123", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "12500.00", body["amount"])
		assert.Equal(t, "ETB", body["currency"])
		assert.Equal(t, "wp-abc", body["tx_ref"])
		assert.Equal(t, "http://api.local/api/v1/payments/callback", body["callback_url"])
		assert.Equal(t, "http://localhost:5173/payment/success", body["return_url"])

		_, _ = w.Write([]byte(`{"message":"Hosted Link","status":"success","data":{"checkout_url":"https://checkout.chapa.co/checkout/payment/xyz"}}`))
	})

	checkoutURL, err := c.Initialize(context.Background(), InitializeRequest{
		Amount: 12500, Currency: "ETB", Email: "c@example.com", FirstName: "Sara", LastName: "T", TxRef: "wp-abc",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.chapa.co/checkout/payment/xyz", checkoutURL)
}

func TestInitialize_GatewayRejects(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":{"email":["The email must be a valid email address."]},"status":"failed","data":null}`))
	})

	_, err := c.Initialize(context.Background(), InitializeRequest{Amount: 1, TxRef: "wp-1"})
	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusBadRequest, gwErr.StatusCode)
	assert.Contains(t, gwErr.Message, "valid email")
}

func TestVerify(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/transaction/verify/wp-abc", r.URL.Path)
		_, _ = w.Write([]byte(`{"message":"Payment details","status":"success","data":{"tx_ref":"wp-abc","reference":"APx1","status":"success","amount":"12500.00","currency":"ETB"}}`))
	})

	v, err := c.Verify(context.Background(), "wp-abc")
	require.NoError(t, err)
	assert.True(t, v.Succeeded())
	assert.Equal(t, "APx1", v.Reference)
	assert.Equal(t, 12500.0, v.Amount)
}

func TestVerify_NumericAmountAndPending(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","data":{"tx_ref":"wp-1","status":"pending","amount":300}}`))
	})

	v, err := c.Verify(context.Background(), "wp-1")
	require.NoError(t, err)
	assert.False(t, v.Succeeded())
	assert.Equal(t, 300.0, v.Amount)
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 2; i++ {
		_, err := c.Verify(context.Background(), "wp-1")
		require.Error(t, err)
	}

	_, err := c.Verify(context.Background(), "wp-1")
	assert.True(t, errors.Is(err, ErrGatewayUnavailable))
	assert.Equal(t, int32(2), calls.Load())
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Invalid transaction or Transaction not found","status":"failed"}`))
	})

	for i := 0; i < 4; i++ {
		_, err := c.Verify(context.Background(), "wp-missing")
		var gwErr *GatewayError
		require.ErrorAs(t, err, &gwErr)
	}
	assert.Equal(t, int32(4), calls.Load())
}

func TestNotConfigured(t *testing.T) {
	c := NewClient(config.ChapaConfig{BaseURL: "http://unused"}, "")
	_, err := c.Verify(context.Background(), "wp-1")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
