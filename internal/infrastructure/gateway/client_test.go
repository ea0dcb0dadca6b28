package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/config"
	"github.com/DanielPopoola/jmw-payments/internal/domain"
	"github.com/DanielPopoola/jmw-payments/internal/infrastructure/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *gateway.PaystackClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return gateway.NewPaystackClient(config.PaystackConfig{
		TestMode:      true,
		TestSecretKey: "sk_test_abc",
		TestPublicKey: "pk_test_abc",
		LiveSecretKey: "sk_live_should_not_be_used",
		BaseURL:       server.URL,
		Timeout:       2 * time.Second,
		VerifyTimeout: time.Second,
	})
}

func TestPaystackClient_Initialize(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_abc", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "JMW-PAY-A1B2C3D4", body["reference"])
		assert.Equal(t, float64(1_250_050), body["amount"])
		assert.Equal(t, "buyer@example.com", body["email"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/x1","access_code":"x1","reference":"JMW-PAY-A1B2C3D4"}}`))
	})

	resp, err := client.Initialize(context.Background(), application.InitializeRequest{
		Reference: "JMW-PAY-A1B2C3D4",
		Email:     "buyer@example.com",
		Amount:    1_250_050,
	})

	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.com/x1", resp.AuthorizationURL)
	assert.Equal(t, "x1", resp.AccessCode)
}

func TestPaystackClient_Verify(t *testing.T) {
	t.Run("decodes a successful transaction", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/transaction/verify/JMW-PAY-A1B2C3D4", r.URL.Path)
			_, _ = w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"id":4099260516,"status":"success","reference":"JMW-PAY-A1B2C3D4","amount":500000,"currency":"NGN","paid_at":"2026-03-14T10:00:00.000Z","customer":{"email":"buyer@example.com"}}}`))
		})

		resp, err := client.Verify(context.Background(), "JMW-PAY-A1B2C3D4")

		require.NoError(t, err)
		assert.Equal(t, application.GatewayStatusSuccess, resp.Status)
		assert.Equal(t, domain.Kobo(500_000), resp.Amount)
		assert.Equal(t, "4099260516", resp.GatewayReference)
		assert.Equal(t, "buyer@example.com", resp.CustomerEmail)
		require.NotNil(t, resp.PaidAt)
		assert.Equal(t, 2026, resp.PaidAt.Year())
	})

	t.Run("escapes bulk references into one path segment", func(t *testing.T) {
		ref := "ORDER-5f0c6a62-6f55-4c8e-9d0f-2f1b6a3c9e11-0a8d2f64-3b5e-4c1f-8a2d-7e9b1c4d5f60"
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/transaction/verify/"+ref, r.URL.Path)
			_, _ = w.Write([]byte(`{"status":true,"message":"ok","data":{"status":"abandoned","reference":"` + ref + `","amount":100}}`))
		})

		resp, err := client.Verify(context.Background(), ref)

		require.NoError(t, err)
		assert.Equal(t, application.GatewayStatusAbandoned, resp.Status)
		assert.Empty(t, resp.GatewayReference)
	})

	t.Run("maps 404 to a non-retryable gateway error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status":false,"message":"Transaction reference not found"}`))
		})

		_, err := client.Verify(context.Background(), "JMW-PAY-ZZZZ0000")

		gwErr, ok := gateway.IsGatewayError(err)
		require.True(t, ok)
		assert.Equal(t, "transaction_not_found", gwErr.Code)
		assert.Equal(t, "Transaction reference not found", gwErr.Message)
		assert.False(t, gwErr.IsRetryable())
	})

	t.Run("status false on 200 is still an error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status":false,"message":"Invalid key"}`))
		})

		_, err := client.Verify(context.Background(), "JMW-PAY-ZZZZ0000")

		_, ok := gateway.IsGatewayError(err)
		assert.True(t, ok)
	})

	t.Run("5xx is retryable", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`upstream unavailable`))
		})

		_, err := client.Verify(context.Background(), "JMW-PAY-ZZZZ0000")

		gwErr, ok := gateway.IsGatewayError(err)
		require.True(t, ok)
		assert.True(t, gwErr.IsRetryable())
		assert.Equal(t, "upstream unavailable", gwErr.Message)
		assert.True(t, application.IsRetryable(err))
	})
}
