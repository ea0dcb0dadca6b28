package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/DanielPopoola/jmw-payments/internal/application/services"
	"github.com/DanielPopoola/jmw-payments/internal/interfaces/rest"
	"github.com/DanielPopoola/jmw-payments/internal/interfaces/rest/handlers"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// envelope decodes both the success and the error shape of the API.
type envelope[T any] struct {
	Success bool             `json:"success"`
	Data    T                `json:"data"`
	Error   rest.ErrorDetail `json:"error"`
}

// TestClient wraps HTTP calls to the service.
type TestClient struct {
	baseURL    string
	httpClient *http.Client
	signer     *services.SignatureVerifier
}

func NewTestClient(baseURL, webhookSecret string) *TestClient {
	return &TestClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		signer: services.NewSignatureVerifier(webhookSecret),
	}
}

func (c *TestClient) Initialize(t *testing.T, orderIDs ...uuid.UUID) (int, envelope[handlers.InitializePaymentResponse]) {
	return call[handlers.InitializePaymentResponse](t, c, http.MethodPost, "/api/v1/payments/initialize", map[string]any{
		"order_ids": orderIDs,
	})
}

func (c *TestClient) Verify(t *testing.T, reference string) (int, envelope[handlers.VerifyPaymentResponse]) {
	return call[handlers.VerifyPaymentResponse](t, c, http.MethodPost, "/api/v1/payments/verify", map[string]any{
		"reference": reference,
	})
}

func (c *TestClient) GetPayment(t *testing.T, reference string) (int, envelope[handlers.PaymentResponse]) {
	return call[handlers.PaymentResponse](t, c, http.MethodGet, "/api/v1/payments/"+reference, nil)
}

func (c *TestClient) SubmitEntry(t *testing.T, linkID uuid.UUID, req handlers.SubmitEntryRequest) (int, envelope[handlers.SubmitEntryResponse]) {
	return call[handlers.SubmitEntryResponse](t, c, http.MethodPost, "/api/v1/links/"+linkID.String()+"/entries", req)
}

// ChargeSuccess delivers a signed charge.success webhook for reference.
func (c *TestClient) ChargeSuccess(t *testing.T, reference string, amount int64) (int, handlers.WebhookResponse) {
	body := fmt.Appendf(nil, `{"event":"charge.success","data":{"reference":%q,"status":"success","amount":%d}}`, reference, amount)
	return c.Webhook(t, body, c.signer.Sign(body))
}

func (c *TestClient) Webhook(t *testing.T, body []byte, signature string) (int, handlers.WebhookResponse) {
	t.Helper()

	httpReq, err := http.NewRequest(http.MethodPost, c.baseURL+"/webhooks/paystack", bytes.NewReader(body))
	require.NoError(t, err)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(handlers.SignatureHeader, signature)

	resp, err := c.httpClient.Do(httpReq)
	require.NoError(t, err)
	defer resp.Body.Close()

	var webhookResp handlers.WebhookResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&webhookResp))
	return resp.StatusCode, webhookResp
}

func call[T any](t *testing.T, c *TestClient, method, path string, body any) (int, envelope[T]) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequest(method, c.baseURL+path, reader)
	require.NoError(t, err)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	require.NoError(t, err)
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope[T]
	require.NoError(t, json.Unmarshal(bodyBytes, &env), "body: %s", bodyBytes)
	return resp.StatusCode, env
}
