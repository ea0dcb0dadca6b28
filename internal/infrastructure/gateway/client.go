package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/config"
	"github.com/DanielPopoola/jmw-payments/internal/domain"
)

// maxResponseBytes caps how much of a gateway response is read.
const maxResponseBytes = 1 << 20

type PaystackClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewPaystackClient(cfg config.PaystackConfig) *PaystackClient {
	secret, _ := cfg.Keys()
	return &PaystackClient{
		baseURL:   cfg.BaseURL,
		secretKey: secret,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (c *PaystackClient) Initialize(ctx context.Context, req application.InitializeRequest) (*application.InitializeResponse, error) {
	body := initializeRequest{
		Email:       req.Email,
		Amount:      int64(req.Amount),
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		Currency:    "NGN",
		Metadata:    req.Metadata,
	}
	data, err := sendRequest[initializeRequest, initializeData](c, ctx, http.MethodPost, c.baseURL+"/transaction/initialize", &body)
	if err != nil {
		return nil, err
	}

	reference := data.Reference
	if reference == "" {
		reference = req.Reference
	}
	return &application.InitializeResponse{
		Reference:        reference,
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
	}, nil
}

func (c *PaystackClient) Verify(ctx context.Context, reference string) (*application.VerifyResponse, error) {
	endpoint := c.baseURL + "/transaction/verify/" + url.PathEscape(reference)
	data, err := sendRequest[any, verifyData](c, ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	verification := &application.VerifyResponse{
		Reference:     data.Reference,
		Status:        data.Status,
		Amount:        domain.Kobo(data.Amount),
		Currency:      data.Currency,
		PaidAt:        data.PaidAt,
		CustomerEmail: data.Customer.Email,
	}
	if data.ID != 0 {
		verification.GatewayReference = strconv.FormatInt(data.ID, 10)
	}
	return verification, nil
}

func sendRequest[Req any, Resp any](c *PaystackClient, ctx context.Context, method, endpoint string, reqBody *Req) (*Resp, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("error marshalling json: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	httpReq.Header.Set("Accept", "application/json")
	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	var env envelope[Resp]
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := string(body)
		if decodeErr == nil && env.Message != "" {
			message = env.Message
		}
		return nil, &GatewayError{
			Code:       codeForStatus(resp.StatusCode),
			Message:    message,
			StatusCode: resp.StatusCode,
		}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("error decoding json response: %w", decodeErr)
	}
	if !env.Status {
		return nil, &GatewayError{
			Code:       "rejected",
			Message:    env.Message,
			StatusCode: resp.StatusCode,
		}
	}

	return &env.Data, nil
}
