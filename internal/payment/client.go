// Package payment talks to a Paystack-style payment processor over REST.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Config carries the gateway credentials and connection settings. It is
// injected into the client so nothing reads process-wide state.
type Config struct {
	SecretKey string
	BaseURL   string
	Currency  string
	Timeout   time.Duration
}

// GatewayError is returned when the gateway answers with a non-success
// status; Message carries the gateway's own explanation.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("payment gateway returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("payment gateway error: %s", e.Message)
}

type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:    "payment-gateway",
		Timeout: 30 * time.Second,
	})
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
	}
}

type initializeRequest struct {
	Email       string `json:"email"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Reference   string `json:"reference"`
	CallbackURL string `json:"callback_url"`
}

type initializeResponse struct {
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
	} `json:"data"`
}

type verifyResponse struct {
	Message string `json:"message"`
	Data    struct {
		Status string `json:"status"`
	} `json:"data"`
}

// Initialize registers a transaction with the gateway and returns the
// hosted URL the customer must be redirected to. The amount is in the
// smallest currency unit.
func (c *Client) Initialize(ctx context.Context, email string, amountMinor int64, reference, callbackURL string) (string, error) {
	body, err := json.Marshal(initializeRequest{
		Email:       email,
		Amount:      amountMinor,
		Currency:    c.cfg.Currency,
		Reference:   reference,
		CallbackURL: callbackURL,
	})
	if err != nil {
		return "", fmt.Errorf("marshal initialize request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, c.cfg.BaseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var decoded initializeResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&decoded); decodeErr != nil && resp.StatusCode == http.StatusOK {
		return "", fmt.Errorf("decode initialize response: %w", decodeErr)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &GatewayError{StatusCode: resp.StatusCode, Message: decoded.Message}
	}

	return decoded.Data.AuthorizationURL, nil
}

// Verify reports whether the gateway considers the transaction for the
// given reference successful.
func (c *Client) Verify(ctx context.Context, reference string) (bool, error) {
	resp, err := c.do(ctx, http.MethodGet, c.cfg.BaseURL+"/transaction/verify/"+reference, nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var decoded verifyResponse
		_ = json.NewDecoder(resp.Body).Decode(&decoded)
		return false, &GatewayError{StatusCode: resp.StatusCode, Message: decoded.Message}
	}

	var decoded verifyResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&decoded); decodeErr != nil {
		return false, fmt.Errorf("decode verify response: %w", decodeErr)
	}

	return decoded.Data.Status == "success", nil
}

func (c *Client) do(ctx context.Context, method, url string, body *bytes.Reader) (*http.Response, error) {
	return c.breaker.Execute(func() (*http.Response, error) {
		var req *http.Request
		var err error
		if body != nil {
			req, err = http.NewRequestWithContext(ctx, method, url, body)
		} else {
			req, err = http.NewRequestWithContext(ctx, method, url, nil)
		}
		if err != nil {
			return nil, fmt.Errorf("build gateway request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("gateway request failed: %w", err)
		}
		return resp, nil
	})
}
