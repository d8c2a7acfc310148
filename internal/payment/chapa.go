package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/weddingplanner/weddingplanner/internal/config"
	"github.com/weddingplanner/weddingplanner/internal/metrics"
)

var (
	// ErrGatewayUnavailable is returned while the circuit breaker is open.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	// ErrNotConfigured is returned when no secret key is set.
	ErrNotConfigured = errors.New("payment gateway not configured")
)

// GatewayError is a non-2xx answer from the gateway.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("chapa: status %d: %s", e.StatusCode, e.Message)
}

// InitializeRequest describes a hosted checkout to open.
type InitializeRequest struct {
	Amount      float64
	Currency    string
	Email       string
	FirstName   string
	LastName    string
	Phone       string
	TxRef       string
	Title       string
	Description string
}

// Verification is the gateway's view of a transaction.
type Verification struct {
	TxRef     string
	Reference string
	Status    string
	Amount    float64
	Currency  string
}

// Succeeded reports whether the gateway settled the transaction.
func (v *Verification) Succeeded() bool {
	return strings.EqualFold(v.Status, "success")
}

// Client talks to the Chapa REST API.
type Client struct {
	http        *http.Client
	baseURL     string
	secretKey   string
	callbackURL string
	returnURL   string
	breaker     *gobreaker.CircuitBreaker[[]byte]
}

// NewClient creates a Chapa client. callbackURL is the absolute URL Chapa
// notifies after payment.
func NewClient(cfg config.ChapaConfig, callbackURL string) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxFailures := cfg.Breaker.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	settings := gobreaker.Settings{
		Name:    "chapa",
		Timeout: cfg.Breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// Client errors mean the gateway is up.
		IsSuccessful: func(err error) bool {
			var gwErr *GatewayError
			if errors.As(err, &gwErr) {
				return gwErr.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
	}

	return &Client{
		http:        &http.Client{Timeout: timeout},
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		secretKey:   cfg.SecretKey,
		callbackURL: callbackURL,
		returnURL:   cfg.ReturnURL,
		breaker:     gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

type initializeBody struct {
	Amount        string            `json:"amount"`
	Currency      string            `json:"currency"`
	Email         string            `json:"email"`
	FirstName     string            `json:"first_name"`
	LastName      string            `json:"last_name"`
	PhoneNumber   string            `json:"phone_number,omitempty"`
	TxRef         string            `json:"tx_ref"`
	CallbackURL   string            `json:"callback_url,omitempty"`
	ReturnURL     string            `json:"return_url,omitempty"`
	Customization map[string]string `json:"customization,omitempty"`
}

type envelope struct {
	Message json.RawMessage `json:"message"`
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
}

// Initialize opens a hosted checkout and returns its URL.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (string, error) {
	defer metrics.ObserveGateway("initialize", time.Now())

	body := initializeBody{
		Amount:      strconv.FormatFloat(req.Amount, 'f', 2, 64),
		Currency:    req.Currency,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.Phone,
		TxRef:       req.TxRef,
		CallbackURL: c.callbackURL,
		ReturnURL:   c.returnURL,
	}
	if req.Title != "" || req.Description != "" {
		body.Customization = map[string]string{"title": req.Title, "description": req.Description}
	}

	raw, err := c.do(ctx, http.MethodPost, "/transaction/initialize", body)
	if err != nil {
		return "", err
	}

	var data struct {
		CheckoutURL string `json:"checkout_url"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", fmt.Errorf("chapa: failed to parse initialize response: %w", err)
	}
	if data.CheckoutURL == "" {
		return "", fmt.Errorf("chapa: initialize response has no checkout url")
	}
	return data.CheckoutURL, nil
}

// Verify fetches the state of the transaction identified by txRef.
func (c *Client) Verify(ctx context.Context, txRef string) (*Verification, error) {
	defer metrics.ObserveGateway("verify", time.Now())

	raw, err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(txRef), nil)
	if err != nil {
		return nil, err
	}

	var data struct {
		TxRef     string     `json:"tx_ref"`
		Reference string     `json:"reference"`
		Status    string     `json:"status"`
		Amount    flexAmount `json:"amount"`
		Currency  string     `json:"currency"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("chapa: failed to parse verify response: %w", err)
	}
	return &Verification{
		TxRef:     data.TxRef,
		Reference: data.Reference,
		Status:    data.Status,
		Amount:    float64(data.Amount),
		Currency:  data.Currency,
	}, nil
}

// do performs one call through the breaker and returns the data member.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	if c.secretKey == "" {
		return nil, ErrNotConfigured
	}

	data, err := c.breaker.Execute(func() ([]byte, error) {
		var reader io.Reader
		if payload != nil {
			b, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("chapa: failed to encode request: %w", err)
			}
			reader = bytes.NewReader(b)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("chapa: failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.secretKey)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("chapa: request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("chapa: failed to read response: %w", err)
		}

		var env envelope
		_ = json.Unmarshal(body, &env)

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &GatewayError{StatusCode: resp.StatusCode, Message: env.message(body)}
		}
		if !strings.EqualFold(env.Status, "success") {
			return nil, &GatewayError{StatusCode: resp.StatusCode, Message: env.message(body)}
		}
		return env.Data, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return data, err
}

// message extracts a readable message; Chapa sends either a string or a
// map of field errors.
func (e envelope) message(body []byte) string {
	var s string
	if err := json.Unmarshal(e.Message, &s); err == nil && s != "" {
		return s
	}
	if len(e.Message) > 0 && string(e.Message) != "null" {
		return string(e.Message)
	}
	return strings.TrimSpace(string(body))
}

// flexAmount accepts both JSON numbers and numeric strings.
type flexAmount float64

func (a *flexAmount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", s, err)
	}
	*a = flexAmount(f)
	return nil
}
