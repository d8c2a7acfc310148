package weddingplanner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config holds the configuration for the Wedding Planner client.
type Config struct {
	// BaseURL is the root URL of the API server.
	// Examples: "https://api.example.com" or "https://api.example.com/api/v1"
	// The "/api/v1" suffix is appended automatically if missing.
	BaseURL string

	// HTTPClient is an optional custom HTTP client.
	// If nil, a default client with 15s timeout is used.
	HTTPClient *http.Client
}

func (c *Config) defaults() {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
	if !strings.HasSuffix(c.BaseURL, "/api/v1") {
		c.BaseURL += "/api/v1"
	}
}

// Client calls the Wedding Planner REST API.
type Client struct {
	cfg Config
}

// NewClient creates a new client with the given configuration.
func NewClient(cfg Config) *Client {
	cfg.defaults()
	return &Client{cfg: cfg}
}

// Login authenticates a user with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me returns the account the token belongs to.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var resp struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/users/me", token, nil, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, fmt.Errorf("weddingplanner: response has no user")
	}
	return resp.User, nil
}

// ListServices lists the public catalog.
func (c *Client) ListServices(ctx context.Context, q ServiceQuery) ([]Service, error) {
	params := url.Values{}
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.VendorID != "" {
		params.Set("vendorId", q.VendorID)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	path := "/services"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp struct {
		Services []Service `json:"services"`
	}
	if err := c.do(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Services, nil
}

// CreateBooking books a service as the client the token belongs to.
func (c *Client) CreateBooking(ctx context.Context, token string, req BookingRequest) (*Booking, error) {
	var resp struct {
		Booking *Booking `json:"booking"`
	}
	if err := c.do(ctx, http.MethodPost, "/client/bookings", token, req, &resp); err != nil {
		return nil, err
	}
	if resp.Booking == nil {
		return nil, fmt.Errorf("weddingplanner: response has no booking")
	}
	return resp.Booking, nil
}

// InitiatePayment opens a hosted checkout for a booking.
func (c *Client) InitiatePayment(ctx context.Context, token string, req PaymentRequest) (*PaymentInit, error) {
	var resp PaymentInit
	if err := c.do(ctx, http.MethodPost, "/client/payments/initiate", token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyPayment asks the API to confirm a transaction with the gateway.
// Call it when the client returns from the hosted checkout.
func (c *Client) VerifyPayment(ctx context.Context, token, txRef string) (*VerifyResult, error) {
	var resp VerifyResult
	if err := c.do(ctx, http.MethodGet, "/payments/verify/"+url.PathEscape(txRef), token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do sends a request to the API and decodes a successful JSON response
// into out.
func (c *Client) do(ctx context.Context, method, path, token string, payload, out interface{}) error {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("weddingplanner: failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("weddingplanner: failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("weddingplanner: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("weddingplanner: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return parseAPIError(resp.StatusCode, body)
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("weddingplanner: failed to parse response: %w", err)
	}
	return nil
}
