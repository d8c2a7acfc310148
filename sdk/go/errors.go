package weddingplanner

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// APIError represents an error response from the Wedding Planner API.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("weddingplanner: API error %d [%s]: %s", e.StatusCode, e.Code, e.Message)
}

// apiErrorWrapper matches the API error envelope.
type apiErrorWrapper struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	// Message is the flat shape some proxies and older servers return.
	Message string `json:"message"`
}

func parseAPIError(statusCode int, body []byte) error {
	var wrapper apiErrorWrapper
	if err := json.Unmarshal(body, &wrapper); err == nil {
		if wrapper.Error.Code != "" || wrapper.Error.Message != "" {
			return &APIError{
				StatusCode: statusCode,
				Code:       wrapper.Error.Code,
				Message:    wrapper.Error.Message,
			}
		}
		if wrapper.Message != "" {
			return &APIError{
				StatusCode: statusCode,
				Code:       "unknown",
				Message:    wrapper.Message,
			}
		}
	}

	return &APIError{
		StatusCode: statusCode,
		Code:       "unknown",
		Message:    strings.TrimSpace(string(body)),
	}
}

// IsAPIError checks whether err is or wraps an APIError and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Message returns the text to show a user for err: the server's message
// when the API supplied one, otherwise the error text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := IsAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
