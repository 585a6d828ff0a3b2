package notion

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// APIError represents a non-retryable Notion API error response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       []byte

	// Hint suggests a configuration fix for auth and not-found errors.
	Hint string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("notion: API error %d: %s", e.StatusCode, e.Message)
	if e.Code != "" {
		msg = fmt.Sprintf("notion: API error %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

// Unwrap classifies every API error as a remote rejection.
func (e *APIError) Unwrap() error {
	return domain.ErrRemoteRejected
}

// newAPIError builds an APIError from a response, reading Notion's
// {"code","message"} error object when present.
func newAPIError(resp *Response) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(resp.Body)),
		Body:       resp.Body,
	}
	var parsed struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(resp.Body, &parsed) == nil {
		apiErr.Code = parsed.Code
		if strings.TrimSpace(parsed.Message) != "" {
			apiErr.Message = parsed.Message
		}
	}
	return apiErr
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401
	}
	return false
}

// IsNotFound checks if the error indicates the database or page is not
// shared with the integration or does not exist.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}
