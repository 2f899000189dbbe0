package backend

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/maheshrc27/postpilot/internal/transfer"
)

var (
	ErrMalformedResponse = errors.New("malformed response")
	ErrMissingAuthURL    = errors.New("no auth URL received from server")
)

// APIError is a failure reported by the backend, either through a non-2xx
// status or an error field in an otherwise successful body.
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

func statusError(endpoint string, status int, body []byte, fallback string) *APIError {
	msg := fallback
	var payload transfer.ErrorResponse
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP error! status: %d", status)
	}
	return &APIError{Endpoint: endpoint, StatusCode: status, Message: msg}
}

func malformed(endpoint string, detail any) error {
	return fmt.Errorf("%s: %w: %v", endpoint, ErrMalformedResponse, detail)
}

// IsStatus reports whether err is an APIError carrying the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
