package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Error codes the server returns in error bodies.
const (
	CodeBadRequest       = "bad_request"
	CodeValidationFailed = "validation_failed"
	CodeUnknownService   = "unknown_service"
	CodeNoServices       = "no_services"
	CodeInternalError    = "internal_error"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("polyseek: %s (%s, HTTP %d)", e.Message, e.Code, e.StatusCode)
}

// IsUnknownService reports whether err is the server rejecting an unknown
// service name.
func IsUnknownService(err error) bool { return hasCode(err, CodeUnknownService) }

// IsNoServices reports whether err means zero services were eligible.
func IsNoServices(err error) bool { return hasCode(err, CodeNoServices) }

func hasCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

func apiErrorFrom(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, Code: CodeInternalError, Message: "internal error"}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return apiErr
	}
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Code != "" {
		apiErr.Code = payload.Code
		apiErr.Message = payload.Message
	}
	return apiErr
}
