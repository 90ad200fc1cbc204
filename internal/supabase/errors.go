package supabase

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// ErrNotConfigured is returned by New when the project URL or anon key is missing.
var ErrNotConfigured = errors.New("supabase URL or anon key not configured")

// codeNoRows is PostgREST's error code for a single-object request that matched nothing.
const codeNoRows = "PGRST116"

// APIError is a non-2xx response from GoTrue or PostgREST.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return fmt.Sprintf("supabase http %d: %s", e.Status, e.Code)
	}
	return fmt.Sprintf("supabase http %d", e.Status)
}

// HTTPStatusCode returns the response status of the failed call.
func (e *APIError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.Status
}

// IsNoRows reports whether err is PostgREST's "no rows" answer to a Single query.
func IsNoRows(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == codeNoRows
}

// IsStatus reports whether err is an APIError with one of the given statuses.
func IsStatus(err error, statuses ...int) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, s := range statuses {
		if apiErr.Status == s {
			return true
		}
	}
	return false
}

// decodeAPIError understands both the GoTrue and the PostgREST error bodies.
func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		apiErr.Message = http.StatusText(status)
		if len(body) > 0 && len(body) < 512 {
			apiErr.Message = string(body)
		}
		return apiErr
	}

	for _, key := range []string{"msg", "message", "error_description", "error"} {
		if s, ok := raw[key].(string); ok && s != "" {
			apiErr.Message = s
			break
		}
	}
	if code, ok := raw["error_code"].(string); ok {
		apiErr.Code = code
	}
	if apiErr.Code == "" {
		switch code := raw["code"].(type) {
		case string:
			apiErr.Code = code
		case float64:
			apiErr.Code = strconv.Itoa(int(code))
		}
	}
	if apiErr.Code == "" {
		if s, ok := raw["error"].(string); ok && s != apiErr.Message {
			apiErr.Code = s
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
