package schwabapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIError represents an error response from the Schwab API.
type APIError struct {
	StatusCode int
	Message    string
	// Errors holds the individual validation messages some endpoints return.
	Errors []string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if len(e.Errors) > 0 {
		msg = msg + ": " + strings.Join(e.Errors, "; ")
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, msg)
}

// IsNotFound returns true if the error is a 404 Not Found.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized returns true if the error is a 401 Unauthorized.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsForbidden returns true if the error is a 403 Forbidden.
func (e *APIError) IsForbidden() bool {
	return e.StatusCode == http.StatusForbidden
}

// IsRateLimited returns true if the error is a 429 Too Many Requests.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsNotFound reports whether err wraps a 404 APIError.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsNotFound()
}

// IsUnauthorized reports whether err wraps a 401 APIError.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsUnauthorized()
}

// IsForbidden reports whether err wraps a 403 APIError.
func IsForbidden(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsForbidden()
}

// IsRateLimited reports whether err wraps a 429 APIError.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsRateLimited()
}

// errorResponse covers both error shapes Schwab returns: the trader API's
// {"message", "errors"} and the OAuth/gateway {"error", "error_description"}.
type errorResponse struct {
	Message          string          `json:"message"`
	Errors           json.RawMessage `json:"errors"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

// errorDetail is one entry of the "errors" array.
type errorDetail struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// CheckResponse checks the API response for errors.
// If the response status code is outside 2xx, it parses the error body and
// returns an APIError. Otherwise, returns nil.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		return apiErr
	}

	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		// Body is not JSON, ignore parsing error
		return apiErr
	}

	switch {
	case errResp.Message != "":
		apiErr.Message = errResp.Message
	case errResp.ErrorDescription != "":
		apiErr.Message = errResp.ErrorDescription
	case errResp.Error != "":
		apiErr.Message = errResp.Error
	}
	apiErr.Errors = parseErrorList(errResp.Errors)

	return apiErr
}

// parseErrorList accepts either a list of strings or a list of
// {"title","detail"} objects.
func parseErrorList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var plain []string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}
	var details []errorDetail
	if err := json.Unmarshal(raw, &details); err != nil {
		return nil
	}
	out := make([]string, 0, len(details))
	for _, d := range details {
		switch {
		case d.Detail != "":
			out = append(out, d.Detail)
		case d.Title != "":
			out = append(out, d.Title)
		}
	}
	return out
}

// DecodeJSON decodes a JSON response body into the given target.
func DecodeJSON(resp *http.Response, target interface{}) error {
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
