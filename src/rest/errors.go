package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// APIErrorBody is the error shape returned by the platform's REST API.
type APIErrorBody struct {
	Message string      `json:"message"`
	Code    uint        `json:"code"`
	Errors  interface{} `json:"errors,omitempty"`
}

// HTTPError is a failed REST command. It is always surfaced to the caller
// through the command's returned result, never swallowed by the transport.
type HTTPError struct {
	Status int
	Body   APIErrorBody
	Raw    []byte
}

func (e *HTTPError) Error() string {
	if e.Body.Message != "" {
		return fmt.Sprintf("http %d: %s (code %d)", e.Status, e.Body.Message, e.Body.Code)
	}
	return fmt.Sprintf("http %d", e.Status)
}

// IsNotFound reports whether the failure was a missing resource, which
// deferred commands are allowed to swallow.
func (e *HTTPError) IsNotFound() bool {
	return e.Status == http.StatusNotFound
}

// CheckResponse converts a non-2xx response into an *HTTPError, reading
// and closing the body.
func CheckResponse(res *http.Response) error {
	if res.StatusCode < 400 {
		return nil
	}
	defer res.Body.Close()
	raw, _ := io.ReadAll(res.Body)
	httpErr := &HTTPError{Status: res.StatusCode, Raw: raw}
	json.Unmarshal(raw, &httpErr.Body)
	return httpErr
}
