// Package httpclient fetches JSON resources over HTTP.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"
)

const maxErrorBody = 512

var (
	// ErrTransport marks failures to obtain a usable response: connection
	// errors, timeouts and unexpected status codes.
	ErrTransport = errors.New("transport failure")
	// ErrDecode marks responses whose body is not the expected JSON.
	ErrDecode = errors.New("decode failure")
)

// StatusError is returned when the server answers with an unexpected status.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrTransport
}

// IsNotFound reports whether err is a StatusError carrying 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// GetResource issues a GET to baseURL+endpoint and decodes the body into T.
func GetResource[T any](ctx context.Context, c *http.Client, baseURL, endpoint string, expectedStatus []int) (T, error) {
	return do[T](ctx, c, http.MethodGet, baseURL+endpoint, nil, expectedStatus)
}

// PostResource marshals body as JSON, POSTs it to baseURL+endpoint and
// decodes the response into T.
func PostResource[T any](ctx context.Context, c *http.Client, baseURL, endpoint string, body any, expectedStatus []int) (T, error) {
	var zero T
	payload, err := json.Marshal(body)
	if err != nil {
		return zero, fmt.Errorf("couldn't marshal request body: %w", err)
	}
	return do[T](ctx, c, http.MethodPost, baseURL+endpoint, payload, expectedStatus)
}

func do[T any](ctx context.Context, c *http.Client, method, url string, payload []byte, expectedStatus []int) (T, error) {
	var zero T

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return zero, fmt.Errorf("couldn't create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	if err != nil {
		return zero, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, fmt.Errorf("%w: couldn't read response body: %w", ErrTransport, err)
	}

	if !slices.Contains(expectedStatus, resp.StatusCode) {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return zero, &StatusError{
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	var resource T
	if err := json.Unmarshal(body, &resource); err != nil {
		return zero, fmt.Errorf("%w: %s %s: %w", ErrDecode, method, url, err)
	}

	return resource, nil
}

// DefaultTimeout bounds every request made by a client from NewClient.
const DefaultTimeout = 20 * time.Second

// NewClient returns an *http.Client with the given timeout, or DefaultTimeout
// when timeout is not positive.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}
