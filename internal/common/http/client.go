// internal/common/http/client.go
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultResponseBodyLimit int64 = 10 << 20 // 10 MiB

// Request is one JSON call. A nil Body sends no payload; a non-nil Body is
// JSON encoded, so an empty map goes out as "{}".
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    interface{}
}

// ResponseError is returned for non-2xx responses and for failures before a
// response exists (StatusCode 0).
type ResponseError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *ResponseError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d - %s", e.StatusCode, e.Message)
}

// Client executes JSON requests and decodes JSON responses.
type Client struct {
	httpClient   *http.Client
	maxBodyBytes int64
}

func NewClient(timeout time.Duration) *Client {
	return NewClientWithHTTP(&http.Client{Timeout: timeout})
}

// NewClientWithHTTP wraps an existing http.Client, e.g. httptest's server client.
func NewClientWithHTTP(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		httpClient:   httpClient,
		maxBodyBytes: defaultResponseBodyLimit,
	}
}

// Do sends req and returns the decoded JSON body. An empty 2xx body decodes
// to an empty object.
func (c *Client) Do(ctx context.Context, req Request) (interface{}, error) {
	var payload io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, &ResponseError{Message: fmt.Sprintf("encode request body: %v", err)}
		}
		payload = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, strings.ToUpper(req.Method), req.URL, payload)
	if err != nil {
		return nil, &ResponseError{Message: fmt.Sprintf("create request: %v", err)}
	}
	httpReq.Header.Set("Accept", "application/json")
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &ResponseError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, &ResponseError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("read response body: %v", err)}
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, &ResponseError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("response body exceeds limit of %d bytes", c.maxBodyBytes),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ResponseError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp, body),
			Body:       string(body),
		}
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]interface{}{}, nil
	}

	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &ResponseError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("malformed JSON response: %v", err),
			Body:       string(body),
		}
	}
	return decoded, nil
}

// errorMessage prefers the API's own "message" field over the status text.
func errorMessage(resp *http.Response, body []byte) string {
	var envelope struct {
		Message interface{} `json:"message"`
		Error   interface{} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if msg := stringify(envelope.Message); msg != "" {
			return msg
		}
		if msg := stringify(envelope.Error); msg != "" {
			return msg
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 512 {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
