package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Do_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{}`, string(body))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":{"uuid":"abc"}}`))
	}))
	defer server.Close()

	client := NewClientWithHTTP(server.Client())
	got, err := client.Do(context.Background(), Request{
		Method: "post",
		URL:    server.URL + "/users/abc/actions/revoke",
		Headers: map[string]string{
			"Authorization": "Bearer secret",
			"Content-Type":  "application/json",
		},
		Body: map[string]interface{}{},
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"response": map[string]interface{}{"uuid": "abc"},
	}, got)
}

func TestClient_Do_NilBodySendsNothing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Empty(t, body)
		w.Write([]byte(`[1,2]`))
	}))
	defer server.Close()

	got, err := NewClientWithHTTP(server.Client()).Do(context.Background(), Request{Method: "GET", URL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{float64(1), float64(2)}, got)
}

func TestClient_Do_EmptyBodyIsEmptyObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	got, err := NewClientWithHTTP(server.Client()).Do(context.Background(), Request{Method: "DELETE", URL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{}, got)
}

func TestClient_Do_StatusErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{
			name:        "api message field",
			status:      http.StatusNotFound,
			body:        `{"message":"User not found","statusCode":404}`,
			wantMessage: "User not found",
		},
		{
			name:        "error field",
			status:      http.StatusBadRequest,
			body:        `{"error":"bad"}`,
			wantMessage: "bad",
		},
		{
			name:        "plain text",
			status:      http.StatusBadGateway,
			body:        "upstream down",
			wantMessage: "upstream down",
		},
		{
			name:        "empty body",
			status:      http.StatusUnauthorized,
			body:        "",
			wantMessage: "Unauthorized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClientWithHTTP(server.Client()).Do(context.Background(), Request{Method: "GET", URL: server.URL})
			require.Error(t, err)

			var respErr *ResponseError
			require.True(t, errors.As(err, &respErr))
			assert.Equal(t, tt.status, respErr.StatusCode)
			assert.Equal(t, tt.wantMessage, respErr.Message)
		})
	}
}

func TestClient_Do_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"broken`))
	}))
	defer server.Close()

	_, err := NewClientWithHTTP(server.Client()).Do(context.Background(), Request{Method: "GET", URL: server.URL})

	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, http.StatusOK, respErr.StatusCode)
	assert.Contains(t, respErr.Message, "malformed JSON response")
}

func TestClient_Do_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient(50 * time.Millisecond)
	_, err := client.Do(context.Background(), Request{Method: "GET", URL: server.URL})

	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, 0, respErr.StatusCode)
	assert.NotEmpty(t, respErr.Message)
}

func TestResponseError_Error(t *testing.T) {
	assert.Equal(t, "404 - nope", (&ResponseError{StatusCode: 404, Message: "nope"}).Error())
	assert.Equal(t, "dial tcp: refused", (&ResponseError{Message: "dial tcp: refused"}).Error())

	data, err := json.Marshal(map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"b"}`, stringify(json.RawMessage(data)))
}
