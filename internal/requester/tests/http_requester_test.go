package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/brizzai/address-relay/internal/config"
	"github.com/brizzai/address-relay/internal/requester"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRequester(t *testing.T) {
	tests := []struct {
		name           string
		spec           requester.RequestSpec
		timeout        time.Duration
		serverResponse func(w http.ResponseWriter, r *http.Request)
		checkResponse  func(t *testing.T, response *requester.Response, err error)
	}{
		{
			name:    "Simple GET Request",
			spec:    requester.RequestSpec{Method: http.MethodGet},
			timeout: 30 * time.Second,
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "GET", r.Method)
				w.WriteHeader(http.StatusOK)
				if err := json.NewEncoder(w).Encode(map[string]string{"status": "success"}); err != nil {
					t.Errorf("Failed to encode response: %v", err)
				}
			},
			checkResponse: func(t *testing.T, response *requester.Response, err error) {
				require.NoError(t, err)
				assert.True(t, response.OK())

				var body map[string]string
				err = json.Unmarshal(response.Body, &body)
				require.NoError(t, err)
				assert.Equal(t, "success", body["status"])
			},
		},
		{
			name: "POST Request with Body",
			spec: requester.RequestSpec{
				Method:      http.MethodPost,
				Body:        []byte(`{"key1":"value1"}`),
				ContentType: "application/json",
			},
			timeout: 30 * time.Second,
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "POST", r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var body map[string]interface{}
				err := json.NewDecoder(r.Body).Decode(&body)
				require.NoError(t, err)
				assert.Equal(t, "value1", body["key1"])

				w.WriteHeader(http.StatusCreated)
			},
			checkResponse: func(t *testing.T, response *requester.Response, err error) {
				require.NoError(t, err)
				assert.Equal(t, http.StatusCreated, response.StatusCode)
				assert.True(t, response.OK())
			},
		},
		{
			name:    "Non-2xx is not an error",
			spec:    requester.RequestSpec{Method: http.MethodPost},
			timeout: 30 * time.Second,
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte("upstream down"))
			},
			checkResponse: func(t *testing.T, response *requester.Response, err error) {
				require.NoError(t, err)
				assert.Equal(t, http.StatusBadGateway, response.StatusCode)
				assert.False(t, response.OK())
				assert.Equal(t, "upstream down", string(response.Body))
			},
		},
		{
			name:    "Bounded body read",
			spec:    requester.RequestSpec{},
			timeout: 30 * time.Second,
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(strings.Repeat("x", requester.MaxResponseBytes+100)))
			},
			checkResponse: func(t *testing.T, response *requester.Response, err error) {
				require.NoError(t, err)
				assert.Len(t, response.Body, requester.MaxResponseBytes)
			},
		},
		{
			name:    "Request Timeout",
			spec:    requester.RequestSpec{Query: map[string][]string{"token": {"secret-token"}}},
			timeout: 100 * time.Millisecond,
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(200 * time.Millisecond)
				w.WriteHeader(http.StatusOK)
			},
			checkResponse: func(t *testing.T, response *requester.Response, err error) {
				assert.Error(t, err)
				assert.Nil(t, response)
				assert.NotContains(t, err.Error(), "secret-token")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create test server
			server := httptest.NewServer(http.HandlerFunc(tt.serverResponse))
			defer server.Close()

			tt.spec.URL = server.URL + "/test"

			// Create the requester
			r := requester.NewHTTPRequester(requester.HTTPRequesterParams{Config: &config.Config{}})

			// Set timeout
			r.SetTimeout(tt.timeout)

			// Execute the request
			resp, err := r.Execute(context.Background(), tt.spec)

			// Check the response
			tt.checkResponse(t, resp, err)
		})
	}
}

func TestNewHTTPRequester_Timeout(t *testing.T) {
	r := requester.NewHTTPRequester(requester.HTTPRequesterParams{})
	assert.Equal(t, 10*time.Second, r.Timeout())

	r = requester.NewHTTPRequester(requester.HTTPRequesterParams{
		Config: &config.Config{Delivery: config.DeliveryConfig{Timeout: 3 * time.Second}},
	})
	assert.Equal(t, 3*time.Second, r.Timeout())
}

func TestHTTPRequester_ContextCancel(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	r := requester.NewHTTPRequester(requester.HTTPRequesterParams{Config: &config.Config{}})
	_, err := r.Execute(ctx, requester.RequestSpec{URL: server.URL})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewHTTPRequester_InjectedClientUntouched(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}

	r := requester.NewHTTPRequester(requester.HTTPRequesterParams{
		Config: &config.Config{Delivery: config.DeliveryConfig{Timeout: 2 * time.Second}},
		Client: shared,
	})
	assert.Equal(t, 2*time.Second, r.Timeout())
	assert.Equal(t, time.Minute, shared.Timeout)

	r.SetTimeout(time.Second)
	assert.Equal(t, time.Second, r.Timeout())
	assert.Equal(t, time.Minute, shared.Timeout)
}
