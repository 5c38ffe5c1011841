package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		SecretKey: "sk_test_123",
		BaseURL:   baseURL,
		Currency:  "GHS",
		Timeout:   2 * time.Second,
	})
}

func TestInitialize_ReturnsAuthorizationURL(t *testing.T) {
	var got initializeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":true,"data":{"authorization_url":"https://checkout.example.com/xyz"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	url, err := client.Initialize(context.Background(), "ama@example.com", 2500, "ref-1", "http://localhost/cb")
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.example.com/xyz", url)
	assert.Equal(t, "ama@example.com", got.Email)
	assert.Equal(t, int64(2500), got.Amount)
	assert.Equal(t, "GHS", got.Currency)
	assert.Equal(t, "ref-1", got.Reference)
	assert.Equal(t, "http://localhost/cb", got.CallbackURL)
}

func TestInitialize_GatewayErrorCarriesMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":false,"message":"Invalid amount"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Initialize(context.Background(), "ama@example.com", 0, "ref-1", "http://localhost/cb")

	var gatewayErr *GatewayError
	require.ErrorAs(t, err, &gatewayErr)
	assert.Equal(t, http.StatusBadRequest, gatewayErr.StatusCode)
	assert.Contains(t, gatewayErr.Error(), "Invalid amount")
}

func TestVerify_SuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/ref-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":true,"data":{"status":"success"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ok, err := client.Verify(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerify_NonSuccessStatusIsFalse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":true,"data":{"status":"abandoned"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ok, err := client.Verify(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_Non200IsGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":false,"message":"Transaction reference not found"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Verify(context.Background(), "ref-unknown")

	var gatewayErr *GatewayError
	require.ErrorAs(t, err, &gatewayErr)
	assert.Equal(t, http.StatusNotFound, gatewayErr.StatusCode)
}

func TestBreaker_OpensAfterRepeatedNetworkFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	server.Close() // every call now fails at the transport level

	client := newTestClient(server.URL)
	for i := 0; i < 10; i++ {
		_, err := client.Verify(context.Background(), "ref-1")
		require.Error(t, err)
	}
}
