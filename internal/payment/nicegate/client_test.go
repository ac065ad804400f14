package nicegate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-client/internal/payment"
)

func testInfo() *payment.PrepareInfo {
	return &payment.PrepareInfo{
		ClientID:  "client-1",
		OrderID:   "order-1",
		Amount:    decimal.NewFromInt(55000),
		GoodsName: "Ticket x2",
		ReturnURL: "http://localhost:8080/payments/return",
	}
}

func newTestClient(server *httptest.Server) *Client {
	return New(&Config{
		BaseURL:   server.URL,
		ClientID:  "client-1",
		SecretKey: "secret",
		HMACKey:   "hmac-key",
	})
}

func TestRequestPay_AcceptedMeansRedirectedOnly(t *testing.T) {
	var gotHash, gotAuth string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/checkout", r.URL.Path)
		gotHash = r.Header.Get("SignedHash")
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)

		json.NewEncoder(w).Encode(map[string]string{"resultCode": "0000", "resultMsg": "ok"})
	}))
	t.Cleanup(server.Close)

	c := newTestClient(server)

	result, err := c.RequestPay(context.Background(), testInfo())
	require.NoError(t, err)
	assert.Equal(t, payment.OutcomeRedirected, result.Outcome)

	assert.Equal(t, "Basic secret", gotAuth)
	assert.Equal(t, Hmac256(gotBody, []byte("hmac-key")), gotHash)
	assert.True(t, VerifyHmac(gotBody, []byte("hmac-key"), gotHash))

	var body map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &body))
	assert.Equal(t, "order-1", body["orderId"])
	assert.Equal(t, "card", body["method"])
	assert.Len(t, body["requestId"], 18)
}

func TestRequestPay_DeclinedIsImmediateFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"resultCode": "3001", "resultMsg": "card declined"})
	}))
	t.Cleanup(server.Close)

	c := newTestClient(server)

	result, err := c.RequestPay(context.Background(), testInfo())
	require.NoError(t, err)
	assert.Equal(t, payment.OutcomeImmediateFailure, result.Outcome)
	assert.Equal(t, "card declined", result.Reason)
}

func TestRequestPay_ServerErrorSurfacesAsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	c := newTestClient(server)

	_, err := c.RequestPay(context.Background(), testInfo())
	assert.Error(t, err)
}

func TestHmac256_RoundTrip(t *testing.T) {
	body := []byte(`{"orderId":"order-1"}`)
	key := []byte("k")

	hash := Hmac256(body, key)
	assert.True(t, VerifyHmac(body, key, hash))
	assert.False(t, VerifyHmac([]byte(`{"orderId":"order-2"}`), key, hash))
	assert.False(t, VerifyHmac(body, []byte("other"), hash))
}
