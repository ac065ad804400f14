package nicegate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"trade-client/internal/payment"
	"trade-client/utils"
)

type Config struct {
	BaseURL   string `json:"base_url" mapstructure:"base_url"`
	ClientID  string `json:"client_id" mapstructure:"client_id"`
	SecretKey string `json:"secret_key" mapstructure:"secret_key"`
	HMACKey   string `json:"hmac_key" mapstructure:"hmac_key"`
}

// Client talks to the card-payment provider's checkout API. It is the one
// external dependency guarded by a circuit breaker: a tripped breaker
// surfaces as an immediate failure, which the handoff re-verifies against
// the backend anyway.
type Client struct {
	// baseURL is the base url of the provider backend.
	baseURL string

	// clientID identifies the merchant with the provider.
	clientID string

	// secretKey authorizes checkout requests.
	secretKey string

	// hmacKey signs request bodies.
	hmacKey string

	// cb fails fast while the provider is misbehaving.
	cb *utils.CircuitBreaker

	// hc is the http client.
	hc *http.Client
}

var _ payment.Provider = (*Client)(nil)

// New creates a new provider client.
func New(cfg *Config) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		clientID:  cfg.ClientID,
		secretKey: cfg.SecretKey,
		hmacKey:   cfg.HMACKey,

		cb: utils.NewCircuitBreaker("nicegate"),

		// set http client with timeout.
		hc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// RequestPay opens the provider checkout for a prepared order. A breaker
// rejection or a declined order comes back as ImmediateFailure; an accepted
// order means control moves to the provider's page (Redirected), nothing
// more.
func (c *Client) RequestPay(ctx context.Context, info *payment.PrepareInfo) (*payment.DelegationResult, error) {
	number, err := utils.RandomNumber()
	if err != nil {
		return nil, fmt.Errorf("RequestPay: utils.RandomNumber: %w", err)
	}

	body := fmt.Sprintf(`{"requestId":%q,"clientId":%q,"orderId":%q,"amount":%s,"goodsName":%q,"returnUrl":%q,"method":"card"}`,
		number, c.clientID, info.OrderID, info.Amount, info.GoodsName, info.ReturnURL)

	var result *payment.DelegationResult

	err = c.cb.Execute(ctx, func() error {
		r, reqErr := c.requestPay(ctx, []byte(body))
		if reqErr != nil {
			return reqErr
		}
		result = r
		return nil
	})
	if errors.Is(err, utils.ErrBreakerOpen) {
		return &payment.DelegationResult{
			Outcome: payment.OutcomeImmediateFailure,
			Reason:  "provider unavailable",
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("RequestPay: %w", err)
	}

	return result, nil
}

func (c *Client) requestPay(ctx context.Context, body []byte) (*payment.DelegationResult, error) {
	_baseURL, _ := url.Parse(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s%s", _baseURL.String(), "/v1/checkout"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("requestPay: http.NewRequestWithContext: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("SignedHash", Hmac256(body, []byte(c.hmacKey)))
	req.Header.Set("Authorization", "Basic "+c.secretKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requestPay: http.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("requestPay: resp.StatusCode: %d", resp.StatusCode)
	}

	var reply struct {
		ResultCode string `json:"resultCode"`
		ResultMsg  string `json:"resultMsg"`
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("requestPay: json.Decode: %w", err)
	}

	if reply.ResultCode != "0000" {
		return &payment.DelegationResult{
			Outcome: payment.OutcomeImmediateFailure,
			Reason:  reply.ResultMsg,
		}, nil
	}

	return &payment.DelegationResult{Outcome: payment.OutcomeRedirected}, nil
}
