package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"trade-client/internal/status"
	"trade-client/models"
	"trade-client/monitoring"
)

// publicEndpoints are sent with no credential even if one is cached.
var publicEndpoints = []string{
	"/api/auth/login",
	"/api/auth/signup",
	"/api/auth/refresh",
	"/api/auth/send-verification-code",
	"/api/auth/verify-email",
}

// CredentialStore is the slice of the session store the gateway needs.
type CredentialStore interface {
	Credential(ctx context.Context) (models.Credential, error)
	SetAccessToken(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

type Config struct {
	BaseURL string        `json:"base_url" mapstructure:"base_url"`
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// Request is one outbound API call. Body, when non-nil, is JSON-encoded.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Response carries the raw reply for the caller to decode.
type Response struct {
	StatusCode int
	Body       []byte
}

// Gateway wraps every outbound call with bearer-token attachment and the
// single-flight refresh-and-retry protocol.
type Gateway struct {
	baseURL string
	store   CredentialStore
	hc      *http.Client

	// mu guards refresh. At most one refresh is in flight; every request
	// that hits a 401 while it is pending awaits the same outcome.
	mu      sync.Mutex
	refresh *refreshCall
}

type refreshCall struct {
	done  chan struct{}
	token string
	err   error
}

func New(cfg *Config, store CredentialStore) *Gateway {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Gateway{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		store:   store,
		hc: &http.Client{
			Timeout: timeout,
		},
	}
}

// Send dispatches the request, attaching the current access credential
// unless the target is public. A 401 on a credentialed request triggers one
// refresh-and-resend; every other status is classified and returned as is.
func (g *Gateway) Send(ctx context.Context, r *Request) (*Response, error) {
	var body []byte
	if r.Body != nil {
		var err error
		body, err = json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("Send: json.Marshal: %w", err)
		}
	}

	public := isPublic(r.Path)

	token := ""
	if !public {
		cred, err := g.store.Credential(ctx)
		if err != nil {
			return nil, fmt.Errorf("Send: store.Credential: %w", err)
		}
		token = cred.AccessToken
	}

	resp, err := g.do(ctx, r, body, token)
	if err != nil {
		monitoring.TrackRequest(r.Method, "network_error")
		return nil, &status.APIError{Kind: status.KindNetwork, Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized && !public {
		newToken, refreshErr := g.awaitRefresh(ctx)
		if refreshErr != nil {
			monitoring.TrackRequest(r.Method, "401")
			return nil, refreshErr
		}

		// Resend the original request exactly once with the new credential.
		resp, err = g.do(ctx, r, body, newToken)
		if err != nil {
			monitoring.TrackRequest(r.Method, "network_error")
			return nil, &status.APIError{Kind: status.KindNetwork, Err: err}
		}
		if resp.StatusCode == http.StatusUnauthorized {
			monitoring.TrackRequest(r.Method, "401")
			return resp, &status.APIError{
				Kind:       status.KindAuth,
				StatusCode: resp.StatusCode,
				Message:    "authentication failed after token refresh",
			}
		}
	}

	monitoring.TrackRequest(r.Method, strconv.Itoa(resp.StatusCode))

	if apiErr := classify(resp); apiErr != nil {
		return resp, apiErr
	}
	return resp, nil
}

// SendJSON sends the request and decodes a 2xx reply body into out.
func (g *Gateway) SendJSON(ctx context.Context, r *Request, out any) error {
	resp, err := g.Send(ctx, r)
	if err != nil {
		return err
	}

	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("SendJSON: json.Unmarshal: %w", err)
	}
	return nil
}

func (g *Gateway) do(ctx context.Context, r *Request, body []byte, token string) (*Response, error) {
	target := g.baseURL + r.Path
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("do: http.NewRequestWithContext: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do: http.Do: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("do: io.ReadAll: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// awaitRefresh joins the in-flight refresh, starting one if none is
// pending. The pending outcome is cleared once it resolves so the next 401
// starts a fresh refresh rather than replaying a stale one.
func (g *Gateway) awaitRefresh(ctx context.Context) (string, error) {
	g.mu.Lock()
	call := g.refresh
	if call == nil {
		call = &refreshCall{done: make(chan struct{})}
		g.refresh = call
		go g.runRefresh(call)
	}
	g.mu.Unlock()

	select {
	case <-call.done:
		return call.token, call.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (g *Gateway) runRefresh(call *refreshCall) {
	// The refresh outlives any single caller's context: cancelling one
	// waiting request must not abort the refresh its siblings share.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	token, err := g.doRefresh(ctx)
	if err != nil {
		log.Printf("runRefresh: %v", err)
		monitoring.TrackRefresh("failure")

		// Clearing the store and signalling expiry happen before waiters
		// wake, so none of them can observe a half-cleared session.
		if clearErr := g.store.Clear(ctx); clearErr != nil {
			log.Printf("runRefresh: store.Clear: %v", clearErr)
		}
		call.err = fmt.Errorf("runRefresh: %w: %v", status.ErrSessionExpired, err)
	} else {
		monitoring.TrackRefresh("success")
		if saveErr := g.store.SetAccessToken(ctx, token); saveErr != nil {
			log.Printf("runRefresh: store.SetAccessToken: %v", saveErr)
		}
		call.token = token
	}

	g.mu.Lock()
	g.refresh = nil
	g.mu.Unlock()

	close(call.done)
}

// doRefresh makes the http call to exchange the refresh token.
func (g *Gateway) doRefresh(ctx context.Context) (string, error) {
	cred, err := g.store.Credential(ctx)
	if err != nil {
		return "", fmt.Errorf("doRefresh: store.Credential: %w", err)
	}
	if cred.RefreshToken == "" {
		return "", fmt.Errorf("doRefresh: no refresh token held")
	}

	body := fmt.Sprintf(`{"refreshToken":%q}`, cred.RefreshToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/auth/refresh", strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("doRefresh: http.NewRequestWithContext: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("doRefresh: http.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("doRefresh: resp.StatusCode: %d", resp.StatusCode)
	}

	var reply struct {
		AccessToken string `json:"accessToken"`
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return "", fmt.Errorf("doRefresh: json.Decode: %w", err)
	}
	if reply.AccessToken == "" {
		return "", fmt.Errorf("doRefresh: empty access token in reply")
	}

	return reply.AccessToken, nil
}

func isPublic(path string) bool {
	for _, endpoint := range publicEndpoints {
		if strings.HasPrefix(path, endpoint) {
			return true
		}
	}
	return false
}

// classify maps a non-2xx reply to the error taxonomy. Classification
// happens once, here; nothing above the gateway re-maps codes.
func classify(resp *Response) *status.APIError {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var kind status.Kind
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		kind = status.KindAuth
	case resp.StatusCode == http.StatusForbidden:
		kind = status.KindPermission
	case resp.StatusCode == http.StatusNotFound:
		kind = status.KindNotFound
	case resp.StatusCode >= 500:
		kind = status.KindServer
	default:
		kind = status.KindValidation
	}

	return &status.APIError{
		Kind:       kind,
		StatusCode: resp.StatusCode,
		Message:    errorMessage(resp.Body),
	}
}

func errorMessage(body []byte) string {
	var reply struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &reply); err != nil {
		return ""
	}
	if reply.Error != "" {
		return reply.Error
	}
	return reply.Message
}
