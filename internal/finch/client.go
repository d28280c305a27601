package finch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	// APIVersion is sent on every call made with a connection token
	APIVersion = "2020-09-17"

	CallbackPath = "/api/finch/callback"

	DefaultTimeout = 10 * time.Second
)

type Config struct {
	APIURL       string
	ClientID     string
	ClientSecret string
	// RedirectURI must match the URI registered for non-embedded flows
	RedirectURI  string
	Timeout      time.Duration
}

// Client talks to the Finch API on behalf of this application
type Client struct {
	apiURL       string
	clientID     string
	clientSecret string
	redirectURI  string
	timeout      time.Duration
	http         *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		apiURL:       strings.TrimSuffix(cfg.APIURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		timeout:      timeout,
		http:         &http.Client{},
	}
}

// APIError is returned when Finch answers with a non-2xx status
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("finch %s failed with status %d: %s", e.Op, e.StatusCode, e.Body)
}

type tokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Code         string `json:"code"`
	RedirectURI  string `json:"redirect_uri,omitempty"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Introspection is the metadata Finch reports for a connection token
type Introspection struct {
	AccountID         string   `json:"account_id"`
	ClientID          string   `json:"client_id"`
	CompanyID         string   `json:"company_id"`
	Products          []string `json:"products"`
	Username          string   `json:"username"`
	PayrollProviderID string   `json:"payroll_provider_id"`
	Manual            bool     `json:"manual"`
}

// Exchange trades an authorization code for an access token. Embedded flows
// omit redirect_uri from the request body.
func (c *Client) Exchange(ctx context.Context, code string, embedded bool) (*oauth2.Token, error) {
	body := tokenRequest{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		Code:         code,
	}
	if !embedded {
		body.RedirectURI = c.redirectURI
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal token request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/auth/token", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var tr tokenResponse
	if err := c.do(c.http, req, "token exchange", &tr); err != nil {
		return nil, err
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("no access_token in token response")
	}

	tokenType := tr.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &oauth2.Token{AccessToken: tr.AccessToken, TokenType: tokenType}, nil
}

// Introspect fetches the metadata of a connection token
func (c *Client) Introspect(ctx context.Context, token *oauth2.Token) (*Introspection, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/introspect", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build introspect request: %w", err)
	}
	req.Header.Set("Finch-API-Version", APIVersion)
	req.Header.Set("Accept", "application/json")

	// the deadline lives on the request context, the wrapper has no Timeout of its own
	authed := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, c.http), oauth2.StaticTokenSource(token))

	var in Introspection
	if err := c.do(authed, req, "introspect", &in); err != nil {
		return nil, err
	}
	return &in, nil
}

func (c *Client) do(hc *http.Client, req *http.Request, op string, out any) error {
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("finch %s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Body: string(data)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}
