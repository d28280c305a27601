package finch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestClient(url string) *Client {
	return NewClient(Config{
		APIURL:       url,
		ClientID:     "client-123",
		ClientSecret: "secret-456",
		RedirectURI:  "https://app.example.com/api/finch/callback",
		Timeout:      2 * time.Second,
	})
}

func TestExchange(t *testing.T) {
	tests := []struct {
		name            string
		embedded        bool
		wantRedirectURI bool
	}{
		{name: "redirect flow sends redirect_uri", embedded: false, wantRedirectURI: true},
		{name: "embedded flow omits redirect_uri", embedded: true, wantRedirectURI: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/auth/token", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var body map[string]string
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "client-123", body["client_id"])
				assert.Equal(t, "secret-456", body["client_secret"])
				assert.Equal(t, "code-abc", body["code"])

				redirectURI, ok := body["redirect_uri"]
				assert.Equal(t, tt.wantRedirectURI, ok)
				if tt.wantRedirectURI {
					assert.Equal(t, "https://app.example.com/api/finch/callback", redirectURI)
				}

				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"access_token":"T"}`))
			}))
			defer server.Close()

			token, err := newTestClient(server.URL).Exchange(context.Background(), "code-abc", tt.embedded)
			require.NoError(t, err)
			assert.Equal(t, "T", token.AccessToken)
			assert.Equal(t, "Bearer", token.Type())
		})
	}
}

func TestExchangeErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantAPI bool
	}{
		{name: "rejected code", status: http.StatusBadRequest, body: `{"error":"invalid_grant"}`, wantAPI: true},
		{name: "server error", status: http.StatusBadGateway, body: `upstream down`, wantAPI: true},
		{name: "malformed body", status: http.StatusOK, body: `not json`},
		{name: "missing token", status: http.StatusOK, body: `{"token_type":"bearer"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			token, err := newTestClient(server.URL).Exchange(context.Background(), "code-abc", false)
			require.Error(t, err)
			assert.Nil(t, token)

			var apiErr *APIError
			assert.Equal(t, tt.wantAPI, errors.As(err, &apiErr))
			if tt.wantAPI {
				assert.Equal(t, tt.status, apiErr.StatusCode)
				assert.Equal(t, "token exchange", apiErr.Op)
			}
		})
	}
}

func TestExchangeTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(url).Exchange(context.Background(), "code-abc", false)
	assert.Error(t, err)
}

func TestExchangeTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(Config{APIURL: server.URL, Timeout: 50 * time.Millisecond})
	_, err := client.Exchange(context.Background(), "code-abc", true)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIntrospectTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(Config{APIURL: server.URL, Timeout: 50 * time.Millisecond})
	start := time.Now()
	_, err := client.Introspect(context.Background(), &oauth2.Token{AccessToken: "T"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestIntrospect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/introspect", r.URL.Path)
		assert.Equal(t, "Bearer T", r.Header.Get("Authorization"))
		assert.Equal(t, "2020-09-17", r.Header.Get("Finch-API-Version"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"client_id":"client-123","company_id":"co-1","products":["company","directory"],"username":"admin","payroll_provider_id":"gusto","manual":false}`))
	}))
	defer server.Close()

	info, err := newTestClient(server.URL).Introspect(context.Background(), &oauth2.Token{AccessToken: "T"})
	require.NoError(t, err)
	assert.Equal(t, "co-1", info.CompanyID)
	assert.Equal(t, "gusto", info.PayrollProviderID)
	assert.Equal(t, []string{"company", "directory"}, info.Products)
}

func TestIntrospectFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Introspect(context.Background(), &oauth2.Token{AccessToken: "T"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestNewClientTrimsAPIURL(t *testing.T) {
	c := NewClient(Config{APIURL: "https://api.tryfinch.com/"})
	assert.Equal(t, "https://api.tryfinch.com", c.apiURL)
	assert.Equal(t, DefaultTimeout, c.timeout)
	assert.Zero(t, c.http.Timeout)
}
