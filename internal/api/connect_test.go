package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/andyleap/finchconnect/internal/finch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectRedirect(t *testing.T) {
	opts := finch.ConnectOptions{Products: []finch.Product{finch.ProductDirectory}, Sandbox: true}
	h := NewConnectHandler(opts, "https://connect.tryfinch.com", "client-123", testRedirectURI)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/finch/connect?state=xyz", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	u, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/authorize", u.Path)
	assert.Equal(t, "directory", u.Query().Get("products"))
	assert.Equal(t, testRedirectURI, u.Query().Get("redirect_uri"))
	assert.Equal(t, "xyz", u.Query().Get("state"))
	assert.Equal(t, "true", u.Query().Get("sandbox"))
}

func TestConnectEmbedded(t *testing.T) {
	opts := finch.ConnectOptions{Products: []finch.Product{finch.ProductCompany, finch.ProductPayment}, Embedded: true, PayrollProvider: "gusto"}
	h := NewConnectHandler(opts, "https://connect.tryfinch.com", "client-123", testRedirectURI)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/finch/connect", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "client-123", body["client_id"])
	assert.Equal(t, []any{"company", "payment"}, body["products"])
	assert.Equal(t, false, body["sandbox"])
	assert.Equal(t, "gusto", body["payroll_provider"])
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestConnectRejectsNonGET(t *testing.T) {
	h := NewConnectHandler(finch.DefaultConnectOptions(), "https://connect.tryfinch.com", "client-123", testRedirectURI)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/finch/connect", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `"Method not implemented."`, rec.Body.String())
}
