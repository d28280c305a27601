package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/andyleap/finchconnect/internal/finch"
	"github.com/andyleap/finchconnect/internal/storage"
	"golang.org/x/oauth2"
)

const (
	// ConnectionPath is where the browser lands after a successful callback
	ConnectionPath = "/connection"

	callbackErrorMessage = "Error retrieving access token."
	methodNotImplemented = "Method not implemented."
)

// TokenExchanger is the part of the Finch API the callback needs
type TokenExchanger interface {
	Exchange(ctx context.Context, code string, embedded bool) (*oauth2.Token, error)
	Introspect(ctx context.Context, token *oauth2.Token) (*finch.Introspection, error)
}

type CallbackHandler struct {
	finch   TokenExchanger
	tokens  storage.TokenSetter
	metrics *Metrics
}

func NewCallbackHandler(exchanger TokenExchanger, tokens storage.TokenSetter, metrics *Metrics) *CallbackHandler {
	return &CallbackHandler{
		finch:   exchanger,
		tokens:  tokens,
		metrics: metrics,
	}
}

// ServeHTTP handles the Finch Connect redirect
// GET /api/finch/callback?code=...&state=...&embedded=true
func (ch *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, methodNotImplemented)
		return
	}

	q := r.URL.Query()
	code := q.Get("code")
	embedded := embeddedFlag(q)
	log := slog.With("state", q.Get("state"), "embedded", embedded)

	result, err := ch.connect(r.Context(), log, code, embedded)
	ch.metrics.observeCallback(result)
	if err != nil {
		// rejected codes, transport errors and storage errors look the same to the browser
		log.Error("Finch callback failed", "result", result, "error", err)
		writeJSON(w, http.StatusInternalServerError, callbackErrorMessage)
		return
	}

	http.Redirect(w, r, ConnectionPath, http.StatusFound)
}

// connect runs exchange, introspection and persistence in order and stops at
// the first failure. Nothing is written unless both remote calls succeed.
func (ch *CallbackHandler) connect(ctx context.Context, log *slog.Logger, code string, embedded bool) (string, error) {
	token, err := ch.finch.Exchange(ctx, code, embedded)
	if err != nil {
		return ResultExchangeFailed, fmt.Errorf("failed to exchange code: %w", err)
	}

	info, err := ch.finch.Introspect(ctx, token)
	if err != nil {
		return ResultIntrospectFailed, fmt.Errorf("failed to introspect token: %w", err)
	}
	log.Info("Finch connection introspected",
		"company_id", info.CompanyID,
		"payroll_provider_id", info.PayrollProviderID,
		"products", info.Products,
		"manual", info.Manual,
	)

	if err := ch.tokens.SetConnectionToken(ctx, token.AccessToken); err != nil {
		return ResultPersistFailed, fmt.Errorf("failed to save connection token: %w", err)
	}

	return ResultSuccess, nil
}

// embeddedFlag treats any non-empty value as set, "false" included
func embeddedFlag(q url.Values) bool {
	return q.Get("embedded") != ""
}
