package api

import (
	"net/http"

	"github.com/andyleap/finchconnect/internal/finch"
)

type ConnectHandler struct {
	options     finch.ConnectOptions
	connectURL  string
	clientID    string
	redirectURI string
}

func NewConnectHandler(options finch.ConnectOptions, connectURL, clientID, redirectURI string) *ConnectHandler {
	return &ConnectHandler{
		options:     options,
		connectURL:  connectURL,
		clientID:    clientID,
		redirectURI: redirectURI,
	}
}

// ServeHTTP launches Finch Connect
// GET /api/finch/connect?state=xyz
//
// Redirect flows get a 302 to the authorize page. Embedded flows get the
// launch parameters as JSON for the client-side SDK.
func (ch *ConnectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, methodNotImplemented)
		return
	}

	if ch.options.Embedded {
		writeJSON(w, http.StatusOK, map[string]any{
			"client_id":        ch.clientID,
			"products":         ch.options.Products,
			"sandbox":          ch.options.Sandbox,
			"payroll_provider": ch.options.PayrollProvider,
		})
		return
	}

	state := r.URL.Query().Get("state")
	http.Redirect(w, r, ch.options.AuthorizeURL(ch.connectURL, ch.clientID, ch.redirectURI, state), http.StatusFound)
}
