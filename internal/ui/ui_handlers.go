package ui

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/andyleap/finchconnect/internal/finch"
	"github.com/andyleap/finchconnect/internal/storage"
)

//go:embed templates/*.html
var templatesFS embed.FS

type UIHandlers struct {
	connections storage.ConnectionStorage
	options     finch.ConnectOptions
	templates   *template.Template
}

func NewUIHandlers(connections storage.ConnectionStorage, options finch.ConnectOptions) (*UIHandlers, error) {
	templates, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded templates: %w", err)
	}

	return &UIHandlers{
		connections: connections,
		options:     options,
		templates:   templates,
	}, nil
}

// LandingHandler renders the page that starts Finch Connect
// GET /
func (uh *UIHandlers) LandingHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := struct {
		Products string
		Sandbox  bool
	}{
		Products: uh.options.ProductScope(),
		Sandbox:  uh.options.Sandbox,
	}
	uh.render(w, http.StatusOK, "landing.html", data)
}

// ConnectionHandler renders the connection status page
// GET /connection
func (uh *UIHandlers) ConnectionHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := uh.connections.GetConnection(r.Context())
	if err != nil {
		slog.Error("Failed to get connection", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data := struct {
		Connected bool
		ID        string
		CreatedAt string
	}{}
	if conn != nil {
		data.Connected = true
		data.ID = conn.ID
		data.CreatedAt = conn.CreatedAt.Format("2006-01-02 15:04:05 MST")
	}
	uh.render(w, http.StatusOK, "connection.html", data)
}

func (uh *UIHandlers) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := uh.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("Failed to render template", "template", name, "error", err)
	}
}
