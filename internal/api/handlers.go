package api

import (
	"log/slog"
	"net/http"

	"github.com/andyleap/finchconnect/internal/storage"
)

type Server struct {
	connections storage.ConnectionStorage
}

func NewServer(connections storage.ConnectionStorage) *Server {
	return &Server{
		connections: connections,
	}
}

// ConnectionHandler reports whether a Finch connection has been stored.
// The token itself is never returned.
func (s *Server) ConnectionHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.connections.GetConnection(r.Context())
	if err != nil {
		slog.Error("Failed to get connection", "error", err)
		writeJSON(w, http.StatusInternalServerError, "Error reading connection.")
		return
	}

	if conn == nil {
		writeJSON(w, http.StatusOK, map[string]any{"connected": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"connected":  true,
		"id":         conn.ID,
		"created_at": conn.CreatedAt,
	})
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
