// Package handlers wires the WebSocket transport and the HTTP surface to the
// session registry. It owns no game state of its own.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/moltlabs/molt-uno/internal/game"
)

// Server holds the session registry shared by every connection.
type Server struct {
	Registry *game.Registry
	Logger   *logrus.Logger
}

func NewServer(logger *logrus.Logger) *Server {
	return &Server{
		Registry: game.NewRegistry(nil),
		Logger:   logger,
	}
}

// HealthHandler reports process liveness plus registry occupancy.
func HealthHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions, connections := s.Registry.Counts()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "ok",
			"sessions":    sessions,
			"connections": connections,
		})
	}
}
