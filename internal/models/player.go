package models

import (
	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Player is one seat in a game session. The ID is the opaque connection
// identity handed over by the transport layer. Hand order is positional and
// drives index-based plays.
type Player struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Hand      []Card          `json:"hand"`
	CalledUno bool            `json:"calledUno"`
	Connected bool            `json:"connected"`
	Conn      *websocket.Conn `json:"-"`
}
