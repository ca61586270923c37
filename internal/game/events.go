package game

import (
	"github.com/google/uuid"

	"github.com/moltlabs/molt-uno/internal/models"
)

// EventType is an enum-like type for the messages delivered outward to clients.
type EventType string

const (
	EventSessionCreated      EventType = "session-created"
	EventPlayerJoined        EventType = "player-joined"
	EventPlayerLeft          EventType = "player-left"
	EventSessionStarted      EventType = "session-started"
	EventHandUpdated         EventType = "hand-updated" // private: only ever addressed to the hand's owner
	EventCardPlayed          EventType = "card-played"
	EventTurnChanged         EventType = "turn-changed"
	EventSpecialCallDeclared EventType = "special-call-declared"
	EventSessionEnded        EventType = "session-ended"
	EventSessionList         EventType = "session-list"
	EventCommandRejected     EventType = "command-rejected" // private: only ever addressed to the issuer
)

// Event is the single outward message shape. Broadcast events carry the full
// public snapshot in Session; Hand appears only on hand-updated events.
// Identity fields are pointers so events that do not concern a player omit
// them instead of serializing the nil UUID.
type Event struct {
	Type     EventType        `json:"type"`
	Session  *Snapshot        `json:"session,omitempty"`
	PlayerID *uuid.UUID       `json:"playerId,omitempty"`
	Winner   *uuid.UUID       `json:"winner,omitempty"`
	Card     *models.Card     `json:"card,omitempty"`
	Hand     []models.Card    `json:"hand,omitempty"`
	Sessions []WaitingSession `json:"sessions,omitempty"`
	Reason   string           `json:"reason,omitempty"`
}
