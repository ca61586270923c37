package game

import (
	"github.com/google/uuid"

	"github.com/moltlabs/molt-uno/internal/models"
)

// PlayerSummary is the public view of one seat: identity, hand size, and the
// one-card announcement flag. Never the hand itself.
type PlayerSummary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CardCount int       `json:"cardCount"`
	CalledUno bool      `json:"calledUno"`
	Connected bool      `json:"connected"`
}

// Snapshot is a viewer-scoped, read-only projection of a session. Hand is
// populated only when the viewer is a seated player, and only with that
// player's own cards; leaking any other hand is a correctness bug, not a
// balance tweak.
type Snapshot struct {
	ID            string          `json:"id"`
	Status        Status          `json:"status"`
	Players       []PlayerSummary `json:"players"`
	CurrentPlayer *uuid.UUID      `json:"currentPlayer,omitempty"`
	TopCard       *models.Card    `json:"topCard,omitempty"`
	ActiveColor   models.Color    `json:"activeColor,omitempty"`
	DrawPileSize  int             `json:"drawPileSize"`
	Hand          []models.Card   `json:"hand,omitempty"`
}

// Snapshot derives the state visible to viewer. Pass uuid.Nil for the purely
// public view used in broadcasts.
func (g *Game) Snapshot(viewer uuid.UUID) Snapshot {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	snap := Snapshot{
		ID:           g.ID,
		Status:       g.Status,
		ActiveColor:  g.ActiveColor,
		DrawPileSize: len(g.DrawPile),
	}
	if g.Status != StatusWaiting && len(g.Players) > 0 {
		cur := g.Players[g.Current].ID
		snap.CurrentPlayer = &cur
	}
	if len(g.DiscardPile) > 0 {
		top := g.DiscardPile[len(g.DiscardPile)-1]
		snap.TopCard = &top
	}
	for _, p := range g.Players {
		snap.Players = append(snap.Players, PlayerSummary{
			ID:        p.ID,
			Name:      p.Name,
			CardCount: len(p.Hand),
			CalledUno: p.CalledUno,
			Connected: p.Connected,
		})
		if p.ID == viewer {
			hand := make([]models.Card, len(p.Hand))
			copy(hand, p.Hand)
			snap.Hand = hand
		}
	}
	return snap
}
