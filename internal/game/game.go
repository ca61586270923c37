// Package game implements the authoritative UNO session engine: the rules
// state machine, the per-viewer state projection, and the session registry
// that multiplexes concurrent games.
package game

import (
	"math/rand"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/moltlabs/molt-uno/internal/deck"
	"github.com/moltlabs/molt-uno/internal/models"
)

// Status is a session's lifecycle state. Transitions are strictly
// waiting -> playing -> finished, each exactly once.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

const (
	// MinPlayers and MaxPlayers bound the seat count of a session.
	MinPlayers = 2
	MaxPlayers = 10

	openingHandSize = 7
)

// Game holds the entire state for a single session in memory. All exported
// methods take Mu, so every command mutates the session atomically; state
// only leaves the struct through Snapshot.
type Game struct {
	ID string

	// Players in seating order. The back of DrawPile is the next draw; the
	// back of DiscardPile is the visible top card.
	Players     []*models.Player
	DrawPile    []models.Card
	DiscardPile []models.Card

	Current     int // index into Players of the seat holding the turn
	Direction   int // +1 or -1
	ActiveColor models.Color
	Status      Status

	shuffler *deck.Shuffler
	Mu       sync.Mutex
}

// New creates an empty session in the waiting state. rng seeds the session's
// shuffles; nil means time-seeded.
func New(id string, rng *rand.Rand) *Game {
	return &Game{
		ID:          id,
		DrawPile:    []models.Card{},
		DiscardPile: []models.Card{},
		Direction:   1,
		Status:      StatusWaiting,
		shuffler:    deck.New(rng),
	}
}

// PlayResult reports the outcome of a successful play.
type PlayResult struct {
	Card   models.Card
	Winner uuid.UUID // uuid.Nil unless the play emptied the player's hand
}

// AddPlayer seats a new player with an empty hand. Seating order is join
// order and is frozen once the session leaves the waiting state.
func (g *Game) AddPlayer(p *models.Player) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.Status != StatusWaiting {
		return ErrInvalidState
	}
	if len(g.Players) >= MaxPlayers {
		return ErrSessionFull
	}
	p.Hand = []models.Card{}
	g.Players = append(g.Players, p)
	return nil
}

// Start shuffles a fresh deck, deals seven cards to each player in seating
// order, and flips the first discard. A wild has no color to inherit, so the
// seed card is re-drawn until it is not a wild; wilds drawn that way go back
// under the draw pile, preserving the 108-card multiset.
func (g *Game) Start() error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.Status != StatusWaiting {
		return ErrInvalidState
	}
	if len(g.Players) < MinPlayers {
		return ErrInsufficientPlayers
	}

	cards := deck.Build()
	g.shuffler.Shuffle(cards)
	g.DrawPile = cards
	g.DiscardPile = g.DiscardPile[:0]

	for _, p := range g.Players {
		p.Hand = make([]models.Card, 0, openingHandSize)
		for i := 0; i < openingHandSize; i++ {
			c, err := g.drawOne()
			if err != nil {
				return err // unreachable with a full pile
			}
			p.Hand = append(p.Hand, c)
		}
		p.CalledUno = false
	}

	seed, err := g.drawOne()
	if err != nil {
		return err
	}
	for seed.Kind == models.KindWild {
		g.DrawPile = append([]models.Card{seed}, g.DrawPile...)
		seed, _ = g.drawOne()
	}
	g.DiscardPile = append(g.DiscardPile, seed)
	g.ActiveColor = seed.Color

	g.Status = StatusPlaying
	g.Current = 0
	g.Direction = 1
	log.Infof("session %s started with %d players", g.ID, len(g.Players))
	return nil
}

// isLegalPlay reports whether p may play card right now: it must be p's turn,
// and the card must be a wild, match the active color, or match the top
// discard's value. Assumes the lock is held.
func (g *Game) isLegalPlay(card models.Card, p *models.Player) bool {
	if g.Players[g.Current].ID != p.ID {
		return false
	}
	if card.Kind == models.KindWild {
		return true
	}
	top := g.DiscardPile[len(g.DiscardPile)-1]
	return card.Color == g.ActiveColor || card.Value == top.Value
}

// PlayCard plays the card at handIndex for playerID. chosenColor is required
// for wilds and ignored otherwise. On success the card moves to the discard
// pile, the active color updates, the card's effect resolves, and the turn
// advances once unconditionally. Emptying the hand finishes the session
// immediately with no effect resolution or turn advance.
func (g *Game) PlayCard(playerID uuid.UUID, handIndex int, chosenColor models.Color) (PlayResult, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.Status != StatusPlaying {
		return PlayResult{}, ErrInvalidState
	}
	p := g.Players[g.Current]
	if p.ID != playerID {
		return PlayResult{}, ErrNotYourTurn
	}
	if handIndex < 0 || handIndex >= len(p.Hand) {
		return PlayResult{}, ErrIllegalPlay
	}
	card := p.Hand[handIndex]
	if !g.isLegalPlay(card, p) {
		return PlayResult{}, ErrIllegalPlay
	}
	if card.Kind == models.KindWild && !chosenColor.Playable() {
		return PlayResult{}, ErrInvalidColorChoice
	}

	p.Hand = append(p.Hand[:handIndex], p.Hand[handIndex+1:]...)
	g.DiscardPile = append(g.DiscardPile, card)
	if card.Kind == models.KindWild {
		g.ActiveColor = chosenColor
	} else {
		g.ActiveColor = card.Color
	}

	if len(p.Hand) == 0 {
		g.Status = StatusFinished
		log.Infof("session %s finished, winner %s", g.ID, p.ID)
		return PlayResult{Card: card, Winner: p.ID}, nil
	}

	g.applyEffect(card)
	g.advanceTurn()
	return PlayResult{Card: card}, nil
}

// applyEffect resolves the action half of a play. Every play also gets one
// unconditional advance afterwards, so skip/draw2/draw4 net-skip exactly one
// player and reverse (3+ players) only flips direction.
func (g *Game) applyEffect(card models.Card) {
	switch card.Value {
	case models.ValueSkip:
		g.advanceTurn()
	case models.ValueReverse:
		if len(g.Players) == 2 {
			// Reversing between two players is a no-op, so it acts as a skip.
			g.advanceTurn()
		} else {
			g.Direction = -g.Direction
		}
	case models.ValueDraw2:
		g.advanceTurn()
		g.forceDraw(g.Players[g.Current], 2)
	case models.ValueDraw4:
		g.advanceTurn()
		g.forceDraw(g.Players[g.Current], 4)
	}
}

// forceDraw moves n cards from the draw pile into p's hand, reshuffling the
// discard pile underneath as needed.
func (g *Game) forceDraw(p *models.Player, n int) {
	for i := 0; i < n; i++ {
		c, err := g.drawOne()
		if err != nil {
			log.Warnf("session %s: %v during forced draw", g.ID, err)
			return
		}
		p.Hand = append(p.Hand, c)
	}
}

// DrawCard draws one card for the active player. It does not advance the
// turn; the transport layer decides whether drawing ends the turn.
func (g *Game) DrawCard(playerID uuid.UUID) (models.Card, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.drawForActive(playerID)
}

// DrawAndPass draws one card for the active player and ends their turn, both
// under a single lock acquisition so no other command can slip between the
// draw and the advance.
func (g *Game) DrawAndPass(playerID uuid.UUID) (models.Card, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	c, err := g.drawForActive(playerID)
	if err != nil {
		return models.Card{}, err
	}
	g.advanceTurn()
	return c, nil
}

// drawForActive validates the drawer and moves one card into their hand.
// Assumes the lock is held.
func (g *Game) drawForActive(playerID uuid.UUID) (models.Card, error) {
	if g.Status != StatusPlaying {
		return models.Card{}, ErrInvalidState
	}
	p := g.Players[g.Current]
	if p.ID != playerID {
		return models.Card{}, ErrNotYourTurn
	}
	c, err := g.drawOne()
	if err != nil {
		return models.Card{}, err
	}
	p.Hand = append(p.Hand, c)
	return c, nil
}

// drawOne removes and returns the back of the draw pile, reshuffling the
// discard pile into it first when it is empty. Assumes the lock is held.
func (g *Game) drawOne() (models.Card, error) {
	if len(g.DrawPile) == 0 {
		if err := g.reshuffle(); err != nil {
			return models.Card{}, err
		}
	}
	c := g.DrawPile[len(g.DrawPile)-1]
	g.DrawPile = g.DrawPile[:len(g.DrawPile)-1]
	return c, nil
}

// reshuffle lifts the top discard off, shuffles everything underneath into a
// new draw pile, and restores the lifted card as the sole discard.
func (g *Game) reshuffle() error {
	if len(g.DiscardPile) <= 1 {
		return ErrDeckExhausted
	}
	top := g.DiscardPile[len(g.DiscardPile)-1]
	g.DrawPile = append(g.DrawPile, g.DiscardPile[:len(g.DiscardPile)-1]...)
	g.shuffler.Shuffle(g.DrawPile)
	g.DiscardPile = []models.Card{top}
	log.Debugf("session %s reshuffled %d cards back into the draw pile", g.ID, len(g.DrawPile))
	return nil
}

// AdvanceTurn moves the cursor one seat in the current direction.
func (g *Game) AdvanceTurn() {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	g.advanceTurn()
}

func (g *Game) advanceTurn() {
	n := len(g.Players)
	g.Current = (g.Current + g.Direction + n) % n
}

// DeclareUno marks the one-card announcement for playerID and reports whether
// it took effect. With any other hand size it is a no-op, not an error.
func (g *Game) DeclareUno(playerID uuid.UUID) bool {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	for _, p := range g.Players {
		if p.ID == playerID {
			if len(p.Hand) == 1 {
				p.CalledUno = true
				return true
			}
			return false
		}
	}
	return false
}

// MarkDisconnected flags playerID's seat as disconnected and drops its
// connection handle. The seat itself is kept; seating is frozen after start.
func (g *Game) MarkDisconnected(playerID uuid.UUID) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	for _, p := range g.Players {
		if p.ID == playerID {
			p.Connected = false
			p.Conn = nil
			return
		}
	}
}
