package game

import (
	"math/rand"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	log "github.com/sirupsen/logrus"

	"github.com/moltlabs/molt-uno/internal/models"
)

// Session join codes avoid 0/O/1/I so they survive being read aloud.
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
)

// WaitingSession is one row in the open-lobby listing.
type WaitingSession struct {
	ID          string `json:"id"`
	PlayerCount int    `json:"playerCount"`
}

// Registry exclusively owns the set of live sessions and the routing table
// from connection identity to session. It is the only surface the transport
// layer talks to.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Game
	byConn   map[uuid.UUID]string
	rng      *rand.Rand
}

// NewRegistry returns an isolated registry. rng seeds session shuffles and is
// shared across sessions; nil gives each session its own time-seeded source.
func NewRegistry(rng *rand.Rand) *Registry {
	return &Registry{
		sessions: make(map[string]*Game),
		byConn:   make(map[uuid.UUID]string),
		rng:      rng,
	}
}

// CreateSession allocates a fresh session with connID's player as host and
// records the connection mapping.
func (r *Registry) CreateSession(connID uuid.UUID, name string, conn *websocket.Conn) (*Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, err := r.newCode()
	if err != nil {
		return nil, err
	}
	g := New(code, r.rng)
	host := &models.Player{ID: connID, Name: name, Connected: true, Conn: conn}
	if err := g.AddPlayer(host); err != nil {
		return nil, err // unreachable on an empty session
	}
	r.sessions[code] = g
	r.byConn[connID] = code
	log.Infof("session %s created by %s (%s)", code, name, connID)
	return g, nil
}

// newCode generates a join code not currently in use. Assumes the lock is held.
func (r *Registry) newCode() (string, error) {
	for {
		code, err := gonanoid.Generate(codeAlphabet, codeLength)
		if err != nil {
			return "", err
		}
		if _, taken := r.sessions[code]; !taken {
			return code, nil
		}
	}
}

// JoinSession seats connID's player in the named session, propagating the
// session's own admission rules.
func (r *Registry) JoinSession(id string, connID uuid.UUID, name string, conn *websocket.Conn) (*Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	p := &models.Player{ID: connID, Name: name, Connected: true, Conn: conn}
	if err := g.AddPlayer(p); err != nil {
		return nil, err
	}
	r.byConn[connID] = id
	log.Infof("%s (%s) joined session %s", name, connID, id)
	return g, nil
}

// Get looks up a session by its join code.
func (r *Registry) Get(id string) (*Game, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.sessions[id]
	return g, ok
}

// SessionFor resolves the session connID currently participates in.
func (r *Registry) SessionFor(connID uuid.UUID) (*Game, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byConn[connID]
	if !ok {
		return nil, false
	}
	g, ok := r.sessions[id]
	return g, ok
}

// ListWaiting returns the sessions still open for joining.
func (r *Registry) ListWaiting() []WaitingSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := []WaitingSession{}
	for id, g := range r.sessions {
		g.Mu.Lock()
		if g.Status == StatusWaiting {
			list = append(list, WaitingSession{ID: id, PlayerCount: len(g.Players)})
		}
		g.Mu.Unlock()
	}
	return list
}

// RemoveConnection detaches connID from its session. An abandoned waiting
// lobby (sole player leaving) is deleted outright, and a finished session is
// deleted once its last connection detaches; a session still being played is
// never auto-deleted by a disconnect.
func (r *Registry) RemoveConnection(connID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byConn[connID]
	if !ok {
		return
	}
	delete(r.byConn, connID)

	g, ok := r.sessions[id]
	if !ok {
		return
	}
	g.MarkDisconnected(connID)

	g.Mu.Lock()
	status, playerCount := g.Status, len(g.Players)
	g.Mu.Unlock()

	switch {
	case status == StatusWaiting && playerCount == 1:
		delete(r.sessions, id)
		log.Infof("session %s deleted: lobby abandoned", id)
	case status == StatusFinished && !r.hasConnections(id):
		delete(r.sessions, id)
		log.Infof("session %s deleted: finished and empty", id)
	}
}

// hasConnections reports whether any connection still routes to session id.
// Assumes the lock is held.
func (r *Registry) hasConnections(id string) bool {
	for _, sid := range r.byConn {
		if sid == id {
			return true
		}
	}
	return false
}

// Counts reports live session and connection totals for the health endpoint.
func (r *Registry) Counts() (sessions, connections int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions), len(r.byConn)
}
