package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/moltlabs/molt-uno/internal/game"
	"github.com/moltlabs/molt-uno/internal/models"
)

// Message is the envelope for every command a client sends. Unused fields are
// simply omitted for commands that do not need them.
type Message struct {
	Type        string       `json:"type"`
	Name        string       `json:"name,omitempty"`
	SessionID   string       `json:"sessionId,omitempty"`
	CardIndex   int          `json:"cardIndex"`
	ChosenColor models.Color `json:"chosenColor,omitempty"`
}

// WSHandler upgrades the HTTP connection to WebSocket, allocates the
// connection its identity, and runs the read loop until the client goes away.
// On exit the connection is detached from the registry, which also garbage
// collects abandoned lobbies.
func WSHandler(logger *logrus.Logger, s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"uno"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "internal server error")

		if c.Subprotocol() != "uno" {
			c.Close(websocket.StatusPolicyViolation, "client must use the 'uno' subprotocol")
			return
		}

		connID := uuid.New()
		logger.Infof("connection %s established from %s", connID, r.RemoteAddr)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		readMessages(ctx, c, connID, s, logger)

		// The seat stays (seating is frozen mid-game); only the routing and
		// connection handle go away.
		g, inSession := s.Registry.SessionFor(connID)
		s.Registry.RemoveConnection(connID)
		if inSession {
			pub := g.Snapshot(uuid.Nil)
			s.broadcast(g, game.Event{Type: game.EventPlayerLeft, PlayerID: &connID, Session: &pub})
		}
		logger.Infof("connection %s closed", connID)
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// readMessages decodes and dispatches client commands until the connection
// errors, closes, or the request context is canceled.
func readMessages(ctx context.Context, c *websocket.Conn, connID uuid.UUID, s *Server, logger *logrus.Logger) {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			switch {
			case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
				logger.Infof("connection %s closed by client", connID)
			case strings.Contains(err.Error(), "context canceled"):
				logger.Infof("connection %s context canceled", connID)
			default:
				logger.Warnf("read error on connection %s: %v", connID, err)
			}
			return
		}
		if msgType != websocket.MessageText {
			logger.Warnf("ignoring non-text message from connection %s", connID)
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("invalid JSON from connection %s: %v", connID, err)
			s.reject(c, "invalid JSON")
			continue
		}
		logger.Debugf("command %q from connection %s", msg.Type, connID)
		s.handleCommand(c, connID, msg)
	}
}

// handleCommand routes one command to the registry or the connection's
// session and delivers the resulting events. Failures are reported only to
// the issuer; nothing is broadcast on a rejected command.
func (s *Server) handleCommand(c *websocket.Conn, connID uuid.UUID, msg Message) {
	switch msg.Type {
	case "create-session":
		g, err := s.Registry.CreateSession(connID, msg.Name, c)
		if err != nil {
			s.reject(c, err.Error())
			return
		}
		snap := g.Snapshot(connID)
		s.send(c, game.Event{Type: game.EventSessionCreated, PlayerID: &connID, Session: &snap})

	case "join-session":
		g, err := s.Registry.JoinSession(msg.SessionID, connID, msg.Name, c)
		if err != nil {
			s.reject(c, err.Error())
			return
		}
		pub := g.Snapshot(uuid.Nil)
		s.broadcast(g, game.Event{Type: game.EventPlayerJoined, PlayerID: &connID, Session: &pub})

	case "start-session":
		g, ok := s.Registry.SessionFor(connID)
		if !ok {
			s.reject(c, game.ErrSessionNotFound.Error())
			return
		}
		if err := g.Start(); err != nil {
			s.reject(c, err.Error())
			return
		}
		pub := g.Snapshot(uuid.Nil)
		s.broadcast(g, game.Event{Type: game.EventSessionStarted, Session: &pub})
		s.sendHands(g)

	case "play-card":
		g, ok := s.Registry.SessionFor(connID)
		if !ok {
			s.reject(c, game.ErrSessionNotFound.Error())
			return
		}
		res, err := g.PlayCard(connID, msg.CardIndex, msg.ChosenColor)
		if err != nil {
			s.reject(c, err.Error())
			return
		}
		pub := g.Snapshot(uuid.Nil)
		card := res.Card
		s.broadcast(g, game.Event{Type: game.EventCardPlayed, PlayerID: &connID, Card: &card, Session: &pub})
		s.sendHands(g)
		if res.Winner != uuid.Nil {
			s.broadcast(g, game.Event{Type: game.EventSessionEnded, Winner: &res.Winner, Session: &pub})
		} else {
			s.broadcast(g, game.Event{Type: game.EventTurnChanged, Session: &pub})
		}

	case "draw-card":
		g, ok := s.Registry.SessionFor(connID)
		if !ok {
			s.reject(c, game.ErrSessionNotFound.Error())
			return
		}
		// Drawing on your turn ends it.
		if _, err := g.DrawAndPass(connID); err != nil {
			s.reject(c, err.Error())
			return
		}
		snap := g.Snapshot(connID)
		s.send(c, game.Event{Type: game.EventHandUpdated, Hand: snap.Hand})
		pub := g.Snapshot(uuid.Nil)
		s.broadcast(g, game.Event{Type: game.EventTurnChanged, Session: &pub})

	case "declare-special-call":
		g, ok := s.Registry.SessionFor(connID)
		if !ok {
			s.reject(c, game.ErrSessionNotFound.Error())
			return
		}
		if g.DeclareUno(connID) {
			pub := g.Snapshot(uuid.Nil)
			s.broadcast(g, game.Event{Type: game.EventSpecialCallDeclared, PlayerID: &connID, Session: &pub})
		}

	case "list-waiting-sessions":
		s.send(c, game.Event{Type: game.EventSessionList, Sessions: s.Registry.ListWaiting()})

	default:
		s.reject(c, fmt.Sprintf("unknown command type: %s", msg.Type))
	}
}

// broadcast sends ev to every connected player in g. The recipient list is
// copied under the session lock and the writes happen off it, so a slow
// client never blocks game logic.
func (s *Server) broadcast(g *game.Game, ev game.Event) {
	g.Mu.Lock()
	conns := make([]*websocket.Conn, 0, len(g.Players))
	for _, p := range g.Players {
		if p.Connected && p.Conn != nil {
			conns = append(conns, p.Conn)
		}
	}
	g.Mu.Unlock()

	data, err := json.Marshal(ev)
	if err != nil {
		s.Logger.Errorf("marshal broadcast %s for session %s: %v", ev.Type, g.ID, err)
		return
	}
	go func() {
		for _, conn := range conns {
			writeWithTimeout(conn, data, s.Logger)
		}
	}()
}

// sendHands privately delivers each seated player's own hand. This is the
// only path that serializes hand contents, and every message is addressed
// solely to the hand's owner.
func (s *Server) sendHands(g *game.Game) {
	type delivery struct {
		conn *websocket.Conn
		hand []models.Card
	}

	g.Mu.Lock()
	deliveries := make([]delivery, 0, len(g.Players))
	for _, p := range g.Players {
		if p.Connected && p.Conn != nil {
			hand := make([]models.Card, len(p.Hand))
			copy(hand, p.Hand)
			deliveries = append(deliveries, delivery{conn: p.Conn, hand: hand})
		}
	}
	g.Mu.Unlock()

	for _, d := range deliveries {
		s.send(d.conn, game.Event{Type: game.EventHandUpdated, Hand: d.hand})
	}
}

// send marshals ev and writes it to a single connection asynchronously.
func (s *Server) send(c *websocket.Conn, ev game.Event) {
	if c == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		s.Logger.Errorf("marshal %s event: %v", ev.Type, err)
		return
	}
	go writeWithTimeout(c, data, s.Logger)
}

// reject tells only the issuing connection why its command was refused.
func (s *Server) reject(c *websocket.Conn, reason string) {
	s.send(c, game.Event{Type: game.EventCommandRejected, Reason: reason})
}

func writeWithTimeout(c *websocket.Conn, data []byte, logger *logrus.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Write(ctx, websocket.MessageText, data); err != nil {
		logger.Warnf("websocket write failed: %v", err)
	}
}
