package game

import "errors"

// Rule rejections. Every session operation either completes fully or reports
// exactly one of these with no partial mutation; none of them end the session
// or the process. Only the issuing connection is told about a rejection.
var (
	ErrInvalidState        = errors.New("session is not accepting that action right now")
	ErrSessionFull         = errors.New("session is full")
	ErrInsufficientPlayers = errors.New("need at least 2 players to start")
	ErrSessionNotFound     = errors.New("session not found")
	ErrNotYourTurn         = errors.New("not your turn")
	ErrIllegalPlay         = errors.New("that card cannot be played")
	ErrInvalidColorChoice  = errors.New("a wild must declare red, yellow, green, or blue")

	// ErrDeckExhausted means a reshuffle found nothing under the top discard.
	// Unreachable while the 108-card invariant holds; treated as a violated
	// invariant rather than a player-facing condition.
	ErrDeckExhausted = errors.New("no cards left to reshuffle")
)
