package blackjack

import (
	"errors"

	"github.com/lox/diamondlocks/internal/deck"
)

var (
	// ErrInvalidBet covers a zero bet and a bet the balance cannot cover.
	ErrInvalidBet = errors.New("invalid bet")
	// ErrDeckExhausted is returned when the player hits on an empty deck.
	// The round cannot continue and must be reset.
	ErrDeckExhausted = deck.ErrExhausted
	// ErrBusy rejects actions while a deal or dealer sequence is running.
	ErrBusy = errors.New("table is busy")
	// ErrInvalidAction rejects an action the current state does not allow.
	ErrInvalidAction = errors.New("action not allowed in current state")
	// ErrCorruptState reports a persisted round that cannot be decoded.
	ErrCorruptState = errors.New("corrupt persisted round")
	ErrClosed       = errors.New("table is closed")
)
