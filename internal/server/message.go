package server

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/lox/diamondlocks/internal/blackjack"
	"github.com/lox/diamondlocks/internal/casino"
	"github.com/lox/diamondlocks/internal/coinflip"
	"github.com/lox/diamondlocks/internal/ledger"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type AuthData struct {
	User string `json:"user"`
}

type AddChipData struct {
	Value int `json:"value"`
}

type CoinFlipData struct {
	Bet    int    `json:"bet"`
	Choice string `json:"choice"`
}

// Server → Client Messages

type AuthResponseData struct {
	Success bool   `json:"success"`
	User    string `json:"user,omitempty"`
	Error   string `json:"error,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ActionResultData answers a blackjack action. OK is false both for a
// rejected action (Error set) and for an ignored chip.
type ActionResultData struct {
	Action string             `json:"action"`
	OK     bool               `json:"ok"`
	Error  *ErrorData         `json:"error,omitempty"`
	State  blackjack.Snapshot `json:"state"`
}

type BalanceData struct {
	User    string `json:"user"`
	Balance int    `json:"balance"`
}

type CoinFlipResultData = coinflip.Result

// errorData maps a game error onto the wire error codes.
func errorData(err error) *ErrorData {
	code := ErrorCodeInternal
	switch {
	case errors.Is(err, blackjack.ErrInvalidBet), errors.Is(err, coinflip.ErrInvalidBet):
		code = ErrorCodeInvalidBet
	case errors.Is(err, blackjack.ErrDeckExhausted):
		code = ErrorCodeDeckExhausted
	case errors.Is(err, blackjack.ErrBusy), errors.Is(err, coinflip.ErrBusy):
		code = ErrorCodeBusy
	case errors.Is(err, blackjack.ErrInvalidAction):
		code = ErrorCodeInvalidAction
	case errors.Is(err, coinflip.ErrInvalidChoice):
		code = ErrorCodeInvalidChoice
	case errors.Is(err, ledger.ErrInvalidUser):
		code = ErrorCodeInvalidUser
	case errors.Is(err, blackjack.ErrClosed), errors.Is(err, casino.ErrClosed):
		code = ErrorCodeClosed
	}
	return &ErrorData{Code: code, Message: err.Error()}
}
