package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants
const (
	// Client to server messages
	MessageTypeAuth      MessageType = "auth"
	MessageTypeAddChip   MessageType = "add_chip"
	MessageTypeClearBet  MessageType = "clear_bet"
	MessageTypeStartGame MessageType = "start_game"
	MessageTypeHit       MessageType = "hit"
	MessageTypeStand     MessageType = "stand"
	MessageTypeReset     MessageType = "reset"
	MessageTypeCoinFlip  MessageType = "coin_flip"
	MessageTypeFaucet    MessageType = "faucet"

	// Server to client messages
	MessageTypeAuthResponse   MessageType = "auth_response"
	MessageTypeState          MessageType = "state"
	MessageTypeActionResult   MessageType = "action_result"
	MessageTypeCoinFlipResult MessageType = "coin_flip_result"
	MessageTypeBalance        MessageType = "balance"
	MessageTypeError          MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Error codes carried in ErrorData
const (
	ErrorCodeInvalidMessage   = "invalid_message"
	ErrorCodeUnknownType      = "unknown_message_type"
	ErrorCodeNotAuthenticated = "not_authenticated"
	ErrorCodeInvalidUser      = "invalid_user"
	ErrorCodeInvalidBet       = "invalid_bet"
	ErrorCodeInvalidChoice    = "invalid_choice"
	ErrorCodeDeckExhausted    = "deck_exhausted"
	ErrorCodeBusy             = "busy"
	ErrorCodeInvalidAction    = "invalid_action"
	ErrorCodeClosed           = "closed"
	ErrorCodeInternal         = "internal_error"
)
