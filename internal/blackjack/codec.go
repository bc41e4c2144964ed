package blackjack

import (
	"encoding/json"
	"fmt"

	"github.com/lox/diamondlocks/internal/deck"
	"github.com/lox/diamondlocks/internal/roundid"
)

// recordVersion is bumped whenever roundRecord changes shape.
const recordVersion = 1

type roundRecord struct {
	Version      int         `json:"version"`
	ID           string      `json:"id,omitempty"`
	State        State       `json:"state"`
	Bet          int         `json:"bet"`
	Deck         deck.Deck   `json:"deck"`
	Player       []deck.Card `json:"player"`
	Dealer       []deck.Card `json:"dealer"`
	HoleRevealed bool        `json:"holeRevealed"`
	Outcome      Outcome     `json:"outcome"`
	Message      string      `json:"message,omitempty"`
	Payout       int         `json:"payout"`
}

// Encode serializes a round for the store.
func Encode(r Round) ([]byte, error) {
	rec := roundRecord{
		Version:      recordVersion,
		ID:           r.ID,
		State:        r.State,
		Bet:          r.Bet,
		Deck:         r.Deck,
		Player:       orEmpty(r.Player),
		Dealer:       orEmpty(r.Dealer),
		HoleRevealed: r.HoleRevealed,
		Outcome:      r.Outcome,
		Message:      r.Outcome.Message(),
		Payout:       r.Payout,
	}
	return json.Marshal(rec)
}

// Decode parses and validates a stored round. Every failure wraps
// ErrCorruptState.
func Decode(data []byte) (Round, error) {
	var rec roundRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Round{}, fmt.Errorf("%w: %w", ErrCorruptState, err)
	}
	if rec.Version != recordVersion {
		return Round{}, fmt.Errorf("%w: unsupported version %d", ErrCorruptState, rec.Version)
	}
	r := Round{
		ID:           rec.ID,
		State:        rec.State,
		Bet:          rec.Bet,
		Deck:         rec.Deck,
		HoleRevealed: rec.HoleRevealed,
		Outcome:      rec.Outcome,
		Payout:       rec.Payout,
	}
	if len(rec.Player) > 0 {
		r.Player = Hand(rec.Player)
	}
	if len(rec.Dealer) > 0 {
		r.Dealer = Hand(rec.Dealer)
	}
	if err := r.validate(); err != nil {
		return Round{}, fmt.Errorf("%w: %w", ErrCorruptState, err)
	}
	return r, nil
}

func orEmpty(h Hand) []deck.Card {
	if h == nil {
		return []deck.Card{}
	}
	return h
}

// validate rejects combinations no sequence of transitions can produce.
func (r *Round) validate() error {
	if r.Bet < 0 {
		return fmt.Errorf("negative bet %d", r.Bet)
	}
	seen := make(map[deck.Card]bool, deck.Size)
	for _, group := range [][]deck.Card{r.Deck.Cards(), r.Player, r.Dealer} {
		for _, c := range group {
			if !c.IsValid() {
				return fmt.Errorf("invalid card %v", c)
			}
			if seen[c] {
				return fmt.Errorf("card %s appears twice", c.Code())
			}
			seen[c] = true
		}
	}
	if len(seen) > deck.Size {
		return fmt.Errorf("%d cards in play", len(seen))
	}

	dealt := len(r.Player) + len(r.Dealer)
	switch r.State {
	case Idle, Betting:
		if dealt > 0 || r.Deck.Len() > 0 || r.Outcome != NoOutcome {
			return fmt.Errorf("%s round holds cards or an outcome", r.State)
		}
		return nil
	case Dealing:
		if dealt >= 4 || len(r.Player)-len(r.Dealer) < 0 || len(r.Player)-len(r.Dealer) > 1 {
			return fmt.Errorf("dealing round has %d player and %d dealer cards", len(r.Player), len(r.Dealer))
		}
	case PlayerTurn, DealerTurn:
		if len(r.Player) < 2 || len(r.Dealer) < 2 {
			return fmt.Errorf("%s round is missing dealt cards", r.State)
		}
	case Settled:
		if r.Outcome == NoOutcome {
			return fmt.Errorf("settled round has no outcome")
		}
		if r.Payout != r.Outcome.Multiplier()*r.Bet {
			return fmt.Errorf("payout %d does not match %s on bet %d", r.Payout, r.Outcome, r.Bet)
		}
	default:
		return fmt.Errorf("unknown state %d", int(r.State))
	}
	if r.Bet == 0 {
		return fmt.Errorf("%s round has no bet", r.State)
	}
	if r.State != Settled && r.Outcome != NoOutcome {
		return fmt.Errorf("%s round already has outcome %s", r.State, r.Outcome)
	}
	if r.ID != "" {
		if err := roundid.Validate(r.ID); err != nil {
			return err
		}
	}
	return nil
}
