package blackjack

import "fmt"

// State is the round's position in its lifecycle.
type State int

const (
	Idle State = iota
	Betting
	Dealing
	PlayerTurn
	DealerTurn
	Settled
)

var stateTags = [...]string{
	Idle:       "idle",
	Betting:    "betting",
	Dealing:    "dealing",
	PlayerTurn: "player_turn",
	DealerTurn: "dealer_turn",
	Settled:    "settled",
}

func (s State) String() string {
	if s < Idle || s > Settled {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateTags[s]
}

// InProgress reports whether chips are at risk: the bet has been debited and
// the round has not settled.
func (s State) InProgress() bool {
	return s == Dealing || s == PlayerTurn || s == DealerTurn
}

func (s State) MarshalText() ([]byte, error) {
	if s < Idle || s > Settled {
		return nil, fmt.Errorf("invalid state %d", int(s))
	}
	return []byte(stateTags[s]), nil
}

func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseState converts a state tag back to a State.
func ParseState(tag string) (State, error) {
	for i, t := range stateTags {
		if t == tag {
			return State(i), nil
		}
	}
	return Idle, fmt.Errorf("unknown state %q", tag)
}

// Outcome is how a settled round ended.
type Outcome int

const (
	NoOutcome Outcome = iota
	PlayerBlackjack
	PlayerBust
	DealerBust
	PlayerWins
	DealerWins
	Push
)

type outcomeInfo struct {
	tag        string
	message    string
	multiplier int
}

var outcomes = [...]outcomeInfo{
	NoOutcome:       {"", "", 0},
	PlayerBlackjack: {"player_blackjack", "Blackjack! You win!", 2},
	PlayerBust:      {"bust", "Bust! You lose.", 0},
	DealerBust:      {"dealer_bust", "Dealer busts! You win!", 2},
	PlayerWins:      {"player_wins", "You win!", 2},
	DealerWins:      {"dealer_wins", "Dealer wins! You lose.", 0},
	Push:            {"push", "Push! It's a tie.", 1},
}

func (o Outcome) valid() bool { return o >= NoOutcome && o <= Push }

// Tag is the stable identifier used in snapshots and persisted rounds.
func (o Outcome) Tag() string {
	if !o.valid() {
		return ""
	}
	return outcomes[o].tag
}

// Message is the player-facing result text.
func (o Outcome) Message() string {
	if !o.valid() {
		return ""
	}
	return outcomes[o].message
}

// Multiplier is how many times the bet is credited back at settlement.
func (o Outcome) Multiplier() int {
	if !o.valid() {
		return 0
	}
	return outcomes[o].multiplier
}

// PlayerWon reports a winning outcome.
func (o Outcome) PlayerWon() bool {
	return o == PlayerBlackjack || o == DealerBust || o == PlayerWins
}

func (o Outcome) String() string {
	if o == NoOutcome {
		return "none"
	}
	return o.Tag()
}

func (o Outcome) MarshalText() ([]byte, error) {
	if !o.valid() {
		return nil, fmt.Errorf("invalid outcome %d", int(o))
	}
	return []byte(outcomes[o].tag), nil
}

func (o *Outcome) UnmarshalText(text []byte) error {
	parsed, err := ParseOutcome(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// ParseOutcome converts an outcome tag back to an Outcome. The empty tag is
// NoOutcome.
func ParseOutcome(tag string) (Outcome, error) {
	for i, info := range outcomes {
		if info.tag == tag {
			return Outcome(i), nil
		}
	}
	return NoOutcome, fmt.Errorf("unknown outcome %q", tag)
}
