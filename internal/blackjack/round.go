package blackjack

import (
	"github.com/lox/diamondlocks/internal/deck"
)

// dealerStandsOn is the total at which the dealer stops drawing.
const dealerStandsOn = 17

// Round is one blackjack round. The zero value is an Idle round with no bet.
//
// Methods either apply a transition or return an error and leave the round
// exactly as it was. A Round does not touch balances: Bet is moved out of
// the balance by the caller before Begin, and Payout is what the caller
// credits once the round reaches Settled.
type Round struct {
	ID           string
	State        State
	Bet          int
	Deck         deck.Deck
	Player       Hand
	Dealer       Hand
	HoleRevealed bool
	Outcome      Outcome
	Payout       int
}

// AddChip raises the pending bet by value. An increment that would take the
// bet above balance is ignored and reported as false, as is a non-positive
// value.
func (r *Round) AddChip(value, balance int) (bool, error) {
	if r.State != Idle && r.State != Betting {
		return false, ErrInvalidAction
	}
	if value <= 0 || r.Bet+value > balance {
		return false, nil
	}
	r.Bet += value
	r.State = Betting
	return true, nil
}

// ClearBet drops the pending bet back to zero.
func (r *Round) ClearBet() error {
	if r.State != Idle && r.State != Betting {
		return ErrInvalidAction
	}
	r.Bet = 0
	return nil
}

// Begin moves a placed bet into Dealing with a fresh deck. The caller must
// already have debited Bet.
func (r *Round) Begin(id string, d deck.Deck) error {
	if r.State != Idle && r.State != Betting {
		return ErrInvalidAction
	}
	if r.Bet <= 0 {
		return ErrInvalidBet
	}
	r.ID = id
	r.State = Dealing
	r.Deck = d
	r.Player = nil
	r.Dealer = nil
	r.HoleRevealed = false
	r.Outcome = NoOutcome
	r.Payout = 0
	return nil
}

// DealNext draws the next card of the initial deal in the order player,
// dealer, player, dealer. It reports true once the deal is complete, at which
// point the round is either in PlayerTurn or Settled on a player blackjack.
func (r *Round) DealNext() (bool, error) {
	if r.State != Dealing {
		return false, ErrInvalidAction
	}
	if len(r.Player)+len(r.Dealer) < 4 {
		card, rest, err := r.Deck.Draw()
		if err != nil {
			return false, err
		}
		r.Deck = rest
		if len(r.Player) == len(r.Dealer) {
			r.Player = append(r.Player, card)
		} else {
			r.Dealer = append(r.Dealer, card)
		}
	}
	if len(r.Player)+len(r.Dealer) < 4 {
		return false, nil
	}
	if r.Player.IsBlackjack() {
		r.settle(PlayerBlackjack)
	} else {
		r.State = PlayerTurn
	}
	return true, nil
}

// Hit draws one card for the player. A bust settles the round; reaching 21
// stands automatically. On an empty deck the round is left unchanged and
// ErrDeckExhausted is returned.
func (r *Round) Hit() error {
	if r.State != PlayerTurn {
		return ErrInvalidAction
	}
	card, rest, err := r.Deck.Draw()
	if err != nil {
		return ErrDeckExhausted
	}
	r.Deck = rest
	r.Player = append(r.Player, card)

	switch {
	case r.Player.IsBust():
		r.settle(PlayerBust)
	case r.Player.Value() == 21:
		r.stand()
	}
	return nil
}

// Stand ends the player's turn and reveals the hole card.
func (r *Round) Stand() error {
	if r.State != PlayerTurn {
		return ErrInvalidAction
	}
	r.stand()
	return nil
}

func (r *Round) stand() {
	r.State = DealerTurn
	r.HoleRevealed = true
}

// DealerStep plays one step of the dealer's turn: a card is drawn while the
// dealer is under 17 and the deck has cards. Once the dealer is done the
// round is settled and DealerStep reports true. Running out of cards is not
// an error; the dealer keeps the hand it has.
func (r *Round) DealerStep() (bool, error) {
	if r.State != DealerTurn {
		return false, ErrInvalidAction
	}
	if r.dealerDraws() {
		card, rest, _ := r.Deck.Draw()
		r.Deck = rest
		r.Dealer = append(r.Dealer, card)
	}
	if r.dealerDraws() {
		return false, nil
	}
	r.settle(r.resolve())
	return true, nil
}

func (r *Round) dealerDraws() bool {
	return r.Dealer.Value() < dealerStandsOn && !r.Deck.IsEmpty()
}

func (r *Round) resolve() Outcome {
	player, dealer := r.Player.Value(), r.Dealer.Value()
	switch {
	case dealer > 21:
		return DealerBust
	case player > dealer:
		return PlayerWins
	case dealer > player:
		return DealerWins
	default:
		return Push
	}
}

func (r *Round) settle(o Outcome) {
	r.State = Settled
	r.HoleRevealed = true
	r.Outcome = o
	r.Payout = o.Multiplier() * r.Bet
}

// Reset returns the round to Idle, discarding bet, cards and outcome.
func (r *Round) Reset() {
	*r = Round{}
}

// Clone returns a copy that shares no mutable state with r.
func (r *Round) Clone() Round {
	c := *r
	c.Player = r.Player.clone()
	c.Dealer = r.Dealer.clone()
	return c
}
