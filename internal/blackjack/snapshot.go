package blackjack

import "github.com/lox/diamondlocks/internal/deck"

// CardView is a card as the player may see it. A hidden card carries no
// rank or suit.
type CardView struct {
	Code   string `json:"code,omitempty"`
	Rank   string `json:"rank,omitempty"`
	Suit   string `json:"suit,omitempty"`
	Red    bool   `json:"red,omitempty"`
	Hidden bool   `json:"hidden,omitempty"`
}

func viewCard(c deck.Card) CardView {
	return CardView{
		Code: c.Code(),
		Rank: c.Rank.String(),
		Suit: c.Suit.String(),
		Red:  c.IsRed(),
	}
}

// Snapshot is the public state of a table. The dealer's hole card is masked
// and excluded from DealerValue until it is revealed.
type Snapshot struct {
	User           string     `json:"user"`
	RoundID        string     `json:"roundId,omitempty"`
	State          State      `json:"state"`
	Balance        int        `json:"balance"`
	Bet            int        `json:"bet"`
	Player         []CardView `json:"player"`
	Dealer         []CardView `json:"dealer"`
	PlayerValue    int        `json:"playerValue"`
	DealerValue    int        `json:"dealerValue"`
	HoleRevealed   bool       `json:"holeRevealed"`
	Outcome        string     `json:"outcome,omitempty"`
	Message        string     `json:"message,omitempty"`
	Payout         int        `json:"payout,omitempty"`
	Busy           bool       `json:"busy"`
	CardsRemaining int        `json:"cardsRemaining"`
	Chips          []int      `json:"chips"`
}

// CanAct reports whether the player may hit or stand.
func (s Snapshot) CanAct() bool {
	return s.State == PlayerTurn && !s.Busy
}

// CanBet reports whether chips may be added or the deal started.
func (s Snapshot) CanBet() bool {
	return (s.State == Idle || s.State == Betting) && !s.Busy
}

// View renders the round for a player holding balance.
func (r *Round) View(user string, balance int, busy bool, chips []int) Snapshot {
	s := Snapshot{
		User:           user,
		RoundID:        r.ID,
		State:          r.State,
		Balance:        balance,
		Bet:            r.Bet,
		Player:         make([]CardView, 0, len(r.Player)),
		Dealer:         make([]CardView, 0, len(r.Dealer)),
		PlayerValue:    r.Player.Value(),
		HoleRevealed:   r.HoleRevealed,
		Outcome:        r.Outcome.Tag(),
		Message:        r.Outcome.Message(),
		Payout:         r.Payout,
		Busy:           busy,
		CardsRemaining: r.Deck.Len(),
		Chips:          append([]int(nil), chips...),
	}
	for _, c := range r.Player {
		s.Player = append(s.Player, viewCard(c))
	}
	visible := make(Hand, 0, len(r.Dealer))
	for i, c := range r.Dealer {
		if i == 1 && !r.HoleRevealed {
			s.Dealer = append(s.Dealer, CardView{Hidden: true})
			continue
		}
		s.Dealer = append(s.Dealer, viewCard(c))
		visible = append(visible, c)
	}
	s.DealerValue = visible.Value()
	return s
}
