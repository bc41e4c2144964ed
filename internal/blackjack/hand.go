package blackjack

import (
	"strings"

	"github.com/lox/diamondlocks/internal/deck"
)

// Hand is an ordered, append-only run of cards.
type Hand []deck.Card

// cardPoints counts an Ace as 11; Value demotes them as needed.
func cardPoints(c deck.Card) int {
	switch {
	case c.IsAce():
		return 11
	case c.Rank >= deck.Ten:
		return 10
	default:
		return int(c.Rank)
	}
}

// total returns the best total and how many Aces are still counted as 11.
func (h Hand) total() (int, int) {
	sum, soft := 0, 0
	for _, c := range h {
		sum += cardPoints(c)
		if c.IsAce() {
			soft++
		}
	}
	for sum > 21 && soft > 0 {
		sum -= 10
		soft--
	}
	return sum, soft
}

// Value is the highest total not above 21 when one exists, demoting Aces
// from 11 to 1 one at a time.
func (h Hand) Value() int {
	v, _ := h.total()
	return v
}

// IsBlackjack reports a two-card 21.
func (h Hand) IsBlackjack() bool {
	return len(h) == 2 && h.Value() == 21
}

// IsBust reports a total over 21.
func (h Hand) IsBust() bool {
	return h.Value() > 21
}

// IsSoft reports whether an Ace is still counted as 11.
func (h Hand) IsSoft() bool {
	_, soft := h.total()
	return soft > 0
}

func (h Hand) String() string {
	parts := make([]string, len(h))
	for i, c := range h {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

func (h Hand) clone() Hand {
	if h == nil {
		return nil
	}
	out := make(Hand, len(h))
	copy(out, h)
	return out
}
