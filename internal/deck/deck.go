package deck

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Size is the number of cards in a standard deck
const Size = 52

// ErrExhausted is returned when drawing from an empty deck
var ErrExhausted = errors.New("deck exhausted")

// RandSource is the randomness a shuffle needs. *rand.Rand from math/rand/v2
// satisfies it.
type RandSource interface {
	IntN(n int) int
}

// Deck is an ordered run of cards. It is a value: Draw returns the remainder
// instead of mutating the receiver, so a deck held in a snapshot never
// changes underneath its owner.
type Deck struct {
	cards []Card
}

// New creates a standard 52-card deck shuffled with the provided source
func New(rng RandSource) Deck {
	if rng == nil {
		panic("rng is required for deck creation")
	}

	cards := make([]Card, 0, Size)
	for _, suit := range Suits {
		for rank := Ace; rank <= King; rank++ {
			cards = append(cards, NewCard(suit, rank))
		}
	}

	shuffle(cards, rng)
	return Deck{cards: cards}
}

// FromCards builds a deck with a fixed order, top card first. Duplicate or
// invalid cards are rejected.
func FromCards(cards []Card) (Deck, error) {
	seen := make(map[Card]struct{}, len(cards))
	for i, c := range cards {
		if !c.IsValid() {
			return Deck{}, fmt.Errorf("card %d is invalid", i)
		}
		if _, dup := seen[c]; dup {
			return Deck{}, fmt.Errorf("duplicate card %s at position %d", c.Code(), i)
		}
		seen[c] = struct{}{}
	}
	return Deck{cards: append([]Card(nil), cards...)}, nil
}

// MustFromCards is FromCards that panics on error (for tests)
func MustFromCards(cards []Card) Deck {
	d, err := FromCards(cards)
	if err != nil {
		panic(err)
	}
	return d
}

// shuffle is Fisher-Yates over the whole slice, last index down to 1,
// swapping with a uniformly chosen index in [0, i].
func shuffle(cards []Card, rng RandSource) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// Draw removes the top card and returns it with the remaining deck
func (d Deck) Draw() (Card, Deck, error) {
	if len(d.cards) == 0 {
		return Card{}, d, ErrExhausted
	}
	return d.cards[0], Deck{cards: d.cards[1:]}, nil
}

// Peek returns the top card without removing it from the deck
func (d Deck) Peek() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	return d.cards[0], true
}

// Len returns the number of cards left in the deck
func (d Deck) Len() int {
	return len(d.cards)
}

// IsEmpty returns true if the deck has no cards left
func (d Deck) IsEmpty() bool {
	return len(d.cards) == 0
}

// Cards returns a copy of the remaining cards, top card first
func (d Deck) Cards() []Card {
	return append([]Card(nil), d.cards...)
}

// MarshalJSON encodes the deck as an array of card codes, top card first
func (d Deck) MarshalJSON() ([]byte, error) {
	if d.cards == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d.cards)
}

// UnmarshalJSON decodes an array of card codes, enforcing uniqueness
func (d *Deck) UnmarshalJSON(data []byte) error {
	var cards []Card
	if err := json.Unmarshal(data, &cards); err != nil {
		return err
	}
	parsed, err := FromCards(cards)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
