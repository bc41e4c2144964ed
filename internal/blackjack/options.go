package blackjack

import (
	"time"

	"github.com/coder/quartz"

	"github.com/lox/diamondlocks/internal/deck"
)

// DefaultChips are the chip values a table offers unless configured.
var DefaultChips = []int{1, 5, 25, 100}

// Option configures a Table during Open.
type Option func(*Table)

// WithClock sets the clock used to pace the deal and the dealer's turn.
func WithClock(clock quartz.Clock) Option {
	return func(t *Table) {
		t.clock = clock
	}
}

// WithRand sets the source used to shuffle each new deck.
func WithRand(rng deck.RandSource) Option {
	return func(t *Table) {
		t.newDeck = func() deck.Deck { return deck.New(rng) }
	}
}

// WithDeckFactory replaces deck construction entirely, e.g. with a stacked
// deck in tests.
func WithDeckFactory(fn func() deck.Deck) Option {
	return func(t *Table) {
		t.newDeck = fn
	}
}

// WithDealDelay sets the pause before each card of the initial deal. Zero
// deals all four cards within StartGame.
func WithDealDelay(d time.Duration) Option {
	return func(t *Table) {
		t.dealDelay = d
	}
}

// WithDealerDelay sets the pause before each dealer step. Zero plays the
// dealer's turn within Stand.
func WithDealerDelay(d time.Duration) Option {
	return func(t *Table) {
		t.dealerDelay = d
	}
}

// WithChips sets the accepted chip values.
func WithChips(chips []int) Option {
	return func(t *Table) {
		if len(chips) > 0 {
			t.chips = append([]int(nil), chips...)
		}
	}
}

// WithIDGenerator sets how round ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(t *Table) {
		t.newID = fn
	}
}
