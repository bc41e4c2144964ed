package deck

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/lox/diamondlocks/internal/randutil"
)

func TestNewDeckHas52DistinctCards(t *testing.T) {
	t.Parallel()
	d := New(randutil.New(1))
	if d.Len() != Size {
		t.Fatalf("expected %d cards, got %d", Size, d.Len())
	}

	seen := make(map[Card]bool)
	for _, c := range d.Cards() {
		if !c.IsValid() {
			t.Errorf("invalid card %v", c)
		}
		if seen[c] {
			t.Errorf("duplicate card %v", c)
		}
		seen[c] = true
	}
	if len(seen) != Size {
		t.Errorf("expected %d distinct cards, got %d", Size, len(seen))
	}
}

func TestNewDeckIsDeterministicPerSeed(t *testing.T) {
	t.Parallel()
	a := New(randutil.New(42)).Cards()
	b := New(randutil.New(42)).Cards()
	c := New(randutil.New(43)).Cards()

	if !cardsEqual(a, b) {
		t.Error("same seed should produce the same order")
	}
	if cardsEqual(a, c) {
		t.Error("different seeds should produce different orders")
	}
}

func TestShuffleReachesEveryPosition(t *testing.T) {
	t.Parallel()
	rng := randutil.New(7)
	var topCounts [Size]int
	const rounds = 52 * 200

	for range rounds {
		top, _ := New(rng).Peek()
		topCounts[int(top.Suit)*13+int(top.Rank)-1]++
	}

	for i, n := range topCounts {
		// expected 200 each; a uniform shuffle stays well inside this band
		if n < 100 || n > 320 {
			t.Errorf("card index %d was on top %d times out of %d", i, n, rounds)
		}
	}
}

func TestDrawReturnsRemainder(t *testing.T) {
	t.Parallel()
	d := MustFromCards(MustParseCards("AsKh2d"))

	card, rest, err := d.Draw()
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if card != NewCard(Spades, Ace) {
		t.Errorf("expected A♠ on top, got %v", card)
	}
	if rest.Len() != 2 {
		t.Errorf("expected 2 cards remaining, got %d", rest.Len())
	}
	if d.Len() != 3 {
		t.Errorf("original deck must be untouched, has %d cards", d.Len())
	}

	for range 2 {
		_, rest, err = rest.Draw()
		if err != nil {
			t.Fatalf("Draw: %v", err)
		}
	}
	if !rest.IsEmpty() {
		t.Fatal("expected empty deck")
	}
	if _, _, err := rest.Draw(); !errors.Is(err, ErrExhausted) {
		t.Errorf("expected ErrExhausted, got %v", err)
	}
}

func TestDrawNeverRepeatsACard(t *testing.T) {
	t.Parallel()
	d := New(randutil.New(99))
	seen := make(map[Card]bool)
	for !d.IsEmpty() {
		var c Card
		var err error
		c, d, err = d.Draw()
		if err != nil {
			t.Fatalf("Draw: %v", err)
		}
		if seen[c] {
			t.Fatalf("card %v drawn twice", c)
		}
		seen[c] = true
	}
	if len(seen) != Size {
		t.Errorf("drew %d cards, want %d", len(seen), Size)
	}
}

func TestFromCardsRejectsDuplicates(t *testing.T) {
	t.Parallel()
	if _, err := FromCards(MustParseCards("AsKsAs")); err == nil {
		t.Error("expected duplicate error")
	}
	if _, err := FromCards([]Card{{}}); err == nil {
		t.Error("expected invalid card error")
	}
}

func TestDeckJSONPreservesOrder(t *testing.T) {
	t.Parallel()
	d := New(randutil.New(5))
	_, d, _ = d.Draw()

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back Deck
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !cardsEqual(d.Cards(), back.Cards()) {
		t.Error("deck order changed across JSON round trip")
	}

	if err := json.Unmarshal([]byte(`["As","As"]`), &back); err == nil {
		t.Error("expected duplicate cards to be rejected")
	}
}
