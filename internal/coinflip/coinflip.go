// Package coinflip is the heads-or-tails side game. The stake is debited when
// the flip starts and the coin lands after a fixed delay; a correct call is
// paid double.
package coinflip

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/diamondlocks/internal/ledger"
	"github.com/lox/diamondlocks/internal/randutil"
)

var (
	ErrInvalidChoice = errors.New("choose heads or tails")
	ErrInvalidBet    = errors.New("invalid bet")
	ErrBusy          = errors.New("a flip is already in progress")
)

// DefaultDelay is how long the coin spins.
const DefaultDelay = 2 * time.Second

// Side is a face of the coin.
type Side string

const (
	Heads Side = "heads"
	Tails Side = "tails"
)

// ParseSide accepts "heads" or "tails" in any case.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case Heads:
		return Heads, nil
	case Tails:
		return Tails, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidChoice, s)
}

// Result describes a finished flip.
type Result struct {
	Side    Side   `json:"side"`
	Choice  Side   `json:"choice"`
	Won     bool   `json:"won"`
	Bet     int    `json:"bet"`
	Payout  int    `json:"payout"`
	Balance int    `json:"balance"`
	Message string `json:"message"`
}

// RandSource picks the side; randutil.Locked satisfies it.
type RandSource interface {
	IntN(n int) int
}

// Game runs flips against a ledger. One flip per user may be in flight.
type Game struct {
	ledger *ledger.Ledger
	logger *log.Logger
	clock  quartz.Clock
	rng    RandSource
	delay  time.Duration

	mu       sync.Mutex
	inFlight map[string]bool
}

// Option configures a Game.
type Option func(*Game)

func WithClock(clock quartz.Clock) Option {
	return func(g *Game) { g.clock = clock }
}

func WithRand(rng RandSource) Option {
	return func(g *Game) { g.rng = rng }
}

// WithDelay sets how long the coin spins. Zero lands it immediately.
func WithDelay(d time.Duration) Option {
	return func(g *Game) { g.delay = d }
}

// New creates a coin flip game paying out through l.
func New(l *ledger.Ledger, logger *log.Logger, opts ...Option) *Game {
	g := &Game{
		ledger:   l,
		logger:   logger.WithPrefix("coinflip"),
		clock:    quartz.NewReal(),
		rng:      randutil.NewLocked(randutil.NewSecure()),
		delay:    DefaultDelay,
		inFlight: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Flip stakes bet on choice. If ctx ends while the coin is in the air the
// stake is refunded and ctx's error returned.
func (g *Game) Flip(ctx context.Context, user string, bet int, choice string) (Result, error) {
	side, err := ParseSide(choice)
	if err != nil {
		return Result{}, err
	}
	if bet <= 0 {
		return Result{}, fmt.Errorf("%w: bet must be positive", ErrInvalidBet)
	}
	if !g.acquire(user) {
		return Result{}, ErrBusy
	}
	defer g.release(user)

	if _, err := g.ledger.Debit(ctx, user, bet); err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			return Result{}, fmt.Errorf("%w: %w", ErrInvalidBet, err)
		}
		return Result{}, fmt.Errorf("debit stake: %w", err)
	}
	g.logger.Debug("Coin in the air", "user", user, "bet", bet, "choice", side)

	if err := g.wait(ctx); err != nil {
		if _, rerr := g.ledger.Credit(context.WithoutCancel(ctx), user, bet); rerr != nil {
			g.logger.Error("Failed to refund abandoned flip", "user", user, "bet", bet, "error", rerr)
		}
		return Result{}, err
	}

	landed := Heads
	if g.rng.IntN(2) == 1 {
		landed = Tails
	}
	res := Result{Side: landed, Choice: side, Won: landed == side, Bet: bet, Message: "You Lose!"}
	if res.Won {
		res.Payout = 2 * bet
		res.Message = "You Win!"
		res.Balance, err = g.ledger.Credit(context.WithoutCancel(ctx), user, res.Payout)
	} else {
		res.Balance, err = g.ledger.Balance(context.WithoutCancel(ctx), user)
	}
	if err != nil {
		return Result{}, fmt.Errorf("settle flip: %w", err)
	}
	g.logger.Info("Coin landed", "user", user, "side", landed, "choice", side, "bet", bet, "payout", res.Payout)
	return res, nil
}

func (g *Game) wait(ctx context.Context) error {
	if g.delay <= 0 {
		return ctx.Err()
	}
	landed := make(chan struct{})
	timer := g.clock.AfterFunc(g.delay, func() {
		close(landed)
	})
	defer timer.Stop()

	select {
	case <-landed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Game) acquire(user string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight[user] {
		return false
	}
	g.inFlight[user] = true
	return true
}

func (g *Game) release(user string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, user)
}

// Busy reports whether user has a flip in flight.
func (g *Game) Busy(user string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight[user]
}
