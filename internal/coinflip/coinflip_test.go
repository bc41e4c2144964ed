package coinflip

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/diamondlocks/internal/ledger"
	"github.com/lox/diamondlocks/internal/randutil"
	"github.com/lox/diamondlocks/internal/store"
)

// fixedRand always lands the same side: 0 is heads, 1 is tails.
type fixedRand int

func (f fixedRand) IntN(int) int { return int(f) }

func newGame(t *testing.T, balance int, opts ...Option) (*Game, *ledger.Ledger) {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	l := ledger.New(store.NewMemory(), logger)
	if balance > 0 {
		_, err := l.Credit(context.Background(), "alice", balance)
		require.NoError(t, err)
	}
	return New(l, logger, append([]Option{WithDelay(0)}, opts...)...), l
}

func TestParseSide(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]Side{"heads": Heads, "TAILS": Tails, " Heads ": Heads} {
		got, err := ParseSide(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseSide("edge")
	assert.ErrorIs(t, err, ErrInvalidChoice)
}

func TestFlip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("correct call pays double", func(t *testing.T) {
		t.Parallel()
		g, l := newGame(t, 100, WithRand(fixedRand(0)))
		res, err := g.Flip(ctx, "alice", 30, "heads")
		require.NoError(t, err)
		assert.Equal(t, Result{Side: Heads, Choice: Heads, Won: true, Bet: 30, Payout: 60, Balance: 130, Message: "You Win!"}, res)

		n, err := l.Balance(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 130, n)
	})

	t.Run("wrong call loses the stake", func(t *testing.T) {
		t.Parallel()
		g, _ := newGame(t, 100, WithRand(fixedRand(1)))
		res, err := g.Flip(ctx, "alice", 30, "heads")
		require.NoError(t, err)
		assert.Equal(t, Tails, res.Side)
		assert.False(t, res.Won)
		assert.Equal(t, 0, res.Payout)
		assert.Equal(t, 70, res.Balance)
		assert.Equal(t, "You Lose!", res.Message)
	})

	t.Run("rejections move no chips", func(t *testing.T) {
		t.Parallel()
		g, l := newGame(t, 10)

		_, err := g.Flip(ctx, "alice", 5, "sideways")
		assert.ErrorIs(t, err, ErrInvalidChoice)
		_, err = g.Flip(ctx, "alice", 0, "heads")
		assert.ErrorIs(t, err, ErrInvalidBet)
		_, err = g.Flip(ctx, "alice", 11, "tails")
		assert.ErrorIs(t, err, ErrInvalidBet)
		assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

		n, err := l.Balance(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 10, n)
	})

	t.Run("abandoned flip is refunded", func(t *testing.T) {
		t.Parallel()
		g, l := newGame(t, 50, WithClock(quartz.NewMock(t)), WithDelay(time.Second))
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := g.Flip(cancelled, "alice", 20, "heads")
		require.ErrorIs(t, err, context.Canceled)
		n, err := l.Balance(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 50, n)
		assert.False(t, g.Busy("alice"))
	})
}

func TestFlipIsPacedAndExclusive(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	clock := quartz.NewMock(t)
	g, l := newGame(t, 100, WithClock(clock), WithDelay(DefaultDelay), WithRand(fixedRand(1)))

	done := make(chan Result, 1)
	go func() {
		res, err := g.Flip(ctx, "alice", 40, "tails")
		assert.NoError(t, err)
		done <- res
	}()

	require.Eventually(t, func() bool { return g.Busy("alice") }, time.Second, time.Millisecond)
	_, err := g.Flip(ctx, "alice", 10, "heads")
	assert.ErrorIs(t, err, ErrBusy)

	// other users are unaffected
	_, err = l.Credit(ctx, "bob", 10)
	require.NoError(t, err)
	_, err = New(l, log.NewWithOptions(io.Discard, log.Options{}), WithDelay(0), WithRand(randutil.NewLocked(randutil.New(1)))).
		Flip(ctx, "bob", 5, "heads")
	require.NoError(t, err)

	for {
		select {
		case res := <-done:
			assert.True(t, res.Won)
			assert.Equal(t, 140, res.Balance)
			assert.False(t, g.Busy("alice"))
			return
		default:
		}
		require.NoError(t, ctx.Err(), "flip never landed")
		clock.Advance(DefaultDelay).MustWait(ctx)
		time.Sleep(time.Millisecond)
	}
}

func TestFlipOddsAreFair(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, _ := newGame(t, 1_000_000, WithRand(randutil.NewLocked(randutil.New(99))))

	heads := 0
	for range 2000 {
		res, err := g.Flip(ctx, "alice", 1, "heads")
		require.NoError(t, err)
		if res.Side == Heads {
			heads++
		}
	}
	assert.InDelta(t, 1000, heads, 150)
}
