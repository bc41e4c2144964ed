package tui

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/diamondlocks/internal/blackjack"
	"github.com/lox/diamondlocks/internal/casino"
	"github.com/lox/diamondlocks/internal/config"
	"github.com/lox/diamondlocks/internal/deck"
	"github.com/lox/diamondlocks/internal/store"
)

func TestMain(m *testing.M) {
	DisableColor()
	os.Exit(m.Run())
}

func newModel(t *testing.T, balance int, cards string) (*Model, *casino.Service) {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	cfg := config.Default()
	cfg.Store.Driver = store.DriverMemory
	cfg.Blackjack.DealDelayMs = 0
	cfg.Blackjack.DealerDelayMs = 0

	svc := casino.New(store.NewMemory(), cfg, logger,
		casino.WithTableOptions(blackjack.WithDeckFactory(func() deck.Deck {
			return deck.MustFromCards(deck.MustParseCards(cards))
		})))
	t.Cleanup(func() { _ = svc.Close() })

	ctx := context.Background()
	if balance > 0 {
		_, err := svc.Ledger().Credit(ctx, "tester", balance)
		require.NoError(t, err)
	}
	tbl, err := svc.Table(ctx, "tester")
	require.NoError(t, err)

	m, err := New(ctx, tbl, svc, logger)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, svc
}

func keyPress(k string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// press sends a key and feeds the resulting command's message back in.
func press(t *testing.T, m *Model, k string) {
	t.Helper()
	_, cmd := m.Update(keyPress(k))
	require.NotNil(t, cmd, "key %q was not handled", k)
	m.Update(cmd())
}

func TestPlayRound(t *testing.T) {
	t.Parallel()
	m, _ := newModel(t, 100, "9sTh9d9c")

	assert.Equal(t, blackjack.Idle, m.snap.State)
	assert.Contains(t, m.View(), "Balance: 100")
	assert.Contains(t, m.View(), "Place your bet")

	press(t, m, "3")
	assert.Equal(t, 25, m.snap.Bet)
	assert.Equal(t, blackjack.Betting, m.snap.State)

	press(t, m, "d")
	assert.Equal(t, blackjack.PlayerTurn, m.snap.State)
	assert.Equal(t, 75, m.snap.Balance)

	view := m.View()
	assert.Contains(t, view, "[9♠]")
	assert.Contains(t, view, "[9♦]")
	assert.Contains(t, view, "[10♥]")
	assert.Contains(t, view, "[??]")
	assert.Contains(t, view, "Dealer (showing 10)")
	assert.Contains(t, view, "Hit or stand?")

	press(t, m, "s")
	assert.Equal(t, blackjack.Settled, m.snap.State)
	assert.Equal(t, "dealer_wins", m.snap.Outcome)
	assert.Contains(t, m.View(), "[9♣]")
	assert.Contains(t, strings.Join(m.gameLog, "\n"), "Dealer wins! You lose. -25")

	press(t, m, "n")
	assert.Equal(t, blackjack.Idle, m.snap.State)
	assert.Equal(t, 0, m.snap.Bet)
	assert.Equal(t, 75, m.snap.Balance)
}

func TestDisabledKeysFallThrough(t *testing.T) {
	t.Parallel()
	m, _ := newModel(t, 10, "9sTh9d9c")

	for _, k := range []string{"h", "s", "d", "c"} {
		_, cmd := m.Update(keyPress(k))
		if cmd != nil {
			// only the log viewport may react
			_, isAction := cmd().(actionMsg)
			assert.False(t, isAction, "key %q should be disabled while idle with no bet", k)
		}
	}

	// the 25 chip is over the balance
	press(t, m, "3")
	assert.Equal(t, 0, m.snap.Bet)
	assert.Contains(t, m.gameLog[len(m.gameLog)-1], "not enough DiamondLocks")
}

func TestFaucet(t *testing.T) {
	t.Parallel()
	m, _ := newModel(t, 0, "9sTh9d9c")
	assert.Contains(t, m.View(), "Out of DiamondLocks")

	press(t, m, "f")
	press(t, m, "f")
	assert.Equal(t, 2, m.snap.Balance)
	assert.Contains(t, m.gameLog[len(m.gameLog)-1], "+1 DiamondLock")
}

func TestTableUpdatesArriveAsMessages(t *testing.T) {
	t.Parallel()
	m, svc := newModel(t, 0, "9sTh9d9c")

	// a balance change made outside the model is pushed by the table
	_, err := svc.Faucet(context.Background(), "tester")
	require.NoError(t, err)

	done := make(chan tea.Msg, 1)
	go func() { done <- m.Init()() }()
	select {
	case msg := <-done:
		_, cmd := m.Update(msg)
		assert.NotNil(t, cmd, "the model keeps listening")
	case <-time.After(5 * time.Second):
		t.Fatal("no snapshot pushed")
	}
	assert.Equal(t, 1, m.snap.Balance)
}

func TestQuit(t *testing.T) {
	t.Parallel()
	m, _ := newModel(t, 0, "9sTh9d9c")

	_, cmd := m.Update(keyPress("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, m.View())
}
