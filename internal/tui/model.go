// Package tui is the terminal blackjack client: a Bubble Tea program playing
// one user's table directly against the casino service.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/diamondlocks/internal/blackjack"
)

// Faucet credits the development "+1" button.
type Faucet interface {
	Faucet(ctx context.Context, user string) (int, error)
}

// Model is the Bubble Tea model for one player's table
type Model struct {
	ctx    context.Context
	table  *blackjack.Table
	faucet Faucet
	logger *log.Logger

	keys        keyMap
	help        help.Model
	logViewport viewport.Model

	snap        blackjack.Snapshot
	gameLog     []string
	updates     chan blackjack.Snapshot
	unsubscribe func()

	width    int
	height   int
	quitting bool
}

// snapshotMsg carries a snapshot pushed by the table
type snapshotMsg blackjack.Snapshot

// actionMsg is the result of a table action run off the update loop
type actionMsg struct {
	action string
	snap   blackjack.Snapshot
	ok     bool
	err    error
}

type faucetMsg struct {
	balance int
	err     error
}

// New creates a model over tbl. Close releases the table subscription.
func New(ctx context.Context, tbl *blackjack.Table, faucet Faucet, logger *log.Logger) (*Model, error) {
	snap, err := tbl.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	vp := viewport.New(60, 6)
	m := &Model{
		ctx:         ctx,
		table:       tbl,
		faucet:      faucet,
		logger:      logger.WithPrefix("tui"),
		keys:        newKeyMap(snap.Chips),
		help:        help.New(),
		logViewport: vp,
		updates:     make(chan blackjack.Snapshot, 1),
	}
	m.apply(snap)
	m.addLog(InfoStyle.Render(fmt.Sprintf("Welcome %s, you hold %d DiamondLocks", snap.User, snap.Balance)))
	m.unsubscribe = tbl.Subscribe(m.push)
	return m, nil
}

// Close stops table updates
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// push keeps only the latest snapshot; notifications arrive one at a time.
func (m *Model) push(s blackjack.Snapshot) {
	select {
	case <-m.updates:
	default:
	}
	m.updates <- s
}

func (m *Model) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-m.updates:
			return snapshotMsg(s)
		case <-m.ctx.Done():
			return nil
		}
	}
}

// Init starts listening for table updates
func (m *Model) Init() tea.Cmd {
	return m.waitForSnapshot()
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.logViewport.Width = max(msg.Width-2, 10)
		m.logViewport.Height = max(msg.Height-14, 3)
		m.logViewport.GotoBottom()

	case tea.KeyMsg:
		if cmd, ok := m.handleKey(msg); ok {
			return m, cmd
		}

	case snapshotMsg:
		m.apply(blackjack.Snapshot(msg))
		return m, m.waitForSnapshot()

	case actionMsg:
		switch {
		case msg.err != nil:
			m.addLog(ErrorStyle.Render(fmt.Sprintf("%s: %v", msg.action, msg.err)))
		case !msg.ok:
			m.addLog(WarningStyle.Render(fmt.Sprintf("%s: not enough DiamondLocks", msg.action)))
		}
		if msg.snap.User != "" {
			m.apply(msg.snap)
		}
		return m, nil

	case faucetMsg:
		if msg.err != nil {
			m.addLog(ErrorStyle.Render(fmt.Sprintf("faucet: %v", msg.err)))
			return m, nil
		}
		m.snap.Balance = msg.balance
		m.addLog(SuccessStyle.Render("+1 DiamondLock"))
		return m, nil
	}

	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}

// handleKey maps game keys to commands. Keys it does not claim scroll the log.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return tea.Quit, true
	case key.Matches(msg, m.keys.Clear):
		return m.act("clear", accepted(m.table.ClearBet)), true
	case key.Matches(msg, m.keys.Deal):
		return m.act("deal", accepted(m.table.StartGame)), true
	case key.Matches(msg, m.keys.Hit):
		return m.act("hit", accepted(m.table.Hit)), true
	case key.Matches(msg, m.keys.Stand):
		return m.act("stand", accepted(m.table.Stand)), true
	case key.Matches(msg, m.keys.Again):
		return m.act("new round", accepted(m.table.Reset)), true
	case key.Matches(msg, m.keys.Faucet):
		return m.useFaucet(), true
	}
	for i, binding := range m.keys.Chips {
		if key.Matches(msg, binding) && i < len(m.snap.Chips) {
			value := m.snap.Chips[i]
			return m.act(fmt.Sprintf("+%d", value), func(ctx context.Context) (blackjack.Snapshot, bool, error) {
				return m.table.AddChip(ctx, value)
			}), true
		}
	}
	return nil, false
}

func accepted(fn func(context.Context) (blackjack.Snapshot, error)) func(context.Context) (blackjack.Snapshot, bool, error) {
	return func(ctx context.Context) (blackjack.Snapshot, bool, error) {
		snap, err := fn(ctx)
		return snap, err == nil, err
	}
}

func (m *Model) act(name string, fn func(context.Context) (blackjack.Snapshot, bool, error)) tea.Cmd {
	return func() tea.Msg {
		snap, ok, err := fn(m.ctx)
		return actionMsg{action: name, snap: snap, ok: ok, err: err}
	}
}

func (m *Model) useFaucet() tea.Cmd {
	user := m.snap.User
	return func() tea.Msg {
		balance, err := m.faucet.Faucet(m.ctx, user)
		return faucetMsg{balance: balance, err: err}
	}
}

// apply records a snapshot, logging the result the first time a round settles.
func (m *Model) apply(s blackjack.Snapshot) {
	settledNow := s.Outcome != "" && (m.snap.Outcome == "" || m.snap.RoundID != s.RoundID)
	m.snap = s
	m.keys.sync(s)
	if !settledNow {
		return
	}
	m.logger.Debug("Round settled", "round", s.RoundID, "outcome", s.Outcome, "payout", s.Payout)
	switch {
	case s.Payout > s.Bet:
		m.addLog(SuccessStyle.Render(fmt.Sprintf("%s +%d", s.Message, s.Payout)))
	case s.Payout == s.Bet:
		m.addLog(WarningStyle.Render(fmt.Sprintf("%s %d returned", s.Message, s.Payout)))
	default:
		m.addLog(ErrorStyle.Render(fmt.Sprintf("%s -%d", s.Message, s.Bet)))
	}
}

func (m *Model) addLog(line string) {
	m.gameLog = append(m.gameLog, line)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	m.logViewport.GotoBottom()
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		HeaderStyle.Render("DiamondLocks Blackjack"),
		"  ",
		BalanceStyle.Render(fmt.Sprintf("Balance: %d", m.snap.Balance)),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		TableStyle.Render(m.renderTable()),
		LogStyle.Render(m.logViewport.View()),
		m.help.View(m.keys),
	)
}

func (m *Model) renderTable() string {
	s := m.snap
	var b strings.Builder

	dealerLabel := fmt.Sprintf("Dealer (%d)", s.DealerValue)
	if !s.HoleRevealed && len(s.Dealer) > 1 {
		dealerLabel = fmt.Sprintf("Dealer (showing %d)", s.DealerValue)
	}
	b.WriteString(LabelStyle.Render(dealerLabel) + "  " + renderCards(s.Dealer) + "\n")
	b.WriteString(LabelStyle.Render(fmt.Sprintf("You (%d)", s.PlayerValue)) + "  " + renderCards(s.Player) + "\n\n")
	b.WriteString(BalanceStyle.Render(fmt.Sprintf("Bet: %d", s.Bet)) + "  " + m.renderStatus())
	return b.String()
}

func (m *Model) renderStatus() string {
	s := m.snap
	switch s.State {
	case blackjack.Dealing:
		return InfoStyle.Render("Dealing...")
	case blackjack.DealerTurn:
		return InfoStyle.Render("Dealer plays...")
	case blackjack.PlayerTurn:
		return WarningStyle.Render("Hit or stand?")
	case blackjack.Settled:
		if s.Payout > 0 {
			return SuccessStyle.Render(s.Message)
		}
		return ErrorStyle.Render(s.Message)
	default:
		if s.Balance == 0 && s.Bet == 0 {
			return InfoStyle.Render("Out of DiamondLocks, press f")
		}
		return InfoStyle.Render("Place your bet")
	}
}

func renderCards(cards []blackjack.CardView) string {
	if len(cards) == 0 {
		return InfoStyle.Render("-")
	}
	parts := make([]string, len(cards))
	for i, c := range cards {
		switch {
		case c.Hidden:
			parts[i] = HiddenCardStyle.Render("[??]")
		case c.Red:
			parts[i] = RedCardStyle.Render("[" + c.Rank + c.Suit + "]")
		default:
			parts[i] = BlackCardStyle.Render("[" + c.Rank + c.Suit + "]")
		}
	}
	return strings.Join(parts, " ")
}
