package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/lox/diamondlocks/internal/blackjack"
)

type keyMap struct {
	Chips  []key.Binding
	Clear  key.Binding
	Deal   key.Binding
	Hit    key.Binding
	Stand  key.Binding
	Again  key.Binding
	Faucet key.Binding
	Quit   key.Binding
}

func newKeyMap(chips []int) keyMap {
	km := keyMap{
		Clear:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear bet")),
		Deal:   key.NewBinding(key.WithKeys("d", "enter"), key.WithHelp("d", "deal")),
		Hit:    key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "hit")),
		Stand:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stand")),
		Again:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new round")),
		Faucet: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "+1")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
	// number keys 1..9 place the configured chips in order
	for i, chip := range chips {
		if i >= 9 {
			break
		}
		k := fmt.Sprint(i + 1)
		km.Chips = append(km.Chips, key.NewBinding(key.WithKeys(k), key.WithHelp(k, fmt.Sprintf("+%d", chip))))
	}
	return km
}

// sync enables exactly the bindings the snapshot allows.
func (k *keyMap) sync(s blackjack.Snapshot) {
	canBet := s.CanBet()
	for i := range k.Chips {
		k.Chips[i].SetEnabled(canBet)
	}
	k.Clear.SetEnabled(canBet && s.Bet > 0)
	k.Deal.SetEnabled(canBet && s.Bet > 0)
	k.Hit.SetEnabled(s.CanAct())
	k.Stand.SetEnabled(s.CanAct())
	k.Again.SetEnabled(s.State == blackjack.Settled || s.State.InProgress())
}

func (k keyMap) ShortHelp() []key.Binding {
	bindings := append([]key.Binding{}, k.Chips...)
	return append(bindings, k.Clear, k.Deal, k.Hit, k.Stand, k.Again, k.Faucet, k.Quit)
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		k.Chips,
		{k.Clear, k.Deal, k.Hit, k.Stand},
		{k.Again, k.Faucet, k.Quit},
	}
}
