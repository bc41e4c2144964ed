// Package ledger owns every chip balance. Each read-modify-write for a user
// runs under that user's lock and is persisted before the call returns;
// different users never contend.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/diamondlocks/internal/store"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInvalidUser       = errors.New("username is required")
)

// FaucetAmount is what one faucet press credits.
const FaucetAmount = 1

// Ledger debits and credits per-user balances held in a store.Store.
type Ledger struct {
	store           store.Store
	logger          *log.Logger
	startingBalance int

	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithStartingBalance sets the balance reported for users with no record.
func WithStartingBalance(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.startingBalance = n
		}
	}
}

// New creates a ledger over s.
func New(s store.Store, logger *log.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		store:  s,
		logger: logger.WithPrefix("ledger"),
		locks:  make(map[string]*userLock),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Balance returns the user's current balance. A missing record reads as the
// starting balance; an unreadable one reads as 0.
func (l *Ledger) Balance(ctx context.Context, user string) (int, error) {
	if user == "" {
		return 0, ErrInvalidUser
	}
	unlock := l.lock(user)
	defer unlock()
	return l.read(ctx, user)
}

// Debit removes amount from the user's balance, failing with
// ErrInsufficientFunds if the balance is smaller. It returns the new balance.
func (l *Ledger) Debit(ctx context.Context, user string, amount int) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return l.update(ctx, user, func(balance int) (int, error) {
		if amount > balance {
			return 0, fmt.Errorf("%w: balance %d, need %d", ErrInsufficientFunds, balance, amount)
		}
		return balance - amount, nil
	})
}

// Credit adds amount to the user's balance and returns the new balance.
func (l *Ledger) Credit(ctx context.Context, user string, amount int) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return l.update(ctx, user, func(balance int) (int, error) {
		return balance + amount, nil
	})
}

// Faucet credits FaucetAmount, the development "+1" button.
func (l *Ledger) Faucet(ctx context.Context, user string) (int, error) {
	return l.Credit(ctx, user, FaucetAmount)
}

func (l *Ledger) update(ctx context.Context, user string, fn func(int) (int, error)) (int, error) {
	if user == "" {
		return 0, ErrInvalidUser
	}
	unlock := l.lock(user)
	defer unlock()

	current, err := l.read(ctx, user)
	if err != nil {
		return 0, err
	}
	next, err := fn(current)
	if err != nil {
		return 0, err
	}
	if err := l.store.Set(ctx, store.BalanceKey(user), []byte(strconv.Itoa(next))); err != nil {
		return 0, fmt.Errorf("persist balance for %s: %w", user, err)
	}
	l.logger.Debug("Balance updated", "user", user, "from", current, "to", next)
	return next, nil
}

func (l *Ledger) read(ctx context.Context, user string) (int, error) {
	raw, err := l.store.Get(ctx, store.BalanceKey(user))
	if errors.Is(err, store.ErrNotFound) {
		return l.startingBalance, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load balance for %s: %w", user, err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || n < 0 {
		l.logger.Warn("Unreadable balance record, treating as 0", "user", user, "raw", string(raw))
		return 0, nil
	}
	return n, nil
}

// lock acquires the per-user mutex, creating it on first use and dropping it
// once no caller holds a reference.
func (l *Ledger) lock(user string) func() {
	l.mu.Lock()
	ul, ok := l.locks[user]
	if !ok {
		ul = &userLock{}
		l.locks[user] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()
	return func() {
		ul.mu.Unlock()
		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.locks, user)
		}
		l.mu.Unlock()
	}
}
