// Package casino ties the games to one store and ledger. It keeps a blackjack
// table per connected user and routes balance changes made outside a table
// back to it.
package casino

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/diamondlocks/internal/blackjack"
	"github.com/lox/diamondlocks/internal/coinflip"
	"github.com/lox/diamondlocks/internal/config"
	"github.com/lox/diamondlocks/internal/ledger"
	"github.com/lox/diamondlocks/internal/randutil"
	"github.com/lox/diamondlocks/internal/store"
)

var ErrClosed = errors.New("casino is closed")

var userPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,32}$`)

// ValidateUser checks a username: 1 to 32 letters, digits, '_', '.' or '-'.
func ValidateUser(user string) error {
	if !userPattern.MatchString(user) {
		return fmt.Errorf("%w: %q", ledger.ErrInvalidUser, user)
	}
	return nil
}

// Option configures a Service.
type Option func(*Service)

// WithClock paces blackjack tables and coin flips.
func WithClock(clock quartz.Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// WithSeed makes every shuffle and flip reproducible.
func WithSeed(seed int64) Option {
	return func(s *Service) { s.rng = randutil.NewLocked(randutil.New(seed)) }
}

// WithTableOptions appends options applied to every table after the
// configured ones.
func WithTableOptions(opts ...blackjack.Option) Option {
	return func(s *Service) { s.extraTableOpts = append(s.extraTableOpts, opts...) }
}

// Service is the entry point for every game action.
type Service struct {
	store  store.Store
	ledger *ledger.Ledger
	coins  *coinflip.Game
	cfg    *config.Config
	logger *log.Logger
	clock  quartz.Clock
	rng    *randutil.Locked

	extraTableOpts []blackjack.Option

	mu     sync.Mutex
	tables map[string]*blackjack.Table
	closed bool
}

// New creates a service over s. The service owns s and closes it.
func New(s store.Store, cfg *config.Config, logger *log.Logger, opts ...Option) *Service {
	svc := &Service{
		store:  s,
		cfg:    cfg,
		logger: logger.WithPrefix("casino"),
		clock:  quartz.NewReal(),
		tables: make(map[string]*blackjack.Table),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.rng == nil {
		svc.rng = randutil.NewLocked(randutil.NewSecure())
	}
	svc.ledger = ledger.New(s, logger, ledger.WithStartingBalance(cfg.Blackjack.StartingBalance))
	svc.coins = coinflip.New(svc.ledger, logger,
		coinflip.WithClock(svc.clock),
		coinflip.WithRand(svc.rng),
		coinflip.WithDelay(cfg.CoinFlip.Delay()))
	return svc
}

// Ledger exposes the balance ledger.
func (s *Service) Ledger() *ledger.Ledger {
	return s.ledger
}

// Table returns the user's blackjack table, opening or restoring it on first
// use.
func (s *Service) Table(ctx context.Context, user string) (*blackjack.Table, error) {
	if err := ValidateUser(user); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if tbl, ok := s.tables[user]; ok {
		return tbl, nil
	}

	opts := []blackjack.Option{
		blackjack.WithClock(s.clock),
		blackjack.WithRand(s.rng),
		blackjack.WithChips(s.cfg.Blackjack.Chips),
		blackjack.WithDealDelay(s.cfg.Blackjack.DealDelay()),
		blackjack.WithDealerDelay(s.cfg.Blackjack.DealerDelay()),
	}
	tbl, err := blackjack.Open(ctx, user, s.ledger, s.store, s.logger, append(opts, s.extraTableOpts...)...)
	if err != nil {
		return nil, fmt.Errorf("open table for %s: %w", user, err)
	}
	s.tables[user] = tbl
	s.logger.Info("Table opened", "user", user, "tables", len(s.tables))
	return tbl, nil
}

// Leave closes the user's table. A round in progress stays persisted and
// resumes on the next Table call.
func (s *Service) Leave(user string) error {
	s.mu.Lock()
	tbl, ok := s.tables[user]
	delete(s.tables, user)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	s.logger.Info("Table closed", "user", user)
	return tbl.Close()
}

// Balance returns the user's balance.
func (s *Service) Balance(ctx context.Context, user string) (int, error) {
	if err := ValidateUser(user); err != nil {
		return 0, err
	}
	return s.ledger.Balance(ctx, user)
}

// Faucet credits the development "+1" and returns the new balance.
func (s *Service) Faucet(ctx context.Context, user string) (int, error) {
	if err := ValidateUser(user); err != nil {
		return 0, err
	}
	balance, err := s.ledger.Faucet(ctx, user)
	if err != nil {
		return 0, err
	}
	s.refresh(ctx, user)
	return balance, nil
}

// CoinFlip plays one flip, blocking for the configured spin.
func (s *Service) CoinFlip(ctx context.Context, user string, bet int, choice string) (coinflip.Result, error) {
	if err := ValidateUser(user); err != nil {
		return coinflip.Result{}, err
	}
	res, err := s.coins.Flip(ctx, user, bet, choice)
	// the stake may have moved even when the flip failed
	s.refresh(context.WithoutCancel(ctx), user)
	return res, err
}

func (s *Service) refresh(ctx context.Context, user string) {
	s.mu.Lock()
	tbl, ok := s.tables[user]
	s.mu.Unlock()
	if !ok {
		return
	}
	if _, err := tbl.Refresh(ctx); err != nil {
		s.logger.Warn("Failed to refresh table balance", "user", user, "error", err)
	}
}

// Close closes every table and then the store.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	tables := s.tables
	s.tables = make(map[string]*blackjack.Table)
	s.mu.Unlock()

	var errs []error
	for _, tbl := range tables {
		errs = append(errs, tbl.Close())
	}
	errs = append(errs, s.store.Close())
	return errors.Join(errs...)
}
