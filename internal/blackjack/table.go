package blackjack

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/diamondlocks/internal/deck"
	"github.com/lox/diamondlocks/internal/ledger"
	"github.com/lox/diamondlocks/internal/randutil"
	"github.com/lox/diamondlocks/internal/roundid"
	"github.com/lox/diamondlocks/internal/store"
)

// stepFunc advances a round by one paced step, reporting true when done.
type stepFunc func(*Round) (bool, error)

// sequence is a paced run of steps executing on its own goroutine.
type sequence struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Table runs blackjack rounds for a single user. Actions are serialized; while
// the deal or the dealer's turn is playing out the table is busy and every
// action except Reset fails with ErrBusy.
type Table struct {
	user   string
	ledger *ledger.Ledger
	store  store.Store
	logger *log.Logger

	clock       quartz.Clock
	newDeck     func() deck.Deck
	newID       func() string
	dealDelay   time.Duration
	dealerDelay time.Duration
	chips       []int

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	round   Round
	balance int
	busy    bool
	closed  bool
	seq     *sequence

	// notifyMu keeps subscriber deliveries in mutation order. It is always
	// taken while holding mu, never the other way round.
	notifyMu sync.Mutex
	subsMu   sync.Mutex
	subs     map[int]func(Snapshot)
	nextSub  int
}

// Open restores the user's table from s. A persisted round that cannot be
// decoded is deleted and the table starts Idle. A round persisted mid-deal or
// mid dealer turn resumes from its stored deck.
func Open(ctx context.Context, user string, l *ledger.Ledger, s store.Store, logger *log.Logger, opts ...Option) (*Table, error) {
	if user == "" {
		return nil, ledger.ErrInvalidUser
	}
	rng := randutil.NewSecure()
	t := &Table{
		user:    user,
		ledger:  l,
		store:   s,
		logger:  logger.WithPrefix("blackjack").With("user", user),
		clock:   quartz.NewReal(),
		newDeck: func() deck.Deck { return deck.New(rng) },
		newID:   roundid.New,
		chips:   append([]int(nil), DefaultChips...),
		subs:    make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(t)
	}

	balance, err := l.Balance(ctx, user)
	if err != nil {
		return nil, err
	}
	round, err := t.restore(ctx)
	if err != nil {
		return nil, err
	}

	t.ctx, t.cancel = context.WithCancel(context.Background())
	t.balance = balance
	t.round = round

	t.mu.Lock()
	defer t.mu.Unlock()
	switch round.State {
	case Dealing:
		t.logger.Info("Resuming deal", "round", round.ID)
		t.runLocked((*Round).DealNext, t.dealDelay)
	case DealerTurn:
		t.logger.Info("Resuming dealer turn", "round", round.ID)
		t.runLocked((*Round).DealerStep, t.dealerDelay)
	}
	return t, nil
}

func (t *Table) restore(ctx context.Context) (Round, error) {
	key := store.RoundKey(t.user)
	raw, err := t.store.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return Round{}, nil
	}
	if err != nil {
		return Round{}, fmt.Errorf("load round: %w", err)
	}
	r, err := Decode(raw)
	if err != nil {
		t.logger.Warn("Discarding unreadable round", "error", err)
		if err := t.store.Delete(ctx, key); err != nil {
			return Round{}, fmt.Errorf("discard corrupt round: %w", err)
		}
		return Round{}, nil
	}
	return r, nil
}

// User returns the table owner.
func (t *Table) User() string {
	return t.user
}

// Snapshot returns the current public state with a freshly read balance.
func (t *Table) Snapshot(ctx context.Context) (Snapshot, error) {
	balance, err := t.ledger.Balance(ctx, t.user)
	if err != nil {
		return Snapshot{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balance = balance
	return t.viewLocked(), nil
}

// Refresh re-reads the balance after it changed outside the table (faucet,
// coin flip) and pushes the result to subscribers.
func (t *Table) Refresh(ctx context.Context) (Snapshot, error) {
	balance, err := t.ledger.Balance(ctx, t.user)
	if err != nil {
		return Snapshot{}, err
	}
	t.mu.Lock()
	t.balance = balance
	return t.unlockAndNotify(), nil
}

// Subscribe registers fn to receive every snapshot change, including each
// paced step. fn runs synchronously and must not call back into the table.
func (t *Table) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	t.subsMu.Lock()
	defer t.subsMu.Unlock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn
	return func() {
		t.subsMu.Lock()
		defer t.subsMu.Unlock()
		delete(t.subs, id)
	}
}

// AddChip adds a chip to the pending bet. It reports false without an error
// when the chip is not offered or the bet would exceed the balance.
func (t *Table) AddChip(ctx context.Context, value int) (Snapshot, bool, error) {
	t.mu.Lock()
	if err := t.guardLocked(); err != nil {
		return t.unlockErr(err), false, err
	}
	if !slices.Contains(t.chips, value) {
		snap := t.viewLocked()
		t.mu.Unlock()
		return snap, false, nil
	}
	balance, err := t.ledger.Balance(ctx, t.user)
	if err != nil {
		return t.unlockErr(err), false, err
	}
	t.balance = balance

	ok, err := t.round.AddChip(value, balance)
	if err != nil || !ok {
		snap := t.viewLocked()
		t.mu.Unlock()
		return snap, false, err
	}
	t.persistLocked()
	return t.unlockAndNotify(), true, nil
}

// ClearBet drops the pending bet to zero.
func (t *Table) ClearBet(ctx context.Context) (Snapshot, error) {
	t.mu.Lock()
	if err := t.guardLocked(); err != nil {
		return t.unlockErr(err), err
	}
	if err := t.round.ClearBet(); err != nil {
		return t.unlockErr(err), err
	}
	if t.round.State == Betting {
		t.persistLocked()
	}
	return t.unlockAndNotify(), nil
}

// StartGame debits the pending bet and deals. The debit is persisted by the
// ledger before a deck is built, so an interrupted deal never hands out a
// free round. Insufficient funds surface as ErrInvalidBet.
func (t *Table) StartGame(ctx context.Context) (Snapshot, error) {
	t.mu.Lock()
	if err := t.guardLocked(); err != nil {
		return t.unlockErr(err), err
	}
	if t.round.State != Idle && t.round.State != Betting {
		return t.unlockErr(ErrInvalidAction), ErrInvalidAction
	}
	bet := t.round.Bet
	if bet <= 0 {
		return t.unlockErr(ErrInvalidBet), ErrInvalidBet
	}

	balance, err := t.ledger.Debit(ctx, t.user, bet)
	if errors.Is(err, ledger.ErrInsufficientFunds) {
		err = fmt.Errorf("%w: %w", ErrInvalidBet, err)
		return t.unlockErr(err), err
	}
	if err != nil {
		err = fmt.Errorf("debit bet: %w", err)
		return t.unlockErr(err), err
	}
	t.balance = balance

	if err := t.round.Begin(t.newID(), t.newDeck()); err != nil {
		if refunded, cerr := t.ledger.Credit(ctx, t.user, bet); cerr == nil {
			t.balance = refunded
		} else {
			t.logger.Error("Failed to refund bet", "bet", bet, "error", cerr)
		}
		return t.unlockErr(err), err
	}
	t.logger.Info("Round started", "round", t.round.ID, "bet", bet, "balance", balance)
	t.persistLocked()
	t.runLocked((*Round).DealNext, t.dealDelay)
	return t.unlockAndNotify(), nil
}

// Hit draws a card for the player. On an empty deck it returns
// ErrDeckExhausted and the round can only be reset.
func (t *Table) Hit(ctx context.Context) (Snapshot, error) {
	t.mu.Lock()
	if err := t.guardLocked(); err != nil {
		return t.unlockErr(err), err
	}
	prev := t.round.State
	if err := t.round.Hit(); err != nil {
		return t.unlockErr(err), err
	}
	t.afterLocked(prev)
	if t.round.State == DealerTurn {
		t.runLocked((*Round).DealerStep, t.dealerDelay)
	}
	return t.unlockAndNotify(), nil
}

// Stand ends the player's turn and plays the dealer out.
func (t *Table) Stand(ctx context.Context) (Snapshot, error) {
	t.mu.Lock()
	if err := t.guardLocked(); err != nil {
		return t.unlockErr(err), err
	}
	prev := t.round.State
	if err := t.round.Stand(); err != nil {
		return t.unlockErr(err), err
	}
	t.afterLocked(prev)
	t.runLocked((*Round).DealerStep, t.dealerDelay)
	return t.unlockAndNotify(), nil
}

// Reset returns the table to Idle. It is accepted in every state: a running
// sequence is cancelled first, and a bet already debited for an unfinished
// round is forfeited.
func (t *Table) Reset(ctx context.Context) (Snapshot, error) {
	t.mu.Lock()
	if t.closed {
		return t.unlockErr(ErrClosed), ErrClosed
	}
	for t.seq != nil {
		seq := t.seq
		t.seq = nil
		seq.cancel()
		t.mu.Unlock()
		<-seq.done
		t.mu.Lock()
	}
	if t.round.State.InProgress() {
		t.logger.Warn("Round abandoned, bet forfeited", "round", t.round.ID, "state", t.round.State, "bet", t.round.Bet)
	}
	t.busy = false
	t.round.Reset()
	if err := t.store.Delete(ctx, store.RoundKey(t.user)); err != nil {
		t.logger.Error("Failed to delete round", "error", err)
	}
	return t.unlockAndNotify(), nil
}

// Wait blocks until no paced sequence is running.
func (t *Table) Wait(ctx context.Context) error {
	for {
		t.mu.Lock()
		seq := t.seq
		t.mu.Unlock()
		if seq == nil {
			return nil
		}
		select {
		case <-seq.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops any running sequence and detaches subscribers. The persisted
// round is kept so a later Open resumes it.
func (t *Table) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	seq := t.seq
	t.seq = nil
	t.cancel()
	t.mu.Unlock()

	if seq != nil {
		<-seq.done
	}
	t.subsMu.Lock()
	clear(t.subs)
	t.subsMu.Unlock()
	return nil
}

func (t *Table) guardLocked() error {
	switch {
	case t.closed:
		return ErrClosed
	case t.busy:
		return ErrBusy
	}
	return nil
}

// runLocked plays step until it reports done. With no delay the steps run
// before returning; otherwise they run on a goroutine, one per delay, and the
// table is busy until the last one.
func (t *Table) runLocked(step stepFunc, delay time.Duration) {
	if delay <= 0 {
		for !t.stepLocked(step) {
		}
		return
	}
	ctx, cancel := context.WithCancel(t.ctx)
	seq := &sequence{cancel: cancel, done: make(chan struct{})}
	t.seq = seq
	t.busy = true
	go t.play(ctx, seq, step, delay)
}

func (t *Table) play(ctx context.Context, seq *sequence, step stepFunc, delay time.Duration) {
	defer func() {
		t.mu.Lock()
		if t.seq == seq {
			t.seq = nil
		}
		t.mu.Unlock()
		close(seq.done)
	}()
	for {
		if !t.pause(ctx, delay) {
			return
		}
		t.mu.Lock()
		// a cancelled sequence must not touch the round
		if ctx.Err() != nil {
			t.mu.Unlock()
			return
		}
		finished := t.stepLocked(step)
		if finished {
			t.busy = false
			seq.cancel()
		}
		t.unlockAndNotify()
		if finished {
			return
		}
	}
}

func (t *Table) pause(ctx context.Context, d time.Duration) bool {
	fired := make(chan struct{})
	timer := t.clock.AfterFunc(d, func() {
		close(fired)
	})
	defer timer.Stop()

	select {
	case <-fired:
		return true
	case <-ctx.Done():
		return false
	}
}

// stepLocked applies one step and reports whether the sequence is over.
func (t *Table) stepLocked(step stepFunc) bool {
	prev := t.round.State
	done, err := step(&t.round)
	if err != nil {
		t.logger.Error("Round step failed, reset required", "round", t.round.ID, "state", t.round.State, "error", err)
		return true
	}
	t.afterLocked(prev)
	return done
}

// afterLocked persists the round and pays out a round that just settled.
// The settled round is stored before the credit and a restored Settled round
// is never paid, so a payout happens at most once.
func (t *Table) afterLocked(prev State) {
	persisted := t.persistLocked()
	if prev == Settled || t.round.State != Settled {
		return
	}
	r := &t.round
	t.logger.Info("Round settled", "round", r.ID, "outcome", r.Outcome, "bet", r.Bet, "payout", r.Payout,
		"player", r.Player.Value(), "dealer", r.Dealer.Value())
	if r.Payout == 0 {
		return
	}
	if !persisted {
		t.logger.Error("Payout withheld, settled round was not persisted", "round", r.ID, "payout", r.Payout)
		return
	}
	balance, err := t.ledger.Credit(t.ctx, t.user, r.Payout)
	if err != nil {
		t.logger.Error("Payout failed", "round", r.ID, "payout", r.Payout, "error", err)
		return
	}
	t.balance = balance
}

func (t *Table) persistLocked() bool {
	data, err := Encode(t.round)
	if err == nil {
		err = t.store.Set(t.ctx, store.RoundKey(t.user), data)
	}
	if err != nil {
		t.logger.Error("Failed to persist round", "round", t.round.ID, "state", t.round.State, "error", err)
		return false
	}
	return true
}

func (t *Table) viewLocked() Snapshot {
	return t.round.View(t.user, t.balance, t.busy, t.chips)
}

func (t *Table) unlockErr(err error) Snapshot {
	snap := t.viewLocked()
	t.mu.Unlock()
	t.logger.Debug("Action rejected", "state", snap.State, "error", err)
	return snap
}

// unlockAndNotify releases mu and hands the resulting snapshot to every
// subscriber.
func (t *Table) unlockAndNotify() Snapshot {
	snap := t.viewLocked()
	t.notifyMu.Lock()
	t.mu.Unlock()
	defer t.notifyMu.Unlock()

	t.subsMu.Lock()
	subs := make([]func(Snapshot), 0, len(t.subs))
	for _, fn := range t.subs {
		subs = append(subs, fn)
	}
	t.subsMu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return snap
}
