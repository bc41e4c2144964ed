// Package blackjack implements a single-deck, single-hand blackjack round.
//
// Round is the pure state value: every transition is a method that either
// mutates the round or returns an error and leaves it untouched. Table wraps
// a Round for one user and adds the ledger, persistence, pacing and the busy
// guard.
//
// # Round lifecycle
//
//	Idle -> Betting      AddChip / ClearBet
//	Betting -> Dealing   StartGame (bet debited before any card exists)
//	Dealing -> PlayerTurn or Settled (player blackjack)
//	PlayerTurn -> Settled (bust) or DealerTurn (Stand, or Hit to 21)
//	DealerTurn -> Settled
//	any -> Idle          Reset
//
// # Deterministic Testing
//
// Tables take an explicit random source and clock:
//
//	tbl, err := blackjack.Open(ctx, "alice", ledger, store,
//	    blackjack.WithRand(randutil.New(42)),
//	    blackjack.WithClock(quartz.NewMock(t)))
//
// A pre-arranged deck can be injected with WithDeckFactory.
package blackjack
