package blackjack

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/diamondlocks/internal/roundid"
)

func TestCodecRoundTrip(t *testing.T) {
	t.Parallel()

	idle := Round{}
	betting := Round{State: Betting, Bet: 35}

	dealing := Round{State: Betting, Bet: 10}
	require.NoError(t, dealing.Begin(roundid.New(), stacked("2s3h4d5c6s7h")))
	_, err := dealing.DealNext()
	require.NoError(t, err)

	playerTurn := dealt(t, 10, "2s3h4d5c6s7h8d")
	playerTurn.ID = roundid.New()

	dealerTurn := dealt(t, 10, "Ts6hQd5c4s9h")
	require.NoError(t, dealerTurn.Stand())

	settled := dealt(t, 20, "As9hKd7c2c")

	for name, r := range map[string]Round{
		"idle":        idle,
		"betting":     betting,
		"dealing":     dealing,
		"player turn": playerTurn,
		"dealer turn": dealerTurn,
		"settled":     settled,
	} {
		t.Run(name, func(t *testing.T) {
			data, err := Encode(r)
			require.NoError(t, err)

			got, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, r.ID, got.ID)
			assert.Equal(t, r.State, got.State)
			assert.Equal(t, r.Bet, got.Bet)
			assert.Equal(t, r.Deck.Cards(), got.Deck.Cards(), "deck order")
			assert.Equal(t, r.Player, got.Player)
			assert.Equal(t, r.Dealer, got.Dealer)
			assert.Equal(t, r.HoleRevealed, got.HoleRevealed)
			assert.Equal(t, r.Outcome, got.Outcome)
			assert.Equal(t, r.Payout, got.Payout)
		})
	}
}

func TestEncodeFormat(t *testing.T) {
	t.Parallel()
	r := dealt(t, 20, "As9hKd7c2c")

	data, err := Encode(r)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.EqualValues(t, 1, raw["version"])
	assert.Equal(t, "settled", raw["state"])
	assert.Equal(t, "player_blackjack", raw["outcome"])
	assert.Equal(t, "Blackjack! You win!", raw["message"])
	assert.Equal(t, []any{"As", "Kd"}, raw["player"])
	assert.Equal(t, []any{"9h", "7c"}, raw["dealer"])
	assert.Equal(t, []any{"2c"}, raw["deck"])
}

func TestDecodeRejectsCorruptRecords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"state":`},
		{"wrong version", `{"version":2,"state":"idle","deck":[],"player":[],"dealer":[]}`},
		{"unknown state", `{"version":1,"state":"shuffling","deck":[],"player":[],"dealer":[]}`},
		{"unknown outcome", `{"version":1,"state":"settled","bet":5,"deck":[],"player":["As","Kd"],"dealer":["9h","7c"],"outcome":"jackpot"}`},
		{"bad card", `{"version":1,"state":"player_turn","bet":5,"deck":["Zz"],"player":["As","2d"],"dealer":["9h","7c"]}`},
		{"duplicate card", `{"version":1,"state":"player_turn","bet":5,"deck":["As"],"player":["As","2d"],"dealer":["9h","7c"]}`},
		{"negative bet", `{"version":1,"state":"betting","bet":-5,"deck":[],"player":[],"dealer":[]}`},
		{"player turn without cards", `{"version":1,"state":"player_turn","bet":5,"deck":[],"player":["As"],"dealer":[]}`},
		{"in progress without bet", `{"version":1,"state":"dealer_turn","bet":0,"deck":[],"player":["As","2d"],"dealer":["9h","7c"]}`},
		{"idle holding cards", `{"version":1,"state":"idle","deck":[],"player":["As"],"dealer":[]}`},
		{"settled without outcome", `{"version":1,"state":"settled","bet":5,"deck":[],"player":["As","Kd"],"dealer":["9h","7c"]}`},
		{"payout mismatch", `{"version":1,"state":"settled","bet":5,"deck":[],"player":["As","Kd"],"dealer":["9h","7c"],"outcome":"player_blackjack","payout":500}`},
		{"bad round id", `{"version":1,"id":"nope","state":"player_turn","bet":5,"deck":[],"player":["As","2d"],"dealer":["9h","7c"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			assert.ErrorIs(t, err, ErrCorruptState)
		})
	}
}
