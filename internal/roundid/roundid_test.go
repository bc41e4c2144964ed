package roundid

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNew(t *testing.T) {
	t.Parallel()
	id := New()

	if len(id) != Length {
		t.Errorf("expected %d characters, got %d", Length, len(id))
	}
	if err := Validate(id); err != nil {
		t.Errorf("generated ID failed validation: %v", err)
	}
}

func TestNewUniqueAndSorted(t *testing.T) {
	t.Parallel()
	prev := ""
	seen := make(map[string]bool)
	for range 200 {
		id := New()
		if seen[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		seen[id] = true
		// uuid.NewV7 is monotonic within a process
		if prev != "" && strings.Compare(prev, id) >= 0 {
			t.Fatalf("IDs not sorted: %s >= %s", prev, id)
		}
		prev = id
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()
	ids := []uuid.UUID{
		{},
		uuid.Must(uuid.Parse("ffffffff-ffff-ffff-ffff-ffffffffffff")),
		uuid.Must(uuid.Parse("01890a5d-ac96-774b-bcce-b302099a8057")),
		uuid.Must(uuid.NewV7()),
	}
	for _, id := range ids {
		enc := Encode(id)
		if err := Validate(enc); err != nil {
			t.Errorf("Encode(%s) = %s is invalid: %v", id, enc, err)
		}
		back, err := Decode(enc)
		if err != nil {
			t.Fatalf("Decode(%s): %v", enc, err)
		}
		if back != id {
			t.Errorf("round trip %s -> %s -> %s", id, enc, back)
		}
	}

	if got := Encode(uuid.UUID{}); got != strings.Repeat("0", Length) {
		t.Errorf("zero uuid encodes to %s", got)
	}
	if got := Encode(uuid.Must(uuid.Parse("ffffffff-ffff-ffff-ffff-ffffffffffff"))); got != "7"+strings.Repeat("z", Length-1) {
		t.Errorf("max uuid encodes to %s", got)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "valid ID", id: "01h5n0et5q6mt3v7ms1234abcd"},
		{name: "too short", id: "01h5n0et5q6mt3v7ms123", wantErr: true},
		{name: "too long", id: "01h5n0et5q6mt3v7ms1234abcdef", wantErr: true},
		{name: "first char too high", id: "81h5n0et5q6mt3v7ms1234abcd", wantErr: true},
		{name: "invalid character", id: "01h5n0et5q6mt3v7ms1234abci", wantErr: true},
		{name: "uppercase not allowed", id: "01H5N0ET5Q6MT3V7MS1234ABCD", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
