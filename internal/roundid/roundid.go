// Package roundid generates blackjack round identifiers: UUIDv7 values
// encoded as 26-character lowercase Crockford base32, which sort by creation
// time.
package roundid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Crockford's base32 alphabet, lowercase
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length of an encoded id
const Length = 26

// New returns a fresh time-ordered round id.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("failed to generate round id: " + err.Error())
	}
	return Encode(id)
}

// Encode renders a UUID as 26 base32 characters. The 128 bits are treated as a
// 130-bit number with two leading zero bits, so the first character is 0-7.
func Encode(id uuid.UUID) string {
	var out [Length]byte
	for i := range out {
		var v byte
		for b := range 5 {
			v = v<<1 | bitAt(id, i*5-2+b)
		}
		out[i] = alphabet[v]
	}
	return string(out[:])
}

// Decode parses an encoded id back into its UUID.
func Decode(s string) (uuid.UUID, error) {
	if err := Validate(s); err != nil {
		return uuid.UUID{}, err
	}
	var id uuid.UUID
	for i := range Length {
		v := byte(strings.IndexByte(alphabet, s[i]))
		for b := range 5 {
			pos := i*5 - 2 + b
			if pos < 0 {
				continue
			}
			if v&(1<<(4-b)) != 0 {
				id[pos/8] |= 1 << (7 - pos%8)
			}
		}
	}
	return id, nil
}

// Validate checks that s is 26 characters of the lowercase alphabet and fits
// in 128 bits.
func Validate(s string) error {
	if len(s) != Length {
		return fmt.Errorf("round id must be exactly %d characters, got %d", Length, len(s))
	}
	if s[0] > '7' {
		return fmt.Errorf("round id first character must be 0-7, got %c", s[0])
	}
	for i := range len(s) {
		if strings.IndexByte(alphabet, s[i]) < 0 {
			return fmt.Errorf("invalid character %c at position %d", s[i], i)
		}
	}
	return nil
}

func bitAt(id uuid.UUID, pos int) byte {
	if pos < 0 {
		return 0
	}
	return (id[pos/8] >> (7 - pos%8)) & 1
}
