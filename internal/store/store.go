// Package store is the durable key/value layer behind balances and in-flight
// rounds. Keys are namespaced by username: "balance:<user>" and
// "round:<user>".
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = errors.New("store: key not found")

// Store is a durable key/value map. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

const (
	balancePrefix = "balance:"
	roundPrefix   = "round:"
)

// BalanceKey is the key holding a user's chip balance.
func BalanceKey(user string) string {
	return balancePrefix + user
}

// RoundKey is the key holding a user's serialized blackjack round.
func RoundKey(user string) string {
	return roundPrefix + user
}

// Drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects and configures a backend.
type Options struct {
	Driver string
	// Path is the directory for the file driver or the database file for sqlite.
	Path string
	// DSN is the connection string for postgres.
	DSN string
}

// Open constructs the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(opts.Driver) {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverFile:
		return OpenFile(opts.Path)
	case DriverSQLite:
		return OpenSQLite(ctx, opts.Path)
	case DriverPostgres:
		return OpenPostgres(ctx, opts.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
