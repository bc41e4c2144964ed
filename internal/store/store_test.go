package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "balance:alice", BalanceKey("alice"))
	assert.Equal(t, "round:alice", RoundKey("alice"))
}

func TestBackends(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backends := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemory() },
		"file": func(t *testing.T) Store {
			s, err := OpenFile(filepath.Join(t.TempDir(), "data"))
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) Store {
			s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "casino.db"))
			require.NoError(t, err)
			return s
		},
		"postgres": func(t *testing.T) Store {
			dsn := os.Getenv("DIAMONDLOCKS_TEST_POSTGRES_DSN")
			if dsn == "" {
				t.Skip("DIAMONDLOCKS_TEST_POSTGRES_DSN not set")
			}
			s, err := OpenPostgres(ctx, dsn)
			require.NoError(t, err)
			return s
		},
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := open(t)
			t.Cleanup(func() { _ = s.Close() })
			runContract(t, s)
		})
	}
}

func runContract(t *testing.T, s Store) {
	ctx := context.Background()
	key := RoundKey(fmt.Sprintf("user/%s:1", t.Name()))

	_, err := s.Get(ctx, key)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, key, []byte(`{"state":"betting"}`)))
	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"state":"betting"}`, string(got))

	require.NoError(t, s.Set(ctx, key, []byte(`{"state":"settled"}`)))
	got, err = s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"state":"settled"}`, string(got))

	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Get(ctx, key)
	require.ErrorIs(t, err, ErrNotFound)

	// deleting an absent key is not an error
	require.NoError(t, s.Delete(ctx, key))

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k := BalanceKey(fmt.Sprintf("%s-%d", t.Name(), i))
			assert.NoError(t, s.Set(ctx, k, []byte(fmt.Sprint(i))))
			v, err := s.Get(ctx, k)
			assert.NoError(t, err)
			assert.Equal(t, fmt.Sprint(i), string(v))
		}()
	}
	wg.Wait()
}

func TestMemoryCopiesValues(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()

	buf := []byte("100")
	require.NoError(t, m.Set(ctx, "k", buf))
	buf[0] = '9'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "100", string(got))

	got[0] = '7'
	again, _ := m.Get(ctx, "k")
	assert.Equal(t, "100", string(again))
	assert.Equal(t, 1, m.Len())
}

func TestOpen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, err := Open(ctx, Options{Driver: DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(ctx, Options{Driver: DriverFile, Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &File{}, s)

	_, err = Open(ctx, Options{Driver: DriverFile})
	assert.Error(t, err)

	_, err = Open(ctx, Options{Driver: DriverPostgres})
	assert.Error(t, err)

	_, err = Open(ctx, Options{Driver: "redis"})
	assert.Error(t, err)
}

func TestFileStoreCancelledContext(t *testing.T) {
	t.Parallel()
	s, err := OpenFile(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Set(ctx, "k", []byte("v")), context.Canceled)
}
