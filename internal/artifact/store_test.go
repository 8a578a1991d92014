package artifact

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Both implementations must satisfy the same contract.
func stores(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	return map[string]Store{
		"mem": NewMemStore(),
		"fs":  fs,
	}
}

func TestStore_WriteReadRoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Write(ctx, "report/summary", []byte("ok")))

			got, err := s.Read(ctx, "report/summary")
			require.NoError(t, err)
			assert.Equal(t, []byte("ok"), got)

			exists, err := s.Exists(ctx, "report/summary")
			require.NoError(t, err)
			assert.True(t, exists)
		})
	}
}

func TestStore_MissingKey(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.Read(ctx, "nope")
			assert.ErrorIs(t, err, ErrNotFound)

			exists, err := s.Exists(ctx, "nope")
			require.NoError(t, err)
			assert.False(t, exists)

			assert.ErrorIs(t, s.Delete(ctx, "nope"), ErrNotFound)
		})
	}
}

func TestStore_OverwriteLastWriteWins(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Write(ctx, "k", []byte("first")))
			require.NoError(t, s.Write(ctx, "k", []byte("second")))

			got, err := s.Read(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, []byte("second"), got)
		})
	}
}

func TestStore_DeleteThenList(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Write(ctx, "b", []byte("2")))
			require.NoError(t, s.Write(ctx, "a", []byte("1")))
			require.NoError(t, s.Write(ctx, "c", []byte("3")))
			require.NoError(t, s.Delete(ctx, "b"))

			keys, err := s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "c"}, keys)
		})
	}
}

func TestStore_ConcurrentWriters(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					key := string(rune('a' + i%5))
					_ = s.Write(ctx, key, []byte{byte(i)})
				}(i)
			}
			wg.Wait()

			keys, err := s.List(ctx)
			require.NoError(t, err)
			assert.Len(t, keys, 5)
		})
	}
}

func TestMemStore_ReadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	require.NoError(t, s.Write(ctx, "k", []byte("abc")))

	got, err := s.Read(ctx, "k")
	require.NoError(t, err)
	got[0] = 'X'

	again, err := s.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again, "callers must not be able to mutate stored values")
}

func TestFSStore_KeyWithPathCharacters(t *testing.T) {
	ctx := context.Background()
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	key := "../escape/../../attempt"
	require.NoError(t, s.Write(ctx, key, []byte("safe")))

	got, err := s.Read(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("safe"), got)

	keys, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)
}
