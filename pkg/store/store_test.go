package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]StateStore {
	t.Helper()
	out := map[string]StateStore{}
	for _, name := range []string{BackendMemory, BackendPebble, BackendSQLite} {
		s, err := Open(name)
		require.NoError(t, err, name)
		t.Cleanup(func() { _ = s.Close() })
		out[name] = s
	}
	return out
}

func TestStoreEmptyListIsNotNil(t *testing.T) {
	for name, s := range backends(t) {
		got, err := s.List()
		require.NoError(t, err, name)
		require.NotNil(t, got, name)
		require.Empty(t, got, name)
	}
}

func TestStorePreservesInsertionOrderAndDuplicates(t *testing.T) {
	in := []string{"a", "b", "a", "  padded  ", "", "ünïcode"}
	for name, s := range backends(t) {
		for _, p := range in {
			require.NoError(t, s.Create(p), name)
		}
		got, err := s.List()
		require.NoError(t, err, name)
		require.Equal(t, in, got, name)
	}
}

func TestStoreListIsSnapshot(t *testing.T) {
	for name, s := range backends(t) {
		require.NoError(t, s.Create("first"), name)
		snap, err := s.List()
		require.NoError(t, err, name)

		snap[0] = "mutated"
		require.NoError(t, s.Create("second"), name)

		require.Equal(t, []string{"mutated"}, snap, name)
		again, err := s.List()
		require.NoError(t, err, name)
		require.Equal(t, []string{"first", "second"}, again, name)
	}
}

func TestStoreClosed(t *testing.T) {
	for name, s := range backends(t) {
		require.NoError(t, s.Close(), name)
		require.ErrorIs(t, s.Create("x"), ErrClosed, name)
		_, err := s.List()
		require.ErrorIs(t, err, ErrClosed, name)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("redis")
	require.Error(t, err)
}

func TestSQLiteStoresAreIsolated(t *testing.T) {
	a, err := OpenSQLite()
	require.NoError(t, err)
	defer a.Close()
	b, err := OpenSQLite()
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Create("only-in-a"))
	got, err := b.List()
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestMsgKeySortsNumerically(t *testing.T) {
	require.Less(t, string(MsgKey(9)), string(MsgKey(10)))
	require.Less(t, string(MsgKey(10)), string(msgUpper))
}
