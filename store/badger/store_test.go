package badger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xraph/dailymood"
	"github.com/xraph/dailymood/store"
	"github.com/xraph/dailymood/store/badger"
	"github.com/xraph/dailymood/store/storetest"
)

func openMemory(t *testing.T) *badger.Store {
	t.Helper()

	s, err := badger.Open("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return openMemory(t)
	})
}

func TestStoreOnDisk(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := badger.Open(t.TempDir(), nil, badger.WithSyncWrites(false))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestClosedStore(t *testing.T) {
	s, err := badger.Open("", nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.ErrorIs(t, s.Ping(context.Background()), dailymood.ErrStoreClosed)
	require.NoError(t, s.Close(), "second close is a no-op")
}
