package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xraph/dailymood"
	"github.com/xraph/dailymood/store"
	"github.com/xraph/dailymood/store/memory"
	"github.com/xraph/dailymood/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return memory.New()
	})
}

func TestPingAfterClose(t *testing.T) {
	s := memory.New()
	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Close())
	require.ErrorIs(t, s.Ping(context.Background()), dailymood.ErrStoreClosed)
}
