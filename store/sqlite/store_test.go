package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"

	"github.com/xraph/dailymood/store"
	"github.com/xraph/dailymood/store/sqlite"
	"github.com/xraph/dailymood/store/storetest"
)

func openFile(t *testing.T, path string) *sqlite.Store {
	t.Helper()
	ctx := context.Background()

	drv := sqlitedriver.New()
	require.NoError(t, drv.Open(ctx, path))
	db, err := grove.Open(drv)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := sqlite.New(db)
	require.NoError(t, s.Migrate(ctx))
	return s
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return openFile(t, filepath.Join(t.TempDir(), "dailymood.db"))
	})
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openFile(t, filepath.Join(t.TempDir(), "dailymood.db"))

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Ping(ctx))
}
