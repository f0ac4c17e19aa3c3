package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"

	// Registers the "sqlite" migration executor.
	_ "github.com/xraph/grove/drivers/sqlitedriver/sqlitemigrate"
)

// Migrations is the grove migration group for the dailymood store (SQLite).
var Migrations = migrate.NewGroup("dailymood")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_dailymood_contracts",
			Version: "20240301000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS dailymood_contracts (
    id         TEXT PRIMARY KEY,
    owner      TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS dailymood_contracts`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_dailymood_allowed",
			Version: "20240301000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS dailymood_allowed (
    id          TEXT PRIMARY KEY,
    contract_id TEXT NOT NULL REFERENCES dailymood_contracts (id) ON DELETE CASCADE,
    address     TEXT NOT NULL,
    seq         INTEGER NOT NULL,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_dailymood_allowed_seq ON dailymood_allowed (contract_id, seq);
CREATE INDEX IF NOT EXISTS idx_dailymood_allowed_address ON dailymood_allowed (contract_id, address, seq);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS dailymood_allowed`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_dailymood_moods",
			Version: "20240301000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS dailymood_moods (
    id          TEXT PRIMARY KEY,
    contract_id TEXT NOT NULL REFERENCES dailymood_contracts (id) ON DELETE CASCADE,
    account     TEXT NOT NULL,
    mood        TEXT NOT NULL DEFAULT '',
    timestamp   INTEGER NOT NULL,
    seq         INTEGER NOT NULL,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_dailymood_moods_log ON dailymood_moods (contract_id, account, seq);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS dailymood_moods`)
				return err
			},
		},
	)
}
