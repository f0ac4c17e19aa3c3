package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/dailymood"
	"github.com/xraph/dailymood/allowlist"
	"github.com/xraph/dailymood/deployment"
	"github.com/xraph/dailymood/id"
	"github.com/xraph/dailymood/mood"
	dmstore "github.com/xraph/dailymood/store"
	"github.com/xraph/dailymood/types"
)

// compile-time interface check
var _ dmstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
//
// Positional operations select the row at an offset in seq order and then
// mutate it by primary key. The engine serialises writers, so the two
// statements observe the same log.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("dailymood/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("dailymood/sqlite: %w: %w", dailymood.ErrMigrationFailed, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Deployment Store ====================

func (s *Store) CreateDeployment(ctx context.Context, d *deployment.Deployment, seed []*allowlist.Member) error {
	if _, err := s.sdb.NewInsert(toContractModel(d)).Exec(ctx); err != nil {
		return fmt.Errorf("dailymood/sqlite: create deployment: %w", err)
	}
	if len(seed) == 0 {
		return nil
	}
	models := make([]memberModel, len(seed))
	for i, m := range seed {
		models[i] = *toMemberModel(m)
	}
	if _, err := s.sdb.NewInsert(&models).Exec(ctx); err != nil {
		return fmt.Errorf("dailymood/sqlite: seed allowlist: %w", err)
	}
	return nil
}

func (s *Store) GetDeployment(ctx context.Context, contractID id.ContractID) (*deployment.Deployment, error) {
	m := new(contractModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", contractID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, dailymood.ErrContractNotFound
		}
		return nil, err
	}
	return fromContractModel(m)
}

func (s *Store) SetOwner(ctx context.Context, contractID id.ContractID, owner types.Address, at time.Time) error {
	res, err := s.sdb.NewUpdate((*contractModel)(nil)).
		Set("owner = ?", types.AddressKey(owner)).
		Set("updated_at = ?", at.UTC()).
		Where("id = ?", contractID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return dailymood.ErrContractNotFound
	}
	return nil
}

func (s *Store) requireContract(ctx context.Context, contractID id.ContractID) error {
	_, err := s.GetDeployment(ctx, contractID)
	return err
}

// ==================== Allowlist Store ====================

func (s *Store) AppendMember(ctx context.Context, m *allowlist.Member) error {
	if err := s.requireContract(ctx, m.ContractID); err != nil {
		return err
	}
	_, err := s.sdb.NewInsert(toMemberModel(m)).Exec(ctx)
	return err
}

func (s *Store) RemoveFirstMember(ctx context.Context, contractID id.ContractID, addr types.Address) (bool, error) {
	m := new(memberModel)
	err := s.sdb.NewSelect(m).
		Where("contract_id = ?", contractID.String()).
		Where("address = ?", types.AddressKey(addr)).
		OrderExpr("seq ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, err
	}

	res, err := s.sdb.NewDelete((*memberModel)(nil)).
		Where("id = ?", m.ID).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (s *Store) ListMembers(ctx context.Context, contractID id.ContractID) ([]*allowlist.Member, error) {
	var models []memberModel
	err := s.sdb.NewSelect(&models).
		Where("contract_id = ?", contractID.String()).
		OrderExpr("seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*allowlist.Member, len(models))
	for i := range models {
		m, err := fromMemberModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = m
	}
	return result, nil
}

func (s *Store) CountMembers(ctx context.Context, contractID id.ContractID) (int, error) {
	var n int
	err := s.sdb.NewRaw(`SELECT COUNT(*) FROM dailymood_allowed WHERE contract_id = ?`,
		contractID.String()).Scan(ctx, &n)
	return n, err
}

func (s *Store) LastMemberSeq(ctx context.Context, contractID id.ContractID) (int64, error) {
	var seq int64
	err := s.sdb.NewRaw(`SELECT COALESCE(MAX(seq), 0) FROM dailymood_allowed WHERE contract_id = ?`,
		contractID.String()).Scan(ctx, &seq)
	return seq, err
}

// ==================== Mood Store ====================

func (s *Store) AppendEntry(ctx context.Context, e *mood.Entry) error {
	if err := s.requireContract(ctx, e.ContractID); err != nil {
		return err
	}
	_, err := s.sdb.NewInsert(toMoodModel(e)).Exec(ctx)
	return err
}

func (s *Store) CountEntries(ctx context.Context, contractID id.ContractID, account types.Address) (int, error) {
	var n int
	err := s.sdb.NewRaw(`SELECT COUNT(*) FROM dailymood_moods WHERE contract_id = ? AND account = ?`,
		contractID.String(), types.AddressKey(account)).Scan(ctx, &n)
	return n, err
}

func (s *Store) EntryAt(ctx context.Context, contractID id.ContractID, account types.Address, index int) (*mood.Entry, error) {
	m, err := s.moodAt(ctx, contractID, account, index)
	if err != nil {
		return nil, err
	}
	return fromMoodModel(m)
}

func (s *Store) UpdateEntryAt(ctx context.Context, contractID id.ContractID, account types.Address, index int, text string, at time.Time) (*mood.Entry, error) {
	m, err := s.moodAt(ctx, contractID, account, index)
	if err != nil {
		return nil, err
	}
	m.Mood = text
	m.UpdatedAt = at.UTC()
	if _, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx); err != nil {
		return nil, err
	}
	return fromMoodModel(m)
}

func (s *Store) RemoveEntryAt(ctx context.Context, contractID id.ContractID, account types.Address, index int) (*mood.Entry, error) {
	m, err := s.moodAt(ctx, contractID, account, index)
	if err != nil {
		return nil, err
	}
	if _, err := s.sdb.NewDelete((*moodModel)(nil)).Where("id = ?", m.ID).Exec(ctx); err != nil {
		return nil, err
	}
	return fromMoodModel(m)
}

func (s *Store) ClearEntries(ctx context.Context, contractID id.ContractID, account types.Address) (int64, error) {
	res, err := s.sdb.NewDelete((*moodModel)(nil)).
		Where("contract_id = ?", contractID.String()).
		Where("account = ?", types.AddressKey(account)).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) LastEntrySeq(ctx context.Context, contractID id.ContractID, account types.Address) (int64, error) {
	var seq int64
	err := s.sdb.NewRaw(`SELECT COALESCE(MAX(seq), 0) FROM dailymood_moods WHERE contract_id = ? AND account = ?`,
		contractID.String(), types.AddressKey(account)).Scan(ctx, &seq)
	return seq, err
}

// moodAt loads the row at position index of one log.
func (s *Store) moodAt(ctx context.Context, contractID id.ContractID, account types.Address, index int) (*moodModel, error) {
	if index < 0 {
		return nil, dailymood.ErrIndexOutOfBounds
	}
	m := new(moodModel)
	q := s.sdb.NewSelect(m).
		Where("contract_id = ?", contractID.String()).
		Where("account = ?", types.AddressKey(account)).
		OrderExpr("seq ASC").
		Limit(1)
	if index > 0 {
		q = q.Offset(index)
	}
	if err := q.Scan(ctx); err != nil {
		if isNoRows(err) {
			return nil, dailymood.ErrIndexOutOfBounds
		}
		return nil, err
	}
	return m, nil
}

// ==================== Helpers ====================

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
