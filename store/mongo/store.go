package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/dailymood"
	"github.com/xraph/dailymood/allowlist"
	"github.com/xraph/dailymood/deployment"
	"github.com/xraph/dailymood/id"
	"github.com/xraph/dailymood/mood"
	dmstore "github.com/xraph/dailymood/store"
	"github.com/xraph/dailymood/types"
)

// Collection name constants.
const (
	colContracts = "dailymood_contracts"
	colAllowed   = "dailymood_allowed"
	colMoods     = "dailymood_moods"
)

// compile-time interface check
var _ dmstore.Store = (*Store)(nil)

var (
	bySeq     = bson.D{{Key: "seq", Value: 1}}
	bySeqDesc = bson.D{{Key: "seq", Value: -1}}
)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all dailymood collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("dailymood/mongo: migrate %s indexes: %w: %w", col, dailymood.ErrMigrationFailed, err)
		}
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
	if _, err := s.mdb.NewInsert(toContractModel(d)).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return dailymood.ErrAlreadyExists
		}
		return fmt.Errorf("dailymood/mongo: create deployment: %w", err)
	}
	for _, m := range seed {
		if _, err := s.mdb.NewInsert(toMemberModel(m)).Exec(ctx); err != nil {
			return fmt.Errorf("dailymood/mongo: seed allowlist: %w", err)
		}
	}
	return nil
}

func (s *Store) GetDeployment(ctx context.Context, contractID id.ContractID) (*deployment.Deployment, error) {
	var m contractModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": contractID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, dailymood.ErrContractNotFound
		}
		return nil, fmt.Errorf("dailymood/mongo: get deployment: %w", err)
	}
	return fromContractModel(&m)
}

func (s *Store) SetOwner(ctx context.Context, contractID id.ContractID, owner types.Address, at time.Time) error {
	res, err := s.mdb.NewUpdate((*contractModel)(nil)).
		Filter(bson.M{"_id": contractID.String()}).
		Set("owner", types.AddressKey(owner)).
		Set("updated_at", at.UTC()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("dailymood/mongo: set owner: %w", err)
	}
	if res.MatchedCount() == 0 {
		return dailymood.ErrContractNotFound
	}
	return nil
}

// ==================== Allowlist Store ====================

func (s *Store) AppendMember(ctx context.Context, m *allowlist.Member) error {
	if _, err := s.GetDeployment(ctx, m.ContractID); err != nil {
		return err
	}
	if _, err := s.mdb.NewInsert(toMemberModel(m)).Exec(ctx); err != nil {
		return fmt.Errorf("dailymood/mongo: append member: %w", err)
	}
	return nil
}

func (s *Store) RemoveFirstMember(ctx context.Context, contractID id.ContractID, addr types.Address) (bool, error) {
	var m memberModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"contract_id": contractID.String(), "address": types.AddressKey(addr)}).
		Sort(bySeq).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return false, nil
		}
		return false, fmt.Errorf("dailymood/mongo: find member: %w", err)
	}

	res, err := s.mdb.NewDelete((*memberModel)(nil)).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("dailymood/mongo: remove member: %w", err)
	}
	return res.DeletedCount() > 0, nil
}

func (s *Store) ListMembers(ctx context.Context, contractID id.ContractID) ([]*allowlist.Member, error) {
	var models []memberModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"contract_id": contractID.String()}).
		Sort(bySeq).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("dailymood/mongo: list members: %w", err)
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
	n, err := s.mdb.Collection(colAllowed).CountDocuments(ctx, bson.M{"contract_id": contractID.String()})
	if err != nil {
		return 0, fmt.Errorf("dailymood/mongo: count members: %w", err)
	}
	return int(n), nil
}

func (s *Store) LastMemberSeq(ctx context.Context, contractID id.ContractID) (int64, error) {
	var m memberModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"contract_id": contractID.String()}).
		Sort(bySeqDesc).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("dailymood/mongo: last member seq: %w", err)
	}
	return m.Seq, nil
}

// ==================== Mood Store ====================

func (s *Store) AppendEntry(ctx context.Context, e *mood.Entry) error {
	if _, err := s.GetDeployment(ctx, e.ContractID); err != nil {
		return err
	}
	if _, err := s.mdb.NewInsert(toMoodModel(e)).Exec(ctx); err != nil {
		return fmt.Errorf("dailymood/mongo: append entry: %w", err)
	}
	return nil
}

func (s *Store) CountEntries(ctx context.Context, contractID id.ContractID, account types.Address) (int, error) {
	n, err := s.mdb.Collection(colMoods).CountDocuments(ctx, logFilter(contractID, account))
	if err != nil {
		return 0, fmt.Errorf("dailymood/mongo: count entries: %w", err)
	}
	return int(n), nil
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

	res, err := s.mdb.NewUpdate((*moodModel)(nil)).
		Filter(bson.M{"_id": m.ID}).
		Set("mood", m.Mood).
		Set("updated_at", m.UpdatedAt).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("dailymood/mongo: update entry: %w", err)
	}
	if res.MatchedCount() == 0 {
		return nil, dailymood.ErrIndexOutOfBounds
	}
	return fromMoodModel(m)
}

func (s *Store) RemoveEntryAt(ctx context.Context, contractID id.ContractID, account types.Address, index int) (*mood.Entry, error) {
	m, err := s.moodAt(ctx, contractID, account, index)
	if err != nil {
		return nil, err
	}
	res, err := s.mdb.NewDelete((*moodModel)(nil)).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("dailymood/mongo: remove entry: %w", err)
	}
	if res.DeletedCount() == 0 {
		return nil, dailymood.ErrIndexOutOfBounds
	}
	return fromMoodModel(m)
}

func (s *Store) ClearEntries(ctx context.Context, contractID id.ContractID, account types.Address) (int64, error) {
	res, err := s.mdb.NewDelete((*moodModel)(nil)).
		Filter(logFilter(contractID, account)).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("dailymood/mongo: clear entries: %w", err)
	}
	return res.DeletedCount(), nil
}

func (s *Store) LastEntrySeq(ctx context.Context, contractID id.ContractID, account types.Address) (int64, error) {
	var m moodModel
	err := s.mdb.NewFind(&m).
		Filter(logFilter(contractID, account)).
		Sort(bySeqDesc).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("dailymood/mongo: last entry seq: %w", err)
	}
	return m.Seq, nil
}

// moodAt loads the document at position index of one log.
func (s *Store) moodAt(ctx context.Context, contractID id.ContractID, account types.Address, index int) (*moodModel, error) {
	if index < 0 {
		return nil, dailymood.ErrIndexOutOfBounds
	}
	var m moodModel
	q := s.mdb.NewFind(&m).
		Filter(logFilter(contractID, account)).
		Sort(bySeq).
		Limit(1)
	if index > 0 {
		q = q.Skip(int64(index))
	}
	if err := q.Scan(ctx); err != nil {
		if isNoDocuments(err) {
			return nil, dailymood.ErrIndexOutOfBounds
		}
		return nil, fmt.Errorf("dailymood/mongo: entry at: %w", err)
	}
	return &m, nil
}

// ==================== Helpers ====================

func logFilter(contractID id.ContractID, account types.Address) bson.M {
	return bson.M{"contract_id": contractID.String(), "account": types.AddressKey(account)}
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colContracts: {
			{Keys: bson.D{{Key: "owner", Value: 1}}},
		},
		colAllowed: {
			{
				Keys:    bson.D{{Key: "contract_id", Value: 1}, {Key: "seq", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "contract_id", Value: 1}, {Key: "address", Value: 1}, {Key: "seq", Value: 1}}},
		},
		colMoods: {
			{
				Keys:    bson.D{{Key: "contract_id", Value: 1}, {Key: "account", Value: 1}, {Key: "seq", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}
}
