// Package badger implements store.Store on an embedded BadgerDB key space.
//
// Records are JSON values under ordered keys:
//
//	dmc/<contract>                       deployment
//	alw/<contract>/<seq>                 allowlist member
//	mood/<contract>/<account>/<seq>      mood entry
//
// seq is an 8-byte big-endian integer, so prefix iteration yields rows in
// Seq order and a log index is a position in that iteration.
package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"

	"github.com/xraph/dailymood"
	"github.com/xraph/dailymood/allowlist"
	"github.com/xraph/dailymood/deployment"
	"github.com/xraph/dailymood/id"
	"github.com/xraph/dailymood/mood"
	"github.com/xraph/dailymood/store"
	"github.com/xraph/dailymood/types"
)

var _ store.Store = (*Store)(nil)

// Store is a BadgerDB-backed store.
type Store struct {
	db     *badgerdb.DB
	logger *slog.Logger
	owned  bool
}

// Option configures Open.
type Option func(*badgerdb.Options)

// WithSyncWrites makes every commit fsync before returning.
func WithSyncWrites(sync bool) Option {
	return func(o *badgerdb.Options) {
		o.SyncWrites = sync
	}
}

// WithCacheSize sets the block and index cache sizes in bytes.
func WithCacheSize(bytes int64) Option {
	return func(o *badgerdb.Options) {
		o.BlockCacheSize = bytes
		o.IndexCacheSize = bytes
	}
}

// Open opens a database in dir. An empty dir opens an in-memory database.
func Open(dir string, logger *slog.Logger, opts ...Option) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	o := badgerdb.DefaultOptions(dir)
	if dir == "" {
		o = o.WithInMemory(true)
	}
	o.BlockCacheSize = 64 << 20
	o.IndexCacheSize = 64 << 20
	o.NumMemtables = 2
	o.Logger = &badgerLogger{logger: logger.With("component", "badger")}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := badgerdb.Open(o)
	if err != nil {
		return nil, fmt.Errorf("dailymood/badger: open %q: %w", dir, err)
	}

	s := New(db, logger)
	s.owned = true
	return s, nil
}

// New wraps an already opened database. Close leaves a wrapped database open.
func New(db *badgerdb.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// DB returns the underlying database.
func (s *Store) DB() *badgerdb.DB { return s.db }

// ──────────────────────────────────────────────────
// Keys
// ──────────────────────────────────────────────────

func deploymentKey(contractID id.ContractID) []byte {
	return []byte("dmc/" + contractID.String())
}

func memberPrefix(contractID id.ContractID) []byte {
	return []byte("alw/" + contractID.String() + "/")
}

func moodPrefix(contractID id.ContractID, account types.Address) []byte {
	return []byte("mood/" + contractID.String() + "/" + types.AddressKey(account) + "/")
}

func seqKey(prefix []byte, seq int64) []byte {
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], uint64(seq))
	return key
}

// ──────────────────────────────────────────────────
// Deployment Store
// ──────────────────────────────────────────────────

func (s *Store) CreateDeployment(_ context.Context, d *deployment.Deployment, seed []*allowlist.Member) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		key := deploymentKey(d.ID)
		if _, err := txn.Get(key); err == nil {
			return dailymood.ErrAlreadyExists
		} else if !errors.Is(err, badgerdb.ErrKeyNotFound) {
			return err
		}
		if err := setJSON(txn, key, d); err != nil {
			return err
		}
		prefix := memberPrefix(d.ID)
		for _, m := range seed {
			if err := setJSON(txn, seqKey(prefix, m.Seq), m); err != nil {
				return err
			}
		}
		return nil
	})
	return wrap("create deployment", err)
}

func (s *Store) GetDeployment(_ context.Context, contractID id.ContractID) (*deployment.Deployment, error) {
	var d deployment.Deployment
	err := s.db.View(func(txn *badgerdb.Txn) error {
		return getDeployment(txn, contractID, &d)
	})
	if err != nil {
		return nil, wrap("get deployment", err)
	}
	return &d, nil
}

func (s *Store) SetOwner(_ context.Context, contractID id.ContractID, owner types.Address, at time.Time) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		var d deployment.Deployment
		if err := getDeployment(txn, contractID, &d); err != nil {
			return err
		}
		d.Owner = owner
		d.Touch(at)
		return setJSON(txn, deploymentKey(contractID), &d)
	})
	return wrap("set owner", err)
}

func getDeployment(txn *badgerdb.Txn, contractID id.ContractID, d *deployment.Deployment) error {
	item, err := txn.Get(deploymentKey(contractID))
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return dailymood.ErrContractNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, d)
	})
}

func requireDeployment(txn *badgerdb.Txn, contractID id.ContractID) error {
	_, err := txn.Get(deploymentKey(contractID))
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return dailymood.ErrContractNotFound
	}
	return err
}

// ──────────────────────────────────────────────────
// Allowlist Store
// ──────────────────────────────────────────────────

func (s *Store) AppendMember(_ context.Context, m *allowlist.Member) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		if err := requireDeployment(txn, m.ContractID); err != nil {
			return err
		}
		return setJSON(txn, seqKey(memberPrefix(m.ContractID), m.Seq), m)
	})
	return wrap("append member", err)
}

func (s *Store) RemoveFirstMember(_ context.Context, contractID id.ContractID, addr types.Address) (bool, error) {
	var found bool
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		var target []byte
		err := scan(txn, memberPrefix(contractID), true, func(_ int, item *badgerdb.Item) (bool, error) {
			var m allowlist.Member
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &m) }); err != nil {
				return false, err
			}
			if m.Address == addr {
				target = item.KeyCopy(nil)
				return false, nil
			}
			return true, nil
		})
		if err != nil || target == nil {
			return err
		}
		found = true
		return txn.Delete(target)
	})
	return found, wrap("remove member", err)
}

func (s *Store) ListMembers(_ context.Context, contractID id.ContractID) ([]*allowlist.Member, error) {
	var result []*allowlist.Member
	err := s.db.View(func(txn *badgerdb.Txn) error {
		return scan(txn, memberPrefix(contractID), true, func(_ int, item *badgerdb.Item) (bool, error) {
			m := new(allowlist.Member)
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, m) }); err != nil {
				return false, err
			}
			result = append(result, m)
			return true, nil
		})
	})
	if err != nil {
		return nil, wrap("list members", err)
	}
	return result, nil
}

func (s *Store) CountMembers(_ context.Context, contractID id.ContractID) (int, error) {
	var n int
	err := s.db.View(func(txn *badgerdb.Txn) error {
		var err error
		n, err = count(txn, memberPrefix(contractID))
		return err
	})
	return n, wrap("count members", err)
}

func (s *Store) LastMemberSeq(_ context.Context, contractID id.ContractID) (int64, error) {
	var seq int64
	err := s.db.View(func(txn *badgerdb.Txn) error {
		seq = lastSeq(txn, memberPrefix(contractID))
		return nil
	})
	return seq, wrap("last member seq", err)
}

// ──────────────────────────────────────────────────
// Mood Store
// ──────────────────────────────────────────────────

func (s *Store) AppendEntry(_ context.Context, e *mood.Entry) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		if err := requireDeployment(txn, e.ContractID); err != nil {
			return err
		}
		return setJSON(txn, seqKey(moodPrefix(e.ContractID, e.Account), e.Seq), e)
	})
	return wrap("append entry", err)
}

func (s *Store) CountEntries(_ context.Context, contractID id.ContractID, account types.Address) (int, error) {
	var n int
	err := s.db.View(func(txn *badgerdb.Txn) error {
		var err error
		n, err = count(txn, moodPrefix(contractID, account))
		return err
	})
	return n, wrap("count entries", err)
}

func (s *Store) EntryAt(_ context.Context, contractID id.ContractID, account types.Address, index int) (*mood.Entry, error) {
	var e mood.Entry
	err := s.db.View(func(txn *badgerdb.Txn) error {
		_, err := entryAt(txn, moodPrefix(contractID, account), index, &e)
		return err
	})
	if err != nil {
		return nil, wrap("entry at", err)
	}
	return &e, nil
}

func (s *Store) UpdateEntryAt(_ context.Context, contractID id.ContractID, account types.Address, index int, text string, at time.Time) (*mood.Entry, error) {
	var e mood.Entry
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		key, err := entryAt(txn, moodPrefix(contractID, account), index, &e)
		if err != nil {
			return err
		}
		e.Text = text
		e.Touch(at)
		return setJSON(txn, key, &e)
	})
	if err != nil {
		return nil, wrap("update entry", err)
	}
	return &e, nil
}

func (s *Store) RemoveEntryAt(_ context.Context, contractID id.ContractID, account types.Address, index int) (*mood.Entry, error) {
	var e mood.Entry
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		key, err := entryAt(txn, moodPrefix(contractID, account), index, &e)
		if err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		return nil, wrap("remove entry", err)
	}
	return &e, nil
}

func (s *Store) ClearEntries(_ context.Context, contractID id.ContractID, account types.Address) (int64, error) {
	var n int64
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		var keys [][]byte
		err := scan(txn, moodPrefix(contractID, account), false, func(_ int, item *badgerdb.Item) (bool, error) {
			keys = append(keys, item.KeyCopy(nil))
			return true, nil
		})
		if err != nil {
			return err
		}
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		n = int64(len(keys))
		return nil
	})
	return n, wrap("clear entries", err)
}

func (s *Store) LastEntrySeq(_ context.Context, contractID id.ContractID, account types.Address) (int64, error) {
	var seq int64
	err := s.db.View(func(txn *badgerdb.Txn) error {
		seq = lastSeq(txn, moodPrefix(contractID, account))
		return nil
	})
	return seq, wrap("last entry seq", err)
}

// entryAt decodes the entry at index into e and returns its key.
func entryAt(txn *badgerdb.Txn, prefix []byte, index int, e *mood.Entry) ([]byte, error) {
	if index < 0 {
		return nil, dailymood.ErrIndexOutOfBounds
	}
	var key []byte
	err := scan(txn, prefix, false, func(i int, item *badgerdb.Item) (bool, error) {
		if i < index {
			return true, nil
		}
		key = item.KeyCopy(nil)
		return false, item.Value(func(val []byte) error { return json.Unmarshal(val, e) })
	})
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, dailymood.ErrIndexOutOfBounds
	}
	return key, nil
}

// ──────────────────────────────────────────────────
// Core
// ──────────────────────────────────────────────────

// Migrate is a no-op; the key space needs no schema.
func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return dailymood.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	if !s.owned || s.db.IsClosed() {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("dailymood/badger: close: %w", err)
	}
	s.logger.Debug("badger store closed")
	return nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// scan iterates keys under prefix in order until fn returns false.
func scan(txn *badgerdb.Txn, prefix []byte, values bool, fn func(i int, item *badgerdb.Item) (bool, error)) error {
	opts := badgerdb.DefaultIteratorOptions
	opts.PrefetchValues = values
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	i := 0
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		more, err := fn(i, it.Item())
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		i++
	}
	return nil
}

// lastSeq reads the seq suffix of the highest key under prefix, or 0.
func lastSeq(txn *badgerdb.Txn, prefix []byte) int64 {
	opts := badgerdb.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Reverse = true
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	it.Seek(seqKey(prefix, math.MaxInt64))
	if !it.ValidForPrefix(prefix) {
		return 0
	}
	key := it.Item().Key()
	return int64(binary.BigEndian.Uint64(key[len(prefix):]))
}

func count(txn *badgerdb.Txn, prefix []byte) (int, error) {
	n := 0
	err := scan(txn, prefix, false, func(int, *badgerdb.Item) (bool, error) {
		n++
		return true, nil
	})
	return n, err
}

func setJSON(txn *badgerdb.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

// wrap keeps domain sentinels recognisable and tags driver errors.
func wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badgerdb.ErrDBClosed):
		return fmt.Errorf("dailymood/badger: %s: %w", op, dailymood.ErrStoreClosed)
	case errors.Is(err, badgerdb.ErrConflict):
		return fmt.Errorf("dailymood/badger: %s: %w", op, dailymood.ErrTransactionFailed)
	default:
		return fmt.Errorf("dailymood/badger: %s: %w", op, err)
	}
}
