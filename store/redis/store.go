// Package redis implements store.Store on Redis lists.
//
// Each contract keeps its records under a hash-tagged key space:
//
//	<prefix>:{<contract>}:deployment         JSON deployment
//	<prefix>:{<contract>}:allowed            list of JSON members
//	<prefix>:{<contract>}:moods:<account>    list of JSON entries
//
// List order is Seq order. Read-modify-write calls run under WATCH/MULTI
// and retry on conflict. Removing a list element by position swaps it for a
// tombstone with LSET and drops the tombstone with LREM.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/dailymood"
	"github.com/xraph/dailymood/allowlist"
	"github.com/xraph/dailymood/deployment"
	"github.com/xraph/dailymood/id"
	"github.com/xraph/dailymood/mood"
	"github.com/xraph/dailymood/store"
	"github.com/xraph/dailymood/types"
)

var _ store.Store = (*Store)(nil)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "dailymood"

// tombstone never parses as JSON, so it never collides with a stored record.
const tombstone = "\x00dailymood:removed"

const maxRetries = 8

// Store is a Redis-backed store.
type Store struct {
	client *goredis.Client
	prefix string
	logger *slog.Logger
	owned  bool
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix replaces DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New wraps an existing client. Close leaves a wrapped client open.
func New(client *goredis.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: DefaultPrefix,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect dials Redis with o and verifies the connection. The store owns the
// client and closes it on Close.
func Connect(ctx context.Context, o *goredis.Options, opts ...Option) (*Store, error) {
	client := goredis.NewClient(o)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("dailymood/redis: connect %s: %w", o.Addr, err)
	}
	s := New(client, opts...)
	s.owned = true
	return s, nil
}

// Client returns the underlying client.
func (s *Store) Client() *goredis.Client { return s.client }

// ──────────────────────────────────────────────────
// Keys
// ──────────────────────────────────────────────────

func (s *Store) deploymentKey(contractID id.ContractID) string {
	return fmt.Sprintf("%s:{%s}:deployment", s.prefix, contractID)
}

func (s *Store) allowedKey(contractID id.ContractID) string {
	return fmt.Sprintf("%s:{%s}:allowed", s.prefix, contractID)
}

func (s *Store) moodsKey(contractID id.ContractID, account types.Address) string {
	return fmt.Sprintf("%s:{%s}:moods:%s", s.prefix, contractID, types.AddressKey(account))
}

// ──────────────────────────────────────────────────
// Deployment Store
// ──────────────────────────────────────────────────

func (s *Store) CreateDeployment(ctx context.Context, d *deployment.Deployment, seed []*allowlist.Member) error {
	dkey, akey := s.deploymentKey(d.ID), s.allowedKey(d.ID)

	head, err := json.Marshal(d)
	if err != nil {
		return wrap("create deployment", err)
	}
	rows, err := encodeAll(seed)
	if err != nil {
		return wrap("create deployment", err)
	}

	err = s.watch(ctx, func(tx *goredis.Tx) error {
		n, err := tx.Exists(ctx, dkey).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return dailymood.ErrAlreadyExists
		}
		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.Set(ctx, dkey, head, 0)
			p.Del(ctx, akey)
			if len(rows) > 0 {
				p.RPush(ctx, akey, rows...)
			}
			return nil
		})
		return err
	}, dkey, akey)
	return wrap("create deployment", err)
}

func (s *Store) GetDeployment(ctx context.Context, contractID id.ContractID) (*deployment.Deployment, error) {
	d, err := s.getDeployment(ctx, s.client, contractID)
	if err != nil {
		return nil, wrap("get deployment", err)
	}
	return d, nil
}

func (s *Store) SetOwner(ctx context.Context, contractID id.ContractID, owner types.Address, at time.Time) error {
	dkey := s.deploymentKey(contractID)
	err := s.watch(ctx, func(tx *goredis.Tx) error {
		d, err := s.getDeployment(ctx, tx, contractID)
		if err != nil {
			return err
		}
		d.Owner = owner
		d.Touch(at)
		data, err := json.Marshal(d)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.Set(ctx, dkey, data, 0)
			return nil
		})
		return err
	}, dkey)
	return wrap("set owner", err)
}

func (s *Store) getDeployment(ctx context.Context, c goredis.Cmdable, contractID id.ContractID) (*deployment.Deployment, error) {
	data, err := c.Get(ctx, s.deploymentKey(contractID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, dailymood.ErrContractNotFound
	}
	if err != nil {
		return nil, err
	}
	var d deployment.Deployment
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// appendRow pushes one encoded record onto key if the contract exists.
func (s *Store) appendRow(ctx context.Context, contractID id.ContractID, key string, row []byte) error {
	dkey := s.deploymentKey(contractID)
	return s.watch(ctx, func(tx *goredis.Tx) error {
		n, err := tx.Exists(ctx, dkey).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return dailymood.ErrContractNotFound
		}
		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.RPush(ctx, key, row)
			return nil
		})
		return err
	}, dkey)
}

// ──────────────────────────────────────────────────
// Allowlist Store
// ──────────────────────────────────────────────────

func (s *Store) AppendMember(ctx context.Context, m *allowlist.Member) error {
	row, err := json.Marshal(m)
	if err != nil {
		return wrap("append member", err)
	}
	return wrap("append member", s.appendRow(ctx, m.ContractID, s.allowedKey(m.ContractID), row))
}

func (s *Store) RemoveFirstMember(ctx context.Context, contractID id.ContractID, addr types.Address) (bool, error) {
	akey := s.allowedKey(contractID)
	var found bool
	err := s.watch(ctx, func(tx *goredis.Tx) error {
		found = false
		rows, err := tx.LRange(ctx, akey, 0, -1).Result()
		if err != nil {
			return err
		}
		for i, row := range rows {
			var m allowlist.Member
			if err := json.Unmarshal([]byte(row), &m); err != nil {
				return err
			}
			if m.Address != addr {
				continue
			}
			found = true
			return removeAt(ctx, tx, akey, int64(i))
		}
		return nil
	}, akey)
	return found, wrap("remove member", err)
}

func (s *Store) ListMembers(ctx context.Context, contractID id.ContractID) ([]*allowlist.Member, error) {
	rows, err := s.client.LRange(ctx, s.allowedKey(contractID), 0, -1).Result()
	if err != nil {
		return nil, wrap("list members", err)
	}
	result := make([]*allowlist.Member, len(rows))
	for i, row := range rows {
		m := new(allowlist.Member)
		if err := json.Unmarshal([]byte(row), m); err != nil {
			return nil, wrap("list members", err)
		}
		result[i] = m
	}
	return result, nil
}

func (s *Store) CountMembers(ctx context.Context, contractID id.ContractID) (int, error) {
	n, err := s.client.LLen(ctx, s.allowedKey(contractID)).Result()
	if err != nil {
		return 0, wrap("count members", err)
	}
	return int(n), nil
}

func (s *Store) LastMemberSeq(ctx context.Context, contractID id.ContractID) (int64, error) {
	seq, err := s.lastSeq(ctx, s.allowedKey(contractID))
	return seq, wrap("last member seq", err)
}

// ──────────────────────────────────────────────────
// Mood Store
// ──────────────────────────────────────────────────

func (s *Store) AppendEntry(ctx context.Context, e *mood.Entry) error {
	row, err := json.Marshal(e)
	if err != nil {
		return wrap("append entry", err)
	}
	return wrap("append entry", s.appendRow(ctx, e.ContractID, s.moodsKey(e.ContractID, e.Account), row))
}

func (s *Store) CountEntries(ctx context.Context, contractID id.ContractID, account types.Address) (int, error) {
	n, err := s.client.LLen(ctx, s.moodsKey(contractID, account)).Result()
	if err != nil {
		return 0, wrap("count entries", err)
	}
	return int(n), nil
}

func (s *Store) EntryAt(ctx context.Context, contractID id.ContractID, account types.Address, index int) (*mood.Entry, error) {
	e, err := entryAt(ctx, s.client, s.moodsKey(contractID, account), index)
	if err != nil {
		return nil, wrap("entry at", err)
	}
	return e, nil
}

func (s *Store) UpdateEntryAt(ctx context.Context, contractID id.ContractID, account types.Address, index int, text string, at time.Time) (*mood.Entry, error) {
	key := s.moodsKey(contractID, account)
	var updated *mood.Entry
	err := s.watch(ctx, func(tx *goredis.Tx) error {
		e, err := entryAt(ctx, tx, key, index)
		if err != nil {
			return err
		}
		e.Text = text
		e.Touch(at)
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.LSet(ctx, key, int64(index), data)
			return nil
		})
		updated = e
		return err
	}, key)
	if err != nil {
		return nil, wrap("update entry", err)
	}
	return updated, nil
}

func (s *Store) RemoveEntryAt(ctx context.Context, contractID id.ContractID, account types.Address, index int) (*mood.Entry, error) {
	key := s.moodsKey(contractID, account)
	var removed *mood.Entry
	err := s.watch(ctx, func(tx *goredis.Tx) error {
		e, err := entryAt(ctx, tx, key, index)
		if err != nil {
			return err
		}
		removed = e
		return removeAt(ctx, tx, key, int64(index))
	}, key)
	if err != nil {
		return nil, wrap("remove entry", err)
	}
	return removed, nil
}

func (s *Store) ClearEntries(ctx context.Context, contractID id.ContractID, account types.Address) (int64, error) {
	key := s.moodsKey(contractID, account)
	var n int64
	err := s.watch(ctx, func(tx *goredis.Tx) error {
		var err error
		n, err = tx.LLen(ctx, key).Result()
		if err != nil || n == 0 {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.Del(ctx, key)
			return nil
		})
		return err
	}, key)
	return n, wrap("clear entries", err)
}

func (s *Store) LastEntrySeq(ctx context.Context, contractID id.ContractID, account types.Address) (int64, error) {
	seq, err := s.lastSeq(ctx, s.moodsKey(contractID, account))
	return seq, wrap("last entry seq", err)
}

// lastSeq decodes the seq of the tail row of key, or 0 for an empty list.
func (s *Store) lastSeq(ctx context.Context, key string) (int64, error) {
	row, err := s.client.LIndex(ctx, key, -1).Bytes()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var tail struct {
		Seq int64 `json:"seq"`
	}
	if err := json.Unmarshal(row, &tail); err != nil {
		return 0, err
	}
	return tail.Seq, nil
}

func entryAt(ctx context.Context, c goredis.Cmdable, key string, index int) (*mood.Entry, error) {
	if index < 0 {
		return nil, dailymood.ErrIndexOutOfBounds
	}
	data, err := c.LIndex(ctx, key, int64(index)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, dailymood.ErrIndexOutOfBounds
	}
	if err != nil {
		return nil, err
	}
	e := new(mood.Entry)
	if err := json.Unmarshal(data, e); err != nil {
		return nil, err
	}
	return e, nil
}

// removeAt deletes the element at index inside one MULTI block.
func removeAt(ctx context.Context, tx *goredis.Tx, key string, index int64) error {
	_, err := tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.LSet(ctx, key, index, tombstone)
		p.LRem(ctx, key, 1, tombstone)
		return nil
	})
	return err
}

// ──────────────────────────────────────────────────
// Core
// ──────────────────────────────────────────────────

// Migrate is a no-op; Redis needs no schema.
func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return wrap("ping", err)
	}
	return nil
}

func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	if err := s.client.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
		return fmt.Errorf("dailymood/redis: close: %w", err)
	}
	return nil
}

// watch runs fn under WATCH keys, retrying when another client touched them.
func (s *Store) watch(ctx context.Context, fn func(tx *goredis.Tx) error, keys ...string) error {
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := s.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, goredis.TxFailedErr) {
			return err
		}
		s.logger.Debug("redis transaction conflict, retrying",
			"attempt", attempt+1,
			"keys", keys,
		)
	}
	return dailymood.ErrTransactionFailed
}

func encodeAll(members []*allowlist.Member) ([]interface{}, error) {
	rows := make([]interface{}, len(members))
	for i, m := range members {
		data, err := json.Marshal(m)
		if err != nil {
			return nil, err
		}
		rows[i] = data
	}
	return rows, nil
}

func wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, goredis.ErrClosed):
		return fmt.Errorf("dailymood/redis: %s: %w", op, dailymood.ErrStoreClosed)
	default:
		return fmt.Errorf("dailymood/redis: %s: %w", op, err)
	}
}
