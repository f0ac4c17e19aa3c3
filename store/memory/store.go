// Package memory implements store.Store with in-process maps. It is the
// reference store for tests and single-process tools.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/xraph/dailymood"
	"github.com/xraph/dailymood/allowlist"
	"github.com/xraph/dailymood/deployment"
	"github.com/xraph/dailymood/id"
	"github.com/xraph/dailymood/mood"
	"github.com/xraph/dailymood/store"
	"github.com/xraph/dailymood/types"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu     sync.RWMutex
	closed bool

	// Deployment storage
	deployments map[string]*deployment.Deployment

	// Allowlist rows per contract, ordered by Seq
	members map[string][]*allowlist.Member

	// Mood logs per contract, then per account key, ordered by Seq
	moods map[string]map[string][]*mood.Entry
}

func New() *Store {
	return &Store{
		deployments: make(map[string]*deployment.Deployment),
		members:     make(map[string][]*allowlist.Member),
		moods:       make(map[string]map[string][]*mood.Entry),
	}
}

// Deployment Store implementation
func (s *Store) CreateDeployment(_ context.Context, d *deployment.Deployment, seed []*allowlist.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := d.ID.String()
	if _, exists := s.deployments[key]; exists {
		return dailymood.ErrAlreadyExists
	}
	cp := *d
	s.deployments[key] = &cp

	rows := make([]*allowlist.Member, 0, len(seed))
	for _, m := range seed {
		mc := *m
		rows = insertBySeq(rows, &mc, memberSeq)
	}
	s.members[key] = rows
	return nil
}

func (s *Store) GetDeployment(_ context.Context, contractID id.ContractID) (*deployment.Deployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.deployments[contractID.String()]
	if !ok {
		return nil, dailymood.ErrContractNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *Store) SetOwner(_ context.Context, contractID id.ContractID, owner types.Address, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deployments[contractID.String()]
	if !ok {
		return dailymood.ErrContractNotFound
	}
	d.Owner = owner
	d.Touch(at)
	return nil
}

// Allowlist Store implementation
func (s *Store) AppendMember(_ context.Context, m *allowlist.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := m.ContractID.String()
	if _, ok := s.deployments[key]; !ok {
		return dailymood.ErrContractNotFound
	}
	cp := *m
	s.members[key] = insertBySeq(s.members[key], &cp, memberSeq)
	return nil
}

func (s *Store) RemoveFirstMember(_ context.Context, contractID id.ContractID, addr types.Address) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := contractID.String()
	rows := s.members[key]
	i := slices.IndexFunc(rows, func(m *allowlist.Member) bool { return m.Address == addr })
	if i < 0 {
		return false, nil
	}
	s.members[key] = slices.Delete(rows, i, i+1)
	return true, nil
}

func (s *Store) ListMembers(_ context.Context, contractID id.ContractID) ([]*allowlist.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.members[contractID.String()]
	result := make([]*allowlist.Member, len(rows))
	for i, m := range rows {
		cp := *m
		result[i] = &cp
	}
	return result, nil
}

func (s *Store) CountMembers(_ context.Context, contractID id.ContractID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members[contractID.String()]), nil
}

func (s *Store) LastMemberSeq(_ context.Context, contractID id.ContractID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.members[contractID.String()]
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[len(rows)-1].Seq, nil
}

// Mood Store implementation
func (s *Store) AppendEntry(_ context.Context, e *mood.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cid := e.ContractID.String()
	if _, ok := s.deployments[cid]; !ok {
		return dailymood.ErrContractNotFound
	}
	logs, ok := s.moods[cid]
	if !ok {
		logs = make(map[string][]*mood.Entry)
		s.moods[cid] = logs
	}
	cp := *e
	acct := types.AddressKey(e.Account)
	logs[acct] = insertBySeq(logs[acct], &cp, entrySeq)
	return nil
}

func (s *Store) CountEntries(_ context.Context, contractID id.ContractID, account types.Address) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.log(contractID, account)), nil
}

func (s *Store) EntryAt(_ context.Context, contractID id.ContractID, account types.Address, index int) (*mood.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.log(contractID, account)
	if index < 0 || index >= len(entries) {
		return nil, dailymood.ErrIndexOutOfBounds
	}
	cp := *entries[index]
	return &cp, nil
}

func (s *Store) UpdateEntryAt(_ context.Context, contractID id.ContractID, account types.Address, index int, text string, at time.Time) (*mood.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.log(contractID, account)
	if index < 0 || index >= len(entries) {
		return nil, dailymood.ErrIndexOutOfBounds
	}
	e := entries[index]
	e.Text = text
	e.Touch(at)
	cp := *e
	return &cp, nil
}

func (s *Store) RemoveEntryAt(_ context.Context, contractID id.ContractID, account types.Address, index int) (*mood.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.log(contractID, account)
	if index < 0 || index >= len(entries) {
		return nil, dailymood.ErrIndexOutOfBounds
	}
	removed := entries[index]
	s.moods[contractID.String()][types.AddressKey(account)] = slices.Delete(entries, index, index+1)
	return removed, nil
}

func (s *Store) ClearEntries(_ context.Context, contractID id.ContractID, account types.Address) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.log(contractID, account))
	if logs, ok := s.moods[contractID.String()]; ok {
		delete(logs, types.AddressKey(account))
	}
	return int64(n), nil
}

func (s *Store) LastEntrySeq(_ context.Context, contractID id.ContractID, account types.Address) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.log(contractID, account)
	if len(entries) == 0 {
		return 0, nil
	}
	return entries[len(entries)-1].Seq, nil
}

// Core methods
func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return dailymood.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// log returns the entries of one account. Callers hold s.mu.
func (s *Store) log(contractID id.ContractID, account types.Address) []*mood.Entry {
	return s.moods[contractID.String()][types.AddressKey(account)]
}

func memberSeq(m *allowlist.Member) int64 { return m.Seq }
func entrySeq(e *mood.Entry) int64 { return e.Seq }

// insertBySeq keeps rows sorted by Seq; equal keys keep insertion order.
func insertBySeq[T any](rows []T, row T, seq func(T) int64) []T {
	i, _ := slices.BinarySearchFunc(rows, seq(row), func(r T, target int64) int {
		if c := cmp.Compare(seq(r), target); c != 0 {
			return c
		}
		return -1
	})
	return slices.Insert(rows, i, row)
}
