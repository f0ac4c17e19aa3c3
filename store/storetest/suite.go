// Package storetest is a compliance suite that every store.Store
// implementation runs from its own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/dailymood"
	"github.com/xraph/dailymood/allowlist"
	"github.com/xraph/dailymood/deployment"
	"github.com/xraph/dailymood/id"
	"github.com/xraph/dailymood/mood"
	"github.com/xraph/dailymood/store"
	"github.com/xraph/dailymood/types"
)

// Factory returns a fresh, migrated store for one subtest.
type Factory func(t *testing.T) store.Store

var (
	owner = types.MustParseAddress("0x00000000000000000000000000000000000000aa")
	alice = types.MustParseAddress("0x00000000000000000000000000000000000a11ce")
	bob   = types.MustParseAddress("0x0000000000000000000000000000000000000b0b")
	epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("Deployment", func(t *testing.T) { testDeployment(t, newStore(t)) })
	t.Run("Allowlist", func(t *testing.T) { testAllowlist(t, newStore(t)) })
	t.Run("MoodLog", func(t *testing.T) { testMoodLog(t, newStore(t)) })
	t.Run("MoodBounds", func(t *testing.T) { testMoodBounds(t, newStore(t)) })
	t.Run("Isolation", func(t *testing.T) { testIsolation(t, newStore(t)) })
	t.Run("Engine", func(t *testing.T) { testEngine(t, newStore(t)) })
}

func deploy(t *testing.T, s store.Store, seed ...types.Address) id.ContractID {
	t.Helper()

	d := &deployment.Deployment{
		Entity: types.NewEntity(epoch),
		ID:     id.NewContractID(),
		Owner:  owner,
	}
	members := make([]*allowlist.Member, len(seed))
	for i, addr := range seed {
		members[i] = &allowlist.Member{
			Entity:     types.NewEntity(epoch),
			ID:         id.NewMemberID(),
			ContractID: d.ID,
			Address:    addr,
			Seq:        int64(i + 1),
		}
	}
	require.NoError(t, s.CreateDeployment(context.Background(), d, members))
	return d.ID
}

func push(t *testing.T, s store.Store, cid id.ContractID, account types.Address, seq int64, text string) {
	t.Helper()

	at := epoch.Add(time.Duration(seq) * time.Second)
	require.NoError(t, s.AppendEntry(context.Background(), &mood.Entry{
		Entity:     types.NewEntity(at),
		ID:         id.NewMoodID(),
		ContractID: cid,
		Account:    account,
		Text:       text,
		Timestamp:  at.Unix(),
		Seq:        seq,
	}))
}

func texts(t *testing.T, s store.Store, cid id.ContractID, account types.Address) []string {
	t.Helper()

	ctx := context.Background()
	n, err := s.CountEntries(ctx, cid, account)
	require.NoError(t, err)

	out := make([]string, n)
	for i := range n {
		e, err := s.EntryAt(ctx, cid, account, i)
		require.NoError(t, err)
		out[i] = e.Text
	}
	return out
}

func testDeployment(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.GetDeployment(ctx, id.NewContractID())
	require.ErrorIs(t, err, dailymood.ErrContractNotFound)

	cid := deploy(t, s, types.ZeroAddress, alice)

	d, err := s.GetDeployment(ctx, cid)
	require.NoError(t, err)
	assert.Equal(t, cid.String(), d.ID.String())
	assert.Equal(t, owner, d.Owner)

	transferredAt := time.Date(2031, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.SetOwner(ctx, cid, bob, transferredAt))
	d, err = s.GetDeployment(ctx, cid)
	require.NoError(t, err)
	assert.Equal(t, bob, d.Owner)
	assert.WithinDuration(t, transferredAt, d.UpdatedAt, time.Millisecond, "owner change is stamped with the supplied time")

	require.ErrorIs(t, s.SetOwner(ctx, id.NewContractID(), bob, transferredAt), dailymood.ErrContractNotFound)
	require.NoError(t, s.Ping(ctx))
}

func testAllowlist(t *testing.T, s store.Store) {
	ctx := context.Background()
	cid := deploy(t, s, alice, bob, alice)

	members, err := s.ListMembers(ctx, cid)
	require.NoError(t, err)
	assert.Equal(t, []types.Address{alice, bob, alice}, allowlist.Addresses(members))

	require.NoError(t, s.AppendMember(ctx, &allowlist.Member{
		Entity:     types.NewEntity(epoch),
		ID:         id.NewMemberID(),
		ContractID: cid,
		Address:    types.ZeroAddress,
		Seq:        10,
	}))

	n, err := s.CountMembers(ctx, cid)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	last, err := s.LastMemberSeq(ctx, cid)
	require.NoError(t, err)
	assert.EqualValues(t, 10, last)

	// Only the first alice goes.
	found, err := s.RemoveFirstMember(ctx, cid, alice)
	require.NoError(t, err)
	assert.True(t, found)

	members, err = s.ListMembers(ctx, cid)
	require.NoError(t, err)
	assert.Equal(t, []types.Address{bob, alice, types.ZeroAddress}, allowlist.Addresses(members))

	found, err = s.RemoveFirstMember(ctx, cid, owner)
	require.NoError(t, err)
	assert.False(t, found)

	n, err = s.CountMembers(ctx, cid)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	empty := deploy(t, s)
	last, err = s.LastMemberSeq(ctx, empty)
	require.NoError(t, err)
	assert.Zero(t, last)
}

func testMoodLog(t *testing.T, s store.Store) {
	ctx := context.Background()
	cid := deploy(t, s, types.ZeroAddress)

	last, err := s.LastEntrySeq(ctx, cid, alice)
	require.NoError(t, err)
	assert.Zero(t, last)

	push(t, s, cid, alice, 1, "a")
	push(t, s, cid, alice, 2, "b")
	push(t, s, cid, alice, 3, "c")
	assert.Equal(t, []string{"a", "b", "c"}, texts(t, s, cid, alice))

	last, err = s.LastEntrySeq(ctx, cid, alice)
	require.NoError(t, err)
	assert.EqualValues(t, 3, last)

	first, err := s.EntryAt(ctx, cid, alice, 0)
	require.NoError(t, err)
	assert.Equal(t, alice, first.Account)
	assert.Equal(t, epoch.Add(time.Second).Unix(), first.Timestamp)

	updated, err := s.UpdateEntryAt(ctx, cid, alice, 1, "B", epoch.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "B", updated.Text)
	assert.Equal(t, epoch.Add(2*time.Second).Unix(), updated.Timestamp, "update keeps the original timestamp")

	removed, err := s.RemoveEntryAt(ctx, cid, alice, 0)
	require.NoError(t, err)
	assert.Equal(t, "a", removed.Text)
	assert.Equal(t, []string{"B", "c"}, texts(t, s, cid, alice))

	push(t, s, cid, alice, 4, "d")
	assert.Equal(t, []string{"B", "c", "d"}, texts(t, s, cid, alice))

	removed, err = s.RemoveEntryAt(ctx, cid, alice, 2)
	require.NoError(t, err)
	assert.Equal(t, "d", removed.Text)

	last, err = s.LastEntrySeq(ctx, cid, alice)
	require.NoError(t, err)
	assert.EqualValues(t, 3, last)

	cleared, err := s.ClearEntries(ctx, cid, alice)
	require.NoError(t, err)
	assert.EqualValues(t, 2, cleared)
	assert.Empty(t, texts(t, s, cid, alice))

	cleared, err = s.ClearEntries(ctx, cid, alice)
	require.NoError(t, err)
	assert.EqualValues(t, 0, cleared)

	last, err = s.LastEntrySeq(ctx, cid, alice)
	require.NoError(t, err)
	assert.Zero(t, last)
}

func testMoodBounds(t *testing.T, s store.Store) {
	ctx := context.Background()
	cid := deploy(t, s, types.ZeroAddress)

	_, err := s.EntryAt(ctx, cid, alice, 0)
	require.ErrorIs(t, err, dailymood.ErrIndexOutOfBounds)

	push(t, s, cid, alice, 1, "only")

	for _, index := range []int{-1, 1, 5} {
		_, err = s.EntryAt(ctx, cid, alice, index)
		require.ErrorIs(t, err, dailymood.ErrIndexOutOfBounds, "EntryAt(%d)", index)

		_, err = s.UpdateEntryAt(ctx, cid, alice, index, "x", epoch)
		require.ErrorIs(t, err, dailymood.ErrIndexOutOfBounds, "UpdateEntryAt(%d)", index)

		_, err = s.RemoveEntryAt(ctx, cid, alice, index)
		require.ErrorIs(t, err, dailymood.ErrIndexOutOfBounds, "RemoveEntryAt(%d)", index)
	}

	assert.Equal(t, []string{"only"}, texts(t, s, cid, alice))
}

func testIsolation(t *testing.T, s store.Store) {
	ctx := context.Background()
	one := deploy(t, s, alice)
	two := deploy(t, s, bob)

	push(t, s, one, alice, 1, "one-alice")
	push(t, s, one, bob, 2, "one-bob")
	push(t, s, two, alice, 3, "two-alice")

	assert.Equal(t, []string{"one-alice"}, texts(t, s, one, alice))
	assert.Equal(t, []string{"one-bob"}, texts(t, s, one, bob))
	assert.Equal(t, []string{"two-alice"}, texts(t, s, two, alice))

	_, err := s.ClearEntries(ctx, one, alice)
	require.NoError(t, err)
	assert.Equal(t, []string{"one-bob"}, texts(t, s, one, bob))
	assert.Equal(t, []string{"two-alice"}, texts(t, s, two, alice))

	members, err := s.ListMembers(ctx, two)
	require.NoError(t, err)
	assert.Equal(t, []types.Address{bob}, allowlist.Addresses(members))
}

// testEngine drives the engine end to end over the store.
func testEngine(t *testing.T, s store.Store) {
	ctx := context.Background()
	l := dailymood.New(s, dailymood.WithClock(func() time.Time { return epoch }))
	require.NoError(t, l.Start(ctx))

	c, err := l.Deploy(ctx, owner, []types.Address{alice})
	require.NoError(t, err)

	_, err = c.PushMood(ctx, bob, "nope")
	require.ErrorIs(t, err, dailymood.ErrUnauthorized)

	_, err = c.PushMood(ctx, alice, "first")
	require.NoError(t, err)
	_, err = c.PushMood(ctx, alice, "second")
	require.NoError(t, err)

	_, err = c.RemoveMoodByIndex(ctx, owner, alice, 0)
	require.NoError(t, err)

	e, err := c.MoodByIndex(ctx, alice, 0)
	require.NoError(t, err)
	assert.Equal(t, "second", e.Text)
	assert.Equal(t, epoch.Unix(), e.Timestamp)

	_, err = c.MoodByIndex(ctx, alice, 1)
	require.ErrorIs(t, err, dailymood.ErrIndexOutOfBounds)

	again, err := l.Attach(ctx, c.ID())
	require.NoError(t, err)
	ok, err := again.IsAllowed(ctx, alice)
	require.NoError(t, err)
	assert.True(t, ok)

	// A second engine with a clock behind the stored rows still appends at
	// the tail of the log.
	late := dailymood.New(s, dailymood.WithClock(func() time.Time { return epoch.Add(-time.Hour) }))
	behind, err := late.Attach(ctx, c.ID())
	require.NoError(t, err)
	_, index, err := behind.PushMoodIndexed(ctx, alice, "third")
	require.NoError(t, err)
	assert.Equal(t, 1, index)
	assert.Equal(t, []string{"second", "third"}, texts(t, s, c.ID(), alice))
}
