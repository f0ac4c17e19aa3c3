package dailymood_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/dailymood"
	"github.com/xraph/dailymood/deployment"
	"github.com/xraph/dailymood/id"
	"github.com/xraph/dailymood/mood"
	"github.com/xraph/dailymood/store/memory"
	"github.com/xraph/dailymood/types"
)

var (
	owner = types.MustParseAddress("0x00000000000000000000000000000000000000aa")
	alice = types.MustParseAddress("0x00000000000000000000000000000000000a11ce")
	bob   = types.MustParseAddress("0x0000000000000000000000000000000000000b0b")
	carol = types.MustParseAddress("0x00000000000000000000000000000000000ca401")
)

// fakeClock advances one second per reading.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newContract(t *testing.T, allowed ...types.Address) (*dailymood.Ledger, *dailymood.Contract) {
	t.Helper()

	clock := &fakeClock{now: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
	l := dailymood.New(memory.New(), dailymood.WithClock(clock.Now))
	require.NoError(t, l.Start(context.Background()))
	t.Cleanup(func() { _ = l.Stop() })

	c, err := l.Deploy(context.Background(), owner, allowed)
	require.NoError(t, err)
	return l, c
}

func moodTexts(t *testing.T, c *dailymood.Contract, account types.Address) []string {
	t.Helper()

	ctx := context.Background()
	n, err := c.MoodsLength(ctx, account)
	require.NoError(t, err)

	out := make([]string, 0, n)
	for i := range n {
		e, err := c.MoodByIndex(ctx, account, i)
		require.NoError(t, err)
		out = append(out, e.Text)
	}
	return out
}

func requireUnauthorized(t *testing.T, err error, account types.Address, role dailymood.Role) {
	t.Helper()

	require.Error(t, err)
	assert.True(t, dailymood.IsUnauthorized(err))

	var ue *dailymood.UnauthorizedAccountError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, account, ue.Account)
	assert.Equal(t, role, ue.Role)
}

func requireOutOfBounds(t *testing.T, err error, index, length int) {
	t.Helper()

	require.Error(t, err)
	assert.True(t, dailymood.IsOutOfBounds(err))
	assert.Contains(t, err.Error(), "index out of bounds")

	var oe *dailymood.IndexOutOfBoundsError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, index, oe.Index)
	assert.Equal(t, length, oe.Length)
}

func TestDeploy(t *testing.T) {
	ctx := context.Background()

	t.Run("SeedsAllowlistInOrder", func(t *testing.T) {
		_, c := newContract(t, alice, bob, alice)

		got, err := c.Owner(ctx)
		require.NoError(t, err)
		assert.Equal(t, owner, got)

		set, err := c.AllowedAddresses(ctx)
		require.NoError(t, err)
		assert.Equal(t, []types.Address{alice, bob, alice}, set)
	})

	t.Run("RejectsZeroOwner", func(t *testing.T) {
		l := dailymood.New(memory.New())
		_, err := l.Deploy(ctx, types.ZeroAddress, nil)
		require.ErrorIs(t, err, dailymood.ErrInvalidOwner)
	})

	t.Run("Attach", func(t *testing.T) {
		l, c := newContract(t, alice)

		again, err := l.Attach(ctx, c.ID())
		require.NoError(t, err)
		assert.Equal(t, c.ID().String(), again.ID().String())

		_, err = l.Attach(ctx, id.NewContractID())
		require.ErrorIs(t, err, dailymood.ErrContractNotFound)
		assert.True(t, dailymood.IsNotFound(err))

		_, err = l.Attach(ctx, id.Nil)
		require.ErrorIs(t, err, dailymood.ErrContractNotFound)
	})
}

func TestWildcard(t *testing.T) {
	ctx := context.Background()
	_, c := newContract(t, types.ZeroAddress)

	for _, addr := range []types.Address{alice, bob, carol, owner} {
		ok, err := c.IsAllowed(ctx, addr)
		require.NoError(t, err)
		assert.True(t, ok, addr.Hex())
	}

	_, err := c.PushMood(ctx, carol, "anyone may write")
	require.NoError(t, err)
}

func TestAllowlist(t *testing.T) {
	ctx := context.Background()

	t.Run("AddKeepsDuplicates", func(t *testing.T) {
		_, c := newContract(t, alice)
		require.NoError(t, c.AddAllowed(ctx, owner, bob))
		require.NoError(t, c.AddAllowed(ctx, owner, bob))

		n, err := c.AllowedAddressLength(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		ok, err := c.IsAllowed(ctx, bob)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("RemoveFirstOccurrence", func(t *testing.T) {
		_, c := newContract(t, alice, bob, alice)
		require.NoError(t, c.RemoveAllowed(ctx, owner, alice))

		set, err := c.AllowedAddresses(ctx)
		require.NoError(t, err)
		assert.Equal(t, []types.Address{bob, alice}, set)

		ok, err := c.IsAllowed(ctx, alice)
		require.NoError(t, err)
		assert.True(t, ok, "second copy still allows alice")
	})

	t.Run("RemoveAbsentIsNoop", func(t *testing.T) {
		_, c := newContract(t, alice, bob)
		require.NoError(t, c.RemoveAllowed(ctx, owner, carol))

		set, err := c.AllowedAddresses(ctx)
		require.NoError(t, err)
		assert.Equal(t, []types.Address{alice, bob}, set)
	})

	t.Run("RemoveWildcard", func(t *testing.T) {
		_, c := newContract(t, types.ZeroAddress, alice)
		require.NoError(t, c.RemoveAllowed(ctx, owner, types.ZeroAddress))

		ok, err := c.IsAllowed(ctx, bob)
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = c.PushMood(ctx, bob, "locked out")
		requireUnauthorized(t, err, bob, dailymood.RoleAllowed)
	})

	t.Run("LengthCountsSentinel", func(t *testing.T) {
		_, c := newContract(t, types.ZeroAddress, types.ZeroAddress)
		n, err := c.AllowedAddressLength(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("OwnerOnly", func(t *testing.T) {
		_, c := newContract(t, types.ZeroAddress)

		requireUnauthorized(t, c.AddAllowed(ctx, alice, bob), alice, dailymood.RoleOwner)
		requireUnauthorized(t, c.RemoveAllowed(ctx, alice, types.ZeroAddress), alice, dailymood.RoleOwner)

		set, err := c.AllowedAddresses(ctx)
		require.NoError(t, err)
		assert.Equal(t, []types.Address{types.ZeroAddress}, set)
	})
}

func TestPushMood(t *testing.T) {
	ctx := context.Background()

	t.Run("AppendsToCallerLog", func(t *testing.T) {
		_, c := newContract(t, alice)

		e, err := c.PushMood(ctx, alice, "happy")
		require.NoError(t, err)
		assert.Equal(t, alice, e.Account)
		assert.Equal(t, "happy", e.Text)
		assert.Equal(t, id.PrefixMood, e.ID.Prefix())

		_, err = c.PushMood(ctx, alice, "sad")
		require.NoError(t, err)

		assert.Equal(t, []string{"happy", "sad"}, moodTexts(t, c, alice))
		assert.Empty(t, moodTexts(t, c, bob))
	})

	t.Run("TimestampsAreUnixSeconds", func(t *testing.T) {
		_, c := newContract(t, alice)

		first, err := c.PushMood(ctx, alice, "a")
		require.NoError(t, err)
		second, err := c.PushMood(ctx, alice, "b")
		require.NoError(t, err)

		assert.Greater(t, second.Timestamp, first.Timestamp)
		assert.Equal(t, first.Timestamp, first.Time().Unix())
	})

	t.Run("NotAllowed", func(t *testing.T) {
		_, c := newContract(t, alice)

		_, err := c.PushMood(ctx, bob, "hello")
		requireUnauthorized(t, err, bob, dailymood.RoleAllowed)

		n, err := c.MoodsLength(ctx, bob)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("EmptyAllowlist", func(t *testing.T) {
		_, c := newContract(t)

		_, err := c.PushMood(ctx, owner, "owner is not implicitly allowed")
		requireUnauthorized(t, err, owner, dailymood.RoleAllowed)
	})
}

func TestMoodByIndex(t *testing.T) {
	ctx := context.Background()
	_, c := newContract(t, alice)

	_, err := c.MoodByIndex(ctx, alice, 0)
	requireOutOfBounds(t, err, 0, 0)

	_, err = c.PushMood(ctx, alice, "only")
	require.NoError(t, err)

	_, err = c.MoodByIndex(ctx, alice, 1)
	requireOutOfBounds(t, err, 1, 1)

	_, err = c.MoodByIndex(ctx, alice, -1)
	requireOutOfBounds(t, err, -1, 1)
}

func TestUpdateMoodByIndex(t *testing.T) {
	ctx := context.Background()

	t.Run("OwnersOwnLog", func(t *testing.T) {
		_, c := newContract(t, owner, alice)

		orig, err := c.PushMood(ctx, owner, "draft")
		require.NoError(t, err)
		_, err = c.PushMood(ctx, alice, "untouched")
		require.NoError(t, err)

		updated, err := c.UpdateMoodByIndex(ctx, owner, 0, "final")
		require.NoError(t, err)
		assert.Equal(t, "final", updated.Text)
		assert.Equal(t, orig.Timestamp, updated.Timestamp)

		got, err := c.MoodByIndex(ctx, owner, 0)
		require.NoError(t, err)
		assert.Equal(t, "final", got.Text)
		assert.Equal(t, orig.Timestamp, got.Timestamp)

		assert.Equal(t, []string{"untouched"}, moodTexts(t, c, alice))
	})

	t.Run("OwnerLogEmpty", func(t *testing.T) {
		_, c := newContract(t, alice)
		_, err := c.PushMood(ctx, alice, "hers")
		require.NoError(t, err)

		_, err = c.UpdateMoodByIndex(ctx, owner, 0, "x")
		requireOutOfBounds(t, err, 0, 0)
		assert.Equal(t, []string{"hers"}, moodTexts(t, c, alice))
	})

	t.Run("AuthBeforeBounds", func(t *testing.T) {
		_, c := newContract(t, alice)

		_, err := c.UpdateMoodByIndex(ctx, alice, 99, "x")
		requireUnauthorized(t, err, alice, dailymood.RoleOwner)
		assert.False(t, dailymood.IsOutOfBounds(err))
	})
}

func TestRemoveMoodByIndex(t *testing.T) {
	ctx := context.Background()

	t.Run("Compacts", func(t *testing.T) {
		_, c := newContract(t, alice)
		for _, text := range []string{"a", "b", "c"} {
			_, err := c.PushMood(ctx, alice, text)
			require.NoError(t, err)
		}
		before, err := c.MoodByIndex(ctx, alice, 2)
		require.NoError(t, err)

		removed, err := c.RemoveMoodByIndex(ctx, owner, alice, 1)
		require.NoError(t, err)
		assert.Equal(t, "b", removed.Text)

		assert.Equal(t, []string{"a", "c"}, moodTexts(t, c, alice))

		after, err := c.MoodByIndex(ctx, alice, 1)
		require.NoError(t, err)
		assert.Equal(t, before.Timestamp, after.Timestamp, "shifted entry keeps its record")
	})

	t.Run("LastAndFirst", func(t *testing.T) {
		_, c := newContract(t, alice)
		for _, text := range []string{"a", "b", "c"} {
			_, err := c.PushMood(ctx, alice, text)
			require.NoError(t, err)
		}

		_, err := c.RemoveMoodByIndex(ctx, owner, alice, 2)
		require.NoError(t, err)
		_, err = c.RemoveMoodByIndex(ctx, owner, alice, 0)
		require.NoError(t, err)

		assert.Equal(t, []string{"b"}, moodTexts(t, c, alice))
	})

	t.Run("OutOfBoundsChangesNothing", func(t *testing.T) {
		_, c := newContract(t, alice)
		_, err := c.PushMood(ctx, alice, "keep")
		require.NoError(t, err)

		_, err = c.RemoveMoodByIndex(ctx, owner, alice, 1)
		requireOutOfBounds(t, err, 1, 1)

		_, err = c.RemoveMoodByIndex(ctx, owner, bob, 0)
		requireOutOfBounds(t, err, 0, 0)

		assert.Equal(t, []string{"keep"}, moodTexts(t, c, alice))
	})

	t.Run("AuthBeforeBounds", func(t *testing.T) {
		_, c := newContract(t, alice)
		_, err := c.PushMood(ctx, alice, "mine")
		require.NoError(t, err)

		_, err = c.RemoveMoodByIndex(ctx, alice, alice, 5)
		requireUnauthorized(t, err, alice, dailymood.RoleOwner)

		_, err = c.RemoveMoodByIndex(ctx, alice, alice, 0)
		requireUnauthorized(t, err, alice, dailymood.RoleOwner)

		assert.Equal(t, []string{"mine"}, moodTexts(t, c, alice))
	})
}

func TestRemoveMoods(t *testing.T) {
	ctx := context.Background()
	_, c := newContract(t, alice, bob)

	for _, text := range []string{"a", "b"} {
		_, err := c.PushMood(ctx, alice, text)
		require.NoError(t, err)
	}
	_, err := c.PushMood(ctx, bob, "bob")
	require.NoError(t, err)

	requireUnauthorized(t, c.RemoveMoods(ctx, alice, alice), alice, dailymood.RoleOwner)
	assert.Len(t, moodTexts(t, c, alice), 2)

	require.NoError(t, c.RemoveMoods(ctx, owner, alice))
	assert.Empty(t, moodTexts(t, c, alice))
	assert.Equal(t, []string{"bob"}, moodTexts(t, c, bob))

	require.NoError(t, c.RemoveMoods(ctx, owner, alice), "clearing an empty log succeeds")

	_, err = c.PushMood(ctx, alice, "fresh")
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, moodTexts(t, c, alice))
}

func TestTransferOwnership(t *testing.T) {
	ctx := context.Background()
	_, c := newContract(t, types.ZeroAddress)

	requireUnauthorized(t, c.TransferOwnership(ctx, alice, alice), alice, dailymood.RoleOwner)
	require.ErrorIs(t, c.TransferOwnership(ctx, owner, types.ZeroAddress), dailymood.ErrInvalidOwner)

	require.NoError(t, c.TransferOwnership(ctx, owner, alice))

	got, err := c.Owner(ctx)
	require.NoError(t, err)
	assert.Equal(t, alice, got)

	requireUnauthorized(t, c.AddAllowed(ctx, owner, bob), owner, dailymood.RoleOwner)
	require.NoError(t, c.AddAllowed(ctx, alice, bob))
}

func TestTransferOwnershipUsesEngineClock(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	l := dailymood.New(memory.New(), dailymood.WithClock(func() time.Time { return now }))

	c, err := l.Deploy(ctx, owner, nil)
	require.NoError(t, err)

	now = now.Add(72 * time.Hour)
	require.NoError(t, c.TransferOwnership(ctx, owner, alice))

	d, err := l.Store().GetDeployment(ctx, c.ID())
	require.NoError(t, err)
	assert.True(t, d.UpdatedAt.Equal(now), "updated_at = %s, want %s", d.UpdatedAt, now)
	assert.True(t, d.CreatedAt.Before(d.UpdatedAt))
}

func TestAppendsStayAtTailAcrossEngines(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	first := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	a := dailymood.New(s, dailymood.WithClock(first.Now))
	c, err := a.Deploy(ctx, owner, []types.Address{alice})
	require.NoError(t, err)
	_, err = c.PushMood(ctx, alice, "first")
	require.NoError(t, err)
	require.NoError(t, c.AddAllowed(ctx, owner, bob))

	// A restarted engine whose clock reads earlier than every stored row.
	behind := &fakeClock{now: time.Date(2024, 3, 1, 11, 59, 0, 0, time.UTC)}
	b := dailymood.New(s, dailymood.WithClock(behind.Now))
	c2, err := b.Attach(ctx, c.ID())
	require.NoError(t, err)

	e, index, err := c2.PushMoodIndexed(ctx, alice, "second")
	require.NoError(t, err)
	assert.Equal(t, 1, index)
	require.NoError(t, c2.AddAllowed(ctx, owner, carol))

	assert.Equal(t, []string{"first", "second"}, moodTexts(t, c2, alice))
	got, err := c2.MoodByIndex(ctx, alice, index)
	require.NoError(t, err)
	assert.Equal(t, e.ID.String(), got.ID.String())

	addrs, err := c2.AllowedAddresses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.Address{alice, bob, carol}, addrs)
}

func TestConcurrentPushes(t *testing.T) {
	ctx := context.Background()
	_, c := newContract(t, types.ZeroAddress)

	const writers, perWriter = 8, 25
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		indexed = make(map[int]id.MoodID)
	)
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWriter {
				e, index, err := c.PushMoodIndexed(ctx, alice, "x")
				if !assert.NoError(t, err) {
					continue
				}
				mu.Lock()
				indexed[index] = e.ID
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	n, err := c.MoodsLength(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, writers*perWriter, n)
	assert.Len(t, indexed, n, "every push reports a distinct index")

	// Seq order is strict, so neighbouring entries never tie.
	var last int64
	for i := range n {
		e, err := c.MoodByIndex(ctx, alice, i)
		require.NoError(t, err)
		assert.Greater(t, e.Seq, last)
		assert.Equal(t, indexed[i].String(), e.ID.String())
		last = e.Seq
	}
}

// recorder captures every event it receives.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) add(ev string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) OnContractDeployed(_ context.Context, _ *deployment.Deployment) error {
	r.add("deployed")
	return nil
}

func (r *recorder) OnAllowedAdded(_ context.Context, _ id.ContractID, _ types.Address) error {
	r.add("allowed_added")
	return nil
}

func (r *recorder) OnAllowedRemoved(_ context.Context, _ id.ContractID, _ types.Address, found bool) error {
	if found {
		r.add("allowed_removed")
	} else {
		r.add("allowed_absent")
	}
	return nil
}

func (r *recorder) OnMoodPushed(_ context.Context, _ *mood.Entry) error {
	r.add("pushed")
	return nil
}

func (r *recorder) OnMoodUpdated(_ context.Context, _ *mood.Entry, _ int) error {
	r.add("updated")
	return nil
}

func (r *recorder) OnMoodRemoved(_ context.Context, _ *mood.Entry, _ int) error {
	r.add("removed")
	return nil
}

func (r *recorder) OnMoodsCleared(_ context.Context, _ id.ContractID, _ types.Address, _ int64) error {
	r.add("cleared")
	return nil
}

func (r *recorder) OnAccessDenied(_ context.Context, _ id.ContractID, _ types.Address, operation string) error {
	r.add("denied:" + operation)
	return nil
}

func (r *recorder) OnOwnershipTransferred(_ context.Context, _ id.ContractID, _, _ types.Address) error {
	r.add("transferred")
	return errors.New("hook errors are logged, not returned")
}

func TestEvents(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	l := dailymood.New(memory.New(), dailymood.WithPlugin(rec))
	require.NoError(t, l.Start(ctx))

	c, err := l.Deploy(ctx, owner, []types.Address{owner})
	require.NoError(t, err)

	require.NoError(t, c.AddAllowed(ctx, owner, alice))
	require.NoError(t, c.RemoveAllowed(ctx, owner, bob))
	_, err = c.PushMood(ctx, owner, "a")
	require.NoError(t, err)
	_, err = c.UpdateMoodByIndex(ctx, owner, 0, "b")
	require.NoError(t, err)
	_, err = c.RemoveMoodByIndex(ctx, owner, owner, 0)
	require.NoError(t, err)
	require.NoError(t, c.RemoveMoods(ctx, owner, owner))
	_, err = c.PushMood(ctx, bob, "no")
	require.Error(t, err)
	require.NoError(t, c.TransferOwnership(ctx, owner, alice))

	assert.Equal(t, []string{
		"deployed",
		"allowed_added",
		"allowed_absent",
		"pushed",
		"updated",
		"removed",
		"cleared",
		"denied:push_mood",
		"transferred",
	}, rec.snapshot())

	require.NoError(t, l.Stop())
}

func TestParseAddresses(t *testing.T) {
	got, err := dailymood.ParseAddresses([]string{
		"0x0000000000000000000000000000000000000000",
		" 0x00000000000000000000000000000000000a11ce ",
	})
	require.NoError(t, err)
	assert.Equal(t, []types.Address{types.ZeroAddress, alice}, got)

	_, err = dailymood.ParseAddresses([]string{"0x1234", alice.Hex(), "not-an-address"})
	require.Error(t, err)
	assert.ErrorIs(t, err, dailymood.ErrInvalidInput)
	assert.ErrorIs(t, err, dailymood.ErrInvalidAddress)

	var multi dailymood.MultiError
	require.ErrorAs(t, err, &multi)
	assert.Len(t, multi.Errors, 2)
}
