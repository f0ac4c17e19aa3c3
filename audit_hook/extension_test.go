package audithook_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/dailymood"
	audithook "github.com/xraph/dailymood/audit_hook"
	"github.com/xraph/dailymood/store/memory"
	"github.com/xraph/dailymood/types"
)

type sink struct {
	mu     sync.Mutex
	events []*audithook.AuditEvent
}

func (s *sink) record(_ context.Context, evt *audithook.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return nil
}

func (s *sink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.Action
	}
	return out
}

var (
	owner = types.MustParseAddress("0x1000000000000000000000000000000000000001")
	alice = types.MustParseAddress("0x2000000000000000000000000000000000000002")
	bob   = types.MustParseAddress("0x3000000000000000000000000000000000000003")
)

func newLedger(t *testing.T, ext *audithook.Extension) *dailymood.Ledger {
	t.Helper()
	return dailymood.New(memory.New(),
		dailymood.WithLogger(slog.New(slog.DiscardHandler)),
		dailymood.WithPlugin(ext),
	)
}

func TestExtensionRecordsContractEvents(t *testing.T) {
	ctx := context.Background()
	s := &sink{}
	l := newLedger(t, audithook.New(audithook.RecorderFunc(s.record)))

	c, err := l.Deploy(ctx, owner, []types.Address{alice})
	require.NoError(t, err)

	_, err = c.PushMood(ctx, alice, "calm")
	require.NoError(t, err)
	_, err = c.PushMood(ctx, bob, "sneaky")
	require.ErrorIs(t, err, dailymood.ErrUnauthorized)
	require.NoError(t, c.RemoveAllowed(ctx, owner, bob))
	require.NoError(t, c.RemoveMoods(ctx, owner, alice))

	assert.Equal(t, []string{
		audithook.ActionContractDeployed,
		audithook.ActionMoodPushed,
		audithook.ActionAccessDenied,
		audithook.ActionAllowedRemoved,
		audithook.ActionMoodsCleared,
	}, s.actions())

	denied := s.events[2]
	assert.Equal(t, audithook.OutcomeFailure, denied.Outcome)
	assert.Equal(t, c.ID().String(), denied.ResourceID)
	assert.Equal(t, "push_mood", denied.Metadata["operation"])
	assert.NotEmpty(t, denied.Reason)

	absent := s.events[3]
	assert.Equal(t, audithook.OutcomeNoop, absent.Outcome)
	assert.Equal(t, false, absent.Metadata["found"])

	cleared := s.events[4]
	assert.EqualValues(t, 1, cleared.Metadata["count"])
}

func TestExtensionActionFilters(t *testing.T) {
	ctx := context.Background()

	t.Run("enabled", func(t *testing.T) {
		s := &sink{}
		l := newLedger(t, audithook.New(audithook.RecorderFunc(s.record),
			audithook.WithEnabledActions(audithook.ActionMoodPushed)))

		c, err := l.Deploy(ctx, owner, []types.Address{types.ZeroAddress})
		require.NoError(t, err)
		_, err = c.PushMood(ctx, bob, "open door")
		require.NoError(t, err)

		assert.Equal(t, []string{audithook.ActionMoodPushed}, s.actions())
	})

	t.Run("disabled", func(t *testing.T) {
		s := &sink{}
		l := newLedger(t, audithook.New(audithook.RecorderFunc(s.record),
			audithook.WithDisabledActions(audithook.ActionContractDeployed)))

		c, err := l.Deploy(ctx, owner, nil)
		require.NoError(t, err)
		require.NoError(t, c.AddAllowed(ctx, owner, alice))

		assert.Equal(t, []string{audithook.ActionAllowedAdded}, s.actions())
	})
}

func TestExtensionRecorderFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	calls := 0
	rec := audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		calls++
		return errors.New("backend down")
	})
	l := newLedger(t, audithook.New(rec, audithook.WithLogger(slog.New(slog.DiscardHandler))))

	c, err := l.Deploy(ctx, owner, []types.Address{owner})
	require.NoError(t, err)
	_, err = c.PushMood(ctx, owner, "fine")
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}
