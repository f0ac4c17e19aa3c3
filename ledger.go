package dailymood

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/dailymood/allowlist"
	"github.com/xraph/dailymood/deployment"
	"github.com/xraph/dailymood/id"
	"github.com/xraph/dailymood/plugin"
	"github.com/xraph/dailymood/store"
	"github.com/xraph/dailymood/types"
)

// Ledger is the engine that deploys and serves mood contracts over a store.
type Ledger struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	clock   func() time.Time

	// writeMu serialises every mutating contract call, so calls are
	// applied one at a time in a single global order.
	writeMu sync.Mutex
	lastSeq int64
}

// New creates a new Ledger instance.
func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:   s,
		plugins: plugin.NewRegistry(),
		logger:  slog.Default(),
		clock:   time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithClock replaces the time source used for mood timestamps and record
// bookkeeping.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(l *Ledger) {
		l.plugins.WithTimeout(d)
	}
}

// Start migrates the store and initializes plugins.
func (l *Ledger) Start(ctx context.Context) error {
	if err := l.store.Migrate(ctx); err != nil {
		return err
	}

	l.plugins.EmitInit(ctx, l)

	l.logger.Info("dailymood ledger started",
		"plugins", l.plugins.Count(),
	)

	return nil
}

// Stop shuts down plugins and closes the store.
func (l *Ledger) Stop() error {
	ctx := context.Background()
	l.plugins.EmitShutdown(ctx)

	return l.store.Close()
}

// Store returns the underlying store.
func (l *Ledger) Store() store.Store {
	return l.store
}

// Plugins returns the plugin registry.
func (l *Ledger) Plugins() *plugin.Registry {
	return l.plugins
}

// ──────────────────────────────────────────────────
// Contracts
// ──────────────────────────────────────────────────

// Deploy creates a contract owned by owner and seeds its allowlist with
// allowed, in order. Duplicates and the zero address are kept as given.
func (l *Ledger) Deploy(ctx context.Context, owner types.Address, allowed []types.Address) (*Contract, error) {
	if types.IsZero(owner) {
		return nil, ErrInvalidOwner
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	now := l.clock()
	d := &deployment.Deployment{
		Entity: types.NewEntity(now),
		ID:     id.NewContractID(),
		Owner:  owner,
	}

	seed := make([]*allowlist.Member, len(allowed))
	for i, addr := range allowed {
		seed[i] = &allowlist.Member{
			Entity:     types.NewEntity(now),
			ID:         id.NewMemberID(),
			ContractID: d.ID,
			Address:    addr,
			Seq:        l.nextSeq(now, 0),
		}
	}

	if err := l.store.CreateDeployment(ctx, d, seed); err != nil {
		return nil, fmt.Errorf("dailymood: deploy: %w", err)
	}

	l.plugins.EmitContractDeployed(ctx, d)

	l.logger.Info("contract deployed",
		"contract_id", d.ID.String(),
		"owner", d.Owner.Hex(),
		"allowed", len(seed),
	)

	return &Contract{ledger: l, id: d.ID}, nil
}

// Attach returns a handle to an existing contract.
func (l *Ledger) Attach(ctx context.Context, contractID id.ContractID) (*Contract, error) {
	if contractID.IsNil() {
		return nil, ErrContractNotFound
	}
	if _, err := l.store.GetDeployment(ctx, contractID); err != nil {
		return nil, err
	}
	return &Contract{ledger: l, id: contractID}, nil
}

// nextSeq returns a strictly increasing ordering key that also sorts after
// floor, the highest seq already stored in the log being appended to. The
// floor keeps appends at the tail when the store was written by another
// engine or before a restart. Callers hold writeMu.
func (l *Ledger) nextSeq(now time.Time, floor int64) int64 {
	seq := now.UnixNano()
	if last := max(l.lastSeq, floor); seq <= last {
		seq = last + 1
	}
	l.lastSeq = seq
	return seq
}
