package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/dailymood/deployment"
	"github.com/xraph/dailymood/id"
	"github.com/xraph/dailymood/mood"
	"github.com/xraph/dailymood/types"
)

// DefaultTimeout bounds a single hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit                 []OnInit
	onShutdown             []OnShutdown
	onContractDeployed     []OnContractDeployed
	onOwnershipTransferred []OnOwnershipTransferred
	onAccessDenied         []OnAccessDenied
	onAllowedAdded         []OnAllowedAdded
	onAllowedRemoved       []OnAllowedRemoved
	onMoodPushed           []OnMoodPushed
	onMoodUpdated          []OnMoodUpdated
	onMoodRemoved          []OnMoodRemoved
	onMoodsCleared         []OnMoodsCleared
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout. Non-positive values are ignored.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnContractDeployed); ok {
		r.onContractDeployed = append(r.onContractDeployed, v)
	}
	if v, ok := p.(OnOwnershipTransferred); ok {
		r.onOwnershipTransferred = append(r.onOwnershipTransferred, v)
	}
	if v, ok := p.(OnAccessDenied); ok {
		r.onAccessDenied = append(r.onAccessDenied, v)
	}
	if v, ok := p.(OnAllowedAdded); ok {
		r.onAllowedAdded = append(r.onAllowedAdded, v)
	}
	if v, ok := p.(OnAllowedRemoved); ok {
		r.onAllowedRemoved = append(r.onAllowedRemoved, v)
	}
	if v, ok := p.(OnMoodPushed); ok {
		r.onMoodPushed = append(r.onMoodPushed, v)
	}
	if v, ok := p.(OnMoodUpdated); ok {
		r.onMoodUpdated = append(r.onMoodUpdated, v)
	}
	if v, ok := p.(OnMoodRemoved); ok {
		r.onMoodRemoved = append(r.onMoodRemoved, v)
	}
	if v, ok := p.(OnMoodsCleared); ok {
		r.onMoodsCleared = append(r.onMoodsCleared, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnContractDeployed)(nil)).Elem(), "OnContractDeployed")
	checkInterface(reflect.TypeOf((*OnOwnershipTransferred)(nil)).Elem(), "OnOwnershipTransferred")
	checkInterface(reflect.TypeOf((*OnAccessDenied)(nil)).Elem(), "OnAccessDenied")
	checkInterface(reflect.TypeOf((*OnAllowedAdded)(nil)).Elem(), "OnAllowedAdded")
	checkInterface(reflect.TypeOf((*OnAllowedRemoved)(nil)).Elem(), "OnAllowedRemoved")
	checkInterface(reflect.TypeOf((*OnMoodPushed)(nil)).Elem(), "OnMoodPushed")
	checkInterface(reflect.TypeOf((*OnMoodUpdated)(nil)).Elem(), "OnMoodUpdated")
	checkInterface(reflect.TypeOf((*OnMoodRemoved)(nil)).Elem(), "OnMoodRemoved")
	checkInterface(reflect.TypeOf((*OnMoodsCleared)(nil)).Elem(), "OnMoodsCleared")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnInit", p.Name(), func() error {
			return p.OnInit(ctx, engine)
		})
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnShutdown", p.Name(), func() error {
			return p.OnShutdown(ctx)
		})
	}
}

// EmitContractDeployed emits a contract deployed event.
func (r *Registry) EmitContractDeployed(ctx context.Context, d *deployment.Deployment) {
	r.mu.RLock()
	plugins := r.onContractDeployed
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnContractDeployed", p.Name(), func() error {
			return p.OnContractDeployed(ctx, d)
		})
	}
}

// EmitOwnershipTransferred emits an ownership transferred event.
func (r *Registry) EmitOwnershipTransferred(ctx context.Context, contractID id.ContractID, previous, next types.Address) {
	r.mu.RLock()
	plugins := r.onOwnershipTransferred
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnOwnershipTransferred", p.Name(), func() error {
			return p.OnOwnershipTransferred(ctx, contractID, previous, next)
		})
	}
}

// EmitAccessDenied emits an access denied event.
func (r *Registry) EmitAccessDenied(ctx context.Context, contractID id.ContractID, caller types.Address, operation string) {
	r.mu.RLock()
	plugins := r.onAccessDenied
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnAccessDenied", p.Name(), func() error {
			return p.OnAccessDenied(ctx, contractID, caller, operation)
		})
	}
}

// EmitAllowedAdded emits an allowlist append event.
func (r *Registry) EmitAllowedAdded(ctx context.Context, contractID id.ContractID, addr types.Address) {
	r.mu.RLock()
	plugins := r.onAllowedAdded
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnAllowedAdded", p.Name(), func() error {
			return p.OnAllowedAdded(ctx, contractID, addr)
		})
	}
}

// EmitAllowedRemoved emits an allowlist removal event.
func (r *Registry) EmitAllowedRemoved(ctx context.Context, contractID id.ContractID, addr types.Address, found bool) {
	r.mu.RLock()
	plugins := r.onAllowedRemoved
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnAllowedRemoved", p.Name(), func() error {
			return p.OnAllowedRemoved(ctx, contractID, addr, found)
		})
	}
}

// EmitMoodPushed emits a mood pushed event.
func (r *Registry) EmitMoodPushed(ctx context.Context, entry *mood.Entry) {
	r.mu.RLock()
	plugins := r.onMoodPushed
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnMoodPushed", p.Name(), func() error {
			return p.OnMoodPushed(ctx, entry)
		})
	}
}

// EmitMoodUpdated emits a mood updated event.
func (r *Registry) EmitMoodUpdated(ctx context.Context, entry *mood.Entry, index int) {
	r.mu.RLock()
	plugins := r.onMoodUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnMoodUpdated", p.Name(), func() error {
			return p.OnMoodUpdated(ctx, entry, index)
		})
	}
}

// EmitMoodRemoved emits a mood removed event.
func (r *Registry) EmitMoodRemoved(ctx context.Context, entry *mood.Entry, index int) {
	r.mu.RLock()
	plugins := r.onMoodRemoved
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnMoodRemoved", p.Name(), func() error {
			return p.OnMoodRemoved(ctx, entry, index)
		})
	}
}

// EmitMoodsCleared emits a log cleared event.
func (r *Registry) EmitMoodsCleared(ctx context.Context, contractID id.ContractID, account types.Address, count int64) {
	r.mu.RLock()
	plugins := r.onMoodsCleared
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnMoodsCleared", p.Name(), func() error {
			return p.OnMoodsCleared(ctx, contractID, account, count)
		})
	}
}

// dispatch runs one hook and logs its failure. Hook errors never reach the caller.
func (r *Registry) dispatch(ctx context.Context, hook, pluginName string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", pluginName,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block a contract call.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
