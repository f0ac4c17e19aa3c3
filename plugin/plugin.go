// Package plugin provides an extensible plugin system for dailymood.
// Plugins can hook into contract lifecycle events to extend functionality.
package plugin

import (
	"context"

	"github.com/xraph/dailymood/deployment"
	"github.com/xraph/dailymood/id"
	"github.com/xraph/dailymood/mood"
	"github.com/xraph/dailymood/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Contract hooks
// ──────────────────────────────────────────────────

// OnContractDeployed is called after a contract and its seed allowlist are persisted.
type OnContractDeployed interface {
	Plugin
	OnContractDeployed(ctx context.Context, d *deployment.Deployment) error
}

// OnOwnershipTransferred is called when a contract changes owner.
type OnOwnershipTransferred interface {
	Plugin
	OnOwnershipTransferred(ctx context.Context, contractID id.ContractID, previous, next types.Address) error
}

// OnAccessDenied is called when a caller fails an owner or allowlist check.
type OnAccessDenied interface {
	Plugin
	OnAccessDenied(ctx context.Context, contractID id.ContractID, caller types.Address, operation string) error
}

// ──────────────────────────────────────────────────
// Allowlist hooks
// ──────────────────────────────────────────────────

// OnAllowedAdded is called when an address is appended to the allowlist.
type OnAllowedAdded interface {
	Plugin
	OnAllowedAdded(ctx context.Context, contractID id.ContractID, addr types.Address) error
}

// OnAllowedRemoved is called after a remove-allowed call. found is false when
// the address was not present.
type OnAllowedRemoved interface {
	Plugin
	OnAllowedRemoved(ctx context.Context, contractID id.ContractID, addr types.Address, found bool) error
}

// ──────────────────────────────────────────────────
// Mood log hooks
// ──────────────────────────────────────────────────

// OnMoodPushed is called when an entry is appended to a log.
type OnMoodPushed interface {
	Plugin
	OnMoodPushed(ctx context.Context, entry *mood.Entry) error
}

// OnMoodUpdated is called when the text of an entry is replaced.
type OnMoodUpdated interface {
	Plugin
	OnMoodUpdated(ctx context.Context, entry *mood.Entry, index int) error
}

// OnMoodRemoved is called when an entry is removed. index is its position
// before compaction.
type OnMoodRemoved interface {
	Plugin
	OnMoodRemoved(ctx context.Context, entry *mood.Entry, index int) error
}

// OnMoodsCleared is called when a whole log is emptied.
type OnMoodsCleared interface {
	Plugin
	OnMoodsCleared(ctx context.Context, contractID id.ContractID, account types.Address, count int64) error
}
