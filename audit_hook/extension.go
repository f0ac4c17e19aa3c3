// Package audithook bridges dailymood contract events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import an
// audit backend directly. Callers inject a RecorderFunc adapter at wiring
// time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/dailymood/deployment"
	"github.com/xraph/dailymood/id"
	"github.com/xraph/dailymood/mood"
	"github.com/xraph/dailymood/plugin"
	"github.com/xraph/dailymood/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                 = (*Extension)(nil)
	_ plugin.OnContractDeployed     = (*Extension)(nil)
	_ plugin.OnOwnershipTransferred = (*Extension)(nil)
	_ plugin.OnAccessDenied         = (*Extension)(nil)
	_ plugin.OnAllowedAdded         = (*Extension)(nil)
	_ plugin.OnAllowedRemoved       = (*Extension)(nil)
	_ plugin.OnMoodPushed           = (*Extension)(nil)
	_ plugin.OnMoodUpdated          = (*Extension)(nil)
	_ plugin.OnMoodRemoved          = (*Extension)(nil)
	_ plugin.OnMoodsCleared         = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges contract events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Contract hooks
// ──────────────────────────────────────────────────

// OnContractDeployed implements plugin.OnContractDeployed.
func (e *Extension) OnContractDeployed(ctx context.Context, d *deployment.Deployment) error {
	return e.record(ctx, ActionContractDeployed, SeverityInfo, OutcomeSuccess,
		ResourceContract, d.ID.String(), CategoryGovernance, nil,
		"owner", d.Owner.Hex(),
	)
}

// OnOwnershipTransferred implements plugin.OnOwnershipTransferred.
func (e *Extension) OnOwnershipTransferred(ctx context.Context, contractID id.ContractID, previous, next types.Address) error {
	return e.record(ctx, ActionOwnershipTransferred, SeverityWarning, OutcomeSuccess,
		ResourceContract, contractID.String(), CategoryGovernance, nil,
		"previous_owner", previous.Hex(),
		"new_owner", next.Hex(),
	)
}

// OnAccessDenied implements plugin.OnAccessDenied.
func (e *Extension) OnAccessDenied(ctx context.Context, contractID id.ContractID, caller types.Address, operation string) error {
	return e.record(ctx, ActionAccessDenied, SeverityWarning, OutcomeFailure,
		ResourceContract, contractID.String(), CategoryAccess,
		fmt.Errorf("caller %s denied %s", caller.Hex(), operation),
		"caller", caller.Hex(),
		"operation", operation,
	)
}

// ──────────────────────────────────────────────────
// Allowlist hooks
// ──────────────────────────────────────────────────

// OnAllowedAdded implements plugin.OnAllowedAdded.
func (e *Extension) OnAllowedAdded(ctx context.Context, contractID id.ContractID, addr types.Address) error {
	return e.record(ctx, ActionAllowedAdded, SeverityInfo, OutcomeSuccess,
		ResourceAllowlist, contractID.String(), CategoryAccess, nil,
		"address", addr.Hex(),
		"wildcard", addr == types.ZeroAddress,
	)
}

// OnAllowedRemoved implements plugin.OnAllowedRemoved.
func (e *Extension) OnAllowedRemoved(ctx context.Context, contractID id.ContractID, addr types.Address, found bool) error {
	outcome := OutcomeSuccess
	if !found {
		outcome = OutcomeNoop
	}
	return e.record(ctx, ActionAllowedRemoved, SeverityInfo, outcome,
		ResourceAllowlist, contractID.String(), CategoryAccess, nil,
		"address", addr.Hex(),
		"found", found,
	)
}

// ──────────────────────────────────────────────────
// Mood log hooks
// ──────────────────────────────────────────────────

// OnMoodPushed implements plugin.OnMoodPushed.
func (e *Extension) OnMoodPushed(ctx context.Context, entry *mood.Entry) error {
	return e.record(ctx, ActionMoodPushed, SeverityInfo, OutcomeSuccess,
		ResourceMood, entry.ID.String(), CategoryContent, nil,
		"contract_id", entry.ContractID.String(),
		"account", entry.Account.Hex(),
		"timestamp", entry.Timestamp,
	)
}

// OnMoodUpdated implements plugin.OnMoodUpdated.
func (e *Extension) OnMoodUpdated(ctx context.Context, entry *mood.Entry, index int) error {
	return e.record(ctx, ActionMoodUpdated, SeverityInfo, OutcomeSuccess,
		ResourceMood, entry.ID.String(), CategoryContent, nil,
		"contract_id", entry.ContractID.String(),
		"account", entry.Account.Hex(),
		"index", index,
	)
}

// OnMoodRemoved implements plugin.OnMoodRemoved.
func (e *Extension) OnMoodRemoved(ctx context.Context, entry *mood.Entry, index int) error {
	return e.record(ctx, ActionMoodRemoved, SeverityWarning, OutcomeSuccess,
		ResourceMood, entry.ID.String(), CategoryContent, nil,
		"contract_id", entry.ContractID.String(),
		"account", entry.Account.Hex(),
		"index", index,
	)
}

// OnMoodsCleared implements plugin.OnMoodsCleared.
func (e *Extension) OnMoodsCleared(ctx context.Context, contractID id.ContractID, account types.Address, count int64) error {
	return e.record(ctx, ActionMoodsCleared, SeverityWarning, OutcomeSuccess,
		ResourceMoodLog, contractID.String(), CategoryContent, nil,
		"account", account.Hex(),
		"count", count,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
// Recorder failures are logged and never propagated.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
