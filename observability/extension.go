// Package observability provides a metrics extension for dailymood that
// records contract event counts through a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/dailymood/deployment"
	"github.com/xraph/dailymood/id"
	"github.com/xraph/dailymood/mood"
	"github.com/xraph/dailymood/plugin"
	"github.com/xraph/dailymood/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                 = (*MetricsExtension)(nil)
	_ plugin.OnInit                 = (*MetricsExtension)(nil)
	_ plugin.OnContractDeployed     = (*MetricsExtension)(nil)
	_ plugin.OnOwnershipTransferred = (*MetricsExtension)(nil)
	_ plugin.OnAccessDenied         = (*MetricsExtension)(nil)
	_ plugin.OnAllowedAdded         = (*MetricsExtension)(nil)
	_ plugin.OnAllowedRemoved       = (*MetricsExtension)(nil)
	_ plugin.OnMoodPushed           = (*MetricsExtension)(nil)
	_ plugin.OnMoodUpdated          = (*MetricsExtension)(nil)
	_ plugin.OnMoodRemoved          = (*MetricsExtension)(nil)
	_ plugin.OnMoodsCleared         = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide contract metrics.
// Register it as a Ledger plugin to track mood activity.
type MetricsExtension struct {
	factory MetricFactory

	// Contract metrics
	ContractsDeployed    Counter
	OwnershipTransferred Counter

	// Access metrics
	AccessDenied   Counter
	AllowedAdded   Counter
	AllowedRemoved Counter
	AllowedAbsent  Counter
	WildcardAdded  Counter

	// Mood metrics
	MoodsPushed  Counter
	MoodsUpdated Counter
	MoodsRemoved Counter
	LogsCleared  Counter
	MoodLength   Histogram
	ClearedSize  Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Contract metrics
		ContractsDeployed:    factory.Counter("dailymood.contract.deployed"),
		OwnershipTransferred: factory.Counter("dailymood.ownership.transferred"),

		// Access metrics
		AccessDenied:   factory.Counter("dailymood.access.denied"),
		AllowedAdded:   factory.Counter("dailymood.allowlist.added"),
		AllowedRemoved: factory.Counter("dailymood.allowlist.removed"),
		AllowedAbsent:  factory.Counter("dailymood.allowlist.remove_absent"),
		WildcardAdded:  factory.Counter("dailymood.allowlist.wildcard_added"),

		// Mood metrics
		MoodsPushed:  factory.Counter("dailymood.mood.pushed"),
		MoodsUpdated: factory.Counter("dailymood.mood.updated"),
		MoodsRemoved: factory.Counter("dailymood.mood.removed"),
		LogsCleared:  factory.Counter("dailymood.moods.cleared"),
		MoodLength:   factory.Histogram("dailymood.mood.length_bytes"),
		ClearedSize:  factory.Histogram("dailymood.moods.cleared_entries"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	return nil
}

// ──────────────────────────────────────────────────
// Contract hooks
// ──────────────────────────────────────────────────

// OnContractDeployed implements plugin.OnContractDeployed.
func (m *MetricsExtension) OnContractDeployed(_ context.Context, _ *deployment.Deployment) error {
	m.ContractsDeployed.Inc()
	return nil
}

// OnOwnershipTransferred implements plugin.OnOwnershipTransferred.
func (m *MetricsExtension) OnOwnershipTransferred(_ context.Context, _ id.ContractID, _, _ types.Address) error {
	m.OwnershipTransferred.Inc()
	return nil
}

// OnAccessDenied implements plugin.OnAccessDenied.
func (m *MetricsExtension) OnAccessDenied(_ context.Context, _ id.ContractID, _ types.Address, _ string) error {
	m.AccessDenied.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Allowlist hooks
// ──────────────────────────────────────────────────

// OnAllowedAdded implements plugin.OnAllowedAdded.
func (m *MetricsExtension) OnAllowedAdded(_ context.Context, _ id.ContractID, addr types.Address) error {
	m.AllowedAdded.Inc()
	if types.IsZero(addr) {
		m.WildcardAdded.Inc()
	}
	return nil
}

// OnAllowedRemoved implements plugin.OnAllowedRemoved.
func (m *MetricsExtension) OnAllowedRemoved(_ context.Context, _ id.ContractID, _ types.Address, found bool) error {
	if found {
		m.AllowedRemoved.Inc()
	} else {
		m.AllowedAbsent.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Mood log hooks
// ──────────────────────────────────────────────────

// OnMoodPushed implements plugin.OnMoodPushed.
func (m *MetricsExtension) OnMoodPushed(_ context.Context, entry *mood.Entry) error {
	m.MoodsPushed.Inc()
	m.MoodLength.Observe(float64(len(entry.Text)))
	return nil
}

// OnMoodUpdated implements plugin.OnMoodUpdated.
func (m *MetricsExtension) OnMoodUpdated(_ context.Context, entry *mood.Entry, _ int) error {
	m.MoodsUpdated.Inc()
	m.MoodLength.Observe(float64(len(entry.Text)))
	return nil
}

// OnMoodRemoved implements plugin.OnMoodRemoved.
func (m *MetricsExtension) OnMoodRemoved(_ context.Context, _ *mood.Entry, _ int) error {
	m.MoodsRemoved.Inc()
	return nil
}

// OnMoodsCleared implements plugin.OnMoodsCleared.
func (m *MetricsExtension) OnMoodsCleared(_ context.Context, _ id.ContractID, _ types.Address, count int64) error {
	m.LogsCleared.Inc()
	m.ClearedSize.Observe(float64(count))
	return nil
}
