package audithook

// Action constants for audit events.
const (
	// Contract actions
	ActionContractDeployed     = "contract.deployed"
	ActionOwnershipTransferred = "ownership.transferred"
	ActionAccessDenied         = "access.denied"

	// Allowlist actions
	ActionAllowedAdded   = "allowlist.added"
	ActionAllowedRemoved = "allowlist.removed"

	// Mood actions
	ActionMoodPushed   = "mood.pushed"
	ActionMoodUpdated  = "mood.updated"
	ActionMoodRemoved  = "mood.removed"
	ActionMoodsCleared = "moods.cleared"
)

// Resource constants for audit events.
const (
	ResourceContract  = "contract"
	ResourceAllowlist = "allowlist"
	ResourceMood      = "mood"
	ResourceMoodLog   = "mood_log"
)

// Category constants for audit events.
const (
	CategoryGovernance = "governance"
	CategoryAccess     = "access"
	CategoryContent    = "content"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeNoop    = "noop"
)
