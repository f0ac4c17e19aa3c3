package dailymood

import "github.com/xraph/dailymood/types"

// Re-export common types for convenience so users don't have to import types package.

// Address is re-exported from types package.
type Address = types.Address

// Entity is re-exported from types package.
type Entity = types.Entity

// ZeroAddress is the allowlist wildcard.
var ZeroAddress = types.ZeroAddress

// Re-export constructors and parsers
var (
	NewEntity        = types.NewEntity
	ParseAddress     = types.ParseAddress
	MustParseAddress = types.MustParseAddress
)
