package extension

import "time"

// Config holds the dailymood extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.dailymood" or "dailymood" keys).
type Config struct {
	// DisableRoutes prevents building the HTTP API handler.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for dailymood routes (default: "/dailymood").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// ContractID attaches to an existing contract on start.
	ContractID string `json:"contract_id" mapstructure:"contract_id" yaml:"contract_id"`

	// Owner deploys a new contract on start when ContractID is empty.
	Owner string `json:"owner" mapstructure:"owner" yaml:"owner"`

	// AllowedAddresses seeds the allowlist of a contract deployed on start
	// (default: the zero address, allowing everyone).
	AllowedAddresses []string `json:"allowed_addresses" mapstructure:"allowed_addresses" yaml:"allowed_addresses"`

	// SignatureSkew is the accepted request signature clock skew (default: 5m).
	SignatureSkew time.Duration `json:"signature_skew" mapstructure:"signature_skew" yaml:"signature_skew"`

	// PluginTimeout bounds each plugin hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath:         "/dailymood",
		AllowedAddresses: []string{"0x0000000000000000000000000000000000000000"},
		SignatureSkew:    5 * time.Minute,
		PluginTimeout:    5 * time.Second,
	}
}
