package extension

import (
	"time"

	"github.com/xraph/dailymood"
	"github.com/xraph/dailymood/plugin"
	"github.com/xraph/dailymood/store"
)

// Option configures the dailymood Forge extension.
type Option func(*Extension)

// WithStore sets the store for the dailymood engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithLedgerOption passes a dailymood.Option through to the underlying engine.
func WithLedgerOption(opt dailymood.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a dailymood plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, dailymood.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableRoutes prevents building the HTTP API handler.
func WithDisableRoutes() Option {
	return func(e *Extension) { e.config.DisableRoutes = true }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithBasePath sets the URL prefix for dailymood routes.
func WithBasePath(path string) Option {
	return func(e *Extension) { e.config.BasePath = path }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithContractID attaches to an existing contract on start.
func WithContractID(contractID string) Option {
	return func(e *Extension) { e.config.ContractID = contractID }
}

// WithDeploy deploys a contract owned by owner on start, seeded with allowed.
func WithDeploy(owner string, allowed ...string) Option {
	return func(e *Extension) {
		e.config.Owner = owner
		if len(allowed) > 0 {
			e.config.AllowedAddresses = allowed
		}
	}
}

// WithSignatureSkew sets the accepted request signature clock skew.
func WithSignatureSkew(d time.Duration) Option {
	return func(e *Extension) { e.config.SignatureSkew = d }
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.PluginTimeout = d }
}
