// Package extension provides the Forge extension adapter for dailymood.
//
// It implements the forge.Extension interface to integrate the mood ledger
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.dailymood" or "dailymood" keys.
package extension

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/dailymood"
	"github.com/xraph/dailymood/api"
	"github.com/xraph/dailymood/id"
	"github.com/xraph/dailymood/store"
	"github.com/xraph/dailymood/store/memory"
	"github.com/xraph/dailymood/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "dailymood"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Allowlisted per-account mood logs"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts dailymood as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *dailymood.Ledger
	contract   *dailymood.Contract
	server     *api.Server
	store      store.Store
	ledgerOpts []dailymood.Option
}

// New creates a new dailymood Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Ledger instance.
// This is nil until Register is called.
func (e *Extension) Engine() *dailymood.Ledger { return e.engine }

// Contract returns the contract deployed or attached on start, if any.
func (e *Extension) Contract() *dailymood.Contract { return e.contract }

// Handler returns the HTTP API mounted under the configured base path.
// It is nil until Register is called or when routes are disabled.
func (e *Extension) Handler() http.Handler {
	if e.server == nil {
		return nil
	}
	return e.server.Handler()
}

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	e.engine = dailymood.New(e.store, e.buildLedgerOpts()...)

	if !e.config.DisableRoutes {
		e.server = api.New(e.engine,
			api.WithBasePath(e.config.BasePath),
			api.WithSkew(e.config.SignatureSkew),
		)
	}

	return vessel.Provide(fapp.Container(), func() (*dailymood.Ledger, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("dailymood: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	contract, err := e.resolveContract(ctx)
	if err != nil {
		return err
	}
	e.contract = contract

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("dailymood: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildLedgerOpts constructs dailymood.Option values from the resolved config.
func (e *Extension) buildLedgerOpts() []dailymood.Option {
	opts := make([]dailymood.Option, 0, len(e.ledgerOpts)+1)

	if e.config.PluginTimeout > 0 {
		opts = append(opts, dailymood.WithPluginTimeout(e.config.PluginTimeout))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.ledgerOpts...)

	return opts
}

// resolveContract attaches to ContractID, or deploys for Owner, or does
// nothing when neither is configured.
func (e *Extension) resolveContract(ctx context.Context) (*dailymood.Contract, error) {
	switch {
	case e.config.ContractID != "":
		cid, err := id.ParseContractID(e.config.ContractID)
		if err != nil {
			return nil, fmt.Errorf("dailymood: contract_id: %w", err)
		}
		return e.engine.Attach(ctx, cid)

	case e.config.Owner != "":
		owner, err := types.ParseAddress(e.config.Owner)
		if err != nil {
			return nil, fmt.Errorf("dailymood: owner: %w", err)
		}
		allowed, err := dailymood.ParseAddresses(e.config.AllowedAddresses)
		if err != nil {
			return nil, fmt.Errorf("dailymood: allowed_addresses: %w", err)
		}
		c, err := e.engine.Deploy(ctx, owner, allowed)
		if err != nil {
			return nil, err
		}
		e.Logger().Info("dailymood: contract deployed",
			forge.F("contract_id", c.ID().String()),
			forge.F("owner", owner.Hex()),
		)
		return c, nil
	}
	return nil, nil
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("dailymood: configuration is required but not found in config files; " +
				"ensure 'extensions.dailymood' or 'dailymood' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("dailymood: configuration loaded",
		forge.F("disable_routes", e.config.DisableRoutes),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("base_path", e.config.BasePath),
		forge.F("contract_id", e.config.ContractID),
		forge.F("owner", e.config.Owner),
		forge.F("signature_skew", e.config.SignatureSkew),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	for _, key := range []string{"extensions.dailymood", "dailymood"} {
		if !cm.IsSet(key) {
			continue
		}
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("dailymood: loaded config from file",
				forge.F("key", key),
			)
			return cfg, true
		}
		e.Logger().Warn("dailymood: failed to bind config",
			forge.F("key", key),
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.BasePath == "" {
		cfg.BasePath = defaults.BasePath
	}
	if cfg.AllowedAddresses == nil {
		cfg.AllowedAddresses = defaults.AllowedAddresses
	}
	if cfg.SignatureSkew == 0 {
		cfg.SignatureSkew = defaults.SignatureSkew
	}
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableRoutes {
		yamlConfig.DisableRoutes = true
	}
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.BasePath == "" {
		yamlConfig.BasePath = programmaticConfig.BasePath
	}
	if yamlConfig.ContractID == "" {
		yamlConfig.ContractID = programmaticConfig.ContractID
	}
	if yamlConfig.Owner == "" {
		yamlConfig.Owner = programmaticConfig.Owner
	}
	if yamlConfig.AllowedAddresses == nil {
		yamlConfig.AllowedAddresses = programmaticConfig.AllowedAddresses
	}

	// Durations: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.SignatureSkew == 0 {
		yamlConfig.SignatureSkew = programmaticConfig.SignatureSkew
	}
	if yamlConfig.PluginTimeout == 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}

	// Fill remaining zeros with defaults.
	return mergeWithDefaults(yamlConfig)
}
