package main

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/xraph/dailymood"
	audithook "github.com/xraph/dailymood/audit_hook"
	"github.com/xraph/dailymood/id"
	"github.com/xraph/dailymood/observability"
	"github.com/xraph/dailymood/store"
	"github.com/xraph/dailymood/store/badger"
	"github.com/xraph/dailymood/store/memory"
	"github.com/xraph/dailymood/store/redis"
	"github.com/xraph/dailymood/types"
)

var errNoContract = errors.New("no contract selected: pass --contract or set DAILYMOOD_CONTRACT")

var errNoKey = errors.New("no signing key: pass --key or set DAILYMOOD_KEY")

// app carries state shared by every command of one process, so console
// sessions reuse a single open store.
type app struct {
	cfg      Config
	logOut   io.Writer
	zl       zerolog.Logger
	logger   *slog.Logger
	registry *prometheus.Registry
	ledger   *dailymood.Ledger
}

func newApp(logOut io.Writer) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logOut: logOut, registry: prometheus.NewRegistry()}, nil
}

// setup validates config and builds loggers. It runs before every command.
func (a *app) setup() error {
	if err := a.cfg.validate(); err != nil {
		return err
	}
	if a.logger != nil {
		return nil
	}
	zl, logger, err := newLogger(a.logOut, a.cfg.LogLevel, a.cfg.LogFormat)
	if err != nil {
		return err
	}
	a.zl, a.logger = zl, logger
	return nil
}

// engine opens the configured store and starts the ledger once.
func (a *app) engine(ctx context.Context) (*dailymood.Ledger, error) {
	if a.ledger != nil {
		return a.ledger, nil
	}

	s, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	l := dailymood.New(s,
		dailymood.WithLogger(a.logger),
		dailymood.WithPlugin(observability.NewMetricsExtension(observability.NewPrometheusFactory(a.registry))),
		dailymood.WithPlugin(audithook.New(audithook.RecorderFunc(a.audit), audithook.WithLogger(a.logger))),
	)
	if err := l.Start(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	a.ledger = l
	return l, nil
}

func (a *app) openStore(ctx context.Context) (store.Store, error) {
	switch a.cfg.Store {
	case "memory":
		return memory.New(), nil
	case "badger":
		return badger.Open(a.cfg.BadgerDir, a.logger)
	case "badger-mem":
		return badger.Open("", a.logger)
	case "redis":
		return redis.Connect(ctx, &goredis.Options{Addr: a.cfg.RedisAddr},
			redis.WithPrefix(a.cfg.RedisPrefix),
			redis.WithLogger(a.logger),
		)
	default:
		return nil, fmt.Errorf("unsupported store %q", a.cfg.Store)
	}
}

// audit writes audit events to the process log.
func (a *app) audit(_ context.Context, evt *audithook.AuditEvent) error {
	e := a.zl.Info()
	if evt.Outcome == audithook.OutcomeFailure {
		e = a.zl.Warn()
	}
	e.Str("action", evt.Action).
		Str("resource", evt.Resource).
		Str("resource_id", evt.ResourceID).
		Str("outcome", evt.Outcome).
		Fields(evt.Metadata).
		Msg("audit")
	return nil
}

// contract attaches to the selected contract.
func (a *app) contract(ctx context.Context) (*dailymood.Contract, error) {
	if a.cfg.Contract == "" {
		return nil, errNoContract
	}
	cid, err := id.ParseContractID(a.cfg.Contract)
	if err != nil {
		return nil, fmt.Errorf("contract: %w", err)
	}
	l, err := a.engine(ctx)
	if err != nil {
		return nil, err
	}
	return l.Attach(ctx, cid)
}

// signer returns the configured key and its address. The address is the
// caller of every mutating command.
func (a *app) signer() (*ecdsa.PrivateKey, types.Address, error) {
	if a.cfg.Key == "" {
		return nil, types.ZeroAddress, errNoKey
	}
	key, err := parseKey(a.cfg.Key)
	if err != nil {
		return nil, types.ZeroAddress, err
	}
	return key, crypto.PubkeyToAddress(key.PublicKey), nil
}

func (a *app) caller() (types.Address, error) {
	_, addr, err := a.signer()
	return addr, err
}

func (a *app) close() error {
	if a.ledger == nil {
		return nil
	}
	err := a.ledger.Stop()
	a.ledger = nil
	return err
}
