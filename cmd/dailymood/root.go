package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "dailymood",
		Short:         "Allowlisted per-account mood logs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.cfg.Store, "store", a.cfg.Store, "store backend: memory, badger, badger-mem, redis")
	f.StringVar(&a.cfg.BadgerDir, "data", a.cfg.BadgerDir, "badger data directory")
	f.StringVar(&a.cfg.RedisAddr, "redis", a.cfg.RedisAddr, "redis address")
	f.StringVar(&a.cfg.RedisPrefix, "redis-prefix", a.cfg.RedisPrefix, "redis key prefix")
	f.StringVarP(&a.cfg.Contract, "contract", "c", a.cfg.Contract, "contract id")
	f.StringVarP(&a.cfg.Key, "key", "k", a.cfg.Key, "hex signing key of the caller")
	f.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level")
	f.StringVar(&a.cfg.LogFormat, "log-format", a.cfg.LogFormat, "log format: console, json")

	root.AddCommand(
		newDeployCmd(a),
		newOwnerCmd(a),
		newAllowCmd(a),
		newMoodCmd(a),
		newKeygenCmd(),
		newServeCmd(a),
		newConsoleCmd(a),
	)
	return root
}
