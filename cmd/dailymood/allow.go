package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xraph/dailymood"
	"github.com/xraph/dailymood/types"
)

func newAllowCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "allow", Short: "Manage the allowlist"}

	// mutate runs an owner-only allowlist change for one address.
	mutate := func(use, short string, op func(*dailymood.Contract, *cobra.Command, types.Address, types.Address) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <address>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				addr, err := types.ParseAddress(args[0])
				if err != nil {
					return err
				}
				caller, err := a.caller()
				if err != nil {
					return err
				}
				c, err := a.contract(cmd.Context())
				if err != nil {
					return err
				}
				return op(c, cmd, caller, addr)
			},
		}
	}

	cmd.AddCommand(mutate("add", "Append an address", func(c *dailymood.Contract, cmd *cobra.Command, caller, addr types.Address) error {
		return c.AddAllowed(cmd.Context(), caller, addr)
	}))
	cmd.AddCommand(mutate("remove", "Remove the first occurrence of an address", func(c *dailymood.Contract, cmd *cobra.Command, caller, addr types.Address) error {
		return c.RemoveAllowed(cmd.Context(), caller, addr)
	}))

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print the allowlist in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.contract(cmd.Context())
			if err != nil {
				return err
			}
			set, err := c.AllowedAddresses(cmd.Context())
			if err != nil {
				return err
			}
			for _, addr := range set {
				fmt.Fprintln(cmd.OutOrStdout(), addr.Hex())
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check <address>",
		Short: "Report whether an address may push moods",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := types.ParseAddress(args[0])
			if err != nil {
				return err
			}
			c, err := a.contract(cmd.Context())
			if err != nil {
				return err
			}
			ok, err := c.IsAllowed(cmd.Context(), addr)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ok)
			return nil
		},
	})

	return cmd
}
