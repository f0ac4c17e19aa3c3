package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xraph/dailymood/types"
)

func newOwnerCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "owner", Short: "Contract ownership"}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.contract(cmd.Context())
			if err != nil {
				return err
			}
			owner, err := c.Owner(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), owner.Hex())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "transfer <address>",
		Short: "Hand the contract to a new owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			next, err := types.ParseAddress(args[0])
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
			if err := c.TransferOwnership(cmd.Context(), caller, next); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), next.Hex())
			return nil
		},
	})

	return cmd
}
