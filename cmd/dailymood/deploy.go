package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xraph/dailymood"
	"github.com/xraph/dailymood/types"
)

func newDeployCmd(a *app) *cobra.Command {
	var owner string
	allowed := []string{types.ZeroAddress.Hex()}

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy a contract and print its id",
		Long: "Deploy a contract owned by --owner, or by the signing key when --owner is empty.\n" +
			"The allowlist defaults to the zero address, which allows every account.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var ownerAddr types.Address
			if owner != "" {
				parsed, err := types.ParseAddress(owner)
				if err != nil {
					return err
				}
				ownerAddr = parsed
			} else {
				caller, err := a.caller()
				if err != nil {
					return fmt.Errorf("owner: %w", err)
				}
				ownerAddr = caller
			}

			seed, err := dailymood.ParseAddresses(allowed)
			if err != nil {
				return err
			}

			l, err := a.engine(ctx)
			if err != nil {
				return err
			}
			c, err := l.Deploy(ctx, ownerAddr, seed)
			if err != nil {
				return err
			}

			a.cfg.Contract = c.ID().String()
			fmt.Fprintln(cmd.OutOrStdout(), c.ID().String())
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner address (default: signing key address)")
	cmd.Flags().StringSliceVar(&allowed, "allow", allowed, "initial allowlist, in order")
	return cmd
}
