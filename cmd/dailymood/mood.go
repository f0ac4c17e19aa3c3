package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xraph/dailymood/mood"
	"github.com/xraph/dailymood/types"
)

func newMoodCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "mood", Short: "Read and write mood logs"}

	cmd.AddCommand(&cobra.Command{
		Use:   "push <text>...",
		Short: "Append a mood to the caller's log",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			c, err := a.contract(cmd.Context())
			if err != nil {
				return err
			}
			e, index, err := c.PushMoodIndexed(cmd.Context(), caller, strings.Join(args, " "))
			if err != nil {
				return err
			}
			printEntry(cmd.OutOrStdout(), index, e)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "len [account]",
		Short: "Print the length of a log (default: the caller's)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := accountArg(a, args)
			if err != nil {
				return err
			}
			c, err := a.contract(cmd.Context())
			if err != nil {
				return err
			}
			n, err := c.MoodsLength(cmd.Context(), account)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <account> <index>",
		Short: "Print one entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, index, err := logArgs(args)
			if err != nil {
				return err
			}
			c, err := a.contract(cmd.Context())
			if err != nil {
				return err
			}
			e, err := c.MoodByIndex(cmd.Context(), account, index)
			if err != nil {
				return err
			}
			printEntry(cmd.OutOrStdout(), index, e)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "update <index> <text>...",
		Short: "Replace the text of an entry in the owner's own log",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}
			caller, err := a.caller()
			if err != nil {
				return err
			}
			c, err := a.contract(cmd.Context())
			if err != nil {
				return err
			}
			e, err := c.UpdateMoodByIndex(cmd.Context(), caller, index, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			printEntry(cmd.OutOrStdout(), index, e)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <account> <index>",
		Short: "Delete an entry and shift later ones down",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, index, err := logArgs(args)
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
			e, err := c.RemoveMoodByIndex(cmd.Context(), caller, account, index)
			if err != nil {
				return err
			}
			printEntry(cmd.OutOrStdout(), index, e)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear <account>",
		Short: "Empty a log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := types.ParseAddress(args[0])
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
			return c.RemoveMoods(cmd.Context(), caller, account)
		},
	})

	return cmd
}

func accountArg(a *app, args []string) (types.Address, error) {
	if len(args) == 1 {
		return types.ParseAddress(args[0])
	}
	return a.caller()
}

func logArgs(args []string) (types.Address, int, error) {
	account, err := types.ParseAddress(args[0])
	if err != nil {
		return types.ZeroAddress, 0, err
	}
	index, err := strconv.Atoi(args[1])
	if err != nil {
		return types.ZeroAddress, 0, fmt.Errorf("index: %w", err)
	}
	return account, index, nil
}

func printEntry(w io.Writer, index int, e *mood.Entry) {
	fmt.Fprintf(w, "%d\t%s\t%s\n", index, e.Time().Format(time.RFC3339), e.Text)
}
