package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

func newConsoleCmd(a *app) *cobra.Command {
	var history string

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Interactive shell over one open store",
		Long: "Run dailymood commands line by line against a single open store.\n" +
			"Builtins: use <contract>, whoami, help, exit.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rl, err := readline.NewEx(&readline.Config{
				Prompt:          prompt(a),
				HistoryFile:     history,
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return fmt.Errorf("readline: %w", err)
			}
			defer rl.Close()

			fmt.Fprintln(rl.Stdout(), "dailymood console. Type 'help' for commands, 'exit' to quit.")
			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					continue
				}
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}

				done, err := execLine(cmd, a, line, rl.Stdout())
				if err != nil {
					fmt.Fprintln(rl.Stderr(), "error:", err)
				}
				if done {
					return nil
				}
				rl.SetPrompt(prompt(a))
			}
		},
	}
	cmd.Flags().StringVar(&history, "history", "", "history file")
	return cmd
}

// execLine runs one console line. done reports an exit request.
func execLine(parent *cobra.Command, a *app, line string, out io.Writer) (done bool, err error) {
	args, err := splitArgs(line)
	if err != nil || len(args) == 0 {
		return false, err
	}

	switch args[0] {
	case "exit", "quit":
		return true, nil
	case "use":
		if len(args) != 2 {
			return false, errors.New("usage: use <contract>")
		}
		a.cfg.Contract = args[1]
		return false, nil
	case "whoami":
		caller, err := a.caller()
		if err != nil {
			return false, err
		}
		fmt.Fprintln(out, caller.Hex())
		return false, nil
	case "console":
		return false, errors.New("already in a console")
	}

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)
	return false, root.ExecuteContext(parent.Context())
}

func prompt(a *app) string {
	if a.cfg.Contract == "" {
		return "dailymood> "
	}
	id := a.cfg.Contract
	if len(id) > 12 {
		id = id[:12] + "…"
	}
	return "dailymood(" + id + ")> "
}

// splitArgs splits on whitespace, keeping double-quoted runs together.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		quoted  bool
		pending bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			pending = true
		case !quoted && (r == ' ' || r == '\t'):
			if pending {
				args = append(args, cur.String())
				cur.Reset()
				pending = false
			}
		default:
			cur.WriteRune(r)
			pending = true
		}
	}
	if quoted {
		return nil, errors.New("unterminated quote")
	}
	if pending {
		args = append(args, cur.String())
	}
	return args, nil
}
