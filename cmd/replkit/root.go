package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/robbyt/go-replkit"
	"github.com/robbyt/go-replkit/platform"
	"github.com/robbyt/go-replkit/platform/host"
	"github.com/spf13/cobra"
)

var (
	valueColor = color.New(color.FgGreen)
	errorColor = color.New(color.FgRed)
	infoColor  = color.New(color.FgYellow)
)

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "replkit",
		Short: "Interactive Starlark shell",
		Long: `replkit is a reference host for the go-replkit evaluation engine:
an interactive Starlark shell with persistent bindings, multi-line
continuation, and cooperative interruption (Ctrl-C).`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			return runShell(cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", ".replkit.toml",
		"path to the shell config file")
	return cmd
}

func runShell(cmd *cobra.Command, cfg Config) error {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})

	shell, err := replkit.New(
		replkit.WithLogHandler(handler),
		replkit.WithModuleProvider(host.NewStaticModuleProvider(cfg.Modules...)),
		replkit.WithImports(cfg.Imports...),
	)
	if err != nil {
		return fmt.Errorf("failed to create shell: %w", err)
	}

	// Ctrl-C interrupts the running fragment instead of killing the shell.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			if !shell.Interrupt("keyboard interrupt") {
				fmt.Fprintln(cmd.OutOrStdout(), "\n(interrupt; :quit to exit)")
			}
		}
	}()

	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	pending := ""

	for {
		if pending == "" {
			fmt.Fprint(out, cfg.Prompt)
		} else {
			fmt.Fprint(out, cfg.Continuation)
		}
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := scanner.Text()

		if pending == "" {
			if done, handled := runCommand(out, shell, line); handled {
				if done {
					return nil
				}
				continue
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
		}

		fragment := line
		if pending != "" {
			fragment = pending + "\n" + line
		}

		outcome := shell.Evaluate(cmd.Context(), fragment)
		pending = ""

		switch outcome.Kind {
		case platform.Incomplete:
			pending = outcome.Remainder
		case platform.Completed:
			if outcome.HasValue && outcome.Value != "None" {
				valueColor.Fprintln(out, outcome.Value)
			}
		case platform.Interrupted:
			infoColor.Fprintln(out, "interrupted")
		default:
			for _, d := range outcome.Diagnostics {
				errorColor.Fprintln(out, d.String())
			}
		}
	}
}

// runCommand handles shell meta-commands. Returns handled=false for ordinary
// input, and done=true when the shell should exit.
func runCommand(out io.Writer, shell *replkit.Shell, line string) (done, handled bool) {
	switch strings.TrimSpace(line) {
	case ":quit", ":exit":
		return true, true
	case ":reset":
		shell.Reset()
		infoColor.Fprintln(out, "session cleared")
		return false, true
	case ":vars":
		bindings := shell.SnapshotBindings()
		if len(bindings) == 0 {
			infoColor.Fprintln(out, "no bindings")
			return false, true
		}
		for _, b := range bindings {
			fmt.Fprintf(out, "%-16s %-10s %s\n", b.Name, b.Type, b.Value)
		}
		return false, true
	default:
		return false, false
	}
}
