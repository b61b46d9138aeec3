// Command rua is the interactive, security-conscious package builder
// described in §1: it resolves transitive build dependencies across
// the local package database and a remote recipe index, drives a
// per-recipe review loop, builds recipes inside a sandbox, verifies
// the resulting archives, and installs them in topological order.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rua-build/rua/internal/buildinfo"
	"github.com/rua-build/rua/internal/config"
	"github.com/rua-build/rua/internal/errmsg"
	"github.com/rua-build/rua/internal/log"
	"github.com/rua-build/rua/internal/rerr"
)

var colorFlag string

// globalCtx is canceled on SIGINT/SIGTERM; blocking operations (remote
// index calls, sandboxed builds, review prompts) take it so Ctrl-C
// cancels cleanly without a rollback (§5 Cancellation).
var globalCtx context.Context
var globalCancel context.CancelFunc

// paths and lock are resolved once in PersistentPreRunE and treated as
// immutable afterward, per §5/§9's "initialization phase then
// immutable Paths-by-reference" rule.
var paths *config.Paths
var lock *config.InstanceLock

var rootCmd = &cobra.Command{
	Use:   "rua",
	Short: "Interactive, sandboxed builder for a source-based package repository",
	Long: `rua resolves the transitive build-dependency graph for one or more
requested packages, walks each recipe through an interactive review
loop, builds untrusted recipes inside a progressively restricted
sandbox, verifies the resulting archives, and installs pacman-repo
dependencies and built packages in topological order.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		applyColor(colorFlag)
		initLogger()

		p, err := config.Init()
		if err != nil {
			return fmt.Errorf("initializing paths: %w", err)
		}
		paths = p

		l, err := p.Lock()
		if err != nil {
			return err
		}
		lock = l
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return lock.Release()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&colorFlag, "color", "auto", "color output: auto, never, always")
	rootCmd.Version = buildinfo.Version()

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(builddirCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(shellcheckCmd)
	rootCmd.AddCommand(tarcheckCmd)
	rootCmd.AddCommand(upgradeCmd)
}

func main() {
	globalCtx, globalCancel = context.WithCancel(context.Background())
	defer globalCancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		fmt.Fprintf(os.Stderr, "\nReceived %s, canceling...\n", sig)
		globalCancel()

		<-sigChan
		fmt.Fprintln(os.Stderr, "Forced exit")
		os.Exit(130)
	}()

	if err := rootCmd.ExecuteContext(globalCtx); err != nil {
		if globalCtx.Err() == context.Canceled {
			os.Exit(130)
		}
		fmt.Fprint(os.Stderr, errmsg.Format(err, nil))
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps err to a process exit code per §6/§7: known rerr
// kinds use their fixed code, a BuildFailure carrying a recorded child
// exit code propagates that code instead, anything else is a general
// failure.
func exitCodeFor(err error) int {
	if e, ok := rerr.As(err); ok {
		if e.Kind == rerr.BuildFailure && e.HasChildExitCode {
			return e.ChildExitCode
		}
		return e.Kind.ExitCode()
	}
	return 1
}

// applyColor sets NOCOLOR/CLICOLOR/CLICOLOR_FORCE before any child is
// spawned, per §6's "Environment written before each child" list.
// This, together with the directory/lock setup above, must complete
// before rootCmd dispatches to a subcommand's RunE.
func applyColor(mode string) {
	switch mode {
	case "never":
		os.Setenv("NOCOLOR", "1")
		os.Setenv("CLICOLOR", "0")
		os.Unsetenv("CLICOLOR_FORCE")
	case "always":
		os.Unsetenv("NOCOLOR")
		os.Setenv("CLICOLOR", "1")
		os.Setenv("CLICOLOR_FORCE", "1")
	default: // auto
		os.Unsetenv("NOCOLOR")
		os.Unsetenv("CLICOLOR_FORCE")
	}
}

func initLogger() {
	level := determineLogLevel()
	handler := log.NewCLIHandler(level)
	log.SetDefault(log.New(handler))
}

// determineLogLevel reads LOG_LEVEL (§6), defaulting to WARN.
func determineLogLevel() slog.Level {
	switch strings.ToLower(os.Getenv(config.EnvLogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
