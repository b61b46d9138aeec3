package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rua-build/rua/internal/rerr"
	"github.com/rua-build/rua/internal/termutil"
	"github.com/rua-build/rua/internal/verify"
)

var (
	builddirOffline bool
	builddirForce   bool
)

var builddirCmd = &cobra.Command{
	Use:   "builddir [path]",
	Short: "Build an existing recipe directory, verify its archives, and optionally install",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}

		sb, err := newSandbox(ctx)
		if err != nil {
			return err
		}

		if err := sb.Build(ctx, abs, builddirOffline, builddirForce); err != nil {
			return err
		}

		entries, err := os.ReadDir(abs)
		if err != nil {
			return fmt.Errorf("listing %s: %w", abs, err)
		}

		auto := !termutil.StdoutIsTerminal()
		verifier := verify.New(verify.WithAutobuild(auto))

		var archives []string
		for _, e := range entries {
			if e.Type().IsRegular() && verify.IsArchiveName(e.Name()) {
				full := filepath.Join(abs, e.Name())
				if _, err := verifier.Review(full, string(os.PathSeparator)); err != nil {
					return err
				}
				archives = append(archives, full)
			}
		}
		if len(archives) == 0 {
			return rerr.New(rerr.BuildFailure, "build produced no recognized archives in %s", abs)
		}

		if !promptInstall(auto) {
			return nil
		}

		pm, err := newPacman(ctx)
		if err != nil {
			return err
		}
		return pm.InstallArchives(archives, false)
	},
}

func init() {
	builddirCmd.Flags().BoolVarP(&builddirOffline, "offline", "o", false, "build with no network access")
	builddirCmd.Flags().BoolVarP(&builddirForce, "force", "f", false, "rebuild even if the archive already exists")
}

// promptInstall asks whether to install the built archives, defaulting
// to yes in auto mode (non-terminal stdout, §4.9 autobuild semantics).
func promptInstall(auto bool) bool {
	if auto {
		return true
	}
	fmt.Print("Install built packages? [O to install, anything else skips] > ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	for _, r := range line {
		if r == 'o' || r == 'O' {
			return true
		}
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return false
}
