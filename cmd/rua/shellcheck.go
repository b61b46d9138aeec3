package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rua-build/rua/internal/termutil"
)

var shellcheckCmd = &cobra.Command{
	Use:   "shellcheck [path]",
	Short: "Static-check a recipe with shellcheck inside the sandbox",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		dir, cleanup, err := shellcheckDir(args)
		if err != nil {
			return err
		}
		if cleanup != nil {
			defer cleanup()
		}

		sb, err := newSandbox(ctx)
		if err != nil {
			return err
		}

		out, code, err := sb.Shellcheck(ctx, dir)
		if err != nil {
			return err
		}
		fmt.Print(out)
		os.Exit(code)
		return nil
	},
}

// shellcheckDir resolves the directory shellcheck should read
// PKGBUILD from: an explicit path argument (itself, if a directory, or
// its parent, if a file), otherwise stdin when not attached to a
// terminal, otherwise "." (§6 "shellcheck [<path>] — default stdin or
// ./PKGBUILD").
func shellcheckDir(args []string) (dir string, cleanup func(), err error) {
	if len(args) == 1 {
		info, statErr := os.Stat(args[0])
		if statErr == nil && info.IsDir() {
			return args[0], nil, nil
		}
		return filepath.Dir(args[0]), nil, nil
	}

	if !termutil.IsInteractive(os.Stdin) {
		data, readErr := io.ReadAll(os.Stdin)
		if readErr != nil {
			return "", nil, fmt.Errorf("reading stdin: %w", readErr)
		}
		tmp, tmpErr := os.MkdirTemp("", "rua-shellcheck-")
		if tmpErr != nil {
			return "", nil, tmpErr
		}
		if writeErr := os.WriteFile(filepath.Join(tmp, "PKGBUILD"), data, 0o644); writeErr != nil {
			os.RemoveAll(tmp)
			return "", nil, writeErr
		}
		return tmp, func() { os.RemoveAll(tmp) }, nil
	}

	return ".", nil, nil
}
