package verify

import (
	"context"
	"os"
	"os/exec"
)

// openShell spawns $SHELL (falling back to bash) with the given
// working directory, the same "drop the user into an interactive
// shell at this directory" idiom the review loop uses (§4.5).
func (v *Verifier) openShell(dir string) error {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "bash"
	}

	cmd := exec.CommandContext(context.Background(), shell)
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
