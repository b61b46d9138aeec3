package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/rua-build/rua/internal/rerr"
)

// shellcheckWrapper seeds shell-script variables the recipe format
// leaves undefined (pkgname/pkgver/pkgrel/arch), per §4.5's "the
// tool's stdin receives a wrapper that seeds shell-script variables
// the recipe format leaves undefined" — without these, shellcheck
// flags every reference to $pkgname as an unset variable.
const shellcheckWrapper = "pkgname=tmp\npkgver=1\npkgrel=1\narch=(x86_64)\n"

// Shellcheck runs the static-analysis tool on dir/PKGBUILD inside a
// fully-unshared sandbox (no network, no process view), seeding the
// wrapper variables via stdin (§4.5). It returns shellcheck's combined
// output; a non-zero exit from shellcheck is not itself a
// rerr.BuildFailure (lint findings are expected), only a failure to
// launch the sandboxed process is.
func (d *Driver) Shellcheck(ctx context.Context, dir string) (string, int, error) {
	pkgbuild, err := os.ReadFile(dir + "/PKGBUILD")
	if err != nil {
		return "", 0, fmt.Errorf("reading PKGBUILD: %w", err)
	}

	var stdin bytes.Buffer
	stdin.WriteString(shellcheckWrapper)
	stdin.Write(pkgbuild)

	args := []string{
		"--new-session", "--unshare-all",
		"--seccomp", d.seccompPath(),
		"--", "shellcheck", "-",
	}

	cmd := exec.CommandContext(ctx, d.wrapperPath(), args...)
	cmd.Stdin = &stdin

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	runErr := cmd.Run()
	if runErr == nil {
		return out.String(), 0, nil
	}
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		return out.String(), exitErr.ExitCode(), nil
	}
	return "", 0, rerr.Wrap(rerr.SandboxUnavailable, d.wrapperPath(), runErr)
}
