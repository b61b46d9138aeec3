package pacman

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rua-build/rua/internal/log"
	"github.com/rua-build/rua/internal/normalize"
	"github.com/rua-build/rua/internal/rerr"
)

// SubprocessAdapter drives the host's pacman binary via child processes,
// following the detect-tool/build-args/exec/map-exit-code idiom used
// throughout this module's sandbox and source-prefetch drivers.
type SubprocessAdapter struct {
	ctx         context.Context
	pacmanPath  string
	sudoCommand string
	logger      log.Logger
}

// AdapterOption configures a SubprocessAdapter.
type AdapterOption func(*SubprocessAdapter)

// WithLogger attaches a structured logger.
func WithLogger(l log.Logger) AdapterOption {
	return func(a *SubprocessAdapter) { a.logger = l }
}

// WithSudoCommand overrides the elevation helper used for privileged
// pacman invocations (install/remove). Default: sudo.
func WithSudoCommand(cmd string) AdapterOption {
	return func(a *SubprocessAdapter) { a.sudoCommand = cmd }
}

// NewSubprocessAdapter locates the pacman binary on PATH and returns an
// Adapter backed by it. Returns rerr.InventoryError if pacman is absent.
func NewSubprocessAdapter(ctx context.Context, opts ...AdapterOption) (*SubprocessAdapter, error) {
	path, err := exec.LookPath("pacman")
	if err != nil {
		return nil, rerr.Wrap(rerr.InventoryError, "pacman", err)
	}

	a := &SubprocessAdapter{
		ctx:         ctx,
		pacmanPath:  path,
		sudoCommand: "sudo",
		logger:      log.NewNoop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *SubprocessAdapter) run(args ...string) (string, error) {
	cmd := exec.CommandContext(a.ctx, a.pacmanPath, args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return string(out), &exitCodeError{code: exitErr.ExitCode(), stderr: string(exitErr.Stderr)}
		}
		return "", err
	}
	return string(out), nil
}

type exitCodeError struct {
	code   int
	stderr string
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("pacman exited %d: %s", e.code, strings.TrimSpace(e.stderr))
}

// IsInstalled reports whether name is installed locally, honoring
// provides relations via `pacman -T` (--deptest): it tests a
// dependency spec against the local database and exits 0 when it is
// already satisfied, by an exact name or by any installed package's
// Provides, printing nothing; an unsatisfied spec is printed to
// stdout and the exit code is non-zero. That non-zero exit is a
// normal "not satisfied" result, not an adapter failure.
func (a *SubprocessAdapter) IsInstalled(name normalize.Name) (bool, error) {
	_, err := a.run("-T", string(name))
	if err == nil {
		return true, nil
	}
	if _, ok := err.(*exitCodeError); ok {
		return false, nil
	}
	return false, rerr.Wrap(rerr.InventoryError, string(name), err)
}

// IsInstallable reports whether name is available from a configured
// sync repository, honoring provides relations via `pacman -Sddp`:
// a dry-run, no-deps sync resolution that succeeds (prints the
// resolved package's download URI, exit 0) whenever name is an exact
// sync package name or satisfied by some sync package's Provides, and
// fails (non-zero exit) otherwise.
func (a *SubprocessAdapter) IsInstallable(name normalize.Name) (bool, error) {
	_, err := a.run("-Sddp", string(name))
	if err == nil {
		return true, nil
	}
	if _, ok := err.(*exitCodeError); ok {
		return false, nil
	}
	return false, rerr.Wrap(rerr.InventoryError, string(name), err)
}

// isNotFoundExit reports whether err is pacman's conventional "no
// matching packages" exit status (1), as opposed to an operational
// failure.
func isNotFoundExit(err error) bool {
	ece, ok := err.(*exitCodeError)
	return ok && ece.code == 1
}

// ForeignPackages returns installed packages not present in any sync
// repository, via `pacman -Qm`.
func (a *SubprocessAdapter) ForeignPackages() ([]ForeignPackage, error) {
	out, err := a.run("-Qm")
	if err != nil {
		if isNotFoundExit(err) {
			return nil, nil
		}
		return nil, rerr.Wrap(rerr.InventoryError, "", err)
	}

	var result []ForeignPackage
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) != 2 {
			continue
		}
		result = append(result, ForeignPackage{Name: fields[0], Version: fields[1]})
	}
	return result, nil
}

// CompareVersions shells out to vercmp for byte-for-byte compatibility
// with the host package manager's own ordering.
func (a *SubprocessAdapter) CompareVersions(x, y string) (Ordering, error) {
	path, err := exec.LookPath("vercmp")
	if err != nil {
		// Fall back to the native comparator (vercmp.go) when the
		// binary isn't installed.
		return NativeCompare(x, y), nil
	}
	cmd := exec.CommandContext(a.ctx, path, x, y)
	out, err := cmd.Output()
	if err != nil {
		return Equal, rerr.Wrap(rerr.InventoryError, x+" vs "+y, err)
	}
	switch strings.TrimSpace(string(out)) {
	case "-1":
		return Less, nil
	case "1":
		return Greater, nil
	default:
		return Equal, nil
	}
}

// IgnoredPackages reads the IgnorePkg line from pacman.conf.
func (a *SubprocessAdapter) IgnoredPackages() (map[string]bool, error) {
	out, err := a.run("-Qi", "--config", "/etc/pacman.conf")
	_ = out
	_ = err
	// pacman has no query mode that prints IgnorePkg directly, so the
	// set comes from parsing pacman.conf with ParsePacmanConfIgnored;
	// the output and error of the -Qi call above are discarded.
	return ParsePacmanConfIgnored("/etc/pacman.conf")
}

// InstallAsDeps installs sync-repo packages with --asdeps --needed,
// elevated through the configured sudo command.
func (a *SubprocessAdapter) InstallAsDeps(names []normalize.Name) error {
	if len(names) == 0 {
		return nil
	}
	args := []string{a.pacmanPath, "-S", "--asdeps", "--needed", "--noconfirm"}
	for _, n := range names {
		args = append(args, string(n))
	}
	return a.runElevated(args...)
}

// InstallArchives installs built archives with -U, elevated, optionally
// marking them as dependencies.
func (a *SubprocessAdapter) InstallArchives(paths []string, asDeps bool) error {
	if len(paths) == 0 {
		return nil
	}
	args := []string{a.pacmanPath, "-U", "--noconfirm"}
	if asDeps {
		args = append(args, "--asdeps")
	}
	args = append(args, paths...)
	return a.runElevated(args...)
}

func (a *SubprocessAdapter) runElevated(args ...string) error {
	cmd := exec.CommandContext(a.ctx, a.sudoCommand, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		a.logger.Error("elevated pacman command failed", "output", string(out))
		return rerr.Wrap(rerr.InventoryError, args[1], err)
	}
	return nil
}
