// Package sandbox implements the Sandbox Driver (§4.6): it constructs
// and launches bubblewrap-style sandboxed build-tool invocations
// through an external wrapper script installed at first run. The core
// never spawns the build tool directly; it only ever invokes the
// wrapper with an argument list built here, following the same
// detect-tool/build-args/exec.CommandContext/map-exit-code idiom the
// package-manager adapter uses for its own subprocess calls.
package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rua-build/rua/internal/config"
	"github.com/rua-build/rua/internal/log"
	"github.com/rua-build/rua/internal/rerr"
)

// BuildTool is the recipe build tool this driver wraps.
const BuildTool = "makepkg"

// WrapperName is the filename of the bubblewrap invocation wrapper
// installed under Paths.SystemDir at first run.
const WrapperName = "wrap"

// SeccompName is the filename of the per-architecture seccomp BPF
// filter the wrapper loads. Its contents are an opaque file as far as
// this module is concerned (§1 Out of scope).
const SeccompName = "seccomp.bpf"

// Driver constructs and launches one sandboxed command at a time.
type Driver struct {
	paths  *config.Paths
	logger log.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger attaches a structured logger.
func WithLogger(l log.Logger) Option { return func(d *Driver) { d.logger = l } }

// New returns a Driver rooted at paths.
func New(paths *config.Paths, opts ...Option) *Driver {
	d := &Driver{paths: paths, logger: log.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// commandSpec is the contract of one sandboxed command (§4.6): a
// working directory, a set of read-only and read-write filesystem
// binds, a network toggle, extra environment, and the command itself.
type commandSpec struct {
	workDir    string
	roBinds    []string
	rwBinds    []string
	unshareNet bool
	env        map[string]string
	command    []string
}

// EnsureWrapper installs the wrapper script and seccomp filter into
// Paths.SystemDir, rewriting both on every run per §6's "rewritten on
// every run" rule for .system/. It must be called before any
// sandboxed command runs.
func (d *Driver) EnsureWrapper() error {
	if err := os.MkdirAll(d.paths.SystemDir, 0o755); err != nil {
		return rerr.Wrap(rerr.SandboxUnavailable, d.paths.SystemDir, err)
	}
	wrapperPath := d.wrapperPath()
	if err := os.WriteFile(wrapperPath, []byte(wrapperScript), 0o755); err != nil {
		return rerr.Wrap(rerr.SandboxUnavailable, wrapperPath, err)
	}
	seccompPath := d.seccompPath()
	if err := os.WriteFile(seccompPath, seccompPlaceholder, 0o644); err != nil {
		return rerr.Wrap(rerr.SandboxUnavailable, seccompPath, err)
	}
	return nil
}

func (d *Driver) wrapperPath() string { return filepath.Join(d.paths.SystemDir, WrapperName) }
func (d *Driver) seccompPath() string { return filepath.Join(d.paths.SystemDir, SeccompName) }

// SmokeTest verifies the wrapper is present, executable, and that
// bwrap itself can be found on PATH; failure maps to
// rerr.SandboxUnavailable (exit code 4, §6/§7).
func (d *Driver) SmokeTest(ctx context.Context) error {
	if _, err := exec.LookPath("bwrap"); err != nil {
		return rerr.Wrap(rerr.SandboxUnavailable, "bwrap", err)
	}
	if info, err := os.Stat(d.wrapperPath()); err != nil || info.Mode()&0o111 == 0 {
		return rerr.New(rerr.SandboxUnavailable, "sandbox wrapper script missing or not executable")
	}
	return nil
}

// GenerateSrcinfo runs the build tool with --holdver --printsrcinfo
// under --unshare-net and read-only binds (§4.6), returning the
// generated .SRCINFO text.
func (d *Driver) GenerateSrcinfo(ctx context.Context, dir string) (string, error) {
	spec := commandSpec{
		workDir:    dir,
		roBinds:    []string{dir},
		unshareNet: true,
		env: map[string]string{
			"PKGDEST": os.TempDir(), "SRCDEST": os.TempDir(),
			"SRCPKGDEST": os.TempDir(), "LOGDEST": os.TempDir(),
			"BUILDDIR": os.TempDir(),
		},
		command: []string{BuildTool, "--holdver", "--printsrcinfo"},
	}
	out, err := d.run(ctx, spec)
	if err != nil {
		return "", err
	}
	return out, nil
}

// Build runs the build tool with a writable bind on dir and
// conditional network access (§4.6). offline unshares the network
// namespace; force passes --force so a previously-built package is
// rebuilt rather than skipped. Failure propagates the child's exit
// code wrapped in rerr.BuildFailure.
func (d *Driver) Build(ctx context.Context, dir string, offline, force bool) error {
	cmd := []string{BuildTool}
	if force {
		cmd = append(cmd, "--force")
	}
	spec := commandSpec{
		workDir:    dir,
		rwBinds:    []string{dir},
		unshareNet: offline,
		env: map[string]string{
			"PKGDEST": dir, "SRCDEST": dir, "SRCPKGDEST": dir, "LOGDEST": dir,
			"BUILDDIR": dir, "FAKEROOTDONTTRYCHOWN": "true",
		},
		command: cmd,
	}
	_, err := d.run(ctx, spec)
	return err
}

// Verifysource runs the build tool's source-fetch-only phase against a
// synthesized build script (§4.7), with network enabled and dir bound
// writable.
func (d *Driver) Verifysource(ctx context.Context, dir, scriptName string) error {
	spec := commandSpec{
		workDir: dir,
		rwBinds: []string{dir},
		env: map[string]string{
			"SRCDEST": dir, "SRCPKGDEST": dir, "BUILDDIR": dir,
		},
		command: []string{BuildTool, "--force", "--verifysource", "-p", scriptName},
	}
	_, err := d.run(ctx, spec)
	return err
}

// run builds the wrapper argument list for spec, executes it, and maps
// the child's outcome to rerr.BuildFailure on non-zero exit.
func (d *Driver) run(ctx context.Context, spec commandSpec) (string, error) {
	hooks, err := d.hookArgs(spec.workDir)
	if err != nil {
		return "", err
	}

	args := d.buildArgs(spec, hooks)
	cmd := exec.CommandContext(ctx, d.wrapperPath(), args...)
	cmd.Dir = spec.workDir
	cmd.Env = append(os.Environ(), envPairs(spec.env)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	d.logger.Debug("running sandboxed command", "command", spec.command, "unshare_net", spec.unshareNet)

	runErr := cmd.Run()
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			wrapped := rerr.Wrap(rerr.BuildFailure, strings.Join(spec.command, " "),
				fmt.Errorf("exit %d: %s", exitErr.ExitCode(), stderr.String()))
			return stdout.String(), wrapped.WithChildExitCode(exitErr.ExitCode())
		}
		return "", rerr.Wrap(rerr.SandboxUnavailable, d.wrapperPath(), runErr)
	}
	return stdout.String(), nil
}

// buildArgs turns a commandSpec into the wrapper's command line: the
// narrow bind set, the network toggle, the seccomp filter path, any
// wrap_args.d hook output, then "--" and the command itself. Only the
// flag vocabulary (--ro-bind/--bind/--unshare-net) changes from a
// container-runtime argument builder to a bubblewrap one.
func (d *Driver) buildArgs(spec commandSpec, hooks []string) []string {
	var args []string
	args = append(args, "--new-session", "--unshare-user", "--unshare-ipc", "--unshare-pid", "--unshare-uts", "--unshare-cgroup")
	args = append(args, "--seccomp", d.seccompPath())

	for _, b := range spec.roBinds {
		args = append(args, "--ro-bind", b, b)
	}
	for _, b := range spec.rwBinds {
		args = append(args, "--bind", b, b)
	}
	if spec.unshareNet {
		args = append(args, "--unshare-net")
	}
	args = append(args, hooks...)
	args = append(args, "--chdir", spec.workDir)
	args = append(args, "--")
	args = append(args, spec.command...)
	return args
}

// hookArgs sources every executable file in wrap_args.d, sorted by
// name, running each with workDir as its sole argument and collecting
// its stdout lines as extra wrapper arguments — the mechanism by which
// a user hook injects additional bind mounts without touching the core
// (§3.1, §6 on-disk layout).
func (d *Driver) hookArgs(workDir string) ([]string, error) {
	entries, err := os.ReadDir(d.paths.WrapArgsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading wrap_args.d: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var extra []string
	for _, name := range names {
		path := filepath.Join(d.paths.WrapArgsDir, name)
		info, err := os.Stat(path)
		if err != nil || info.Mode()&0o111 == 0 {
			continue
		}
		out, err := exec.Command(path, workDir).Output()
		if err != nil {
			d.logger.Warn("wrap_args.d hook failed", "hook", name, "error", err)
			continue
		}
		for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
			if line != "" {
				extra = append(extra, line)
			}
		}
	}
	return extra, nil
}

func envPairs(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}
