package main

import (
	"context"
	"strings"

	"github.com/rua-build/rua/internal/config"
	"github.com/rua-build/rua/internal/log"
	"github.com/rua-build/rua/internal/pacman"
	"github.com/rua-build/rua/internal/remoteindex"
	"github.com/rua-build/rua/internal/resolver"
	"github.com/rua-build/rua/internal/sandbox"
)

// recipeBaseURL derives the git-clone base ("https://host") from the
// configured RPC index URL ("https://host/rpc"), the same relationship
// the remote index protocol's v=5 RPC endpoint has to its per-pkgbase
// git remotes in §4.5/§6.
func recipeBaseURL(p *config.Paths) string {
	return strings.TrimSuffix(p.IndexURL, "/rpc")
}

// newPacman returns the subprocess package-manager adapter, elevated
// through the configured sudo helper (§4.2, §6 RUA_SUDO_COMMAND).
func newPacman(ctx context.Context) (pacman.Adapter, error) {
	return pacman.NewSubprocessAdapter(ctx,
		pacman.WithLogger(log.Default()),
		pacman.WithSudoCommand(paths.SudoCommand),
	)
}

// newSandbox returns a sandbox Driver with its wrapper script and
// seccomp filter written/rewritten (§6: ".system/ ... rewritten on
// every run") and its availability smoke-tested (§7 SandboxUnavailable).
func newSandbox(ctx context.Context) (*sandbox.Driver, error) {
	sb := sandbox.New(paths, sandbox.WithLogger(log.Default()))
	if err := sb.EnsureWrapper(); err != nil {
		return nil, err
	}
	if err := sb.SmokeTest(ctx); err != nil {
		return nil, err
	}
	return sb, nil
}

// newResolver wires a Dependency Resolver over the configured remote
// index and a fresh package-manager adapter (§4.4).
func newResolver(ctx context.Context) (*resolver.Resolver, pacman.Adapter, error) {
	pm, err := newPacman(ctx)
	if err != nil {
		return nil, nil, err
	}
	idx := remoteindex.New(paths.IndexURL)
	return resolver.New(idx, pm), pm, nil
}
