// Package termutil provides the small amount of terminal-mode
// detection the review loop, archive verifier, and build orchestrator
// need to gate interactive menus and autobuild mode: whether a given
// file descriptor is attached to a real terminal, per §4.5/§4.9's
// raw-mode detection and §4.10's autobuild-for-deep-dependencies rule.
package termutil

import (
	"os"

	"golang.org/x/term"
)

// IsInteractive reports whether f is a terminal. Non-terminal stdin/
// stdout (piped, redirected, or running under godog) means menus that
// would otherwise block on a keypress should auto-select their default
// answer instead.
func IsInteractive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// StdoutIsTerminal is the common case: whether the process's own
// stdout is attached to a terminal, used to decide whether a deep
// dependency's archive review and upstream-merge confirmation should
// run unattended (§4.9 "In autobuild mode... O is selected
// automatically").
func StdoutIsTerminal() bool {
	return IsInteractive(os.Stdout)
}
