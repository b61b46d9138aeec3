// Package errmsg renders rua errors into actionable CLI messages with
// a "Possible causes" / "Suggestions" section, dispatched by error kind.
package errmsg

import (
	"fmt"
	"net"
	"strings"

	"github.com/rua-build/rua/internal/rerr"
)

// Context carries optional extra information for formatting a specific
// error occurrence.
type Context struct {
	PkgBase string // the package build unit involved, if any
}

// Format returns a human-readable rendering of err with possible causes
// and suggestions. Pass nil ctx for generic formatting.
func Format(err error, ctx *Context) string {
	if err == nil {
		return ""
	}

	if e, ok := rerr.As(err); ok {
		return formatKind(e, ctx)
	}

	// Fall back to net.Error / string sniffing for errors that were not
	// wrapped in rerr.Error (e.g. a bare transport error bubbling up
	// before being classified).
	var netErr net.Error
	if asNetError(err, &netErr) {
		return formatNetwork(netErr, ctx)
	}
	return err.Error()
}

func asNetError(err error, target *net.Error) bool {
	ne, ok := err.(net.Error)
	if ok {
		*target = ne
	}
	return ok
}

func formatKind(e *rerr.Error, ctx *Context) string {
	var sb strings.Builder
	sb.WriteString(e.Error())
	sb.WriteString("\n")

	switch e.Kind {
	case rerr.InputError:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - The package name is malformed or uses an unsupported character\n")
		sb.WriteString("  - No target packages were given\n")
		sb.WriteString("\nSuggestions:\n")
		sb.WriteString("  - Check the spelling of the package name\n")

	case rerr.NotFound:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - The package does not exist in the remote index\n")
		sb.WriteString("  - Typo in the package name\n")
		sb.WriteString("\nSuggestions:\n")
		sb.WriteString("  - Run 'rua search <keyword>' to look for similar names\n")

	case rerr.RemoteError:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - Network connectivity issue\n")
		sb.WriteString("  - The remote index is temporarily unavailable\n")
		sb.WriteString("\nSuggestions:\n")
		sb.WriteString("  - Check your internet connection\n")
		sb.WriteString("  - Try again in a few minutes\n")

	case rerr.InventoryError:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - The package manager returned an unexpected status\n")
		sb.WriteString("  - The local package database is locked by another process\n")
		sb.WriteString("\nSuggestions:\n")
		sb.WriteString("  - Check for another running package manager instance\n")

	case rerr.ReviewAbort:
		sb.WriteString("\nAborted at your request; no changes were made.\n")

	case rerr.BuildFailure:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - The recipe's build script failed\n")
		sb.WriteString("  - A build dependency is missing\n")
		sb.WriteString("\nSuggestions:\n")
		if ctx != nil && ctx.PkgBase != "" {
			sb.WriteString(fmt.Sprintf("  - Inspect the build log under build_dir/%s\n", ctx.PkgBase))
		} else {
			sb.WriteString("  - Inspect the build log under the package's build directory\n")
		}

	case rerr.ArchiveError:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - The archive is truncated or uses an unsupported compression format\n")
		sb.WriteString("\nSuggestions:\n")
		sb.WriteString("  - Rebuild the package and re-run the archive check\n")

	case rerr.LockContention:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - Another rua instance is already running\n")
		sb.WriteString("\nSuggestions:\n")
		sb.WriteString("  - Wait for the other instance to finish, or terminate it\n")

	case rerr.SandboxUnavailable:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - The sandbox wrapper script is missing or not executable\n")
		sb.WriteString("  - bubblewrap is not installed\n")
		sb.WriteString("\nSuggestions:\n")
		sb.WriteString("  - Install bubblewrap and re-run the command\n")
	}

	return sb.String()
}

func formatNetwork(err net.Error, _ *Context) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n\nPossible causes:\n")
	if err.Timeout() {
		sb.WriteString("  - Request timed out\n")
	} else {
		sb.WriteString("  - Network connectivity issue\n")
	}
	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Check your internet connection\n")
	sb.WriteString("  - Try again in a few minutes\n")
	return sb.String()
}
