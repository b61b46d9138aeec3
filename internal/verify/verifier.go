package verify

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rua-build/rua/internal/log"
	"github.com/rua-build/rua/internal/rerr"
)

// Verifier drives the interactive archive-review menu and the move
// into a destination (checked-tars) directory.
type Verifier struct {
	logger    log.Logger
	in        *bufio.Reader
	out       io.Writer
	autobuild bool
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithLogger injects a Logger, defaulting to log.Default().
func WithLogger(l log.Logger) Option { return func(v *Verifier) { v.logger = l } }

// WithIO overrides stdin/stdout for the interactive menu (tests).
func WithIO(r io.Reader, w io.Writer) Option {
	return func(v *Verifier) { v.in = bufio.NewReader(r); v.out = w }
}

// WithAutobuild makes Review auto-accept (§4.9: "In autobuild mode,
// for deep dependencies, O is selected automatically").
func WithAutobuild(auto bool) Option { return func(v *Verifier) { v.autobuild = auto } }

// New returns a Verifier reading menu input from stdin and writing to
// stdout unless overridden.
func New(opts ...Option) *Verifier {
	v := &Verifier{logger: log.Default(), in: bufio.NewReader(os.Stdin), out: os.Stdout}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Review opens path and drives the archive-review menu until the user
// accepts ('O', or autobuild) or aborts ('Q', which returns a
// rerr.ReviewAbort error terminating the process per §7).
func (v *Verifier) Review(path, liveRoot string) (*Archive, error) {
	a, err := Open(path)
	if err != nil {
		return nil, err
	}

	if v.autobuild {
		return a, nil
	}

	for {
		fmt.Fprintf(v.out, "\nArchive: %s\n", filepath.Base(path))
		fmt.Fprintln(v.out, "  [E] List executables")
		fmt.Fprintln(v.out, "  [A] List all files")
		fmt.Fprintln(v.out, "  [M] List files not present on the live filesystem")
		fmt.Fprintln(v.out, "  [S] List SUID/SGID/sticky files")
		fmt.Fprintln(v.out, "  [I] Show install script")
		fmt.Fprintln(v.out, "  [H] Open shell")
		fmt.Fprintln(v.out, "  [O] Accept")
		fmt.Fprintln(v.out, "  [Q] Abort")
		fmt.Fprint(v.out, "> ")

		line, err := v.in.ReadString('\n')
		if err != nil && line == "" {
			return nil, rerr.Wrap(rerr.ArchiveError, path, err)
		}

		switch normalizeChoice(line) {
		case "E":
			printEntries(v.out, a.Executables(), "No executable files.")
		case "A":
			printEntries(v.out, a.Entries, "Archive is empty.")
		case "M":
			printEntries(v.out, a.MissingFromFilesystem(liveRoot), "Every archive file is already present on disk.")
		case "S":
			printEntries(v.out, a.Setid(), "No SUID, SGID, or sticky files.")
		case "I":
			if len(a.Install) == 0 {
				fmt.Fprintln(v.out, "No .INSTALL script.")
			} else {
				v.out.Write(a.Install)
			}
		case "H":
			if err := v.openShell(filepath.Dir(path)); err != nil {
				fmt.Fprintf(v.out, "shell exited: %v\n", err)
			}
		case "O":
			return a, nil
		case "Q":
			return nil, rerr.New(rerr.ReviewAbort, "archive review aborted by user")
		default:
			fmt.Fprintln(v.out, "unrecognized choice")
		}
	}
}

func printEntries(w io.Writer, entries []Entry, emptyMsg string) {
	if len(entries) == 0 {
		fmt.Fprintln(w, emptyMsg)
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "  %s  %s\n", e.Mode, e.Path)
	}
}

func normalizeChoice(line string) string {
	for _, r := range line {
		switch r {
		case 'e', 'E':
			return "E"
		case 'a', 'A':
			return "A"
		case 'm', 'M':
			return "M"
		case 's', 'S':
			return "S"
		case 'i', 'I':
			return "I"
		case 'h', 'H':
			return "H"
		case 'o', 'O':
			return "O"
		case 'q', 'Q':
			return "Q"
		}
	}
	return ""
}

// MoveToChecked moves path into destDir and returns the new path. It
// does not clear destDir: per §7's "fatal errors never leave a
// partially written checked_tars_dir/<pkgbase>" rule, the caller runs
// ResetDir once for a pkgbase's archive set before moving its archives.
func (v *Verifier) MoveToChecked(path, destDir string) (string, error) {
	dst := filepath.Join(destDir, filepath.Base(path))
	if err := moveFile(path, dst); err != nil {
		return "", rerr.Wrap(rerr.ArchiveError, path, fmt.Errorf("moving into %s: %w", destDir, err))
	}
	return dst, nil
}

// ResetDir removes and recreates dir, the clear-and-repopulate pattern
// shared with BuildDir handling in the orchestrator (§4.8/§7).
func ResetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clearing %s: %w", dir, err)
	}
	return os.MkdirAll(dir, 0o755)
}
