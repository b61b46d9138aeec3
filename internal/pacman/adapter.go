// Package pacman implements the Package-Manager Adapter (§4.2): an
// abstract interface over the local package database, with a
// subprocess-backed implementation shelling out to pacman and vercmp.
//
// A direct library binding and a subprocess driver are both valid
// implementations; this module ships the subprocess driver only,
// since no cgo-free pacman library binding is available. Both must
// return identical values for the methods below.
package pacman

import "github.com/rua-build/rua/internal/normalize"

// Ordering is the result of comparing two version strings.
type Ordering int

const (
	Less Ordering = iota - 1
	Equal
	Greater
)

// ForeignPackage is an installed package not available in any
// configured sync repository, together with its installed version.
type ForeignPackage struct {
	Name    string
	Version string
}

// Adapter is the capability set the resolver, build orchestrator, and
// upgrade planner depend on. The resolver depends only on this
// interface, never on a concrete implementation (§9 Design Notes).
type Adapter interface {
	// IsInstalled reports whether name (or any package that provides
	// name) is installed.
	IsInstalled(name normalize.Name) (bool, error)

	// IsInstallable reports whether name (or any package that provides
	// name) is available from a configured sync repository.
	IsInstallable(name normalize.Name) (bool, error)

	// ForeignPackages returns installed packages not installable from
	// any sync repository, in the package manager's own enumeration
	// order.
	ForeignPackages() ([]ForeignPackage, error)

	// CompareVersions compares two epoch:pkgver-pkgrel version strings.
	CompareVersions(a, b string) (Ordering, error)

	// IgnoredPackages returns the package manager's own IgnorePkg set.
	IgnoredPackages() (map[string]bool, error)

	// InstallAsDeps installs the named sync-repo packages with
	// --asdeps --needed (§4.8 step 4).
	InstallAsDeps(names []normalize.Name) error

	// InstallArchives installs the given built-archive paths with -U,
	// marking them --asdeps when asDeps is true (§4.8 step 5e).
	InstallArchives(paths []string, asDeps bool) error
}
