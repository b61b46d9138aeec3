package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// UserConfig is the optional local configuration file read from
// Paths.ConfigFile (<config>/rua.toml): ignored packages, the default
// --asdeps policy, and devel-package opt-in.
type UserConfig struct {
	// IgnoredPackages is unioned with the package manager's own
	// IgnorePkg set by the Upgrade Planner (§3.1).
	IgnoredPackages []string `toml:"ignored_packages"`

	// AsDepsDefault makes `install` behave as though --asdeps was
	// passed, absent an explicit flag.
	AsDepsDefault bool `toml:"asdeps_default"`

	// Devel opts every `upgrade` invocation into --devel VCS-suffix
	// matching without requiring the flag each time.
	Devel bool `toml:"devel"`
}

// LoadUserConfig reads and decodes path. A missing file is not an
// error; it returns the zero UserConfig, matching the "absent ==
// defaults" convention the rest of this package's env var overrides
// use.
func LoadUserConfig(path string) (UserConfig, error) {
	var cfg UserConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
