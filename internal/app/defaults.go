package app

import (
	"fmt"
	"os"
	"path/filepath"

	"certcheck/internal/config"
)

// Environment variables consulted before any config file is read.
const (
	ConfigPathEnv = "CERTCHECK_CONFIG_PATH"
	HomeEnv       = "CERTCHECK_HOME"
	PassphraseEnv = "CERTCHECK_PASSPHRASE"
)

// Paths locates the config file and the data directory of one installation.
type Paths struct {
	ConfigFile string // ~/.config/certcheck.toml
	Home       string // ~/.local/share/certcheck; registry, credentials and logs live here
}

// ResolvePaths reads CERTCHECK_CONFIG_PATH and CERTCHECK_HOME, falling back
// to locations under the user's home directory. The home directory is only
// looked up when one of them is unset.
func ResolvePaths() (Paths, error) {
	p := Paths{
		ConfigFile: os.Getenv(ConfigPathEnv),
		Home:       os.Getenv(HomeEnv),
	}
	if p.ConfigFile != "" && p.Home != "" {
		return p, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, fmt.Errorf("cannot determine home directory (set %s and %s): %w", ConfigPathEnv, HomeEnv, err)
	}
	if p.ConfigFile == "" {
		p.ConfigFile = filepath.Join(home, ".config", "certcheck.toml")
	}
	if p.Home == "" {
		p.Home = filepath.Join(home, ".local", "share", "certcheck")
	}
	return p, nil
}

// NewConfig is the config `certcheck config init` writes for these paths.
func (p Paths) NewConfig() *config.Config {
	return config.NewConfig(p.Home)
}
