package shmeap

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
)

// Environment variables read by ConfigFromEnv and Default.
const (
	EnvSize     = "SHMEAP_SIZE"     // region size, e.g. "16MiB", "1GB", "65536"
	EnvBase     = "SHMEAP_BASE"     // base address, decimal or 0x-prefixed hex
	EnvPath     = "SHMEAP_PATH"     // backing file, created and extended as needed
	EnvPrivate  = "SHMEAP_PRIVATE"  // "true" maps MAP_PRIVATE instead of MAP_SHARED
	EnvPrefault = "SHMEAP_PREFAULT" // "true" faults in every page at initialisation
)

// ConfigFromEnv returns base with any SHMEAP_* overrides applied.
// Unset variables leave the corresponding field untouched.
func ConfigFromEnv(base Config) (Config, error) {
	return configFromLookup(base, os.LookupEnv)
}

func configFromLookup(cfg Config, lookup func(string) (string, bool)) (Config, error) {
	if s, ok := lookup(EnvSize); ok && s != "" {
		n, err := humanize.ParseBytes(s)
		if err != nil {
			return cfg, fmt.Errorf("shmeap: %s=%q: %w", EnvSize, s, err)
		}
		if n == 0 || uint64(uintptr(n)) != n {
			return cfg, fmt.Errorf("shmeap: %s=%q: size out of range", EnvSize, s)
		}
		cfg.Size = uintptr(n)
	}

	if s, ok := lookup(EnvBase); ok && s != "" {
		n, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return cfg, fmt.Errorf("shmeap: %s=%q: %w", EnvBase, s, err)
		}
		if uint64(uintptr(n)) != n {
			return cfg, fmt.Errorf("shmeap: %s=%q: address out of range", EnvBase, s)
		}
		cfg.Base = uintptr(n)
	}

	if s, ok := lookup(EnvPath); ok && s != "" {
		cfg.Path = s
		cfg.Create = true
		cfg.Truncate = true
		cfg.Flags &^= MapAnonymous
	}

	if s, ok := lookup(EnvPrivate); ok && s != "" {
		private, err := strconv.ParseBool(s)
		if err != nil {
			return cfg, fmt.Errorf("shmeap: %s=%q: %w", EnvPrivate, s, err)
		}
		if private {
			cfg.Flags = cfg.Flags&^MapShared | MapPrivate
		} else {
			cfg.Flags = cfg.Flags&^MapPrivate | MapShared
		}
	}

	if s, ok := lookup(EnvPrefault); ok && s != "" {
		prefault, err := strconv.ParseBool(s)
		if err != nil {
			return cfg, fmt.Errorf("shmeap: %s=%q: %w", EnvPrefault, s, err)
		}
		cfg.Prefault = prefault
	}

	return cfg, cfg.Validate()
}
