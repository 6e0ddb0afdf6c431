package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/BurntSushi/toml"
)

// GlobalConfig represents global coblame settings stored in the user's
// config directory. It is a separate file from a repository's Config:
// Load reads only the repository's config.toml, and no value from here is
// merged into it.
type GlobalConfig struct {
	Blame BlameConfig `toml:"blame"`
}

// DefaultGlobalConfig returns a new global config with default values.
// Workers defaults to the CPU count, capped conservatively since the
// scheduler's worker pool contends on a single per-parent accumulation
// mutex and gains little past a handful of goroutines.
func DefaultGlobalConfig() *GlobalConfig {
	workers := runtime.NumCPU()
	if workers > 4 {
		workers = 4
	}

	return &GlobalConfig{
		Blame: BlameConfig{
			RenameScore:      60,
			BreakScore:       -1,
			RenameLimit:      1000,
			BigFileThreshold: 50 << 20,
			Workers:          workers,
		},
	}
}

// GlobalConfigPath returns the path to the global config file.
// Follows XDG Base Directory spec on Linux, platform conventions elsewhere.
func GlobalConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, "Library", "Application Support", "coblame")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "coblame")
	default: // Linux and others - follow XDG
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			configDir = filepath.Join(xdg, "coblame")
		} else {
			home, _ := os.UserHomeDir()
			configDir = filepath.Join(home, ".config", "coblame")
		}
	}

	return filepath.Join(configDir, "config.toml")
}

// LoadGlobal reads the global config file, creating defaults if it doesn't exist
func LoadGlobal() (*GlobalConfig, error) {
	configPath := GlobalConfigPath()

	// Start with defaults
	cfg := DefaultGlobalConfig()

	// Try to load existing config
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, err
		}
	}

	// Apply defaults for any zero-value fields left unset by the file
	defaults := DefaultGlobalConfig()

	if cfg.Blame.RenameScore == 0 {
		cfg.Blame.RenameScore = defaults.Blame.RenameScore
	}
	if cfg.Blame.BreakScore == 0 {
		cfg.Blame.BreakScore = defaults.Blame.BreakScore
	}
	if cfg.Blame.RenameLimit == 0 {
		cfg.Blame.RenameLimit = defaults.Blame.RenameLimit
	}
	if cfg.Blame.BigFileThreshold == 0 {
		cfg.Blame.BigFileThreshold = defaults.Blame.BigFileThreshold
	}
	if cfg.Blame.Workers == 0 {
		cfg.Blame.Workers = defaults.Blame.Workers
	}

	return cfg, nil
}

// Save writes the global config file
func (c *GlobalConfig) Save() error {
	configPath := GlobalConfigPath()

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	f, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}

// GetValue returns a global config value by key
func (c *GlobalConfig) GetValue(key string) (string, bool) {
	switch key {
	case "blame.rename_score":
		return strconv.Itoa(c.Blame.RenameScore), true
	case "blame.break_score":
		return strconv.Itoa(c.Blame.BreakScore), true
	case "blame.rename_limit":
		return strconv.Itoa(c.Blame.RenameLimit), true
	case "blame.big_file_threshold":
		return strconv.FormatInt(c.Blame.BigFileThreshold, 10), true
	case "blame.skip_binary_renames":
		return strconv.FormatBool(c.Blame.SkipBinaryRenames), true
	case "blame.workers":
		return strconv.Itoa(c.Blame.Workers), true
	default:
		return "", false
	}
}

// SetValue sets a global config value by key
func (c *GlobalConfig) SetValue(key, value string) error {
	switch key {
	case "blame.rename_score":
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		if v < 0 || v > 100 {
			return os.ErrInvalid
		}
		c.Blame.RenameScore = v
	case "blame.break_score":
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		c.Blame.BreakScore = v
	case "blame.rename_limit":
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		if v < 0 {
			return os.ErrInvalid
		}
		c.Blame.RenameLimit = v
	case "blame.big_file_threshold":
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		if v < 0 {
			return os.ErrInvalid
		}
		c.Blame.BigFileThreshold = v
	case "blame.skip_binary_renames":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		c.Blame.SkipBinaryRenames = v
	case "blame.workers":
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		if v < 0 || v > 64 {
			return os.ErrInvalid
		}
		c.Blame.Workers = v
	default:
		return os.ErrNotExist
	}
	return nil
}

// ListGlobalKeys returns all available global config keys
func ListGlobalKeys() []string {
	return []string{
		"blame.rename_score",
		"blame.break_score",
		"blame.rename_limit",
		"blame.big_file_threshold",
		"blame.skip_binary_renames",
		"blame.workers",
	}
}
