package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/haldirsson/coblame/internal/util"
)

// Config represents the .coblame/config.toml file: where the object store
// lives and the default knobs for a blame walk against it.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Blame    BlameConfig    `toml:"blame"`
}

// DatabaseConfig points at the PostgreSQL-backed object store.
type DatabaseConfig struct {
	URL string `toml:"url" config:"database.url" desc:"PostgreSQL connection URL for the object store"`
}

// BlameConfig holds the rename detector and scheduler tuning knobs (§6).
type BlameConfig struct {
	RenameScore       int   `toml:"rename_score" config:"blame.rename_score" desc:"Minimum similarity score (0-100) to treat an add/delete pair as a rename"`
	BreakScore        int   `toml:"break_score" config:"blame.break_score" desc:"Similarity score below which a modify is broken into a delete+add; -1 disables breaking"`
	RenameLimit       int   `toml:"rename_limit" config:"blame.rename_limit" desc:"Maximum add/delete candidate pairs scored per commit before giving up"`
	BigFileThreshold  int64 `toml:"big_file_threshold" config:"blame.big_file_threshold" desc:"Files larger than this many bytes skip similarity scoring"`
	SkipBinaryRenames bool  `toml:"skip_binary_renames" config:"blame.skip_binary_renames" desc:"Skip similarity scoring entirely for binary content"`
	Workers           int   `toml:"workers" config:"blame.workers" desc:"Per-expansion blame worker pool size; 0 or 1 runs sequentially"`
}

// DefaultConfig returns a new config with default values for a repository
// rooted at repoPath.
func DefaultConfig(repoPath string) *Config {
	return &Config{
		Blame: BlameConfig{
			RenameScore:      60,
			BreakScore:       -1,
			RenameLimit:      1000,
			BigFileThreshold: 50 << 20,
			Workers:          4,
		},
	}
}

// Load reads the config file from the repository
func Load(repoRoot string) (*Config, error) {
	configPath := util.ConfigPath(repoRoot)

	cfg := &Config{}

	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the config file to the repository
func (c *Config) Save(repoRoot string) error {
	configPath := util.ConfigPath(repoRoot)

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

// GetValue returns a config value by key (uses reflection)
func (c *Config) GetValue(key string) (string, bool) {
	return getFieldValue(c, key)
}

// SetValue sets a config value by key (uses reflection with validation)
func (c *Config) SetValue(key, value string) error {
	return setFieldValue(c, key, value)
}

// DatabaseURL returns the configured connection URL, falling back to the
// COBLAME_DATABASE_URL environment variable when the config file is silent.
func (c *Config) DatabaseURL() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return os.Getenv("COBLAME_DATABASE_URL")
}
