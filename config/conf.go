package config

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

var (
	Yellow = color.New(color.FgYellow).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
	Pink   = color.New(color.FgMagenta).SprintFunc()

	Ctx = context.Background()
)

const (
	// DefaultFreshness is how long a downloaded vulnerability database
	// is trusted before a new copy is fetched.
	DefaultFreshness = 24 * time.Hour

	// DefaultPriority is the default reporting floor.
	DefaultPriority = "high"

	configName = "config.yaml"
)

// Config holds the knobs that may be overridden from ~/.cvescan/config.yaml.
// Command line flags take precedence over everything here.
type Config struct {
	CacheDir  string        `yaml:"cache_dir"`
	Freshness time.Duration `yaml:"freshness"`
	Priority  string        `yaml:"priority"`
}

// DataDir returns the per-user cvescan directory, creating nothing.
func DataDir() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		dir = os.TempDir()
	}

	if runtime.GOOS == "windows" {
		return filepath.Join(dir, "cvescandata")
	}
	return filepath.Join(dir, ".cvescan")
}

// Load reads the optional user configuration file. A missing file yields the
// defaults; a present but invalid file is reported so a typo never silently
// reverts the user to defaults.
func Load(fsys afero.Fs) (*Config, error) {
	conf := &Config{
		CacheDir:  DataDir(),
		Freshness: DefaultFreshness,
		Priority:  DefaultPriority,
	}

	data, err := afero.ReadFile(fsys, filepath.Join(DataDir(), configName))
	if err != nil {
		return conf, nil
	}

	if err := yaml.Unmarshal(data, conf); err != nil {
		return conf, err
	}

	if conf.CacheDir == "" {
		conf.CacheDir = DataDir()
	}
	if conf.Freshness <= 0 {
		conf.Freshness = DefaultFreshness
	}
	if conf.Priority == "" {
		conf.Priority = DefaultPriority
	}

	return conf, nil
}
