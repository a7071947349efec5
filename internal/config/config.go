package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Site     Site     `yaml:"site"`
	Reports  Reports  `yaml:"reports"`
	Liveness Liveness `yaml:"liveness"`
	Watch    Watch    `yaml:"watch"`
	Server   Server   `yaml:"server"`
}

type Site struct {
	ArticlesDir string `yaml:"articles_dir"`
	IndexFile   string `yaml:"index_file"`
	DataFile    string `yaml:"data_file"`
}

type Reports struct {
	Dir string `yaml:"dir"`
}

type Liveness struct {
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	BatchSize       int    `yaml:"batch_size"`
	UserAgent       string `yaml:"user_agent"`
	ArchiveEndpoint string `yaml:"archive_endpoint"`
}

type Watch struct {
	DebounceMS int `yaml:"debounce_ms"`
}

type Server struct {
	Port int `yaml:"port"`
}

// ConfigDir returns the XDG config directory for inkwell.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "inkwell")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/inkwell/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'inkwell init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Site: Site{
			ArticlesDir: "articles",
			IndexFile:   filepath.Join("articles", "index.json"),
			DataFile:    filepath.Join("data", "articles.json"),
		},
		Reports: Reports{Dir: "reports"},
		Liveness: Liveness{
			TimeoutSeconds:  12,
			BatchSize:       5,
			UserAgent:       "inkwell/1.0 (link checker)",
			ArchiveEndpoint: "https://archive.org/wayback/available",
		},
		Watch:  Watch{DebounceMS: 1000},
		Server: Server{Port: 8000},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// ProbeTimeout returns the liveness probe timeout as a duration.
func (c *Config) ProbeTimeout() time.Duration {
	if c.Liveness.TimeoutSeconds <= 0 {
		return 12 * time.Second
	}
	return time.Duration(c.Liveness.TimeoutSeconds) * time.Second
}

// Debounce returns the watcher debounce window as a duration.
func (c *Config) Debounce() time.Duration {
	if c.Watch.DebounceMS <= 0 {
		return time.Second
	}
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
