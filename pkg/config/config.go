package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

type Config struct {
	// ListenAddr is the address the API server binds to in serve mode.
	ListenAddr string `toml:"listen_addr"`
	// StorageDir, when set, enables the persistent useful-link store.
	StorageDir string        `toml:"storage_dir,omitempty"`
	Finder     FinderConfig  `toml:"finder"`
	Crawler    CrawlerConfig `toml:"crawler"`
	Lookup     LookupConfig  `toml:"lookup"`
	// Backends is an ordered list; the orchestrator queries backends in
	// exactly this order for every token.
	Backends []BackendInfo `toml:"backends"`
}

type FinderConfig struct {
	MaxRetries int      `toml:"max_retries"`
	RetryDelay Duration `toml:"retry_delay"`
	MinScore   int      `toml:"min_score"`
	MatchCount int      `toml:"match_count"`
}

type CrawlerConfig struct {
	Seeds        []string `toml:"seeds"`
	ItemSelector string   `toml:"item_selector"`
	// Keywords drive the relevance predicate for outbound links; a link
	// containing any keyword is followed as a detail page.
	Keywords []string `toml:"keywords"`
	Timeout  Duration `toml:"timeout"`
}

type LookupConfig struct {
	TwilioSID    string `toml:"twilio_sid,omitempty"`
	TwilioToken  string `toml:"twilio_token,omitempty"`
	TelnyxToken  string `toml:"telnyx_token,omitempty"`
	NumverifyKey string `toml:"numverify_key,omitempty"`
}

type BackendInfo struct {
	Name   string      `toml:"name"`
	Type   string      `toml:"type"`
	Config interface{} `toml:"config,omitempty"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func GetDefaultConfig() *Config {
	return &Config{
		ListenAddr: "127.0.0.1:8080",
		Finder: FinderConfig{
			MaxRetries: 5,
			RetryDelay: Duration{time.Second},
			MinScore:   50,
			MatchCount: 10,
		},
		Crawler: CrawlerConfig{
			ItemSelector: "div.item",
			Keywords:     []string{"instagram.com", "profile"},
			Timeout:      Duration{30 * time.Second},
		},
		Backends: []BackendInfo{
			{Name: "google", Type: "google"},
			{Name: "duckduckgo", Type: "duckduckgo"},
		},
	}
}

func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	defaults := GetDefaultConfig()
	if config.ListenAddr == "" {
		config.ListenAddr = defaults.ListenAddr
	}
	if config.Finder.MaxRetries <= 0 {
		config.Finder.MaxRetries = defaults.Finder.MaxRetries
	}
	if config.Finder.RetryDelay.Duration == 0 {
		config.Finder.RetryDelay = defaults.Finder.RetryDelay
	}
	if config.Finder.MinScore == 0 {
		config.Finder.MinScore = defaults.Finder.MinScore
	}
	if config.Finder.MatchCount == 0 {
		config.Finder.MatchCount = defaults.Finder.MatchCount
	}
	if config.Crawler.ItemSelector == "" {
		config.Crawler.ItemSelector = defaults.Crawler.ItemSelector
	}
	if config.Crawler.Timeout.Duration == 0 {
		config.Crawler.Timeout = defaults.Crawler.Timeout
	}
	if len(config.Backends) == 0 {
		config.Backends = defaults.Backends
	}

	return &config, nil
}

func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// SaveTemplateConfig writes the annotated sample config, used by `init`.
func SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(configPath, []byte(configTemplate), 0644)
}

// GetBackendConfig returns the type and raw config for a named backend.
func (c *Config) GetBackendConfig(name string) (string, interface{}, error) {
	for _, info := range c.Backends {
		if info.Name == name {
			return info.Type, info.Config, nil
		}
	}
	return "", nil, fmt.Errorf("backend %s not found", name)
}

// BackendOrder returns configured backend names in declaration order.
func (c *Config) BackendOrder() []string {
	names := make([]string, 0, len(c.Backends))
	for _, info := range c.Backends {
		names = append(names, info.Name)
	}
	return names
}

// GetDefaultStorageDir returns the default directory for the link store.
func GetDefaultStorageDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	dir := filepath.Join(dataDir, "msnfinder")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating storage directory %s: %w", dir, err)
	}

	return dir, nil
}

// GetConfigDir returns the configuration directory.
func GetConfigDir() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	dir := filepath.Join(configDir, "msnfinder")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	return dir, nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
