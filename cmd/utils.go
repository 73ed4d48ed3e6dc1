package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/msnfinder/msnfinder/pkg/config"
	"github.com/msnfinder/msnfinder/pkg/core"
	"github.com/msnfinder/msnfinder/pkg/crawler"
	"github.com/msnfinder/msnfinder/pkg/finder"
	"github.com/msnfinder/msnfinder/pkg/scoring"
	"github.com/msnfinder/msnfinder/pkg/storage"
)

// createBackendsFromConfig creates and configures backends from the config,
// preserving the declaration order.
func createBackendsFromConfig(registry *core.Registry, cfg *config.Config) ([]core.Backend, error) {
	ordered := make([]core.Backend, 0, len(cfg.Backends))

	for _, name := range cfg.BackendOrder() {
		backendType, rawConfig, err := cfg.GetBackendConfig(name)
		if err != nil {
			return nil, fmt.Errorf("getting config for backend %s: %w", name, err)
		}

		// Create backend with empty config first
		if err := registry.CreateBackend(name, backendType, nil); err != nil {
			return nil, fmt.Errorf("creating backend %s: %w", name, err)
		}

		backend, err := registry.GetBackend(name)
		if err != nil {
			return nil, fmt.Errorf("backend %s not found after creation: %w", name, err)
		}

		// Convert the raw config to the proper type using the backend's
		// ConfigType
		backendConfig, err := convertRawConfigToType(backend, rawConfig)
		if err != nil {
			return nil, fmt.Errorf("converting config for backend %s: %w", name, err)
		}

		if err := backend.SetConfig(backendConfig); err != nil {
			return nil, fmt.Errorf("setting config for backend %s: %w", name, err)
		}

		ordered = append(ordered, backend)
	}

	return ordered, nil
}

// clearBackends removes every registered backend instance. Reload uses it
// so instances dropped or renamed in a new config do not linger in the
// registry.
func clearBackends(registry *core.Registry) error {
	var firstErr error
	for _, name := range registry.ListBackends() {
		if err := registry.RemoveBackend(name); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("removing backend %s: %w", name, err)
		}
	}
	return firstErr
}

// convertRawConfigToType converts raw config to the backend's expected type
func convertRawConfigToType(b core.Backend, rawConfig interface{}) (interface{}, error) {
	configType := b.ConfigType()

	if rawConfig == nil {
		// Return the default config type
		return configType, nil
	}

	// Marshal and unmarshal to convert between types
	configData, err := toml.Marshal(rawConfig)
	if err != nil {
		return nil, fmt.Errorf("marshaling config data: %w", err)
	}

	if err := toml.Unmarshal(configData, configType); err != nil {
		return nil, fmt.Errorf("unmarshaling backend config: %w", err)
	}

	return configType, nil
}

// buildFinder wires a Finder from configuration: ordered backends, keyword
// scorer and retry settings.
func buildFinder(registry *core.Registry, cfg *config.Config) (*finder.Finder, error) {
	backends, err := createBackendsFromConfig(registry, cfg)
	if err != nil {
		return nil, err
	}

	newScorer := func(terms []string) core.Scorer {
		return scoring.NewKeywordScorer(terms)
	}

	return finder.New(backends, newScorer, finder.Options{
		MaxRetries: cfg.Finder.MaxRetries,
		RetryDelay: cfg.Finder.RetryDelay.Duration,
	})
}

// buildCrawler returns a crawler when seeds are configured, nil otherwise.
func buildCrawler(cfg *config.Config) (*crawler.Crawler, error) {
	if len(cfg.Crawler.Seeds) == 0 {
		return nil, nil
	}
	return crawler.New(crawler.Config{
		Seeds:        cfg.Crawler.Seeds,
		ItemSelector: cfg.Crawler.ItemSelector,
		Keywords:     cfg.Crawler.Keywords,
		Timeout:      cfg.Crawler.Timeout.Duration,
	}, nil)
}

// openLinkStore opens the persistent link store when a storage directory is
// configured, nil otherwise.
func openLinkStore(cfg *config.Config) (*storage.LinkStore, error) {
	if cfg.StorageDir == "" {
		return nil, nil
	}
	return storage.NewLinkStore(filepath.Join(cfg.StorageDir, "links.db"))
}
