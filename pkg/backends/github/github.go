// Package github implements a search backend over the GitHub users and
// repositories search APIs. Useful when the subject is a developer handle.
package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"

	"github.com/msnfinder/msnfinder/pkg/core"
)

func init() {
	core.RegisterBackendPrototype("github", &Backend{})
}

type Config struct {
	// Token is optional; unauthenticated requests work but are heavily
	// rate-limited.
	Token      string `toml:"token"`
	MaxResults int    `toml:"max_results"`
	// SearchRepos also queries the repository search API, not just users.
	SearchRepos bool `toml:"search_repos"`
}

func (c *Config) Validate() error {
	if c.MaxResults <= 0 {
		c.MaxResults = 10
	}
	if c.MaxResults > 100 {
		c.MaxResults = 100
	}
	return nil
}

type Backend struct {
	config       *Config
	client       *github.Client
	instanceName string
}

func NewBackend(instanceName string, config interface{}) (core.Backend, error) {
	var cfg *Config
	if config == nil {
		cfg = &Config{}
	} else {
		var ok bool
		cfg, ok = config.(*Config)
		if !ok {
			return nil, fmt.Errorf("invalid config type for github backend")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var client *github.Client
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: cfg.Token},
		)
		tc := oauth2.NewClient(context.Background(), ts)
		client = github.NewClient(tc)
	} else {
		client = github.NewClient(nil)
	}

	return &Backend{
		config:       cfg,
		client:       client,
		instanceName: instanceName,
	}, nil
}

func (b *Backend) Type() string {
	return "github"
}

func (b *Backend) Name() string {
	return b.instanceName
}

func (b *Backend) Search(ctx context.Context, query string) ([]core.Candidate, error) {
	// The search APIs treat quotes literally; strip the phrase form.
	term := strings.Trim(query, `"`)

	opts := &github.SearchOptions{
		ListOptions: github.ListOptions{PerPage: b.config.MaxResults},
	}

	var candidates []core.Candidate

	users, _, err := b.client.Search.Users(ctx, term, opts)
	if err != nil {
		return nil, fmt.Errorf("user search: %w", err)
	}
	for _, u := range users.Users {
		if len(candidates) >= b.config.MaxResults {
			break
		}
		candidates = append(candidates, core.Candidate{
			Title: u.GetLogin(),
			Link:  u.GetHTMLURL(),
		})
	}

	if b.config.SearchRepos && len(candidates) < b.config.MaxResults {
		repos, _, err := b.client.Search.Repositories(ctx, term, opts)
		if err != nil {
			return nil, fmt.Errorf("repository search: %w", err)
		}
		for _, r := range repos.Repositories {
			if len(candidates) >= b.config.MaxResults {
				break
			}
			candidates = append(candidates, core.Candidate{
				Title: r.GetFullName(),
				Link:  r.GetHTMLURL(),
			})
		}
	}

	return candidates, nil
}

func (b *Backend) ConfigType() interface{} {
	return &Config{}
}

func (b *Backend) SetConfig(config interface{}) error {
	if cfg, ok := config.(*Config); ok {
		if err := cfg.Validate(); err != nil {
			return err
		}
		b.config = cfg
		return nil
	}
	return fmt.Errorf("invalid config type for github backend")
}

func (b *Backend) GetConfig() interface{} {
	return b.config
}

func (b *Backend) Close() error {
	return nil
}

func (b *Backend) Factory(instanceName string, config interface{}) (core.Backend, error) {
	return NewBackend(instanceName, config)
}
