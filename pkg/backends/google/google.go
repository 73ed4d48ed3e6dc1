// Package google implements a search backend scraping Google web search
// result pages.
package google

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/msnfinder/msnfinder/pkg/core"
)

func init() {
	core.RegisterBackendPrototype("google", &Backend{})
}

const defaultBaseURL = "https://www.google.com/search"

type Config struct {
	// BaseURL of the search endpoint. Overridable for testing and for
	// country-specific frontends.
	BaseURL string `toml:"base_url"`
	// MaxResults caps candidates returned per query.
	MaxResults int    `toml:"max_results"`
	UserAgent  string `toml:"user_agent"`
}

func (c *Config) Validate() error {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if c.MaxResults <= 0 {
		c.MaxResults = 20
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
	}
	return nil
}

type Backend struct {
	config       *Config
	client       *http.Client
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
			return nil, fmt.Errorf("invalid config type for google backend")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Backend{
		config:       cfg,
		client:       &http.Client{Timeout: 30 * time.Second},
		instanceName: instanceName,
	}, nil
}

func (b *Backend) Type() string {
	return "google"
}

func (b *Backend) Name() string {
	return b.instanceName
}

func (b *Backend) Search(ctx context.Context, query string) ([]core.Candidate, error) {
	searchURL := fmt.Sprintf("%s?q=%s", b.config.BaseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", b.config.UserAgent)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			fmt.Printf("Warning: failed to close response body: %v\n", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing result page: %w", err)
	}

	var candidates []core.Candidate
	doc.Find("div.g").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link, ok := sel.Find("a").First().Attr("href")
		if !ok {
			return true
		}
		title := strings.TrimSpace(sel.Find("h3").First().Text())
		if title == "" {
			return true
		}
		candidates = append(candidates, core.Candidate{Title: title, Link: cleanLink(link)})
		return len(candidates) < b.config.MaxResults
	})

	return candidates, nil
}

// cleanLink unwraps Google's /url?q=... redirect form when present.
func cleanLink(link string) string {
	if !strings.HasPrefix(link, "/url?") {
		return link
	}
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	if q := u.Query().Get("q"); q != "" {
		return q
	}
	return link
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
	return fmt.Errorf("invalid config type for google backend")
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
