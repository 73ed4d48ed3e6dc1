// Package crawler implements a recursive link crawler that walks item
// listings, follows pagination, and pulls detail pages whose URL looks
// relevant. It emits the same result shape as the search orchestrator but is
// a logically separate producer feeding its own accumulator.
package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/msnfinder/msnfinder/pkg/core"
	"github.com/msnfinder/msnfinder/pkg/log"
	"github.com/msnfinder/msnfinder/pkg/scoring"
)

type Config struct {
	Seeds []string
	// ItemSelector identifies one result block on a listing page. The
	// block's first heading is the title, its first anchor the link.
	ItemSelector string
	// TitleSelector is looked up inside each item block.
	TitleSelector string
	// NextSelector identifies the single pagination link on a page.
	NextSelector string
	// DetailSelector identifies the content block of a detail page.
	DetailSelector string
	// Keywords drive the default relevance predicate: an outbound link
	// containing any keyword is fetched as a detail page.
	Keywords  []string
	Timeout   time.Duration
	UserAgent string
}

func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return fmt.Errorf("at least one seed URL must be configured")
	}
	for _, seed := range c.Seeds {
		u, err := url.Parse(seed)
		if err != nil || !u.IsAbs() {
			return fmt.Errorf("seed %q is not an absolute URL", seed)
		}
	}
	if c.ItemSelector == "" {
		c.ItemSelector = "div.item"
	}
	if c.TitleSelector == "" {
		c.TitleSelector = "h2"
	}
	if c.NextSelector == "" {
		c.NextSelector = "a.next"
	}
	if c.DetailSelector == "" {
		c.DetailSelector = "div.detail"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "msnfinder/1.0 crawler"
	}
	return nil
}

// Crawler walks pages with an explicit work stack and a visited set instead
// of recursion, so memory stays bounded and cancellation can be observed
// between every fetch.
type Crawler struct {
	config   *Config
	client   *http.Client
	relevant core.Relevance
	logger   *log.Logger
}

// New creates a crawler. When relevant is nil, a case-insensitive substring
// predicate over cfg.Keywords is used, folded the same way the scoring
// policy folds query terms.
func New(cfg Config, relevant core.Relevance) (*Crawler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if relevant == nil {
		keywords := make([]string, 0, len(cfg.Keywords))
		for _, kw := range cfg.Keywords {
			keywords = append(keywords, scoring.Fold(kw))
		}
		relevant = func(link string) bool {
			folded := scoring.Fold(link)
			for _, kw := range keywords {
				if strings.Contains(folded, kw) {
					return true
				}
			}
			return false
		}
	}
	return &Crawler{
		config:   &cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		relevant: relevant,
		logger:   log.ForService("crawler"),
	}, nil
}

type pageKind int

const (
	kindListing pageKind = iota
	kindDetail
)

type workItem struct {
	url  string
	kind pageKind
}

// Crawl traverses eagerly: every reachable page is fetched as fast as the
// emit callback returns, depth-first, until the stack drains or ctx is
// cancelled. Eager traversal was chosen over a pull-based iterator so the
// failure and timeout behavior of one crawl stays confined to the one
// goroutine running it; consumers needing backpressure can block in emit.
//
// A fetch failure terminates only that branch; siblings already on the
// stack are unaffected. The returned error is non-nil only on cancellation.
func (c *Crawler) Crawl(ctx context.Context, emit func(core.Result)) error {
	visited := make(map[string]struct{})
	stack := make([]workItem, 0, len(c.config.Seeds))
	// Reverse push so seeds pop in declaration order.
	for i := len(c.config.Seeds) - 1; i >= 0; i-- {
		stack = append(stack, workItem{url: c.config.Seeds[i], kind: kindListing})
	}

	pages := 0
	for len(stack) > 0 {
		select {
		case <-ctx.Done():
			c.logger.Infof("crawl cancelled after %d pages", pages)
			return ctx.Err()
		default:
		}

		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, seen := visited[item.url]; seen {
			continue
		}
		visited[item.url] = struct{}{}

		doc, base, err := c.fetch(ctx, item.url)
		if err != nil {
			// Branch failure only; the rest of the stack continues.
			c.logger.Warnf("fetching %s: %v", item.url, err)
			continue
		}
		pages++

		switch item.kind {
		case kindDetail:
			c.emitDetail(doc, item.url, emit)
		case kindListing:
			stack = c.walkListing(doc, base, emit, stack)
		}
	}

	c.logger.Infof("crawl finished: %d pages visited", pages)
	return nil
}

func (c *Crawler) fetch(ctx context.Context, pageURL string) (*goquery.Document, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warnf("closing response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing page: %w", err)
	}
	return doc, resp.Request.URL, nil
}

// walkListing emits one result per item block, then queues the pagination
// link and any relevant outbound links. Pushed after the next-page link,
// detail pages pop first: the traversal digs into details before paginating.
func (c *Crawler) walkListing(doc *goquery.Document, base *url.URL, emit func(core.Result), stack []workItem) []workItem {
	doc.Find(c.config.ItemSelector).Each(func(_ int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Find(c.config.TitleSelector).First().Text())
		link, ok := sel.Find("a").First().Attr("href")
		if title == "" || !ok {
			return
		}
		emit(core.Result{
			Source:  "crawler",
			Title:   title,
			Link:    resolve(base, link),
			Score:   scoring.MaxScore,
			FoundAt: time.Now().UTC(),
		})
	})

	if next, ok := doc.Find(c.config.NextSelector).First().Attr("href"); ok {
		stack = append(stack, workItem{url: resolve(base, next), kind: kindListing})
	}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		target := resolve(base, href)
		if c.relevant(target) {
			stack = append(stack, workItem{url: target, kind: kindDetail})
		}
	})

	return stack
}

// emitDetail extracts the content block of a detail page as a single
// result. Detail items always carry the maximal score so they qualify
// regardless of the caller's threshold.
func (c *Crawler) emitDetail(doc *goquery.Document, pageURL string, emit func(core.Result)) {
	detail := doc.Find(c.config.DetailSelector).First()
	if detail.Length() == 0 {
		c.logger.Debugf("no detail block on %s", pageURL)
		return
	}

	title := strings.TrimSpace(detail.Find("h1").First().Text())
	if title == "" {
		title = pageURL
	}
	emit(core.Result{
		Source:  "crawler",
		Title:   title,
		Link:    pageURL,
		Score:   scoring.MaxScore,
		Detail:  strings.TrimSpace(detail.Text()),
		FoundAt: time.Now().UTC(),
	})
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
