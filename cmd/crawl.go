package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/msnfinder/msnfinder/pkg/config"
	"github.com/msnfinder/msnfinder/pkg/core"
	"github.com/msnfinder/msnfinder/pkg/log"
)

// CrawlCommand creates the crawl command
func CrawlCommand() *cli.Command {
	return &cli.Command{
		Name:  "crawl",
		Usage: "Crawl the configured seed sites for items and detail pages",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "seed",
				Usage: "Seed URL (overrides config, repeatable)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Bool("debug") {
				log.SetGlobalDebug(true)
			}
			return runCrawl(ctx, c)
		},
	}
}

func runCrawl(ctx context.Context, c *cli.Command) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if seeds := c.StringSlice("seed"); len(seeds) > 0 {
		cfg.Crawler.Seeds = seeds
	}

	cr, err := buildCrawler(cfg)
	if err != nil {
		return fmt.Errorf("building crawler: %w", err)
	}
	if cr == nil {
		return fmt.Errorf("no crawler seeds configured; set [crawler] seeds or pass --seed")
	}

	count := 0
	err = cr.Crawl(ctx, func(r core.Result) {
		count++
		fmt.Println(resultStyle.Render(fmt.Sprintf("%s\n%s",
			boldStyle.Render(r.Title), linkStyle.Render(r.Link))))
		if r.Detail != "" {
			fmt.Println(metaStyle.Render(r.Detail))
		}
	})
	if err != nil {
		return err
	}

	fmt.Println(metaStyle.Render(fmt.Sprintf("%d items found", count)))
	return nil
}
