package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"

	"github.com/msnfinder/msnfinder/pkg/config"
	"github.com/msnfinder/msnfinder/pkg/core"
	"github.com/msnfinder/msnfinder/pkg/finder"
	"github.com/msnfinder/msnfinder/pkg/log"
)

// Define styles using lipgloss
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	resultStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Margin(0, 0, 1, 2)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	linkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("32"))

	boldStyle = lipgloss.NewStyle().Bold(true)
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Run a search over the configured backends",
		ArgsUsage: "<subject terms...>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Run mode: limited or endless",
				Value: "limited",
			},
			&cli.IntFlag{
				Name:  "match-count",
				Usage: "Stop after this many accepted results (limited mode)",
				Value: -1,
			},
			&cli.IntFlag{
				Name:  "min-score",
				Usage: "Minimum score a candidate needs to be accepted",
				Value: -1,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Bool("debug") {
				log.SetGlobalDebug(true)
			}
			return runSearch(ctx, c)
		},
	}
}

func runSearch(ctx context.Context, c *cli.Command) error {
	input := strings.Join(c.Args().Slice(), " ")
	if input == "" {
		return fmt.Errorf("no subject terms given")
	}

	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	registry := core.GetGlobalRegistry()
	defer func() {
		if err := registry.Close(); err != nil {
			fmt.Printf("Warning: failed to close registry: %v\n", err)
		}
	}()

	f, err := buildFinder(registry, cfg)
	if err != nil {
		return fmt.Errorf("building finder: %w", err)
	}

	mode, err := finder.ParseMode(c.String("mode"))
	if err != nil {
		return err
	}

	matchCount := int(c.Int("match-count"))
	if matchCount < 0 {
		matchCount = cfg.Finder.MatchCount
	}
	minScore := int(c.Int("min-score"))
	if minScore < 0 {
		minScore = cfg.Finder.MinScore
	}

	params := finder.Params{
		Input:      input,
		Mode:       mode,
		MatchCount: matchCount,
		MinScore:   minScore,
	}
	if err := f.Start(ctx, params); err != nil {
		return err
	}

	// An endless CLI run blocks until interrupted; ctx carries the signal.
	go func() {
		<-ctx.Done()
		f.Stop()
	}()
	f.Wait()

	printResults(input, f.Results(), f.Links())
	return nil
}

func printResults(input string, results []core.Result, links []string) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("Results for %q", input)))

	if len(results) == 0 {
		fmt.Println(metaStyle.Render("No qualifying results found."))
		return
	}

	for _, r := range results {
		body := fmt.Sprintf("%s\n%s\n%s",
			boldStyle.Render(r.Title),
			linkStyle.Render(r.Link),
			metaStyle.Render(fmt.Sprintf("source=%s score=%d found=%s",
				r.Source, r.Score, r.FoundAt.Format("15:04:05"))))
		fmt.Println(resultStyle.Render(body))
	}

	fmt.Println(metaStyle.Render(fmt.Sprintf("%d results, %d useful links", len(results), len(links))))
}
