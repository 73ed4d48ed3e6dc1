package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/urfave/cli/v3"

	"github.com/msnfinder/msnfinder/pkg/config"
	"github.com/msnfinder/msnfinder/pkg/core"
	"github.com/msnfinder/msnfinder/pkg/finder"
)

// ExportCommand creates the export command
func ExportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Run a search and write the results to a file",
		ArgsUsage: "<subject terms...>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Output file; a .zst suffix enables zstd compression",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "match-count",
				Usage: "Stop after this many accepted results",
				Value: -1,
			},
			&cli.IntFlag{
				Name:  "min-score",
				Usage: "Minimum score a candidate needs to be accepted",
				Value: -1,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runExport(ctx, c)
		},
	}
}

type exportDocument struct {
	Input   string        `json:"input"`
	RunID   string        `json:"run_id"`
	Results []core.Result `json:"results"`
	Links   []string      `json:"links"`
	Count   int           `json:"count"`
}

func runExport(ctx context.Context, c *cli.Command) error {
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
		Mode:       finder.ModeLimited,
		MatchCount: matchCount,
		MinScore:   minScore,
	}
	if err := f.Start(ctx, params); err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		f.Stop()
	}()
	f.Wait()

	doc := exportDocument{
		Input:   input,
		RunID:   f.RunID(),
		Results: f.Results(),
		Links:   f.Links(),
	}
	doc.Count = len(doc.Results)

	outputPath := c.String("output")
	if err := writeExport(outputPath, doc); err != nil {
		return err
	}

	fmt.Printf("Exported %d results to %s\n", doc.Count, outputPath)
	return nil
}

func writeExport(path string, doc exportDocument) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fmt.Printf("Warning: failed to close output file: %v\n", err)
		}
	}()

	var w io.Writer = file
	if strings.HasSuffix(path, ".zst") {
		enc, err := zstd.NewWriter(file)
		if err != nil {
			return fmt.Errorf("creating zstd writer: %w", err)
		}
		defer func() {
			if err := enc.Close(); err != nil {
				fmt.Printf("Warning: failed to flush compressed output: %v\n", err)
			}
		}()
		w = enc
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	return nil
}
