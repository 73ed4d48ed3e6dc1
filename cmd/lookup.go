package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/msnfinder/msnfinder/pkg/config"
	"github.com/msnfinder/msnfinder/pkg/lookup"
)

// LookupCommand creates the lookup command with phone and ip subcommands
func LookupCommand() *cli.Command {
	return &cli.Command{
		Name:  "lookup",
		Usage: "Enrich a phone number or IP address",
		Commands: []*cli.Command{
			{
				Name:      "phone",
				Usage:     "Look up carrier and region for a phone number",
				ArgsUsage: "<number>",
				Action: func(ctx context.Context, c *cli.Command) error {
					return lookupPhone(ctx, c)
				},
			},
			{
				Name:      "ip",
				Usage:     "Geolocate an IP address",
				ArgsUsage: "<address>",
				Action: func(ctx context.Context, c *cli.Command) error {
					return lookupIP(ctx, c)
				},
			},
		},
	}
}

func lookupService(c *cli.Command) (*lookup.Service, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return lookup.NewService(lookup.Credentials{
		TwilioSID:    cfg.Lookup.TwilioSID,
		TwilioToken:  cfg.Lookup.TwilioToken,
		TelnyxToken:  cfg.Lookup.TelnyxToken,
		NumverifyKey: cfg.Lookup.NumverifyKey,
	}), nil
}

func lookupPhone(ctx context.Context, c *cli.Command) error {
	number := c.Args().First()
	if number == "" {
		return fmt.Errorf("no phone number given")
	}

	svc, err := lookupService(c)
	if err != nil {
		return err
	}

	info, err := svc.LookupPhone(ctx, number)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(info.Number))
	fmt.Printf("  Region:   %s\n", info.Region)
	if info.Carrier != "" {
		fmt.Printf("  Carrier:  %s\n", info.Carrier)
	}
	if info.Location != "" {
		fmt.Printf("  Location: %s\n", info.Location)
	}
	fmt.Println(metaStyle.Render("provider: " + info.Provider))
	return nil
}

func lookupIP(ctx context.Context, c *cli.Command) error {
	addr := c.Args().First()
	if addr == "" {
		return fmt.Errorf("no IP address given")
	}

	svc, err := lookupService(c)
	if err != nil {
		return err
	}

	info, err := svc.LookupIP(ctx, addr)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(info.IP))
	if info.City != "" {
		fmt.Printf("  City:     %s\n", info.City)
	}
	if info.Region != "" {
		fmt.Printf("  Region:   %s\n", info.Region)
	}
	if info.Country != "" {
		fmt.Printf("  Country:  %s\n", info.Country)
	}
	if info.Loc != "" {
		fmt.Printf("  Coords:   %s\n", info.Loc)
	}
	if info.Org != "" {
		fmt.Printf("  Org:      %s\n", info.Org)
	}
	return nil
}
