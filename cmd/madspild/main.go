package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/samirrijal/madspild/cmd/madspild/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envFlag := &cli.StringFlag{
		Name:  "env",
		Usage: "environment file loaded before configuration",
		Value: ".env",
	}

	app := &cli.Command{
		Name:  "madspild",
		Usage: "find discounted near-expiry food at Danish stores",
		Commands: []*cli.Command{
			{
				Name:  "search",
				Usage: "search for offers around a place or coordinates",
				Flags: []cli.Flag{
					envFlag,
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "address, place name or 4-digit postal code",
					},
					&cli.FloatFlag{
						Name:  "lat",
						Usage: "latitude of the search center",
					},
					&cli.FloatFlag{
						Name:  "lon",
						Usage: "longitude of the search center",
					},
					&cli.FloatFlag{
						Name:  "radius",
						Usage: "search radius in km (capped at 25)",
						Value: 5,
					},
					&cli.StringSliceFlag{
						Name:    "term",
						Aliases: []string{"t"},
						Usage:   "filter term, repeatable; offers matching any term are shown",
					},
					&cli.StringSliceFlag{
						Name:  "quick",
						Usage: "quick filter by English or Danish name, repeatable",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "print the filtered view as JSON",
					},
				},
				Action: commands.SearchAction,
			},
			{
				Name:   "quick-filters",
				Usage:  "list the quick filters",
				Action: commands.QuickFiltersAction,
			},
			{
				Name:  "events",
				Usage: "follow the events of a search session",
				Flags: []cli.Flag{
					envFlag,
					&cli.StringFlag{
						Name:     "session",
						Usage:    "session id",
						Required: true,
					},
				},
				Action: commands.EventsAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
