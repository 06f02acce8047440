package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samirrijal/madspild/internal/core/domain"
	"github.com/samirrijal/madspild/internal/core/usecases"
)

// SearchAction runs one search, applies the requested filters and prints the result.
func SearchAction(ctx context.Context, cmd *cli.Command) error {
	query := cmd.String("query")
	hasPoint := cmd.IsSet("lat") && cmd.IsSet("lon")
	if query == "" && !hasPoint {
		return errors.New("either --query or both --lat and --lon are required")
	}

	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	svc := usecases.NewSearchService("cli", appCtx.Offers, appCtx.Locations, nil)

	radius := cmd.Float("radius")
	if hasPoint {
		_, err = svc.Search(ctx, domain.SearchRequest{
			Center:   domain.GeoPoint{Lat: cmd.Float("lat"), Lon: cmd.Float("lon")},
			RadiusKm: radius,
			Source:   domain.SourceExplicitLocation,
		})
	} else {
		_, err = svc.SearchLocation(ctx, query, radius)
	}
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if err := applyFilters(ctx, svc, cmd.StringSlice("quick"), cmd.StringSlice("term")); err != nil {
		return err
	}

	snap := svc.Snapshot()
	if cmd.Bool("json") {
		return writeJSON(os.Stdout, snap.View)
	}
	renderSearch(os.Stdout, snap)
	return nil
}

// applyFilters adds quick filters first, then free-text terms.
func applyFilters(ctx context.Context, svc *usecases.SearchService, quick, terms []string) error {
	for _, name := range quick {
		if _, err := svc.AddQuickFilter(ctx, name); err != nil {
			return fmt.Errorf("quick filter %q: %w", name, err)
		}
	}
	for _, t := range terms {
		svc.AddTerm(ctx, t)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
