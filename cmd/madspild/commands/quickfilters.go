package commands

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samirrijal/madspild/internal/core/filter"
)

// QuickFiltersAction prints the quick filters.
func QuickFiltersAction(ctx context.Context, cmd *cli.Command) error {
	renderQuickFilters(os.Stdout, filter.QuickFilters())
	return nil
}
