package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cofc/campushunt/internal/docstore"
	"github.com/cofc/campushunt/internal/hunt"
)

// featuredLocations are the permanent campus landmarks.
var featuredLocations = []hunt.Location{
	{
		Title:       "Randolph Hall",
		Description: "Historic centerpiece of the College of Charleston campus",
		Latitude:    32.783832,
		Longitude:   -79.937160,
	},
	{
		Title:       "Cistern Yard",
		Description: "Iconic graduation venue surrounded by live oaks",
		Latitude:    32.783740,
		Longitude:   -79.937080,
	},
	{
		Title:       "Addlestone Library",
		Description: "Modern library facility with extensive resources",
		Latitude:    32.783608,
		Longitude:   -79.937340,
	},
}

// SeedLocations inserts the featured landmarks when the locations
// collection is empty. It does nothing otherwise.
func SeedLocations(ctx context.Context, logger *slog.Logger, store Store) error {
	existing, err := store.List(ctx, hunt.CollectionLocations, docstore.Query{Limit: 1})
	if err != nil {
		return fmt.Errorf("checking locations: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	for _, loc := range featuredLocations {
		if _, err := store.Create(ctx, hunt.CollectionLocations, loc); err != nil {
			return fmt.Errorf("seeding %s: %w", loc.Title, err)
		}
	}
	logger.Info("seeded featured locations", "count", len(featuredLocations))
	return nil
}
