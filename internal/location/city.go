package location

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/votehubph/backend/internal/models"
)

// MatchCity finds the city named by hint. Tiers are tried in order over the
// whole list, so an exact "Quezon City" beats a fuzzy "Quezon":
// exact, then equal after stripping "city", then substring either way.
func MatchCity(hint string, cities []models.City) *models.City {
	h := normalize(hint)
	if h == "" {
		return nil
	}
	names := make([]string, len(cities))
	for i := range cities {
		names[i] = normalize(cities[i].Name)
	}

	for i := range cities {
		if names[i] == h {
			return &cities[i]
		}
	}
	hb := stripCity(h)
	for i := range cities {
		if hb != "" && stripCity(names[i]) == hb {
			return &cities[i]
		}
	}
	for i := range cities {
		if containsEither(names[i], h) {
			return &cities[i]
		}
	}
	return nil
}

// MatchCityAcrossRegions looks for hint in every region's city list. Lists are
// fetched concurrently but scanned in the order regions are given, so the
// result does not depend on fetch timing. Regions whose fetch failed are
// skipped; their errors are returned only when nothing matched.
func MatchCityAcrossRegions(ctx context.Context, dir Directory, hint string, regions []models.Region, concurrency int) (*models.Region, *models.City, error) {
	if normalize(hint) == "" || len(regions) == 0 {
		return nil, nil, nil
	}
	if concurrency < 1 {
		concurrency = 1
	}

	lists := make([][]models.City, len(regions))
	errs := make([]error, len(regions))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i := range regions {
		g.Go(func() error {
			cities, err := dir.Cities(ctx, regions[i].ID)
			if err != nil {
				errs[i] = fmt.Errorf("cities of region %d: %w", regions[i].ID, err)
				return nil
			}
			lists[i] = cities
			return nil
		})
	}
	_ = g.Wait()

	for i := range regions {
		if c := MatchCity(hint, lists[i]); c != nil {
			return &regions[i], c, nil
		}
	}
	return nil, nil, errors.Join(errs...)
}
