package location

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/votehubph/backend/internal/logger"
	"github.com/votehubph/backend/internal/metrics"
	"github.com/votehubph/backend/internal/models"
)

// ErrInconsistent is returned by Validate for a selection that does not
// describe a real path through the hierarchy.
var ErrInconsistent = errors.New("inconsistent location selection")

type Resolver struct {
	dir         Directory
	strategies  []RegionStrategy
	concurrency int
	log         *slog.Logger
}

type Option func(*Resolver)

// WithStrategies replaces the region strategies.
func WithStrategies(s []RegionStrategy) Option {
	return func(r *Resolver) { r.strategies = s }
}

// WithConcurrency bounds the parallel city fetches of the cross-region fallback.
func WithConcurrency(n int) Option {
	return func(r *Resolver) { r.concurrency = n }
}

func NewResolver(dir Directory, opts ...Option) *Resolver {
	r := &Resolver{
		dir:         dir,
		strategies:  DefaultRegionStrategies,
		concurrency: 4,
		log:         logger.L(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve fills as much of the hierarchy as the hints support: region, then
// city, then district or barangay. A stage that does not match stops the
// walk. The returned selection is consistent even when err is non-nil, in
// which case it holds whatever was resolved before the failed fetch.
func (r *Resolver) Resolve(ctx context.Context, h Hints) (sel models.LocationSelection, err error) {
	defer func() {
		depth := sel.Depth()
		if depth == "" {
			depth = "none"
		}
		metrics.ResolveTotal.WithLabelValues(depth).Inc()
		r.log.Debug("location_resolve", "region_hint", h.Region, "city_hint", h.City,
			"barangay_hint", h.Barangay, "depth", depth, "err", err)
	}()

	regions, err := r.dir.Regions(ctx)
	if err != nil {
		return sel, fmt.Errorf("fetch regions: %w", err)
	}

	var city *models.City
	region, strategy := MatchRegionWith(r.strategies, h.Region, regions)
	if region != nil {
		metrics.RegionStrategyTotal.WithLabelValues(strategy).Inc()
		sel.RegionID = region.ID
		if h.City == "" {
			return sel, nil
		}
		cities, err := r.dir.Cities(ctx, region.ID)
		if err != nil {
			return sel, fmt.Errorf("fetch cities: %w", err)
		}
		city = MatchCity(h.City, cities)
	} else if h.City != "" {
		var err error
		region, city, err = MatchCityAcrossRegions(ctx, r.dir, h.City, regions, r.concurrency)
		if err != nil {
			return sel, err
		}
		if region != nil {
			metrics.RegionStrategyTotal.WithLabelValues("city-fallback").Inc()
			sel.RegionID = region.ID
		}
	}
	if city == nil {
		return sel, nil
	}
	sel.CityID = city.ID

	if h.Barangay == "" {
		return sel, nil
	}
	districts, err := r.dir.Districts(ctx, city.ID)
	if err != nil {
		return sel, fmt.Errorf("fetch districts: %w", err)
	}
	var barangays []models.Barangay
	if !city.HasDistricts || len(districts) == 0 {
		barangays, err = r.dir.Barangays(ctx, city.ID, 0)
		if err != nil {
			return sel, fmt.Errorf("fetch barangays: %w", err)
		}
	}
	sub := ResolveSubdivision(h.Barangay, *city, districts, barangays)
	sel.DistrictID = sub.DistrictID
	sel.BarangayID = sub.BarangayID
	return sel, nil
}

// Validate checks that every set field of sel exists and belongs to its
// parent, and that a barangay of a districted city comes with its district.
// Fetch failures are returned wrapped; consistency failures wrap ErrInconsistent.
func Validate(ctx context.Context, dir Directory, sel models.LocationSelection) error {
	if sel.IsZero() {
		return nil
	}
	if sel.Dangling() {
		return fmt.Errorf("%w: deeper level set without its parent", ErrInconsistent)
	}

	regions, err := dir.Regions(ctx)
	if err != nil {
		return fmt.Errorf("fetch regions: %w", err)
	}
	if !containsID(regions, sel.RegionID, func(r models.Region) int { return r.ID }) {
		return fmt.Errorf("%w: unknown region %d", ErrInconsistent, sel.RegionID)
	}
	if sel.CityID == 0 {
		return nil
	}

	cities, err := dir.Cities(ctx, sel.RegionID)
	if err != nil {
		return fmt.Errorf("fetch cities: %w", err)
	}
	var city *models.City
	for i := range cities {
		if cities[i].ID == sel.CityID {
			city = &cities[i]
			break
		}
	}
	if city == nil {
		return fmt.Errorf("%w: city %d is not in region %d", ErrInconsistent, sel.CityID, sel.RegionID)
	}

	districts, err := dir.Districts(ctx, city.ID)
	if err != nil {
		return fmt.Errorf("fetch districts: %w", err)
	}
	districted := city.HasDistricts && len(districts) > 0
	switch {
	case !districted && sel.DistrictID != 0:
		return fmt.Errorf("%w: city %d has no districts", ErrInconsistent, city.ID)
	case districted && sel.BarangayID != 0 && sel.DistrictID == 0:
		return fmt.Errorf("%w: city %d requires a district before a barangay", ErrInconsistent, city.ID)
	case sel.DistrictID != 0 && !containsID(districts, sel.DistrictID, func(d models.District) int { return d.ID }):
		return fmt.Errorf("%w: district %d is not in city %d", ErrInconsistent, sel.DistrictID, city.ID)
	}
	if sel.BarangayID == 0 {
		return nil
	}

	barangays, err := dir.Barangays(ctx, city.ID, sel.DistrictID)
	if err != nil {
		return fmt.Errorf("fetch barangays: %w", err)
	}
	if !containsID(barangays, sel.BarangayID, func(b models.Barangay) int { return b.ID }) {
		return fmt.Errorf("%w: barangay %d is not in city %d", ErrInconsistent, sel.BarangayID, city.ID)
	}
	return nil
}

func containsID[T any](items []T, id int, key func(T) int) bool {
	for _, it := range items {
		if key(it) == id {
			return true
		}
	}
	return false
}
