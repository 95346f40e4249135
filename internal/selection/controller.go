// Package selection drives the four dependent location dropdowns: each level's
// options are fetched when its parent is chosen, and choosing an ancestor
// always clears every descendant.
package selection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/votehubph/backend/internal/location"
	"github.com/votehubph/backend/internal/logger"
	"github.com/votehubph/backend/internal/models"
)

var (
	ErrNotLoaded        = errors.New("options for this level are not loaded")
	ErrUnknownOption    = errors.New("value is not among the loaded options")
	ErrDistrictRequired = errors.New("select a district before a barangay")
	ErrNoResolver       = errors.New("auto-detect needs a resolver")
)

type EventKind int

const (
	// Changed fires when region, city or district changes, or on reset.
	Changed EventKind = iota
	// Complete fires when a barangay is chosen.
	Complete
)

type Event struct {
	Kind      EventKind
	Selection models.LocationSelection
	Auto      bool
}

// mode says where a selection came from. Only manual selections are persisted.
type mode int

const (
	manual mode = iota
	auto
	restore
)

const (
	lvRegion = iota
	lvCity
	lvDistrict
	lvBarangay
)

type Controller struct {
	dir      location.Directory
	resolver *location.Resolver
	store    Store
	log      *slog.Logger

	mu        sync.Mutex
	state     State
	gen       [4]uint64
	listeners []func(Event)
}

type Option func(*Controller)

func WithResolver(r *location.Resolver) Option {
	return func(c *Controller) { c.resolver = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// New builds a controller. A nil store keeps selections in memory only.
func New(dir location.Directory, store Store, opts ...Option) *Controller {
	c := &Controller{dir: dir, store: store, log: logger.L()}
	if c.store == nil {
		c.store = NewMemoryStore()
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Subscribe registers fn for every future event. fn runs without the lock held.
func (c *Controller) Subscribe(fn func(Event)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

func (c *Controller) Selection() models.LocationSelection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Selection()
}

// invalidate discards in-flight fetches for level and everything below it.
func (c *Controller) invalidate(level int) {
	for i := level; i < len(c.gen); i++ {
		c.gen[i]++
	}
}

// Init clears every level and loads the region list.
func (c *Controller) Init(ctx context.Context) error {
	c.mu.Lock()
	c.state = State{}
	c.state.Region.loading()
	c.invalidate(lvRegion)
	g := c.gen[lvRegion]
	c.mu.Unlock()

	regions, err := c.dir.Regions(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen[lvRegion] != g {
		return nil
	}
	if err != nil {
		c.state.Region = Level[models.Region]{Err: err}
		return fmt.Errorf("load regions: %w", err)
	}
	c.state.Region = Level[models.Region]{Phase: Loaded, Options: regions}
	return nil
}

func (c *Controller) SelectRegion(ctx context.Context, id int) error {
	return c.selectRegion(ctx, id, manual)
}

func (c *Controller) SelectCity(ctx context.Context, id int) error {
	return c.selectCity(ctx, id, manual)
}

func (c *Controller) SelectDistrict(ctx context.Context, id int) error {
	return c.selectDistrict(ctx, id, manual)
}

func (c *Controller) SelectBarangay(ctx context.Context, id int) error {
	return c.selectBarangay(ctx, id, manual)
}

func (c *Controller) selectRegion(ctx context.Context, id int, m mode) error {
	c.mu.Lock()
	if c.state.Region.Phase < Loaded {
		c.mu.Unlock()
		return fmt.Errorf("region: %w", ErrNotLoaded)
	}
	if !hasOption(c.state.Region.Options, id, func(r models.Region) int { return r.ID }) {
		c.mu.Unlock()
		return fmt.Errorf("%w: region %d", ErrUnknownOption, id)
	}
	c.state.Region.Phase = Selected
	c.state.Region.Value = id
	c.state.City.loading()
	c.state.District.clear()
	c.state.Barangay.clear()
	c.state.DistrictSkipped = false
	c.state.AutoDetected = m == auto
	c.invalidate(lvCity)
	g := c.gen[lvCity]
	c.mu.Unlock()

	cities, err := c.dir.Cities(ctx, id)

	c.mu.Lock()
	if c.gen[lvCity] != g {
		c.mu.Unlock()
		c.log.Debug("selection_superseded", "level", "city", "region_id", id)
		return nil
	}
	if err != nil {
		c.state.City = Level[models.City]{Err: err}
		err = fmt.Errorf("load cities: %w", err)
	} else {
		c.state.City = Level[models.City]{Phase: Loaded, Options: cities}
	}
	sel := c.state.Selection()
	c.mu.Unlock()

	c.finish(ctx, Changed, sel, m)
	return err
}

func (c *Controller) selectCity(ctx context.Context, id int, m mode) error {
	c.mu.Lock()
	if c.state.City.Phase < Loaded {
		c.mu.Unlock()
		return fmt.Errorf("city: %w", ErrNotLoaded)
	}
	if !hasOption(c.state.City.Options, id, func(x models.City) int { return x.ID }) {
		c.mu.Unlock()
		return fmt.Errorf("%w: city %d", ErrUnknownOption, id)
	}
	c.state.City.Phase = Selected
	c.state.City.Value = id
	c.state.District.loading()
	c.state.Barangay.clear()
	c.state.DistrictSkipped = false
	c.state.AutoDetected = m == auto
	c.invalidate(lvDistrict)
	g := c.gen[lvDistrict]
	c.mu.Unlock()

	districts, err := c.dir.Districts(ctx, id)

	c.mu.Lock()
	if c.gen[lvDistrict] != g {
		c.mu.Unlock()
		c.log.Debug("selection_superseded", "level", "district", "city_id", id)
		return nil
	}
	switch {
	case err != nil:
		c.state.District = Level[models.District]{Err: err}
		err = fmt.Errorf("load districts: %w", err)
	case len(districts) > 0:
		c.state.District = Level[models.District]{Phase: Loaded, Options: districts}
	default:
		// No districts: skip the level and load barangays for the whole city.
		c.state.District.clear()
		c.state.DistrictSkipped = true
		c.state.Barangay.loading()
		c.gen[lvBarangay]++
		gb := c.gen[lvBarangay]
		c.mu.Unlock()

		var barangays []models.Barangay
		barangays, err = c.dir.Barangays(ctx, id, 0)

		c.mu.Lock()
		if c.gen[lvBarangay] != gb {
			c.mu.Unlock()
			c.log.Debug("selection_superseded", "level", "barangay", "city_id", id)
			return nil
		}
		if err != nil {
			c.state.Barangay = Level[models.Barangay]{Err: err}
			err = fmt.Errorf("load barangays: %w", err)
		} else {
			c.state.Barangay = Level[models.Barangay]{Phase: Loaded, Options: barangays}
		}
	}
	sel := c.state.Selection()
	c.mu.Unlock()

	c.finish(ctx, Changed, sel, m)
	return err
}

func (c *Controller) selectDistrict(ctx context.Context, id int, m mode) error {
	c.mu.Lock()
	if c.state.District.Phase < Loaded {
		c.mu.Unlock()
		return fmt.Errorf("district: %w", ErrNotLoaded)
	}
	if !hasOption(c.state.District.Options, id, func(d models.District) int { return d.ID }) {
		c.mu.Unlock()
		return fmt.Errorf("%w: district %d", ErrUnknownOption, id)
	}
	cityID := c.state.City.Value
	c.state.District.Phase = Selected
	c.state.District.Value = id
	c.state.Barangay.loading()
	c.state.AutoDetected = m == auto
	c.invalidate(lvBarangay)
	g := c.gen[lvBarangay]
	c.mu.Unlock()

	barangays, err := c.dir.Barangays(ctx, cityID, id)

	c.mu.Lock()
	if c.gen[lvBarangay] != g {
		c.mu.Unlock()
		c.log.Debug("selection_superseded", "level", "barangay", "district_id", id)
		return nil
	}
	if err != nil {
		c.state.Barangay = Level[models.Barangay]{Err: err}
		err = fmt.Errorf("load barangays: %w", err)
	} else {
		c.state.Barangay = Level[models.Barangay]{Phase: Loaded, Options: barangays}
	}
	sel := c.state.Selection()
	c.mu.Unlock()

	c.finish(ctx, Changed, sel, m)
	return err
}

func (c *Controller) selectBarangay(ctx context.Context, id int, m mode) error {
	c.mu.Lock()
	if c.state.DistrictRequired() && c.state.District.Phase != Selected {
		c.mu.Unlock()
		return ErrDistrictRequired
	}
	if c.state.Barangay.Phase < Loaded {
		c.mu.Unlock()
		return fmt.Errorf("barangay: %w", ErrNotLoaded)
	}
	if !hasOption(c.state.Barangay.Options, id, func(b models.Barangay) int { return b.ID }) {
		c.mu.Unlock()
		return fmt.Errorf("%w: barangay %d", ErrUnknownOption, id)
	}
	c.state.Barangay.Phase = Selected
	c.state.Barangay.Value = id
	c.state.AutoDetected = m == auto
	sel := c.state.Selection()
	c.mu.Unlock()

	c.finish(ctx, Complete, sel, m)
	return nil
}

// AutoDetect resolves hints and applies the result through the same setters
// as manual selection. Nothing is written to or removed from the store.
func (c *Controller) AutoDetect(ctx context.Context, hints location.Hints) (models.LocationSelection, error) {
	if c.resolver == nil {
		return models.LocationSelection{}, ErrNoResolver
	}
	if err := c.ensureRegions(ctx); err != nil {
		return models.LocationSelection{}, err
	}
	sel, resolveErr := c.resolver.Resolve(ctx, hints)
	applied, err := c.apply(ctx, sel, auto)
	if err != nil {
		return applied, err
	}
	return applied, resolveErr
}

// Restore replays the stored selection without writing it back. It runs on
// mount and whenever the view becomes visible again, so a selection equal to
// the current one is not replayed. It reports whether anything was stored.
func (c *Controller) Restore(ctx context.Context) (bool, error) {
	sel, ok, err := c.store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load stored selection: %w", err)
	}
	if !ok {
		return false, nil
	}
	if sel == c.Selection() {
		return true, nil
	}
	if err := c.ensureRegions(ctx); err != nil {
		return true, err
	}
	_, err = c.apply(ctx, sel, restore)
	return true, err
}

// Reset clears every selection and the store. Region options are kept.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	region := c.state.Region
	if region.Phase == Selected {
		region.Phase = Loaded
		region.Value = 0
	}
	c.state = State{Region: region}
	c.invalidate(lvCity)
	c.mu.Unlock()

	err := c.store.Clear(ctx)
	c.emit(Event{Kind: Changed})
	if err != nil {
		return fmt.Errorf("clear stored selection: %w", err)
	}
	return nil
}

func (c *Controller) ensureRegions(ctx context.Context) error {
	c.mu.Lock()
	loaded := c.state.Region.Phase >= Loaded
	c.mu.Unlock()
	if loaded {
		return nil
	}
	return c.Init(ctx)
}

// apply walks sel top-down through the setters and returns the part that
// was applied before any failure.
func (c *Controller) apply(ctx context.Context, sel models.LocationSelection, m mode) (models.LocationSelection, error) {
	var applied models.LocationSelection
	if sel.RegionID == 0 {
		return applied, nil
	}
	if err := c.selectRegion(ctx, sel.RegionID, m); err != nil {
		return applied, err
	}
	applied.RegionID = sel.RegionID
	if sel.CityID == 0 {
		return applied, nil
	}
	if err := c.selectCity(ctx, sel.CityID, m); err != nil {
		return applied, err
	}
	applied.CityID = sel.CityID
	if sel.DistrictID != 0 {
		if err := c.selectDistrict(ctx, sel.DistrictID, m); err != nil {
			return applied, err
		}
		applied.DistrictID = sel.DistrictID
	}
	if sel.BarangayID != 0 {
		if err := c.selectBarangay(ctx, sel.BarangayID, m); err != nil {
			return applied, err
		}
		applied.BarangayID = sel.BarangayID
	}
	return applied, nil
}

func (c *Controller) finish(ctx context.Context, kind EventKind, sel models.LocationSelection, m mode) {
	if m == manual {
		if err := c.store.Save(ctx, sel); err != nil {
			c.log.Warn("selection_persist_failed", "err", err)
		}
	}
	c.emit(Event{Kind: kind, Selection: sel, Auto: m == auto})
}

func (c *Controller) emit(e Event) {
	c.mu.Lock()
	listeners := make([]func(Event), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(e)
	}
}

func hasOption[T any](opts []T, id int, key func(T) int) bool {
	for _, o := range opts {
		if key(o) == id {
			return true
		}
	}
	return false
}
