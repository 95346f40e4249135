package geocode

import (
	"context"
	"errors"
	"log/slog"

	"github.com/votehubph/backend/internal/location"
	"github.com/votehubph/backend/internal/logger"
)

// IPSource looks hints up from a client address.
type IPSource interface {
	LookupIP(ip string) (location.Hints, error)
}

// Chain asks its sources in order and returns the first usable answer.
type Chain struct {
	sources []Source
	ip      IPSource
	log     *slog.Logger
}

// NewChain builds a chain. ip may be nil.
func NewChain(ip IPSource, sources ...Source) *Chain {
	return &Chain{sources: sources, ip: ip, log: logger.L()}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Reverse(ctx context.Context, lat, lon float64) (location.Hints, error) {
	var errs []error
	for _, s := range c.sources {
		h, err := s.Reverse(ctx, lat, lon)
		if err == nil && !h.Empty() {
			return h, nil
		}
		if err == nil {
			err = ErrNoResult
		}
		c.log.Warn("geocode_fallback", "source", s.Name(), "err", err)
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return location.Hints{}, ErrNoResult
	}
	return location.Hints{}, errors.Join(errs...)
}

// Detect reverse-geocodes the coordinate when one is given and falls back to
// the client address.
func (c *Chain) Detect(ctx context.Context, lat, lon *float64, clientIP string) (location.Hints, error) {
	var err error
	if lat != nil && lon != nil {
		var h location.Hints
		if h, err = c.Reverse(ctx, *lat, *lon); err == nil {
			return h, nil
		}
	}
	if c.ip == nil || clientIP == "" {
		if err == nil {
			err = ErrNoResult
		}
		return location.Hints{}, err
	}
	h, ipErr := c.ip.LookupIP(clientIP)
	if ipErr != nil {
		return location.Hints{}, errors.Join(err, ipErr)
	}
	return h, nil
}
