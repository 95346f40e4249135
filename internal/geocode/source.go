// Package geocode turns coordinates or client IPs into free-text location
// hints for the resolver.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/votehubph/backend/internal/location"
	"github.com/votehubph/backend/internal/logger"
	"github.com/votehubph/backend/internal/metrics"
)

// ErrNoResult means the source answered but had nothing usable.
var ErrNoResult = errors.New("geocode: no result")

// Source reverse-geocodes a coordinate.
type Source interface {
	Name() string
	Reverse(ctx context.Context, lat, lon float64) (location.Hints, error)
}

// first returns the first non-blank value.
func first(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// getJSON performs req and decodes a 200 answer into out, recording
// per-source metrics.
func getJSON(client *http.Client, source string, req *http.Request, out any) error {
	t0 := time.Now()
	metrics.GeocodeRequestsTotal.WithLabelValues(source).Inc()
	logger.L().Debug("geocode_req", "source", source, "url", req.URL.Redacted())

	resp, err := client.Do(req)
	if err != nil {
		metrics.GeocodeFailTotal.WithLabelValues(source).Inc()
		logger.L().Error("geocode_http_error", "source", source, "err", err)
		return fmt.Errorf("%s: %w", source, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		metrics.GeocodeFailTotal.WithLabelValues(source).Inc()
		return fmt.Errorf("%s: unexpected status %d", source, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.GeocodeFailTotal.WithLabelValues(source).Inc()
		logger.L().Error("geocode_decode_error", "source", source, "err", err)
		return fmt.Errorf("%s: decode: %w", source, err)
	}
	dur := time.Since(t0).Milliseconds()
	metrics.GeocodeDurationMs.WithLabelValues(source).Observe(float64(dur))
	logger.L().Debug("geocode_resp", "source", source, "duration_ms", dur)
	return nil
}
