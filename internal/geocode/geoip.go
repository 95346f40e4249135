package geocode

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"

	"github.com/votehubph/backend/internal/location"
	"github.com/votehubph/backend/internal/metrics"
)

type cityReader interface {
	City(ip net.IP) (*geoip2.City, error)
}

// GeoIP looks hints up in a MaxMind City database. It only knows regions and
// cities, so it is the last resort when no coordinate is available.
type GeoIP struct {
	db     cityReader
	closer func() error
}

// OpenGeoIP opens a GeoLite2/GeoIP2 City database file.
func OpenGeoIP(path string) (*GeoIP, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip db: %w", err)
	}
	return &GeoIP{db: r, closer: r.Close}, nil
}

func (g *GeoIP) Name() string { return "geoip" }

func (g *GeoIP) Close() error {
	if g.closer == nil {
		return nil
	}
	return g.closer()
}

func (g *GeoIP) LookupIP(raw string) (location.Hints, error) {
	metrics.GeocodeRequestsTotal.WithLabelValues(g.Name()).Inc()
	ip := net.ParseIP(raw)
	if ip == nil {
		metrics.GeocodeFailTotal.WithLabelValues(g.Name()).Inc()
		return location.Hints{}, fmt.Errorf("geoip: invalid ip %q", raw)
	}
	rec, err := g.db.City(ip)
	if err != nil {
		metrics.GeocodeFailTotal.WithLabelValues(g.Name()).Inc()
		return location.Hints{}, fmt.Errorf("geoip: %w", err)
	}
	var h location.Hints
	if len(rec.Subdivisions) > 0 {
		h.Region = rec.Subdivisions[0].Names["en"]
	}
	h.City = rec.City.Names["en"]
	if h.Empty() {
		return h, ErrNoResult
	}
	return h, nil
}
