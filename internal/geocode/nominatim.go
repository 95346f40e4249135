package geocode

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/votehubph/backend/internal/location"
)

const DefaultNominatimURL = "https://nominatim.openstreetmap.org/reverse"

type nominatimResponse struct {
	Address *struct {
		Region        string `json:"region"`
		State         string `json:"state"`
		Province      string `json:"province"`
		City          string `json:"city"`
		Municipality  string `json:"municipality"`
		Town          string `json:"town"`
		CityDistrict  string `json:"city_district"`
		Suburb        string `json:"suburb"`
		Neighbourhood string `json:"neighbourhood"`
		Quarter       string `json:"quarter"`
		Village       string `json:"village"`
	} `json:"address"`
}

// Nominatim is the OpenStreetMap reverse geocoder. Its usage policy requires
// an identifying User-Agent.
type Nominatim struct {
	endpoint  string
	userAgent string
	client    *http.Client
}

func NewNominatim(endpoint, userAgent string, timeout time.Duration) *Nominatim {
	if endpoint == "" {
		endpoint = DefaultNominatimURL
	}
	return &Nominatim{endpoint: endpoint, userAgent: userAgent, client: &http.Client{Timeout: timeout}}
}

func (n *Nominatim) Name() string { return "nominatim" }

func (n *Nominatim) Reverse(ctx context.Context, lat, lon float64) (location.Hints, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("zoom", "18")
	q.Set("addressdetails", "1")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return location.Hints{}, err
	}
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}

	var r nominatimResponse
	if err := getJSON(n.client, n.Name(), req, &r); err != nil {
		return location.Hints{}, err
	}
	a := r.Address
	if a == nil {
		return location.Hints{}, ErrNoResult
	}
	h := location.Hints{
		Region:   first(a.Region, a.State, a.Province),
		City:     first(a.City, a.Municipality, a.Town, a.CityDistrict),
		Barangay: first(a.Suburb, a.Neighbourhood, a.Quarter, a.Village),
	}
	if h.Empty() {
		return h, ErrNoResult
	}
	return h, nil
}
