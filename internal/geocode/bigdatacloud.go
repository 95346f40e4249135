package geocode

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/votehubph/backend/internal/location"
)

const DefaultBigDataCloudURL = "https://api.bigdatacloud.net/data/reverse-geocode-client"

type bigDataCloudResponse struct {
	CountryName          string `json:"countryName"`
	PrincipalSubdivision string `json:"principalSubdivision"`
	City                 string `json:"city"`
	Locality             string `json:"locality"`
	Neighbourhood        string `json:"neighbourhood"`
	LocalityInfo         struct {
		Administrative []struct {
			Name       string `json:"name"`
			AdminLevel int    `json:"adminLevel"`
		} `json:"administrative"`
	} `json:"localityInfo"`
}

// adminName returns the name at index i of the administrative list.
func (r bigDataCloudResponse) adminName(i int) string {
	if i < len(r.LocalityInfo.Administrative) {
		return r.LocalityInfo.Administrative[i].Name
	}
	return ""
}

// BigDataCloud uses the keyless client endpoint. Answers without a locality
// are treated as no result.
type BigDataCloud struct {
	endpoint string
	client   *http.Client
}

func NewBigDataCloud(endpoint string, timeout time.Duration) *BigDataCloud {
	if endpoint == "" {
		endpoint = DefaultBigDataCloudURL
	}
	return &BigDataCloud{endpoint: endpoint, client: &http.Client{Timeout: timeout}}
}

func (b *BigDataCloud) Name() string { return "bigdatacloud" }

func (b *BigDataCloud) Reverse(ctx context.Context, lat, lon float64) (location.Hints, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("localityLanguage", "en")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return location.Hints{}, err
	}

	var r bigDataCloudResponse
	if err := getJSON(b.client, b.Name(), req, &r); err != nil {
		return location.Hints{}, err
	}
	if r.Locality == "" {
		return location.Hints{}, ErrNoResult
	}
	return location.Hints{
		Region:   first(r.PrincipalSubdivision, r.CountryName),
		City:     first(r.City, r.Locality),
		Barangay: first(r.adminName(4), r.adminName(5), r.Neighbourhood),
	}, nil
}
