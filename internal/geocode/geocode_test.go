package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/oschwald/geoip2-golang"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/votehubph/backend/internal/location"
)

func serve(t *testing.T, body string, check func(*http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBigDataCloudFields(t *testing.T) {
	tests := []struct {
		name string
		body string
		want location.Hints
		err  error
	}{
		{
			name: "administrative level four",
			body: `{"principalSubdivision":"Davao Region","city":"Davao City","locality":"Poblacion",
				"localityInfo":{"administrative":[{"name":"PH"},{"name":"Mindanao"},{"name":"Davao Region"},{"name":"Davao del Sur"},{"name":"Talomo District"},{"name":"Matina"}]}}`,
			want: location.Hints{Region: "Davao Region", City: "Davao City", Barangay: "Talomo District"},
		},
		{
			name: "fallbacks",
			body: `{"countryName":"Philippines","locality":"Tagum","neighbourhood":"Apokon"}`,
			want: location.Hints{Region: "Philippines", City: "Tagum", Barangay: "Apokon"},
		},
		{
			name: "no locality",
			body: `{"principalSubdivision":"Davao Region","city":"Davao City"}`,
			err:  ErrNoResult,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.body, func(r *http.Request) {
				assert.Equal(t, "7.07", r.URL.Query().Get("latitude"))
				assert.Equal(t, "125.6", r.URL.Query().Get("longitude"))
				assert.Equal(t, "en", r.URL.Query().Get("localityLanguage"))
			})
			h, err := NewBigDataCloud(srv.URL, time.Second).Reverse(context.Background(), 7.07, 125.6)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, h)
		})
	}
}

func TestNominatimFields(t *testing.T) {
	srv := serve(t, `{"address":{"state":"Metro Manila","city":"Quezon City","quarter":"Bagumbayan"}}`, func(r *http.Request) {
		assert.Equal(t, "VoteHubPH/1.0", r.Header.Get("User-Agent"))
		q := r.URL.Query()
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "18", q.Get("zoom"))
		assert.Equal(t, "1", q.Get("addressdetails"))
	})

	h, err := NewNominatim(srv.URL, "VoteHubPH/1.0", time.Second).Reverse(context.Background(), 14.6, 121.0)
	require.NoError(t, err)
	assert.Equal(t, location.Hints{Region: "Metro Manila", City: "Quezon City", Barangay: "Bagumbayan"}, h)
}

func TestNominatimNoAddress(t *testing.T) {
	srv := serve(t, `{"error":"Unable to geocode"}`, nil)
	_, err := NewNominatim(srv.URL, "", time.Second).Reverse(context.Background(), 0, 0)
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestSourceHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewBigDataCloud(srv.URL, time.Second).Reverse(context.Background(), 1, 1)
	assert.ErrorContains(t, err, "429")
}

type stubSource struct {
	name  string
	hints location.Hints
	err   error
	calls int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Reverse(context.Context, float64, float64) (location.Hints, error) {
	s.calls++
	return s.hints, s.err
}

type stubIP struct {
	hints location.Hints
	err   error
}

func (s stubIP) LookupIP(string) (location.Hints, error) { return s.hints, s.err }

func TestChainFallsThrough(t *testing.T) {
	down := &stubSource{name: "a", err: errors.New("down")}
	empty := &stubSource{name: "b"}
	good := &stubSource{name: "c", hints: location.Hints{City: "Legazpi"}}
	never := &stubSource{name: "d", hints: location.Hints{City: "Naga"}}

	h, err := NewChain(nil, down, empty, good, never).Reverse(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "Legazpi", h.City)
	assert.Zero(t, never.calls)
}

func TestChainAllFail(t *testing.T) {
	boom := errors.New("down")
	_, err := NewChain(nil, &stubSource{name: "a", err: boom}, &stubSource{name: "b"}).Reverse(context.Background(), 1, 1)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestChainDetect(t *testing.T) {
	ctx := context.Background()
	lat, lon := 13.1, 123.7
	geo := &stubSource{name: "a", hints: location.Hints{City: "Legazpi"}}
	ip := stubIP{hints: location.Hints{Region: "Bicol"}}

	h, err := NewChain(ip, geo).Detect(ctx, &lat, &lon, "203.0.113.9")
	require.NoError(t, err)
	assert.Equal(t, "Legazpi", h.City)

	h, err = NewChain(ip, geo).Detect(ctx, nil, nil, "203.0.113.9")
	require.NoError(t, err)
	assert.Equal(t, "Bicol", h.Region)

	failing := &stubSource{name: "a", err: errors.New("down")}
	h, err = NewChain(ip, failing).Detect(ctx, &lat, &lon, "203.0.113.9")
	require.NoError(t, err)
	assert.Equal(t, "Bicol", h.Region)

	_, err = NewChain(nil, failing).Detect(ctx, nil, nil, "")
	assert.ErrorIs(t, err, ErrNoResult)
}

type fakeReader struct {
	rec string
	err error
}

func (f fakeReader) City(net.IP) (*geoip2.City, error) {
	if f.err != nil {
		return nil, f.err
	}
	var c geoip2.City
	if err := json.Unmarshal([]byte(f.rec), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func TestGeoIPLookup(t *testing.T) {
	g := &GeoIP{db: fakeReader{rec: `{"City":{"Names":{"en":"Davao City"}},"Subdivisions":[{"Names":{"en":"Davao Region"}}]}`}}
	h, err := g.LookupIP("203.0.113.9")
	require.NoError(t, err)
	assert.Equal(t, location.Hints{Region: "Davao Region", City: "Davao City"}, h)

	_, err = g.LookupIP("not-an-ip")
	assert.Error(t, err)

	_, err = (&GeoIP{db: fakeReader{rec: `{}`}}).LookupIP("203.0.113.9")
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestCacheKeyRounding(t *testing.T) {
	assert.Equal(t, "revgeo:14.676:121.044", cacheKey(14.67642, 121.04371))
}

func TestCachedDegradesWithoutRedis(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()

	next := &stubSource{name: "a", hints: location.Hints{City: "Tagum"}}
	h, err := NewCached(next, rdb, time.Hour).Reverse(context.Background(), 7.4, 125.8)
	require.NoError(t, err)
	assert.Equal(t, "Tagum", h.City)
	assert.Equal(t, 1, next.calls)
}
