package location

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/votehubph/backend/internal/models"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		hints Hints
		want  models.LocationSelection
	}{
		{
			name:  "full path through barangay",
			hints: Hints{Region: "Metro Manila", City: "Quezon City", Barangay: "Commonwealth"},
			want:  models.LocationSelection{RegionID: 1, CityID: 2, BarangayID: 203},
		},
		{
			name:  "region only",
			hints: Hints{Region: "Bicol Region"},
			want:  models.LocationSelection{RegionID: 8},
		},
		{
			name:  "city miss stops the walk",
			hints: Hints{Region: "Metro Manila", City: "Makati", Barangay: "Commonwealth"},
			want:  models.LocationSelection{RegionID: 1},
		},
		{
			name:  "barangay miss keeps city",
			hints: Hints{Region: "Metro Manila", City: "Quezon City", Barangay: "Tandang Sora"},
			want:  models.LocationSelection{RegionID: 1, CityID: 2},
		},
		{
			name:  "unknown region falls back to city search",
			hints: Hints{Region: "Philippines", City: "Legazpi City"},
			want:  models.LocationSelection{RegionID: 8, CityID: 50},
		},
		{
			name:  "districted city sets district only",
			hints: Hints{Region: "Davao Region", City: "Davao City", Barangay: "Talomo District"},
			want:  models.LocationSelection{RegionID: 14, CityID: 60, DistrictID: 2},
		},
		{
			name:  "districted city ignores bare neighborhood",
			hints: Hints{Region: "Region XI", City: "Davao", Barangay: "Matina Crossing"},
			want:  models.LocationSelection{RegionID: 14, CityID: 60},
		},
		{
			name:  "nothing matches",
			hints: Hints{Region: "Atlantis", City: "Nowhere"},
			want:  models.LocationSelection{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(newFakeDirectory())
			got, err := r.Resolve(context.Background(), tt.hints)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveKeepsPartialSelectionOnFetchError(t *testing.T) {
	boom := errors.New("connection refused")

	dir := newFakeDirectory()
	dir.districtsErr = boom
	got, err := NewResolver(dir).Resolve(context.Background(), Hints{Region: "NCR Metro Manila", City: "Quezon City", Barangay: "Commonwealth"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, models.LocationSelection{RegionID: 1, CityID: 2}, got)

	dir = newFakeDirectory()
	dir.regionsErr = boom
	got, err = NewResolver(dir).Resolve(context.Background(), Hints{Region: "Metro Manila"})
	assert.ErrorIs(t, err, boom)
	assert.True(t, got.IsZero())
}

func TestResolveNeverDangles(t *testing.T) {
	regionHints := []string{"", "Metro Manila", "Region XI", "Philippines", "Region V"}
	cityHints := []string{"", "Quezon City", "Davao", "San Juan", "Legazpi", "Nowhere"}
	brgyHints := []string{"", "Commonwealth", "Talomo District", "Poblacion", "Baclaran"}

	r := NewResolver(newFakeDirectory(), WithConcurrency(2))
	for _, rh := range regionHints {
		for _, ch := range cityHints {
			for _, bh := range brgyHints {
				sel, err := r.Resolve(context.Background(), Hints{Region: rh, City: ch, Barangay: bh})
				require.NoError(t, err)
				assert.False(t, sel.Dangling(), "%q/%q/%q -> %+v", rh, ch, bh, sel)
				if sel.BarangayID != 0 {
					assert.NotZero(t, sel.CityID)
				}
				if sel.CityID != 0 {
					assert.NotZero(t, sel.RegionID)
				}
			}
		}
	}
}

func TestResolveWithCustomStrategies(t *testing.T) {
	only := []RegionStrategy{SpecialCaseStrategy([]Alias{{Phrases: []string{"bikol"}, Code: "V"}})}
	r := NewResolver(newFakeDirectory(), WithStrategies(only))

	got, err := r.Resolve(context.Background(), Hints{Region: "Bikol", City: "Legazpi"})
	require.NoError(t, err)
	assert.Equal(t, models.LocationSelection{RegionID: 8, CityID: 50}, got)
}

func TestValidate(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()

	valid := []models.LocationSelection{
		{},
		{RegionID: 1},
		{RegionID: 1, CityID: 2},
		{RegionID: 1, CityID: 2, BarangayID: 203},
		{RegionID: 14, CityID: 60, DistrictID: 2},
		{RegionID: 14, CityID: 60, DistrictID: 2, BarangayID: 602},
	}
	for _, sel := range valid {
		assert.NoError(t, Validate(ctx, dir, sel), "%+v", sel)
	}

	invalid := []models.LocationSelection{
		{CityID: 2},
		{RegionID: 99},
		{RegionID: 8, CityID: 2},
		{RegionID: 1, CityID: 2, DistrictID: 1},
		{RegionID: 14, CityID: 60, BarangayID: 602},
		{RegionID: 14, CityID: 60, DistrictID: 1, BarangayID: 602},
		{RegionID: 1, CityID: 2, BarangayID: 901},
	}
	for _, sel := range invalid {
		assert.ErrorIs(t, Validate(ctx, dir, sel), ErrInconsistent, "%+v", sel)
	}

	dir.regionsErr = errors.New("down")
	err := Validate(ctx, dir, models.LocationSelection{RegionID: 1})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInconsistent)
}
