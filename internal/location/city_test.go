package location

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/votehubph/backend/internal/models"
)

func TestMatchCity(t *testing.T) {
	ncr := newFakeDirectory().cities[1]

	tests := []struct {
		hint string
		id   int
	}{
		{"Quezon City", 2},
		{"quezon city", 2},
		{"Quezon", 100},
		{"Paranaque", 9},
		{"Parañaque City", 9},
		{"City of Manila", 1},
		{"Manila", 1},
		{"Makati", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			c := MatchCity(tt.hint, ncr)
			if tt.id == 0 {
				assert.Nil(t, c)
				return
			}
			require.NotNil(t, c)
			assert.Equal(t, tt.id, c.ID)
		})
	}
}

func TestMatchCityPrefersExactOverFuzzy(t *testing.T) {
	// The shorter fuzzy candidate is listed first on purpose.
	cities := []models.City{
		{ID: 1, Name: "Quezon"},
		{ID: 2, Name: "Quezon City"},
	}
	c := MatchCity("Quezon City", cities)
	require.NotNil(t, c)
	assert.Equal(t, "Quezon City", c.Name)
}

func TestMatchCityStripsSuffixOnBothSides(t *testing.T) {
	cities := []models.City{{ID: 60, Name: "Davao City"}}
	c := MatchCity("Davao", cities)
	require.NotNil(t, c)
	assert.Equal(t, 60, c.ID)
}

func TestMatchCityAcrossRegions(t *testing.T) {
	ctx := context.Background()

	t.Run("first region in list order wins", func(t *testing.T) {
		dir := newFakeDirectory()
		r, c, err := MatchCityAcrossRegions(ctx, dir, "San Juan", testRegions, 4)
		require.NoError(t, err)
		require.NotNil(t, r)
		assert.Equal(t, 1, r.ID)
		assert.Equal(t, 15, c.ID)
	})

	t.Run("failed region is skipped", func(t *testing.T) {
		dir := newFakeDirectory()
		dir.citiesErr[1] = errors.New("timeout")
		r, c, err := MatchCityAcrossRegions(ctx, dir, "San Juan", testRegions, 2)
		require.NoError(t, err)
		require.NotNil(t, r)
		assert.Equal(t, 5, r.ID)
		assert.Equal(t, 31, c.ID)
	})

	t.Run("errors surface when nothing matched", func(t *testing.T) {
		dir := newFakeDirectory()
		boom := errors.New("boom")
		dir.citiesErr[14] = boom
		r, c, err := MatchCityAcrossRegions(ctx, dir, "Davao", testRegions, 1)
		assert.Nil(t, r)
		assert.Nil(t, c)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("no match no error", func(t *testing.T) {
		dir := newFakeDirectory()
		r, c, err := MatchCityAcrossRegions(ctx, dir, "Atlantis", testRegions, 3)
		assert.NoError(t, err)
		assert.Nil(t, r)
		assert.Nil(t, c)
		assert.Equal(t, len(testRegions), dir.cityCalls)
	})

	t.Run("empty hint fetches nothing", func(t *testing.T) {
		dir := newFakeDirectory()
		r, _, err := MatchCityAcrossRegions(ctx, dir, "  ", testRegions, 3)
		assert.NoError(t, err)
		assert.Nil(t, r)
		assert.Zero(t, dir.cityCalls)
	})
}
