package database

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/votehubph/backend/internal/models"
)

//go:embed seed/ph_locations.json
var phLocations []byte

// SeedData is the reference hierarchy loaded by the seed command.
type SeedData struct {
	Regions   []models.Region   `json:"regions"`
	Cities    []models.City     `json:"cities"`
	Districts []models.District `json:"districts"`
	Barangays []models.Barangay `json:"barangays"`
}

func (s SeedData) Total() int {
	return len(s.Regions) + len(s.Cities) + len(s.Districts) + len(s.Barangays)
}

// DefaultSeed returns the bundled Philippine hierarchy.
func DefaultSeed() (SeedData, error) {
	var s SeedData
	if err := json.Unmarshal(phLocations, &s); err != nil {
		return s, fmt.Errorf("parse bundled seed: %w", err)
	}
	return s, nil
}

// Seed upserts data parent-first. progress is called with the number of rows
// written by each batch and may be nil.
func Seed(ctx context.Context, db *gorm.DB, data SeedData, batch int, progress func(int)) error {
	if progress == nil {
		progress = func(int) {}
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsert(tx, data.Regions, batch, progress); err != nil {
			return fmt.Errorf("seed regions: %w", err)
		}
		if err := upsert(tx, data.Cities, batch, progress); err != nil {
			return fmt.Errorf("seed cities: %w", err)
		}
		if err := upsert(tx, data.Districts, batch, progress); err != nil {
			return fmt.Errorf("seed districts: %w", err)
		}
		if err := upsert(tx, data.Barangays, batch, progress); err != nil {
			return fmt.Errorf("seed barangays: %w", err)
		}
		return nil
	})
}

func upsert[T any](tx *gorm.DB, rows []T, batch int, progress func(int)) error {
	if batch <= 0 {
		batch = 100
	}
	for start := 0; start < len(rows); start += batch {
		end := min(start+batch, len(rows))
		chunk := rows[start:end]
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&chunk).Error; err != nil {
			return err
		}
		progress(len(chunk))
	}
	return nil
}
