// Package location turns free-text place hints into a consistent path through
// the region, city, district and barangay hierarchy.
package location

import (
	"context"

	"github.com/votehubph/backend/internal/models"
)

// Directory serves the read-only administrative hierarchy. A districtID of 0
// in Barangays means "every barangay of the city".
type Directory interface {
	Regions(ctx context.Context) ([]models.Region, error)
	Cities(ctx context.Context, regionID int) ([]models.City, error)
	Districts(ctx context.Context, cityID int) ([]models.District, error)
	Barangays(ctx context.Context, cityID, districtID int) ([]models.Barangay, error)
}

// Hints are the free-text strings a hint source produced. Any may be empty.
type Hints struct {
	Region   string `json:"region" form:"region"`
	City     string `json:"city" form:"city"`
	Barangay string `json:"barangay" form:"barangay"`
}

func (h Hints) Empty() bool {
	return h.Region == "" && h.City == "" && h.Barangay == ""
}
