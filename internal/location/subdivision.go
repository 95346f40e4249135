package location

import (
	"strings"

	"github.com/votehubph/backend/internal/models"
)

// Subdivision is what a locality hint resolved to below the city. At most one
// field is set.
type Subdivision struct {
	DistrictID int
	BarangayID int
}

// ResolveSubdivision matches a locality hint under city.
//
// Without districts the hint is matched against barangays. With districts the
// hint is only tried against district names when it says "district", and a
// match sets DistrictID alone; the barangay is left for the user to pick.
func ResolveSubdivision(hint string, city models.City, districts []models.District, barangays []models.Barangay) Subdivision {
	h := normalize(hint)
	if h == "" {
		return Subdivision{}
	}
	if city.HasDistricts && len(districts) > 0 {
		if d := matchDistrict(h, districts); d != nil {
			return Subdivision{DistrictID: d.ID}
		}
		return Subdivision{}
	}
	if b := matchBarangay(h, barangays); b != nil {
		return Subdivision{BarangayID: b.ID}
	}
	return Subdivision{}
}

func hasDistrictWord(h string) bool {
	for _, t := range tokens(h) {
		if t == "district" {
			return true
		}
	}
	return false
}

func matchDistrict(h string, districts []models.District) *models.District {
	if !hasDistrictWord(h) {
		return nil
	}
	hb := stripDistrict(h)
	for i := range districts {
		if normalize(districts[i].Name) == h {
			return &districts[i]
		}
	}
	for i := range districts {
		if hb != "" && stripDistrict(normalize(districts[i].Name)) == hb {
			return &districts[i]
		}
	}
	for i := range districts {
		n := stripDistrict(normalize(districts[i].Name))
		if n != "" && hb != "" && containsEither(n, hb) {
			return &districts[i]
		}
	}
	return nil
}

func matchBarangay(h string, barangays []models.Barangay) *models.Barangay {
	names := make([]string, len(barangays))
	for i := range barangays {
		names[i] = normalize(barangays[i].Name)
	}
	for i := range barangays {
		if names[i] == h {
			return &barangays[i]
		}
	}
	for i := range barangays {
		if containsEither(names[i], h) {
			return &barangays[i]
		}
	}
	hb := stripBarangay(h)
	for i := range barangays {
		if hb != "" && strings.EqualFold(stripBarangay(names[i]), hb) {
			return &barangays[i]
		}
	}
	return nil
}
