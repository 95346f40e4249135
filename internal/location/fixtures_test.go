package location

import (
	"context"
	"sync"

	"github.com/votehubph/backend/internal/models"
)

func intp(v int) *int { return &v }

var testRegions = []models.Region{
	{ID: 1, Code: "NCR", Name: "National Capital Region (NCR)"},
	{ID: 2, Code: "CAR", Name: "Cordillera Administrative Region (CAR)"},
	{ID: 3, Code: "I", Name: "Ilocos Region (Region I)"},
	{ID: 5, Code: "III", Name: "Central Luzon (Region III)"},
	{ID: 6, Code: "IV-A", Name: "CALABARZON (Region IV-A)"},
	{ID: 7, Code: "IV-B", Name: "MIMAROPA (Region IV-B)"},
	{ID: 8, Code: "V", Name: "Bicol Region (Region V)"},
	{ID: 14, Code: "XI", Name: "Davao Region (Region XI)"},
	{ID: 17, Code: "BARMM", Name: "Bangsamoro (BARMM)"},
}

type fakeDirectory struct {
	mu sync.Mutex

	regions   []models.Region
	cities    map[int][]models.City
	districts map[int][]models.District
	barangays map[int][]models.Barangay

	regionsErr   error
	citiesErr    map[int]error
	districtsErr error
	barangaysErr error

	cityCalls int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		regions: testRegions,
		cities: map[int][]models.City{
			1: {
				{ID: 100, RegionID: 1, Name: "Quezon"},
				{ID: 2, RegionID: 1, Name: "Quezon City"},
				{ID: 1, RegionID: 1, Name: "Manila"},
				{ID: 9, RegionID: 1, Name: "Parañaque"},
				{ID: 15, RegionID: 1, Name: "San Juan"},
			},
			5: {
				{ID: 30, RegionID: 5, Name: "Angeles"},
				{ID: 31, RegionID: 5, Name: "San Juan"},
			},
			8: {
				{ID: 50, RegionID: 8, Name: "Legazpi"},
			},
			14: {
				{ID: 60, RegionID: 14, Name: "Davao City", HasDistricts: true},
				{ID: 61, RegionID: 14, Name: "Tagum"},
			},
		},
		districts: map[int][]models.District{
			60: {
				{ID: 1, RegionID: 14, ParentCityID: 60, Name: "Poblacion District"},
				{ID: 2, RegionID: 14, ParentCityID: 60, Name: "Talomo District"},
				{ID: 3, RegionID: 14, ParentCityID: 60, Name: "Buhangin District"},
			},
		},
		barangays: map[int][]models.Barangay{
			2: {
				{ID: 201, CityID: 2, Name: "Bagumbayan"},
				{ID: 202, CityID: 2, Name: "Batasan Hills"},
				{ID: 203, CityID: 2, Name: "Commonwealth"},
				{ID: 204, CityID: 2, Name: "Brgy. San Roque"},
			},
			9: {
				{ID: 901, CityID: 9, Name: "Baclaran"},
			},
			60: {
				{ID: 601, CityID: 60, DistrictID: intp(1), Name: "Poblacion"},
				{ID: 602, CityID: 60, DistrictID: intp(2), Name: "Matina Crossing"},
				{ID: 603, CityID: 60, DistrictID: intp(3), Name: "Buhangin Proper"},
			},
		},
		citiesErr: map[int]error{},
	}
}

func (f *fakeDirectory) Regions(ctx context.Context) ([]models.Region, error) {
	if f.regionsErr != nil {
		return nil, f.regionsErr
	}
	return f.regions, nil
}

func (f *fakeDirectory) Cities(ctx context.Context, regionID int) ([]models.City, error) {
	f.mu.Lock()
	f.cityCalls++
	err := f.citiesErr[regionID]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.cities[regionID], nil
}

func (f *fakeDirectory) Districts(ctx context.Context, cityID int) ([]models.District, error) {
	if f.districtsErr != nil {
		return nil, f.districtsErr
	}
	return f.districts[cityID], nil
}

func (f *fakeDirectory) Barangays(ctx context.Context, cityID, districtID int) ([]models.Barangay, error) {
	if f.barangaysErr != nil {
		return nil, f.barangaysErr
	}
	var out []models.Barangay
	for _, b := range f.barangays[cityID] {
		if districtID != 0 && (b.DistrictID == nil || *b.DistrictID != districtID) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}
