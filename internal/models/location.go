package models

// Region is the top level of the administrative hierarchy.
type Region struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	Code     string `gorm:"uniqueIndex;not null" json:"code"`
	Name     string `gorm:"not null" json:"name"`
	PSGCCode string `json:"psgc_code,omitempty"`
}

type City struct {
	ID           int    `gorm:"primaryKey" json:"id"`
	RegionID     int    `gorm:"index;not null" json:"region_id"`
	ProvinceID   *int   `json:"province_id,omitempty"`
	ParentCityID *int   `json:"parent_city_id,omitempty"`
	Name         string `gorm:"not null" json:"name"`
	Type         string `json:"type,omitempty"` // city or municipality
	HasDistricts bool   `gorm:"default:false" json:"has_districts"`
	PSGCCode     string `json:"psgc_code,omitempty"`
}

// District only exists under a city flagged HasDistricts.
type District struct {
	ID           int    `gorm:"primaryKey" json:"id"`
	RegionID     int    `json:"region_id"`
	ParentCityID int    `gorm:"index;not null" json:"parent_city_id"`
	Name         string `gorm:"not null" json:"name"`
	PSGCCode     string `json:"psgc_code,omitempty"`
}

type Barangay struct {
	ID         int    `gorm:"primaryKey" json:"id"`
	CityID     int    `gorm:"index;not null" json:"city_id"`
	DistrictID *int   `gorm:"index" json:"district_id,omitempty"`
	Name       string `gorm:"not null" json:"name"`
	PSGCCode   string `json:"psgc_code,omitempty"`
}

// LocationSelection is a partially filled path through the hierarchy.
// Zero means unset. A set field implies every shallower field is set,
// except DistrictID which is only ever set for cities with districts.
type LocationSelection struct {
	RegionID   int `json:"region_id,omitempty"`
	CityID     int `json:"city_id,omitempty"`
	DistrictID int `json:"district_id,omitempty"`
	BarangayID int `json:"barangay_id,omitempty"`
}

func (s LocationSelection) IsZero() bool {
	return s == LocationSelection{}
}

// Depth names the deepest level filled: "", region, city, district or barangay.
func (s LocationSelection) Depth() string {
	switch {
	case s.BarangayID != 0:
		return "barangay"
	case s.DistrictID != 0:
		return "district"
	case s.CityID != 0:
		return "city"
	case s.RegionID != 0:
		return "region"
	}
	return ""
}

// Dangling reports whether a deeper field is set while a shallower one is not.
func (s LocationSelection) Dangling() bool {
	if s.CityID != 0 && s.RegionID == 0 {
		return true
	}
	if (s.DistrictID != 0 || s.BarangayID != 0) && s.CityID == 0 {
		return true
	}
	return false
}
