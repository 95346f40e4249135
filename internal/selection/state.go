package selection

import "github.com/votehubph/backend/internal/models"

// Phase is the lifecycle of one dropdown level.
type Phase int

const (
	Empty Phase = iota
	Loading
	Loaded
	Selected
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Selected:
		return "selected"
	}
	return "empty"
}

// Level holds one level's options and choice. Value is 0 unless Phase is Selected.
type Level[T any] struct {
	Phase   Phase
	Options []T
	Value   int
	Err     error
}

func (l *Level[T]) clear() {
	*l = Level[T]{}
}

func (l *Level[T]) loading() {
	*l = Level[T]{Phase: Loading}
}

// State is a snapshot of the four levels.
type State struct {
	Region   Level[models.Region]
	City     Level[models.City]
	District Level[models.District]
	Barangay Level[models.Barangay]

	// DistrictSkipped is set when the selected city has no districts.
	DistrictSkipped bool
	// AutoDetected is set while the current values came from auto-detect.
	AutoDetected bool
}

func (s State) Selection() models.LocationSelection {
	return models.LocationSelection{
		RegionID:   s.Region.Value,
		CityID:     s.City.Value,
		DistrictID: s.District.Value,
		BarangayID: s.Barangay.Value,
	}
}

// DistrictRequired reports whether a barangay cannot be chosen until a district is.
func (s State) DistrictRequired() bool {
	return s.City.Phase == Selected && !s.DistrictSkipped && len(s.District.Options) > 0
}

func (s State) clone() State {
	out := s
	out.Region.Options = append([]models.Region(nil), s.Region.Options...)
	out.City.Options = append([]models.City(nil), s.City.Options...)
	out.District.Options = append([]models.District(nil), s.District.Options...)
	out.Barangay.Options = append([]models.Barangay(nil), s.Barangay.Options...)
	return out
}
