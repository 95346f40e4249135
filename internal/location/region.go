package location

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/votehubph/backend/internal/models"
)

// RegionStrategy is one named way of matching a normalized hint to a region.
// Match returns nil when the strategy does not apply.
type RegionStrategy struct {
	Name  string
	Match func(hint string, regions []models.Region) *models.Region
}

// Alias maps common names that do not resemble a region's code onto that code.
type Alias struct {
	Phrases []string
	Code    string
}

var DefaultAliases = []Alias{
	{Phrases: []string{"metro manila", "national capital"}, Code: "NCR"},
	{Phrases: []string{"cordillera"}, Code: "CAR"},
	{Phrases: []string{"bangsamoro", "barmm"}, Code: "BARMM"},
}

// DefaultRegionStrategies are tried in order; the first to match wins.
var DefaultRegionStrategies = []RegionStrategy{
	SpecialCaseStrategy(DefaultAliases),
	RomanNumeralStrategy(),
	CodeStrategy(),
	NameStrategy(5),
}

// MatchRegion returns the region hint refers to, or nil.
func MatchRegion(hint string, regions []models.Region) *models.Region {
	r, _ := MatchRegionWith(DefaultRegionStrategies, hint, regions)
	return r
}

// MatchRegionWith runs strategies in order and also reports which one matched.
func MatchRegionWith(strategies []RegionStrategy, hint string, regions []models.Region) (*models.Region, string) {
	h := normalize(hint)
	if h == "" || len(regions) == 0 {
		return nil, ""
	}
	for _, s := range strategies {
		if r := s.Match(h, regions); r != nil {
			return r, s.Name
		}
	}
	return nil, ""
}

func regionByCode(code string, regions []models.Region) *models.Region {
	for i := range regions {
		if strings.EqualFold(regions[i].Code, code) {
			return &regions[i]
		}
	}
	return nil
}

// SpecialCaseStrategy matches alias phrases anywhere in the hint.
func SpecialCaseStrategy(aliases []Alias) RegionStrategy {
	return RegionStrategy{
		Name: "special-case",
		Match: func(hint string, regions []models.Region) *models.Region {
			for _, a := range aliases {
				for _, p := range a.Phrases {
					if strings.Contains(hint, p) {
						return regionByCode(a.Code, regions)
					}
				}
			}
			return nil
		},
	}
}

var romanRe = regexp.MustCompile(`\bregion\s+([ivx]+)(?:\s*-?\s*([ab]))?\b`)

// RomanNumeralStrategy handles "Region IV-A" style text. A full code such as
// IV-A wins first, then a code whose numeral part equals the token, then any
// code containing it.
func RomanNumeralStrategy() RegionStrategy {
	return RegionStrategy{
		Name: "roman-numeral",
		Match: func(hint string, regions []models.Region) *models.Region {
			m := romanRe.FindStringSubmatch(hint)
			if m == nil {
				return nil
			}
			numeral := m[1]
			if m[2] != "" {
				if r := regionByCode(numeral+"-"+m[2], regions); r != nil {
					return r
				}
			}
			for i := range regions {
				seg, _, _ := strings.Cut(strings.ToLower(regions[i].Code), "-")
				if seg == numeral {
					return &regions[i]
				}
			}
			for i := range regions {
				if strings.Contains(strings.ToLower(regions[i].Code), numeral) {
					return &regions[i]
				}
			}
			return nil
		},
	}
}

// CodeStrategy matches a region code appearing as a whole token of the hint.
// NCR, CAR and BARMM are left to the alias table.
func CodeStrategy() RegionStrategy {
	excluded := map[string]bool{"ncr": true, "car": true, "barmm": true}
	return RegionStrategy{
		Name: "code",
		Match: func(hint string, regions []models.Region) *models.Region {
			toks := tokens(hint)
			for i := range regions {
				code := strings.ToLower(regions[i].Code)
				if code == "" || excluded[code] {
					continue
				}
				for _, t := range toks {
					if t == code {
						return &regions[i]
					}
				}
			}
			return nil
		},
	}
}

// NameStrategy compares the hint with region names by substring, but only
// for hints longer than minLen characters.
func NameStrategy(minLen int) RegionStrategy {
	return RegionStrategy{
		Name: "name",
		Match: func(hint string, regions []models.Region) *models.Region {
			if utf8.RuneCountInString(hint) <= minLen {
				return nil
			}
			for i := range regions {
				if containsEither(normalize(regions[i].Name), hint) {
					return &regions[i]
				}
			}
			return nil
		},
	}
}
