package street

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/main-street/internal/buildings"
)

// Span zones an inclusive run of lots on one street.
type Span struct {
	FromLot  int                `json:"from_lot"`
	ToLot    int                `json:"to_lot"`
	District buildings.District `json:"district"`
}

// Layout maps each street to its zoning spans.
type Layout struct {
	Streets map[int][]Span `json:"streets"`
}

// DistrictAt returns the district covering a lot, or DistrictNone.
func (l Layout) DistrictAt(street, lot int) buildings.District {
	for _, s := range l.Streets[street] {
		if lot >= s.FromLot && lot <= s.ToLot {
			return s.District
		}
	}
	return buildings.DistrictNone
}

// UniformLayout zones every lot of every street as d.
func UniformLayout(d buildings.District, lots int) Layout {
	l := Layout{Streets: make(map[int][]Span)}
	for s := MinStreet; s <= MaxStreet; s++ {
		l.Streets[s] = []Span{{FromLot: 0, ToLot: lots - 1, District: d}}
	}
	return l
}

// Noise frequencies for district generation. Streets are spaced far apart
// in noise space so neighbouring streets zone independently.
const (
	lotFrequency    = 0.09
	streetFrequency = 3.7
)

// GenerateDistricts zones every street from coherent noise seeded by seed,
// so runs of neighbouring lots share a district. The same seed always
// produces the same layout.
func GenerateDistricts(seed int64, lots int) Layout {
	noise := opensimplex.NewNormalized(seed)
	l := Layout{Streets: make(map[int][]Span)}

	for s := MinStreet; s <= MaxStreet; s++ {
		var spans []Span
		for lot := 0; lot < lots; lot++ {
			v := noise.Eval2(float64(lot)*lotFrequency, float64(s)*streetFrequency)
			d := districtForNoise(v)
			if n := len(spans); n > 0 && spans[n-1].District == d {
				spans[n-1].ToLot = lot
				continue
			}
			spans = append(spans, Span{FromLot: lot, ToLot: lot, District: d})
		}
		l.Streets[s] = spans
	}
	return l
}

func districtForNoise(v float64) buildings.District {
	switch {
	case v < 0.35:
		return buildings.DistrictResidential
	case v < 0.55:
		return buildings.DistrictCommercial
	case v < 0.72:
		return buildings.DistrictEntertainment
	default:
		return buildings.DistrictIndustrial
	}
}
