// Package standards carries recommended illuminance levels by space type and
// evaluates a computed result against them.
package standards

import (
	"sort"

	"github.com/luxreport/luxreport/internal/illum"
)

// Recommendation is a published target illuminance band for a space type,
// with the glare limit commonly attached to it.
type Recommendation struct {
	SpaceType     string  `json:"space_type"`
	MinLux        float64 `json:"min_lux"`
	TargetLux     float64 `json:"target_lux"`
	MaxUGR        float64 `json:"max_ugr"`
	MinUniformity float64 `json:"min_uniformity"`
}

// recommendations follows the EN 12464-1 / IESNA office bands.
var recommendations = map[string]Recommendation{
	"office":         {SpaceType: "office", MinLux: 300, TargetLux: 500, MaxUGR: 19, MinUniformity: 0.6},
	"open-office":    {SpaceType: "open-office", MinLux: 300, TargetLux: 500, MaxUGR: 19, MinUniformity: 0.6},
	"conference":     {SpaceType: "conference", MinLux: 300, TargetLux: 500, MaxUGR: 19, MinUniformity: 0.6},
	"classroom":      {SpaceType: "classroom", MinLux: 300, TargetLux: 500, MaxUGR: 19, MinUniformity: 0.6},
	"corridor":       {SpaceType: "corridor", MinLux: 50, TargetLux: 100, MaxUGR: 28, MinUniformity: 0.4},
	"stairwell":      {SpaceType: "stairwell", MinLux: 100, TargetLux: 150, MaxUGR: 25, MinUniformity: 0.4},
	"warehouse":      {SpaceType: "warehouse", MinLux: 100, TargetLux: 200, MaxUGR: 25, MinUniformity: 0.4},
	"workshop":       {SpaceType: "workshop", MinLux: 300, TargetLux: 750, MaxUGR: 22, MinUniformity: 0.6},
	"laboratory":     {SpaceType: "laboratory", MinLux: 500, TargetLux: 750, MaxUGR: 19, MinUniformity: 0.6},
	"retail":         {SpaceType: "retail", MinLux: 300, TargetLux: 750, MaxUGR: 22, MinUniformity: 0.4},
	"reception":      {SpaceType: "reception", MinLux: 200, TargetLux: 300, MaxUGR: 22, MinUniformity: 0.6},
	"drawing-office": {SpaceType: "drawing-office", MinLux: 500, TargetLux: 750, MaxUGR: 16, MinUniformity: 0.7},
}

// Lookup returns the recommendation for a space type tag.
func Lookup(spaceType string) (Recommendation, bool) {
	r, ok := recommendations[spaceType]
	return r, ok
}

// SpaceTypes lists the known space type tags in sorted order.
func SpaceTypes() []string {
	out := make([]string, 0, len(recommendations))
	for k := range recommendations {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Evaluation reports how a metrics summary compares to a recommendation.
// Checks whose inputs are undefined are skipped rather than failed.
type Evaluation struct {
	SpaceType string `json:"space_type"`

	MeetsAverage    bool `json:"meets_average"`
	MeetsTarget     bool `json:"meets_target"`
	MeetsUniformity bool `json:"meets_uniformity"`
	MeetsUGR        bool `json:"meets_ugr"`

	UniformityChecked bool `json:"uniformity_checked"`
	UGRChecked        bool `json:"ugr_checked"`

	Compliant bool `json:"compliant"`
}

// Evaluate checks a summary against the recommendation for spaceType.
// ok is false when the space type is unknown.
func Evaluate(spaceType string, s illum.MetricsSummary) (ev Evaluation, ok bool) {
	rec, ok := Lookup(spaceType)
	if !ok {
		return Evaluation{}, false
	}

	ev = Evaluation{
		SpaceType:    rec.SpaceType,
		MeetsAverage: s.Average >= rec.MinLux,
		MeetsTarget:  s.Average >= rec.TargetLux,
	}

	if s.UniformityMinAvg.Defined {
		ev.UniformityChecked = true
		ev.MeetsUniformity = s.UniformityMinAvg.Value >= rec.MinUniformity
	}
	if s.UGR.Defined {
		ev.UGRChecked = true
		ev.MeetsUGR = s.UGR.Value <= rec.MaxUGR
	}

	ev.Compliant = ev.MeetsAverage &&
		(!ev.UniformityChecked || ev.MeetsUniformity) &&
		(!ev.UGRChecked || ev.MeetsUGR)
	return ev, true
}
