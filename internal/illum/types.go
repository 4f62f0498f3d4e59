// Package illum computes workplane illuminance grids and derived lighting
// quality metrics for rectangular rooms. All linear dimensions are meters
// (normalize with the units package first), all illuminance values are lux.
package illum

import (
	"encoding/json"
	"fmt"

	"github.com/luxreport/luxreport/internal/photometry"
)

// RoomGeometry describes a rectangular room. Dimensions are meters;
// reflectances are fractions in [0,1].
type RoomGeometry struct {
	Length          float64 `json:"length"`
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	WorkplaneHeight float64 `json:"workplane_height"`

	CeilingReflectance float64 `json:"ceiling_reflectance"`
	WallReflectance    float64 `json:"wall_reflectance"`
	FloorReflectance   float64 `json:"floor_reflectance"`
}

// Validate rejects geometry the engine cannot compute on.
func (r RoomGeometry) Validate() error {
	if r.Length <= 0 || r.Width <= 0 || r.Height <= 0 {
		return &ValidationError{Field: "room", Reason: fmt.Sprintf("dimensions must be positive, got %gx%gx%g", r.Length, r.Width, r.Height)}
	}
	if r.WorkplaneHeight <= 0 || r.WorkplaneHeight >= r.Height {
		return &ValidationError{Field: "workplane_height", Reason: fmt.Sprintf("must be between 0 and ceiling height %g, got %g", r.Height, r.WorkplaneHeight)}
	}
	for _, refl := range []struct {
		name string
		v    float64
	}{
		{"ceiling_reflectance", r.CeilingReflectance},
		{"wall_reflectance", r.WallReflectance},
		{"floor_reflectance", r.FloorReflectance},
	} {
		if refl.v < 0 || refl.v > 1 {
			return &ValidationError{Field: refl.name, Reason: fmt.Sprintf("must be in [0,1], got %g", refl.v)}
		}
	}
	return nil
}

// CavityHeight returns the room cavity height (ceiling to workplane).
func (r RoomGeometry) CavityHeight() float64 {
	return r.Height - r.WorkplaneHeight
}

// AmbientFactor is the scalar reflectance multiplier applied to direct
// illuminance in place of a full inter-reflection solve. The weighting is
// fixed: 1 + 0.4·ρ_ceiling + 0.4·ρ_wall + 0.2·ρ_floor.
func (r RoomGeometry) AmbientFactor() float64 {
	return 1 + 0.4*r.CeilingReflectance + 0.4*r.WallReflectance + 0.2*r.FloorReflectance
}

// ValidationError reports input rejected before any computation begins.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Distribution classifies how a luminaire splits its output between the
// workplane and the ceiling.
type Distribution int

const (
	Direct Distribution = iota
	Indirect
	SemiDirect
	SemiIndirect
	DirectIndirect
)

var distributionNames = map[Distribution]string{
	Direct:         "direct",
	Indirect:       "indirect",
	SemiDirect:     "semi-direct",
	SemiIndirect:   "semi-indirect",
	DirectIndirect: "direct-indirect",
}

func (d Distribution) String() string {
	if s, ok := distributionNames[d]; ok {
		return s
	}
	return "direct"
}

// ParseDistribution maps a distribution tag to its enum value. Unknown tags
// fall back to direct.
func ParseDistribution(s string) Distribution {
	for d, name := range distributionNames {
		if name == s {
			return d
		}
	}
	return Direct
}

// directWeight returns the (direct, indirect) blend weights for a
// distribution when combining the two CU base formulas.
func (d Distribution) blendWeights() (direct, indirect float64) {
	switch d {
	case Indirect:
		return 0, 1
	case SemiDirect:
		return 0.7, 0.3
	case SemiIndirect:
		return 0.3, 0.7
	case DirectIndirect:
		return 0.5, 0.5
	default:
		return 1, 0
	}
}

// Archetype is a closed set of fixture types. Each archetype resolves once,
// at layout construction, to a cosine falloff exponent for the fallback
// intensity model and a distribution classification.
type Archetype int

const (
	ArchetypeDefault Archetype = iota
	ArchetypeDownlight
	ArchetypeHighbay
	ArchetypeFloodlight
	ArchetypePanel
	ArchetypePendant
	ArchetypeTrack
	ArchetypeWallwash
	ArchetypeCove
)

type archetypeProfile struct {
	name         string
	exponent     float64
	distribution Distribution
}

var archetypeProfiles = map[Archetype]archetypeProfile{
	ArchetypeDefault:    {"default", 3.0, Direct},
	ArchetypeDownlight:  {"downlight", 4.0, Direct},
	ArchetypeHighbay:    {"highbay", 3.5, Direct},
	ArchetypeFloodlight: {"floodlight", 2.0, Direct},
	ArchetypePanel:      {"panel", 2.5, Direct},
	ArchetypePendant:    {"pendant", 2.0, DirectIndirect},
	ArchetypeTrack:      {"track", 3.0, Direct},
	ArchetypeWallwash:   {"wallwash", 1.5, SemiDirect},
	ArchetypeCove:       {"cove", 1.2, Indirect},
}

func (a Archetype) String() string {
	if p, ok := archetypeProfiles[a]; ok {
		return p.name
	}
	return "default"
}

// ParseArchetype maps a fixture type tag to its archetype. Unknown tags
// resolve to the default profile.
func ParseArchetype(s string) Archetype {
	for a, p := range archetypeProfiles {
		if p.name == s {
			return a
		}
	}
	return ArchetypeDefault
}

// Exponent returns the cosine falloff exponent for the fallback point-source
// model.
func (a Archetype) Exponent() float64 {
	if p, ok := archetypeProfiles[a]; ok {
		return p.exponent
	}
	return 3.0
}

// Distribution returns the archetype's distribution classification.
func (a Archetype) Distribution() Distribution {
	if p, ok := archetypeProfiles[a]; ok {
		return p.distribution
	}
	return Direct
}

// LuminaireLayout places Rows×Cols identical luminaires on a uniform grid
// centered in the room footprint.
type LuminaireLayout struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`

	// MountingHeight is the luminaire height above the workplane, meters.
	MountingHeight float64 `json:"mounting_height"`

	// LumensPerUnit is the luminous flux of one luminaire.
	LumensPerUnit float64 `json:"lumens_per_unit"`

	Archetype    Archetype    `json:"archetype"`
	Distribution Distribution `json:"distribution"`

	// Dataset, when set, supplies measured intensities; otherwise the
	// archetype's cosine falloff model is used.
	Dataset *photometry.Dataset `json:"-"`
}

// NewLuminaireLayout builds a layout, resolving the archetype tag to its
// distribution up front so it is never re-dispatched per sample point.
func NewLuminaireLayout(rows, cols int, mountingHeight, lumens float64, archetype Archetype, ds *photometry.Dataset) LuminaireLayout {
	return LuminaireLayout{
		Rows:           rows,
		Cols:           cols,
		MountingHeight: mountingHeight,
		LumensPerUnit:  lumens,
		Archetype:      archetype,
		Distribution:   archetype.Distribution(),
		Dataset:        ds,
	}
}

// Count returns the number of luminaires in the layout.
func (l LuminaireLayout) Count() int {
	if l.Rows < 1 || l.Cols < 1 {
		return 0
	}
	return l.Rows * l.Cols
}

// Validate rejects layouts the grid calculator cannot compute on. A zero
// luminaire count is valid (it produces a grid of zeros).
func (l LuminaireLayout) Validate() error {
	if l.Rows < 0 || l.Cols < 0 {
		return &ValidationError{Field: "layout", Reason: fmt.Sprintf("row/col counts must be non-negative, got %dx%d", l.Rows, l.Cols)}
	}
	if l.Count() > 0 {
		if l.MountingHeight <= 0 {
			return &ValidationError{Field: "mounting_height", Reason: fmt.Sprintf("must be positive, got %g", l.MountingHeight)}
		}
		if l.LumensPerUnit <= 0 {
			return &ValidationError{Field: "lumens_per_unit", Reason: fmt.Sprintf("must be positive, got %g", l.LumensPerUnit)}
		}
	}
	if ds := l.Dataset; ds != nil {
		if len(ds.VerticalAngles) == 0 || len(ds.HorizontalAngles) == 0 {
			return &ValidationError{Field: "photometry", Reason: "dataset angle arrays must be non-empty"}
		}
	}
	return nil
}

// Position is a luminaire location in room coordinates (origin at one room
// corner, z up from the floor).
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Positions returns the deterministic location of every luminaire for the
// given room: unit (r,c) sits at the center of its cell in a Rows×Cols
// subdivision of the footprint, at workplane height plus mounting height.
func (l LuminaireLayout) Positions(room RoomGeometry) []Position {
	n := l.Count()
	if n == 0 {
		return nil
	}
	z := room.WorkplaneHeight + l.MountingHeight
	out := make([]Position, 0, n)
	for r := 0; r < l.Rows; r++ {
		for c := 0; c < l.Cols; c++ {
			out = append(out, Position{
				X: (float64(c) + 0.5) * room.Length / float64(l.Cols),
				Y: (float64(r) + 0.5) * room.Width / float64(l.Rows),
				Z: z,
			})
		}
	}
	return out
}

// IlluminanceGrid is a sampled illuminance field over the workplane. Rows
// are indexed by the Y axis, values within a row by the X axis. Lux values
// are whole numbers and never negative. The grid is created fresh per
// calculation and never mutated after it is returned.
type IlluminanceGrid struct {
	Values [][]float64 `json:"values"`

	Spacing    float64 `json:"spacing"`
	PointsX    int     `json:"points_x"`
	PointsY    int     `json:"points_y"`
	RoomLength float64 `json:"room_length"`
	RoomWidth  float64 `json:"room_width"`

	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
}

// PointCount returns the total number of sample points.
func (g *IlluminanceGrid) PointCount() int {
	return g.PointsX * g.PointsY
}

// Flatten returns all lux values in row-major order.
func (g *IlluminanceGrid) Flatten() []float64 {
	out := make([]float64, 0, g.PointCount())
	for _, row := range g.Values {
		out = append(out, row...)
	}
	return out
}

// Metric is a scalar metric that may be undefined when its denominator is
// legitimately zero (for example uniformity of an all-dark grid). An
// undefined metric is a sentinel, not an error: other metrics in the same
// summary remain valid.
type Metric struct {
	Value   float64
	Defined bool
}

// DefinedMetric returns a metric carrying the given value.
func DefinedMetric(v float64) Metric { return Metric{Value: v, Defined: true} }

// Undefined returns the undefined sentinel.
func Undefined() Metric { return Metric{} }

// MarshalJSON encodes an undefined metric as null so report consumers can
// distinguish "not computable" from zero.
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

// UnmarshalJSON accepts null as the undefined sentinel.
func (m *Metric) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*m = Metric{}
		return nil
	}
	m.Defined = true
	return json.Unmarshal(b, &m.Value)
}

// MetricsSummary is the flat scalar record handed to reporting and export
// collaborators alongside the grid.
type MetricsSummary struct {
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`

	UniformityMinAvg Metric `json:"uniformity_min_avg"`
	UniformityMinMax Metric `json:"uniformity_min_max"`
	StdDev           Metric `json:"std_dev"`
	CoV              Metric `json:"cov"`
	Diversity        Metric `json:"diversity"`

	LuminanceMin Metric `json:"luminance_min"`
	LuminanceAvg Metric `json:"luminance_avg"`
	LuminanceMax Metric `json:"luminance_max"`

	RoomCavityRatio          float64 `json:"room_cavity_ratio"`
	CoefficientOfUtilization float64 `json:"coefficient_of_utilization"`

	DGR Metric `json:"dgr"`
	UGR Metric `json:"ugr"`
	VCP Metric `json:"vcp"`
}
