package illum

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// DefaultWorkplaneReflectance is assumed when luminance is requested for the
// workplane rather than a named room surface.
const DefaultWorkplaneReflectance = 0.5

// Surface names a room surface for luminance conversion.
type Surface int

const (
	SurfaceWorkplane Surface = iota
	SurfaceCeiling
	SurfaceWall
	SurfaceFloor
)

// SurfaceReflectance returns the reflectance of the named surface.
func (r RoomGeometry) SurfaceReflectance(s Surface) float64 {
	switch s {
	case SurfaceCeiling:
		return r.CeilingReflectance
	case SurfaceWall:
		return r.WallReflectance
	case SurfaceFloor:
		return r.FloorReflectance
	default:
		return DefaultWorkplaneReflectance
	}
}

// Luminance converts illuminance to luminance for a diffuse surface:
// L = E·ρ/π.
func Luminance(illuminanceLux, reflectance float64) float64 {
	return illuminanceLux * reflectance / math.Pi
}

// RoomCavityRatio returns RCR = 5·h_cavity·(L+W)/(L·W).
func RoomCavityRatio(room RoomGeometry) float64 {
	return 5 * room.CavityHeight() * (room.Length + room.Width) / (room.Length * room.Width)
}

// UniformityMetrics holds the dispersion statistics of a grid. Every field
// whose denominator can be zero is a Metric and reads undefined rather than
// NaN when the grid is dark.
type UniformityMetrics struct {
	MinAvg    Metric // min / average
	MinMax    Metric // min / max
	StdDev    Metric // population standard deviation
	CoV       Metric // stddev / average
	Diversity Metric // max / min
}

// ComputeUniformity derives dispersion statistics over all grid cells.
// The standard deviation is the population form (second central moment over
// every cell, no Bessel correction).
func ComputeUniformity(grid *IlluminanceGrid) UniformityMetrics {
	vals := grid.Flatten()
	if len(vals) == 0 {
		return UniformityMetrics{}
	}

	mean := stat.Mean(vals, nil)
	sd := math.Sqrt(stat.MomentAbout(2, vals, mean, nil))
	out := UniformityMetrics{
		StdDev: DefinedMetric(sd),
	}

	if mean > 0 {
		out.MinAvg = DefinedMetric(grid.Min / mean)
		out.CoV = DefinedMetric(sd / mean)
	}
	if grid.Max > 0 {
		out.MinMax = DefinedMetric(grid.Min / grid.Max)
	}
	if grid.Min > 0 {
		out.Diversity = DefinedMetric(grid.Max / grid.Min)
	}
	return out
}

// Summarize assembles the full metrics record for a computed grid. Glare
// metrics require an observer and are filled separately; see ComputeGlare.
func Summarize(grid *IlluminanceGrid, room RoomGeometry, layout LuminaireLayout) MetricsSummary {
	u := ComputeUniformity(grid)
	rho := room.SurfaceReflectance(SurfaceWorkplane)

	return MetricsSummary{
		Average: grid.Average,
		Min:     grid.Min,
		Max:     grid.Max,

		UniformityMinAvg: u.MinAvg,
		UniformityMinMax: u.MinMax,
		StdDev:           u.StdDev,
		CoV:              u.CoV,
		Diversity:        u.Diversity,

		LuminanceMin: DefinedMetric(Luminance(grid.Min, rho)),
		LuminanceAvg: DefinedMetric(Luminance(grid.Average, rho)),
		LuminanceMax: DefinedMetric(Luminance(grid.Max, rho)),

		RoomCavityRatio:          RoomCavityRatio(room),
		CoefficientOfUtilization: CoefficientOfUtilization(room, layout.Distribution),
	}
}

// EstimateAverageIlluminance predicts average workplane illuminance with the
// lumen method: E = N·Φ·CU·LLF / A. It uses the average-illuminance CU
// coefficient path, which differs from the utilization path on purpose.
func EstimateAverageIlluminance(room RoomGeometry, layout LuminaireLayout, lightLossFactor float64) (float64, error) {
	if err := room.Validate(); err != nil {
		return 0, err
	}
	if err := layout.Validate(); err != nil {
		return 0, err
	}
	if lightLossFactor <= 0 || lightLossFactor > 1 {
		return 0, &ValidationError{Field: "light_loss_factor", Reason: "must be in (0,1]"}
	}
	n := float64(layout.Count())
	cu := cuAverageIlluminance(room, layout.Distribution)
	area := room.Length * room.Width
	return n * layout.LumensPerUnit * cu * lightLossFactor / area, nil
}
