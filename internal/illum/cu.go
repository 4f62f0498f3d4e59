package illum

import "math"

// Coefficient of utilization bounds. Every CU path clamps into this range
// regardless of how extreme the cavity ratio or reflectances are.
const (
	cuFloor = 0.10
	cuCeil  = 0.95
)

// The three CU paths below intentionally carry their own empirical
// coefficients. They approximate different published tables (zonal cavity
// utilization, lumen-method planning values, and the IESNA-style fit that
// includes the floor cavity) and must not be collapsed into one formula.

// cuUtilizationDirect is the direct-distribution base of the utilization
// path: exponential decay in RCR scaled by a ceiling/wall reflectance
// factor.
func cuUtilizationDirect(rcr, ceiling, wall float64) float64 {
	return (0.75 + 0.20*ceiling + 0.05*wall) * math.Exp(-0.14*rcr)
}

// cuUtilizationIndirect is the indirect-distribution base of the utilization
// path. Indirect output rides almost entirely on the ceiling.
func cuUtilizationIndirect(rcr, ceiling, wall float64) float64 {
	return (0.45 + 0.40*ceiling + 0.15*wall) * math.Exp(-0.22*rcr)
}

// CoefficientOfUtilization returns CU for the utilization path. Blended
// distribution types combine the direct and indirect bases with fixed
// weights (semi-direct 0.7/0.3, semi-indirect 0.3/0.7, direct-indirect
// 0.5/0.5). The result is clamped to [0.1, 0.95].
func CoefficientOfUtilization(room RoomGeometry, dist Distribution) float64 {
	rcr := RoomCavityRatio(room)
	direct := cuUtilizationDirect(rcr, room.CeilingReflectance, room.WallReflectance)
	indirect := cuUtilizationIndirect(rcr, room.CeilingReflectance, room.WallReflectance)

	wd, wi := dist.blendWeights()
	return clampCU(wd*direct + wi*indirect)
}

// cuAverageIlluminance is the CU path used by the lumen-method average
// illuminance estimate. Coefficients differ slightly from the utilization
// path; both match their respective source tables.
func cuAverageIlluminance(room RoomGeometry, dist Distribution) float64 {
	rcr := RoomCavityRatio(room)
	direct := (0.78 + 0.18*room.CeilingReflectance + 0.04*room.WallReflectance) * math.Exp(-0.12*rcr)
	indirect := (0.48 + 0.38*room.CeilingReflectance + 0.14*room.WallReflectance) * math.Exp(-0.20*rcr)

	wd, wi := dist.blendWeights()
	return clampCU(wd*direct + wi*indirect)
}

// CoefficientOfUtilizationIESNA is the detailed path that also accounts for
// the floor cavity reflectance.
func CoefficientOfUtilizationIESNA(room RoomGeometry, dist Distribution) float64 {
	rcr := RoomCavityRatio(room)
	direct := (0.70 + 0.18*room.CeilingReflectance + 0.08*room.WallReflectance + 0.04*room.FloorReflectance) * math.Exp(-0.125*rcr)
	indirect := (0.40 + 0.42*room.CeilingReflectance + 0.12*room.WallReflectance + 0.06*room.FloorReflectance) * math.Exp(-0.20*rcr)

	wd, wi := dist.blendWeights()
	return clampCU(wd*direct + wi*indirect)
}

func clampCU(cu float64) float64 {
	if cu < cuFloor {
		return cuFloor
	}
	if cu > cuCeil {
		return cuCeil
	}
	return cu
}
