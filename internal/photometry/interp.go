package photometry

import "math"

// IntensityAt returns the interpolated candela intensity for the given
// vertical and horizontal angles in degrees. The horizontal angle is
// normalized into [0,360) and the vertical angle clamped into [0,180].
// Queries outside the recorded angle range clamp to the nearest recorded
// values rather than extrapolating. A query landing exactly on a recorded
// angle pair returns the recorded candela value unmodified.
//
// The result is always finite and non-negative.
func (d *Dataset) IntensityAt(verticalDeg, horizontalDeg float64) float64 {
	if len(d.VerticalAngles) == 0 || len(d.HorizontalAngles) == 0 || len(d.Candela) == 0 {
		return 0
	}

	h := normalizeHorizontal(horizontalDeg)
	v := clamp(verticalDeg, 0, 180)

	vLo, vHi, vFrac := bracket(d.VerticalAngles, v)
	hLo, hHi, hFrac := bracket(d.HorizontalAngles, h)

	c00 := d.Candela[hLo][vLo]
	c01 := d.Candela[hLo][vHi]
	c10 := d.Candela[hHi][vLo]
	c11 := d.Candela[hHi][vHi]

	low := c00 + (c01-c00)*vFrac
	high := c10 + (c11-c10)*vFrac
	out := low + (high-low)*hFrac

	if out < 0 || math.IsNaN(out) || math.IsInf(out, 0) {
		return 0
	}
	return out
}

// normalizeHorizontal wraps an angle into [0,360) by repeated adjustment.
func normalizeHorizontal(deg float64) float64 {
	for deg < 0 {
		deg += 360
	}
	for deg >= 360 {
		deg -= 360
	}
	return deg
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// bracket finds the pair of adjacent indices in an ascending angle array
// that straddles x, and the fractional position of x within that interval.
// Queries outside the array clamp to the first or last interval. A
// zero-width interval gets fraction 0 so degenerate arrays never divide
// by zero.
func bracket(angles []float64, x float64) (lo, hi int, frac float64) {
	n := len(angles)
	if n == 1 {
		return 0, 0, 0
	}
	if x <= angles[0] {
		return 0, 0, 0
	}
	if x >= angles[n-1] {
		return n - 1, n - 1, 0
	}
	for i := 1; i < n; i++ {
		if x <= angles[i] {
			lo, hi = i-1, i
			width := angles[hi] - angles[lo]
			if width <= 0 {
				return lo, hi, 0
			}
			return lo, hi, (x - angles[lo]) / width
		}
	}
	return n - 1, n - 1, 0
}
