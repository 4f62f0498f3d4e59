package illum

import "math"

// Observer is an explicit viewing position for glare evaluation. Glare
// functions never assume a default observer; every call site must say where
// the eye is and which way it looks.
type Observer struct {
	// Position of the eye in room coordinates, meters.
	Position Position `json:"position"`
	// ViewAzimuthDeg is the horizontal viewing direction, degrees
	// counterclockwise from the +X room axis.
	ViewAzimuthDeg float64 `json:"view_azimuth_deg"`
}

// GlareSource is one luminaire as seen from the observer.
type GlareSource struct {
	// Luminance of the luminous opening toward the eye, cd/m².
	Luminance float64
	// SolidAngle subtended at the eye, steradians.
	SolidAngle float64
	// PositionIndex is the Guth position index for the source direction.
	PositionIndex float64
}

// PositionIndex returns the Guth position index for a source displaced from
// the line of sight by the given vertical and horizontal angles in degrees.
// Sources at or above 53° vertical are fixed at index 1: the empirical fit
// below is published only for the region under that elevation.
func PositionIndex(verticalDeg, horizontalDeg float64) float64 {
	sigma := math.Abs(verticalDeg)
	tau := math.Abs(horizontalDeg)
	if sigma >= 53 {
		return 1
	}
	a := (35.2 - 0.31889*tau - 1.22*math.Exp(-2*tau/9)) * 1e-3 * sigma
	b := (21 + 0.26667*tau - 0.002963*tau*tau) * 1e-5 * sigma * sigma
	p := math.Exp(a + b)
	if p < 1 {
		return 1
	}
	return p
}

// GlareSources projects every luminaire in the layout into glare-source
// terms for the given observer. Luminaires behind the observer's line of
// sight (relative horizontal angle beyond ±90°) do not contribute.
func GlareSources(room RoomGeometry, layout LuminaireLayout, obs Observer) []GlareSource {
	positions := layout.Positions(room)
	if len(positions) == 0 {
		return nil
	}

	area := luminousOpeningArea(layout)
	out := make([]GlareSource, 0, len(positions))
	for _, lum := range positions {
		dx := lum.X - obs.Position.X
		dy := lum.Y - obs.Position.Y
		dz := lum.Z - obs.Position.Z
		d2 := dx*dx + dy*dy + dz*dz
		if d2 < 1e-12 {
			continue
		}
		d := math.Sqrt(d2)

		// Angles relative to the horizontal line of sight.
		vert := math.Asin(dz/d) * 180 / math.Pi
		horiz := relativeAzimuthDeg(dx, dy, obs.ViewAzimuthDeg)
		if math.Abs(horiz) > 90 {
			continue
		}

		intensity := glareIntensity(layout, d, dz)
		if intensity <= 0 {
			continue
		}

		src := GlareSource{
			Luminance:     intensity / area,
			SolidAngle:    area / d2,
			PositionIndex: PositionIndex(vert, horiz),
		}
		out = append(out, src)
	}
	return out
}

// glareIntensity is the candela of one luminaire toward the eye.
func glareIntensity(layout LuminaireLayout, d, dz float64) float64 {
	cos := math.Abs(dz) / d
	if ds := layout.Dataset; ds != nil {
		vert := math.Acos(clamp01(cos)) * 180 / math.Pi
		return ds.IntensityAt(vert, 0) * ds.CandelaMultiplier * ds.BallastFactor
	}
	return layout.LumensPerUnit / (4 * math.Pi) * math.Pow(cos, layout.Archetype.Exponent())
}

// luminousOpeningArea returns the emitting area used for luminance and
// solid angle, falling back to a nominal 0.3 m x 0.3 m opening when the
// dataset does not declare one.
func luminousOpeningArea(layout LuminaireLayout) float64 {
	const nominal = 0.09
	if ds := layout.Dataset; ds != nil {
		if a := ds.OpeningArea(); a > 1e-6 {
			return a
		}
	}
	return nominal
}

func relativeAzimuthDeg(dx, dy, viewAzimuthDeg float64) float64 {
	az := math.Atan2(dy, dx)*180/math.Pi - viewAzimuthDeg
	for az <= -180 {
		az += 360
	}
	for az > 180 {
		az -= 360
	}
	return az
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// DGR computes the discomfort glare rating: 10·log10(0.5·Σ g) where each
// source contributes g = L^1.6·ω^0.8 / (Lb·P^1.6). Undefined when the
// background luminance is zero or no source contributes.
func DGR(sources []GlareSource, backgroundLuminance float64) Metric {
	if backgroundLuminance <= 0 {
		return Undefined()
	}
	sum := 0.0
	for _, s := range sources {
		if s.PositionIndex <= 0 || s.SolidAngle <= 0 || s.Luminance <= 0 {
			continue
		}
		sum += math.Pow(s.Luminance, 1.6) * math.Pow(s.SolidAngle, 0.8) /
			(backgroundLuminance * math.Pow(s.PositionIndex, 1.6))
	}
	if sum <= 0 {
		return Undefined()
	}
	return DefinedMetric(10 * math.Log10(0.5*sum))
}

// UGR computes the unified glare rating: 8·log10(0.25·Σ g) with
// g = L²·ω / (Lb·P²). Undefined under the same guards as DGR.
func UGR(sources []GlareSource, backgroundLuminance float64) Metric {
	if backgroundLuminance <= 0 {
		return Undefined()
	}
	sum := 0.0
	for _, s := range sources {
		if s.PositionIndex <= 0 || s.SolidAngle <= 0 || s.Luminance <= 0 {
			continue
		}
		sum += s.Luminance * s.Luminance * s.SolidAngle /
			(backgroundLuminance * s.PositionIndex * s.PositionIndex)
	}
	if sum <= 0 {
		return Undefined()
	}
	return DefinedMetric(8 * math.Log10(0.25*sum))
}

// VCP maps a discomfort glare rating to visual comfort probability via a
// cubic fit, clamped to [0,100]. Undefined when DGR is undefined.
func VCP(dgr Metric) Metric {
	if !dgr.Defined {
		return Undefined()
	}
	d := dgr.Value
	v := -0.00076*d*d*d + 0.0293*d*d - 1.5*d + 110
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return DefinedMetric(v)
}

// ComputeGlare evaluates DGR, UGR, and VCP for an observer against a
// computed grid. Background luminance is taken from the grid's average
// illuminance on the workplane; an all-dark grid yields undefined glare.
func ComputeGlare(grid *IlluminanceGrid, room RoomGeometry, layout LuminaireLayout, obs Observer) (dgr, ugr, vcp Metric) {
	background := Luminance(grid.Average, DefaultWorkplaneReflectance)
	sources := GlareSources(room, layout, obs)
	dgr = DGR(sources, background)
	ugr = UGR(sources, background)
	vcp = VCP(dgr)
	return dgr, ugr, vcp
}
