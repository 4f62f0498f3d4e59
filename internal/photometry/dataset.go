// Package photometry parses IES LM-63 photometric files and evaluates
// luminous intensity distributions. A parsed Dataset is immutable and may be
// shared read-only across any number of concurrent calculations.
package photometry

// Tilt mode constants as they appear on the TILT= line of an IES file.
const (
	TiltNone    = "NONE"
	TiltInclude = "INCLUDE"
	TiltFile    = "FILE"
)

// TiltTable holds the lamp tilt data read when TILT=INCLUDE.
type TiltTable struct {
	LampToLuminaire int
	Angles          []float64
	Multipliers     []float64
}

// Dataset is a parsed IES LM-63 photometric file. Candela values are indexed
// first by horizontal angle position, then by vertical angle position:
// Candela[h][v]. Angle arrays are ascending; vertical angles span [0,180]
// degrees from nadir, horizontal angles span [0,360).
type Dataset struct {
	// Keywords holds recognized [KEYWORD] header values (e.g. MANUFAC, LUMCAT).
	Keywords map[string]string
	// RawHeader retains header lines that were not bracketed keywords.
	// They are kept verbatim as opaque metadata, never treated as errors.
	RawHeader []string

	TiltMode string
	TiltFile string
	Tilt     *TiltTable

	LampCount         int
	LumensPerLamp     float64
	CandelaMultiplier float64
	PhotometricType   int
	UnitsType         int

	// Luminous opening dimensions in the file's unit system.
	OpeningWidth  float64
	OpeningLength float64
	OpeningHeight float64

	BallastFactor     float64
	BallastLampFactor float64
	InputWatts        float64

	VerticalAngles   []float64
	HorizontalAngles []float64
	Candela          [][]float64
}

// TotalLamps returns the lamp count, treating the IES convention of a
// negative or zero count as a single lamp.
func (d *Dataset) TotalLamps() int {
	if d.LampCount < 1 {
		return 1
	}
	return d.LampCount
}

// RatedLumens returns the total rated lamp lumens for the luminaire.
func (d *Dataset) RatedLumens() float64 {
	return float64(d.TotalLamps()) * d.LumensPerLamp
}

// OpeningArea returns the luminous opening area in the file's unit system,
// or zero when the file declares a point source.
func (d *Dataset) OpeningArea() float64 {
	a := d.OpeningWidth * d.OpeningLength
	if a < 0 {
		// Negative dimensions encode circular/elliptical openings; use the
		// magnitude as an approximation of the opening extent.
		a = -a
	}
	return a
}

// MaxCandela returns the largest candela value in the distribution.
func (d *Dataset) MaxCandela() float64 {
	max := 0.0
	for _, row := range d.Candela {
		for _, c := range row {
			if c > max {
				max = c
			}
		}
	}
	return max
}
