// Package units provides shared constants and conversion helpers for linear
// dimensions and illuminance values. All engine math runs on meters and lux;
// the helpers here convert alternate units at the boundary.
package units

import "fmt"

// Unit constants
const (
	Meters = "m"
	Feet   = "ft"

	Lux         = "lux"
	Footcandles = "fc"
)

// MetersPerFoot is the exact international foot.
const MetersPerFoot = 0.3048

// LuxPerFootcandle converts footcandles to lux (1 fc = 1 lm/ft²).
const LuxPerFootcandle = 10.7639104167

// ValidLengthUnits contains all valid length unit values
var ValidLengthUnits = []string{Meters, Feet}

// IsValidLengthUnit checks if the given unit is in the list of valid length units
func IsValidLengthUnit(unit string) bool {
	for _, validUnit := range ValidLengthUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidLengthUnitsString returns a comma-separated string of valid units for error messages
func GetValidLengthUnitsString() string {
	return "m, ft"
}

// ToMeters converts a length in the given unit to meters.
// Unknown units are passed through unchanged.
func ToMeters(value float64, unit string) float64 {
	switch unit {
	case Feet:
		return value * MetersPerFoot
	case Meters:
		return value
	default:
		return value
	}
}

// FromMeters converts a length in meters to the target unit.
func FromMeters(meters float64, targetUnit string) float64 {
	switch targetUnit {
	case Feet:
		return meters / MetersPerFoot
	case Meters:
		return meters
	default:
		return meters
	}
}

// ConvertIlluminance converts an illuminance stored in lux to the target units.
// The engine always computes in lux.
func ConvertIlluminance(lux float64, targetUnits string) float64 {
	switch targetUnits {
	case Footcandles:
		return lux / LuxPerFootcandle
	case Lux:
		return lux
	default:
		return lux
	}
}

// Dimensions is a set of room measurements tagged with one length unit.
type Dimensions struct {
	Length          float64
	Width           float64
	Height          float64
	WorkplaneHeight float64
	Unit            string
}

// Normalize converts every dimension to meters and validates the result.
// Dimensions must be positive and the workplane must sit strictly between
// the floor and the ceiling.
func Normalize(d Dimensions) (Dimensions, error) {
	if !IsValidLengthUnit(d.Unit) {
		return Dimensions{}, fmt.Errorf("unknown length unit %q (valid: %s)", d.Unit, GetValidLengthUnitsString())
	}

	out := Dimensions{
		Length:          ToMeters(d.Length, d.Unit),
		Width:           ToMeters(d.Width, d.Unit),
		Height:          ToMeters(d.Height, d.Unit),
		WorkplaneHeight: ToMeters(d.WorkplaneHeight, d.Unit),
		Unit:            Meters,
	}

	if out.Length <= 0 || out.Width <= 0 || out.Height <= 0 {
		return Dimensions{}, fmt.Errorf("room dimensions must be positive (got %gx%gx%g m)", out.Length, out.Width, out.Height)
	}
	if out.WorkplaneHeight <= 0 || out.WorkplaneHeight >= out.Height {
		return Dimensions{}, fmt.Errorf("workplane height %g m must be between 0 and ceiling height %g m", out.WorkplaneHeight, out.Height)
	}

	return out, nil
}
