// Package units provides shared constants and validation for speed units
package units

// Unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// metersPerSecondToMilesPerHour is the exact conversion factor.
const metersPerSecondToMilesPerHour = 2.2369362920544

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, MPH, KMPH, KPH}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "mps, mph, kmph, kph"
}

// ConvertSpeed converts a speed from meters per second to the target units.
// Lane files and the tracker both carry speeds in m/s; conversion happens
// only at the display edge.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPS:
		return speedMPS
	case MPH:
		return speedMPS * metersPerSecondToMilesPerHour
	case KMPH, KPH:
		return speedMPS * 3.6
	default:
		return speedMPS
	}
}

// ToMPS converts a speed in the given units back to meters per second.
// Pose logs recorded by third-party GPS tooling sometimes carry mph or
// km/h columns.
func ToMPS(speed float64, sourceUnits string) float64 {
	switch sourceUnits {
	case MPS:
		return speed
	case MPH:
		return speed / metersPerSecondToMilesPerHour
	case KMPH, KPH:
		return speed / 3.6
	default:
		return speed
	}
}
