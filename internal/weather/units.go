package weather

import (
	"fmt"
	"math"
	"strings"
)

// UnitSystem selects the units remote sources answer in.
type UnitSystem string

const (
	Metric   UnitSystem = "metric"
	Imperial UnitSystem = "imperial"
)

// metersPerSecondToMPH is the exact factor for 1 m/s in statute miles per hour.
const metersPerSecondToMPH = 3600 / 1609.344

// ParseUnitSystem accepts "metric" or "imperial" in any case.
func ParseUnitSystem(s string) (UnitSystem, error) {
	switch UnitSystem(strings.ToLower(strings.TrimSpace(s))) {
	case Metric:
		return Metric, nil
	case Imperial:
		return Imperial, nil
	default:
		return "", fmt.Errorf("unknown unit system %q", s)
	}
}

// Valid reports whether u is one of the known unit systems.
func (u UnitSystem) Valid() bool {
	return u == Metric || u == Imperial
}

// TemperatureSymbol returns "°C" or "°F".
func (u UnitSystem) TemperatureSymbol() string {
	if u == Imperial {
		return "°F"
	}
	return "°C"
}

// ConvertTemperature converts a temperature between unit systems
// (Celsius for metric, Fahrenheit for imperial).
func ConvertTemperature(v float64, from, to UnitSystem) float64 {
	if from == to {
		return v
	}
	if to == Imperial {
		return v*9/5 + 32
	}
	return (v - 32) * 5 / 9
}

// ConvertWindSpeed converts a wind speed between unit systems
// (m/s for metric, mph for imperial).
func ConvertWindSpeed(v float64, from, to UnitSystem) float64 {
	if from == to {
		return v
	}
	if to == Imperial {
		return v * metersPerSecondToMPH
	}
	return v / metersPerSecondToMPH
}

// DisplayTemperature is the rounded value FormatTemperature prints.
func DisplayTemperature(t float64) int {
	return int(math.Round(t))
}

// FormatTemperature renders a temperature already expressed in u.
func FormatTemperature(t float64, u UnitSystem) string {
	return fmt.Sprintf("%d%s", DisplayTemperature(t), u.TemperatureSymbol())
}

// DisplayWindSpeed is the rounded value FormatWindSpeed prints: one decimal
// for m/s, whole numbers for mph.
func DisplayWindSpeed(s float64, u UnitSystem) float64 {
	if u == Imperial {
		return math.Round(s)
	}
	return math.Round(s*10) / 10
}

// FormatWindSpeed renders a wind speed already expressed in u.
func FormatWindSpeed(s float64, u UnitSystem) string {
	if u == Imperial {
		return fmt.Sprintf("%.0f mph", DisplayWindSpeed(s, u))
	}
	return fmt.Sprintf("%.1f m/s", DisplayWindSpeed(s, u))
}
