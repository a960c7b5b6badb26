package weather

// UV risk labels. Upper bounds of each band are inclusive.
const (
	UVRiskLow      = "Low"
	UVRiskModerate = "Moderate"
	UVRiskHigh     = "High"
	UVRiskVeryHigh = "Very High"
	UVRiskExtreme  = "Extreme"
)

// UVRisk maps a UV index to its risk label.
func UVRisk(index float64) string {
	switch {
	case index <= 2:
		return UVRiskLow
	case index <= 5:
		return UVRiskModerate
	case index <= 7:
		return UVRiskHigh
	case index <= 10:
		return UVRiskVeryHigh
	default:
		return UVRiskExtreme
	}
}

// AirQualityCategory maps the 1-5 air-quality index to its category label.
func AirQualityCategory(index int) string {
	switch index {
	case 1:
		return "Good"
	case 2:
		return "Moderate"
	case 3:
		return "Unhealthy for Sensitive Groups"
	case 4:
		return "Unhealthy"
	case 5:
		return "Very Unhealthy"
	default:
		return "Unknown"
	}
}
