package moodlight

import (
	"math"
	"time"

	"github.com/sixdouglas/suncalc"
)

// Sun altitude band (degrees) across which the ceiling eases from night to full
const (
	duskAltitudeDeg   = 0.0
	goldenAltitudeDeg = 6.0
)

// DaylightCeiling returns the highest brightness allowed at time t.
// Above golden hour the light may run at full brightness; below the horizon
// it is capped at nightBrightness. In between the cap rises linearly.
func DaylightCeiling(lat, lon float64, t time.Time, nightBrightness float64) float64 {
	position := suncalc.GetPosition(t, lat, lon)
	altitudeDegrees := position.Altitude * (180.0 / math.Pi)

	return ceilingForAltitude(altitudeDegrees, nightBrightness)
}

func ceilingForAltitude(altitudeDegrees, nightBrightness float64) float64 {
	night := math.Max(0, math.Min(1, nightBrightness))

	switch {
	case altitudeDegrees <= duskAltitudeDeg:
		return night
	case altitudeDegrees >= goldenAltitudeDeg:
		return 1.0
	default:
		frac := (altitudeDegrees - duskAltitudeDeg) / (goldenAltitudeDeg - duskAltitudeDeg)
		return night + (1.0-night)*frac
	}
}
