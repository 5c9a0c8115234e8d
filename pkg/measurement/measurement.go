// Package measurement converts raw TFD500 sensor readings into physical
// quantities. All functions are pure; the same input always yields the
// same output.
package measurement

import "math"

// Magnus approximation constants for saturation vapor pressure over water.
const (
	magnusA = 17.62
	magnusB = 243.12
	// saturation vapor pressure at 0 °C, hPa
	es0 = 6.112
)

// Celsius converts a raw temperature reading (tenths of a degree) to
// degrees Celsius.
func Celsius(raw int16) float64 {
	return float64(raw) / 10
}

// RelativeHumidity converts a raw humidity reading to percent relative
// humidity.
func RelativeHumidity(raw int8) float64 {
	return float64(raw)
}

// CelsiusToFahrenheit converts degrees Celsius to degrees Fahrenheit.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// SaturationVaporPressure returns the saturation vapor pressure in hPa at
// tempC degrees Celsius.
func SaturationVaporPressure(tempC float64) float64 {
	return es0 * math.Exp(magnusA*tempC/(magnusB+tempC))
}

// AbsoluteHumidity returns the water vapor mass per air volume in g/m³ for
// the given temperature and relative humidity.
func AbsoluteHumidity(tempC, rhPct float64) float64 {
	e := SaturationVaporPressure(tempC) * rhPct / 100
	return 216.7 * e / (tempC + 273.15)
}

// DewPoint returns the dew point in degrees Celsius for the given
// temperature and relative humidity, using the Magnus formula inversion.
func DewPoint(tempC, rhPct float64) float64 {
	g := math.Log(rhPct/100) + magnusA*tempC/(magnusB+tempC)
	return magnusB * g / (magnusA - g)
}
