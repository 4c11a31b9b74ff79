package sensor

import "math"

// Calibration of the pressure transducer's linear transfer function.
const (
	pressureZeroOffset     = 102
	pressureSpanMultiplier = 150
	pressureSpanDivisor    = 819
	pressureBaseline       = 17
)

const displayPlaces = 2

// Measurement is a frame converted to presentable units.
type Measurement struct {
	TemperatureF float64
	PressurePSI  float64
	Humidity     float64
}

// Convert applies both unit conversions to a raw frame. Humidity is
// reported by the sensor in percent and passes through unchanged.
func Convert(f Frame) Measurement {
	return Measurement{
		TemperatureF: Fahrenheit(f.Temperature),
		PressurePSI:  PSI(f.Pressure),
		Humidity:     f.Humidity,
	}
}

// Fahrenheit converts a raw temperature reading in degrees Celsius.
func Fahrenheit(celsius float64) float64 {
	return Round(celsius*9/5+32, displayPlaces)
}

// PSI converts a raw pressure transducer reading to pounds per square inch.
func PSI(raw float64) float64 {
	adjusted := raw - pressureZeroOffset
	scaled := adjusted * pressureSpanMultiplier / pressureSpanDivisor

	return Round(scaled+pressureBaseline, displayPlaces)
}

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
