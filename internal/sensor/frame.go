package sensor

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"codeberg.org/mutker/wellstatus/internal/errors"
)

// Placeholder is the frame substituted whenever nothing usable could be
// read from the device. It decodes to all-zero raw values.
const Placeholder = "x:0:x:0:x:0"

const frameSeparator = ":"

// Quantity names one of the physical values carried by a frame.
type Quantity string

const (
	Temperature Quantity = "temperature"
	Pressure    Quantity = "pressure"
	Humidity    Quantity = "humidity"
)

// Frame holds the raw sensor values of one telemetry record.
type Frame struct {
	Pressure    float64
	Temperature float64
	Humidity    float64
}

type field struct {
	quantity Quantity
	position int
	set      func(*Frame, float64)
	// convert maps the raw value to the unit it is stored in.
	convert func(float64) float64
}

// Fields are checked in the order the device firmware documents them.
var frameFields = []field{
	{Temperature, 3, func(f *Frame, v float64) { f.Temperature = v }, Fahrenheit},
	{Pressure, 1, func(f *Frame, v float64) { f.Pressure = v }, PSI},
	{Humidity, 5, func(f *Frame, v float64) { f.Humidity = v }, func(v float64) float64 { return v }},
}

// Reasons reported by FieldError.
const (
	ReasonMissing    = "field is missing"
	ReasonNotNumeric = "extracted value is not a number"
	ReasonNaN        = "extracted value is NaN"
	ReasonOutOfRange = "extracted value is out of range"
)

// FieldError reports a single quantity that could not be decoded. The
// quantity keeps its previous value.
type FieldError struct {
	Quantity Quantity
	Token    string
	Reason   string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("Invalid %s argument, %s", e.Quantity, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return errors.New().WithData(ErrDecode, e.Token)
}

// Decode extracts pressure, temperature and humidity from fields 1, 3 and 5
// of a colon-delimited record. Each field is decoded independently: a bad
// or missing field keeps its value from prev and is reported as a
// *FieldError, while the remaining fields still update.
func Decode(line string, prev Frame) (Frame, []error) {
	tokens := strings.Split(strings.TrimSpace(line), frameSeparator)

	next := prev
	var errs []error

	for _, f := range frameFields {
		v, err := parseField(tokens, f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		f.set(&next, v)
	}

	return next, errs
}

func parseField(tokens []string, f field) (float64, error) {
	if f.position >= len(tokens) {
		return 0, &FieldError{Quantity: f.quantity, Reason: ReasonMissing}
	}

	token := strings.TrimSpace(tokens[f.position])

	v, err := strconv.ParseFloat(token, 64)
	switch {
	case errors.Is(err, strconv.ErrRange):
		return 0, &FieldError{Quantity: f.quantity, Token: token, Reason: ReasonOutOfRange}
	case err != nil:
		return 0, &FieldError{Quantity: f.quantity, Token: token, Reason: ReasonNotNumeric}
	case math.IsNaN(v):
		return 0, &FieldError{Quantity: f.quantity, Token: token, Reason: ReasonNaN}
	case math.IsInf(v, 0), math.IsInf(f.convert(v), 0):
		return 0, &FieldError{Quantity: f.quantity, Token: token, Reason: ReasonOutOfRange}
	}

	return v, nil
}
