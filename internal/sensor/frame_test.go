package sensor_test

import (
	"math"
	"testing"

	"codeberg.org/mutker/wellstatus/internal/errors"
	"codeberg.org/mutker/wellstatus/internal/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeExtractsPositionalFields(t *testing.T) {
	tests := []struct {
		name string
		line string
		want sensor.Frame
	}{
		{"exact", "P:512:T:21.5:H:40", sensor.Frame{Pressure: 512, Temperature: 21.5, Humidity: 40}},
		{"crlf", "x:102:x:0:x:50\r\n", sensor.Frame{Pressure: 102, Temperature: 0, Humidity: 50}},
		{"trailing fields", "x:920:x:25:x:55:extra:7", sensor.Frame{Pressure: 920, Temperature: 25, Humidity: 55}},
		{"negative temperature", "x:300:x:-4.25:x:12", sensor.Frame{Pressure: 300, Temperature: -4.25, Humidity: 12}},
		{"placeholder", sensor.Placeholder, sensor.Frame{}},
	}

	prev := sensor.Frame{Pressure: 1, Temperature: 2, Humidity: 3}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errs := sensor.Decode(tt.line, prev)
			assert.Empty(t, errs)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeKeepsPreviousValueOnBadField(t *testing.T) {
	prev := sensor.Frame{Pressure: 400, Temperature: 20, Humidity: 45}

	got, errs := sensor.Decode("x:abc:x:22:x:NaN", prev)

	assert.Equal(t, sensor.Frame{Pressure: 400, Temperature: 22, Humidity: 45}, got)
	require.Len(t, errs, 2)

	var fieldErr *sensor.FieldError
	require.ErrorAs(t, errs[0], &fieldErr)
	assert.Equal(t, sensor.Pressure, fieldErr.Quantity)
	assert.Equal(t, sensor.ReasonNotNumeric, fieldErr.Reason)
	assert.Equal(t, "abc", fieldErr.Token)

	require.ErrorAs(t, errs[1], &fieldErr)
	assert.Equal(t, sensor.Humidity, fieldErr.Quantity)
	assert.Equal(t, sensor.ReasonNaN, fieldErr.Reason)
	assert.Equal(t, "Invalid humidity argument, extracted value is NaN", fieldErr.Error())
}

func TestDecodeShortFrame(t *testing.T) {
	prev := sensor.Frame{Pressure: 400, Temperature: 20, Humidity: 45}

	got, errs := sensor.Decode("x:410:x:21", prev)

	assert.Equal(t, sensor.Frame{Pressure: 410, Temperature: 21, Humidity: 45}, got)
	require.Len(t, errs, 1)

	var fieldErr *sensor.FieldError
	require.ErrorAs(t, errs[0], &fieldErr)
	assert.Equal(t, sensor.Humidity, fieldErr.Quantity)
	assert.Equal(t, sensor.ReasonMissing, fieldErr.Reason)
}

func TestDecodeEmptyLineFlagsEverything(t *testing.T) {
	prev := sensor.Frame{Pressure: 1, Temperature: 2, Humidity: 3}

	got, errs := sensor.Decode("", prev)

	assert.Equal(t, prev, got)
	assert.Len(t, errs, 3)
}

func TestDecodeRejectsNonFinite(t *testing.T) {
	prev := sensor.Frame{Pressure: 1, Temperature: 2, Humidity: 3}

	got, errs := sensor.Decode("x:Inf:x:1e999:x:-inf", prev)

	assert.Equal(t, prev, got)
	require.Len(t, errs, 3)
	for _, err := range errs {
		var fieldErr *sensor.FieldError
		require.ErrorAs(t, err, &fieldErr)
		assert.Equal(t, sensor.ReasonOutOfRange, fieldErr.Reason)
	}
}

func TestDecodeRejectsValuesThatOverflowOnConversion(t *testing.T) {
	prev := sensor.Frame{Pressure: 920, Temperature: 25, Humidity: 55}

	got, errs := sensor.Decode("x:1e308:x:-1e308:x:1e308", prev)

	assert.Equal(t, sensor.Frame{Pressure: 920, Temperature: 25, Humidity: 1e308}, got)
	require.Len(t, errs, 2)

	var quantities []sensor.Quantity
	for _, err := range errs {
		var fieldErr *sensor.FieldError
		require.ErrorAs(t, err, &fieldErr)
		assert.Equal(t, sensor.ReasonOutOfRange, fieldErr.Reason)
		quantities = append(quantities, fieldErr.Quantity)
	}
	assert.Equal(t, []sensor.Quantity{sensor.Temperature, sensor.Pressure}, quantities)

	m := sensor.Convert(got)
	assert.False(t, math.IsInf(m.TemperatureF, 0))
	assert.False(t, math.IsInf(m.PressurePSI, 0))
}

func TestFieldErrorCarriesDecodeCode(t *testing.T) {
	_, errs := sensor.Decode("x:bad:x:1:x:2", sensor.Frame{})
	require.Len(t, errs, 1)
	assert.True(t, errors.HasCode(errs[0], sensor.ErrDecode))
}
