package sensor

import (
	"fmt"
	"strings"

	"codeberg.org/mutker/wellstatus/internal/errors"
	"go.bug.st/serial"
)

const (
	defaultBaudRate = 9600
	defaultDataBits = 8
	defaultStopBits = 1
	defaultParity   = "N"
)

// PortOptions describes the serial connection parameters of the sensor
// device.
type PortOptions struct {
	BaudRate int    `mapstructure:"baud_rate"`
	DataBits int    `mapstructure:"data_bits"`
	StopBits int    `mapstructure:"stop_bits"`
	Parity   string `mapstructure:"parity"`
}

// Normalize validates the options and applies defaults for any unset values.
func (o PortOptions) Normalize() (PortOptions, error) {
	errFactory := errors.New()
	opts := o

	if opts.BaudRate <= 0 {
		opts.BaudRate = defaultBaudRate
	}

	if opts.DataBits == 0 {
		opts.DataBits = defaultDataBits
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, errFactory.WithMessage(ErrInvalidPortOptions,
			fmt.Sprintf("invalid data bits %d: must be between 5 and 8", opts.DataBits))
	}

	if opts.StopBits == 0 {
		opts.StopBits = defaultStopBits
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, errFactory.WithMessage(ErrInvalidPortOptions,
			fmt.Sprintf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits))
	}

	parity := strings.TrimSpace(strings.ToUpper(opts.Parity))
	switch parity {
	case "", "N", "NONE":
		parity = defaultParity
	case "E", "EVEN":
		parity = "E"
	case "O", "ODD":
		parity = "O"
	default:
		return opts, errFactory.WithMessage(ErrInvalidPortOptions,
			fmt.Sprintf("unsupported parity %q: expected N, E, or O", opts.Parity))
	}

	opts.Parity = parity
	return opts, nil
}

// SerialMode converts the port options into the serial.Mode structure
// required by go.bug.st/serial.
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
	}

	if opts.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	} else {
		mode.StopBits = serial.OneStopBit
	}

	switch opts.Parity {
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	default:
		mode.Parity = serial.NoParity
	}

	return mode, nil
}
