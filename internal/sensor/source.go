package sensor

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"codeberg.org/mutker/wellstatus/internal/errors"
	"go.bug.st/serial"
)

// Reader yields telemetry records one at a time.
type Reader interface {
	// ReadFrame returns the next record. The returned line is always
	// decodable: when nothing usable was read it is Placeholder and err
	// describes why.
	ReadFrame(ctx context.Context) (line string, err error)
	Close() error
}

// Source reads newline-terminated records from a byte stream. A helper
// goroutine performs the blocking reads so that ReadFrame can give up on
// timeout or cancellation.
type Source struct {
	port    io.ReadCloser
	lines   chan string
	done    chan struct{}
	timeout time.Duration
	scanErr error
	once    sync.Once
}

// NewSource starts reading records from port. A zero timeout waits for the
// next record for as long as the context allows.
func NewSource(port io.ReadCloser, timeout time.Duration) *Source {
	s := &Source{
		port:    port,
		lines:   make(chan string),
		done:    make(chan struct{}),
		timeout: timeout,
	}

	go s.scan()

	return s
}

// Disconnected returns a Source with no device behind it. Every read
// yields the placeholder record.
func Disconnected() *Source {
	return &Source{done: make(chan struct{})}
}

// OpenSerial opens the sensor device at path.
func OpenSerial(path string, opts PortOptions, timeout time.Duration) (*Source, error) {
	errFactory := errors.New()

	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, errFactory.WithData(ErrOpenPort, struct {
			Path  string
			Error string
		}{
			Path:  path,
			Error: err.Error(),
		})
	}

	return NewSource(port, timeout), nil
}

func (s *Source) scan() {
	defer close(s.lines)

	scanner := bufio.NewScanner(s.port)
	for scanner.Scan() {
		select {
		case s.lines <- scanner.Text():
		case <-s.done:
			return
		}
	}

	s.scanErr = scanner.Err()
	if s.scanErr == nil {
		s.scanErr = io.EOF
	}
}

func (s *Source) ReadFrame(ctx context.Context) (string, error) {
	errFactory := errors.New()

	if s.lines == nil {
		return Placeholder, errFactory.New(ErrNotConnected)
	}

	var expired <-chan time.Time
	if s.timeout > 0 {
		timer := time.NewTimer(s.timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-ctx.Done():
		return Placeholder, errFactory.Wrap(ErrTransport, ctx.Err())
	case <-expired:
		return Placeholder, errFactory.New(ErrReadTimeout)
	case line, ok := <-s.lines:
		if !ok {
			return Placeholder, errFactory.Wrap(ErrTransport, s.scanErr)
		}
		if strings.TrimSpace(line) == "" {
			return Placeholder, errFactory.New(ErrEmptyFrame)
		}
		return line, nil
	}
}

// Close stops the reader and releases the device.
func (s *Source) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		if s.port != nil {
			err = s.port.Close()
		}
	})

	return err
}
