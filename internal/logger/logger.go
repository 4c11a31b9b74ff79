package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"codeberg.org/mutker/wellstatus/internal/errors"
	"github.com/rs/zerolog"
)

const (
	defaultDirPerm  = 0o755
	defaultFilePerm = 0o644
)

var log = zerolog.New(zerolog.ConsoleWriter{
	Out:        os.Stdout,
	TimeFormat: time.RFC3339,
}).With().Timestamp().Logger()

type LogLevel int8

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

type LogEvent struct {
	*zerolog.Event
}

func (e *LogEvent) Msg(msg string) {
	e.Event.Msg(msg)
}

func (e *LogEvent) Send() {
	e.Event.Send()
}

// ParseLevel maps a configured level name onto a LogLevel.
func ParseLevel(level string) (LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, errors.New().WithData(errors.ErrInvalidLogLevel, level)
	}
}

// Init initializes the logger based on the given configuration. When logFile
// is set, every entry is also appended to that file without colors. The
// returned closer releases the file and is safe to call when no file is used.
func Init(level, logFile string, isService bool) (io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nopCloser{}, err
	}

	console := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}

	if isService {
		console.TimeFormat = ""
		console.FormatTimestamp = func(_ interface{}) string {
			return ""
		}
	}

	var (
		output io.Writer = console
		closer io.Closer = nopCloser{}
	)

	if logFile != "" {
		f, err := openLogFile(logFile)
		if err != nil {
			return closer, err
		}
		output = zerolog.MultiLevelWriter(console, zerolog.ConsoleWriter{
			Out:        f,
			NoColor:    true,
			TimeFormat: time.DateTime,
		})
		closer = f
	}

	log = zerolog.New(output).With().Timestamp().Str("component", "wellstatus").Logger()

	SetLogLevel(lvl)

	return closer, nil
}

func openLogFile(path string) (*os.File, error) {
	errFactory := errors.New()

	if err := os.MkdirAll(filepath.Dir(path), defaultDirPerm); err != nil {
		return nil, errFactory.Wrap(errors.ErrOpenLogFile, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, defaultFilePerm)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrOpenLogFile, err)
	}

	return f, nil
}

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	zerolog.SetGlobalLevel(zerolog.Level(level))
}

// IsService checks if the application is running as a service
func IsService() bool {
	if _, err := os.Stdin.Stat(); err != nil {
		return true
	}
	if os.Getenv("SERVICE_NAME") != "" || os.Getenv("INVOCATION_ID") != "" {
		return true
	}
	if os.Getppid() == 1 {
		return true
	}

	return syscall.Getpgrp() == syscall.Getpid()
}

// Debug logs a debug message
func Debug() *LogEvent {
	return &LogEvent{log.Debug()}
}

// Info logs an info message
func Info() *LogEvent {
	return &LogEvent{log.Info()}
}

// Warn logs a warning message
func Warn() *LogEvent {
	return &LogEvent{log.Warn()}
}

// Error logs an error message
func Error() *LogEvent {
	return &LogEvent{log.Error()}
}

// ErrorWithCode logs an error message with a specific error code
func ErrorWithCode(err errors.Error) *LogEvent {
	return withCode(log.Error(), err)
}

// Fatal logs a fatal message and exits the program
func Fatal() *LogEvent {
	return &LogEvent{log.Fatal()}
}

// FatalWithCode logs a fatal message with a specific error code and exits the program
func FatalWithCode(err errors.Error) *LogEvent {
	return withCode(log.Fatal(), err)
}

func withCode(e *zerolog.Event, err errors.Error) *LogEvent {
	return &LogEvent{e.
		Str("error_code", string(err.Code())).
		Str("error_message", err.Error()).
		AnErr("error", err.Unwrap())}
}

// Default returns a Logger backed by the package-level logger, so that it
// follows any later call to Init.
func Default() Logger {
	return global{}
}

// New returns a Logger writing JSON lines to w.
func New(w io.Writer) Logger {
	return instance{zerolog.New(w).With().Timestamp().Logger()}
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return instance{zerolog.Nop()}
}

type global struct{}

func (global) Debug() *LogEvent                         { return Debug() }
func (global) Info() *LogEvent                          { return Info() }
func (global) Warn() *LogEvent                          { return Warn() }
func (global) Error() *LogEvent                         { return Error() }
func (global) ErrorWithCode(err errors.Error) *LogEvent { return ErrorWithCode(err) }

type instance struct {
	l zerolog.Logger
}

func (i instance) Debug() *LogEvent { return &LogEvent{i.l.Debug()} }
func (i instance) Info() *LogEvent  { return &LogEvent{i.l.Info()} }
func (i instance) Warn() *LogEvent  { return &LogEvent{i.l.Warn()} }
func (i instance) Error() *LogEvent { return &LogEvent{i.l.Error()} }

func (i instance) ErrorWithCode(err errors.Error) *LogEvent {
	return withCode(i.l.Error(), err)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
