package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/wellstatus/internal/config"
	"codeberg.org/mutker/wellstatus/internal/errors"
	"codeberg.org/mutker/wellstatus/internal/logger"
	"codeberg.org/mutker/wellstatus/internal/monitor"
	"codeberg.org/mutker/wellstatus/internal/notify"
	"codeberg.org/mutker/wellstatus/internal/pid"
	"codeberg.org/mutker/wellstatus/internal/sensor"
	"codeberg.org/mutker/wellstatus/internal/store"
)

var version = "dev"

var cfg *config.Config

func main() {
	var err error
	cfg, err = config.Load(config.WithArgs(os.Args[1:]))
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logFile, err := logger.Init(cfg.LogLevel, cfg.LogFile, logger.IsService())
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger.Debug().Msg("Config loaded")

	if err := pid.Write(cfg.PIDFile); err != nil {
		fatal(err, "Failed to write PID file")
	}

	logger.Info().Str("version", version).Msg("Program 'WellStatus' started")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	err = newApp(cfg).run(ctx)
	removePID()
	if errors.HasCode(err, store.ErrConnect) {
		fatal(err, "Initial database connection failure on startup, exiting...")
	}
	if err != nil {
		fatal(err, "Failed to start sampling")
	}

	logger.Info().Msg("Exiting...")
}

// app holds the startup wiring. The open functions are replaced in tests.
type app struct {
	cfg        *config.Config
	openSource func() sensor.Reader
	openStore  func(ctx context.Context) (store.Repository, error)
	log        logger.Logger
}

func newApp(cfg *config.Config) *app {
	a := &app{cfg: cfg, log: logger.Default()}
	a.openSource = a.openSerial
	a.openStore = func(ctx context.Context) (store.Repository, error) {
		return store.Open(ctx, a.cfg.Store, a.log)
	}

	return a
}

// run opens the sensor and the store and samples until ctx ends. It
// returns an error only when sampling could not start; no cycle runs in
// that case.
func (a *app) run(ctx context.Context) error {
	source := a.openSource()

	repo, err := a.openStore(ctx)
	if err != nil {
		_ = source.Close()
		return err
	}

	gateway, err := notify.NewGateway(a.cfg.Notify, a.log)
	if err != nil {
		a.log.Error().Err(err).Msg("Notifications disabled")
		gateway = notify.NewGatewayWithSender(nil, a.cfg.Notify, a.log)
	}

	m, err := monitor.New(monitor.Config{
		Interval:      a.cfg.SampleInterval(),
		SnapshotEvery: a.cfg.SnapshotEvery,
	}, source, repo, gateway, monitor.WithLogger(a.log))
	if err != nil {
		_ = source.Close()
		_ = repo.Close()
		return err
	}

	if err := m.Run(ctx); err != nil {
		a.log.Error().Err(err).Msg("error in main loop")
	}

	a.log.Info().Int64("reconnects", repo.Reconnects()).Msg("Sampling stopped")

	return nil
}

// openSerial opens the serial device. Without a device the loop still runs
// on placeholder frames.
func (a *app) openSerial() sensor.Reader {
	serial := a.cfg.Serial

	source, err := sensor.OpenSerial(serial.Device, serial.PortOptions, serial.ReadTimeout)
	if err != nil {
		a.log.Error().
			Err(err).
			Str("device", serial.Device).
			Msg("Could not connect to serial device: please ensure that the sensor is connected")
		return sensor.Disconnected()
	}

	a.log.Info().Str("device", serial.Device).Int("baud_rate", serial.BaudRate).Msg("Serial device opened")
	return source
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func removePID() {
	if err := pid.Remove(cfg.PIDFile); err != nil {
		logger.Error().Err(err).Msg("failed to remove PID file")
	}
}

func fatal(err error, msg string) {
	var appErr errors.Error
	if errors.As(err, &appErr) {
		logger.FatalWithCode(appErr).Msg(msg)
	}
	logger.Fatal().Err(err).Msg(msg)
}
