package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/wellstatus/internal/config"
	"codeberg.org/mutker/wellstatus/internal/errors"
	"codeberg.org/mutker/wellstatus/internal/notify"
	"codeberg.org/mutker/wellstatus/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "wellstatus.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	configPath := writeConfig(t, `
interval = 2
snapshot_every = 10
log_level = "debug"
log_file = "/var/log/wellstatus.log"

[serial]
device = "/dev/ttyUSB1"
baud_rate = 19200
read_timeout = "3s"

[store]
driver = "sqlite3"
path = "/tmp/wellstatus.db"

[notify]
backend = "mqtt"
timeout = "4s"

[notify.mqtt]
broker = "tcp://broker.local:1883"
topic = "well/alerts"
qos = 0
`)

	t.Setenv("WELLSTATUS_CONFIG", configPath)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Interval)
	assert.Equal(t, 2*time.Second, cfg.SampleInterval())
	assert.Equal(t, 10, cfg.SnapshotEvery)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/var/log/wellstatus.log", cfg.LogFile)

	assert.Equal(t, "/dev/ttyUSB1", cfg.Serial.Device)
	assert.Equal(t, 19200, cfg.Serial.BaudRate)
	assert.Equal(t, 8, cfg.Serial.DataBits)
	assert.Equal(t, 3*time.Second, cfg.Serial.ReadTimeout)

	assert.Equal(t, store.DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/tmp/wellstatus.db", cfg.Store.Path)

	assert.Equal(t, notify.BackendMQTT, cfg.Notify.Backend)
	assert.Equal(t, 4*time.Second, cfg.Notify.Timeout)
	assert.Equal(t, "well/alerts", cfg.Notify.MQTT.Topic)
	assert.Equal(t, byte(0), cfg.Notify.MQTT.QoS)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WELLSTATUS_CONFIG", "")

	cfg, err := config.Load()
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, config.DefaultInterval, cfg.Interval)
	assert.Equal(t, config.DefaultSnapshotEvery, cfg.SnapshotEvery)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, config.DefaultDevice, cfg.Serial.Device)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)
	assert.Equal(t, "N", cfg.Serial.Parity)
	assert.Equal(t, store.DefaultConfig(), cfg.Store)
	assert.Equal(t, notify.BackendNone, cfg.Notify.Backend)
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	configPath := writeConfig(t, `
This is not a valid TOML file
`)

	_, err := config.Load(config.WithConfigFile(configPath))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to read config file")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := config.Load(config.WithConfigFile(filepath.Join(t.TempDir(), "absent.toml")))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestInvalidLogLevel(t *testing.T) {
	configPath := writeConfig(t, `
log_level = "invalid"
`)

	_, err := config.Load(config.WithConfigFile(configPath))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidLogLevel))
}

func TestInvalidSections(t *testing.T) {
	tests := map[string]string{
		"interval":   "interval = 0",
		"snapshot":   "snapshot_every = -1",
		"parity":     "[serial]\nparity = \"mark\"",
		"driver":     "[store]\ndriver = \"postgres\"",
		"notify":     "[notify]\nbackend = \"twilio\"",
		"device":     "[serial]\ndevice = \"\"",
		"data bits":  "[serial]\ndata_bits = 9",
		"mqtt topic": "[notify]\nbackend = \"mqtt\"\n[notify.mqtt]\ntopic = \"\"",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(config.WithConfigFile(writeConfig(t, content)))
			assert.Error(t, err)
		})
	}
}

func TestLogLevelFlag(t *testing.T) {
	t.Setenv("WELLSTATUS_CONFIG", "")

	cfg, err := config.Load(config.WithArgs([]string{"--log-level", "debug"}))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel to be set by flag")
}

func TestPrecedence(t *testing.T) {
	configPath := writeConfig(t, `
interval = 7

[serial]
device = "/dev/from-file"

[store]
password = "from-file"
`)

	t.Setenv("WELLSTATUS_STORE_PASSWORD", "from-env")
	t.Setenv("WELLSTATUS_SERIAL_DEVICE", "/dev/from-env")

	cfg, err := config.Load(
		config.WithConfigFile(configPath),
		config.WithArgs([]string{"--device", "/dev/from-flag"}),
	)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Interval, "file beats defaults")
	assert.Equal(t, "from-env", cfg.Store.Password, "env beats file")
	assert.Equal(t, "/dev/from-flag", cfg.Serial.Device, "flags beat env")
}

func TestConfigFlag(t *testing.T) {
	configPath := writeConfig(t, `snapshot_every = 60`)

	cfg, err := config.Load(config.WithArgs([]string{"--config", configPath}))
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.SnapshotEvery)
}

func TestUnknownFlag(t *testing.T) {
	_, err := config.Load(config.WithArgs([]string{"--fanspeed", "80"}))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrBindFlags))
}

func TestEnvPrefix(t *testing.T) {
	t.Setenv("WELLSTATUS_CONFIG", "")
	t.Setenv("WELLTEST_INTERVAL", "9")

	cfg, err := config.Load(config.WithEnvPrefix("WELLTEST"))
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Interval)
}
