package config

import (
	"os"
	"strings"
	"time"

	"codeberg.org/mutker/wellstatus/internal/errors"
	"codeberg.org/mutker/wellstatus/internal/notify"
	"codeberg.org/mutker/wellstatus/internal/sensor"
	"codeberg.org/mutker/wellstatus/internal/store"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultInterval      = 5
	DefaultSnapshotEvery = 30
	DefaultLogLevel      = string(LogLevelInfo)
	DefaultDevice        = "/dev/ttyACM0"
	DefaultReadTimeout   = 10 * time.Second
	DefaultPIDFile       = "/run/wellstatus.pid"

	defaultEnvPrefix  = "WELLSTATUS"
	defaultConfigName = "wellstatus"
	defaultConfigDir  = "/etc"
)

// Config is loaded once at startup and never modified afterwards.
type Config struct {
	Interval      int           `mapstructure:"interval"`
	SnapshotEvery int           `mapstructure:"snapshot_every"`
	LogLevel      string        `mapstructure:"log_level"`
	LogFile       string        `mapstructure:"log_file"`
	PIDFile       string        `mapstructure:"pid_file"`
	Serial        SerialConfig  `mapstructure:"serial"`
	Store         store.Config  `mapstructure:"store"`
	Notify        notify.Config `mapstructure:"notify"`
}

type SerialConfig struct {
	Device             string        `mapstructure:"device"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	sensor.PortOptions `mapstructure:",squash"`
}

// SampleInterval returns the pause between sampling cycles.
func (c *Config) SampleInterval() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

func setDefaults(v *viper.Viper) {
	storeDefaults := store.DefaultConfig()
	notifyDefaults := notify.DefaultConfig()

	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("snapshot_every", DefaultSnapshotEvery)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_file", "")
	v.SetDefault("pid_file", DefaultPIDFile)

	v.SetDefault("serial.device", DefaultDevice)
	v.SetDefault("serial.read_timeout", DefaultReadTimeout)
	v.SetDefault("serial.baud_rate", 9600)
	v.SetDefault("serial.data_bits", 8)
	v.SetDefault("serial.stop_bits", 1)
	v.SetDefault("serial.parity", "N")

	v.SetDefault("store.driver", storeDefaults.Driver)
	v.SetDefault("store.address", storeDefaults.Address)
	v.SetDefault("store.username", "")
	v.SetDefault("store.password", "")
	v.SetDefault("store.database", storeDefaults.Database)
	v.SetDefault("store.path", storeDefaults.Path)
	v.SetDefault("store.timeout", storeDefaults.Timeout)

	v.SetDefault("notify.backend", notifyDefaults.Backend)
	v.SetDefault("notify.timeout", notifyDefaults.Timeout)
	v.SetDefault("notify.twilio.account_sid", "")
	v.SetDefault("notify.twilio.auth_token", "")
	v.SetDefault("notify.twilio.from", "")
	v.SetDefault("notify.twilio.to", "")
	v.SetDefault("notify.mqtt.broker", notifyDefaults.MQTT.Broker)
	v.SetDefault("notify.mqtt.topic", notifyDefaults.MQTT.Topic)
	v.SetDefault("notify.mqtt.client_id", "")
	v.SetDefault("notify.mqtt.qos", notifyDefaults.MQTT.QoS)
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("wellstatus", pflag.ContinueOnError)

	fs.String("config", "", "Path to the configuration file")
	fs.Int("interval", DefaultInterval, "Seconds between sampling cycles")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	fs.String("log-file", "", "Also write logs to this file")
	fs.String("pid-file", DefaultPIDFile, "PID file guarding against a second instance")
	fs.String("device", DefaultDevice, "Serial device of the sensor")
	fs.Int("baud-rate", 9600, "Serial baud rate")
	fs.String("store-driver", store.DriverMySQL, "Database driver (mysql, sqlite3)")
	fs.String("notify", notify.BackendNone, "Notification backend (none, twilio, mqtt)")

	return fs
}

var flagKeys = map[string]string{
	"interval":     "interval",
	"log-level":    "log_level",
	"log-file":     "log_file",
	"pid-file":     "pid_file",
	"device":       "serial.device",
	"baud-rate":    "serial.baud_rate",
	"store-driver": "store.driver",
	"notify":       "notify.backend",
}

// Load reads configuration from defaults, the config file, the environment
// and command line flags, in increasing order of precedence.
func Load(opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := options{envPrefix: defaultEnvPrefix}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidArgument, err)
		}
	}

	fs := newFlagSet()
	if err := fs.Parse(o.args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	setDefaults(v)

	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v, fs, o); err != nil {
		return nil, err
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrReadConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func readConfigFile(v *viper.Viper, fs *pflag.FlagSet, o options) error {
	errFactory := errors.New()

	path := o.configPath
	if path == "" {
		path, _ = fs.GetString("config")
	}
	if path == "" {
		path = os.Getenv(o.envPrefix + "_CONFIG")
	}

	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(defaultConfigName)
		v.AddConfigPath(defaultConfigDir)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	return nil
}

// Validate checks every section of the configuration.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}
	if c.SnapshotEvery <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, struct{ SnapshotEvery int }{c.SnapshotEvery})
	}
	if !LogLevel(strings.ToLower(c.LogLevel)).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}
	if c.Serial.Device == "" {
		return errFactory.WithMessage(errors.ErrMissingConfig, "serial device is not set")
	}
	if _, err := c.Serial.PortOptions.Normalize(); err != nil {
		return errFactory.Wrap(errors.ErrInvalidConfig, err)
	}
	if err := c.Store.Validate(); err != nil {
		return errFactory.Wrap(errors.ErrInvalidConfig, err)
	}
	if err := c.Notify.Validate(); err != nil {
		return errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	return nil
}
