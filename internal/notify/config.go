package notify

import (
	"time"

	"codeberg.org/mutker/wellstatus/internal/errors"
)

const (
	BackendNone   = "none"
	BackendTwilio = "twilio"
	BackendMQTT   = "mqtt"

	defaultTimeout   = 10 * time.Second
	defaultMQTTTopic = "wellstatus/alerts"
)

type Config struct {
	Backend string        `mapstructure:"backend"`
	Timeout time.Duration `mapstructure:"timeout"`
	Twilio  TwilioConfig  `mapstructure:"twilio"`
	MQTT    MQTTConfig    `mapstructure:"mqtt"`
}

// TwilioConfig holds the SMS account and the two phone numbers.
type TwilioConfig struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	From       string `mapstructure:"from"`
	To         string `mapstructure:"to"`
}

type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"client_id"`
	QoS      byte   `mapstructure:"qos"`
}

func DefaultConfig() Config {
	return Config{
		Backend: BackendNone,
		Timeout: defaultTimeout,
		MQTT: MQTTConfig{
			Broker: "tcp://localhost:1883",
			Topic:  defaultMQTTTopic,
			QoS:    1,
		},
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	switch c.Backend {
	case BackendNone, "":
		return nil
	case BackendTwilio:
		t := c.Twilio
		if t.AccountSID == "" || t.AuthToken == "" || t.From == "" || t.To == "" {
			return errFactory.WithMessage(ErrMissingCredentials,
				"twilio notifications need account_sid, auth_token, from and to")
		}
	case BackendMQTT:
		if c.MQTT.Broker == "" || c.MQTT.Topic == "" {
			return errFactory.WithMessage(ErrMissingCredentials, "mqtt notifications need broker and topic")
		}
		if c.MQTT.QoS > 2 {
			return errFactory.WithData(ErrInvalidConfig, struct{ QoS byte }{c.MQTT.QoS})
		}
	default:
		return errFactory.WithData(ErrUnknownBackend, c.Backend)
	}

	return nil
}
