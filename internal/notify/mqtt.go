package notify

import (
	"context"
	"net"
	"net/url"
	"strings"

	"codeberg.org/mutker/wellstatus/internal/errors"
	"github.com/eclipse/paho.golang/paho"
	"github.com/google/uuid"
)

const (
	clientIDPrefix    = "wellstatus-"
	maxClientIDLength = 23
	keepAliveSeconds  = 30
)

// MQTT publishes alerts to a broker topic. Each alert uses its own short
// session; the daemon sends a single alert per run.
type MQTT struct {
	broker   string
	topic    string
	clientID string
	qos      byte
	dial     func(ctx context.Context, network, address string) (net.Conn, error)
}

func NewMQTT(cfg MQTTConfig) *MQTT {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = NewClientID()
	}

	var d net.Dialer
	return &MQTT{
		broker:   cfg.Broker,
		topic:    cfg.Topic,
		clientID: clientID,
		qos:      cfg.QoS,
		dial:     d.DialContext,
	}
}

// NewClientID returns a client identifier that fits the 23 byte limit MQTT
// brokers are required to accept.
func NewClientID() string {
	id := clientIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
	return id[:maxClientIDLength]
}

// brokerAddress accepts "tcp://host:port", "mqtt://host:port" or
// "host:port".
func brokerAddress(broker string) (string, error) {
	if !strings.Contains(broker, "://") {
		return broker, nil
	}

	u, err := url.Parse(broker)
	if err != nil {
		return "", err
	}
	if u.Port() == "" {
		return net.JoinHostPort(u.Hostname(), "1883"), nil
	}

	return u.Host, nil
}

// Send publishes message and returns the correlation id attached to it.
func (m *MQTT) Send(ctx context.Context, message string) (string, error) {
	errFactory := errors.New()

	addr, err := brokerAddress(m.broker)
	if err != nil {
		return "", errFactory.Wrap(ErrInvalidConfig, err)
	}

	conn, err := m.dial(ctx, "tcp", addr)
	if err != nil {
		return "", errFactory.Wrap(ErrSendFailed, err)
	}

	client := paho.NewClient(paho.ClientConfig{
		ClientID: m.clientID,
		Conn:     conn,
	})

	ack, err := client.Connect(ctx, &paho.Connect{
		ClientID:   m.clientID,
		KeepAlive:  keepAliveSeconds,
		CleanStart: true,
	})
	if err != nil {
		conn.Close()
		return "", errFactory.Wrap(ErrSendFailed, err)
	}
	if ack.ReasonCode != 0 {
		conn.Close()
		reason := ""
		if ack.Properties != nil {
			reason = ack.Properties.ReasonString
		}
		return "", errFactory.WithData(ErrRejected, struct {
			ReasonCode byte
			Reason     string
		}{
			ReasonCode: ack.ReasonCode,
			Reason:     reason,
		})
	}
	defer func() {
		_ = client.Disconnect(&paho.Disconnect{ReasonCode: 0})
	}()

	id := uuid.NewString()
	if _, err := client.Publish(ctx, &paho.Publish{
		Topic:   m.topic,
		QoS:     m.qos,
		Payload: []byte(message),
		Properties: &paho.PublishProperties{
			ContentType:     "text/plain",
			CorrelationData: []byte(id),
		},
	}); err != nil {
		return "", errFactory.Wrap(ErrSendFailed, err)
	}

	return id, nil
}
