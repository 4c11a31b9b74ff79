package notify

import (
	"context"
	stderrors "errors"
	"net"
	"strings"
	"testing"
	"time"

	"codeberg.org/mutker/wellstatus/internal/errors"
	"codeberg.org/mutker/wellstatus/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeSender struct {
	messages []string
	id       string
	err      error
	block    bool
}

func (f *fakeSender) Send(ctx context.Context, message string) (string, error) {
	f.messages = append(f.messages, message)
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.id, f.err
}

type fakeCreator struct {
	params *twilioApi.CreateMessageParams
	sid    *string
	err    error
}

func (f *fakeCreator) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return &twilioApi.ApiV2010Message{Sid: f.sid}, nil
}

func TestGatewayDelivers(t *testing.T) {
	sender := &fakeSender{id: "SM123"}
	g := NewGatewayWithSender(sender, Config{Backend: "fake"}, logger.Nop())

	assert.True(t, g.Notify(context.Background(), "Initial pressure:17."))
	assert.Equal(t, []string{"Initial pressure:17."}, sender.messages)
}

func TestGatewaySwallowsFailures(t *testing.T) {
	sender := &fakeSender{err: stderrors.New("carrier unavailable")}
	g := NewGatewayWithSender(sender, Config{Backend: "fake"}, logger.Nop())

	assert.NotPanics(t, func() {
		assert.False(t, g.Notify(context.Background(), "hello"))
	})
	assert.Len(t, sender.messages, 1, "failures are not retried")
}

func TestGatewayBoundsSlowSenders(t *testing.T) {
	sender := &fakeSender{block: true}
	g := NewGatewayWithSender(sender, Config{Backend: "fake", Timeout: 20 * time.Millisecond}, logger.Nop())

	start := time.Now()
	assert.False(t, g.Notify(context.Background(), "hello"))
	assert.Less(t, time.Since(start), time.Second)
}

func TestGatewayWithoutBackend(t *testing.T) {
	g, err := NewGateway(Config{Backend: BackendNone}, logger.Nop())
	require.NoError(t, err)

	assert.False(t, g.Notify(context.Background(), "hello"))
}

func TestNewGatewaySelectsBackend(t *testing.T) {
	g, err := NewGateway(Config{
		Backend: BackendTwilio,
		Twilio:  TwilioConfig{AccountSID: "AC1", AuthToken: "token", From: "+15550001", To: "+15550002"},
	}, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &Twilio{}, g.sender)

	g, err = NewGateway(Config{
		Backend: BackendMQTT,
		MQTT:    MQTTConfig{Broker: "tcp://broker:1883", Topic: "well/alerts"},
	}, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &MQTT{}, g.sender)

	_, err = NewGateway(Config{Backend: "pager"}, logger.Nop())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrUnknownBackend))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		code errors.ErrorCode
	}{
		{"none", Config{Backend: BackendNone}, ""},
		{"empty", Config{}, ""},
		{"twilio missing token", Config{Backend: BackendTwilio, Twilio: TwilioConfig{AccountSID: "AC1", From: "a", To: "b"}}, ErrMissingCredentials},
		{"mqtt missing topic", Config{Backend: BackendMQTT, MQTT: MQTTConfig{Broker: "tcp://x:1883"}}, ErrMissingCredentials},
		{"mqtt bad qos", Config{Backend: BackendMQTT, MQTT: MQTTConfig{Broker: "tcp://x:1883", Topic: "t", QoS: 3}}, ErrInvalidConfig},
		{"unknown", Config{Backend: "email"}, ErrUnknownBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code))
		})
	}
}

func TestTwilioSend(t *testing.T) {
	sid := "SM0123456789"
	api := &fakeCreator{sid: &sid}
	sender := &Twilio{api: api, from: "+15550001", to: "+15550002"}

	id, err := sender.Send(context.Background(), "Well status program activated")
	require.NoError(t, err)
	assert.Equal(t, sid, id)

	require.NotNil(t, api.params)
	assert.Equal(t, "+15550001", *api.params.From)
	assert.Equal(t, "+15550002", *api.params.To)
	assert.Equal(t, "Well status program activated", *api.params.Body)
}

func TestTwilioSendErrors(t *testing.T) {
	sender := &Twilio{api: &fakeCreator{err: stderrors.New("401 unauthorized")}}
	_, err := sender.Send(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrSendFailed))

	sender = &Twilio{api: &fakeCreator{}}
	_, err = sender.Send(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrRejected))
}

func TestNewClientID(t *testing.T) {
	id := NewClientID()

	assert.Len(t, id, maxClientIDLength)
	assert.True(t, strings.HasPrefix(id, clientIDPrefix))
	assert.NotEqual(t, id, NewClientID())
}

func TestBrokerAddress(t *testing.T) {
	tests := map[string]string{
		"tcp://broker.local:1884": "broker.local:1884",
		"mqtt://broker.local":     "broker.local:1883",
		"10.0.0.5:1883":           "10.0.0.5:1883",
	}

	for in, want := range tests {
		got, err := brokerAddress(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestMQTTSendUnreachable(t *testing.T) {
	sender := NewMQTT(MQTTConfig{Broker: "tcp://broker.invalid:1883", Topic: "well/alerts"})
	sender.dial = func(context.Context, string, string) (net.Conn, error) {
		return nil, stderrors.New("connection refused")
	}

	_, err := sender.Send(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrSendFailed))
}
