package notify

import (
	"context"

	"codeberg.org/mutker/wellstatus/internal/errors"
	"codeberg.org/mutker/wellstatus/internal/logger"
)

// Sender delivers one alert over an external channel and returns the
// channel's identifier for it.
type Sender interface {
	Send(ctx context.Context, message string) (id string, err error)
}

// Gateway is the process's single outbound alert path. Delivery failures
// are logged and never returned: an alert must not stop the caller.
type Gateway struct {
	sender Sender
	cfg    Config
	log    logger.Logger
}

// NewGateway builds the Sender selected by cfg.Backend.
func NewGateway(cfg Config, log logger.Logger) (*Gateway, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	var sender Sender
	switch cfg.Backend {
	case BackendTwilio:
		sender = NewTwilio(cfg.Twilio)
	case BackendMQTT:
		sender = NewMQTT(cfg.MQTT)
	default:
		log.Debug().Msg("Notifications disabled, using no-op sender")
	}

	return NewGatewayWithSender(sender, cfg, log), nil
}

// NewGatewayWithSender wraps an existing Sender. A nil sender disables
// delivery.
func NewGatewayWithSender(sender Sender, cfg Config, log logger.Logger) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Gateway{
		sender: sender,
		cfg:    cfg,
		log:    log,
	}
}

// Notify sends message once. It reports whether the channel accepted it.
func (g *Gateway) Notify(ctx context.Context, message string) bool {
	if g.sender == nil {
		g.log.Info().Str("message", message).Msg("Notification skipped, no backend configured")
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	id, err := g.sender.Send(ctx, message)
	if err != nil {
		g.log.Error().
			Err(err).
			Str("backend", g.cfg.Backend).
			Msg("Failed to send notification")
		return false
	}

	g.log.Info().
		Str("backend", g.cfg.Backend).
		Str("id", id).
		Msg("Notification sent")

	return true
}
