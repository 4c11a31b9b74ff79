package notify

import (
	"context"

	"codeberg.org/mutker/wellstatus/internal/errors"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// messageCreator is the part of the Twilio REST API the gateway uses.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// Twilio delivers alerts as SMS.
type Twilio struct {
	api  messageCreator
	from string
	to   string
}

func NewTwilio(cfg TwilioConfig) *Twilio {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &Twilio{
		api:  client.Api,
		from: cfg.From,
		to:   cfg.To,
	}
}

type createResult struct {
	msg *twilioApi.ApiV2010Message
	err error
}

// Send creates the message and returns its SID. The Twilio client has no
// context support, so the call is abandoned (not cancelled) on timeout.
func (t *Twilio) Send(ctx context.Context, message string) (string, error) {
	errFactory := errors.New()

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(t.to)
	params.SetFrom(t.from)
	params.SetBody(message)

	done := make(chan createResult, 1)
	go func() {
		msg, err := t.api.CreateMessage(params)
		done <- createResult{msg, err}
	}()

	select {
	case <-ctx.Done():
		return "", errFactory.Wrap(ErrTimeout, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return "", errFactory.Wrap(ErrSendFailed, res.err)
		}
		if res.msg == nil || res.msg.Sid == nil {
			return "", errFactory.WithMessage(ErrRejected, "twilio returned no message sid")
		}
		return *res.msg.Sid, nil
	}
}
