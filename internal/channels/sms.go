package channels

import (
	"context"
	"fmt"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/SAP-F-2025/notification-service/internal/models"
)

// maxSMSLength is the Twilio limit for a single message body.
const maxSMSLength = 1600

// MessageCreator is the part of the Twilio API used to send SMS.
type MessageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// NewTwilioCreator builds a Twilio REST client from account credentials.
func NewTwilioCreator(accountSID, authToken string) MessageCreator {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return client.Api
}

// SMSSender sends text messages through Twilio.
type SMSSender struct {
	api     MessageCreator
	from    string
	timeout time.Duration
}

func NewSMSSender(api MessageCreator, from string, timeout time.Duration) *SMSSender {
	return &SMSSender{api: api, from: from, timeout: timeout}
}

func (s *SMSSender) Channel() models.Channel {
	return models.ChannelSMS
}

func (s *SMSSender) Send(ctx context.Context, to Recipient, msg Message) (Outcome, error) {
	if s.api == nil || s.from == "" {
		return Skipped, ErrNotConfigured
	}
	if to.Phone == "" {
		return Skipped, nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to.Phone)
	params.SetFrom(s.from)
	params.SetBody(smsBody(msg))

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	// The Twilio client does not take a context, so the call is raced
	// against ctx instead.
	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				errCh <- fmt.Errorf("panic: %v", r)
			}
		}()
		_, err := s.api.CreateMessage(params)
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return Skipped, fmt.Errorf("twilio: %w", err)
		}
		return Delivered, nil
	case <-ctx.Done():
		return Skipped, fmt.Errorf("twilio: %w", ctx.Err())
	}
}

func smsBody(msg Message) string {
	body := msg.Body
	if msg.Subject != "" {
		body = msg.Subject + ": " + msg.Body
	}
	runes := []rune(body)
	if len(runes) > maxSMSLength {
		body = string(runes[:maxSMSLength])
	}
	return body
}
