package otp

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/votehubph/backend/internal/logger"
)

type Sender interface {
	Send(ctx context.Context, to, code string) error
}

func message(code string) string {
	return fmt.Sprintf("Your VoteHub PH verification code is %s. It expires in 10 minutes.", code)
}

// TwilioSender delivers codes by SMS.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	c := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{client: c, from: from}
}

func (s *TwilioSender) Send(_ context.Context, to, code string) error {
	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(message(code))
	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio: %w", err)
	}
	if resp.Sid != nil {
		logger.L().Debug("otp_sms_sent", "sid", *resp.Sid)
	}
	return nil
}

// LogSender writes codes to the log. Used when no SMS provider is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, to, code string) error {
	logger.L().Info("otp_code", "to", to, "code", code)
	return nil
}
