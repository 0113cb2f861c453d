package sms

import (
	"context"
	"errors"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/welzyne/courier-system/internal/core/domain"
)

const provider = "twilio"

// Twilio error codes with a customer-facing explanation.
const (
	CodeInvalidNumber   = 21211
	CodeNotSMSCapable   = 21614
	msgInvalidNumber    = "Invalid phone number"
	msgNotSMSCapable    = "Phone number not SMS capable"
	msgGenericSMSFailed = "Failed to send SMS"
	msgNoMessageID      = "SMS accepted without a message id"
)

// Config holds the Twilio account credentials and sending number.
type Config struct {
	AccountSID     string
	AuthToken      string
	From           string
	StatusCallback string
}

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// TwilioSender implements ports.SMSSender over the Twilio Messages API.
type TwilioSender struct {
	api            messageCreator
	from           string
	statusCallback string
}

func NewTwilioSender(cfg Config) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioSender{api: client.Api, from: cfg.From, statusCallback: cfg.StatusCallback}
}

// SendSMS sends body to an E.164 number and returns the message SID.
func (s *TwilioSender) SendSMS(ctx context.Context, to, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)
	if s.statusCallback != "" {
		params.SetStatusCallback(s.statusCallback)
	}

	msg, err := s.api.CreateMessage(params)
	if err != nil {
		return "", toTransportError(err)
	}
	if msg == nil || msg.Sid == nil {
		return "", &domain.TransportError{Provider: provider, Message: msgNoMessageID}
	}
	return *msg.Sid, nil
}

func toTransportError(err error) *domain.TransportError {
	te := &domain.TransportError{Provider: provider, Message: msgGenericSMSFailed, Err: err}
	var restErr *twilioclient.TwilioRestError
	if errors.As(err, &restErr) {
		te.Code = restErr.Code
		switch restErr.Code {
		case CodeInvalidNumber:
			te.Message = msgInvalidNumber
		case CodeNotSMSCapable:
			te.Message = msgNotSMSCapable
		}
	}
	return te
}
