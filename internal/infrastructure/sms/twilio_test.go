package sms

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	twilioclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/welzyne/courier-system/internal/core/domain"
)

type stubCreator struct {
	params *openapi.CreateMessageParams
	err    error
	noSid  bool
}

func (s *stubCreator) CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	s.params = params
	if s.err != nil {
		return nil, s.err
	}
	if s.noSid {
		return &openapi.ApiV2010Message{}, nil
	}
	sid := "SM123"
	return &openapi.ApiV2010Message{Sid: &sid}, nil
}

func TestTwilioSender_SendSMS(t *testing.T) {
	api := &stubCreator{}
	s := &TwilioSender{api: api, from: "+15550001111"}

	id, err := s.SendSMS(context.Background(), "+254712345678", "hello")
	if err != nil {
		t.Fatalf("SendSMS returned error: %v", err)
	}
	if id != "SM123" {
		t.Fatalf("unexpected sid %q", id)
	}
	if *api.params.To != "+254712345678" || *api.params.From != "+15550001111" || *api.params.Body != "hello" {
		t.Fatalf("unexpected params: %+v", api.params)
	}
}

func TestTwilioSender_ErrorCodes(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"invalid number", &twilioclient.TwilioRestError{Code: CodeInvalidNumber, Message: "The 'To' number is not valid"}, CodeInvalidNumber, msgInvalidNumber},
		{"not capable", &twilioclient.TwilioRestError{Code: CodeNotSMSCapable}, CodeNotSMSCapable, msgNotSMSCapable},
		{"other rest error", &twilioclient.TwilioRestError{Code: 20003}, 20003, msgGenericSMSFailed},
		{"network", errors.New("dial tcp: timeout"), 0, msgGenericSMSFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := &TwilioSender{api: &stubCreator{err: tc.err}, from: "+1"}
			_, err := s.SendSMS(context.Background(), "+254700000000", "x")

			var te *domain.TransportError
			if !errors.As(err, &te) {
				t.Fatalf("expected TransportError, got %v", err)
			}
			if te.Code != tc.code || te.Message != tc.message {
				t.Fatalf("got code=%d message=%q", te.Code, te.Message)
			}
		})
	}
}

func TestTwilioSender_MissingSid(t *testing.T) {
	s := &TwilioSender{api: &stubCreator{noSid: true}, from: "+1"}

	id, err := s.SendSMS(context.Background(), "+254712345678", "hello")
	if id != "" {
		t.Fatalf("expected no message id, got %q", id)
	}
	var te *domain.TransportError
	if !errors.As(err, &te) || te.Message != msgNoMessageID {
		t.Fatalf("expected TransportError %q, got %v", msgNoMessageID, err)
	}
}

func TestDisabledSender(t *testing.T) {
	s := NewDisabledSender(zerolog.Nop())
	id, err := s.SendSMS(context.Background(), "+254712345678", "hello")
	if id != "" {
		t.Fatalf("expected no message id, got %q", id)
	}
	var te *domain.TransportError
	if !errors.As(err, &te) || te.Provider != "sms" {
		t.Fatalf("expected sms transport error, got %v", err)
	}
}
