package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/welzyne/courier-system/internal/core/domain"
	"github.com/welzyne/courier-system/internal/core/ports"
)

func TestEmailJSSender_SendEmail(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Write([]byte("OK"))
	}))
	defer srv.Close()

	s := NewEmailJSSender(Config{Endpoint: srv.URL, ServiceID: "svc", TemplateID: "tpl", PublicKey: "pub"})
	err := s.SendEmail(context.Background(), ports.EmailMessage{
		To:     "jane@example.com",
		Params: map[string]any{"parcelNumber": "W-1"},
	})
	if err != nil {
		t.Fatalf("SendEmail returned error: %v", err)
	}
	if got.ServiceID != "svc" || got.TemplateID != "tpl" || got.UserID != "pub" {
		t.Fatalf("unexpected request: %+v", got)
	}
	if got.TemplateParams["parcelNumber"] != "W-1" || got.TemplateParams["to_email"] != "jane@example.com" {
		t.Fatalf("unexpected params: %+v", got.TemplateParams)
	}
}

func TestEmailJSSender_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "The template ID is invalid", http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewEmailJSSender(Config{Endpoint: srv.URL})
	err := s.SendEmail(context.Background(), ports.EmailMessage{To: "x@example.com"})

	var te *domain.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if te.Code != http.StatusBadRequest || te.Message != "The template ID is invalid" {
		t.Fatalf("unexpected error: %+v", te)
	}
}
