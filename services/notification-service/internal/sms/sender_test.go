package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebhookSenderSend(t *testing.T) {
	var got map[string]string
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewWebhookSender(srv.URL, "secret-token")
	if err := sender.Send(context.Background(), "+15550100", "your chair is ready"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if got["to"] != "+15550100" {
		t.Fatalf("expected recipient +15550100, got %q", got["to"])
	}
	if got["body"] != "your chair is ready" {
		t.Fatalf("unexpected body %q", got["body"])
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("expected bearer token header, got %q", gotAuth)
	}
}

func TestWebhookSenderRejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sender := NewWebhookSender(srv.URL, "")
	if err := sender.Send(context.Background(), "+15550100", "hello"); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestWebhookSenderRequiresURL(t *testing.T) {
	sender := NewWebhookSender("", "")
	if err := sender.Send(context.Background(), "+15550100", "hello"); err == nil {
		t.Fatal("expected error when url is not configured")
	}
}
