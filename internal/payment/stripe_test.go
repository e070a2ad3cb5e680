package payment

import (
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v79/webhook"
)

const testWebhookSecret = "whsec_test"

func signedHeader(t *testing.T, payload []byte, secret string) string {
	t.Helper()
	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig))
}

func TestWebhookVerifierSucceededIntent(t *testing.T) {
	v := NewWebhookVerifier(testWebhookSecret)
	payload := []byte(`{"id":"evt_1","object":"event","api_version":"2024-06-20","type":"payment_intent.succeeded","data":{"object":{"id":"pi_123","object":"payment_intent"}}}`)

	intentID, ok, err := v.SucceededIntent(payload, signedHeader(t, payload, testWebhookSecret))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !ok {
		t.Fatal("expected succeeded intent")
	}
	if intentID != "pi_123" {
		t.Fatalf("expected pi_123, got %q", intentID)
	}
}

func TestWebhookVerifierIgnoresOtherEvents(t *testing.T) {
	v := NewWebhookVerifier(testWebhookSecret)
	payload := []byte(`{"id":"evt_1","object":"event","api_version":"2024-06-20","type":"payment_intent.created","data":{"object":{"id":"pi_123","object":"payment_intent"}}}`)

	intentID, ok, err := v.SucceededIntent(payload, signedHeader(t, payload, testWebhookSecret))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ok || intentID != "" {
		t.Fatalf("expected ignored event, got %q (ok=%v)", intentID, ok)
	}
}

func TestWebhookVerifierRejectsBadSignature(t *testing.T) {
	v := NewWebhookVerifier(testWebhookSecret)
	payload := []byte(`{"id":"evt_1","object":"event","type":"payment_intent.succeeded"}`)

	if _, _, err := v.SucceededIntent(payload, signedHeader(t, payload, "whsec_other")); err == nil {
		t.Fatal("expected signature error")
	}
	if _, _, err := v.SucceededIntent(payload, "t=1,v1=deadbeef"); err == nil {
		t.Fatal("expected signature error for stale header")
	}
}
