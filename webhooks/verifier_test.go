package webhooks

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-reship/core"
)

func TestSignedHeaderVerifier(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"id":"evt_1"}`)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	verifier := SignedHeaderVerifier{
		Secret: secret,
		Now:    func() time.Time { return now },
	}

	req := core.InboundRequest{
		Headers: map[string]string{SignatureHeader: SignPayload(secret, body, now)},
		Body:    body,
	}
	if err := verifier.Verify(context.Background(), req); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
}

func TestSignedHeaderVerifierHeaderLookupIsCaseInsensitive(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{}`)
	now := time.Now().UTC()
	verifier := SignedHeaderVerifier{Secret: secret, Now: func() time.Time { return now }}

	req := core.InboundRequest{
		Headers: map[string]string{"reship-payment-signature": SignPayload(secret, body, now)},
		Body:    body,
	}
	if err := verifier.Verify(context.Background(), req); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
}

func TestSignedHeaderVerifierRejectsTamperedBody(t *testing.T) {
	secret := "whsec_test"
	now := time.Now().UTC()
	verifier := SignedHeaderVerifier{Secret: secret, Now: func() time.Time { return now }}

	req := core.InboundRequest{
		Headers: map[string]string{SignatureHeader: SignPayload(secret, []byte(`{"a":1}`), now)},
		Body:    []byte(`{"a":2}`),
	}
	if err := verifier.Verify(context.Background(), req); err == nil {
		t.Fatalf("expected signature failure for tampered body")
	}
}

func TestSignedHeaderVerifierRejectsWrongSecret(t *testing.T) {
	now := time.Now().UTC()
	body := []byte(`{}`)
	verifier := SignedHeaderVerifier{Secret: "right", Now: func() time.Time { return now }}

	req := core.InboundRequest{
		Headers: map[string]string{SignatureHeader: SignPayload("wrong", body, now)},
		Body:    body,
	}
	if err := verifier.Verify(context.Background(), req); err == nil {
		t.Fatalf("expected signature failure for wrong secret")
	}
}

func TestSignedHeaderVerifierRejectsStaleTimestamp(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{}`)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	verifier := SignedHeaderVerifier{
		Secret:       secret,
		ReplayWindow: 5 * time.Minute,
		Now:          func() time.Time { return now },
	}

	req := core.InboundRequest{
		Headers: map[string]string{SignatureHeader: SignPayload(secret, body, now.Add(-10*time.Minute))},
		Body:    body,
	}
	if err := verifier.Verify(context.Background(), req); err == nil {
		t.Fatalf("expected replay-window rejection")
	}
}

func TestSignedHeaderVerifierRequiresHeader(t *testing.T) {
	verifier := SignedHeaderVerifier{Secret: "whsec_test"}
	if err := verifier.Verify(context.Background(), core.InboundRequest{Body: []byte(`{}`)}); err == nil {
		t.Fatalf("expected error for missing header")
	}
}

func TestParseSignatureHeaderRejectsMalformed(t *testing.T) {
	for _, header := range []string{"", "t=123", "v1=abc", "t=notanumber,v1=abc"} {
		if _, _, err := parseSignatureHeader(header); err == nil {
			t.Fatalf("expected parse error for %q", header)
		}
	}
}
