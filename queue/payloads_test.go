package queue

import (
	"testing"
	"time"
)

func TestEncodeDecodeEmailPayload(t *testing.T) {
	original := EmailSendPayload{
		UserID:  "usr_1",
		QuoteID: "qte_1",
		To:      "user@example.com",
		Subject: "Package ready to ship",
		Body:    "Payment received.",
	}
	params, err := EncodeParameters(original)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if params[paramKeyKind] != KindEmailSend {
		t.Fatalf("expected kind tag, got %v", params[paramKeyKind])
	}

	decoded, err := DecodeParameters(params)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	email, ok := decoded.(EmailSendPayload)
	if !ok {
		t.Fatalf("expected EmailSendPayload, got %T", decoded)
	}
	if email != original {
		t.Fatalf("round trip mismatch: %+v vs %+v", email, original)
	}
}

func TestDecodeStorageFeeSweepPayload(t *testing.T) {
	at := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	params, err := EncodeParameters(StorageFeeSweepPayload{AssessAt: at})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeParameters(params)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	sweep, ok := decoded.(StorageFeeSweepPayload)
	if !ok {
		t.Fatalf("expected StorageFeeSweepPayload, got %T", decoded)
	}
	if !sweep.AssessAt.Equal(at) {
		t.Fatalf("expected %v, got %v", at, sweep.AssessAt)
	}
}

func TestDecodeUnknownKindFails(t *testing.T) {
	_, err := DecodeParameters(map[string]any{
		paramKeyKind: "mystery.kind",
		paramKeyData: map[string]any{},
	})
	if err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestDecodeMissingKindFails(t *testing.T) {
	if _, err := DecodeParameters(map[string]any{paramKeyData: map[string]any{}}); err == nil {
		t.Fatalf("expected error for missing kind")
	}
	if _, err := DecodeParameters(nil); err == nil {
		t.Fatalf("expected error for nil parameters")
	}
}

func TestQueueForKind(t *testing.T) {
	cases := map[string]string{
		KindEmailSend:          QueueEmail,
		KindTrackingRefresh:    QueueTracking,
		KindNotificationCreate: QueueNotification,
		KindStorageFeeSweep:    QueueStorageFee,
	}
	for kind, want := range cases {
		got, err := QueueForKind(kind)
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		if got != want {
			t.Fatalf("%s: expected queue %q, got %q", kind, want, got)
		}
	}
	if _, err := QueueForKind("nope"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}
