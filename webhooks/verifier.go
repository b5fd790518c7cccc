package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-reship/core"
)

// SignatureHeader carries the payment provider's signed timestamp:
//
//	Reship-Payment-Signature: t=<unix>,v1=<hex hmac-sha256 of "<t>.<body>">
const SignatureHeader = "Reship-Payment-Signature"

const defaultReplayWindow = 5 * time.Minute

type Verifier interface {
	Verify(ctx context.Context, req core.InboundRequest) error
}

// SignedHeaderVerifier checks the timestamped HMAC signature scheme above.
// The timestamp is bound into the signed message, so replaying an old body
// with a fresh timestamp fails the MAC and replaying the original header
// fails the window check.
type SignedHeaderVerifier struct {
	Secret       string
	ReplayWindow time.Duration
	Now          func() time.Time
}

func (v SignedHeaderVerifier) Verify(_ context.Context, req core.InboundRequest) error {
	secret := strings.TrimSpace(v.Secret)
	if secret == "" {
		return fmt.Errorf("webhooks: signature secret is required")
	}
	header := strings.TrimSpace(headerValue(req.Headers, SignatureHeader))
	if header == "" {
		return fmt.Errorf("webhooks: %s signature header is required", SignatureHeader)
	}

	timestamp, signature, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if v.Now != nil {
		now = v.Now().UTC()
	}
	window := v.ReplayWindow
	if window <= 0 {
		window = defaultReplayWindow
	}
	delta := now.Sub(time.Unix(timestamp, 0).UTC())
	if delta < 0 {
		delta = -delta
	}
	if delta > window {
		return fmt.Errorf("webhooks: signature timestamp outside replay window")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write(req.Body)
	expected := mac.Sum(nil)

	decoded, err := hex.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("webhooks: decode hex signature: %w", err)
	}
	if subtle.ConstantTimeCompare(decoded, expected) != 1 {
		return fmt.Errorf("webhooks: signature verification failed")
	}
	return nil
}

func parseSignatureHeader(header string) (int64, string, error) {
	var timestampRaw, signature string
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch strings.TrimSpace(key) {
		case "t":
			timestampRaw = strings.TrimSpace(value)
		case "v1":
			signature = strings.TrimSpace(value)
		}
	}
	if timestampRaw == "" {
		return 0, "", fmt.Errorf("webhooks: signature header has no timestamp")
	}
	if signature == "" {
		return 0, "", fmt.Errorf("webhooks: signature header has no v1 signature")
	}
	timestamp, err := strconv.ParseInt(timestampRaw, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("webhooks: parse signature timestamp: %w", err)
	}
	return timestamp, signature, nil
}

// SignPayload produces the signature header value for a body at a given
// instant. Used by tests and by outbound webhook emitters.
func SignPayload(secret string, body []byte, at time.Time) string {
	timestamp := strconv.FormatInt(at.UTC().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(strings.TrimSpace(secret)))
	_, _ = mac.Write([]byte(timestamp))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write(body)
	return "t=" + timestamp + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

func headerValue(headers map[string]string, key string) string {
	if len(headers) == 0 {
		return ""
	}
	for existing, value := range headers {
		if strings.EqualFold(strings.TrimSpace(existing), strings.TrimSpace(key)) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

var _ Verifier = SignedHeaderVerifier{}
