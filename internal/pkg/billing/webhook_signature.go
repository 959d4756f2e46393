package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// VerifyWebhookSignature checks a Standard-Webhooks style signature header:
// base64 HMAC-SHA256 over "id.timestamp.body", keyed with the webhook secret
// ("whsec_"-prefixed base64). The header may carry several space-separated
// "v1,<sig>" entries; any match passes.
func VerifyWebhookSignature(payload []byte, webhookID, timestamp, signatureHeader, webhookSecret string) bool {
	id := strings.TrimSpace(webhookID)
	ts := strings.TrimSpace(timestamp)
	header := strings.TrimSpace(signatureHeader)
	if id == "" || ts == "" || header == "" {
		return false
	}

	secret, ok := decodeWebhookSecret(webhookSecret)
	if !ok {
		return false
	}

	signed := make([]byte, 0, len(id)+len(ts)+len(payload)+2)
	signed = append(signed, id...)
	signed = append(signed, '.')
	signed = append(signed, ts...)
	signed = append(signed, '.')
	signed = append(signed, payload...)

	mac := hmac.New(sha256.New, secret)
	mac.Write(signed)
	expected := mac.Sum(nil)

	for _, candidate := range strings.Fields(header) {
		version, sig, found := strings.Cut(candidate, ",")
		if !found || version != "v1" {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(expected, decoded) {
			return true
		}
	}
	return false
}

func decodeWebhookSecret(webhookSecret string) ([]byte, bool) {
	raw := strings.TrimSpace(webhookSecret)
	if raw == "" {
		return nil, false
	}
	raw = strings.TrimPrefix(raw, "whsec_")
	if decoded, err := base64.StdEncoding.DecodeString(raw); err == nil {
		return decoded, true
	}
	// Secrets configured without base64 encoding are used as-is.
	return []byte(raw), true
}
