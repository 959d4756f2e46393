package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signPayload(t *testing.T, secret []byte, id, ts string, payload []byte) string {
	t.Helper()
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(id + "." + ts + "."))
	mac.Write(payload)
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	payload := []byte(`{"type":"product.created"}`)
	rawSecret := []byte("super-secret-key")
	secret := "whsec_" + base64.StdEncoding.EncodeToString(rawSecret)

	valid := signPayload(t, rawSecret, "evt_1", "1717200000", payload)

	assert.True(t, VerifyWebhookSignature(payload, "evt_1", "1717200000", valid, secret))
	assert.False(t, VerifyWebhookSignature(payload, "evt_2", "1717200000", valid, secret), "different id must fail")
	assert.False(t, VerifyWebhookSignature(payload, "evt_1", "1717200001", valid, secret), "different timestamp must fail")
	assert.False(t, VerifyWebhookSignature([]byte(`{}`), "evt_1", "1717200000", valid, secret), "different payload must fail")
	assert.False(t, VerifyWebhookSignature(payload, "evt_1", "1717200000", "v1,deadbeef", secret))
	assert.False(t, VerifyWebhookSignature(payload, "evt_1", "1717200000", valid, ""))
	assert.False(t, VerifyWebhookSignature(payload, "", "1717200000", valid, secret))
}

func TestVerifyWebhookSignatureMultipleEntries(t *testing.T) {
	payload := []byte(`{"type":"product.created"}`)
	rawSecret := []byte("super-secret-key")
	secret := "whsec_" + base64.StdEncoding.EncodeToString(rawSecret)

	valid := signPayload(t, rawSecret, "evt_1", "1717200000", payload)
	header := "v1,AAAA " + valid

	assert.True(t, VerifyWebhookSignature(payload, "evt_1", "1717200000", header, secret))
}

func TestVerifyWebhookSignaturePlainSecret(t *testing.T) {
	payload := []byte(`{"type":"product.created"}`)

	// Secrets configured without the whsec_/base64 wrapping still verify.
	valid := signPayload(t, []byte("plain!secret"), "evt_1", "1717200000", payload)
	assert.True(t, VerifyWebhookSignature(payload, "evt_1", "1717200000", valid, "plain!secret"))
}
