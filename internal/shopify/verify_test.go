package shopify

import (
	"testing"
)

func TestVerifyWebhook(t *testing.T) {
	secret := "shpss_secret"
	body := []byte(`{"id":42}`)

	sig := SignWebhook(secret, body)
	if !VerifyWebhook(secret, body, sig) {
		t.Error("expected valid signature to verify")
	}

	if VerifyWebhook(secret, body, "bogus") {
		t.Error("expected bogus signature to fail")
	}
	if VerifyWebhook(secret, []byte(`{"id":43}`), sig) {
		t.Error("expected tampered body to fail")
	}
	if VerifyWebhook("other_secret", body, sig) {
		t.Error("expected wrong secret to fail")
	}
	if VerifyWebhook(secret, body, "") {
		t.Error("expected empty signature to fail")
	}
}
