package webhook

import "testing"

func TestSignMatchesKnownVector(t *testing.T) {
	t.Parallel()

	// RFC 4231 test case 2.
	digest := Sign([]byte("what do ya want for nothing?"), "Jefe")
	want := "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843"
	if digest != want {
		t.Fatalf("Sign = %q, want %q", digest, want)
	}
}

func TestSignDiffersPerSecret(t *testing.T) {
	t.Parallel()

	body := []byte(`{"event_type":"test"}`)
	if Sign(body, "one") == Sign(body, "two") {
		t.Fatal("expected different secrets to produce different digests")
	}
}
