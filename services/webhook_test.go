package services

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/reelworth/reelworth_api/providers"
)

func TestChallengeResponse(t *testing.T) {
	svc := &WebhookService{
		verificationToken: "my-verification-token",
		endpointURL:       "https://example.com/api/ebay/deletion/notifications",
	}

	code := "abc-123"
	got := svc.ChallengeResponse(code)

	h := sha256.New()
	h.Write([]byte(code + svc.verificationToken + svc.endpointURL))
	want := hex.EncodeToString(h.Sum(nil))

	if got != want {
		t.Fatalf("ChallengeResponse = %q, want %q", got, want)
	}
	if len(got) != 64 {
		t.Fatalf("expected a hex SHA-256 digest, got %d chars", len(got))
	}
}

// signBody produces an x-ebay-signature header over body with the given key.
func signBody(t *testing.T, priv *ecdsa.PrivateKey, kid string, body []byte) string {
	t.Helper()
	sum := sha1.Sum(body)
	sig, err := ecdsa.SignASN1(rand.Reader, priv, sum[:])
	if err != nil {
		t.Fatal(err)
	}
	header, err := json.Marshal(signatureHeader{
		Alg:       "ecdsa",
		KID:       kid,
		Signature: base64.StdEncoding.EncodeToString(sig),
		Digest:    "SHA1",
	})
	if err != nil {
		t.Fatal(err)
	}
	return base64.StdEncoding.EncodeToString(header)
}

func newWebhookTestService(t *testing.T, pub *ecdsa.PublicKey) *WebhookService {
	t.Helper()

	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		t.Fatal(err)
	}
	pemKey := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	mux := http.NewServeMux()
	mux.HandleFunc("/identity/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":7200}`))
	})
	mux.HandleFunc("/commerce/notification/v1/public_key/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"key": pemKey})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	svc := &WebhookService{
		verificationToken: "token",
		endpointURL:       "https://example.com/notifications",
		keyAPIBase:        srv.URL,
		httpc:             srv.Client(),
		keys:              make(map[string]cachedKey),
		keyTTL:            time.Hour,
	}
	// Build the token cache directly; Start needs the service container.
	svc.tokens = providers.NewTokenCache("app", "cert", providers.EbayTokenURL(srv.URL))
	return svc
}

func TestVerifyNotification(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	svc := newWebhookTestService(t, &priv.PublicKey)

	body := []byte(`{"notification":{"notificationId":"n1","data":{"userId":"u1","username":"someone"}}}`)
	header := signBody(t, priv, "key-1", body)

	if err := svc.VerifyNotification(context.Background(), header, body); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}

	// Tampered body fails.
	tampered := append([]byte{}, body...)
	tampered[len(tampered)-2] = 'X'
	if err := svc.VerifyNotification(context.Background(), header, tampered); err == nil {
		t.Fatal("tampered body accepted")
	}

	// Missing header fails.
	if err := svc.VerifyNotification(context.Background(), "", body); err == nil {
		t.Fatal("missing header accepted")
	}

	// Garbage header fails.
	if err := svc.VerifyNotification(context.Background(), "not-base64!!!", body); err == nil {
		t.Fatal("garbage header accepted")
	}
}

func TestVerifyNotificationWrongKey(t *testing.T) {
	signingKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	otherKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	// The service only knows the other key.
	svc := newWebhookTestService(t, &otherKey.PublicKey)

	body := []byte(`{"notification":{"data":{"userId":"u1"}}}`)
	header := signBody(t, signingKey, "key-1", body)

	if err := svc.VerifyNotification(context.Background(), header, body); err == nil {
		t.Fatal("signature from an unknown key accepted")
	}
}

func TestPublicKeyCached(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	svc := newWebhookTestService(t, &priv.PublicKey)

	if _, err := svc.publicKey(context.Background(), "key-1"); err != nil {
		t.Fatal(err)
	}
	// Break the upstream; the cached key must still serve.
	svc.keyAPIBase = "http://127.0.0.1:1"
	if _, err := svc.publicKey(context.Background(), "key-1"); err != nil {
		t.Fatalf("cached key not used: %v", err)
	}
}
