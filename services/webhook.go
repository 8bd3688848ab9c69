package services

import (
	stdcontext "context"
	"crypto/ecdsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/reelworth/reelworth_api/model"
	"github.com/reelworth/reelworth_api/providers"
	"github.com/reelworth/reelworth_api/shared"
)

// WebhookService answers eBay marketplace account deletion notifications:
// the GET challenge handshake and signed POST notifications. Signatures are
// verified against eBay's published ECDSA keys before any payload is trusted.
type WebhookService struct {
	context.DefaultService

	verificationToken string
	endpointURL       string
	keyAPIBase        string

	tokens *providers.TokenCache
	httpc  *http.Client

	keyMu  sync.Mutex
	keys   map[string]cachedKey
	keyTTL time.Duration

	sqlSvc *SqliteService
}

type cachedKey struct {
	key       *ecdsa.PublicKey
	expiresAt time.Time
}

const WEBHOOK_SVC = "webhook_svc"

func (svc WebhookService) Id() string {
	return WEBHOOK_SVC
}

func (svc *WebhookService) Configure(ctx *context.Context) error {
	svc.verificationToken = os.Getenv("EBAY_VERIFICATION_TOKEN")
	svc.endpointURL = os.Getenv("EBAY_DELETION_ENDPOINT_URL")
	svc.keyAPIBase = envOr("EBAY_BASE_URL", "https://api.ebay.com")
	svc.httpc = &http.Client{Timeout: 10 * time.Second}
	svc.keys = make(map[string]cachedKey)
	svc.keyTTL = time.Hour
	return svc.DefaultService.Configure(ctx)
}

func (svc *WebhookService) Start() error {
	svc.sqlSvc = svc.Service(SQLITE_SVC).(*SqliteService)

	if appID, certID := os.Getenv("EBAY_APP_ID"), os.Getenv("EBAY_CERT_ID"); appID != "" && certID != "" {
		svc.tokens = providers.NewTokenCache(appID, certID, providers.EbayTokenURL(svc.keyAPIBase),
			"https://api.ebay.com/oauth/api_scope")
	}
	return nil
}

func (svc *WebhookService) Shutdown() {
}

// Configured reports whether the handshake secrets are present.
func (svc *WebhookService) Configured() bool {
	return svc.verificationToken != "" && svc.endpointURL != ""
}

// ==================== CHALLENGE HANDSHAKE ====================

// ChallengeResponse computes the handshake digest:
// SHA256(challengeCode + verificationToken + endpointURL), hex encoded.
func (svc *WebhookService) ChallengeResponse(challengeCode string) string {
	h := sha256.New()
	h.Write([]byte(challengeCode))
	h.Write([]byte(svc.verificationToken))
	h.Write([]byte(svc.endpointURL))
	return hex.EncodeToString(h.Sum(nil))
}

// ==================== SIGNATURE VERIFICATION ====================

// signatureHeader is the decoded x-ebay-signature header.
type signatureHeader struct {
	Alg       string `json:"alg"`
	KID       string `json:"kid"`
	Signature string `json:"signature"`
	Digest    string `json:"digest"`
}

// VerifyNotification checks a notification body against its signature
// header. Any parsing or verification failure rejects the notification.
func (svc *WebhookService) VerifyNotification(ctx stdcontext.Context, header string, body []byte) error {
	if header == "" {
		return shared.NewAuthError(nil, "missing signature header")
	}

	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return shared.NewAuthError(err, "malformed signature header")
	}
	var sig signatureHeader
	if err := json.Unmarshal(raw, &sig); err != nil {
		return shared.NewAuthError(err, "malformed signature header")
	}
	if sig.KID == "" || sig.Signature == "" {
		return shared.NewAuthError(nil, "incomplete signature header")
	}

	pub, err := svc.publicKey(ctx, sig.KID)
	if err != nil {
		return err
	}

	sigBytes, err := base64.StdEncoding.DecodeString(sig.Signature)
	if err != nil {
		return shared.NewAuthError(err, "malformed signature")
	}

	var digest []byte
	switch sig.Digest {
	case "", "SHA1":
		sum := sha1.Sum(body)
		digest = sum[:]
	case "SHA256":
		sum := sha256.Sum256(body)
		digest = sum[:]
	default:
		return shared.NewAuthError(nil, "unsupported digest: "+sig.Digest)
	}

	if !ecdsa.VerifyASN1(pub, digest, sigBytes) {
		return shared.NewAuthError(nil, "signature verification failed")
	}
	return nil
}

// publicKey fetches eBay's notification signing key by id, caching it for an
// hour. Keys rotate rarely; the cache keeps verification off the hot path.
func (svc *WebhookService) publicKey(ctx stdcontext.Context, kid string) (*ecdsa.PublicKey, error) {
	svc.keyMu.Lock()
	if cached, ok := svc.keys[kid]; ok && time.Now().Before(cached.expiresAt) {
		svc.keyMu.Unlock()
		return cached.key, nil
	}
	svc.keyMu.Unlock()

	key, err := svc.fetchPublicKey(ctx, kid)
	if err != nil {
		return nil, err
	}

	svc.keyMu.Lock()
	svc.keys[kid] = cachedKey{key: key, expiresAt: time.Now().Add(svc.keyTTL)}
	svc.keyMu.Unlock()
	return key, nil
}

func (svc *WebhookService) fetchPublicKey(ctx stdcontext.Context, kid string) (*ecdsa.PublicKey, error) {
	if svc.tokens == nil {
		return nil, shared.NewNotConfiguredError("eBay credentials not configured")
	}
	token, err := svc.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	u := svc.keyAPIBase + "/commerce/notification/v1/public_key/" + kid
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, shared.NewProviderUnavailableError(err, "building key request failed")
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := svc.httpc.Do(req)
	if err != nil {
		return nil, shared.NewProviderUnavailableError(err, "key fetch failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, shared.NewProviderUnavailableError(
			fmt.Errorf("status %d: %s", resp.StatusCode, string(body)), "key fetch returned an error status")
	}

	var payload struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, shared.NewProviderUnavailableError(err, "decoding key response failed")
	}
	return parseECDSAPublicKey(payload.Key)
}

func parseECDSAPublicKey(pemKey string) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemKey))
	if block == nil {
		return nil, shared.NewAuthError(nil, "signing key is not PEM encoded")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, shared.NewAuthError(err, "signing key parse failed")
	}
	pub, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, shared.NewAuthError(nil, "signing key is not ECDSA")
	}
	return pub, nil
}

// ==================== DELETION PROCESSING ====================

type deletionNotification struct {
	Notification struct {
		NotificationID string `json:"notificationId"`
		EventDate      string `json:"eventDate"`
		Data           struct {
			Username string `json:"username"`
			UserID   string `json:"userId"`
		} `json:"data"`
	} `json:"notification"`
}

// ProcessDeletion purges everything stored for the deleted account. The
// operation is idempotent; redelivered notifications are harmless.
func (svc *WebhookService) ProcessDeletion(body []byte) error {
	var note deletionNotification
	if err := json.Unmarshal(body, &note); err != nil {
		return shared.NewBadRequestError(nil, "malformed deletion notification")
	}

	userID := note.Notification.Data.UserID
	if userID == "" {
		return shared.NewBadRequestError(nil, "deletion notification missing user id")
	}

	result := svc.sqlSvc.Db().Where("user_id = ?", userID).Delete(&model.Watchlist{})
	if result.Error != nil {
		return svc.sqlSvc.HandleError(result.Error)
	}

	log.WithFields(log.Fields{
		"notification_id": note.Notification.NotificationID,
		"rows_purged":     result.RowsAffected,
	}).Info("Processed account deletion notification")
	return nil
}
