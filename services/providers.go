package services

import (
	stdcontext "context"
	"net/http"
	"os"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/reelworth/reelworth_api/limiter"
	"github.com/reelworth/reelworth_api/providers"
	"github.com/reelworth/reelworth_api/shared"
)

// ProviderService builds one client per configured upstream and hands them to
// the aggregator. A provider with missing credentials is simply absent; the
// rest of the system keeps working.
type ProviderService struct {
	context.DefaultService

	clients map[string]providers.Client

	quotaSvc *QuotaService
}

const PROVIDER_SVC = "provider_svc"

func (svc ProviderService) Id() string {
	return PROVIDER_SVC
}

func (svc *ProviderService) Configure(ctx *context.Context) error {
	svc.clients = make(map[string]providers.Client)
	return svc.DefaultService.Configure(ctx)
}

func (svc *ProviderService) Start() error {
	svc.quotaSvc = svc.Service(QUOTA_SVC).(*QuotaService)

	httpc := &http.Client{Timeout: 10 * time.Second}

	if appID, certID := os.Getenv("EBAY_APP_ID"), os.Getenv("EBAY_CERT_ID"); appID != "" && certID != "" {
		base := envOr("EBAY_BASE_URL", "https://api.ebay.com")
		tokens := providers.NewTokenCache(appID, certID, providers.EbayTokenURL(base),
			"https://api.ebay.com/oauth/api_scope/buy.marketplace.insights")
		cfg := providers.EbayConfig{
			AppID:       appID,
			CertID:      certID,
			BaseURL:     base,
			Marketplace: envOr("EBAY_MARKETPLACE", "EBAY_US"),
		}
		svc.clients[shared.ProviderEbay] = providers.NewEbayClient(cfg, tokens, limiter.NewInterval(time.Second), httpc)
	}

	if key := os.Getenv("TMDB_API_KEY"); key != "" {
		cfg := providers.TmdbConfig{
			APIKey:  key,
			BaseURL: envOr("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		}
		svc.clients[shared.ProviderTmdb] = providers.NewTmdbClient(cfg, nil, httpc)
	}

	if key := os.Getenv("OMDB_API_KEY"); key != "" {
		cfg := providers.OmdbConfig{
			APIKey:  key,
			BaseURL: envOr("OMDB_BASE_URL", "https://www.omdbapi.com"),
			Paid:    os.Getenv("OMDB_TIER") == "paid",
		}
		svc.clients[shared.ProviderOmdb] = providers.NewOmdbClient(cfg, httpc)
	}

	if token := os.Getenv("GOCOLLECT_API_TOKEN"); token != "" {
		cfg := providers.GoCollectConfig{
			Token:   token,
			BaseURL: envOr("GOCOLLECT_BASE_URL", "https://gocollect.com"),
		}
		svc.clients[shared.ProviderGoCollect] = providers.NewGoCollectClient(cfg, svc.quotaSvc, httpc)
	}

	names := make([]string, 0, len(svc.clients))
	for name := range svc.clients {
		names = append(names, name)
	}
	log.WithField("providers", names).Info("External providers configured")
	return nil
}

func (svc *ProviderService) Shutdown() {
}

// Client returns the named provider client, or nil when not configured.
func (svc *ProviderService) Client(name string) providers.Client {
	return svc.clients[name]
}

// Clients returns the configured clients keyed by provider name.
func (svc *ProviderService) Clients() map[string]providers.Client {
	return svc.clients
}

// Health probes every configured provider. Probes run sequentially; they are
// real upstream calls and some count against quotas.
func (svc *ProviderService) Health(ctx stdcontext.Context) map[string]bool {
	health := make(map[string]bool, len(svc.clients))
	for name, client := range svc.clients {
		health[name] = client.HealthCheck(ctx)
	}
	return health
}

// Usage collects per-provider usage counters where the client reports them.
func (svc *ProviderService) Usage() map[string]map[string]interface{} {
	usage := make(map[string]map[string]interface{})
	for name, client := range svc.clients {
		if reporter, ok := client.(providers.UsageReporter); ok {
			usage[name] = reporter.Usage()
		}
	}
	return usage
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
