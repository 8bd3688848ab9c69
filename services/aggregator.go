package services

import (
	stdcontext "context"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/reelworth/reelworth_api/dto"
	"github.com/reelworth/reelworth_api/providers"
	"github.com/reelworth/reelworth_api/shared"
)

// AggregatorService fans a search out to every requested provider and merges
// whatever comes back. One slow or broken provider degrades its own slice of
// the response, never the whole call.
type AggregatorService struct {
	context.DefaultService

	timeout time.Duration

	providerSvc   *ProviderService
	filmSvc       *FilmService
	trendingSvc   *TrendingService
	monitoringSvc *MonitoringService
}

const AGGREGATOR_SVC = "aggregator_svc"

const defaultSearchTimeout = 10 * time.Second

func (svc AggregatorService) Id() string {
	return AGGREGATOR_SVC
}

func (svc *AggregatorService) Configure(ctx *context.Context) error {
	svc.timeout = defaultSearchTimeout
	if v := os.Getenv("SEARCH_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			svc.timeout = time.Duration(secs) * time.Second
		}
	}
	return svc.DefaultService.Configure(ctx)
}

func (svc *AggregatorService) Start() error {
	svc.providerSvc = svc.Service(PROVIDER_SVC).(*ProviderService)
	svc.filmSvc = svc.Service(FILM_SVC).(*FilmService)
	svc.trendingSvc = svc.Service(TRENDING_SVC).(*TrendingService)
	svc.monitoringSvc = svc.Service(MONITORING_SVC).(*MonitoringService)
	return nil
}

func (svc *AggregatorService) Shutdown() {
}

// ==================== AGGREGATED SEARCH ====================

func (svc *AggregatorService) Search(ctx stdcontext.Context, req dto.SearchRequest) (*dto.AggregatedSearchResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, shared.NewBadRequestError(dto.FormatValidationErrors(err), "invalid search request")
	}

	clients := svc.selectClients(req.Sources)
	resp := &dto.AggregatedSearchResponse{
		Query:     req.Query,
		Year:      req.Year,
		Results:   make(map[string]dto.ProviderResult, len(clients)),
		Timestamp: time.Now().UTC(),
	}

	// Providers named in the request but not configured still get a line in
	// the response so callers can tell silence from absence.
	for _, name := range req.Sources {
		if _, ok := clients[name]; !ok {
			resp.Results[name] = dto.ProviderResult{Status: shared.StatusNotConfigured}
		}
	}

	ctx, cancel := stdcontext.WithTimeout(ctx, svc.timeout)
	defer cancel()

	svc.monitoringSvc.ObserveSearch()

	var mu sync.Mutex
	var wg sync.WaitGroup
	for name, client := range clients {
		wg.Add(1)
		go func(name string, client providers.Client) {
			defer wg.Done()
			result := svc.searchOne(ctx, client, req)
			mu.Lock()
			resp.Results[name] = result
			mu.Unlock()
		}(name, client)
	}
	wg.Wait()

	for _, result := range resp.Results {
		resp.TotalItems += len(result.Items)
	}

	svc.trendingSvc.RecordSearch(ctx, req.Query)
	svc.filmSvc.StoreResults(resp)

	return resp, nil
}

func (svc *AggregatorService) searchOne(ctx stdcontext.Context, client providers.Client, req dto.SearchRequest) dto.ProviderResult {
	start := time.Now()
	items, err := client.Search(ctx, svc.buildQuery(client.Name(), req))
	elapsed := time.Since(start)

	result := dto.ProviderResult{
		Items:      items,
		DurationMs: elapsed.Milliseconds(),
	}
	if result.Items == nil {
		result.Items = []providers.NormalizedItem{}
	}

	if err != nil {
		result.Status = statusForError(err)
		result.Error = err.Error()
		log.WithError(err).WithFields(log.Fields{
			"provider": client.Name(),
			"query":    req.Query,
		}).Warn("Provider search failed")
	} else {
		result.Status = shared.StatusOK
	}

	svc.monitoringSvc.ObserveProviderCall(client.Name(), "search", result.Status, elapsed)
	return result
}

// buildQuery translates the API request into each provider's vocabulary.
func (svc *AggregatorService) buildQuery(provider string, req dto.SearchRequest) providers.Query {
	q := providers.Query{
		Term:  req.Query,
		Year:  req.Year,
		Limit: req.Limit,
	}
	if req.Page > 1 {
		q.Offset = req.Page
	}

	switch provider {
	case shared.ProviderEbay:
		q.Offset = 0
		if req.Page > 1 && req.Limit > 0 {
			q.Offset = (req.Page - 1) * req.Limit
		}
		q.CategoryIDs = ebayCategoryForFormat(req.Format)
	case shared.ProviderGoCollect:
		q.Market = req.Market
	}
	return q
}

func ebayCategoryForFormat(format string) string {
	switch format {
	case "VHS":
		return providers.EbayCategories["vhs"].ID
	case "DVD":
		return providers.EbayCategories["dvd"].ID
	case "Blu-ray", "4K UHD":
		return providers.EbayCategories["bluray"].ID
	default:
		return ""
	}
}

// selectClients filters the configured clients down to the requested sources,
// preserving nothing for unknown names. An empty source list means all.
func (svc *AggregatorService) selectClients(sources []string) map[string]providers.Client {
	all := svc.providerSvc.Clients()
	if len(sources) == 0 {
		return all
	}
	selected := make(map[string]providers.Client, len(sources))
	for _, name := range sources {
		if client, ok := all[name]; ok {
			selected[name] = client
		}
	}
	return selected
}

func statusForError(err error) string {
	switch shared.Kind(err) {
	case shared.KindAuth:
		return shared.StatusAuthFailed
	case shared.KindRateLimit:
		return shared.StatusRateLimited
	default:
		return shared.StatusUnavailable
	}
}

// ==================== SINGLE-ITEM LOOKUP ====================

// Details asks one named provider for a single item.
func (svc *AggregatorService) Details(ctx stdcontext.Context, provider, id string) (*providers.NormalizedItem, error) {
	client := svc.providerSvc.Client(provider)
	if client == nil {
		return nil, shared.NewNotConfiguredError("provider not configured: " + provider)
	}

	ctx, cancel := stdcontext.WithTimeout(ctx, svc.timeout)
	defer cancel()

	start := time.Now()
	item, err := client.Details(ctx, id)
	elapsed := time.Since(start)

	status := shared.StatusOK
	if err != nil {
		status = statusForError(err)
	}
	svc.monitoringSvc.ObserveProviderCall(provider, "details", status, elapsed)

	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, shared.NewNotFoundError("item not found")
	}
	return item, nil
}
