package shared

const (
	UserID = "user_id"

	ProviderEbay      = "ebay"
	ProviderTmdb      = "tmdb"
	ProviderOmdb      = "omdb"
	ProviderGoCollect = "gocollect"

	StatusOK            = "ok"
	StatusNotConfigured = "not_configured"
	StatusUnavailable   = "provider_unavailable"
	StatusRateLimited   = "rate_limit_exceeded"
	StatusAuthFailed    = "auth_failed"
)

// ProviderPriority is the canonical listing order for provider-keyed output
// such as the health report. Aggregated search results are grouped per
// provider, not concatenated.
var ProviderPriority = []string{ProviderEbay, ProviderTmdb, ProviderOmdb, ProviderGoCollect}
