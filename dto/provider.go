package dto

import "time"

type ProviderHealth struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
	Healthy    bool   `json:"healthy"`
}

type ProviderHealthResponse struct {
	Providers []ProviderHealth `json:"providers"`
	Timestamp time.Time        `json:"timestamp"`
}

type ProviderUsageResponse struct {
	Usage     map[string]map[string]interface{} `json:"usage"`
	Timestamp time.Time                         `json:"timestamp"`
}
