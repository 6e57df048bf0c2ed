package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual service.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
	Error       string `json:"error,omitempty"`
}

// StoreMetrics is returned by GET /v1/metrics/store.
type StoreMetrics struct {
	Backend       string             `json:"backend"`
	Fallback      string             `json:"fallback,omitempty"`
	StoreErrors   map[string]float64 `json:"storeErrors"`
	Fallbacks     map[string]float64 `json:"fallbacks"`
	CacheHitRate  float64            `json:"cacheHitRate"`
	ToggledSold   float64            `json:"toggledSold"`
	ToggledUnsold float64            `json:"toggledUnsold"`
}
