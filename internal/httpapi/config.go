package httpapi

import "time"

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server. Empty method
// and header lists fall back to GET/HEAD/OPTIONS and Accept/If-None-Match.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
	if len(corsAllowedMethods) == 0 {
		corsAllowedMethods = []string{"GET", "HEAD", "OPTIONS"}
	}
	if len(corsAllowedHeaders) == 0 {
		corsAllowedHeaders = []string{"Accept", "If-None-Match"}
	}
}

// cacheMaxAge is sent as Cache-Control max-age on result endpoints.
var cacheMaxAge = 30 * time.Second

// SetCacheMaxAge sets the max-age of result responses; negative disables caching.
func SetCacheMaxAge(d time.Duration) {
	cacheMaxAge = d
}

// apiRequestsPerMinute caps /api requests per client IP; 0 disables it.
var apiRequestsPerMinute int

// SetRateLimit sets the per-IP limit on /api routes.
func SetRateLimit(perMinute int) {
	apiRequestsPerMinute = perMinute
}
