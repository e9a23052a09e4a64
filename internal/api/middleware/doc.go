// Package middleware provides the gin middleware of the control API.
//
//   - CORS: loopback and sol:// origins only
//   - RateLimit: per-IP token bucket, idle clients forgotten after IdleTTL
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
