// Package cache provides Redis-backed caching of listing responses.
//
// The manager stores whole responses keyed on endpoint plus query arguments,
// honors Cache-Control max-age (falling back to Expires, then a default
// window), and keeps ETag / Last-Modified validators so the client can
// revalidate with conditional requests instead of refetching.
//
// # Basic usage
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.Key{
//		Endpoint:    "/wp-json/wp/v2/posts",
//		QueryParams: url.Values{"page": []string{"2"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// fetch from the backend
//	}
//
// # Conditional requests
//
//	if cache.CanRevalidate(entry) {
//		cache.AddConditionalHeaders(req, entry)
//		// a 304 means the cached entry is still current
//	}
//
// # Metrics
//
//   - wp_cache_hits_total{layer="redis"}
//   - wp_cache_misses_total
//   - wp_304_responses_total
//   - wp_conditional_requests_total
//   - wp_cache_errors_total{operation}
package cache
