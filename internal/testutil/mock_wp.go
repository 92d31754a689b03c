// Package testutil provides testing utilities for the listing client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockWP is a configurable mock WordPress REST server for testing.
type MockWP struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount     int
	ConditionalCount int
	LastQuery        url.Values
	LastHeader       http.Header
}

// NewMockWP creates a new mock server.
func NewMockWP() *MockWP {
	mock := &MockWP{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastQuery = r.URL.Query()
		mock.LastHeader = r.Header.Clone()
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.ConditionalCount++
		}
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}
		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockWP) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockWP) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockWP) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ConditionalCount = 0
	m.LastQuery = nil
	m.LastHeader = nil
}

// Queries returns the query arguments of the most recent request.
func (m *MockWP) Queries() url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastQuery
}

// Requests returns the number of requests served.
func (m *MockWP) Requests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// Conditionals returns the number of requests that carried conditional
// headers.
func (m *MockWP) Conditionals() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalCount
}

// SetHandler sets a custom handler for a specific path.
func (m *MockWP) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockWP) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		status := resp.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		fmt.Fprint(w, resp.Body)
	})
}

// SetListing configures a paginated listing for a resource type. Each call
// serves the requested page from the given items, with the x-wp-total and
// x-wp-totalpages headers set accordingly.
func (m *MockWP) SetListing(resourceType string, items []map[string]any, perPage int) {
	if perPage < 1 {
		perPage = 10
	}
	m.SetHandler("/wp-json/wp/v2/"+resourceType, func(w http.ResponseWriter, r *http.Request) {
		page := 1
		if pageStr := r.URL.Query().Get("page"); pageStr != "" {
			if n, err := strconv.Atoi(pageStr); err == nil && n >= 1 {
				page = n
			}
		}

		totalPages := (len(items) + perPage - 1) / perPage
		start := (page - 1) * perPage
		end := start + perPage
		if start > len(items) {
			start = len(items)
		}
		if end > len(items) {
			end = len(items)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-WP-Total", strconv.Itoa(len(items)))
		w.Header().Set("X-WP-TotalPages", strconv.Itoa(totalPages))
		json.NewEncoder(w).Encode(items[start:end])
	})
}

// defaultHandler serves an empty listing for unconfigured paths.
func (m *MockWP) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-WP-Total", "0")
	w.Header().Set("X-WP-TotalPages", "0")
	fmt.Fprint(w, "[]")
}

// Post builds a minimal backend-shaped post record for listings.
func Post(id int, title string) map[string]any {
	return map[string]any{
		"id":    id,
		"title": map[string]any{"rendered": title},
	}
}
