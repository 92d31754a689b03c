package commands

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wpbrowse/wp-listing-client/internal/testutil"
	"github.com/wpbrowse/wp-listing-client/pkg/client"
	"github.com/wpbrowse/wp-listing-client/pkg/pagination"
)

func newProxyBackend(t *testing.T) (*client.Client, *testutil.MockWP) {
	t.Helper()
	server := testutil.NewMockWP()
	t.Cleanup(server.Close)

	backend, err := client.New(client.DefaultConfig(server.URL()))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return backend, server
}

func TestProxyHandlerForwardsRoute(t *testing.T) {
	backend, server := newProxyBackend(t)
	server.SetResponse("/wp-json/wp/v2/posts", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"X-WP-Total": "2"},
		Body:       `[{"id":1},{"id":2}]`,
	})

	handler := proxyHandler(backend, server.URL())
	req := httptest.NewRequest("GET", "/wp/posts?per_page=2", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if got := w.Header().Get("X-WP-Total"); got != "2" {
		t.Errorf("Expected X-WP-Total header to pass through, got %q", got)
	}
	body, _ := io.ReadAll(w.Body)
	if !strings.Contains(string(body), `"id":1`) {
		t.Errorf("Expected proxied body, got %s", body)
	}
	if got := server.Queries().Get("per_page"); got != "2" {
		t.Errorf("Expected per_page forwarded, got %q", got)
	}
}

func TestProxyHandlerPassesThroughBackendStatus(t *testing.T) {
	backend, server := newProxyBackend(t)
	server.SetResponse("/wp-json/wp/v2/missing", testutil.MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"code":"rest_no_route"}`,
	})

	handler := proxyHandler(backend, server.URL())
	req := httptest.NewRequest("GET", "/wp/missing", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestRenderWindow(t *testing.T) {
	tokens := []pagination.Token{
		{Page: 1}, {Page: 2}, {Ellipsis: true}, {Page: 20},
	}
	if got := renderWindow(tokens); got != "1 2 ... 20" {
		t.Errorf("Expected '1 2 ... 20', got %q", got)
	}
}
