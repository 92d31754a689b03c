package listing

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wpbrowse/wp-listing-client/internal/testutil"
	"github.com/wpbrowse/wp-listing-client/pkg/history"
	"github.com/wpbrowse/wp-listing-client/pkg/params"
	"github.com/wpbrowse/wp-listing-client/pkg/query"
)

type recordingSink struct {
	mu     sync.Mutex
	events []string
}

func (s *recordingSink) Dispatch(name string, detail any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, name)
}

func (s *recordingSink) Events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	copy(out, s.events)
	return out
}

func newTestController(t *testing.T, posts int, hooks Hooks, sink EventSink) (*Controller, *testutil.MockWP, *history.MemoryNavigator) {
	t.Helper()

	server := testutil.NewMockWP()
	t.Cleanup(server.Close)

	items := make([]map[string]any, 0, posts)
	for i := 1; i <= posts; i++ {
		items = append(items, testutil.Post(i, "Post"))
	}
	server.SetListing("posts", items, 10)

	nav := history.NewMemoryNavigator(history.Entry{Path: "/posts"})

	cfg := DefaultConfig(server.URL(), "posts")
	cfg.Taxonomies = map[string][]int{"categories": nil}

	ctrl, err := New(context.Background(), cfg, nav, hooks, sink)
	require.NoError(t, err)
	return ctrl, server, nav
}

func TestNewMountsFromInitialConfig(t *testing.T) {
	initialLoads := 0
	created := false
	hooks := Hooks{
		AfterCreated:  func() { created = true },
		OnInitialLoad: func() { initialLoads++ },
	}

	ctrl, server, nav := newTestController(t, 25, hooks, nil)

	assert.True(t, created)
	assert.Equal(t, 1, initialLoads)
	assert.Equal(t, StateLoaded, ctrl.State())
	assert.Len(t, ctrl.Items(), 10)
	assert.Equal(t, 25, ctrl.Pagination().Total)
	assert.Equal(t, 3, ctrl.Pagination().TotalPages)

	// the mount fetch carries the full derived query
	q := server.Queries()
	assert.Equal(t, "embed", q.Get("context"))
	assert.Equal(t, "1", q.Get("_embed"))
	assert.Equal(t, "10", q.Get("per_page"))
	assert.Equal(t, "desc", q.Get("order"))

	// mounting never pushes a history entry
	assert.Equal(t, 1, nav.Len())
}

func TestNewRestoresParamsFromQueryString(t *testing.T) {
	server := testutil.NewMockWP()
	t.Cleanup(server.Close)
	server.SetListing("posts", []map[string]any{testutil.Post(1, "Hit")}, 10)

	stored := params.New(5, "golang", "asc", "title", 3, nil, nil)
	nav := history.NewMemoryNavigator(history.Entry{
		Path:  "/posts",
		Query: params.Serialize(stored),
	})

	ctrl, err := New(context.Background(), DefaultConfig(server.URL(), "posts"), nav, Hooks{}, nil)
	require.NoError(t, err)

	assert.True(t, stored.Equal(ctrl.Params()))
	q := server.Queries()
	assert.Equal(t, "golang", q.Get("search"))
	assert.Equal(t, "3", q.Get("page"))
}

func TestNewRejectsMalformedQueryString(t *testing.T) {
	server := testutil.NewMockWP()
	t.Cleanup(server.Close)

	nav := history.NewMemoryNavigator(history.Entry{
		Path:  "/posts",
		Query: "?search=%notjson",
	})

	_, err := New(context.Background(), DefaultConfig(server.URL(), "posts"), nav, Hooks{}, nil)
	require.Error(t, err)

	var parseErr *params.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	nav := history.NewMemoryNavigator(history.Entry{Path: "/posts"})

	_, err := New(context.Background(), Config{}, nav, Hooks{}, nil)
	assert.Error(t, err)

	cfg := DefaultConfig("https://example.com", "posts")
	cfg.InitialOrderBy = "bogus"
	_, err = New(context.Background(), cfg, nav, Hooks{}, nil)
	var validationErr *query.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestSearchResetsPageAndPushesHistory(t *testing.T) {
	ctrl, server, nav := newTestController(t, 25, Hooks{}, nil)

	ctrl.SelectPage(context.Background(), 3)
	require.Equal(t, 3, ctrl.Params().Page())

	ctrl.SetSearch(context.Background(), "golang")

	assert.Equal(t, 1, ctrl.Params().Page())
	assert.Equal(t, "golang", ctrl.Params().Search())
	assert.Equal(t, "golang", server.Queries().Get("search"))

	// mount suppressed, then one push per interaction
	assert.Equal(t, 3, nav.Len())
}

func TestSelectPageKeepsPage(t *testing.T) {
	ctrl, server, _ := newTestController(t, 25, Hooks{}, nil)

	ctrl.SelectPage(context.Background(), 2)

	assert.Equal(t, 2, ctrl.Params().Page())
	assert.Equal(t, "2", server.Queries().Get("page"))
	assert.Len(t, ctrl.Items(), 10)
}

func TestSetOrderRejectsInvalidDirection(t *testing.T) {
	ctrl, server, _ := newTestController(t, 5, Hooks{}, nil)
	before := server.Requests()

	err := ctrl.SetOrder(context.Background(), "sideways", "title")

	var validationErr *query.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "order", validationErr.Param)
	assert.Equal(t, before, server.Requests())
	assert.Equal(t, "desc", ctrl.Params().Order())
}

func TestUndeclaredTaxonomyIsIgnored(t *testing.T) {
	ctrl, server, _ := newTestController(t, 5, Hooks{}, nil)
	before := server.Requests()

	ctrl.SetTaxonomyTerms(context.Background(), "flavors", []int{1})
	ctrl.ToggleTerm(context.Background(), "flavors", 1)

	assert.Equal(t, before, server.Requests())
	_, present := ctrl.Params()["flavors"]
	assert.False(t, present)
}

func TestFetchFailureKeepsPriorResults(t *testing.T) {
	ctrl, server, _ := newTestController(t, 25, Hooks{}, nil)
	require.Len(t, ctrl.Items(), 10)

	server.SetResponse("/wp-json/wp/v2/posts", testutil.MockResponse{
		StatusCode: 404,
		Body:       `{"code":"rest_no_route"}`,
	})

	ctrl.SetSearch(context.Background(), "gone")

	assert.Equal(t, StateErrored, ctrl.State())
	assert.Error(t, ctrl.Err())
	assert.Len(t, ctrl.Items(), 10)
	assert.Equal(t, 25, ctrl.Pagination().Total)
}

func TestBackRestoresSnapshotWithoutPageReset(t *testing.T) {
	ctrl, _, nav := newTestController(t, 25, Hooks{}, nil)

	ctrl.SetSearch(context.Background(), "first")
	ctrl.SelectPage(context.Background(), 2)
	require.Equal(t, 3, nav.Len())

	require.NoError(t, nav.Back())

	// the restored snapshot carries its own page, untouched by the reset
	// policy
	assert.Equal(t, "first", ctrl.Params().Search())
	assert.Equal(t, 1, ctrl.Params().Page())
	assert.Equal(t, StateLoaded, ctrl.State())

	// restoring never pushes a new entry
	assert.Equal(t, 3, nav.Len())
}

func TestBackToEntryWithoutSnapshotFallsBackToInitial(t *testing.T) {
	ctrl, _, nav := newTestController(t, 25, Hooks{}, nil)

	ctrl.SetSearch(context.Background(), "golang")
	require.NoError(t, nav.Back())

	// the mount entry carries no snapshot
	assert.Equal(t, "", ctrl.Params().Search())
	assert.Equal(t, 10, ctrl.Params().PerPage())
	assert.Equal(t, 2, nav.Len())
}

func TestSuppressionIsConsumedByOneRecord(t *testing.T) {
	ctrl, _, nav := newTestController(t, 25, Hooks{}, nil)

	ctrl.SetSearch(context.Background(), "a")
	require.NoError(t, nav.Back())
	require.Equal(t, 2, nav.Len())

	// the pop suppressed exactly one push; the next interaction records
	// again
	ctrl.SetSearch(context.Background(), "b")
	assert.Equal(t, 2, nav.Len()) // forward entry truncated, then pushed
	entry, err := nav.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b", entry.State.Search())
}

func TestLoadingEventPerReaction(t *testing.T) {
	sink := &recordingSink{}
	ctrl, _, _ := newTestController(t, 5, Hooks{}, sink)

	ctrl.SetSearch(context.Background(), "a")
	ctrl.Refresh(context.Background())

	assert.Equal(t, []string{EventLoading, EventLoading, EventLoading}, sink.Events())
}

func TestOnParamsChangeFiresPerReaction(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	hooks := Hooks{
		OnParamsChange: func(p params.QueryParams) {
			mu.Lock()
			seen = append(seen, p.Search())
			mu.Unlock()
		},
	}

	ctrl, _, _ := newTestController(t, 5, hooks, nil)
	ctrl.SetSearch(context.Background(), "golang")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"", "golang"}, seen)
}

func TestOnInitialLoadFiresOnce(t *testing.T) {
	initialLoads := 0
	ctrl, _, _ := newTestController(t, 5, Hooks{OnInitialLoad: func() { initialLoads++ }}, nil)

	ctrl.SetSearch(context.Background(), "a")
	ctrl.Refresh(context.Background())

	assert.Equal(t, 1, initialLoads)
}

func TestRefreshBumpsVersion(t *testing.T) {
	ctrl, server, _ := newTestController(t, 5, Hooks{}, nil)

	ctrl.Refresh(context.Background())

	assert.Equal(t, 1, ctrl.Params().Ver())
	assert.Equal(t, "1", server.Queries().Get("ver"))
}

func TestFetchPageLeavesStateUntouched(t *testing.T) {
	ctrl, _, nav := newTestController(t, 25, Hooks{}, nil)
	before := ctrl.Params()

	items, paging, err := ctrl.FetchPage(context.Background(), 3)
	require.NoError(t, err)

	assert.Len(t, items, 5)
	assert.Equal(t, 25, paging.Total)
	assert.True(t, before.Equal(ctrl.Params()))
	assert.Equal(t, 1, nav.Len())
}

func TestMetaFilterRoundTrip(t *testing.T) {
	server := testutil.NewMockWP()
	t.Cleanup(server.Close)
	server.SetListing("posts", []map[string]any{testutil.Post(1, "Hit")}, 10)

	nav := history.NewMemoryNavigator(history.Entry{Path: "/posts"})
	cfg := DefaultConfig(server.URL(), "posts")
	cfg.MetaFields = map[string]query.MetaType{"price": query.MetaNumber}

	ctrl, err := New(context.Background(), cfg, nav, Hooks{}, nil)
	require.NoError(t, err)

	ctrl.SetMetaFilter(context.Background(), "price", 100)
	assert.NotEmpty(t, server.Queries().Get("meta_query"))
	assert.Contains(t, server.Queries().Get("meta_query"), `"relation":"AND"`)

	ctrl.ClearMetaFilters(context.Background())
	assert.Empty(t, server.Queries().Get("meta_query"))
}

// writeListing serves a fixed listing page with the pagination headers, for
// handlers that need per-request behavior beyond SetListing.
func writeListing(w http.ResponseWriter, items []map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-WP-Total", strconv.Itoa(len(items)))
	w.Header().Set("X-WP-TotalPages", "1")
	json.NewEncoder(w).Encode(items)
}

func TestSupersededResponseIsDiscarded(t *testing.T) {
	server := testutil.NewMockWP()
	t.Cleanup(server.Close)

	slowStarted := make(chan struct{})
	var once sync.Once
	server.SetHandler("/wp-json/wp/v2/posts", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("search") == "slow" {
			once.Do(func() { close(slowStarted) })
			time.Sleep(300 * time.Millisecond)
			writeListing(w, []map[string]any{testutil.Post(1, "Slow")})
			return
		}
		writeListing(w, []map[string]any{
			testutil.Post(2, "Fast"),
			testutil.Post(3, "Fast"),
		})
	})

	nav := history.NewMemoryNavigator(history.Entry{Path: "/posts"})
	ctrl, err := New(context.Background(), DefaultConfig(server.URL(), "posts"), nav, Hooks{}, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ctrl.SetSearch(context.Background(), "slow")
	}()
	<-slowStarted

	ctrl.SetSearch(context.Background(), "fast")
	wg.Wait()

	// the later request wins: the delayed response is discarded without
	// touching state or history
	assert.Equal(t, "fast", ctrl.Params().Search())
	assert.Equal(t, StateLoaded, ctrl.State())
	assert.Len(t, ctrl.Items(), 2)

	assert.Equal(t, 2, nav.Len())
	entry, err := nav.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fast", entry.State.Search())
}

func TestSupersededRestoreDoesNotSuppressLaterPush(t *testing.T) {
	server := testutil.NewMockWP()
	t.Cleanup(server.Close)
	server.SetListing("posts", []map[string]any{testutil.Post(1, "Post")}, 10)

	nav := history.NewMemoryNavigator(history.Entry{Path: "/posts"})
	ctrl, err := New(context.Background(), DefaultConfig(server.URL(), "posts"), nav, Hooks{}, nil)
	require.NoError(t, err)

	ctrl.SetSearch(context.Background(), "a")
	require.Equal(t, 2, nav.Len())

	// the restore refetches with an empty search; delay it so a new
	// interaction supersedes it mid-flight
	restoreStarted := make(chan struct{})
	var once sync.Once
	server.SetHandler("/wp-json/wp/v2/posts", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("search") == "" {
			once.Do(func() { close(restoreStarted) })
			time.Sleep(300 * time.Millisecond)
		}
		writeListing(w, []map[string]any{testutil.Post(1, "Post")})
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, nav.Back())
	}()
	<-restoreStarted

	ctrl.SetSearch(context.Background(), "b")
	wg.Wait()

	// the abandoned restore consumed its own suppression; the new
	// interaction's entry must be pushed
	assert.Equal(t, "b", ctrl.Params().Search())
	assert.Equal(t, 2, nav.Len())
	entry, err := nav.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b", entry.State.Search())
}

func TestNewClampsPageFromCraftedQueryString(t *testing.T) {
	server := testutil.NewMockWP()
	t.Cleanup(server.Close)
	server.SetListing("posts", []map[string]any{testutil.Post(1, "Post")}, 10)

	nav := history.NewMemoryNavigator(history.Entry{
		Path:  "/posts",
		Query: "pagenum=0&per_page=5",
	})

	ctrl, err := New(context.Background(), DefaultConfig(server.URL(), "posts"), nav, Hooks{}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, ctrl.Params().Page())
	assert.Equal(t, "1", server.Queries().Get("page"))
}

func TestWindowTracksCurrentState(t *testing.T) {
	ctrl, _, _ := newTestController(t, 45, Hooks{}, nil)

	tokens := ctrl.Window()
	require.Len(t, tokens, 5)
	for i, token := range tokens {
		assert.Equal(t, i+1, token.Page)
		assert.False(t, token.Ellipsis)
	}
}
