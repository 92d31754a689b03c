// Package listing binds a paginated, filterable WordPress REST listing to
// reactive state: a query-parameter entity, fetched display resources,
// pagination metadata, and navigation history kept in lockstep.
package listing

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/wpbrowse/wp-listing-client/pkg/client"
	"github.com/wpbrowse/wp-listing-client/pkg/history"
	"github.com/wpbrowse/wp-listing-client/pkg/logging"
	"github.com/wpbrowse/wp-listing-client/pkg/pagination"
	"github.com/wpbrowse/wp-listing-client/pkg/params"
	"github.com/wpbrowse/wp-listing-client/pkg/query"
	"github.com/wpbrowse/wp-listing-client/pkg/resource"
)

// Prometheus metrics for listing reactions.
var (
	listingReactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wp_listing_reactions_total",
		Help: "Total parameter-change reactions by outcome",
	}, []string{"outcome"}) // "loaded", "errored"

	listingStaleResponsesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wp_listing_stale_responses_total",
		Help: "Total superseded fetch responses discarded",
	})
)

// State is the listing's fetch lifecycle state.
type State string

const (
	// StateIdle means no fetch has run yet.
	StateIdle State = "idle"

	// StateLoading means a fetch is in flight.
	StateLoading State = "loading"

	// StateLoaded means the last fetch succeeded.
	StateLoaded State = "loaded"

	// StateErrored means the last fetch failed; prior results are kept.
	StateErrored State = "errored"
)

// EventLoading is dispatched to the event sink when a fetch starts.
const EventLoading = "loading"

// Hooks are the host's callbacks, fired at fixed points of the reaction.
// Nil hooks are skipped.
type Hooks struct {
	// AfterCreated fires once construction is complete, before the first
	// fetch.
	AfterCreated func()

	// OnInitialLoad fires exactly once, after the first successful fetch.
	OnInitialLoad func()

	// OnParamsChange fires at the end of every reaction with the parameter
	// snapshot that drove it.
	OnParamsChange func(p params.QueryParams)
}

// EventSink receives named notifications for the embedding host. A nil sink
// drops them.
type EventSink interface {
	Dispatch(name string, detail any)
}

// Controller owns the parameter-change reaction: page-reset policy, request
// derivation, fetch, state bookkeeping, history synchronization, and hook
// dispatch, in that order. Methods are safe to call from any goroutine;
// hooks and events fire without the internal lock held.
type Controller struct {
	cfg    Config
	client *client.Client
	sync   *history.Sync
	hooks  Hooks
	sink   EventSink
	logger zerolog.Logger

	// base context for reactions triggered by navigation events, which
	// arrive without one
	baseCtx context.Context

	mu            sync.Mutex
	params        params.QueryParams
	initial       params.QueryParams
	path          string
	state         State
	items         []resource.Resource
	paging        pagination.Data
	lastErr       error
	seq           uint64
	initialLoaded bool
}

// New creates a controller and runs the mount reaction. The mount location
// is read from the navigator: a present query string reconstructs the full
// parameter state (a malformed one aborts construction), otherwise the
// configured initial values apply. The mount reaction never pushes history.
func New(ctx context.Context, cfg Config, nav history.Navigator, hooks Hooks, sink EventSink) (*Controller, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if nav == nil {
		return nil, fmt.Errorf("navigator is required")
	}

	clientCfg := client.DefaultConfig(cfg.SiteURL)
	if cfg.UserAgent != "" {
		clientCfg.UserAgent = cfg.UserAgent
	}
	clientCfg.Redis = cfg.Redis
	if cfg.Timeout > 0 {
		clientCfg.Timeout = cfg.Timeout
	}
	backend, err := client.New(clientCfg)
	if err != nil {
		return nil, err
	}

	logger := logging.NewLogger("listing")

	entry, err := nav.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("read current location: %w", err)
	}

	initial := initialParams(cfg)
	current := initial.Clone()
	if entry.Query != "" {
		restored, err := params.Deserialize(entry.Query)
		if err != nil {
			return nil, err
		}
		// Hand-crafted URLs can carry pagenum=0 or junk; re-entering
		// through the reducer applies the page floor.
		current = params.Reduce(restored, params.SetPage{Page: restored.Page()})
	}

	c := &Controller{
		cfg:     cfg,
		client:  backend,
		hooks:   hooks,
		sink:    sink,
		logger:  logger,
		baseCtx: ctx,
		params:  current,
		initial: initial,
		path:    entry.Path,
		state:   StateIdle,
	}
	c.sync = history.NewSync(nav, logger)
	c.sync.Bind(c.handleRestore)

	if hooks.AfterCreated != nil {
		hooks.AfterCreated()
	}

	c.react(ctx)
	return c, nil
}

// Apply reduces an action into the parameter entity and runs the reaction.
// The page-reset policy lives in the reducer: every action except a page
// selection forces the page back to 1.
func (c *Controller) Apply(ctx context.Context, action params.Action) {
	c.mu.Lock()
	c.params = params.Reduce(c.params, action)
	c.mu.Unlock()

	c.react(ctx)
}

// SetSearch replaces the search string.
func (c *Controller) SetSearch(ctx context.Context, search string) {
	c.Apply(ctx, params.SetSearch{Query: search})
}

// SetOrder replaces sort direction and field. The direction is validated
// synchronously; an invalid one leaves the listing untouched.
func (c *Controller) SetOrder(ctx context.Context, order, orderBy string) error {
	if !query.ValidOrder(order) {
		return &query.ValidationError{Param: "order", Message: `must be "asc" or "desc"`}
	}
	c.mu.Lock()
	c.params = params.Reduce(c.params, params.SetOrder{Order: order})
	c.params = params.Reduce(c.params, params.SetOrderBy{Field: orderBy})
	c.mu.Unlock()

	c.react(ctx)
	return nil
}

// SelectPage jumps to a page. This is the only interaction that keeps its
// page across the reaction.
func (c *Controller) SelectPage(ctx context.Context, page int) {
	c.Apply(ctx, params.SetPage{Page: page})
}

// SetPerPage replaces the page size.
func (c *Controller) SetPerPage(ctx context.Context, perPage int) {
	c.Apply(ctx, params.SetPerPage{PerPage: perPage})
}

// SetTaxonomyTerms replaces the term selection of a declared taxonomy.
// Undeclared taxonomies are inert.
func (c *Controller) SetTaxonomyTerms(ctx context.Context, taxonomy string, terms []int) {
	if _, declared := c.cfg.Taxonomies[taxonomy]; !declared {
		c.logger.Warn().Str("taxonomy", taxonomy).Msg("Ignoring undeclared taxonomy")
		return
	}
	c.Apply(ctx, params.SetTaxonomyTerms{Taxonomy: taxonomy, Terms: terms})
}

// ToggleTerm toggles one term of a declared taxonomy.
func (c *Controller) ToggleTerm(ctx context.Context, taxonomy string, term int) {
	if _, declared := c.cfg.Taxonomies[taxonomy]; !declared {
		c.logger.Warn().Str("taxonomy", taxonomy).Msg("Ignoring undeclared taxonomy")
		return
	}
	c.Apply(ctx, params.ToggleTerm{Taxonomy: taxonomy, Term: term})
}

// SetMetaFilter sets one meta_query clause.
func (c *Controller) SetMetaFilter(ctx context.Context, field string, value any) {
	c.Apply(ctx, params.SetMetaFilter{Field: field, Value: value})
}

// ClearMetaFilters drops all meta_query clauses.
func (c *Controller) ClearMetaFilters(ctx context.Context) {
	c.Apply(ctx, params.ClearMetaFilters{})
}

// Refresh bumps the cache-busting counter and refetches.
func (c *Controller) Refresh(ctx context.Context) {
	c.Apply(ctx, params.Refresh{})
}

// handleRestore is the navigation listener: a carried snapshot is restored
// verbatim (no page reset), an entry without one falls back to the initial
// parameters. The triggering reaction never pushes history; Sync armed the
// suppression before calling here.
func (c *Controller) handleRestore(snapshot params.QueryParams, ok bool) {
	c.mu.Lock()
	if ok {
		c.params = snapshot
	} else {
		c.params = c.initial.Clone()
	}
	c.mu.Unlock()

	c.react(c.baseCtx)
}

// react runs one parameter-change reaction. Responses superseded by a later
// reaction are discarded rather than applied out of order; the later
// reaction owns the history entry and hooks ("last request wins").
func (c *Controller) react(ctx context.Context) {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.state = StateLoading
	snapshot := c.params.Clone()
	c.mu.Unlock()

	// The reaction that begins while suppression is armed owns it, even if
	// its response is later discarded. Taking the flag at record time would
	// let a superseded restore leave it armed and swallow the next
	// interaction's push.
	suppressPush := c.sync.TakeSuppression()

	c.dispatch(EventLoading, snapshot)

	items, paging, err := c.fetch(ctx, snapshot)

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		listingStaleResponsesTotal.Inc()
		c.logger.Debug().Uint64("seq", seq).Msg("Discarding superseded fetch response")
		return
	}

	firstLoad := false
	if err != nil {
		c.state = StateErrored
		c.lastErr = err
		listingReactionsTotal.WithLabelValues("errored").Inc()
		c.logger.Warn().Err(err).Msg("Listing fetch failed")
	} else {
		c.items = items
		c.paging = paging
		c.state = StateLoaded
		c.lastErr = nil
		firstLoad = !c.initialLoaded
		c.initialLoaded = true
		listingReactionsTotal.WithLabelValues("loaded").Inc()
		c.logger.Debug().
			Int("items", len(items)).
			Int("total", paging.Total).
			Int("total_pages", paging.TotalPages).
			Msg("Listing loaded")
	}
	path := c.path
	c.mu.Unlock()

	if firstLoad && c.hooks.OnInitialLoad != nil {
		c.hooks.OnInitialLoad()
	}

	if !suppressPush {
		if recordErr := c.sync.Record(ctx, path, params.Serialize(snapshot), snapshot); recordErr != nil {
			c.logger.Warn().Err(recordErr).Msg("History push failed")
		}
	}

	if c.hooks.OnParamsChange != nil {
		c.hooks.OnParamsChange(snapshot)
	}
}

// fetch derives the request, calls the backend, and reshapes the response.
func (c *Controller) fetch(ctx context.Context, p params.QueryParams) ([]resource.Resource, pagination.Data, error) {
	args, err := query.Build(p, c.cfg.MetaFields)
	if err != nil {
		return nil, pagination.Data{}, err
	}

	raw, paging, err := c.client.FetchList(ctx, c.cfg.ResourceType, args)
	if err != nil {
		return nil, pagination.Data{}, err
	}
	return resource.TransformAll(raw), paging, nil
}

// FetchPage retrieves one page of the current query without touching the
// listing state. It implements pagination.PageFetcher for batch exports.
func (c *Controller) FetchPage(ctx context.Context, pageNum int) ([]resource.Resource, pagination.Data, error) {
	c.mu.Lock()
	p := c.params.Clone()
	c.mu.Unlock()

	p[params.KeyPage] = float64(pageNum)
	return c.fetch(ctx, p)
}

func (c *Controller) dispatch(name string, detail any) {
	if c.sink == nil {
		return
	}
	c.sink.Dispatch(name, detail)
}

// Params returns a copy of the current parameter entity.
func (c *Controller) Params() params.QueryParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params.Clone()
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Items returns the display resources of the last successful fetch.
func (c *Controller) Items() []resource.Resource {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items
}

// Pagination returns the paging totals of the last successful fetch.
func (c *Controller) Pagination() pagination.Data {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paging
}

// Err returns the stored fetch error, nil outside StateErrored.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Window returns the pagination tokens for the current page and totals.
func (c *Controller) Window() []pagination.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	return pagination.Window(c.params.Page(), c.paging.TotalPages)
}
