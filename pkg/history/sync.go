package history

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/wpbrowse/wp-listing-client/pkg/params"
)

// Prometheus metrics for history synchronization.
var (
	historyPushesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wp_history_pushes_total",
		Help: "Total history entries pushed by the listing",
	})

	historyPushesSuppressedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wp_history_pushes_suppressed_total",
		Help: "Total history pushes suppressed after a restore or mount",
	})

	historyPopsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wp_history_pops_total",
		Help: "Total back/forward navigations observed",
	})
)

// Sync keeps a navigator and the listing parameters consistent. It owns the
// suppression flag: a restore (pop) or the initial mount must not be
// re-pushed by the parameter-change reaction it triggers, so exactly one
// subsequent Record is swallowed after either event.
type Sync struct {
	nav    Navigator
	logger zerolog.Logger

	mu           sync.Mutex
	suppressNext bool
}

// NewSync creates a Sync for a navigator. The first Record is suppressed:
// the mount location is already the current entry.
func NewSync(nav Navigator, logger zerolog.Logger) *Sync {
	return &Sync{
		nav:          nav,
		logger:       logger,
		suppressNext: true,
	}
}

// Suppress arms the one-shot suppression flag.
func (s *Sync) Suppress() {
	s.mu.Lock()
	s.suppressNext = true
	s.mu.Unlock()
}

// TakeSuppression consumes an armed suppression and reports whether the
// caller's upcoming push should be skipped. A reaction whose fetch may be
// abandoned mid-flight must take the flag when it begins, not when it
// records: the reaction that starts while the flag is armed owns it, and a
// discarded reaction must not leave it armed for the next interaction.
func (s *Sync) TakeSuppression() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.suppressNext {
		return false
	}
	s.suppressNext = false
	historyPushesSuppressedTotal.Inc()
	s.logger.Debug().Msg("History push suppressed")
	return true
}

// Record pushes a history entry for the given location and snapshot, unless
// suppression is armed. The flag is consumed either way.
func (s *Sync) Record(ctx context.Context, path, query string, snapshot params.QueryParams) error {
	s.mu.Lock()
	suppressed := s.suppressNext
	s.suppressNext = false
	s.mu.Unlock()

	if suppressed {
		historyPushesSuppressedTotal.Inc()
		s.logger.Debug().Str("path", path).Msg("History push suppressed")
		return nil
	}

	entry := Entry{Path: path, Query: query, State: snapshot.Clone()}
	if err := s.nav.Push(ctx, entry); err != nil {
		return err
	}

	historyPushesTotal.Inc()
	s.logger.Debug().
		Str("path", path).
		Str("query", query).
		Msg("History entry pushed")
	return nil
}

// Bind registers the restore handler for back/forward navigation. The
// handler receives the entry's snapshot, or ok=false when the entry carries
// none and initial parameters must be recomputed. Suppression is armed
// before the handler runs so the reaction it triggers does not push a
// duplicate entry.
func (s *Sync) Bind(onRestore func(snapshot params.QueryParams, ok bool)) {
	s.nav.OnPop(func(entry Entry, hasState bool) {
		historyPopsTotal.Inc()
		s.Suppress()
		s.logger.Debug().
			Str("path", entry.Path).
			Bool("has_state", hasState).
			Msg("Navigation pop observed")

		if hasState {
			onRestore(entry.State.Clone(), true)
		} else {
			onRestore(nil, false)
		}
	})
}

// Current exposes the navigator's current entry.
func (s *Sync) Current(ctx context.Context) (Entry, error) {
	return s.nav.Current(ctx)
}
