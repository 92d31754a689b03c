// Package history keeps navigation state and a listing's query parameters in
// lockstep: pushing entries as parameters change, and restoring parameters
// when the host navigates back or forward.
package history

import (
	"context"

	"github.com/wpbrowse/wp-listing-client/pkg/params"
)

// Entry is one navigation history entry: a location plus the parameter
// snapshot that reproduces the listing state at that location. State is nil
// for entries that never carried a snapshot, such as the address typed at
// mount time.
type Entry struct {
	Path  string             `json:"path"`
	Query string             `json:"query"`
	State params.QueryParams `json:"state,omitempty"`
}

// Navigator is the port to whatever owns the address bar: a real browser
// bridge, an in-memory stack for tests and TUIs, or a persisted session
// store. Implementations must invoke the registered pop listener on every
// back/forward navigation, passing the entry navigated to and whether it
// carries a snapshot.
type Navigator interface {
	// Current returns the entry the host is currently on.
	Current(ctx context.Context) (Entry, error)

	// Push appends an entry after the current one and makes it current,
	// discarding any forward entries.
	Push(ctx context.Context, entry Entry) error

	// OnPop registers the back/forward listener. Only one listener is
	// supported; registering again replaces it.
	OnPop(fn func(entry Entry, hasState bool))
}
