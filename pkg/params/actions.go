package params

// Action is a single state transition applied to a parameter set via Reduce.
// The set of actions is closed: every interaction a listing supports maps to
// exactly one action type.
type Action interface {
	apply(p QueryParams)

	// keepsPage reports whether the action is a page selection. Every other
	// action forces the page back to 1 when reduced.
	keepsPage() bool
}

// Reduce applies an action to a parameter set and returns the successor
// state. The input is never mutated. Unless the action is a page selection
// (or a wholesale restore), the page resets to 1.
func Reduce(p QueryParams, a Action) QueryParams {
	next := p.Clone()
	a.apply(next)
	if !a.keepsPage() {
		next[KeyPage] = float64(1)
	}
	if next.Page() < 1 {
		next[KeyPage] = float64(1)
	}
	return next
}

// SetSearch replaces the search string.
type SetSearch struct{ Query string }

func (a SetSearch) apply(p QueryParams) { p[KeySearch] = a.Query }
func (a SetSearch) keepsPage() bool     { return false }

// SetOrder replaces the sort direction.
type SetOrder struct{ Order string }

func (a SetOrder) apply(p QueryParams) { p[KeyOrder] = a.Order }
func (a SetOrder) keepsPage() bool     { return false }

// SetOrderBy replaces the sort field.
type SetOrderBy struct{ Field string }

func (a SetOrderBy) apply(p QueryParams) { p[KeyOrderBy] = a.Field }
func (a SetOrderBy) keepsPage() bool     { return false }

// SetPage selects a page. This is the only interaction that survives the
// page-reset policy.
type SetPage struct{ Page int }

func (a SetPage) apply(p QueryParams) {
	page := a.Page
	if page < 1 {
		page = 1
	}
	p[KeyPage] = float64(page)
}
func (a SetPage) keepsPage() bool { return true }

// SetPerPage replaces the page size.
type SetPerPage struct{ PerPage int }

func (a SetPerPage) apply(p QueryParams) { p[KeyPerPage] = float64(a.PerPage) }
func (a SetPerPage) keepsPage() bool     { return false }

// SetTaxonomyTerms replaces the selected term IDs of one taxonomy.
type SetTaxonomyTerms struct {
	Taxonomy string
	Terms    []int
}

func (a SetTaxonomyTerms) apply(p QueryParams) { p[a.Taxonomy] = termList(a.Terms) }
func (a SetTaxonomyTerms) keepsPage() bool     { return false }

// ToggleTerm adds a term to a taxonomy selection, or removes it when already
// selected. Selection order is preserved.
type ToggleTerm struct {
	Taxonomy string
	Term     int
}

func (a ToggleTerm) apply(p QueryParams) {
	current, _ := p[a.Taxonomy].([]any)
	out := make([]any, 0, len(current)+1)
	removed := false
	for _, v := range current {
		if n, ok := toInt(v); ok && n == a.Term {
			removed = true
			continue
		}
		out = append(out, v)
	}
	if !removed {
		out = append(out, float64(a.Term))
	}
	p[a.Taxonomy] = out
}
func (a ToggleTerm) keepsPage() bool { return false }

// SetMetaFilter sets one meta_query clause, keyed by field name.
type SetMetaFilter struct {
	Field string
	Value any
}

func (a SetMetaFilter) apply(p QueryParams) {
	mq, ok := p[KeyMetaQuery].(map[string]any)
	if !ok {
		mq = map[string]any{}
	}
	mq[a.Field] = map[string]any{"field": a.Field, "value": a.Value}
	p[KeyMetaQuery] = mq
}
func (a SetMetaFilter) keepsPage() bool { return false }

// ClearMetaFilters drops every meta_query clause.
type ClearMetaFilters struct{}

func (a ClearMetaFilters) apply(p QueryParams) { p[KeyMetaQuery] = map[string]any{} }
func (a ClearMetaFilters) keepsPage() bool     { return false }

// Replace swaps in a complete parameter set, used when restoring a history
// snapshot. The snapshot's page is kept as-is.
type Replace struct{ Params QueryParams }

func (a Replace) apply(p QueryParams) {
	for k := range p {
		delete(p, k)
	}
	for k, v := range a.Params.Clone() {
		p[k] = v
	}
}
func (a Replace) keepsPage() bool { return true }

// Refresh bumps the cache-busting counter so the next request bypasses any
// cached response.
type Refresh struct{}

func (a Refresh) apply(p QueryParams) {
	n, _ := toInt(p[KeyVer])
	p[KeyVer] = float64(n + 1)
}
func (a Refresh) keepsPage() bool { return false }
