// Package pagination computes display pagination for a listing and batch
// fetches paginated queries.
//
// The WordPress REST API reports paging through the x-wp-total and
// x-wp-totalpages response headers. Window turns that metadata into the
// bounded, ellipsis-aware page list a pagination control renders:
//
//	tokens := pagination.Window(currentPage, data.TotalPages)
//	for _, tok := range tokens {
//		if tok.Ellipsis { ... } else { render(tok.Page) }
//	}
//
// BatchFetcher retrieves every page of a query through a worker pool, for
// export-style consumers that want the complete result set:
//
//	fetcher := pagination.NewBatchFetcher(pageFetcher, pagination.DefaultConfig())
//	items, err := fetcher.FetchAll(ctx)
//
// The batch fetcher fetches page 1 to learn the page count, distributes the
// remaining pages across workers, and returns partial results together with
// the first error when a page fails.
package pagination
