package pagination

// Data is the pagination metadata of the last successful fetch, taken from
// the x-wp-total and x-wp-totalpages response headers.
type Data struct {
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Token is one entry of a pagination control: a page number, or an ellipsis
// standing in for an omitted range.
type Token struct {
	Page     int
	Ellipsis bool
}

// page and gap build tokens; they keep Window readable.
func page(n int) Token { return Token{Page: n} }
func gap() Token       { return Token{Ellipsis: true} }

// windowRadius is how many pages show on each side of the current page once
// the full range no longer fits.
const windowRadius = 4

// fullRangeMax is the largest page count rendered without elision.
const fullRangeMax = 10

// Window computes the bounded, ellipsis-aware page tokens for a pagination
// control.
//
// Zero pages yields no tokens, and up to ten pages are rendered in full.
// Beyond that, a nine-page window surrounds the current page; when the
// window would run past either end, the unused allowance shifts entirely to
// the other side. Pages 1 and totalPages always appear, separated from the
// window by an ellipsis unless directly adjacent to it.
func Window(currentPage, totalPages int) []Token {
	if totalPages <= 0 {
		return []Token{}
	}
	if currentPage < 1 {
		currentPage = 1
	}
	if currentPage > totalPages {
		currentPage = totalPages
	}

	if totalPages <= fullRangeMax {
		tokens := make([]Token, 0, totalPages)
		for n := 1; n <= totalPages; n++ {
			tokens = append(tokens, page(n))
		}
		return tokens
	}

	lo := currentPage - windowRadius
	hi := currentPage + windowRadius
	if lo < 1 {
		hi += 1 - lo
		lo = 1
	}
	if hi > totalPages {
		lo -= hi - totalPages
		hi = totalPages
		if lo < 1 {
			lo = 1
		}
	}

	tokens := make([]Token, 0, hi-lo+5)

	if lo > 1 {
		tokens = append(tokens, page(1))
		if lo > 2 {
			tokens = append(tokens, gap())
		}
	}
	for n := lo; n <= hi; n++ {
		tokens = append(tokens, page(n))
	}
	if hi < totalPages {
		if hi < totalPages-1 {
			tokens = append(tokens, gap())
		}
		tokens = append(tokens, page(totalPages))
	}
	return tokens
}
