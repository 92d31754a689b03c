package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initialParams() QueryParams {
	return New(10, "", "desc", "date", 5, map[string][]int{"category": {2}}, nil)
}

func TestReduce_PageSelectionKeepsPage(t *testing.T) {
	p := initialParams()

	next := Reduce(p, SetPage{Page: 3})

	assert.Equal(t, 3, next.Page())
	// input untouched
	assert.Equal(t, 5, p.Page())
}

func TestReduce_NonPageActionsResetPage(t *testing.T) {
	tests := []struct {
		name   string
		action Action
	}{
		{"search", SetSearch{Query: "espresso"}},
		{"order", SetOrder{Order: "asc"}},
		{"orderby", SetOrderBy{Field: "title"}},
		{"per page", SetPerPage{PerPage: 24}},
		{"taxonomy", SetTaxonomyTerms{Taxonomy: "category", Terms: []int{9}}},
		{"toggle term", ToggleTerm{Taxonomy: "category", Term: 9}},
		{"meta filter", SetMetaFilter{Field: "price", Value: 10}},
		{"clear meta filters", ClearMetaFilters{}},
		{"refresh", Refresh{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := Reduce(initialParams(), tt.action)
			assert.Equal(t, 1, next.Page())
		})
	}
}

func TestReduce_ToggleTerm(t *testing.T) {
	p := initialParams()

	next := Reduce(p, ToggleTerm{Taxonomy: "category", Term: 7})
	assert.Equal(t, []int{2, 7}, next.TaxonomyTerms("category"))

	next = Reduce(next, ToggleTerm{Taxonomy: "category", Term: 2})
	assert.Equal(t, []int{7}, next.TaxonomyTerms("category"))
}

func TestReduce_MetaFilters(t *testing.T) {
	p := initialParams()

	next := Reduce(p, SetMetaFilter{Field: "price", Value: float64(10)})
	mq := next.MetaQuery()
	require.Contains(t, mq, "price")
	assert.Equal(t, map[string]any{"field": "price", "value": float64(10)}, mq["price"])

	next = Reduce(next, ClearMetaFilters{})
	assert.Empty(t, next.MetaQuery())
}

func TestReduce_ReplaceKeepsSnapshotPage(t *testing.T) {
	snapshot := QueryParams{
		"search":  "restored",
		"pagenum": float64(7),
	}

	next := Reduce(initialParams(), Replace{Params: snapshot})

	assert.Equal(t, 7, next.Page())
	assert.Equal(t, "restored", next.Search())
	// keys absent from the snapshot are gone
	_, ok := next["category"]
	assert.False(t, ok)
}

func TestReduce_RefreshBumpsVer(t *testing.T) {
	p := initialParams()
	assert.Equal(t, 0, p.Ver())

	next := Reduce(p, Refresh{})
	assert.Equal(t, 1, next.Ver())

	next = Reduce(next, Refresh{})
	assert.Equal(t, 2, next.Ver())
}

func TestReduce_PageFloorsAtOne(t *testing.T) {
	next := Reduce(initialParams(), SetPage{Page: 0})
	assert.Equal(t, 1, next.Page())
}

func TestNew_NormalizedShape(t *testing.T) {
	p := New(10, "q", "asc", "title", 2, map[string][]int{"post_tag": {4, 1}}, map[string]MetaClause{
		"price": {Field: "price", Value: float64(5)},
	})

	normalized, err := p.Normalize()
	require.NoError(t, err)
	assert.True(t, p.Equal(normalized), "New must produce JSON-normalized values")
	assert.Equal(t, []int{4, 1}, p.TaxonomyTerms("post_tag"))
}
