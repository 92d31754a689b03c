package listing

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/wpbrowse/wp-listing-client/pkg/params"
	"github.com/wpbrowse/wp-listing-client/pkg/query"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config is the configuration surface of a listing controller.
type Config struct {
	// SiteURL is the WordPress site root, e.g. "https://example.com".
	SiteURL string `validate:"required,url"`

	// ResourceType is the REST collection to list, e.g. "posts".
	ResourceType string `validate:"required"`

	// PerPage is the page size.
	PerPage int `validate:"gte=1,lte=100"`

	// Initial query state, used when the mount URL carries no query string.
	InitialSearch  string
	InitialOrder   string `validate:"omitempty,oneof=asc desc"`
	InitialOrderBy string
	InitialPage    int `validate:"omitempty,gte=1"`

	// Taxonomies declares every taxonomy the listing exposes, mapped to its
	// initially selected term IDs. Undeclared taxonomies are inert: no
	// parameter key is created for them.
	Taxonomies map[string][]int

	// MetaFields maps filterable/sortable meta field names to their type.
	MetaFields map[string]query.MetaType

	// InitialMetaQuery seeds the meta_query clauses.
	InitialMetaQuery map[string]params.MetaClause

	// UserAgent sent on every backend request.
	UserAgent string

	// Redis enables response caching when set.
	Redis *redis.Client

	// Timeout for a single backend request.
	Timeout time.Duration
}

// DefaultConfig returns a working configuration for a site and resource.
func DefaultConfig(siteURL, resourceType string) Config {
	return Config{
		SiteURL:        siteURL,
		ResourceType:   resourceType,
		PerPage:        10,
		InitialOrder:   "desc",
		InitialOrderBy: "date",
		InitialPage:    1,
		UserAgent:      "wp-listing-client/1.0",
		Timeout:        30 * time.Second,
	}
}

// validateConfig checks the struct tags plus the cross-field rules the tags
// cannot express.
func validateConfig(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid listing config: %w", err)
	}
	if cfg.InitialOrderBy != "" {
		// fail fast instead of surfacing the bad orderby on the first fetch
		if _, err := query.Build(params.New(1, "", "", cfg.InitialOrderBy, 1, nil, nil), cfg.MetaFields); err != nil {
			return err
		}
	}
	return nil
}

// initialParams computes the parameter entity for a fresh mount, merging the
// configured initial values with the declared taxonomy selections.
func initialParams(cfg Config) params.QueryParams {
	page := cfg.InitialPage
	if page < 1 {
		page = 1
	}
	return params.New(cfg.PerPage, cfg.InitialSearch, cfg.InitialOrder, cfg.InitialOrderBy, page, cfg.Taxonomies, cfg.InitialMetaQuery)
}
