// Package resource reshapes raw backend records into display-ready listing
// resources: rendered-text normalization, featured-image lookup, and
// taxonomy-term grouping.
package resource

import (
	"bytes"
	"encoding/json"
)

// Text is a title or excerpt field as the backend ships it: either a bare
// string or an object carrying a rendered HTML string. The variant is
// resolved once at decode time; consumers only ever see the resolved string.
type Text struct {
	value string
}

// PlainText builds a resolved Text value, mostly for tests and fixtures.
func PlainText(s string) Text {
	return Text{value: s}
}

// String returns the resolved text, "" when the field was absent.
func (t Text) String() string {
	return t.value
}

// UnmarshalJSON accepts both shapes: "plain string" and {"rendered": "..."}.
func (t *Text) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.value = ""
		return nil
	}

	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		t.value = plain
		return nil
	}

	var rendered struct {
		Rendered string `json:"rendered"`
	}
	if err := json.Unmarshal(data, &rendered); err != nil {
		return err
	}
	t.value = rendered.Rendered
	return nil
}

// MarshalJSON writes the rendered-object shape.
func (t Text) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Rendered string `json:"rendered"`
	}{Rendered: t.value})
}

// Term is one classification value within a taxonomy.
type Term struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Taxonomy string `json:"taxonomy"`
}

// MediaSize is one rendition of a media item.
type MediaSize struct {
	SourceURL string `json:"source_url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Media is an embedded featured-media record.
type Media struct {
	ID           int    `json:"id"`
	AltText      string `json:"alt_text"`
	MediaDetails struct {
		Sizes map[string]MediaSize `json:"sizes"`
	} `json:"media_details"`
}

// Embedded carries the relations the backend inlines under _embedded when
// the request asks for them.
type Embedded struct {
	FeaturedMedia []Media  `json:"wp:featuredmedia"`
	Terms         [][]Term `json:"wp:term"`
}

// RawItem is a backend-shaped listing record.
type RawItem struct {
	ID       int       `json:"id"`
	Date     string    `json:"date"`
	Slug     string    `json:"slug"`
	Link     string    `json:"link"`
	Title    Text      `json:"title"`
	Excerpt  Text      `json:"excerpt"`
	Embedded *Embedded `json:"_embedded"`
}

// Resource is a RawItem after transformation: plain title/excerpt, terms
// grouped by taxonomy, and a featured-image accessor.
type Resource struct {
	ID      int
	Date    string
	Slug    string
	Link    string
	Title   string
	Excerpt string

	// Terms maps taxonomy name to its terms in encounter order. The
	// post_tag taxonomy appears under "tags".
	Terms map[string][]Term

	media []Media
}

// SizeFull is the fallback rendition when no size is named or the named
// size is missing.
const SizeFull = "full"

// tagTaxonomy is renamed to "tags" in the grouped terms.
const tagTaxonomy = "post_tag"

// Transform reshapes one raw record. It is total over well-formed records:
// absent optional fields degrade to zero values instead of failing.
func Transform(raw RawItem) Resource {
	res := Resource{
		ID:      raw.ID,
		Date:    raw.Date,
		Slug:    raw.Slug,
		Link:    raw.Link,
		Title:   raw.Title.String(),
		Excerpt: raw.Excerpt.String(),
	}

	if raw.Embedded == nil {
		return res
	}
	res.media = raw.Embedded.FeaturedMedia

	for _, group := range raw.Embedded.Terms {
		for _, term := range group {
			name := term.Taxonomy
			if name == tagTaxonomy {
				name = "tags"
			}
			if res.Terms == nil {
				res.Terms = map[string][]Term{}
			}
			res.Terms[name] = append(res.Terms[name], term)
		}
	}
	return res
}

// TransformAll reshapes a whole page of raw records, preserving order.
func TransformAll(raw []RawItem) []Resource {
	out := make([]Resource, len(raw))
	for i, item := range raw {
		out[i] = Transform(item)
	}
	return out
}

// FeaturedImage returns the source URL of the featured image in the named
// size. An empty size, or a size the media does not carry, falls back to
// "full". The second return is false when the record has no usable image.
func (r Resource) FeaturedImage(size string) (string, bool) {
	if len(r.media) == 0 {
		return "", false
	}

	sizes := r.media[0].MediaDetails.Sizes
	if len(sizes) == 0 {
		return "", false
	}

	rendition, ok := sizes[size]
	if size == "" || !ok {
		rendition, ok = sizes[SizeFull]
	}
	if !ok || rendition.SourceURL == "" {
		return "", false
	}
	return rendition.SourceURL, true
}
