package cache

import (
	"net/url"
	"testing"
)

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "endpoint only",
			key:  Key{Endpoint: "/wp-json/wp/v2/posts"},
			want: "wp:wp-json/wp/v2/posts",
		},
		{
			name: "query params sorted",
			key: Key{
				Endpoint: "/wp-json/wp/v2/posts",
				QueryParams: url.Values{
					"search":   []string{"coffee"},
					"page":     []string{"2"},
					"per_page": []string{"10"},
				},
			},
			want: "wp:wp-json/wp/v2/posts:page=2:per_page=10:search=coffee",
		},
		{
			name: "empty endpoint",
			key:  Key{},
			want: "wp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKey_Deterministic(t *testing.T) {
	key := Key{
		Endpoint:    "/wp-json/wp/v2/posts",
		QueryParams: url.Values{"b": []string{"2"}, "a": []string{"1"}, "c": []string{"3"}},
	}

	first := key.String()
	for i := 0; i < 20; i++ {
		if got := key.String(); got != first {
			t.Fatalf("String() not deterministic: %q != %q", got, first)
		}
	}
}
