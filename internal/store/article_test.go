package store

import (
	"reflect"
	"testing"
)

func TestBuildListConditions(t *testing.T) {
	tests := []struct {
		name      string
		filter    ArticleFilter
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "defaults filter to published only",
			filter:    ArticleFilter{},
			wantWhere: "WHERE a.published = TRUE",
		},
		{
			name:      "published false removes the published filter",
			filter:    ArticleFilter{Published: "false"},
			wantWhere: "",
		},
		{
			// Any other value keeps the published-only filter; there is
			// no way to request only-unpublished through this surface.
			name:      "published true keeps the published filter",
			filter:    ArticleFilter{Published: "true"},
			wantWhere: "WHERE a.published = TRUE",
		},
		{
			name:      "featured true adds the featured filter",
			filter:    ArticleFilter{Featured: "true"},
			wantWhere: "WHERE a.published = TRUE AND a.featured = TRUE",
		},
		{
			name:      "featured anything else is unfiltered",
			filter:    ArticleFilter{Featured: "false"},
			wantWhere: "WHERE a.published = TRUE",
		},
		{
			name:      "category filters on the joined slug",
			filter:    ArticleFilter{Category: "teknologi"},
			wantWhere: "WHERE a.published = TRUE AND c.slug = $1",
			wantArgs:  []any{"teknologi"},
		},
		{
			name:      "department filter",
			filter:    ArticleFilter{Department: "rpl"},
			wantWhere: "WHERE a.published = TRUE AND a.department = $1",
			wantArgs:  []any{"rpl"},
		},
		{
			name:      "search matches title or content",
			filter:    ArticleFilter{Search: "rpl"},
			wantWhere: "WHERE a.published = TRUE AND (a.title ILIKE $1 OR a.content ILIKE $1)",
			wantArgs:  []any{"%rpl%"},
		},
		{
			name: "combined filters number their placeholders in order",
			filter: ArticleFilter{
				Category:   "teknologi",
				Department: "tkj",
				Search:     "robot",
				Featured:   "true",
			},
			wantWhere: "WHERE a.published = TRUE AND a.featured = TRUE AND c.slug = $1 AND a.department = $2 AND (a.title ILIKE $3 OR a.content ILIKE $3)",
			wantArgs:  []any{"teknologi", "tkj", "%robot%"},
		},
		{
			name:      "published false with search still applies search",
			filter:    ArticleFilter{Published: "false", Search: "ujian"},
			wantWhere: "WHERE (a.title ILIKE $1 OR a.content ILIKE $1)",
			wantArgs:  []any{"%ujian%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildListConditions(tt.filter)
			if where != tt.wantWhere {
				t.Errorf("where = %q, want %q", where, tt.wantWhere)
			}
			if len(args) == 0 && len(tt.wantArgs) == 0 {
				return
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}
