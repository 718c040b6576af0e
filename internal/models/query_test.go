package models

import "testing"

func TestSearchQuery_EffectiveLimit(t *testing.T) {
	tests := []struct {
		name      string
		query     *SearchQuery
		wantLimit int
	}{
		{"zero limit gets default", &SearchQuery{Query: "stocks", Limit: 0}, MaxSearchLimit},
		{"negative limit gets default", &SearchQuery{Query: "stocks", Limit: -3}, MaxSearchLimit},
		{"limit above cap is capped", &SearchQuery{Query: "stocks", Limit: 50}, MaxSearchLimit},
		{"small limit kept", &SearchQuery{Query: "stocks", Limit: 3}, 3},
		{"empty query is legal", &SearchQuery{Query: ""}, MaxSearchLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.query.Limit
			if got := tt.query.EffectiveLimit(); got != tt.wantLimit {
				t.Errorf("EffectiveLimit() = %d, want %d", got, tt.wantLimit)
			}
			if tt.query.Limit != before {
				t.Errorf("EffectiveLimit() mutated Limit: %d -> %d", before, tt.query.Limit)
			}
		})
	}
}

func TestArticle_Preview(t *testing.T) {
	short := &Article{Description: "brief"}
	if got := short.Preview(); got != "brief" {
		t.Errorf("Preview() = %q, want %q", got, "brief")
	}

	long := make([]rune, PreviewLen+50)
	for i := range long {
		long[i] = 'x'
	}
	a := &Article{Description: string(long)}
	if got := a.Preview(); len([]rune(got)) != PreviewLen {
		t.Errorf("Preview() length = %d, want %d", len([]rune(got)), PreviewLen)
	}
}
