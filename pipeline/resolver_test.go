package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xeptore/musicflow/pipeline"
)

func TestSearchQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		desc     pipeline.TrackDescriptor
		expected string
	}{
		{
			name:     "plain",
			desc:     pipeline.TrackDescriptor{ID: "1", Title: "Karma Police", Artist: "Radiohead", DurationMS: 0},
			expected: "Karma Police Radiohead",
		},
		{
			name:     "strips parenthetical",
			desc:     pipeline.TrackDescriptor{ID: "2", Title: "One (Remastered 2011)", Artist: "Metallica", DurationMS: 0},
			expected: "One Metallica",
		},
		{
			name:     "strips brackets",
			desc:     pipeline.TrackDescriptor{ID: "3", Title: "Intro [Live]", Artist: "The xx", DurationMS: 0},
			expected: "Intro The xx",
		},
		{
			name:     "collapses whitespace",
			desc:     pipeline.TrackDescriptor{ID: "4", Title: "So  What", Artist: "Miles   Davis", DurationMS: 0},
			expected: "So What Miles Davis",
		},
		{
			name:     "empty artist",
			desc:     pipeline.TrackDescriptor{ID: "5", Title: "Untitled", Artist: "", DurationMS: 0},
			expected: "Untitled",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, pipeline.SearchQuery(tt.desc))

			// Deterministic across calls.
			assert.Equal(t, pipeline.SearchQuery(tt.desc), pipeline.SearchQuery(tt.desc))
		})
	}
}
