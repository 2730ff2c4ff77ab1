package progress_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xeptore/musicflow/pipeline"
	"github.com/xeptore/musicflow/progress"
)

func TestBar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		completed int
		total     int
		expected  string
	}{
		{name: "empty", completed: 0, total: 4, expected: "░░░░░░░░░░"},
		{name: "half", completed: 2, total: 4, expected: "█████░░░░░"},
		{name: "full", completed: 4, total: 4, expected: "██████████"},
		{name: "rounds down", completed: 1, total: 3, expected: "███░░░░░░░"},
		{name: "zero total", completed: 0, total: 0, expected: "░░░░░░░░░░"},
		{name: "over total clamps", completed: 5, total: 4, expected: "██████████"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, progress.Bar(tt.completed, tt.total))
		})
	}
}

func TestPercent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, progress.Percent(0, 3))
	assert.Equal(t, 33, progress.Percent(1, 3))
	assert.Equal(t, 100, progress.Percent(3, 3))
	assert.Equal(t, 0, progress.Percent(1, 0))
	assert.Equal(t, 100, progress.Percent(9, 3))
}

func TestRender(t *testing.T) {
	t.Parallel()

	succeeded := progress.Render(pipeline.ProgressEvent{
		Index:     0,
		Total:     2,
		Completed: 1,
		Title:     "Karma Police",
		Artist:    "Radiohead",
		Failure:   nil,
	})
	assert.Equal(t, "█████░░░░░ 50% (1/2)\n✓ Karma Police · Radiohead", succeeded)

	failed := progress.Render(pipeline.ProgressEvent{
		Index:     1,
		Total:     2,
		Completed: 2,
		Title:     "Lost Track",
		Artist:    "Nobody",
		Failure:   pipeline.NewFailure(pipeline.FailureNotFound, "no candidates"),
	})
	assert.Equal(t, "██████████ 100% (2/2)\n✗ Lost Track · Nobody (not_found)", failed)

	bare := progress.Render(pipeline.ProgressEvent{
		Index:     0,
		Total:     4,
		Completed: 1,
		Title:     "",
		Artist:    "",
		Failure:   nil,
	})
	assert.Equal(t, "██░░░░░░░░ 25% (1/4)", bare)
}
