package bot_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xeptore/musicflow/bot"
)

func TestIsSpotifyURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{
			name:     "valid track URL",
			url:      "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC",
			expected: true,
		},
		{
			name:     "valid album URL",
			url:      "https://open.spotify.com/album/6dVIqQ8qmQ5GBnJ9shOYGE",
			expected: true,
		},
		{
			name:     "valid playlist URL",
			url:      "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M",
			expected: true,
		},
		{
			name:     "valid track URL with share query",
			url:      "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=abc123",
			expected: true,
		},
		{
			name:     "valid track URL with locale segment",
			url:      "https://open.spotify.com/intl-de/track/4uLU6hMCjMI75M1A2tKUQC",
			expected: true,
		},
		{
			name:     "artist URL is unsupported",
			url:      "https://open.spotify.com/artist/0gxyHStUsqpMadRV0Di1Qt",
			expected: false,
		},
		{
			name:     "http scheme",
			url:      "http://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC",
			expected: false,
		},
		{
			name:     "wrong host",
			url:      "https://example.com/track/4uLU6hMCjMI75M1A2tKUQC",
			expected: false,
		},
		{
			name:     "bare host",
			url:      "https://open.spotify.com",
			expected: false,
		},
		{
			name:     "not a URL",
			url:      "just some text",
			expected: false,
		},
		{
			name:     "empty string",
			url:      "",
			expected: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, bot.IsSpotifyURL(tt.url))
		})
	}
}
