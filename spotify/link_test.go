package spotify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/musicflow/spotify"
)

func TestParseLink(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected spotify.Link
	}{
		{
			name:     "track url",
			input:    "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC",
			expected: spotify.Link{Kind: spotify.LinkKindTrack, ID: "4uLU6hMCjMI75M1A2tKUQC"},
		},
		{
			name:     "playlist url with share query",
			input:    "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc123",
			expected: spotify.Link{Kind: spotify.LinkKindPlaylist, ID: "37i9dQZF1DXcBWIGoYBM5M"},
		},
		{
			name:     "album url with locale segment",
			input:    "https://open.spotify.com/intl-fr/album/6dVIqQ8qmQ5GBnJ9shOYGE",
			expected: spotify.Link{Kind: spotify.LinkKindAlbum, ID: "6dVIqQ8qmQ5GBnJ9shOYGE"},
		},
		{
			name:     "any host",
			input:    "https://x/track/AA11",
			expected: spotify.Link{Kind: spotify.LinkKindTrack, ID: "AA11"},
		},
		{
			name:     "uri form",
			input:    "spotify:track:4uLU6hMCjMI75M1A2tKUQC",
			expected: spotify.Link{Kind: spotify.LinkKindTrack, ID: "4uLU6hMCjMI75M1A2tKUQC"},
		},
		{
			name:     "uri form any prefix",
			input:    "scheme:album:BB22",
			expected: spotify.Link{Kind: spotify.LinkKindAlbum, ID: "BB22"},
		},
		{
			name:     "surrounding whitespace",
			input:    "  https://open.spotify.com/track/AA11  ",
			expected: spotify.Link{Kind: spotify.LinkKindTrack, ID: "AA11"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			link, err := spotify.ParseLink(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, link)
		})
	}
}

func TestParseLinkUnsupported(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "unknown url kind", input: "https://x/unknown/ZZ"},
		{name: "unknown uri kind", input: "spotify:artist:CC33"},
		{name: "missing id", input: "https://open.spotify.com/track/"},
		{name: "bare host", input: "https://open.spotify.com"},
		{name: "not a link", input: "hello there"},
		{name: "empty", input: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := spotify.ParseLink(tt.input)
			assert.ErrorIs(t, err, spotify.ErrUnsupportedLink)
		})
	}
}
