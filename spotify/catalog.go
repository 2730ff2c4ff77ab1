package spotify

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/xeptore/musicflow/iterutil"
	"github.com/xeptore/musicflow/pipeline"
)

const (
	albumTracksPageSize    = 50
	playlistTracksPageSize = 100
)

type artistItem struct {
	Name string `json:"name"`
}

func joinArtists(artists []artistItem) string {
	names := iterutil.Map(artists, func(_ int, a artistItem) string { return a.Name })

	return strings.Join(names, ", ")
}

type trackItem struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	DurationMS int64        `json:"duration_ms"`
	Artists    []artistItem `json:"artists"`
}

func (t trackItem) descriptor() pipeline.TrackDescriptor {
	return pipeline.TrackDescriptor{
		ID:         t.ID,
		Title:      t.Name,
		Artist:     joinArtists(t.Artists),
		DurationMS: t.DurationMS,
	}
}

type albumItem struct {
	Name    string       `json:"name"`
	Artists []artistItem `json:"artists"`
}

type playlistItem struct {
	Name  string `json:"name"`
	Owner struct {
		DisplayName string `json:"display_name"`
	} `json:"owner"`
}

// Collection is the resolved contents of a link: its tracks in catalog order
// plus the metadata chat messages use to name it. Owner holds the album
// artist or the playlist owner; for a single track it holds the track artist.
type Collection struct {
	Name   string
	Owner  string
	Tracks []pipeline.TrackDescriptor
}

// Tracks expands a parsed link into the collection of every track it refers
// to, in catalog order.
func (c *Client) Tracks(ctx context.Context, logger zerolog.Logger, link Link) (*Collection, error) {
	switch link.Kind {
	case LinkKindTrack:
		desc, err := c.FetchTrack(ctx, logger, link.ID)
		if nil != err {
			return nil, err
		}

		return &Collection{
			Name:   desc.Title,
			Owner:  desc.Artist,
			Tracks: []pipeline.TrackDescriptor{*desc},
		}, nil
	case LinkKindPlaylist:
		return c.FetchPlaylist(ctx, logger, link.ID)
	case LinkKindAlbum:
		return c.FetchAlbum(ctx, logger, link.ID)
	}

	return nil, fmt.Errorf("%w: link kind %q", ErrUnsupportedLink, link.Kind.String())
}

func (c *Client) FetchTrack(ctx context.Context, logger zerolog.Logger, id string) (*pipeline.TrackDescriptor, error) {
	reqURL, err := url.JoinPath(catalogBaseURL, "tracks", id)
	if nil != err {
		return nil, fmt.Errorf("failed to build track URL: %v", err)
	}

	respBytes, err := c.get(ctx, logger, reqURL)
	if nil != err {
		return nil, fmt.Errorf("failed to get track %s: %w", id, err)
	}

	var item trackItem
	if err := json.Unmarshal(respBytes, &item); nil != err {
		return nil, fmt.Errorf("failed to decode track response body: %w", err)
	}

	return lo.ToPtr(item.descriptor()), nil
}

func (c *Client) FetchAlbum(ctx context.Context, logger zerolog.Logger, id string) (*Collection, error) {
	metaURL, err := url.JoinPath(catalogBaseURL, "albums", id)
	if nil != err {
		return nil, fmt.Errorf("failed to build album URL: %v", err)
	}

	metaBytes, err := c.get(ctx, logger, metaURL)
	if nil != err {
		return nil, fmt.Errorf("failed to get album %s: %w", id, err)
	}

	var meta albumItem
	if err := json.Unmarshal(metaBytes, &meta); nil != err {
		return nil, fmt.Errorf("failed to decode album response body: %w", err)
	}

	coll := &Collection{Name: meta.Name, Owner: joinArtists(meta.Artists), Tracks: nil}
	for offset := 0; ; offset += albumTracksPageSize {
		reqURL, err := url.JoinPath(catalogBaseURL, "albums", id, "tracks")
		if nil != err {
			return nil, fmt.Errorf("failed to build album tracks URL: %v", err)
		}

		queryParams := make(url.Values, 2)
		queryParams.Add("limit", strconv.Itoa(albumTracksPageSize))
		queryParams.Add("offset", strconv.Itoa(offset))

		respBytes, err := c.get(ctx, logger, reqURL+"?"+queryParams.Encode())
		if nil != err {
			return nil, fmt.Errorf("failed to get album %s tracks page at offset %d: %w", id, offset, err)
		}

		var respBody struct {
			Items []trackItem `json:"items"`
			Next  *string     `json:"next"`
		}
		if err := json.Unmarshal(respBytes, &respBody); nil != err {
			return nil, fmt.Errorf("failed to decode album tracks response body: %w", err)
		}

		for _, item := range respBody.Items {
			coll.Tracks = append(coll.Tracks, item.descriptor())
		}

		if nil == respBody.Next {
			return coll, nil
		}
	}
}

func (c *Client) FetchPlaylist(ctx context.Context, logger zerolog.Logger, id string) (*Collection, error) {
	metaURL, err := url.JoinPath(catalogBaseURL, "playlists", id)
	if nil != err {
		return nil, fmt.Errorf("failed to build playlist URL: %v", err)
	}

	metaParams := url.Values{"fields": []string{"name,owner(display_name)"}}
	metaBytes, err := c.get(ctx, logger, metaURL+"?"+metaParams.Encode())
	if nil != err {
		return nil, fmt.Errorf("failed to get playlist %s: %w", id, err)
	}

	var meta playlistItem
	if err := json.Unmarshal(metaBytes, &meta); nil != err {
		return nil, fmt.Errorf("failed to decode playlist response body: %w", err)
	}

	coll := &Collection{Name: meta.Name, Owner: meta.Owner.DisplayName, Tracks: nil}
	for offset := 0; ; offset += playlistTracksPageSize {
		reqURL, err := url.JoinPath(catalogBaseURL, "playlists", id, "tracks")
		if nil != err {
			return nil, fmt.Errorf("failed to build playlist tracks URL: %v", err)
		}

		queryParams := make(url.Values, 2)
		queryParams.Add("limit", strconv.Itoa(playlistTracksPageSize))
		queryParams.Add("offset", strconv.Itoa(offset))

		respBytes, err := c.get(ctx, logger, reqURL+"?"+queryParams.Encode())
		if nil != err {
			return nil, fmt.Errorf("failed to get playlist %s tracks page at offset %d: %w", id, offset, err)
		}

		var respBody struct {
			Items []struct {
				IsLocal bool       `json:"is_local"`
				Track   *trackItem `json:"track"`
			} `json:"items"`
			Next *string `json:"next"`
		}
		if err := json.Unmarshal(respBytes, &respBody); nil != err {
			return nil, fmt.Errorf("failed to decode playlist tracks response body: %w", err)
		}

		for _, item := range respBody.Items {
			// Local files and withdrawn tracks carry no catalog entry.
			if item.IsLocal || nil == item.Track || item.Track.ID == "" {
				continue
			}

			coll.Tracks = append(coll.Tracks, item.Track.descriptor())
		}

		if nil == respBody.Next {
			return coll, nil
		}
	}
}
