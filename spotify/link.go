package spotify

import (
	"errors"
	"net/url"
	"strings"
)

var ErrUnsupportedLink = errors.New("unsupported link")

type LinkKind int

func (k LinkKind) String() string {
	switch k {
	case LinkKindTrack:
		return "track"
	case LinkKindPlaylist:
		return "playlist"
	case LinkKindAlbum:
		return "album"
	}

	return "unknown"
}

const (
	LinkKindTrack LinkKind = iota
	LinkKindPlaylist
	LinkKindAlbum
)

type Link struct {
	Kind LinkKind
	ID   string
}

func kindFromTag(tag string) (LinkKind, bool) {
	switch tag {
	case "track":
		return LinkKindTrack, true
	case "playlist":
		return LinkKindPlaylist, true
	case "album":
		return LinkKindAlbum, true
	default:
		return 0, false
	}
}

// ParseLink extracts the resource kind and id from a share link. Both the web
// URL form (https://host/.../track/id, any host) and the URI form
// (prefix:track:id) are accepted. Share decorations such as query parameters
// and locale path segments are ignored.
func ParseLink(l string) (Link, error) {
	l = strings.TrimSpace(l)

	if u, err := url.Parse(l); nil == err && strings.HasPrefix(u.Scheme, "http") {
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i, part := range parts {
			if kind, ok := kindFromTag(part); ok && i+1 < len(parts) && parts[i+1] != "" {
				return Link{Kind: kind, ID: parts[i+1]}, nil
			}
		}

		return Link{}, ErrUnsupportedLink //nolint:exhaustruct
	}

	if parts := strings.Split(l, ":"); len(parts) >= 3 {
		var (
			tag = parts[len(parts)-2]
			id  = parts[len(parts)-1]
		)
		if kind, ok := kindFromTag(tag); ok && id != "" {
			return Link{Kind: kind, ID: id}, nil
		}
	}

	return Link{}, ErrUnsupportedLink //nolint:exhaustruct
}
