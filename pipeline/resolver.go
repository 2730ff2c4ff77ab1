package pipeline

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"

	"github.com/xeptore/musicflow/ratelimit"
)

// Resolver finds one candidate playable source for a track descriptor.
type Resolver interface {
	Resolve(ctx context.Context, logger zerolog.Logger, desc TrackDescriptor) (*ResolvedSource, *Failure)
}

var (
	parenthetical = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// SearchQuery builds the search string for a descriptor. Deterministic: the
// same descriptor always yields the same query. Parenthetical noise such as
// "(Remastered 2011)" hurts search relevance and is stripped.
func SearchQuery(desc TrackDescriptor) string {
	title := whitespace.ReplaceAllString(parenthetical.ReplaceAllString(desc.Title, ""), " ")
	artist := whitespace.ReplaceAllString(parenthetical.ReplaceAllString(desc.Artist, ""), " ")

	return strings.TrimSpace(strings.TrimSpace(title) + " " + strings.TrimSpace(artist))
}

// SearchResolver resolves descriptors through the search backend, requesting
// the single best match. Ranking is the backend's business; the first result
// wins. It never retries; retry policy belongs to the caller.
type SearchResolver struct{}

func NewSearchResolver() *SearchResolver {
	return &SearchResolver{}
}

func (r *SearchResolver) Resolve(
	ctx context.Context,
	logger zerolog.Logger,
	desc TrackDescriptor,
) (*ResolvedSource, *Failure) {
	query := SearchQuery(desc)
	logger = logger.With().Str("query", query).Logger()

	select {
	case <-ctx.Done():
		return nil, ctxFailure(ctx, "search canceled")
	case <-time.After(ratelimit.SearchJitter()):
	}

	dl := ytdlp.
		New().
		SkipDownload().
		DumpSingleJSON().
		NoPlaylist().
		NoWarnings().
		SocketTimeout(20)

	res, err := dl.Run(ctx, "ytsearch1:"+query)
	if nil != err {
		if ctxErr := ctx.Err(); nil != ctxErr {
			return nil, ctxFailure(ctx, "search canceled")
		}

		logger.Error().Err(err).Msg("Search backend call failed")

		return nil, NewFailure(FailureBackendError, "search backend call failed: "+err.Error())
	}

	entries := gjson.Get(res.Stdout, "entries")
	if !entries.Exists() || len(entries.Array()) == 0 {
		logger.Debug().Msg("Search backend returned no candidates")
		return nil, NewFailure(FailureNotFound, "no search candidates for query: "+query)
	}

	first := entries.Array()[0]
	address := first.Get("webpage_url").String()
	if address == "" {
		address = first.Get("url").String()
	}
	if address == "" {
		return nil, NewFailure(FailureBackendError, "search candidate carries no address")
	}

	var estimated *int
	if abr := first.Get("abr"); abr.Exists() && abr.Float() > 0 {
		estimated = lo.ToPtr(int(abr.Float()))
	}

	logger.Debug().Str("address", address).Msg("Resolved source")

	return &ResolvedSource{Address: address, EstimatedBitrateKbps: estimated}, nil
}

func ctxFailure(ctx context.Context, msg string) *Failure {
	if ctx.Err() == context.DeadlineExceeded {
		return NewFailure(FailureTimeout, msg+": deadline exceeded")
	}

	return NewFailure(FailureBackendError, msg)
}
