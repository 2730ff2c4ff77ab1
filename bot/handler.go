package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/xeptore/musicflow/pipeline"
	"github.com/xeptore/musicflow/progress"
	"github.com/xeptore/musicflow/spotify"
)

const qualityCallbackPrefix = "quality:"

func qualityKeyboard() gotgbot.InlineKeyboardMarkup {
	return gotgbot.InlineKeyboardMarkup{
		InlineKeyboard: [][]gotgbot.InlineKeyboardButton{
			{
				{Text: "128 kbps", CallbackData: qualityCallbackPrefix + pipeline.TierStandard.String()}, //nolint:exhaustruct
				{Text: "192 kbps", CallbackData: qualityCallbackPrefix + pipeline.TierHigh.String()},     //nolint:exhaustruct
				{Text: "320 kbps", CallbackData: qualityCallbackPrefix + pipeline.TierPremium.String()},  //nolint:exhaustruct
			},
		},
	}
}

func NewStartCommandHandler(ctx context.Context) handlers.Response {
	return func(b *gotgbot.Bot, u *ext.Context) error {
		sendOpt := &gotgbot.SendMessageOpts{ //nolint:exhaustruct
			ReplyParameters: &gotgbot.ReplyParameters{ //nolint:exhaustruct
				MessageId: u.EffectiveMessage.MessageId,
			},
		}
		msg := strings.Join([]string{
			"👋 Hi! Send me a Spotify track, album, or playlist link and I'll fetch the audio for you.",
			"",
			"Use /help to see what I can do, or /demo to try me with a sample track.",
		}, "\n")
		if _, err := b.SendMessageWithContext(ctx, u.EffectiveMessage.Chat.Id, msg, sendOpt); nil != err {
			return fmt.Errorf("failed to send message: %w", err)
		}

		return nil
	}
}

func NewHelpCommandHandler(ctx context.Context) handlers.Response {
	return func(b *gotgbot.Bot, u *ext.Context) error {
		sendOpt := &gotgbot.SendMessageOpts{ //nolint:exhaustruct
			ReplyParameters: &gotgbot.ReplyParameters{ //nolint:exhaustruct
				MessageId: u.EffectiveMessage.MessageId,
			},
		}
		msg := strings.Join([]string{
			"🎵 Send a Spotify link and pick an audio quality:",
			"",
			"• Track links download a single song.",
			"• Album and playlist links download every track.",
			"",
			"Commands:",
			"/demo — try me with a sample track",
			"/cancel — stop the download in progress",
		}, "\n")
		if _, err := b.SendMessageWithContext(ctx, u.EffectiveMessage.Chat.Id, msg, sendOpt); nil != err {
			return fmt.Errorf("failed to send message: %w", err)
		}

		return nil
	}
}

func NewSpotifyLinkHandler(ctx context.Context, logger zerolog.Logger, sessions *Sessions) handlers.Response {
	return func(b *gotgbot.Bot, u *ext.Context) error {
		chatID := u.EffectiveMessage.Chat.Id
		sendOpt := &gotgbot.SendMessageOpts{ //nolint:exhaustruct
			ReplyParameters: &gotgbot.ReplyParameters{ //nolint:exhaustruct
				MessageId: u.EffectiveMessage.MessageId,
			},
		}

		link, err := spotify.ParseLink(getMessageURL(u.EffectiveMessage))
		if nil != err {
			if errors.Is(err, spotify.ErrUnsupportedLink) {
				msg := "🚫 I can only handle track, album, and playlist links."
				if _, err := b.SendMessageWithContext(ctx, chatID, msg, sendOpt); nil != err {
					return fmt.Errorf("failed to send message: %w", err)
				}

				return nil
			}

			return fmt.Errorf("failed to parse link: %w", err)
		}

		logger.Debug().
			Int64("chat_id", chatID).
			Str("link_id", link.ID).
			Str("link_kind", link.Kind.String()).
			Msg("Parsed link")

		sessions.Put(chatID, link)

		keyboardOpt := &gotgbot.SendMessageOpts{ //nolint:exhaustruct
			ReplyParameters: &gotgbot.ReplyParameters{ //nolint:exhaustruct
				MessageId: u.EffectiveMessage.MessageId,
			},
			ReplyMarkup: qualityKeyboard(),
		}
		msg := "🎚 Choose an audio quality for this " + link.Kind.String() + ":"
		if _, err := b.SendMessageWithContext(ctx, chatID, msg, keyboardOpt); nil != err {
			return fmt.Errorf("failed to send message: %w", err)
		}

		return nil
	}
}

func NewDemoCommandHandler(ctx context.Context, logger zerolog.Logger, sessions *Sessions) handlers.Response {
	return func(b *gotgbot.Bot, u *ext.Context) error {
		chatID := u.EffectiveMessage.Chat.Id

		track := pickDemoTrack()
		link, err := spotify.ParseLink(track.URL)
		if nil != err {
			return fmt.Errorf("failed to parse demo track link: %w", err)
		}

		sessions.Put(chatID, link)

		sendOpt := &gotgbot.SendMessageOpts{ //nolint:exhaustruct
			ReplyParameters: &gotgbot.ReplyParameters{ //nolint:exhaustruct
				MessageId: u.EffectiveMessage.MessageId,
			},
			ReplyMarkup: qualityKeyboard(),
		}
		msg := "🎲 Demo track: " + track.Title + "\n🎚 Choose an audio quality:"
		if _, err := b.SendMessageWithContext(ctx, chatID, msg, sendOpt); nil != err {
			return fmt.Errorf("failed to send message: %w", err)
		}

		return nil
	}
}

func NewCancelCommandHandler(ctx context.Context, worker *Worker) handlers.Response {
	return func(b *gotgbot.Bot, u *ext.Context) error {
		worker.CancelJob()

		sendOpt := &gotgbot.SendMessageOpts{ //nolint:exhaustruct
			ReplyParameters: &gotgbot.ReplyParameters{ //nolint:exhaustruct
				MessageId: u.EffectiveMessage.MessageId,
			},
		}
		if _, err := b.SendMessageWithContext(ctx, u.EffectiveMessage.Chat.Id, "⏹️ Canceled.", sendOpt); nil != err {
			return fmt.Errorf("failed to send message: %w", err)
		}

		return nil
	}
}

func NewQualityCallbackHandler(ctx context.Context, logger zerolog.Logger, deps *Deps) handlers.Response {
	return func(b *gotgbot.Bot, u *ext.Context) error {
		cb := u.CallbackQuery
		if _, err := cb.Answer(b, nil); nil != err {
			logger.Warn().Err(err).Msg("Failed to answer callback query")
		}

		chatID := u.EffectiveChat.Id
		logger := logger.
			With().
			Int64("chat_id", chatID).
			Int64("sender_id", u.EffectiveSender.Id()).
			Logger()

		sendOpt := &gotgbot.SendMessageOpts{} //nolint:exhaustruct

		tier, err := pipeline.ParseTier(strings.TrimPrefix(cb.Data, qualityCallbackPrefix))
		if nil != err {
			msg := "🚫 That quality option is not recognized."
			if _, err := b.SendMessageWithContext(ctx, chatID, msg, sendOpt); nil != err {
				return fmt.Errorf("failed to send message: %w", err)
			}

			return nil
		}

		link, ok := deps.Sessions.Pop(chatID)
		if !ok {
			msg := "🤷 There is no pending link. Send me a Spotify link first."
			if _, err := b.SendMessageWithContext(ctx, chatID, msg, sendOpt); nil != err {
				return fmt.Errorf("failed to send message: %w", err)
			}

			return nil
		}

		jobCtx, job, ok := deps.Worker.TryAcquireJob(ctx)
		if !ok {
			msg := "⏳ Another download is in progress. Try again later."
			if _, err := b.SendMessageWithContext(ctx, chatID, msg, sendOpt); nil != err {
				return fmt.Errorf("failed to send message: %w", err)
			}

			return nil
		}
		defer job.Cancel()

		logger.Debug().
			Str("link_id", link.ID).
			Str("link_kind", link.Kind.String()).
			Str("tier", tier.String()).
			Msg("Starting download batch")

		statusMsg, err := b.SendMessageWithContext(ctx, chatID, "🔍 Looking up track list...", sendOpt)
		if nil != err {
			return fmt.Errorf("failed to send message: %w", err)
		}

		coll, err := deps.Catalog.Tracks(jobCtx, logger, link)
		if nil != err {
			return sendCatalogError(ctx, logger, b, chatID, jobCtx, err, sendOpt)
		}

		descriptors := coll.Tracks
		if len(descriptors) == 0 {
			msg := "🤷 " + collectionTitle(coll) + " has no downloadable tracks."
			if _, err := b.SendMessageWithContext(ctx, chatID, msg, sendOpt); nil != err {
				return fmt.Errorf("failed to send message: %w", err)
			}

			return nil
		}

		banner := fmt.Sprintf(
			"⬇️ Downloading %s (%d %s)...",
			collectionTitle(coll),
			len(descriptors),
			lo.Ternary(len(descriptors) == 1, "track", "tracks"),
		)
		bannerOpt := &gotgbot.EditMessageTextOpts{} //nolint:exhaustruct
		if _, _, err := statusMsg.EditText(b, banner, bannerOpt); nil != err {
			logger.Warn().Err(err).Msg("Failed to edit status message")
		}

		onProgress := func(ev pipeline.ProgressEvent) {
			editOpt := &gotgbot.EditMessageTextOpts{} //nolint:exhaustruct
			if _, _, err := statusMsg.EditText(b, progress.Render(ev), editOpt); nil != err {
				logger.Warn().Err(err).Msg("Failed to edit progress message")
			}
		}

		result, err := deps.Orch.RunBatch(jobCtx, logger, descriptors, tier, onProgress)
		if nil != err {
			if errors.Is(err, pipeline.ErrBatchTooLarge) {
				msg := fmt.Sprintf("🚫 %s has too many tracks for one request (%d max).", collectionTitle(coll), deps.Orch.MaxBatchSize())
				if _, err := b.SendMessageWithContext(ctx, chatID, msg, sendOpt); nil != err {
					return fmt.Errorf("failed to send message: %w", err)
				}

				return nil
			}

			return fmt.Errorf("failed to run download batch: %w", err)
		}
		defer func() {
			// Artifacts already delivered were released on handoff; this
			// sweeps whatever delivery did not reach.
			for _, outcome := range result.Outcomes {
				if nil != outcome.Artifact {
					if releaseErr := outcome.Artifact.Release(); nil != releaseErr {
						logger.Error().Err(releaseErr).Msg("Failed to release artifact storage")
					}
				}
			}
		}()

		var (
			delivered int
			failed    []string
		)
		for i, outcome := range result.Outcomes {
			desc := descriptors[i]
			if !outcome.Succeeded() {
				failed = append(failed, "• "+desc.Title+" — "+desc.Artist+" ("+humanReason(outcome.Failure.Kind)+")")
				continue
			}

			if err := deliverTrack(ctx, logger, b, chatID, desc, outcome.Artifact); nil != err {
				logger.Error().Err(err).Str("track_id", desc.ID).Msg("Failed to deliver track")
				failed = append(failed, "• "+desc.Title+" — "+desc.Artist+" (delivery failed)")
				continue
			}

			delivered++
		}

		logger.Info().
			Str("pipeline_summary", result.Summary()).
			Int("delivered", delivered).
			Msg("Batch finished")

		if _, err := b.SendMessageWithContext(ctx, chatID, deliverySummary(delivered, result.Total, failed), sendOpt); nil != err {
			return fmt.Errorf("failed to send message: %w", err)
		}

		return nil
	}
}

func collectionTitle(coll *spotify.Collection) string {
	if coll.Owner == "" {
		return coll.Name
	}

	return coll.Name + " · " + coll.Owner
}

// deliverySummary counts handed-off uploads, not pipeline successes, so a
// track that downloaded but failed to send is never reported as delivered.
func deliverySummary(delivered, total int, failed []string) string {
	lines := []string{fmt.Sprintf("✅ Delivered %d/%d tracks.", delivered, total)}
	if len(failed) > 0 {
		lines = append(lines, "", "Not delivered:")
		lines = append(lines, failed...)
	}

	return strings.Join(lines, "\n")
}

func sendCatalogError(
	ctx context.Context,
	logger zerolog.Logger,
	b *gotgbot.Bot,
	chatID int64,
	jobCtx context.Context,
	catalogErr error,
	sendOpt *gotgbot.SendMessageOpts,
) error {
	var msg string
	switch {
	case errors.Is(catalogErr, spotify.ErrNotFound):
		msg = "🤷 I could not find that on Spotify. The link may be stale."
	case errors.Is(catalogErr, spotify.ErrTooManyRequests):
		msg = "⏳ The catalog is throttling me right now. Try again in a minute."
	case errors.Is(jobCtx.Err(), context.Canceled):
		msg = "⏹️ Download was canceled."
	case errors.Is(catalogErr, context.DeadlineExceeded):
		msg = "⌛️ The catalog lookup timed out. Try again later."
	default:
		logger.Error().Err(catalogErr).Msg("Failed to fetch track list")
		msg = "❌ Failed to fetch the track list. See logs for details."
	}

	if _, err := b.SendMessageWithContext(ctx, chatID, msg, sendOpt); nil != err {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

func humanReason(kind pipeline.FailureKind) string {
	switch kind {
	case pipeline.FailureNotFound:
		return "no source found"
	case pipeline.FailureBackendError:
		return "download failed"
	case pipeline.FailureTimeout:
		return "timed out"
	case pipeline.FailureArtifactMissing:
		return "no audio produced"
	case pipeline.FailureUnsupported:
		return "not supported"
	case pipeline.FailureInvalidQuality:
		return "bad quality tier"
	}

	return "failed"
}
