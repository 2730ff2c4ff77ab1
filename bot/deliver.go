package bot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/rs/zerolog"

	"github.com/xeptore/musicflow/pipeline"
	"github.com/xeptore/musicflow/unit"
)

func deliverTrack(
	ctx context.Context,
	logger zerolog.Logger,
	b *gotgbot.Bot,
	chatID int64,
	desc pipeline.TrackDescriptor,
	artifact *pipeline.AcquiredArtifact,
) (err error) {
	logger = logger.With().Str("track_id", desc.ID).Logger()

	audioFile, err := os.Open(artifact.Path)
	if nil != err {
		logger.Error().Err(err).Msg("Failed to open artifact file")
		return fmt.Errorf("failed to open artifact file: %v", err)
	}
	defer func() {
		if closeErr := audioFile.Close(); nil != closeErr {
			logger.Error().Err(closeErr).Msg("Failed to close artifact file")
			err = errors.Join(err, fmt.Errorf("failed to close artifact file: %v", closeErr))
		}
	}()

	fileName := audioFileName(desc, artifact.Format.Extension)
	audioMedia := gotgbot.InputFileByReader(fileName, audioFile)
	sendOpts := &gotgbot.SendAudioOpts{ //nolint:exhaustruct
		Duration:  int64(desc.DurationMS / 1000),
		Performer: desc.Artist,
		Title:     desc.Title,
		Caption:   unit.FormatBytes(artifact.SizeBytes),
	}
	if _, err := b.SendAudioWithContext(ctx, chatID, audioMedia, sendOpts); nil != err {
		logger.Error().Err(err).Msg("Failed to send audio")
		return fmt.Errorf("failed to send audio: %v", err)
	}

	// The artifact is in Telegram's hands now, its local copy is done for.
	if err := artifact.Release(); nil != err {
		logger.Error().Err(err).Msg("Failed to release artifact storage")
		return fmt.Errorf("failed to release artifact storage: %v", err)
	}

	return nil
}

func audioFileName(desc pipeline.TrackDescriptor, ext string) string {
	name := desc.Artist + " - " + desc.Title
	if desc.Artist == "" {
		name = desc.Title
	}

	replacer := strings.NewReplacer("/", "_", "\\", "_", "\x00", "")

	return replacer.Replace(name) + "." + ext
}
