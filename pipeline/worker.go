package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/lrstanley/go-ytdlp"
	"github.com/rs/zerolog"

	"github.com/xeptore/musicflow/pipeline/fs"
)

// Acquirer downloads a resolved source into exclusively-owned temporary
// storage. One call is one attempt; retries are a batch-level decision.
type Acquirer interface {
	Acquire(
		ctx context.Context,
		logger zerolog.Logger,
		source ResolvedSource,
		constraint FormatConstraint,
		timeout time.Duration,
	) (*AcquiredArtifact, *Failure)
}

const artifactBaseName = "audio"

type transferFunc func(ctx context.Context, dir string, source ResolvedSource, constraint FormatConstraint) error

type Worker struct {
	baseDir  string
	transfer transferFunc
}

func NewWorker(baseDir string) *Worker {
	return &Worker{baseDir: baseDir, transfer: runTransfer}
}

func runTransfer(ctx context.Context, dir string, source ResolvedSource, constraint FormatConstraint) error {
	dl := ytdlp.
		New().
		Format(constraint.Selector()).
		Output(filepath.Join(dir, artifactBaseName+".%(ext)s")).
		NoPlaylist().
		NoWarnings().
		Retries("0").
		FragmentRetries("0").
		SocketTimeout(20)

	if _, err := dl.Run(ctx, source.Address); nil != err {
		return err
	}

	return nil
}

func (w *Worker) Acquire(
	ctx context.Context,
	logger zerolog.Logger,
	source ResolvedSource,
	constraint FormatConstraint,
	timeout time.Duration,
) (*AcquiredArtifact, *Failure) {
	scope, err := fs.NewScope(w.baseDir)
	if nil != err {
		logger.Error().Err(err).Msg("Failed to allocate job storage scope")
		return nil, NewFailure(FailureBackendError, "failed to allocate storage scope: "+err.Error())
	}

	artifact, fail := w.acquireInto(ctx, logger, scope, source, constraint, timeout)
	if nil != fail {
		// Partial bytes are discarded with the scope on every failure path.
		if releaseErr := scope.Release(); nil != releaseErr {
			logger.Error().Err(releaseErr).Msg("Failed to release job storage scope")
		}

		return nil, fail
	}

	return artifact, nil
}

func (w *Worker) acquireInto(
	ctx context.Context,
	logger zerolog.Logger,
	scope *fs.Scope,
	source ResolvedSource,
	constraint FormatConstraint,
	timeout time.Duration,
) (*AcquiredArtifact, *Failure) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := w.transfer(ctx, scope.Dir(), source, constraint); nil != err {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			logger.Warn().Dur("timeout", timeout).Msg("Transfer exceeded its time budget")
			return nil, NewFailure(FailureTimeout, "transfer exceeded "+timeout.String())
		}

		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, NewFailure(FailureBackendError, "transfer canceled")
		}

		logger.Error().Err(err).Msg("Transfer failed")

		return nil, NewFailure(FailureBackendError, "transfer failed: "+err.Error())
	}

	// The backend may substitute the container format, so locate what it
	// actually produced.
	path, err := scope.Find(artifactBaseName, constraint.Containers)
	if nil != err {
		if errors.Is(err, fs.ErrNoArtifact) {
			logger.Error().Msg("Transfer reported success but produced no output file")
			return nil, NewFailure(FailureArtifactMissing, "no output file after reported-successful transfer")
		}

		logger.Error().Err(err).Msg("Failed to scan job storage scope")

		return nil, NewFailure(FailureBackendError, "failed to scan storage scope: "+err.Error())
	}

	info, err := os.Stat(path)
	if nil != err {
		return nil, NewFailure(FailureBackendError, "failed to stat output file: "+err.Error())
	}

	format := ArtifactFormat{
		Extension: strings.TrimPrefix(filepath.Ext(path), "."),
		MIME:      "application/octet-stream",
	}
	if mtype, err := mimetype.DetectFile(path); nil == err {
		format.MIME = mtype.String()
	} else {
		logger.Warn().Err(err).Msg("Failed to detect artifact MIME type")
	}

	logger.Debug().
		Str("path", path).
		Int64("size_bytes", info.Size()).
		Str("mime", format.MIME).
		Msg("Artifact acquired")

	return &AcquiredArtifact{
		Path:      path,
		SizeBytes: info.Size(),
		Format:    format,
		scope:     scope,
	}, nil
}
