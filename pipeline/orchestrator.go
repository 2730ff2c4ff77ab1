package pipeline

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/xeptore/musicflow/config"
	"github.com/xeptore/musicflow/iterutil"
)

var ErrBatchTooLarge = errors.New("batch exceeds the configured maximum size")

type Options struct {
	Concurrency  int
	TrackTimeout time.Duration
	// BatchTimeout of 0 means no batch-wide deadline.
	BatchTimeout time.Duration
	// MaxBatchSize of 0 means unbounded.
	MaxBatchSize int
}

func OptionsFromConfig(conf config.Pipeline) Options {
	return Options{
		Concurrency:  conf.Concurrency,
		TrackTimeout: conf.TrackTimeout.Duration,
		BatchTimeout: conf.BatchTimeout.Duration,
		MaxBatchSize: conf.MaxBatchSize,
	}
}

// Orchestrator drives batches of track descriptors through resolution and
// acquisition under the concurrency limiter. Safe for concurrent use; the
// limiter bounds in-flight jobs across all batches it runs.
type Orchestrator struct {
	resolver Resolver
	acquirer Acquirer
	limiter  *Limiter
	opts     Options
}

func NewOrchestrator(resolver Resolver, acquirer Acquirer, opts Options) *Orchestrator {
	return &Orchestrator{
		resolver: resolver,
		acquirer: acquirer,
		limiter:  NewLimiter(opts.Concurrency),
		opts:     opts,
	}
}

func (o *Orchestrator) MaxBatchSize() int {
	return o.opts.MaxBatchSize
}

// RunBatch processes descriptors concurrently up to the limiter capacity and
// returns one outcome per descriptor, in input order. A single track's
// failure never aborts the batch. A singleton batch takes the same path.
func (o *Orchestrator) RunBatch(
	ctx context.Context,
	logger zerolog.Logger,
	descriptors []TrackDescriptor,
	tier QualityTier,
	onProgress ProgressSink,
) (*BatchResult, error) {
	if !tier.Valid() {
		return nil, ErrInvalidQuality
	}

	if o.opts.MaxBatchSize > 0 && len(descriptors) > o.opts.MaxBatchSize {
		return nil, ErrBatchTooLarge
	}

	if o.opts.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.BatchTimeout)
		defer cancel()
	}

	var (
		constraint = ConstraintFor(tier)
		total      = len(descriptors)
		outcomes   = make([]JobOutcome, total)
		wg         sync.WaitGroup
		mu         sync.Mutex
		completed  int
		succeeded  int
	)

	for i, desc := range iterutil.WithIndex(slices.Values(descriptors)) {
		wg.Add(1)
		go func() {
			defer wg.Done()

			outcome := o.runJob(ctx, logger, desc, constraint)
			outcomes[i] = outcome

			mu.Lock()
			completed++
			if outcome.Succeeded() {
				succeeded++
			}
			ev := ProgressEvent{
				Index:     i,
				Total:     total,
				Completed: completed,
				Title:     desc.Title,
				Artist:    desc.Artist,
				Failure:   outcome.Failure,
			}
			mu.Unlock()

			if nil != onProgress {
				onProgress(ev)
			}
		}()
	}

	wg.Wait()

	result := &BatchResult{
		Outcomes:  outcomes,
		Succeeded: succeeded,
		Total:     total,
	}

	logger.Info().
		Int("succeeded", result.Succeeded).
		Int("total", result.Total).
		Msg("Batch completed")

	return result, nil
}

// runJob walks one descriptor through queued, resolving, and downloading. The
// limiter slot spans the full resolve+acquire sequence: both legs consume the
// external network budget the limiter protects.
func (o *Orchestrator) runJob(
	ctx context.Context,
	logger zerolog.Logger,
	desc TrackDescriptor,
	constraint FormatConstraint,
) JobOutcome {
	logger = logger.With().Dict("track", desc.ToDict()).Logger()
	logger.Debug().Str("state", stateQueued.String()).Msg("Job queued")

	if err := o.limiter.Acquire(ctx); nil != err {
		return JobOutcome{Artifact: nil, Failure: ctxFailure(ctx, "job admission canceled")}
	}
	defer o.limiter.Release()

	logger.Debug().Str("state", stateResolving.String()).Msg("Resolving source")
	source, fail := o.resolver.Resolve(ctx, logger, desc)
	if nil != fail {
		logger.Debug().Str("state", stateFailed.String()).Str("failure", fail.Kind.String()).Msg("Job failed")
		return JobOutcome{Artifact: nil, Failure: fail}
	}

	logger.Debug().Str("state", stateDownloading.String()).Msg("Acquiring artifact")
	artifact, fail := o.acquirer.Acquire(ctx, logger, *source, constraint, o.opts.TrackTimeout)
	if nil != fail {
		logger.Debug().Str("state", stateFailed.String()).Str("failure", fail.Kind.String()).Msg("Job failed")
		return JobOutcome{Artifact: nil, Failure: fail}
	}

	logger.Debug().Str("state", stateSucceeded.String()).Msg("Job succeeded")

	return JobOutcome{Artifact: artifact, Failure: nil}
}
