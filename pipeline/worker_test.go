package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scopeDirs(t *testing.T, baseDir string) []string {
	t.Helper()

	entries, err := os.ReadDir(baseDir)
	require.NoError(t, err)

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		}
	}

	return dirs
}

func TestWorkerAcquireSuccess(t *testing.T) {
	t.Parallel()

	baseDir := t.TempDir()
	worker := &Worker{
		baseDir: baseDir,
		transfer: func(ctx context.Context, dir string, source ResolvedSource, constraint FormatConstraint) error {
			return os.WriteFile(filepath.Join(dir, artifactBaseName+".m4a"), []byte("not really audio"), 0o600)
		},
	}

	artifact, fail := worker.Acquire(
		context.Background(),
		zerolog.Nop(),
		ResolvedSource{Address: "source://a", EstimatedBitrateKbps: nil},
		ConstraintFor(TierHigh),
		time.Second,
	)
	require.Nil(t, fail)
	require.NotNil(t, artifact)

	assert.Equal(t, "m4a", artifact.Format.Extension)
	assert.Equal(t, int64(len("not really audio")), artifact.SizeBytes)
	assert.FileExists(t, artifact.Path)

	require.NoError(t, artifact.Release())
	assert.Empty(t, scopeDirs(t, baseDir))

	// Release after handoff is idempotent.
	require.NoError(t, artifact.Release())
}

func TestWorkerAcquireTimeout(t *testing.T) {
	t.Parallel()

	const timeout = 50 * time.Millisecond

	baseDir := t.TempDir()
	worker := &Worker{
		baseDir: baseDir,
		transfer: func(ctx context.Context, dir string, source ResolvedSource, constraint FormatConstraint) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}

	start := time.Now()
	artifact, fail := worker.Acquire(
		context.Background(),
		zerolog.Nop(),
		ResolvedSource{Address: "source://slow", EstimatedBitrateKbps: nil},
		ConstraintFor(TierStandard),
		timeout,
	)
	elapsed := time.Since(start)

	assert.Nil(t, artifact)
	require.NotNil(t, fail)
	assert.Equal(t, FailureTimeout, fail.Kind)
	assert.Less(t, elapsed, timeout+500*time.Millisecond)
	assert.Empty(t, scopeDirs(t, baseDir))
}

func TestWorkerAcquireCancellation(t *testing.T) {
	t.Parallel()

	baseDir := t.TempDir()
	worker := &Worker{
		baseDir: baseDir,
		transfer: func(ctx context.Context, dir string, source ResolvedSource, constraint FormatConstraint) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	artifact, fail := worker.Acquire(
		ctx,
		zerolog.Nop(),
		ResolvedSource{Address: "source://canceled", EstimatedBitrateKbps: nil},
		ConstraintFor(TierStandard),
		time.Minute,
	)
	assert.Nil(t, artifact)
	require.NotNil(t, fail)
	assert.Equal(t, FailureBackendError, fail.Kind)
	assert.Empty(t, scopeDirs(t, baseDir))
}

func TestWorkerAcquireArtifactMissing(t *testing.T) {
	t.Parallel()

	baseDir := t.TempDir()
	worker := &Worker{
		baseDir: baseDir,
		transfer: func(ctx context.Context, dir string, source ResolvedSource, constraint FormatConstraint) error {
			return nil
		},
	}

	artifact, fail := worker.Acquire(
		context.Background(),
		zerolog.Nop(),
		ResolvedSource{Address: "source://empty", EstimatedBitrateKbps: nil},
		ConstraintFor(TierPremium),
		time.Second,
	)
	assert.Nil(t, artifact)
	require.NotNil(t, fail)
	assert.Equal(t, FailureArtifactMissing, fail.Kind)
	assert.Empty(t, scopeDirs(t, baseDir))
}

func TestWorkerAcquirePrefersRequestedContainer(t *testing.T) {
	t.Parallel()

	baseDir := t.TempDir()
	worker := &Worker{
		baseDir: baseDir,
		transfer: func(ctx context.Context, dir string, source ResolvedSource, constraint FormatConstraint) error {
			for _, name := range []string{artifactBaseName + ".webm", artifactBaseName + ".m4a"} {
				if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); nil != err {
					return err
				}
			}

			return nil
		},
	}

	artifact, fail := worker.Acquire(
		context.Background(),
		zerolog.Nop(),
		ResolvedSource{Address: "source://multi", EstimatedBitrateKbps: nil},
		ConstraintFor(TierHigh),
		time.Second,
	)
	require.Nil(t, fail)
	require.NotNil(t, artifact)
	assert.Equal(t, "m4a", artifact.Format.Extension)

	require.NoError(t, artifact.Release())
}
