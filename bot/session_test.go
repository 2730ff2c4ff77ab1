package bot_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/musicflow/bot"
	"github.com/xeptore/musicflow/spotify"
)

func TestSessionsPutPop(t *testing.T) {
	t.Parallel()

	sessions := bot.NewSessions()

	_, ok := sessions.Pop(1)
	assert.False(t, ok)

	sessions.Put(1, spotify.Link{Kind: spotify.LinkKindTrack, ID: "a"})
	sessions.Put(2, spotify.Link{Kind: spotify.LinkKindAlbum, ID: "b"})

	link, ok := sessions.Pop(1)
	require.True(t, ok)
	assert.Equal(t, spotify.Link{Kind: spotify.LinkKindTrack, ID: "a"}, link)

	// Popped links are consumed.
	_, ok = sessions.Pop(1)
	assert.False(t, ok)

	link, ok = sessions.Pop(2)
	require.True(t, ok)
	assert.Equal(t, "b", link.ID)
}

func TestSessionsNewLinkReplacesPending(t *testing.T) {
	t.Parallel()

	sessions := bot.NewSessions()
	sessions.Put(1, spotify.Link{Kind: spotify.LinkKindTrack, ID: "old"})
	sessions.Put(1, spotify.Link{Kind: spotify.LinkKindPlaylist, ID: "new"})

	link, ok := sessions.Pop(1)
	require.True(t, ok)
	assert.Equal(t, spotify.Link{Kind: spotify.LinkKindPlaylist, ID: "new"}, link)
}

func TestWorkerAdmitsOneJobAtATime(t *testing.T) {
	t.Parallel()

	worker := bot.NewWorker()

	jobCtx, _, ok := worker.TryAcquireJob(context.Background())
	require.True(t, ok)
	require.NotNil(t, jobCtx)

	_, _, ok = worker.TryAcquireJob(context.Background())
	assert.False(t, ok)

	worker.CancelJob()
	assert.ErrorIs(t, context.Cause(jobCtx), bot.ErrJobCanceled)

	// Slot is free again after cancellation.
	_, _, ok = worker.TryAcquireJob(context.Background())
	assert.True(t, ok)
}

func TestWorkerJobCancelIsIdempotent(t *testing.T) {
	t.Parallel()

	worker := bot.NewWorker()

	jobCtx, job, ok := worker.TryAcquireJob(context.Background())
	require.True(t, ok)

	job.Cancel()
	job.Cancel()
	assert.ErrorIs(t, context.Cause(jobCtx), bot.ErrJobCanceled)

	// Double cancel releases the slot exactly once.
	_, next, ok := worker.TryAcquireJob(context.Background())
	require.True(t, ok)
	next.Cancel()
}

func TestWorkerStaleHandleCannotCancelSuccessor(t *testing.T) {
	t.Parallel()

	worker := bot.NewWorker()

	_, first, ok := worker.TryAcquireJob(context.Background())
	require.True(t, ok)

	// A /cancel command ends the first job and frees the slot.
	worker.CancelJob()

	secondCtx, second, ok := worker.TryAcquireJob(context.Background())
	require.True(t, ok)

	// The first handler's deferred cleanup fires after the second job was
	// admitted. It must not touch the second job or its slot.
	first.Cancel()
	assert.NoError(t, secondCtx.Err())

	_, _, ok = worker.TryAcquireJob(context.Background())
	assert.False(t, ok)

	second.Cancel()
	assert.ErrorIs(t, context.Cause(secondCtx), bot.ErrJobCanceled)

	_, _, ok = worker.TryAcquireJob(context.Background())
	assert.True(t, ok)
}
