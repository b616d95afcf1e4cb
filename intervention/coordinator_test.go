package intervention

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/browserpilot/types"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *time.Time) {
	t.Helper()
	c := NewCoordinator(NewInMemoryStore(), 5*time.Minute, nil)
	clock := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }
	return c, &clock
}

func TestCoordinatorLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("complete resolves a pending request", func(t *testing.T) {
		c, _ := newTestCoordinator(t)
		req, err := c.Request(ctx, Options{Type: TypeCaptcha, Message: "solve it", Timeout: time.Minute})
		require.NoError(t, err)
		assert.Equal(t, StatusPending, req.Status)
		assert.NotEmpty(t, req.ID)

		got, err := c.Status(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, got.Status)

		done, err := c.Complete(ctx, req.ID, "captcha solved")
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, done.Status)
		assert.Equal(t, "captcha solved", done.CompletionNote)
		require.NotNil(t, done.ResolvedAt)
	})

	t.Run("fail resolves with the failed status", func(t *testing.T) {
		c, _ := newTestCoordinator(t)
		req, err := c.Request(ctx, Options{Type: TypeCaptcha, Message: "solve it", Timeout: time.Minute})
		require.NoError(t, err)

		done, err := c.Fail(ctx, req.ID, "operator gave up")
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, done.Status)
		assert.Equal(t, "operator gave up", done.CompletionNote)
		require.NotNil(t, done.ResolvedAt)

		// failure is terminal; a late complete never revives it
		got, err := c.Complete(ctx, req.ID, "actually fine")
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, got.Status)
		assert.Equal(t, "operator gave up", got.CompletionNote)
	})

	t.Run("terminal states are idempotent", func(t *testing.T) {
		c, _ := newTestCoordinator(t)
		req, err := c.Request(ctx, Options{Type: TypeLoginRequired, Timeout: time.Minute})
		require.NoError(t, err)

		_, err = c.Complete(ctx, req.ID, "logged in")
		require.NoError(t, err)

		// a late cancel must not revert the completion
		got, err := c.Cancel(ctx, req.ID, "changed my mind")
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, got.Status)
		assert.Equal(t, "logged in", got.CompletionNote)
		assert.Empty(t, got.CancelReason)

		got, err = c.Complete(ctx, req.ID, "again")
		require.NoError(t, err)
		assert.Equal(t, "logged in", got.CompletionNote)
	})

	t.Run("cancel records the reason", func(t *testing.T) {
		c, _ := newTestCoordinator(t)
		req, err := c.Request(ctx, Options{Type: TypeCustom, Timeout: time.Minute})
		require.NoError(t, err)

		got, err := c.Cancel(ctx, req.ID, "no operator available")
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, got.Status)
		assert.Equal(t, "no operator available", got.CancelReason)
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		c, _ := newTestCoordinator(t)
		_, err := c.Request(ctx, Options{Type: Type("bribe")})
		require.Error(t, err)
		assert.Equal(t, types.ErrInvalidRequest, types.GetErrorCode(err))
	})

	t.Run("empty type defaults to custom", func(t *testing.T) {
		c, _ := newTestCoordinator(t)
		req, err := c.Request(ctx, Options{Timeout: time.Minute})
		require.NoError(t, err)
		assert.Equal(t, TypeCustom, req.Type)
	})

	t.Run("unknown id", func(t *testing.T) {
		c, _ := newTestCoordinator(t)
		_, err := c.Status(ctx, "nope")
		require.Error(t, err)
		assert.Equal(t, types.ErrInterventionNotFound, types.GetErrorCode(err))
	})
}

func TestCoordinatorTimeout(t *testing.T) {
	ctx := context.Background()

	t.Run("pending promotes to timeout on status check", func(t *testing.T) {
		c, clock := newTestCoordinator(t)
		req, err := c.Request(ctx, Options{Type: TypeCaptcha, Timeout: 10 * time.Second})
		require.NoError(t, err)

		*clock = clock.Add(9 * time.Second)
		got, err := c.Status(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, got.Status)
		assert.Equal(t, 1, got.RemainingSeconds(c.now()))

		*clock = clock.Add(2 * time.Second)
		got, err = c.Status(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusTimeout, got.Status)
		require.NotNil(t, got.ResolvedAt)
	})

	t.Run("timeout wins over a late complete", func(t *testing.T) {
		c, clock := newTestCoordinator(t)
		req, err := c.Request(ctx, Options{Type: TypeCaptcha, Timeout: 10 * time.Second})
		require.NoError(t, err)

		*clock = clock.Add(time.Minute)
		got, err := c.Complete(ctx, req.ID, "too late")
		require.NoError(t, err)
		assert.Equal(t, StatusTimeout, got.Status)
		assert.Empty(t, got.CompletionNote)
	})

	t.Run("zero timeout expires on first check", func(t *testing.T) {
		c, _ := newTestCoordinator(t)
		req, err := c.Request(ctx, Options{Type: TypeCaptcha, Timeout: 0})
		require.NoError(t, err)

		got, err := c.Status(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusTimeout, got.Status)
	})

	t.Run("negative timeout uses the default", func(t *testing.T) {
		c, _ := newTestCoordinator(t)
		req, err := c.Request(ctx, Options{Type: TypeCaptcha, Timeout: -1})
		require.NoError(t, err)
		assert.Equal(t, 5*time.Minute, req.Timeout)
	})
}

func TestCoordinatorAwait(t *testing.T) {
	ctx := context.Background()

	t.Run("await returns when completed", func(t *testing.T) {
		c := NewCoordinator(NewInMemoryStore(), 5*time.Minute, nil)
		req, err := c.Request(ctx, Options{Type: TypeCaptcha, Timeout: time.Minute})
		require.NoError(t, err)

		go func() {
			time.Sleep(20 * time.Millisecond)
			_, _ = c.Complete(context.Background(), req.ID, "done")
		}()

		got, err := c.Await(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, got.Status)
	})

	t.Run("await honors context cancellation", func(t *testing.T) {
		c := NewCoordinator(NewInMemoryStore(), 5*time.Minute, nil)
		req, err := c.Request(ctx, Options{Type: TypeCaptcha, Timeout: time.Minute})
		require.NoError(t, err)

		cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err = c.Await(cctx, req.ID)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("await on a short timeout resolves to timeout", func(t *testing.T) {
		c := NewCoordinator(NewInMemoryStore(), 5*time.Minute, nil)
		req, err := c.Request(ctx, Options{Type: TypeCaptcha, Timeout: 20 * time.Millisecond})
		require.NoError(t, err)

		got, err := c.Await(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusTimeout, got.Status)
	})
}

func TestCoordinatorListAndPending(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCoordinator(t)

	a, err := c.Request(ctx, Options{Type: TypeCaptcha, Timeout: time.Minute})
	require.NoError(t, err)
	b, err := c.Request(ctx, Options{Type: TypeLoginRequired, Timeout: time.Minute})
	require.NoError(t, err)

	_, err = c.Complete(ctx, a.ID, "")
	require.NoError(t, err)

	pending, err := c.List(ctx, StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, b.ID, pending[0].ID)

	all, err := c.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	ids := c.Pending()
	require.Len(t, ids, 1)
	assert.Equal(t, b.ID, ids[0])
}

type recordingMetrics struct {
	requested []string
	resolved  []string
	waits     []time.Duration
}

func (m *recordingMetrics) RecordInterventionRequested(t string) { m.requested = append(m.requested, t) }

func (m *recordingMetrics) RecordInterventionResolved(t, status string, waited time.Duration) {
	m.resolved = append(m.resolved, t+"/"+status)
	m.waits = append(m.waits, waited)
}

func TestCoordinatorConcurrentResolve(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCoordinator(t)
	rec := &recordingMetrics{}
	c.SetMetrics(rec)

	req, err := c.Request(ctx, Options{Type: TypeCaptcha, Timeout: time.Minute})
	require.NoError(t, err)

	// racing resolvers: exactly one transition wins, the rest observe it
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			switch i % 3 {
			case 0:
				_, _ = c.Complete(ctx, req.ID, "solved")
			case 1:
				_, _ = c.Cancel(ctx, req.ID, "gave up")
			default:
				_, _ = c.Fail(ctx, req.ID, "stuck")
			}
		}(i)
	}
	wg.Wait()

	got, err := c.Status(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, got.Status.Terminal())
	assert.Len(t, rec.resolved, 1)
	assert.Empty(t, c.Pending())
}

func TestInMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	req := &Request{ID: "r1", Type: TypeCaptcha, Status: StatusPending, CreatedAt: time.Now(), Timeout: time.Minute}
	require.NoError(t, store.Save(ctx, req))

	// mutating a loaded request must not leak into store state
	loaded, err := store.Load(ctx, "r1")
	require.NoError(t, err)
	loaded.Status = StatusCompleted
	loaded.CompletionNote = "tampered"

	fresh, err := store.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, fresh.Status)
	assert.Empty(t, fresh.CompletionNote)

	listed, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	listed[0].Status = StatusCancelled

	fresh, err = store.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, fresh.Status)
}

func TestCoordinatorMetrics(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCoordinator(t)
	rec := &recordingMetrics{}
	c.SetMetrics(rec)

	req, err := c.Request(ctx, Options{Type: TypeLoginRequired, Timeout: time.Minute})
	require.NoError(t, err)
	assert.Equal(t, []string{string(TypeLoginRequired)}, rec.requested)

	*clock = clock.Add(30 * time.Second)
	_, err = c.Complete(ctx, req.ID, "done")
	require.NoError(t, err)

	require.Len(t, rec.resolved, 1)
	assert.Equal(t, string(TypeLoginRequired)+"/"+string(StatusCompleted), rec.resolved[0])
	assert.Equal(t, 30*time.Second, rec.waits[0])

	// idempotent terminal resolve records nothing further
	_, err = c.Cancel(ctx, req.ID, "late")
	require.NoError(t, err)
	assert.Len(t, rec.resolved, 1)
}
