package intervention

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/browserpilot/types"
)

// Store defines the persistence interface for intervention requests.
type Store interface {
	Save(ctx context.Context, req *Request) error
	Load(ctx context.Context, id string) (*Request, error)
	List(ctx context.Context, status Status) ([]*Request, error)
	Update(ctx context.Context, req *Request) error
}

// Options configure the creation of an intervention request.
type Options struct {
	Type         Type
	Message      string
	Instructions string
	URL          string
	Context      map[string]any
	Screenshot   string
	// Lifetime of the pending state. Negative means "use the coordinator
	// default"; zero is honored literally and expires immediately.
	Timeout time.Duration
}

// Coordinator manages the life cycle of intervention requests: pending
// until a person completes or cancels them, or until their timeout lapses.
// Terminal states are idempotent: completing or cancelling an already
// terminal request is a no-op that never changes the recorded outcome.
type Coordinator struct {
	store          Store
	logger         *zap.Logger
	defaultTimeout time.Duration
	now            func() time.Time
	metrics        Recorder

	// resolveMu serializes the terminal check with the transition, so two
	// concurrent resolves cannot both observe pending and both finish.
	resolveMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan struct{}
}

// Recorder counts intervention lifecycle events.
type Recorder interface {
	RecordInterventionRequested(interventionType string)
	RecordInterventionResolved(interventionType, status string, waited time.Duration)
}

// NewCoordinator creates a coordinator over the given store.
func NewCoordinator(store Store, defaultTimeout time.Duration, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultTimeout <= 0 {
		defaultTimeout = 5 * time.Minute
	}
	return &Coordinator{
		store:          store,
		logger:         logger.With(zap.String("component", "intervention_coordinator")),
		defaultTimeout: defaultTimeout,
		now:            time.Now,
		pending:        make(map[string]chan struct{}),
	}
}

// Request creates a new pending intervention request.
func (c *Coordinator) Request(ctx context.Context, opts Options) (*Request, error) {
	if opts.Type == "" {
		opts.Type = TypeCustom
	}
	if !KnownType(opts.Type) {
		return nil, types.NewError(types.ErrInvalidRequest,
			fmt.Sprintf("unknown intervention type %q", opts.Type))
	}
	timeout := opts.Timeout
	if timeout < 0 {
		timeout = c.defaultTimeout
	}

	req := &Request{
		ID:           uuid.New().String(),
		Type:         opts.Type,
		Status:       StatusPending,
		Message:      opts.Message,
		Instructions: opts.Instructions,
		URL:          opts.URL,
		Context:      opts.Context,
		Screenshot:   opts.Screenshot,
		CreatedAt:    c.now(),
		Timeout:      timeout,
	}

	if err := c.store.Save(ctx, req); err != nil {
		return nil, types.NewError(types.ErrInternalError, "failed to save intervention request").WithCause(err)
	}

	c.mu.Lock()
	// closed on terminal transition; Await callers block on it
	c.pending[req.ID] = make(chan struct{})
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.RecordInterventionRequested(string(req.Type))
	}

	c.logger.Info("intervention requested",
		zap.String("id", req.ID),
		zap.String("type", string(req.Type)),
		zap.Duration("timeout", req.Timeout))

	return req, nil
}

// SetMetrics attaches a lifecycle recorder. Nil leaves recording off.
func (c *Coordinator) SetMetrics(r Recorder) { c.metrics = r }

// Status returns the request's current state. A pending request whose
// timeout has lapsed is promoted to timeout here: expiry is observed
// lazily, never by a background timer that could interrupt page work.
func (c *Coordinator) Status(ctx context.Context, id string) (*Request, error) {
	c.resolveMu.Lock()
	defer c.resolveMu.Unlock()

	req, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Expired(c.now()) {
		return c.finish(ctx, req, StatusTimeout, "")
	}
	return req, nil
}

// Complete marks a pending request completed. Completing an already
// terminal request returns it unchanged.
func (c *Coordinator) Complete(ctx context.Context, id, note string) (*Request, error) {
	return c.resolve(ctx, id, StatusCompleted, note)
}

// Fail marks a pending request failed: the person tried and could not
// get past the blocker. Failing an already terminal request returns it
// unchanged.
func (c *Coordinator) Fail(ctx context.Context, id, note string) (*Request, error) {
	return c.resolve(ctx, id, StatusFailed, note)
}

// Cancel marks a pending request cancelled. Cancelling an already
// terminal request returns it unchanged; in particular cancel after
// complete never reverts the completion.
func (c *Coordinator) Cancel(ctx context.Context, id, reason string) (*Request, error) {
	return c.resolve(ctx, id, StatusCancelled, reason)
}

func (c *Coordinator) resolve(ctx context.Context, id string, status Status, note string) (*Request, error) {
	c.resolveMu.Lock()
	defer c.resolveMu.Unlock()

	req, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status.Terminal() {
		c.logger.Debug("resolve on terminal request is a no-op",
			zap.String("id", id),
			zap.String("status", string(req.Status)),
			zap.String("requested", string(status)))
		return req, nil
	}
	// lazy expiry wins over a late resolve
	if req.Expired(c.now()) {
		return c.finish(ctx, req, StatusTimeout, "")
	}
	return c.finish(ctx, req, status, note)
}

// finish applies the terminal transition, persists it, and releases any
// Await callers.
func (c *Coordinator) finish(ctx context.Context, req *Request, status Status, note string) (*Request, error) {
	req.Status = status
	now := c.now()
	req.ResolvedAt = &now
	switch status {
	case StatusCompleted, StatusFailed:
		req.CompletionNote = note
	case StatusCancelled:
		req.CancelReason = note
	}

	if err := c.store.Update(ctx, req); err != nil {
		return nil, types.NewError(types.ErrInternalError, "failed to update intervention request").WithCause(err)
	}

	c.mu.Lock()
	if done, ok := c.pending[req.ID]; ok {
		close(done)
		delete(c.pending, req.ID)
	}
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.RecordInterventionResolved(string(req.Type), string(status), now.Sub(req.CreatedAt))
	}

	c.logger.Info("intervention resolved",
		zap.String("id", req.ID),
		zap.String("status", string(status)))
	return req, nil
}

// Await blocks until the request reaches a terminal state, its timeout
// lapses, or ctx is done. It returns the request in its final state.
// The REST polling contract is layered on top of Status; Await serves
// in-process waiters.
func (c *Coordinator) Await(ctx context.Context, id string) (*Request, error) {
	req, err := c.Status(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status.Terminal() {
		return req, nil
	}

	c.mu.Lock()
	done, ok := c.pending[id]
	c.mu.Unlock()
	if !ok {
		// resolved between the status check and the map lookup
		return c.Status(ctx, id)
	}

	remaining := req.CreatedAt.Add(req.Timeout).Sub(c.now())
	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-done:
		return c.load(ctx, id)
	case <-timer.C:
		return c.Status(ctx, id)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// List returns stored requests filtered by status; an empty status
// returns everything.
func (c *Coordinator) List(ctx context.Context, status Status) ([]*Request, error) {
	return c.store.List(ctx, status)
}

// Pending returns the ids of requests currently pending in memory.
func (c *Coordinator) Pending() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.pending))
	for id := range c.pending {
		ids = append(ids, id)
	}
	return ids
}

func (c *Coordinator) load(ctx context.Context, id string) (*Request, error) {
	req, err := c.store.Load(ctx, id)
	if err != nil {
		return nil, types.NewError(types.ErrInterventionNotFound,
			"intervention request "+id+" not found").WithCause(err)
	}
	return req, nil
}

// InMemoryStore keeps intervention requests in process memory.
type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[string]*Request
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{requests: make(map[string]*Request)}
}

func (s *InMemoryStore) Save(ctx context.Context, req *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = req.Clone()
	return nil
}

// Load hands out a copy, never the stored request itself, so callers
// cannot mutate store state outside the store lock.
func (s *InMemoryStore) Load(ctx context.Context, id string) (*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, fmt.Errorf("intervention request not found: %s", id)
	}
	return req.Clone(), nil
}

func (s *InMemoryStore) List(ctx context.Context, status Status) ([]*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var results []*Request
	for _, req := range s.requests {
		if status == "" || req.Status == status {
			results = append(results, req.Clone())
		}
	}
	return results, nil
}

func (s *InMemoryStore) Update(ctx context.Context, req *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = req.Clone()
	return nil
}
