package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"papri/internal/logging"
)

// Transport interfaces implemented by internal/api. Keeping them small lets
// controller tests run against in-memory fakes.
type (
	// SearchSubmitter posts a search payload and returns the accepted task.
	SearchSubmitter interface {
		InitiateSearch(ctx context.Context, payload SearchPayload) (Task, error)
	}

	// EditSubmitter posts an edit prompt against a project and returns the task.
	EditSubmitter interface {
		SubmitEdit(ctx context.Context, payload EditPayload) (Task, error)
	}

	// StatusProvider answers one status poll for a task.
	StatusProvider interface {
		TaskStatus(ctx context.Context, task Task) (StatusUpdate, error)
	}

	// ResultFetcher retrieves one result page for a finished search task.
	ResultFetcher interface {
		FetchResults(ctx context.Context, taskID string, page int) (ResultPage, error)
	}
)

// Notifier receives user-facing lifecycle transitions. internal/notifications
// provides the single-slot implementation.
type Notifier interface {
	Info(message string)
	Success(message string)
	Warning(message string)
	Error(message string)
}

type noopNotifier struct{}

func (noopNotifier) Info(string)    {}
func (noopNotifier) Success(string) {}
func (noopNotifier) Warning(string) {}
func (noopNotifier) Error(string)   {}

const (
	defaultSearchInterval = 3500 * time.Millisecond
	defaultEditInterval   = 5 * time.Second
)

// Deps wires the controller's collaborators. Zero-value fields get nil-safe
// defaults; transports may be left nil when the corresponding kind is unused.
type Deps struct {
	Search         SearchSubmitter
	Edits          EditSubmitter
	Status         StatusProvider
	Results        ResultFetcher
	Notifier       Notifier
	Logger         *slog.Logger
	SearchInterval time.Duration
	EditInterval   time.Duration
}

// Controller owns the client-side task lifecycle: submit, poll to terminal,
// fetch results, notify. It enforces at most one live poll loop per kind.
type Controller struct {
	search   SearchSubmitter
	edits    EditSubmitter
	status   StatusProvider
	results  ResultFetcher
	notifier Notifier
	logger   *slog.Logger

	intervals map[Kind]time.Duration

	mu     sync.Mutex
	active map[Kind]*Handle
}

// NewController builds a controller from deps, applying defaults for any
// ambient collaborator left unset.
func NewController(deps Deps) *Controller {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = noopNotifier{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	searchInterval := deps.SearchInterval
	if searchInterval <= 0 {
		searchInterval = defaultSearchInterval
	}
	editInterval := deps.EditInterval
	if editInterval <= 0 {
		editInterval = defaultEditInterval
	}
	return &Controller{
		search:   deps.Search,
		edits:    deps.Edits,
		status:   deps.Status,
		results:  deps.Results,
		notifier: notifier,
		logger:   logger,
		intervals: map[Kind]time.Duration{
			KindSearch: searchInterval,
			KindEdit:   editInterval,
		},
		active: make(map[Kind]*Handle),
	}
}

// SubmitSearch validates the payload locally and posts it to the backend.
// Validation failures never reach the network; submission failures leave no
// poll loop behind.
func (c *Controller) SubmitSearch(ctx context.Context, payload SearchPayload) (Task, error) {
	if err := payload.Validate(); err != nil {
		c.notifier.Error(userMessage(err))
		return Task{}, err
	}
	if c.search == nil {
		return Task{}, Wrap(ErrSubmission, KindSearch, "submit", "no search transport configured", nil)
	}
	task, err := c.search.InitiateSearch(ctx, payload)
	if err != nil {
		c.notifier.Error(userMessage(err))
		return Task{}, err
	}
	c.logger.Info("search task accepted", "task", task.ID, "status", string(task.Status))
	c.notifier.Info("Search started")
	return task, nil
}

// SubmitEdit validates the payload locally and posts it to the backend.
func (c *Controller) SubmitEdit(ctx context.Context, payload EditPayload) (Task, error) {
	if err := payload.Validate(); err != nil {
		c.notifier.Error(userMessage(err))
		return Task{}, err
	}
	if c.edits == nil {
		return Task{}, Wrap(ErrSubmission, KindEdit, "submit", "no edit transport configured", nil)
	}
	task, err := c.edits.SubmitEdit(ctx, payload)
	if err != nil {
		c.notifier.Error(userMessage(err))
		return Task{}, err
	}
	c.logger.Info("edit task accepted", "task", task.ID, "status", string(task.Status))
	c.notifier.Info("Edit task submitted")
	return task, nil
}

// Callbacks observe a watched task. All callbacks run on the poll goroutine
// and are never invoked after the handle is cancelled.
type Callbacks struct {
	// OnUpdate fires whenever the task's status or message changes.
	OnUpdate func(Task)
	// OnResult fires once with page 1 after a successful search task.
	OnResult func(ResultPage)
	// OnDone fires once when the loop ends with a terminal status, after any
	// result fetch. Not called on cancellation.
	OnDone func(Task)
	// OnFailure fires when the task fails or the result fetch errors.
	OnFailure func(Task, error)
}

// Watch starts the poll loop for a task. Any live loop of the same kind is
// cancelled first, so at most one loop per kind exists at any time.
func (c *Controller) Watch(ctx context.Context, task Task, cb Callbacks) (*Handle, error) {
	if task.ID == "" {
		return nil, Wrap(ErrValidation, task.Kind, "watch", "task id is required", nil)
	}
	if c.status == nil {
		return nil, Wrap(ErrFetch, task.Kind, "watch", "no status transport configured", nil)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if prev := c.active[task.Kind]; prev != nil {
		prev.Cancel()
	}

	loopCtx, cancel := context.WithCancel(ctx)
	h := &Handle{
		kind:   task.Kind,
		task:   task,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	c.active[task.Kind] = h
	go c.run(loopCtx, h, cb)
	return h, nil
}

// CancelKind cancels the live loop for a kind, if any.
func (c *Controller) CancelKind(kind Kind) {
	c.mu.Lock()
	h := c.active[kind]
	c.mu.Unlock()
	if h != nil {
		h.Cancel()
	}
}

// Close cancels every live loop. Intended for teardown.
func (c *Controller) Close() {
	c.mu.Lock()
	handles := make([]*Handle, 0, len(c.active))
	for _, h := range c.active {
		handles = append(handles, h)
	}
	c.mu.Unlock()
	for _, h := range handles {
		h.Cancel()
	}
}

func (c *Controller) interval(kind Kind) time.Duration {
	if d, ok := c.intervals[kind]; ok && d > 0 {
		return d
	}
	return defaultSearchInterval
}

// run polls until a terminal status or cancellation. Transient errors are
// surfaced as warnings and never stop the loop; there is no attempt cap and
// no backoff.
func (c *Controller) run(ctx context.Context, h *Handle, cb Callbacks) {
	defer close(h.done)

	ticker := time.NewTicker(c.interval(h.kind))
	defer ticker.Stop()

	for {
		update, err := c.status.TaskStatus(ctx, h.Task())
		if h.Cancelled() || ctx.Err() != nil {
			return
		}
		if err != nil {
			attempts := h.recordTransient(err)
			c.logger.Warn("status poll failed",
				"task", h.Task().ID, "kind", string(h.kind), "attempt", attempts, "error", err)
			c.notifier.Warning("Connection hiccup while checking status; still trying")
		} else {
			task, changed := h.apply(update)
			if changed && cb.OnUpdate != nil {
				cb.OnUpdate(task)
			}
			if task.Status.Terminal() {
				c.finish(ctx, h, task, cb)
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *Controller) finish(ctx context.Context, h *Handle, task Task, cb Callbacks) {
	switch {
	case task.Status.Succeeded():
		c.logger.Info("task finished", "task", task.ID, "kind", string(h.kind), "status", string(task.Status))
		if h.kind == KindSearch && c.results != nil {
			page, err := c.results.FetchResults(ctx, task.ID, 1)
			if h.Cancelled() {
				return
			}
			if err != nil {
				wrapped := Wrap(ErrFetch, h.kind, "results", "retrieving page 1", err)
				c.notifier.Error(userMessage(wrapped))
				if cb.OnFailure != nil {
					cb.OnFailure(task, wrapped)
				}
				return
			}
			h.setResult(page)
			if cb.OnResult != nil {
				cb.OnResult(page)
			}
			switch {
			case page.Empty():
				c.notifier.Info("Search finished with no matching videos")
			case task.Status == StatusPartialResults:
				c.notifier.Warning(fmt.Sprintf("Search finished with partial results (%d found)", page.TotalCount))
			default:
				c.notifier.Success(fmt.Sprintf("Search finished: %d results", page.TotalCount))
			}
		} else {
			c.notifier.Success("Edit finished: " + task.Status.Label())
		}
		if cb.OnDone != nil {
			cb.OnDone(task)
		}
	case task.Status == StatusCancelled:
		c.logger.Info("task cancelled by backend", "task", task.ID, "kind", string(h.kind))
		c.notifier.Warning("Task was cancelled")
		if cb.OnDone != nil {
			cb.OnDone(task)
		}
	default:
		message := task.Message
		if message == "" {
			message = task.Status.Label()
		}
		wrapped := Wrap(ErrTerminalFailure, h.kind, "poll", message, nil)
		c.logger.Warn("task failed", "task", task.ID, "kind", string(h.kind), "status", string(task.Status))
		c.notifier.Error(userMessage(wrapped))
		if cb.OnFailure != nil {
			cb.OnFailure(task, wrapped)
		}
		if cb.OnDone != nil {
			cb.OnDone(task)
		}
	}
}

// userMessage strips the sentinel prefix chain down to readable text.
func userMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Handle is the cancellation token for one poll loop. All accessors are safe
// for concurrent use.
type Handle struct {
	kind      Kind
	cancel    context.CancelFunc
	done      chan struct{}
	cancelled atomic.Bool

	mu       sync.Mutex
	task     Task
	attempts int
	lastErr  error
	result   *ResultPage
}

// Cancel stops the loop and waits for it to exit. Safe to call multiple times.
// Updates from polls already in flight are discarded.
func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	if h.cancelled.CompareAndSwap(false, true) {
		h.cancel()
	}
	<-h.done
}

// Cancelled reports whether Cancel has been called.
func (h *Handle) Cancelled() bool {
	return h.cancelled.Load()
}

// Done is closed when the poll loop has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Task returns a snapshot of the watched task.
func (h *Handle) Task() Task {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.task
}

// PollErrors reports the transient failure count and the most recent error.
func (h *Handle) PollErrors() (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attempts, h.lastErr
}

// Result returns the fetched first page, if the task completed successfully.
func (h *Handle) Result() (ResultPage, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.result == nil {
		return ResultPage{}, false
	}
	return *h.result, true
}

// apply merges a poll response into the task, enforcing monotonic transitions:
// a terminal task never reverts and status regressions are ignored.
func (h *Handle) apply(update StatusUpdate) (Task, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.task.Status.Terminal() {
		return h.task, false
	}
	if update.Status.rank() < h.task.Status.rank() {
		return h.task, false
	}

	changed := update.Status != h.task.Status || update.Message != h.task.Message
	h.task.Status = update.Status
	h.task.Message = update.Message
	if update.ResultURL != "" {
		h.task.ResultURL = update.ResultURL
	}
	return h.task, changed
}

func (h *Handle) recordTransient(err error) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attempts++
	h.lastErr = err
	return h.attempts
}

func (h *Handle) setResult(page ResultPage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.result = &page
}
