package tasks_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"papri/internal/tasks"
)

type statusFunc func(ctx context.Context, task tasks.Task) (tasks.StatusUpdate, error)

func (f statusFunc) TaskStatus(ctx context.Context, task tasks.Task) (tasks.StatusUpdate, error) {
	return f(ctx, task)
}

type fetchFunc func(ctx context.Context, taskID string, page int) (tasks.ResultPage, error)

func (f fetchFunc) FetchResults(ctx context.Context, taskID string, page int) (tasks.ResultPage, error) {
	return f(ctx, taskID, page)
}

type searchFunc func(ctx context.Context, payload tasks.SearchPayload) (tasks.Task, error)

func (f searchFunc) InitiateSearch(ctx context.Context, payload tasks.SearchPayload) (tasks.Task, error) {
	return f(ctx, payload)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) add(kind, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, kind+": "+message)
}

func (n *recordingNotifier) Info(m string)    { n.add("info", m) }
func (n *recordingNotifier) Success(m string) { n.add("success", m) }
func (n *recordingNotifier) Warning(m string) { n.add("warning", m) }
func (n *recordingNotifier) Error(m string)   { n.add("error", m) }

func (n *recordingNotifier) count(kind string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, event := range n.events {
		if len(event) >= len(kind) && event[:len(kind)] == kind {
			total++
		}
	}
	return total
}

func waitDone(t *testing.T, h *tasks.Handle) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("poll loop did not finish in time")
	}
}

func newTestController(deps tasks.Deps) *tasks.Controller {
	if deps.SearchInterval == 0 {
		deps.SearchInterval = 5 * time.Millisecond
	}
	if deps.EditInterval == 0 {
		deps.EditInterval = 5 * time.Millisecond
	}
	return tasks.NewController(deps)
}

func TestSubmitSearchValidationSkipsNetwork(t *testing.T) {
	var calls int
	ctrl := newTestController(tasks.Deps{
		Search: searchFunc(func(context.Context, tasks.SearchPayload) (tasks.Task, error) {
			calls++
			return tasks.Task{ID: "t1"}, nil
		}),
	})

	_, err := ctrl.SubmitSearch(context.Background(), tasks.SearchPayload{QueryText: "   "})
	if !errors.Is(err, tasks.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no submit call, got %d", calls)
	}
}

func TestSubmitSearchRejectsRelativeVideoURL(t *testing.T) {
	ctrl := newTestController(tasks.Deps{})
	_, err := ctrl.SubmitSearch(context.Background(), tasks.SearchPayload{VideoURL: "watch?v=abc"})
	if !errors.Is(err, tasks.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestWatchCompletedFetchesPageOneOnce(t *testing.T) {
	polls := 0
	status := statusFunc(func(context.Context, tasks.Task) (tasks.StatusUpdate, error) {
		polls++
		if polls < 3 {
			return tasks.StatusUpdate{Status: tasks.StatusProcessing}, nil
		}
		return tasks.StatusUpdate{Status: tasks.StatusCompleted}, nil
	})

	var fetchMu sync.Mutex
	fetches := 0
	fetchedPage := 0
	results := fetchFunc(func(_ context.Context, taskID string, page int) (tasks.ResultPage, error) {
		fetchMu.Lock()
		defer fetchMu.Unlock()
		fetches++
		fetchedPage = page
		return tasks.ResultPage{
			TaskStatus: tasks.StatusCompleted,
			Items:      []tasks.VideoResult{{ID: "v1", Title: "Example"}},
			PageNumber: page,
			TotalPages: 1,
			TotalCount: 1,
		}, nil
	})

	notifier := &recordingNotifier{}
	ctrl := newTestController(tasks.Deps{Status: status, Results: results, Notifier: notifier})

	var gotResult tasks.ResultPage
	var resultCalls int
	h, err := ctrl.Watch(context.Background(), tasks.Task{ID: "t1", Kind: tasks.KindSearch, Status: tasks.StatusPending}, tasks.Callbacks{
		OnResult: func(page tasks.ResultPage) {
			resultCalls++
			gotResult = page
		},
	})
	if err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}
	waitDone(t, h)

	if fetches != 1 || fetchedPage != 1 {
		t.Fatalf("expected exactly one fetch of page 1, got %d fetches (page %d)", fetches, fetchedPage)
	}
	if resultCalls != 1 {
		t.Fatalf("expected one OnResult call, got %d", resultCalls)
	}
	if gotResult.TotalCount != 1 || len(gotResult.Items) != 1 {
		t.Fatalf("unexpected result page: %+v", gotResult)
	}
	if got := h.Task().Status; got != tasks.StatusCompleted {
		t.Fatalf("unexpected final status: %s", got)
	}
	if notifier.count("success") != 1 {
		t.Fatalf("expected one success notification, got events %v", notifier.events)
	}
}

func TestWatchFailedNeverFetches(t *testing.T) {
	status := statusFunc(func(context.Context, tasks.Task) (tasks.StatusUpdate, error) {
		return tasks.StatusUpdate{Status: tasks.StatusFailed, Message: "source fetch exploded"}, nil
	})
	results := fetchFunc(func(context.Context, string, int) (tasks.ResultPage, error) {
		t.Error("fetch must not run for a failed task")
		return tasks.ResultPage{}, nil
	})

	var failure error
	ctrl := newTestController(tasks.Deps{Status: status, Results: results})
	h, err := ctrl.Watch(context.Background(), tasks.Task{ID: "t1", Kind: tasks.KindSearch}, tasks.Callbacks{
		OnFailure: func(_ tasks.Task, err error) { failure = err },
	})
	if err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}
	waitDone(t, h)

	if !errors.Is(failure, tasks.ErrTerminalFailure) {
		t.Fatalf("expected ErrTerminalFailure, got %v", failure)
	}
}

func TestTransientPollErrorsKeepLoopAlive(t *testing.T) {
	polls := 0
	status := statusFunc(func(context.Context, tasks.Task) (tasks.StatusUpdate, error) {
		polls++
		switch polls {
		case 1, 2:
			return tasks.StatusUpdate{}, errors.New("connection refused")
		default:
			return tasks.StatusUpdate{Status: tasks.StatusCompleted}, nil
		}
	})
	results := fetchFunc(func(context.Context, string, int) (tasks.ResultPage, error) {
		return tasks.ResultPage{TaskStatus: tasks.StatusCompleted}, nil
	})

	notifier := &recordingNotifier{}
	ctrl := newTestController(tasks.Deps{Status: status, Results: results, Notifier: notifier})

	var statuses []tasks.Status
	h, err := ctrl.Watch(context.Background(), tasks.Task{ID: "t1", Kind: tasks.KindSearch, Status: tasks.StatusPending}, tasks.Callbacks{
		OnUpdate: func(task tasks.Task) { statuses = append(statuses, task.Status) },
	})
	if err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}
	waitDone(t, h)

	attempts, lastErr := h.PollErrors()
	if attempts != 2 || lastErr == nil {
		t.Fatalf("expected 2 recorded transient errors, got %d (%v)", attempts, lastErr)
	}
	// Transient errors never surface as task status changes.
	for _, s := range statuses {
		if s != tasks.StatusCompleted {
			t.Fatalf("unexpected status update during transient errors: %s", s)
		}
	}
	if notifier.count("warning") != 2 {
		t.Fatalf("expected 2 warnings, got events %v", notifier.events)
	}
}

func TestEmptyResultsAreNotAnError(t *testing.T) {
	status := statusFunc(func(context.Context, tasks.Task) (tasks.StatusUpdate, error) {
		return tasks.StatusUpdate{Status: tasks.StatusCompleted}, nil
	})
	results := fetchFunc(func(context.Context, string, int) (tasks.ResultPage, error) {
		return tasks.ResultPage{TaskStatus: tasks.StatusCompleted, PageNumber: 1, TotalPages: 1}, nil
	})

	notifier := &recordingNotifier{}
	ctrl := newTestController(tasks.Deps{Status: status, Results: results, Notifier: notifier})

	var page tasks.ResultPage
	var failed bool
	h, err := ctrl.Watch(context.Background(), tasks.Task{ID: "t1", Kind: tasks.KindSearch}, tasks.Callbacks{
		OnResult:  func(p tasks.ResultPage) { page = p },
		OnFailure: func(tasks.Task, error) { failed = true },
	})
	if err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}
	waitDone(t, h)

	if failed {
		t.Fatal("empty result set must not surface as a failure")
	}
	if !page.Empty() {
		t.Fatalf("expected empty page, got %+v", page)
	}
	if notifier.count("error") != 0 {
		t.Fatalf("unexpected error notifications: %v", notifier.events)
	}
}

func TestSecondWatchOfSameKindCancelsFirst(t *testing.T) {
	var mu sync.Mutex
	pollsByTask := map[string]int{}
	status := statusFunc(func(_ context.Context, task tasks.Task) (tasks.StatusUpdate, error) {
		mu.Lock()
		pollsByTask[task.ID]++
		mu.Unlock()
		return tasks.StatusUpdate{Status: tasks.StatusProcessing}, nil
	})

	ctrl := newTestController(tasks.Deps{Status: status})
	first, err := ctrl.Watch(context.Background(), tasks.Task{ID: "first", Kind: tasks.KindSearch}, tasks.Callbacks{})
	if err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	second, err := ctrl.Watch(context.Background(), tasks.Task{ID: "second", Kind: tasks.KindSearch}, tasks.Callbacks{})
	if err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}
	if !first.Cancelled() {
		t.Fatal("first handle should be cancelled by second Watch")
	}
	select {
	case <-first.Done():
	default:
		t.Fatal("first loop should have exited before second Watch returned")
	}

	mu.Lock()
	firstPolls := pollsByTask["first"]
	mu.Unlock()

	time.Sleep(30 * time.Millisecond)

	mu.Lock()
	firstAfter := pollsByTask["first"]
	secondPolls := pollsByTask["second"]
	mu.Unlock()

	if firstAfter != firstPolls {
		t.Fatalf("cancelled loop kept polling: %d -> %d", firstPolls, firstAfter)
	}
	if secondPolls == 0 {
		t.Fatal("replacement loop never polled")
	}
	second.Cancel()
}

func TestLatePollResponseAfterCancelIsDropped(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	status := statusFunc(func(ctx context.Context, task tasks.Task) (tasks.StatusUpdate, error) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		return tasks.StatusUpdate{Status: tasks.StatusCompleted}, nil
	})
	results := fetchFunc(func(context.Context, string, int) (tasks.ResultPage, error) {
		t.Error("fetch must not run after cancellation")
		return tasks.ResultPage{}, nil
	})

	var updates int
	ctrl := newTestController(tasks.Deps{Status: status, Results: results})
	h, err := ctrl.Watch(context.Background(), tasks.Task{ID: "t1", Kind: tasks.KindSearch, Status: tasks.StatusPending}, tasks.Callbacks{
		OnUpdate: func(tasks.Task) { updates++ },
	})
	if err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}

	<-entered
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()
	h.Cancel()

	if updates != 0 {
		t.Fatalf("late response mutated state: %d updates", updates)
	}
	if got := h.Task().Status; got != tasks.StatusPending {
		t.Fatalf("task status changed after cancel: %s", got)
	}
}

func TestStatusNeverRegresses(t *testing.T) {
	sequence := []tasks.Status{
		tasks.StatusProcessing,
		tasks.StatusPending, // stale response, must be ignored
		tasks.StatusAggregating,
		tasks.StatusCompleted,
	}
	polls := 0
	status := statusFunc(func(context.Context, tasks.Task) (tasks.StatusUpdate, error) {
		step := sequence[polls]
		if polls < len(sequence)-1 {
			polls++
		}
		return tasks.StatusUpdate{Status: step}, nil
	})
	results := fetchFunc(func(context.Context, string, int) (tasks.ResultPage, error) {
		return tasks.ResultPage{TaskStatus: tasks.StatusCompleted}, nil
	})

	var seen []tasks.Status
	ctrl := newTestController(tasks.Deps{Status: status, Results: results})
	h, err := ctrl.Watch(context.Background(), tasks.Task{ID: "t1", Kind: tasks.KindSearch, Status: tasks.StatusPending}, tasks.Callbacks{
		OnUpdate: func(task tasks.Task) { seen = append(seen, task.Status) },
	})
	if err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}
	waitDone(t, h)

	for _, s := range seen {
		if s == tasks.StatusPending {
			t.Fatalf("status regressed to pending: %v", seen)
		}
	}
	if h.Task().Status != tasks.StatusCompleted {
		t.Fatalf("unexpected final status: %s", h.Task().Status)
	}
}

func TestEditWatchSurfacesResultURL(t *testing.T) {
	status := statusFunc(func(context.Context, tasks.Task) (tasks.StatusUpdate, error) {
		return tasks.StatusUpdate{Status: tasks.StatusCompleted, ResultURL: "https://papri.example/media/edits/out.mp4"}, nil
	})

	var done tasks.Task
	ctrl := newTestController(tasks.Deps{Status: status})
	h, err := ctrl.Watch(context.Background(), tasks.Task{ID: "e1", Kind: tasks.KindEdit}, tasks.Callbacks{
		OnDone: func(task tasks.Task) { done = task },
	})
	if err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}
	waitDone(t, h)

	if done.ResultURL != "https://papri.example/media/edits/out.mp4" {
		t.Fatalf("missing result URL: %+v", done)
	}
}
