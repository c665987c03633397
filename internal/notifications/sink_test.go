package notifications_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"papri/internal/config"
	"papri/internal/notifications"
	"papri/internal/tasks"
)

var _ tasks.Notifier = (*notifications.Sink)(nil)

func TestSinkKeepsOnlyLatestNotice(t *testing.T) {
	sink := notifications.NewSink(time.Second)
	defer sink.Close()

	sink.Info("first")
	sink.Warning("second")
	sink.Success("third")

	notice, ok := sink.Current()
	if !ok {
		t.Fatal("expected a visible notice")
	}
	if notice.Message != "third" || notice.Severity != notifications.SeveritySuccess {
		t.Fatalf("expected latest notice to win, got %+v", notice)
	}
}

func TestSinkDismissalTimerRestartsOnEachPost(t *testing.T) {
	sink := notifications.NewSink(150 * time.Millisecond)
	defer sink.Close()

	sink.Info("first")
	time.Sleep(100 * time.Millisecond)
	sink.Info("second")
	time.Sleep(100 * time.Millisecond)

	// 200ms after the first post but only 100ms after the second:
	// the slot must still show the second notice.
	notice, ok := sink.Current()
	if !ok || notice.Message != "second" {
		t.Fatalf("expected second notice still visible, got %+v ok=%v", notice, ok)
	}

	time.Sleep(150 * time.Millisecond)
	if _, ok := sink.Current(); ok {
		t.Fatal("expected notice dismissed after display window elapsed")
	}
}

func TestSinkPerNoticeDisplayOverride(t *testing.T) {
	sink := notifications.NewSink(time.Hour)
	defer sink.Close()

	sink.NotifyFor("fleeting", notifications.SeverityInfo, 40*time.Millisecond)
	time.Sleep(120 * time.Millisecond)
	if _, ok := sink.Current(); ok {
		t.Fatal("expected per-notice display window to dismiss the notice")
	}

	// A non-positive override falls back to the configured window.
	sink.NotifyFor("durable", notifications.SeverityInfo, 0)
	time.Sleep(120 * time.Millisecond)
	notice, ok := sink.Current()
	if !ok || notice.Message != "durable" {
		t.Fatalf("expected configured window to apply, got %+v ok=%v", notice, ok)
	}
}

func TestSinkZeroDisplayNeverAutoDismisses(t *testing.T) {
	sink := notifications.NewSink(0)
	defer sink.Close()

	sink.Error("persistent")
	time.Sleep(50 * time.Millisecond)
	if _, ok := sink.Current(); !ok {
		t.Fatal("expected notice to persist with zero display duration")
	}

	sink.Dismiss()
	if _, ok := sink.Current(); ok {
		t.Fatal("expected Dismiss to clear the slot")
	}
}

func TestSinkOnChangeObservesTransitions(t *testing.T) {
	var mu sync.Mutex
	var visible []bool
	sink := notifications.NewSink(30*time.Millisecond, notifications.WithOnChange(func(_ notifications.Notice, ok bool) {
		mu.Lock()
		visible = append(visible, ok)
		mu.Unlock()
	}))
	defer sink.Close()

	sink.Info("hello")
	time.Sleep(80 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(visible) != 2 || !visible[0] || visible[1] {
		t.Fatalf("expected show-then-hide transitions, got %v", visible)
	}
}

func TestForwarderPublishesToNtfy(t *testing.T) {
	var mu sync.Mutex
	var gotBody string
	var gotTitle, gotPriority string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotBody = string(body)
		gotTitle = r.Header.Get("Title")
		gotPriority = r.Header.Get("Priority")
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Errors = true
	cfg.Notifications.Completions = true

	forwarder := notifications.NewForwarder(&cfg)
	err := forwarder.Publish(notifications.Notice{Message: "Search finished", Severity: notifications.SeveritySuccess})
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if gotBody != "Search finished" {
		t.Fatalf("unexpected body %q", gotBody)
	}
	if gotTitle != "Papri - Complete" || gotPriority != "high" {
		t.Fatalf("unexpected headers title=%q priority=%q", gotTitle, gotPriority)
	}
}

func TestForwarderRespectsSeverityToggles(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Errors = false
	cfg.Notifications.Completions = false

	forwarder := notifications.NewForwarder(&cfg)
	if err := forwarder.Publish(notifications.Notice{Message: "x", Severity: notifications.SeverityError}); err != nil {
		t.Fatalf("suppressed publish returned error: %v", err)
	}
	if err := forwarder.Publish(notifications.Notice{Message: "x", Severity: notifications.SeveritySuccess}); err != nil {
		t.Fatalf("suppressed publish returned error: %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no requests with toggles off, got %d", calls)
	}
}

func TestForwarderNoopWithoutTopic(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""

	forwarder := notifications.NewForwarder(&cfg)
	if err := forwarder.Publish(notifications.Notice{Message: "x", Severity: notifications.SeverityInfo}); err != nil {
		t.Fatalf("noop forwarder returned error: %v", err)
	}
}
