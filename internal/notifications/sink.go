package notifications

import (
	"log/slog"
	"sync"
	"time"
)

// Severity classifies a notification for display and forwarding decisions.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notice is the message currently occupying the notification slot.
type Notice struct {
	Message  string
	Severity Severity
	PostedAt time.Time
}

// Sink holds at most one visible notice at a time. Posting a new notice
// replaces the previous one immediately and restarts the dismissal timer,
// so the display window is always measured from the most recent post.
type Sink struct {
	mu      sync.Mutex
	display time.Duration
	current *Notice
	seq     uint64
	timer   *time.Timer

	forward  Forwarder
	logger   *slog.Logger
	onChange func(Notice, bool)
}

// SinkOption customizes a Sink.
type SinkOption func(*Sink)

// WithForwarder attaches a remote forwarder invoked on every post.
func WithForwarder(f Forwarder) SinkOption {
	return func(s *Sink) { s.forward = f }
}

// WithLogger attaches a logger for forwarding failures.
func WithLogger(logger *slog.Logger) SinkOption {
	return func(s *Sink) { s.logger = logger }
}

// WithOnChange registers a callback fired whenever the slot content
// changes. The boolean reports whether a notice is visible.
func WithOnChange(fn func(Notice, bool)) SinkOption {
	return func(s *Sink) { s.onChange = fn }
}

// NewSink builds a sink whose notices auto-dismiss after display.
// A non-positive display keeps notices visible until replaced.
func NewSink(display time.Duration, opts ...SinkOption) *Sink {
	s := &Sink{display: display}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify replaces the slot content and restarts the dismissal timer using
// the sink's configured display window.
func (s *Sink) Notify(message string, severity Severity) {
	s.NotifyFor(message, severity, 0)
}

// NotifyFor posts a notice that stays visible for display. A non-positive
// display falls back to the sink's configured window.
func (s *Sink) NotifyFor(message string, severity Severity, display time.Duration) {
	if display <= 0 {
		display = s.display
	}
	notice := Notice{Message: message, Severity: severity, PostedAt: time.Now()}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.current = &notice
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if display > 0 {
		s.timer = time.AfterFunc(display, func() { s.expire(seq) })
	}
	onChange := s.onChange
	forward := s.forward
	s.mu.Unlock()

	if onChange != nil {
		onChange(notice, true)
	}
	if forward != nil {
		if err := forward.Publish(notice); err != nil && s.logger != nil {
			s.logger.Warn("notification forward failed", "error", err)
		}
	}
}

// expire clears the slot only when no newer notice superseded seq.
func (s *Sink) expire(seq uint64) {
	s.mu.Lock()
	if s.seq != seq || s.current == nil {
		s.mu.Unlock()
		return
	}
	s.current = nil
	s.timer = nil
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange(Notice{}, false)
	}
}

// Current reports the visible notice, if any.
func (s *Sink) Current() (Notice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Notice{}, false
	}
	return *s.current, true
}

// Dismiss clears the slot ahead of the timer.
func (s *Sink) Dismiss() {
	s.mu.Lock()
	s.seq++
	s.current = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange(Notice{}, false)
	}
}

// Close stops the dismissal timer without firing the change callback.
func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.current = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Info posts an informational notice.
func (s *Sink) Info(message string) { s.Notify(message, SeverityInfo) }

// Success posts a success notice.
func (s *Sink) Success(message string) { s.Notify(message, SeveritySuccess) }

// Warning posts a warning notice.
func (s *Sink) Warning(message string) { s.Notify(message, SeverityWarning) }

// Error posts an error notice.
func (s *Sink) Error(message string) { s.Notify(message, SeverityError) }
