package tasks

import "strings"

// Status represents the backend-reported lifecycle state of a task.
type Status string

const (
	StatusPending            Status = "pending"
	StatusQueued             Status = "queued"
	StatusProcessing         Status = "processing"
	StatusProcessingSources  Status = "processing_sources"
	StatusAggregating        Status = "aggregating"
	StatusDownloadingVideo   Status = "downloading_video"
	StatusInterpretingPrompt Status = "interpreting_prompt"
	StatusEditingInProgress  Status = "editing_in_progress"
	StatusUploadingOutput    Status = "uploading_output"
	StatusCompleted          Status = "completed"
	StatusPartialResults     Status = "partial_results"
	StatusCancelled          Status = "cancelled"
	StatusFailed             Status = "failed"
)

var statusLabels = map[Status]string{
	StatusPending:            "Pending submission",
	StatusQueued:             "Queued for processing",
	StatusProcessing:         "Processing",
	StatusProcessingSources:  "Processing sources & content",
	StatusAggregating:        "Aggregating results",
	StatusDownloadingVideo:   "Downloading video",
	StatusInterpretingPrompt: "Interpreting prompt",
	StatusEditingInProgress:  "Editing in progress",
	StatusUploadingOutput:    "Uploading output",
	StatusCompleted:          "Completed",
	StatusPartialResults:     "Completed with partial results",
	StatusCancelled:          "Cancelled",
	StatusFailed:             "Failed",
}

// ParseStatus normalizes a backend status string. Unknown values are kept as-is
// so new backend states degrade gracefully instead of being dropped.
func ParseStatus(value string) Status {
	return Status(strings.ToLower(strings.TrimSpace(value)))
}

// Terminal reports whether no further transitions can occur.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusPartialResults, StatusCancelled, StatusFailed:
		return true
	}
	return s.Failed()
}

// Succeeded reports whether the task finished with fetchable results.
func (s Status) Succeeded() bool {
	return s == StatusCompleted || s == StatusPartialResults
}

// Failed reports whether the task ended in a failure state. The backend emits
// qualified variants such as failed_source_fetch and failed_timeout; all of
// them classify as failures.
func (s Status) Failed() bool {
	return s == StatusFailed || strings.HasPrefix(string(s), "failed_")
}

// Label returns a human-readable description of the status. Unknown statuses
// fall back to the raw value with underscores spaced out.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	if s.Failed() {
		return "Failed: " + strings.ReplaceAll(strings.TrimPrefix(string(s), "failed_"), "_", " ")
	}
	if s == "" {
		return "Unknown"
	}
	return strings.ReplaceAll(string(s), "_", " ")
}

// rank orders statuses for the monotonicity guard: a task never moves from a
// higher rank back to a lower one on the client.
func (s Status) rank() int {
	switch {
	case s.Terminal():
		return 2
	case s == StatusPending, s == "":
		return 0
	default:
		return 1
	}
}
