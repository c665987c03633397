package tasks

import (
	"net/url"
	"strings"
	"time"
)

// Kind distinguishes the two asynchronous task families the backend tracks.
type Kind string

const (
	KindSearch Kind = "search"
	KindEdit   Kind = "edit"
)

// ParseKind converts a string into a known Kind.
func ParseKind(value string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindSearch:
		return KindSearch, true
	case KindEdit:
		return KindEdit, true
	}
	return "", false
}

// Task is a backend-tracked unit of asynchronous work.
type Task struct {
	ID        string
	Kind      Kind
	Status    Status
	Message   string
	ResultURL string
	CreatedAt time.Time
}

// StatusUpdate carries one poll response worth of task state.
type StatusUpdate struct {
	Status    Status
	Message   string
	ResultURL string
}

// SearchPayload describes one search submission. At least one of QueryText,
// ImagePath, or VideoURL must be provided.
type SearchPayload struct {
	QueryText string
	ImagePath string
	VideoURL  string
	Filters   map[string]any
}

// Validate rejects empty payloads locally, before any network call is made.
func (p SearchPayload) Validate() error {
	text := strings.TrimSpace(p.QueryText)
	image := strings.TrimSpace(p.ImagePath)
	video := strings.TrimSpace(p.VideoURL)
	if text == "" && image == "" && video == "" {
		return Wrap(ErrValidation, KindSearch, "submit", "at least one query input (text, image, or video URL) must be provided", nil)
	}
	if video != "" {
		parsed, err := url.Parse(video)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return Wrap(ErrValidation, KindSearch, "submit", "query video URL must be absolute", err)
		}
	}
	return nil
}

// EditPayload describes one AI edit submission against an existing project.
type EditPayload struct {
	ProjectID string
	Prompt    string
}

// Validate rejects incomplete payloads locally.
func (p EditPayload) Validate() error {
	if strings.TrimSpace(p.ProjectID) == "" {
		return Wrap(ErrValidation, KindEdit, "submit", "project id is required", nil)
	}
	if strings.TrimSpace(p.Prompt) == "" {
		return Wrap(ErrValidation, KindEdit, "submit", "prompt text is required", nil)
	}
	return nil
}

// VideoSource describes one platform hosting of a result video.
type VideoSource struct {
	PlatformName         string
	PlatformVideoID      string
	OriginalURL          string
	EmbedURL             string
	ThumbnailURL         string
	UploaderName         string
	MatchScore           float64
	MatchTypeTags        []string
	BestMatchTimestampMS int64
	TextSnippet          string
}

// VideoResult is one canonical video in a search result page.
type VideoResult struct {
	ID              string
	Title           string
	Description     string
	DurationSeconds int
	PublicationDate string
	RelevanceScore  float64
	MatchTypes      []string
	PrimarySource   *VideoSource
}

// ResultPage is one paginated slice of a search task's output. A page is
// replaced wholesale on re-fetch; there is no incremental merge.
type ResultPage struct {
	TaskStatus  Status
	Message     string
	Items       []VideoResult
	PageNumber  int
	TotalPages  int
	TotalCount  int
	HasNext     bool
	HasPrevious bool
}

// Ready reports whether the page reflects a finished task. The backend
// answers result requests for in-flight tasks with an empty page and a
// non-terminal task_status; such a page carries no output yet.
func (p ResultPage) Ready() bool {
	return p.TaskStatus == "" || p.TaskStatus.Terminal()
}

// Empty reports whether a completed task produced no results. This is a valid
// outcome, distinct from a fetch failure.
func (p ResultPage) Empty() bool {
	return p.TotalCount == 0 && len(p.Items) == 0
}
