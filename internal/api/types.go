package api

import (
	"encoding/json"
	"strings"

	"papri/internal/tasks"
)

// flexID tolerates the backend's mixed id types: search/edit task ids are
// UUID strings while project and video ids are integers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*f = ""
		return nil
	}
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*f = flexID(asString)
		return nil
	}
	var asNumber json.Number
	if err := json.Unmarshal(data, &asNumber); err != nil {
		return err
	}
	*f = flexID(asNumber.String())
	return nil
}

func (f flexID) String() string { return string(f) }

type searchTaskResponse struct {
	ID           flexID `json:"id"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	CreatedAt    string `json:"created_at"`
}

type resultsResponse struct {
	TaskStatus  string              `json:"task_status"`
	Count       int                 `json:"count"`
	NumPages    int                 `json:"num_pages"`
	CurrentPage int                 `json:"current_page"`
	Next        bool                `json:"next"`
	Previous    bool                `json:"previous"`
	Message     string              `json:"message"`
	ResultsData []videoResultRecord `json:"results_data"`
}

type videoResultRecord struct {
	ID              flexID              `json:"id"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	DurationSeconds int                 `json:"duration_seconds"`
	PublicationDate string              `json:"publication_date"`
	RelevanceScore  float64             `json:"relevance_score"`
	MatchTypes      []string            `json:"match_types"`
	PrimarySource   *videoSourceRecord  `json:"primary_source_display"`
	Sources         []videoSourceRecord `json:"sources"`
}

type videoSourceRecord struct {
	PlatformName         string   `json:"platform_name"`
	PlatformVideoID      string   `json:"platform_video_id"`
	OriginalURL          string   `json:"original_url"`
	EmbedURL             string   `json:"embed_url"`
	ThumbnailURL         string   `json:"thumbnail_url"`
	UploaderName         string   `json:"uploader_name"`
	MatchScore           float64  `json:"match_score"`
	MatchTypeTags        []string `json:"match_type_tags"`
	BestMatchTimestampMS int64    `json:"best_match_timestamp_ms"`
	TextSnippet          string   `json:"relevant_text_snippet"`
}

type projectResponse struct {
	ID          flexID `json:"id"`
	ProjectName string `json:"project_name"`
}

type editTaskResponse struct {
	ID           flexID `json:"id"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	ResultURL    string `json:"result_url"`
	CreatedAt    string `json:"created_at"`
}

type editTaskRequest struct {
	PromptText string `json:"prompt_text"`
}

// AuthUser identifies the signed-in account.
type AuthUser struct {
	ID        flexID `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// AuthProfile carries subscription details attached to the account.
type AuthProfile struct {
	SubscriptionPlan       string `json:"subscription_plan"`
	SubscriptionExpiry     string `json:"subscription_expiry_date"`
	RemainingTrialSearches int    `json:"remaining_trial_searches"`
}

// AuthStatus is the backend's session probe response.
type AuthStatus struct {
	IsAuthenticated bool         `json:"isAuthenticated"`
	User            *AuthUser    `json:"user"`
	Profile         *AuthProfile `json:"profile"`
}

// Project is a video-edit project the backend tracks for the account.
type Project struct {
	ID   string
	Name string
}

func (r videoResultRecord) toResult() tasks.VideoResult {
	result := tasks.VideoResult{
		ID:              r.ID.String(),
		Title:           r.Title,
		Description:     r.Description,
		DurationSeconds: r.DurationSeconds,
		PublicationDate: r.PublicationDate,
		RelevanceScore:  r.RelevanceScore,
		MatchTypes:      r.MatchTypes,
	}
	source := r.PrimarySource
	if source == nil && len(r.Sources) > 0 {
		source = &r.Sources[0]
	}
	if source != nil {
		result.PrimarySource = &tasks.VideoSource{
			PlatformName:         source.PlatformName,
			PlatformVideoID:      source.PlatformVideoID,
			OriginalURL:          source.OriginalURL,
			EmbedURL:             source.EmbedURL,
			ThumbnailURL:         source.ThumbnailURL,
			UploaderName:         source.UploaderName,
			MatchScore:           source.MatchScore,
			MatchTypeTags:        source.MatchTypeTags,
			BestMatchTimestampMS: source.BestMatchTimestampMS,
			TextSnippet:          source.TextSnippet,
		}
	}
	return result
}

func (r resultsResponse) toPage() tasks.ResultPage {
	page := tasks.ResultPage{
		TaskStatus:  tasks.ParseStatus(r.TaskStatus),
		Message:     r.Message,
		PageNumber:  r.CurrentPage,
		TotalPages:  r.NumPages,
		TotalCount:  r.Count,
		HasNext:     r.Next,
		HasPrevious: r.Previous,
	}
	if len(r.ResultsData) > 0 {
		page.Items = make([]tasks.VideoResult, 0, len(r.ResultsData))
		for _, record := range r.ResultsData {
			page.Items = append(page.Items, record.toResult())
		}
	}
	return page
}
