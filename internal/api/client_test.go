package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"papri/internal/api"
	"papri/internal/config"
	"papri/internal/tasks"
)

const (
	searchTaskID = "0b8f8f62-66cb-45f7-b1d8-6f4f7a4bd1a4"
	editTaskID   = "b7a06f3e-26b0-4b3f-9f2c-60e6f5ef9d9b"
)

func newTestClient(t *testing.T, handler http.Handler) (*api.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.API.BaseURL = server.URL + "/api/v1"

	client, err := api.New(&cfg)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client, server
}

// backendStub wires the auth/status CSRF priming plus one handler per route.
func backendStub(t *testing.T, routes map[string]http.HandlerFunc) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/auth/status/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "csrf-test-token", Path: "/"})
		_ = json.NewEncoder(w).Encode(map[string]any{"isAuthenticated": false})
	})
	for pattern, handler := range routes {
		mux.HandleFunc(pattern, handler)
	}
	return mux
}

func TestInitiateSearchSendsMultipartAndCSRF(t *testing.T) {
	var gotCSRF string
	var gotText, gotURL, gotFilters string
	routes := map[string]http.HandlerFunc{
		"POST /api/v1/search/initiate/": func(w http.ResponseWriter, r *http.Request) {
			gotCSRF = r.Header.Get("X-CSRFToken")
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("expected multipart form: %v", err)
			}
			gotText = r.FormValue("query_text")
			gotURL = r.FormValue("query_video_url")
			gotFilters = r.FormValue("filters")
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(map[string]any{"id": searchTaskID, "status": "pending"})
		},
	}
	client, _ := newTestClient(t, backendStub(t, routes))

	task, err := client.InitiateSearch(context.Background(), tasks.SearchPayload{
		QueryText: "synthwave mix",
		VideoURL:  "https://youtu.be/abc",
		Filters:   map[string]any{"platforms": []string{"youtube"}},
	})
	if err != nil {
		t.Fatalf("InitiateSearch returned error: %v", err)
	}
	if task.ID != searchTaskID || task.Kind != tasks.KindSearch || task.Status != tasks.StatusPending {
		t.Fatalf("unexpected task: %+v", task)
	}
	if gotCSRF != "csrf-test-token" {
		t.Fatalf("expected CSRF header on POST, got %q", gotCSRF)
	}
	if gotText != "synthwave mix" || gotURL != "https://youtu.be/abc" {
		t.Fatalf("form fields missing: text=%q url=%q", gotText, gotURL)
	}
	var filters map[string]any
	if err := json.Unmarshal([]byte(gotFilters), &filters); err != nil {
		t.Fatalf("filters not JSON-encoded: %q", gotFilters)
	}
}

func TestInitiateSearchMapsDemoLimit(t *testing.T) {
	routes := map[string]http.HandlerFunc{
		"POST /api/v1/search/initiate/": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusPaymentRequired)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "Demo search limit reached."})
		},
	}
	client, _ := newTestClient(t, backendStub(t, routes))

	_, err := client.InitiateSearch(context.Background(), tasks.SearchPayload{QueryText: "x"})
	if !errors.Is(err, tasks.ErrDemoLimit) {
		t.Fatalf("expected ErrDemoLimit, got %v", err)
	}
}

func TestInitiateSearchSurfacesFieldErrors(t *testing.T) {
	routes := map[string]http.HandlerFunc{
		"POST /api/v1/search/initiate/": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"query_video_url": []string{"Enter a valid URL."},
			})
		},
	}
	client, _ := newTestClient(t, backendStub(t, routes))

	_, err := client.InitiateSearch(context.Background(), tasks.SearchPayload{QueryText: "x"})
	if !errors.Is(err, tasks.ErrSubmission) {
		t.Fatalf("expected ErrSubmission, got %v", err)
	}
	if got := err.Error(); !strings.Contains(got, "query_video_url") || !strings.Contains(got, "valid URL") {
		t.Fatalf("field error detail missing: %q", got)
	}
}

func TestTaskStatusDispatchesOnKind(t *testing.T) {
	routes := map[string]http.HandlerFunc{
		"GET /api/v1/search/status/" + searchTaskID + "/": func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"id": searchTaskID, "status": "processing_sources"})
		},
		"GET /api/v1/video_editor/tasks/" + editTaskID + "/status/": func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": editTaskID, "status": "completed",
				"result_url": "https://papri.example/media/out.mp4",
			})
		},
	}
	client, _ := newTestClient(t, backendStub(t, routes))

	update, err := client.TaskStatus(context.Background(), tasks.Task{ID: searchTaskID, Kind: tasks.KindSearch})
	if err != nil {
		t.Fatalf("search status error: %v", err)
	}
	if update.Status != tasks.StatusProcessingSources {
		t.Fatalf("unexpected search status: %+v", update)
	}

	update, err = client.TaskStatus(context.Background(), tasks.Task{ID: editTaskID, Kind: tasks.KindEdit})
	if err != nil {
		t.Fatalf("edit status error: %v", err)
	}
	if update.Status != tasks.StatusCompleted || update.ResultURL == "" {
		t.Fatalf("unexpected edit status: %+v", update)
	}
}

func TestTaskStatusRejectsMalformedID(t *testing.T) {
	client, _ := newTestClient(t, backendStub(t, nil))
	_, err := client.TaskStatus(context.Background(), tasks.Task{ID: "not-a-uuid", Kind: tasks.KindSearch})
	if !errors.Is(err, tasks.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestTaskStatusNotFound(t *testing.T) {
	routes := map[string]http.HandlerFunc{
		"GET /api/v1/search/status/" + searchTaskID + "/": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "Search task not found."})
		},
	}
	client, _ := newTestClient(t, backendStub(t, routes))
	_, err := client.TaskStatus(context.Background(), tasks.Task{ID: searchTaskID, Kind: tasks.KindSearch})
	if !errors.Is(err, tasks.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFetchResultsDecodesPage(t *testing.T) {
	routes := map[string]http.HandlerFunc{
		"GET /api/v1/search/results/" + searchTaskID + "/": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("page"); got != "2" {
				t.Errorf("expected page=2, got %q", got)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"task_status": "completed", "count": 11, "num_pages": 2,
				"current_page": 2, "next": false, "previous": true,
				"results_data": []map[string]any{{
					"id": 42, "title": "Go Concurrency Patterns",
					"duration_seconds": 1810, "relevance_score": 0.91,
					"match_types": []string{"transcript_kw"},
					"primary_source_display": map[string]any{
						"platform_name": "youtube", "platform_video_id": "dQw4",
						"original_url":            "https://youtube.com/watch?v=dQw4",
						"best_match_timestamp_ms": 61500,
						"relevant_text_snippet":   "...goroutines are cheap...",
					},
				}},
			})
		},
	}
	client, _ := newTestClient(t, backendStub(t, routes))

	page, err := client.FetchResults(context.Background(), searchTaskID, 2)
	if err != nil {
		t.Fatalf("FetchResults returned error: %v", err)
	}
	if page.TotalCount != 11 || page.PageNumber != 2 || page.TotalPages != 2 {
		t.Fatalf("unexpected pagination: %+v", page)
	}
	if !page.HasPrevious || page.HasNext {
		t.Fatalf("unexpected next/previous flags: %+v", page)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected one item, got %d", len(page.Items))
	}
	item := page.Items[0]
	if item.ID != "42" || item.Title != "Go Concurrency Patterns" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if item.PrimarySource == nil || item.PrimarySource.BestMatchTimestampMS != 61500 {
		t.Fatalf("unexpected source: %+v", item.PrimarySource)
	}
}

func TestFetchResultsEmptySet(t *testing.T) {
	routes := map[string]http.HandlerFunc{
		"GET /api/v1/search/results/" + searchTaskID + "/": func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"task_status": "completed", "count": 0, "num_pages": 1,
				"current_page": 1, "results_data": []any{},
				"message": "No results found.",
			})
		},
	}
	client, _ := newTestClient(t, backendStub(t, routes))

	page, err := client.FetchResults(context.Background(), searchTaskID, 1)
	if err != nil {
		t.Fatalf("empty result set must not error: %v", err)
	}
	if !page.Empty() {
		t.Fatalf("expected empty page, got %+v", page)
	}
}

func TestFetchResultsWhileTaskInFlight(t *testing.T) {
	routes := map[string]http.HandlerFunc{
		"GET /api/v1/search/results/" + searchTaskID + "/": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"task_status":  "processing",
				"message":      "Search is still processing or has failed.",
				"results_data": []any{},
			})
		},
	}
	client, _ := newTestClient(t, backendStub(t, routes))

	page, err := client.FetchResults(context.Background(), searchTaskID, 1)
	if err != nil {
		t.Fatalf("in-flight result fetch must not error: %v", err)
	}
	if page.Ready() {
		t.Fatalf("expected page not ready while task is processing, got %+v", page)
	}
	if page.TaskStatus != tasks.StatusProcessing {
		t.Fatalf("unexpected task status %q", page.TaskStatus)
	}
	if page.Message != "Search is still processing or has failed." {
		t.Fatalf("backend message dropped, got %q", page.Message)
	}
}

func TestCreateProjectAndSubmitEdit(t *testing.T) {
	var gotPrompt string
	routes := map[string]http.HandlerFunc{
		"POST /api/v1/video_editor/projects/": func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("expected multipart form: %v", err)
			}
			if got := r.FormValue("project_name"); got != "Highlights" {
				t.Errorf("unexpected project name %q", got)
			}
			if got := r.FormValue("original_video_source_id"); got != "314" {
				t.Errorf("unexpected source id %q", got)
			}
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]any{"id": 7, "project_name": "Highlights"})
		},
		"POST /api/v1/video_editor/projects/7/tasks/": func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				PromptText string `json:"prompt_text"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			gotPrompt = req.PromptText
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]any{"id": editTaskID, "status": "pending"})
		},
	}
	client, _ := newTestClient(t, backendStub(t, routes))

	project, err := client.CreateProject(context.Background(), api.ProjectSpec{Name: "Highlights", SourceID: "314"})
	if err != nil {
		t.Fatalf("CreateProject returned error: %v", err)
	}
	if project.ID != "7" {
		t.Fatalf("unexpected project: %+v", project)
	}

	task, err := client.SubmitEdit(context.Background(), tasks.EditPayload{ProjectID: project.ID, Prompt: "cut the intro"})
	if err != nil {
		t.Fatalf("SubmitEdit returned error: %v", err)
	}
	if task.ID != editTaskID || task.Kind != tasks.KindEdit {
		t.Fatalf("unexpected task: %+v", task)
	}
	if gotPrompt != "cut the intro" {
		t.Fatalf("prompt not sent: %q", gotPrompt)
	}
}

func TestProjectSpecValidate(t *testing.T) {
	specs := []api.ProjectSpec{
		{},
		{Name: "x"},
		{Name: "x", SourceID: "1", UploadPath: "/tmp/v.mp4"},
	}
	for _, spec := range specs {
		if err := spec.Validate(); !errors.Is(err, tasks.ErrValidation) {
			t.Fatalf("expected ErrValidation for %+v, got %v", spec, err)
		}
	}
	if err := (api.ProjectSpec{Name: "x", SourceID: "1"}).Validate(); err != nil {
		t.Fatalf("expected valid spec, got %v", err)
	}
}

func TestAuthStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/auth/status/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"isAuthenticated": true,
			"user":            map[string]any{"id": 3, "username": "ada"},
			"profile":         map[string]any{"subscription_plan": "pro", "remaining_trial_searches": 0},
		})
	})
	client, _ := newTestClient(t, mux)

	status, err := client.AuthStatus(context.Background())
	if err != nil {
		t.Fatalf("AuthStatus returned error: %v", err)
	}
	if !status.IsAuthenticated || status.User == nil || status.User.Username != "ada" {
		t.Fatalf("unexpected auth status: %+v", status)
	}
	if status.Profile == nil || status.Profile.SubscriptionPlan != "pro" {
		t.Fatalf("unexpected profile: %+v", status.Profile)
	}
}
