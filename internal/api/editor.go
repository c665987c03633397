package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"papri/internal/tasks"
)

// ProjectSpec describes a new video-edit project. Exactly one of SourceID
// (a video source from search results) or UploadPath (a local file) selects
// the footage.
type ProjectSpec struct {
	Name       string
	SourceID   string
	UploadPath string
}

// Validate rejects incomplete specs locally.
func (s ProjectSpec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return tasks.Wrap(tasks.ErrValidation, tasks.KindEdit, "project", "project name is required", nil)
	}
	hasSource := strings.TrimSpace(s.SourceID) != ""
	hasUpload := strings.TrimSpace(s.UploadPath) != ""
	if hasSource == hasUpload {
		return tasks.Wrap(tasks.ErrValidation, tasks.KindEdit, "project", "provide exactly one of a source id or an upload file", nil)
	}
	return nil
}

// CreateProject registers a video-edit project and returns its id.
func (c *Client) CreateProject(ctx context.Context, spec ProjectSpec) (Project, error) {
	if err := spec.Validate(); err != nil {
		return Project{}, err
	}
	body, contentType, err := encodeProjectForm(spec)
	if err != nil {
		return Project{}, tasks.Wrap(tasks.ErrSubmission, tasks.KindEdit, "project", "encode form", err)
	}
	endpoint, err := c.endpoint("video_editor", "projects")
	if err != nil {
		return Project{}, tasks.Wrap(tasks.ErrSubmission, tasks.KindEdit, "project", "", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, body, contentType)
	if err != nil {
		return Project{}, tasks.Wrap(tasks.ErrSubmission, tasks.KindEdit, "project", "", err)
	}
	var created projectResponse
	if err := c.doJSON(req, tasks.KindEdit, "project", &created); err != nil {
		return Project{}, err
	}
	if created.ID == "" {
		return Project{}, tasks.Wrap(tasks.ErrSubmission, tasks.KindEdit, "project", "backend returned no project id", nil)
	}
	return Project{ID: created.ID.String(), Name: created.ProjectName}, nil
}

// SubmitEdit posts an edit prompt against a project and returns the accepted
// task. Implements tasks.EditSubmitter.
func (c *Client) SubmitEdit(ctx context.Context, payload tasks.EditPayload) (tasks.Task, error) {
	endpoint, err := c.endpoint("video_editor", "projects", payload.ProjectID, "tasks")
	if err != nil {
		return tasks.Task{}, tasks.Wrap(tasks.ErrSubmission, tasks.KindEdit, "submit", "", err)
	}
	body, err := jsonBody(editTaskRequest{PromptText: payload.Prompt})
	if err != nil {
		return tasks.Task{}, tasks.Wrap(tasks.ErrSubmission, tasks.KindEdit, "submit", "", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, body, "application/json")
	if err != nil {
		return tasks.Task{}, tasks.Wrap(tasks.ErrSubmission, tasks.KindEdit, "submit", "", err)
	}
	var accepted editTaskResponse
	if err := c.doJSON(req, tasks.KindEdit, "submit", &accepted); err != nil {
		return tasks.Task{}, err
	}
	if accepted.ID == "" {
		return tasks.Task{}, tasks.Wrap(tasks.ErrSubmission, tasks.KindEdit, "submit", "backend returned no task id", nil)
	}
	return tasks.Task{
		ID:        accepted.ID.String(),
		Kind:      tasks.KindEdit,
		Status:    tasks.ParseStatus(accepted.Status),
		Message:   accepted.ErrorMessage,
		ResultURL: accepted.ResultURL,
		CreatedAt: time.Now(),
	}, nil
}

func (c *Client) editTaskStatus(ctx context.Context, taskID string) (tasks.StatusUpdate, error) {
	endpoint, err := c.endpoint("video_editor", "tasks", taskID, "status")
	if err != nil {
		return tasks.StatusUpdate{}, tasks.Wrap(tasks.ErrTransient, tasks.KindEdit, "status", "", err)
	}
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return tasks.StatusUpdate{}, tasks.Wrap(tasks.ErrTransient, tasks.KindEdit, "status", "", err)
	}
	var status editTaskResponse
	if err := c.doJSON(req, tasks.KindEdit, "status", &status); err != nil {
		return tasks.StatusUpdate{}, err
	}
	return tasks.StatusUpdate{
		Status:    tasks.ParseStatus(status.Status),
		Message:   status.ErrorMessage,
		ResultURL: status.ResultURL,
	}, nil
}

func encodeProjectForm(spec ProjectSpec) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("project_name", spec.Name); err != nil {
		return nil, "", err
	}
	if spec.SourceID != "" {
		if err := writer.WriteField("original_video_source_id", spec.SourceID); err != nil {
			return nil, "", err
		}
	}
	if spec.UploadPath != "" {
		file, err := os.Open(spec.UploadPath)
		if err != nil {
			return nil, "", fmt.Errorf("open upload: %w", err)
		}
		defer file.Close()
		part, err := writer.CreateFormFile("uploaded_video_file", filepath.Base(spec.UploadPath))
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, file); err != nil {
			return nil, "", fmt.Errorf("copy upload: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}
