package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"papri/internal/tasks"
)

// InitiateSearch posts a search payload as multipart form data and returns the
// accepted task. Implements tasks.SearchSubmitter.
func (c *Client) InitiateSearch(ctx context.Context, payload tasks.SearchPayload) (tasks.Task, error) {
	body, contentType, err := encodeSearchForm(payload)
	if err != nil {
		return tasks.Task{}, tasks.Wrap(tasks.ErrSubmission, tasks.KindSearch, "initiate", "encode form", err)
	}

	endpoint, err := c.endpoint("search", "initiate")
	if err != nil {
		return tasks.Task{}, tasks.Wrap(tasks.ErrSubmission, tasks.KindSearch, "initiate", "", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, body, contentType)
	if err != nil {
		return tasks.Task{}, tasks.Wrap(tasks.ErrSubmission, tasks.KindSearch, "initiate", "", err)
	}

	var accepted searchTaskResponse
	if err := c.doJSON(req, tasks.KindSearch, "initiate", &accepted); err != nil {
		return tasks.Task{}, err
	}
	if accepted.ID == "" {
		return tasks.Task{}, tasks.Wrap(tasks.ErrSubmission, tasks.KindSearch, "initiate", "backend returned no task id", nil)
	}
	return tasks.Task{
		ID:        accepted.ID.String(),
		Kind:      tasks.KindSearch,
		Status:    tasks.ParseStatus(accepted.Status),
		Message:   accepted.ErrorMessage,
		CreatedAt: time.Now(),
	}, nil
}

// TaskStatus answers one status poll, dispatching on task kind. Implements
// tasks.StatusProvider.
func (c *Client) TaskStatus(ctx context.Context, task tasks.Task) (tasks.StatusUpdate, error) {
	if _, err := uuid.Parse(task.ID); err != nil {
		return tasks.StatusUpdate{}, tasks.Wrap(tasks.ErrValidation, task.Kind, "status", fmt.Sprintf("invalid task id %q", task.ID), nil)
	}
	switch task.Kind {
	case tasks.KindEdit:
		return c.editTaskStatus(ctx, task.ID)
	default:
		return c.searchTaskStatus(ctx, task.ID)
	}
}

func (c *Client) searchTaskStatus(ctx context.Context, taskID string) (tasks.StatusUpdate, error) {
	endpoint, err := c.endpoint("search", "status", taskID)
	if err != nil {
		return tasks.StatusUpdate{}, tasks.Wrap(tasks.ErrTransient, tasks.KindSearch, "status", "", err)
	}
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return tasks.StatusUpdate{}, tasks.Wrap(tasks.ErrTransient, tasks.KindSearch, "status", "", err)
	}
	var status searchTaskResponse
	if err := c.doJSON(req, tasks.KindSearch, "status", &status); err != nil {
		return tasks.StatusUpdate{}, err
	}
	return tasks.StatusUpdate{
		Status:  tasks.ParseStatus(status.Status),
		Message: status.ErrorMessage,
	}, nil
}

// FetchResults retrieves one result page for a finished search task.
// Implements tasks.ResultFetcher.
func (c *Client) FetchResults(ctx context.Context, taskID string, page int) (tasks.ResultPage, error) {
	if _, err := uuid.Parse(taskID); err != nil {
		return tasks.ResultPage{}, tasks.Wrap(tasks.ErrValidation, tasks.KindSearch, "results", fmt.Sprintf("invalid task id %q", taskID), nil)
	}
	if page < 1 {
		page = 1
	}
	endpoint, err := c.endpoint("search", "results", taskID)
	if err != nil {
		return tasks.ResultPage{}, tasks.Wrap(tasks.ErrFetch, tasks.KindSearch, "results", "", err)
	}
	endpoint += "?page=" + strconv.Itoa(page)
	if c.pageSize > 0 {
		endpoint += "&page_size=" + strconv.Itoa(c.pageSize)
	}

	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return tasks.ResultPage{}, tasks.Wrap(tasks.ErrFetch, tasks.KindSearch, "results", "", err)
	}
	var decoded resultsResponse
	if err := c.doJSON(req, tasks.KindSearch, "results", &decoded); err != nil {
		return tasks.ResultPage{}, err
	}
	return decoded.toPage(), nil
}

// encodeSearchForm builds the multipart body the backend's initiate endpoint
// expects. Buffered in memory; query images are small by contract.
func encodeSearchForm(payload tasks.SearchPayload) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if payload.QueryText != "" {
		if err := writer.WriteField("query_text", payload.QueryText); err != nil {
			return nil, "", err
		}
	}
	if payload.VideoURL != "" {
		if err := writer.WriteField("query_video_url", payload.VideoURL); err != nil {
			return nil, "", err
		}
	}
	if len(payload.Filters) > 0 {
		encoded, err := json.Marshal(payload.Filters)
		if err != nil {
			return nil, "", fmt.Errorf("encode filters: %w", err)
		}
		if err := writer.WriteField("filters", string(encoded)); err != nil {
			return nil, "", err
		}
	}
	if payload.ImagePath != "" {
		file, err := os.Open(payload.ImagePath)
		if err != nil {
			return nil, "", fmt.Errorf("open query image: %w", err)
		}
		defer file.Close()
		part, err := writer.CreateFormFile("query_image", filepath.Base(payload.ImagePath))
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, file); err != nil {
			return nil, "", fmt.Errorf("copy query image: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}
