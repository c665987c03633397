package main

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"papri/internal/notifications"
	"papri/internal/tasks"
)

// watchOutcome is the JSON shape emitted after a watch session.
type watchOutcome struct {
	TaskID    string   `json:"task_id"`
	Kind      string   `json:"kind"`
	Status    string   `json:"status"`
	Message   string   `json:"message,omitempty"`
	ResultURL string   `json:"result_url,omitempty"`
	Results   *pageDoc `json:"results,omitempty"`
}

type pageDoc struct {
	TaskStatus string          `json:"task_status,omitempty"`
	Message    string          `json:"message,omitempty"`
	TotalCount int             `json:"total_count"`
	PageNumber int             `json:"page_number"`
	TotalPages int             `json:"total_pages"`
	Items      []resultItemDoc `json:"items"`
}

type resultItemDoc struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Platform       string   `json:"platform,omitempty"`
	OriginalURL    string   `json:"original_url,omitempty"`
	Duration       int      `json:"duration_seconds"`
	RelevanceScore float64  `json:"relevance_score"`
	MatchTypes     []string `json:"match_types,omitempty"`
	BestMatchMS    int64    `json:"best_match_timestamp_ms,omitempty"`
}

func pageDocument(page tasks.ResultPage) *pageDoc {
	doc := &pageDoc{
		TaskStatus: string(page.TaskStatus),
		Message:    page.Message,
		TotalCount: page.TotalCount,
		PageNumber: page.PageNumber,
		TotalPages: page.TotalPages,
		Items:      make([]resultItemDoc, 0, len(page.Items)),
	}
	for _, item := range page.Items {
		entry := resultItemDoc{
			ID:             item.ID,
			Title:          item.Title,
			Duration:       item.DurationSeconds,
			RelevanceScore: item.RelevanceScore,
			MatchTypes:     item.MatchTypes,
		}
		if source := item.PrimarySource; source != nil {
			entry.Platform = source.PlatformName
			entry.OriginalURL = source.OriginalURL
			entry.BestMatchMS = source.BestMatchTimestampMS
		}
		doc.Items = append(doc.Items, entry)
	}
	return doc
}

// watchTask polls a submitted task to its terminal state, rendering
// status transitions and the notification slot as they change. Ctrl-C
// cancels the watch without cancelling the backend task.
func (c *commandContext) watchTask(cmd *cobra.Command, task tasks.Task, summary string) error {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	quiet := c.jsonOutput()

	var printMu sync.Mutex
	onChange := func(notice notifications.Notice, visible bool) {
		if quiet || !visible {
			return
		}
		printMu.Lock()
		fmt.Fprintln(out, renderNotice(notice, colorize))
		printMu.Unlock()
	}

	sink, err := c.newSink(onChange)
	if err != nil {
		return err
	}
	defer sink.Close()

	controller, err := c.newController(sink)
	if err != nil {
		return err
	}
	defer controller.Close()

	store := c.optionalHistoryStore()
	if store != nil {
		defer store.Close()
		if _, err := store.Record(cmd.Context(), task, summary); err != nil {
			if logger, lerr := c.ensureLogger(); lerr == nil {
				logger.Warn("recording task in history failed", "task_id", task.ID, "error", err)
			}
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var failure error
	handle, err := controller.Watch(ctx, task, tasks.Callbacks{
		OnUpdate: func(updated tasks.Task) {
			if !quiet {
				printMu.Lock()
				fmt.Fprintln(out, renderStatusLine(updated, colorize))
				printMu.Unlock()
			}
			if store != nil {
				_ = store.UpdateStatus(context.Background(), updated.ID, updated.Status, 0, updated.ResultURL)
			}
		},
		OnFailure: func(_ tasks.Task, err error) {
			failure = err
		},
	})
	if err != nil {
		return err
	}

	interrupted := false
	select {
	case <-handle.Done():
	case <-ctx.Done():
		interrupted = true
		handle.Cancel()
	}

	final := handle.Task()
	page, hasPage := handle.Result()
	if store != nil {
		count := 0
		if hasPage {
			count = page.TotalCount
		}
		_ = store.UpdateStatus(context.Background(), final.ID, final.Status, count, final.ResultURL)
	}

	if interrupted {
		if !quiet {
			fmt.Fprintf(out, "Stopped watching task %s; it continues on the backend.\n", shortID(final.ID))
		}
		return nil
	}

	if quiet {
		outcome := watchOutcome{
			TaskID:    final.ID,
			Kind:      string(final.Kind),
			Status:    string(final.Status),
			Message:   final.Message,
			ResultURL: final.ResultURL,
		}
		if hasPage {
			outcome.Results = pageDocument(page)
		}
		if err := writeJSON(cmd, outcome); err != nil {
			return err
		}
	} else if hasPage && !page.Empty() {
		fmt.Fprintln(out, renderTable(resultHeaders, resultRows(page), resultAligns))
		fmt.Fprintln(out, pageSummary(page))
	}

	return failure
}
