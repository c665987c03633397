package main

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"papri/internal/tasks"
)

func formatDuration(seconds int) string {
	if seconds <= 0 {
		return "-"
	}
	minutes := seconds / 60
	if minutes >= 60 {
		return fmt.Sprintf("%d:%02d:%02d", minutes/60, minutes%60, seconds%60)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds%60)
}

func formatTimestamp(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	return formatDuration(int(ms / 1000))
}

func platformTitle(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "-"
	}
	return cases.Title(language.Und).String(name)
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 3 || len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}

func resultRows(page tasks.ResultPage) [][]string {
	rows := make([][]string, 0, len(page.Items))
	for _, item := range page.Items {
		platform := "-"
		match := "-"
		if source := item.PrimarySource; source != nil {
			platform = platformTitle(source.PlatformName)
			match = formatTimestamp(source.BestMatchTimestampMS)
		}
		rows = append(rows, []string{
			truncate(item.Title, 48),
			platform,
			formatDuration(item.DurationSeconds),
			fmt.Sprintf("%.2f", item.RelevanceScore),
			strings.Join(item.MatchTypes, ", "),
			match,
		})
	}
	return rows
}

var resultHeaders = []string{"Title", "Platform", "Duration", "Score", "Match Types", "Best Match"}

var resultAligns = []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignRight}

func pageSummary(page tasks.ResultPage) string {
	if page.Empty() {
		return "No matching videos were found."
	}
	return fmt.Sprintf("Page %d of %d (%d results total)", page.PageNumber, page.TotalPages, page.TotalCount)
}
