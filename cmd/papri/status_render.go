package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"papri/internal/notifications"
	"papri/internal/tasks"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

// renderNotice formats one notification-slot transition as a timestamped
// console line.
func renderNotice(notice notifications.Notice, colorize bool) string {
	stamp := notice.PostedAt.Format("15:04:05")
	line := fmt.Sprintf("%s  [%s] %s", stamp, severityLabel(notice.Severity), notice.Message)
	if colorize {
		if color := severityColor(notice.Severity); color != "" {
			return color + line + ansiReset
		}
	}
	return line
}

func severityLabel(severity notifications.Severity) string {
	switch severity {
	case notifications.SeveritySuccess:
		return "OK"
	case notifications.SeverityWarning:
		return "WARN"
	case notifications.SeverityError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func severityColor(severity notifications.Severity) string {
	switch severity {
	case notifications.SeveritySuccess:
		return ansiGreen
	case notifications.SeverityWarning:
		return ansiYellow
	case notifications.SeverityError:
		return ansiRed
	case notifications.SeverityInfo:
		return ansiBlue
	default:
		return ""
	}
}

// renderStatusLine formats one polled status transition.
func renderStatusLine(task tasks.Task, colorize bool) string {
	stamp := time.Now().Format("15:04:05")
	line := fmt.Sprintf("%s  %s task %s: %s", stamp, task.Kind, shortID(task.ID), task.Status.Label())
	if task.Message != "" {
		line += " (" + task.Message + ")"
	}
	if !colorize {
		return line
	}
	switch {
	case task.Status.Failed():
		return ansiRed + line + ansiReset
	case task.Status.Succeeded():
		return ansiGreen + line + ansiReset
	case task.Status == tasks.StatusCancelled:
		return ansiYellow + line + ansiReset
	default:
		return line
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
