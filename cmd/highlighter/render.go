package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"highlighter/internal/queue"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

var titleCaser = cases.Title(language.English)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func statusColor(status queue.Status) string {
	switch {
	case status == queue.StatusCompleted:
		return ansiGreen
	case status == queue.StatusFailed:
		return ansiRed
	case status == queue.StatusReview:
		return ansiYellow
	case status.IsProcessing():
		return ansiBlue
	default:
		return ""
	}
}

func colorStatus(status string, colorize bool) string {
	if !colorize {
		return status
	}
	color := statusColor(queue.Status(status))
	if color == "" {
		return status
	}
	return color + status + ansiReset
}

// sectionHeader renders a category or section heading in title case with an
// underline of matching width.
func sectionHeader(title string, colorize bool) string {
	line := titleCaser.String(strings.TrimSpace(title))
	rule := strings.Repeat("=", len([]rune(line)))
	if colorize {
		return ansiBlue + line + ansiReset + "\n" + ansiBlue + rule + ansiReset + "\n"
	}
	return line + "\n" + rule + "\n"
}

func formatBytes(size int64) string {
	if size <= 0 {
		return "-"
	}
	return humanize.IBytes(uint64(size))
}

func formatPercent(value float64) string {
	if value <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", value)
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
