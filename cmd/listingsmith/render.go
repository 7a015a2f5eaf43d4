package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"listingsmith/internal/api"
	"listingsmith/internal/tasks"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func shouldColorize(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func paint(color, value string, colorize bool) string {
	if !colorize || color == "" {
		return value
	}
	return color + value + ansiReset
}

func statusColor(status tasks.Status) string {
	switch status {
	case tasks.StatusCompleted:
		return ansiGreen
	case tasks.StatusFailed:
		return ansiRed
	case tasks.StatusProcessing:
		return ansiBlue
	default:
		return ansiYellow
	}
}

func progressLabel(task api.Task) string {
	return fmt.Sprintf("%d%% (%d/%d)", task.Progress, task.CompletedItems, task.TotalItems)
}

func taskRows(items []api.Task, colorize bool) [][]string {
	rows := make([][]string, 0, len(items))
	for _, task := range items {
		rows = append(rows, []string{
			task.ID,
			task.Name,
			task.Kind,
			paint(statusColor(tasks.Status(task.Status)), task.Status, colorize),
			progressLabel(task),
			task.CreatedAt,
		})
	}
	return rows
}

func renderTasks(out io.Writer, items []api.Task) {
	if len(items) == 0 {
		fmt.Fprintln(out, "No tasks")
		return
	}
	headers := []string{"ID", "Name", "Kind", "Status", "Progress", "Created"}
	fmt.Fprintln(out, renderTable(headers, taskRows(items, shouldColorize(out)), []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft}))
}

func renderResults(out io.Writer, results []tasks.Result) {
	if len(results) == 0 {
		fmt.Fprintln(out, "No results")
		return
	}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		marker := ""
		if r.Selected {
			marker = "*"
		}
		rows = append(rows, []string{
			marker,
			r.ID,
			r.ProductName,
			fmt.Sprintf("%d", r.Variant),
			r.Title,
			oneLine(r.SellingPoint),
		})
	}
	headers := []string{"", "Result", "Product", "Variant", "Title", "Selling point"}
	fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}))
}

func renderTaskDetail(out io.Writer, task api.Task) {
	colorize := shouldColorize(out)
	fmt.Fprintf(out, "Task:      %s\n", task.ID)
	fmt.Fprintf(out, "Name:      %s\n", task.Name)
	fmt.Fprintf(out, "Kind:      %s (%s mode)\n", task.Kind, task.Mode)
	fmt.Fprintf(out, "Status:    %s\n", paint(statusColor(tasks.Status(task.Status)), task.Status, colorize))
	fmt.Fprintf(out, "Progress:  %s\n", progressLabel(task))
	if task.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:     %s\n", paint(ansiRed, task.ErrorMessage, colorize))
	}
	if task.CompletedAt != "" {
		fmt.Fprintf(out, "Completed: %s\n", task.CompletedAt)
	}
	if len(task.Results) > 0 {
		fmt.Fprintln(out)
		renderResults(out, task.Results)
	}
}

func oneLine(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
