package mcp

import (
	"fmt"
	"strings"
	"time"

	"github.com/KaiErikNiermann/taskwarrior-mcp/internal/domain"
	"github.com/KaiErikNiermann/taskwarrior-mcp/internal/taskwarrior"
)

// FormatTasks renders a task sequence as markdown for the consuming model.
func FormatTasks(tasks []domain.Task) string {
	if len(tasks) == 0 {
		return "No tasks found."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d task(s):\n\n", len(tasks))
	for _, t := range tasks {
		sb.WriteString(formatTaskLine(t))
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

// FormatTask renders full single-task detail, including annotations.
func FormatTask(t domain.Task) string {
	var sb strings.Builder
	sb.WriteString(formatTaskLine(t))

	if t.UUID != "" {
		fmt.Fprintf(&sb, "\n  uuid: %s", t.UUID)
	}
	if t.Scheduled != nil {
		fmt.Fprintf(&sb, "\n  scheduled: %s", t.Scheduled.Format(time.RFC3339))
	}
	if t.Wait != nil {
		fmt.Fprintf(&sb, "\n  wait: %s", t.Wait.Format(time.RFC3339))
	}
	if t.Urgency != 0 {
		fmt.Fprintf(&sb, "\n  urgency: %.2f", t.Urgency)
	}
	for _, a := range t.Annotations {
		if a.Entry.IsZero() {
			fmt.Fprintf(&sb, "\n  note: %s", a.Description)
			continue
		}
		fmt.Fprintf(&sb, "\n  note (%s): %s", a.Entry.Format("2006-01-02"), a.Description)
	}
	return sb.String()
}

// FormatConfirmation renders a mutation result.
func FormatConfirmation(c taskwarrior.Confirmation) string {
	var sb strings.Builder
	switch c.Operation {
	case taskwarrior.OpAddTask:
		sb.WriteString("Task created")
		if c.TaskID != "" {
			fmt.Fprintf(&sb, " with id %s", c.TaskID)
		}
	case taskwarrior.OpModifyTask:
		sb.WriteString("Task modified")
	case taskwarrior.OpCompleteTask:
		sb.WriteString("Task completed")
	case taskwarrior.OpDeleteTask:
		sb.WriteString("Task deleted")
	case taskwarrior.OpAnnotateTask:
		sb.WriteString("Annotation added")
	default:
		sb.WriteString("OK")
	}
	sb.WriteString(".")
	if c.Message != "" {
		fmt.Fprintf(&sb, " %s", c.Message)
	}
	return sb.String()
}

func formatTaskLine(t domain.Task) string {
	var sb strings.Builder

	marker := "[ ]"
	switch t.Status {
	case domain.StatusCompleted:
		marker = "[x]"
	case domain.StatusDeleted:
		marker = "[-]"
	case domain.StatusWaiting:
		marker = "[w]"
	case domain.StatusBlocked:
		marker = "[!]"
	}
	sb.WriteString(marker)

	if t.ID != 0 {
		fmt.Fprintf(&sb, " %d:", t.ID)
	}
	fmt.Fprintf(&sb, " %s", t.Description)

	var attrs []string
	if t.Project != "" {
		attrs = append(attrs, "project:"+t.Project)
	}
	if t.Priority != domain.PriorityNone {
		attrs = append(attrs, "priority:"+string(t.Priority))
	}
	if t.Due != nil {
		attrs = append(attrs, "due:"+t.Due.Format("2006-01-02"))
	}
	for _, tag := range t.Tags {
		attrs = append(attrs, "+"+tag)
	}
	if len(attrs) > 0 {
		fmt.Fprintf(&sb, " (%s)", strings.Join(attrs, " "))
	}
	return sb.String()
}
