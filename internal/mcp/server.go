package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/KaiErikNiermann/taskwarrior-mcp/internal/taskwarrior"
)

// ServerInstructions is surfaced to the client during initialization. The
// scoping policy is stated up front so the consuming model does not attempt
// unscoped queries.
const ServerInstructions = "Taskwarrior MCP server. PROJECT SCOPING IS MANDATORY: " +
	"add_task requires `project`, list_tasks and search_tasks require `project` and " +
	"automatically prepend it as a filter — this prevents thousands of unrelated tasks " +
	"from flooding context. Only pass all_projects=true when the user explicitly asks " +
	"for a cross-project view. " +
	"Tools: add_task, list_tasks, search_tasks, get_task, modify_task, complete_task, delete_task, annotate_task. " +
	"Date syntax: today, tomorrow, eow, eom, friday, 2025-06-15, 2025-06-15T14:30. " +
	"Virtual filter tags: +OVERDUE +DUE +READY +BLOCKED +BLOCKING +ACTIVE +WAITING +TODAY."

// Server dispatches validated tool calls into the taskwarrior client. It
// performs JSON decoding only; all semantic validation happens in the
// command builder so the scoping invariant cannot be bypassed here.
type Server struct {
	client        *taskwarrior.Client
	defaultReport string
	log           zerolog.Logger
}

func NewServer(client *taskwarrior.Client, defaultReport string, log zerolog.Logger) *Server {
	if defaultReport == "" {
		defaultReport = taskwarrior.DefaultReport
	}
	return &Server{client: client, defaultReport: defaultReport, log: log}
}

// Tool describes one tool for the tools/list response.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

func prop(typ, desc string) map[string]any {
	return map[string]any{"type": typ, "description": desc}
}

func schema(props map[string]any, required ...string) map[string]any {
	s := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// Tools returns the tool surface this server exposes.
func (s *Server) Tools() []Tool {
	idProp := prop("string", "Task ID (numeric) or UUID")
	return []Tool{
		{
			Name: "add_task",
			Description: "Add a new task. `project` is REQUIRED — every task must belong to a project. " +
				"Supports due dates (today/tomorrow/eow/eom/friday/ISO datetime), tags, " +
				"dot-notation subprojects (e.g. Work.Backend), priorities (H/M/L), " +
				"wait dates (hide until actionable), and scheduled dates (when you plan to start).",
			InputSchema: schema(map[string]any{
				"description": prop("string", "Task description"),
				"project":     prop("string", "Project this task belongs to (REQUIRED). Use dot-notation for subprojects, e.g. \"Work.Backend\"."),
				"due":         prop("string", "Due date/time: \"today\", \"tomorrow\", \"eow\", \"eom\", \"friday\", \"2025-06-15\", \"2025-06-15T14:30\""),
				"tags": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Tags to apply, without the + prefix (e.g. [\"urgent\", \"blocked\"])",
				},
				"priority":  prop("string", "Priority: H (high), M (medium), or L (low)"),
				"wait":      prop("string", "Wait date — task is hidden from reports until this date"),
				"scheduled": prop("string", "Scheduled date — when you plan to start (distinct from due = must finish by)"),
			}, "description", "project"),
		},
		{
			Name: "list_tasks",
			Description: "List tasks sorted by urgency. `project` is REQUIRED and is automatically prepended " +
				"as a filter to prevent loading thousands of unrelated tasks into context. " +
				"Use `filter` for additional narrowing (+urgent, priority:H, +OVERDUE, +DUE, +READY, +BLOCKED). " +
				"Use `report` to switch views: next (default), list, all, completed, waiting, blocked. " +
				"Only set `all_projects=true` for explicit cross-project requests.",
			InputSchema: schema(map[string]any{
				"project":      prop("string", "Project to scope this query to (REQUIRED unless all_projects=true)"),
				"filter":       prop("string", "Additional filter tokens beyond the project scope, e.g. \"+urgent\", \"priority:H\", \"+OVERDUE\""),
				"report":       prop("string", "Report to run: next (default, urgency-sorted), list, all, completed, waiting, blocked"),
				"all_projects": prop("boolean", "Override project scoping and query ALL projects. Only for genuine cross-project needs."),
			}, "project"),
		},
		{
			Name: "search_tasks",
			Description: "Search tasks by pattern across descriptions. `project` is REQUIRED and " +
				"automatically scopes the search. Only set `all_projects=true` for explicit cross-project searches.",
			InputSchema: schema(map[string]any{
				"pattern":      prop("string", "Pattern to match against task descriptions"),
				"project":      prop("string", "Project to scope this search to (REQUIRED unless all_projects=true)"),
				"filter":       prop("string", "Additional filter tokens to narrow results, e.g. \"priority:H\""),
				"all_projects": prop("boolean", "Override project scoping and search ALL projects."),
			}, "pattern", "project"),
		},
		{
			Name: "get_task",
			Description: "Get full details of a task by ID or UUID: all attributes, annotations, " +
				"urgency score, and timestamps.",
			InputSchema: schema(map[string]any{"id": idProp}, "id"),
		},
		{
			Name: "modify_task",
			Description: "Modify a task's attributes. Pass modifications as a space-separated string: " +
				"'due:friday priority:H +newtag -oldtag project:Work'. " +
				"Clear a field by omitting its value: 'due: priority:'.",
			InputSchema: schema(map[string]any{
				"id":            idProp,
				"modifications": prop("string", "Space-separated modification tokens, e.g. \"due:friday priority:H +urgent -old project:Work\""),
			}, "id", "modifications"),
		},
		{
			Name:        "complete_task",
			Description: "Mark a task as completed.",
			InputSchema: schema(map[string]any{"id": idProp}, "id"),
		},
		{
			Name:        "delete_task",
			Description: "Permanently delete a task.",
			InputSchema: schema(map[string]any{"id": idProp}, "id"),
		},
		{
			Name: "annotate_task",
			Description: "Attach a timestamped annotation (note) to a task. " +
				"Use for progress updates, links, or context that shouldn't be lost.",
			InputSchema: schema(map[string]any{
				"id":   idProp,
				"note": prop("string", "Note text to attach; timestamped automatically by Taskwarrior"),
			}, "id", "note"),
		},
	}
}

type addTaskParams struct {
	Description string   `json:"description"`
	Project     string   `json:"project"`
	Due         string   `json:"due,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	Wait        string   `json:"wait,omitempty"`
	Scheduled   string   `json:"scheduled,omitempty"`
}

type listTasksParams struct {
	Project     string `json:"project"`
	Filter      string `json:"filter,omitempty"`
	Report      string `json:"report,omitempty"`
	AllProjects bool   `json:"all_projects,omitempty"`
}

type searchTasksParams struct {
	Pattern     string `json:"pattern"`
	Project     string `json:"project"`
	Filter      string `json:"filter,omitempty"`
	AllProjects bool   `json:"all_projects,omitempty"`
}

type taskIDParams struct {
	ID string `json:"id"`
}

type modifyTaskParams struct {
	ID            string `json:"id"`
	Modifications string `json:"modifications"`
}

type annotateTaskParams struct {
	ID   string `json:"id"`
	Note string `json:"note"`
}

func decode[T any](params json.RawMessage) (T, error) {
	var p T
	if len(params) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return p, fmt.Errorf("invalid parameters: %w", err)
	}
	return p, nil
}

// HandleTool executes one tool call and returns the text to hand back to the
// client. Errors carry the classified failure for the transport to surface;
// no failure here is fatal to the server process.
func (s *Server) HandleTool(ctx context.Context, name string, params json.RawMessage) (string, error) {
	log := s.log.With().
		Str("request_id", uuid.NewString()).
		Str("tool", name).
		Logger()
	log.Debug().Msg("handling tool call")

	out, err := s.dispatch(ctx, name, params)
	if err != nil {
		log.Warn().Err(err).Msg("tool call failed")
		return "", err
	}
	return out, nil
}

func (s *Server) dispatch(ctx context.Context, name string, params json.RawMessage) (string, error) {
	switch name {
	case "add_task":
		p, err := decode[addTaskParams](params)
		if err != nil {
			return "", err
		}
		conf, err := s.client.AddTask(ctx, taskwarrior.AddTaskRequest{
			Description: p.Description,
			Project:     p.Project,
			Due:         p.Due,
			Tags:        p.Tags,
			Priority:    p.Priority,
			Wait:        p.Wait,
			Scheduled:   p.Scheduled,
		})
		if err != nil {
			return "", err
		}
		return FormatConfirmation(conf), nil

	case "list_tasks":
		p, err := decode[listTasksParams](params)
		if err != nil {
			return "", err
		}
		if p.Report == "" {
			p.Report = s.defaultReport
		}
		tasks, err := s.client.ListTasks(ctx, taskwarrior.ListTasksRequest{
			Project:     p.Project,
			Filter:      p.Filter,
			Report:      p.Report,
			AllProjects: p.AllProjects,
		})
		if err != nil {
			return "", err
		}
		return FormatTasks(tasks), nil

	case "search_tasks":
		p, err := decode[searchTasksParams](params)
		if err != nil {
			return "", err
		}
		tasks, err := s.client.SearchTasks(ctx, taskwarrior.SearchTasksRequest{
			Pattern:     p.Pattern,
			Project:     p.Project,
			Filter:      p.Filter,
			AllProjects: p.AllProjects,
		})
		if err != nil {
			return "", err
		}
		return FormatTasks(tasks), nil

	case "get_task":
		p, err := decode[taskIDParams](params)
		if err != nil {
			return "", err
		}
		task, err := s.client.GetTask(ctx, p.ID)
		if err != nil {
			return "", err
		}
		return FormatTask(task), nil

	case "modify_task":
		p, err := decode[modifyTaskParams](params)
		if err != nil {
			return "", err
		}
		conf, err := s.client.ModifyTask(ctx, taskwarrior.ModifyTaskRequest{
			ID:            p.ID,
			Modifications: p.Modifications,
		})
		if err != nil {
			return "", err
		}
		return FormatConfirmation(conf), nil

	case "complete_task":
		p, err := decode[taskIDParams](params)
		if err != nil {
			return "", err
		}
		conf, err := s.client.CompleteTask(ctx, p.ID)
		if err != nil {
			return "", err
		}
		return FormatConfirmation(conf), nil

	case "delete_task":
		p, err := decode[taskIDParams](params)
		if err != nil {
			return "", err
		}
		conf, err := s.client.DeleteTask(ctx, p.ID)
		if err != nil {
			return "", err
		}
		return FormatConfirmation(conf), nil

	case "annotate_task":
		p, err := decode[annotateTaskParams](params)
		if err != nil {
			return "", err
		}
		conf, err := s.client.AnnotateTask(ctx, taskwarrior.AnnotateTaskRequest{
			ID:   p.ID,
			Note: p.Note,
		})
		if err != nil {
			return "", err
		}
		return FormatConfirmation(conf), nil

	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}
