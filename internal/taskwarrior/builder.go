package taskwarrior

import (
	"strings"

	"github.com/KaiErikNiermann/taskwarrior-mcp/internal/domain"
)

// Operation names the eight tools this server exposes.
type Operation string

const (
	OpAddTask      Operation = "add_task"
	OpListTasks    Operation = "list_tasks"
	OpSearchTasks  Operation = "search_tasks"
	OpGetTask      Operation = "get_task"
	OpModifyTask   Operation = "modify_task"
	OpCompleteTask Operation = "complete_task"
	OpDeleteTask   Operation = "delete_task"
	OpAnnotateTask Operation = "annotate_task"
)

// scopeRule declares the project-scoping policy for one operation. Keeping
// the policy in one table makes the "project required" invariant checkable by
// inspection instead of being scattered through per-operation code.
type scopeRule struct {
	requiresProject bool
	allowsEscape    bool // all_projects=true may lift the requirement
}

var scopeRules = map[Operation]scopeRule{
	OpAddTask:     {requiresProject: true},
	OpListTasks:   {requiresProject: true, allowsEscape: true},
	OpSearchTasks: {requiresProject: true, allowsEscape: true},
	// Identifier-addressed operations are implicitly scoped by the id.
	OpGetTask:      {},
	OpModifyTask:   {},
	OpCompleteTask: {},
	OpDeleteTask:   {},
	OpAnnotateTask: {},
}

// reportFilters maps each list_tasks report onto the filter terms that
// reproduce its selection in export form. Ordering for "next" comes from the
// exported urgency scores, applied after parsing.
var reportFilters = map[string][]string{
	"next":      {"status:pending"},
	"list":      {"status:pending"},
	"all":       {},
	"completed": {"status:completed"},
	"waiting":   {"+WAITING"},
	"blocked":   {"+BLOCKED"},
}

// DefaultReport is the urgency-sorted view used when list_tasks omits report.
const DefaultReport = "next"

// KnownReport reports whether name is an accepted list_tasks report.
func KnownReport(name string) bool {
	_, ok := reportFilters[name]
	return ok
}

type AddTaskRequest struct {
	Description string
	Project     string
	Due         string
	Tags        []string
	Priority    string
	Wait        string
	Scheduled   string
}

type ListTasksRequest struct {
	Project     string
	Filter      string
	Report      string
	AllProjects bool
}

type SearchTasksRequest struct {
	Pattern     string
	Project     string
	Filter      string
	AllProjects bool
}

type ModifyTaskRequest struct {
	ID            string
	Modifications string
}

type AnnotateTaskRequest struct {
	ID   string
	Note string
}

// requireText validates a required free-text field. Free text is always
// passed as a single argv element, so content is unrestricted; only presence
// matters.
func requireText(field, value string) error {
	if value == "" {
		return &domain.ValidationError{Field: field, Reason: domain.MissingField}
	}
	if strings.TrimSpace(value) == "" {
		return &domain.ValidationError{Field: field, Reason: domain.EmptyField}
	}
	return nil
}

// requireToken validates a required value that must form exactly one
// well-formed argument token (identifiers, tags).
func requireToken(field, value string) error {
	if err := requireText(field, value); err != nil {
		return err
	}
	if strings.ContainsAny(value, " \t\r\n") {
		return &domain.ValidationError{Field: field, Reason: domain.InvalidField, Detail: "must be a single token without whitespace"}
	}
	return nil
}

// optionalText rejects optional values that are present but whitespace-only.
// Date expressions land here: they pass through verbatim and taskwarrior is
// authoritative on their syntax.
func optionalText(field, value string) error {
	if value != "" && strings.TrimSpace(value) == "" {
		return &domain.ValidationError{Field: field, Reason: domain.EmptyField}
	}
	return nil
}

// checkScope enforces the mandatory project-scoping policy from scopeRules.
func checkScope(op Operation, project string, allProjects bool) error {
	rule := scopeRules[op]
	if !rule.requiresProject {
		return nil
	}
	if rule.allowsEscape && allProjects {
		return nil
	}
	if strings.TrimSpace(project) == "" {
		return &domain.ValidationError{Field: "project", Reason: domain.MissingProjectScope}
	}
	return nil
}

// splitFilter tokenizes a user filter string on whitespace. Each token
// becomes its own argv element; the semantics of virtual tags and attribute
// filters are taskwarrior's business.
func splitFilter(filter string) []string {
	return strings.Fields(filter)
}

// BuildAdd produces the argv for add_task:
//
//	add <description> project:<p> [due:<d>] [priority:<p>] [wait:<d>] [scheduled:<d>] [+tag ...]
func BuildAdd(req AddTaskRequest) ([]string, error) {
	if err := requireText("description", req.Description); err != nil {
		return nil, err
	}
	if err := checkScope(OpAddTask, req.Project, false); err != nil {
		return nil, err
	}
	for _, f := range []struct{ name, value string }{
		{"due", req.Due},
		{"wait", req.Wait},
		{"scheduled", req.Scheduled},
	} {
		if err := optionalText(f.name, f.value); err != nil {
			return nil, err
		}
	}
	priority, ok := domain.ParsePriority(req.Priority)
	if !ok {
		return nil, &domain.ValidationError{Field: "priority", Reason: domain.InvalidField, Detail: "must be H, M, or L"}
	}

	args := []string{"add", req.Description, "project:" + req.Project}
	if req.Due != "" {
		args = append(args, "due:"+req.Due)
	}
	if priority != domain.PriorityNone {
		args = append(args, "priority:"+string(priority))
	}
	if req.Wait != "" {
		args = append(args, "wait:"+req.Wait)
	}
	if req.Scheduled != "" {
		args = append(args, "scheduled:"+req.Scheduled)
	}
	for _, tag := range req.Tags {
		// An empty element is a present-but-empty value, not a missing field.
		if strings.TrimSpace(tag) == "" {
			return nil, &domain.ValidationError{Field: "tags", Reason: domain.EmptyField}
		}
		if err := requireToken("tags", tag); err != nil {
			return nil, err
		}
		args = append(args, "+"+tag)
	}
	return args, nil
}

// BuildList produces the argv for list_tasks. The project term is injected
// here, never trusted from caller-composed filter strings, and always
// precedes user filter terms. Queries use taskwarrior's structured export
// rather than human report tables; the report maps to equivalent filters.
func BuildList(req ListTasksRequest) ([]string, error) {
	if err := checkScope(OpListTasks, req.Project, req.AllProjects); err != nil {
		return nil, err
	}
	report := req.Report
	if report == "" {
		report = DefaultReport
	}
	terms, ok := reportFilters[report]
	if !ok {
		return nil, &domain.ValidationError{Field: "report", Reason: domain.InvalidField, Detail: "must be one of next, list, all, completed, waiting, blocked"}
	}

	var args []string
	if !req.AllProjects {
		args = append(args, "project:"+req.Project)
	}
	args = append(args, splitFilter(req.Filter)...)
	args = append(args, terms...)
	return append(args, "export"), nil
}

// BuildSearch produces the argv for search_tasks. The pattern is a single
// description.contains term so embedded spaces or quotes cannot split into
// extra filter arguments.
func BuildSearch(req SearchTasksRequest) ([]string, error) {
	if err := requireText("pattern", req.Pattern); err != nil {
		return nil, err
	}
	if err := checkScope(OpSearchTasks, req.Project, req.AllProjects); err != nil {
		return nil, err
	}

	var args []string
	if !req.AllProjects {
		args = append(args, "project:"+req.Project)
	}
	args = append(args, "description.contains:"+req.Pattern)
	args = append(args, splitFilter(req.Filter)...)
	args = append(args, "status:pending")
	return append(args, "export"), nil
}

// BuildGet produces the argv for get_task: <id> export.
func BuildGet(id string) ([]string, error) {
	if err := requireToken("id", id); err != nil {
		return nil, err
	}
	return []string{id, "export"}, nil
}

// BuildModify produces the argv for modify_task: <id> modify <tokens...>.
// The modification expression is split on whitespace into discrete tokens,
// matching taskwarrior's own grammar ("due:friday priority:H +urgent").
func BuildModify(req ModifyTaskRequest) ([]string, error) {
	if err := requireToken("id", req.ID); err != nil {
		return nil, err
	}
	if err := requireText("modifications", req.Modifications); err != nil {
		return nil, err
	}
	args := []string{req.ID, "modify"}
	return append(args, strings.Fields(req.Modifications)...), nil
}

// BuildComplete produces the argv for complete_task: <id> done.
func BuildComplete(id string) ([]string, error) {
	if err := requireToken("id", id); err != nil {
		return nil, err
	}
	return []string{id, "done"}, nil
}

// BuildDelete produces the argv for delete_task: <id> delete. The executor's
// rc.confirmation=no override suppresses the interactive prompt taskwarrior
// would otherwise raise.
func BuildDelete(id string) ([]string, error) {
	if err := requireToken("id", id); err != nil {
		return nil, err
	}
	return []string{id, "delete"}, nil
}

// BuildAnnotate produces the argv for annotate_task: <id> annotate <note>.
// The note is one argv element; taskwarrior adds the timestamp.
func BuildAnnotate(req AnnotateTaskRequest) ([]string, error) {
	if err := requireToken("id", req.ID); err != nil {
		return nil, err
	}
	if err := requireText("note", req.Note); err != nil {
		return nil, err
	}
	return []string{req.ID, "annotate", req.Note}, nil
}
