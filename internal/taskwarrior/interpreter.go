package taskwarrior

import (
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/KaiErikNiermann/taskwarrior-mcp/internal/domain"
)

// Confirmation is the result of a successful mutation. Queries return parsed
// task records instead.
type Confirmation struct {
	Operation Operation `json:"operation"`
	TaskID    string    `json:"task_id,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// noMatchMarkers are stderr substrings taskwarrior emits when a filter
// simply matched nothing. These are version-dependent heuristics: ambiguous
// non-zero exits classify as CommandError (fail loud) rather than silently
// returning empty.
var noMatchMarkers = []string{
	"no matches",
	"no tasks specified",
}

func indicatesNoMatches(stderr string) bool {
	lower := strings.ToLower(stderr)
	for _, marker := range noMatchMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// InterpretTasks classifies a query outcome and parses the exported records.
// A non-zero exit that merely signals "nothing found" is a success with zero
// records for list/search, and the distinguished not-found outcome for
// get_task.
func InterpretTasks(op Operation, res ExecResult) ([]domain.Task, error) {
	if res.ExitCode != 0 {
		if indicatesNoMatches(res.Stderr) {
			if op == OpGetTask {
				return nil, domain.ErrTaskNotFound
			}
			return []domain.Task{}, nil
		}
		return nil, &domain.CommandError{Stderr: res.Stderr, ExitCode: res.ExitCode}
	}

	tasks, err := ParseExport(res.Stdout)
	if err != nil {
		return nil, err
	}
	if op == OpGetTask && len(tasks) == 0 {
		return nil, domain.ErrTaskNotFound
	}
	return tasks, nil
}

var createdTaskRe = regexp.MustCompile(`Created task (\d+)`)

// InterpretMutation classifies a mutation outcome. Success is zero exit; the
// created/affected identifier is echoed back best-effort from stdout.
func InterpretMutation(op Operation, res ExecResult) (Confirmation, error) {
	if res.ExitCode != 0 {
		return Confirmation{}, &domain.CommandError{Stderr: res.Stderr, ExitCode: res.ExitCode}
	}
	c := Confirmation{Operation: op, Message: firstLine(res.Stdout)}
	if op == OpAddTask {
		if m := createdTaskRe.FindStringSubmatch(res.Stdout); m != nil {
			c.TaskID = m[1]
		}
	}
	return c, nil
}

// ParseExport parses `task export` output: a JSON array of task objects, or
// a single object. Field extraction is best-effort — taskwarrior's schema is
// loosely specified across versions — but output that is not valid JSON, or
// whose elements are not objects, is a contract violation.
func ParseExport(stdout string) ([]domain.Task, error) {
	trimmed := strings.TrimSpace(stdout)
	if trimmed == "" {
		return []domain.Task{}, nil
	}
	if !gjson.Valid(trimmed) {
		return nil, &domain.InterpreterError{Excerpt: excerpt(trimmed)}
	}

	root := gjson.Parse(trimmed)
	var items []gjson.Result
	switch {
	case root.IsArray():
		items = root.Array()
	case root.IsObject():
		items = []gjson.Result{root}
	default:
		return nil, &domain.InterpreterError{Excerpt: excerpt(trimmed)}
	}

	tasks := make([]domain.Task, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			return nil, &domain.InterpreterError{Excerpt: excerpt(item.Raw)}
		}
		tasks = append(tasks, taskFromExport(item))
	}
	return tasks, nil
}

func taskFromExport(v gjson.Result) domain.Task {
	t := domain.Task{
		ID:          int(v.Get("id").Int()),
		UUID:        v.Get("uuid").String(),
		Description: v.Get("description").String(),
		Project:     v.Get("project").String(),
		Status:      domain.Status(v.Get("status").String()),
		Urgency:     v.Get("urgency").Float(),
	}
	if p, ok := domain.ParsePriority(v.Get("priority").String()); ok {
		t.Priority = p
	}
	t.Due = stampField(v, "due")
	t.Scheduled = stampField(v, "scheduled")
	t.Wait = stampField(v, "wait")

	for _, tag := range v.Get("tags").Array() {
		if s := tag.String(); s != "" {
			t.Tags = append(t.Tags, s)
		}
	}
	for _, ann := range v.Get("annotations").Array() {
		a := domain.Annotation{Description: ann.Get("description").String()}
		if entry, ok := domain.ParseTime(ann.Get("entry").String()); ok {
			a.Entry = entry
		}
		t.Annotations = append(t.Annotations, a)
	}
	return t
}

func stampField(v gjson.Result, field string) *time.Time {
	if t, ok := domain.ParseTime(v.Get(field).String()); ok {
		return &t
	}
	return nil
}

const maxExcerptLen = 200

// excerpt caps raw output carried inside an error so a pathological stdout
// cannot flood logs or the client.
func excerpt(s string) string {
	if len(s) > maxExcerptLen {
		return s[:maxExcerptLen]
	}
	return s
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}
