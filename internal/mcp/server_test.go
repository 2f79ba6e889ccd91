package mcp

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaiErikNiermann/taskwarrior-mcp/internal/taskwarrior"
)

// stubExecutor plays back canned results and records every argument vector so
// server tests can assert on both the dispatch path and the spawn count. It is
// mutex-guarded because the transport runs tool calls concurrently.
type stubExecutor struct {
	mu      sync.Mutex
	calls   [][]string
	results []taskwarrior.ExecResult
}

func (s *stubExecutor) Run(_ context.Context, args ...string) (taskwarrior.ExecResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, args)
	if len(s.results) == 0 {
		return taskwarrior.ExecResult{}, nil
	}
	res := s.results[0]
	s.results = s.results[1:]
	return res, nil
}

func newTestServer(stub *stubExecutor) *Server {
	client := taskwarrior.NewClient(stub, zerolog.Nop())
	return NewServer(client, "", zerolog.Nop())
}

func TestToolsCoverEveryOperation(t *testing.T) {
	server := newTestServer(&stubExecutor{})

	var names []string
	for _, tool := range server.Tools() {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description, tool.Name)
		assert.Equal(t, "object", tool.InputSchema["type"], tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"add_task", "list_tasks", "search_tasks", "get_task",
		"modify_task", "complete_task", "delete_task", "annotate_task",
	}, names)
}

func TestRequiredSchemaFields(t *testing.T) {
	server := newTestServer(&stubExecutor{})
	required := map[string][]string{}
	for _, tool := range server.Tools() {
		req, _ := tool.InputSchema["required"].([]string)
		required[tool.Name] = req
	}

	assert.ElementsMatch(t, []string{"description", "project"}, required["add_task"])
	assert.ElementsMatch(t, []string{"project"}, required["list_tasks"])
	assert.ElementsMatch(t, []string{"pattern", "project"}, required["search_tasks"])
	assert.ElementsMatch(t, []string{"id", "modifications"}, required["modify_task"])
	assert.ElementsMatch(t, []string{"id", "note"}, required["annotate_task"])
}

func TestHandleToolAddTask(t *testing.T) {
	stub := &stubExecutor{results: []taskwarrior.ExecResult{{Stdout: "Created task 9."}}}
	server := newTestServer(stub)

	out, err := server.HandleTool(context.Background(), "add_task",
		json.RawMessage(`{"description":"buy milk","project":"home","due":"eow","tags":["errand"]}`))
	require.NoError(t, err)
	assert.Contains(t, out, "Task created with id 9")

	require.Len(t, stub.calls, 1)
	assert.Equal(t, []string{"add", "buy milk", "project:home", "due:eow", "+errand"}, stub.calls[0])
}

func TestHandleToolListTasks(t *testing.T) {
	t.Run("applies default report", func(t *testing.T) {
		stub := &stubExecutor{results: []taskwarrior.ExecResult{{Stdout: "[]"}}}
		server := newTestServer(stub)

		out, err := server.HandleTool(context.Background(), "list_tasks",
			json.RawMessage(`{"project":"home"}`))
		require.NoError(t, err)
		assert.Equal(t, "No tasks found.", out)
		assert.Equal(t, [][]string{{"project:home", "status:pending", "export"}}, stub.calls)
	})

	t.Run("missing project rejected without spawning", func(t *testing.T) {
		stub := &stubExecutor{}
		server := newTestServer(stub)

		_, err := server.HandleTool(context.Background(), "list_tasks", json.RawMessage(`{}`))
		assert.Error(t, err)
		assert.Empty(t, stub.calls)
	})
}

func TestHandleToolGetTask(t *testing.T) {
	stub := &stubExecutor{results: []taskwarrior.ExecResult{{
		Stdout: `[{"id":3,"uuid":"0b2d","description":"review PR","project":"work","status":"pending","urgency":5.2}]`,
	}}}
	server := newTestServer(stub)

	out, err := server.HandleTool(context.Background(), "get_task", json.RawMessage(`{"id":"3"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "review PR")
	assert.Contains(t, out, "uuid: 0b2d")
	assert.Contains(t, out, "urgency: 5.20")
}

func TestHandleToolUnknown(t *testing.T) {
	server := newTestServer(&stubExecutor{})
	_, err := server.HandleTool(context.Background(), "sync_tasks", nil)
	assert.ErrorContains(t, err, "unknown tool")
}

func TestHandleToolBadParams(t *testing.T) {
	stub := &stubExecutor{}
	server := newTestServer(stub)

	_, err := server.HandleTool(context.Background(), "add_task", json.RawMessage(`{"tags":"not-an-array"}`))
	assert.Error(t, err)
	assert.Empty(t, stub.calls)
}
