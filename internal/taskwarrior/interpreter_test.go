package taskwarrior

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaiErikNiermann/taskwarrior-mcp/internal/domain"
)

const sampleExport = `[
{"id":1,"uuid":"a87e27b2-9bc6-4985-a625-49babcb729ff","description":"buy milk","project":"home","status":"pending","entry":"20250610T080000Z","urgency":2.5},
{"id":2,"description":"ship release","project":"Work.Backend","status":"pending","priority":"H","due":"20250615T143000Z","tags":["urgent","review"],"annotations":[{"entry":"20250611T090000Z","description":"waiting on CI"}],"urgency":11.3}
]`

func TestParseExport(t *testing.T) {
	t.Run("array of records", func(t *testing.T) {
		tasks, err := ParseExport(sampleExport)
		require.NoError(t, err)
		require.Len(t, tasks, 2)

		assert.Equal(t, 1, tasks[0].ID)
		assert.Equal(t, "a87e27b2-9bc6-4985-a625-49babcb729ff", tasks[0].UUID)
		assert.Equal(t, "buy milk", tasks[0].Description)
		assert.Equal(t, "home", tasks[0].Project)
		assert.Equal(t, domain.StatusPending, tasks[0].Status)
		assert.Equal(t, domain.PriorityNone, tasks[0].Priority)

		second := tasks[1]
		assert.Equal(t, domain.PriorityHigh, second.Priority)
		require.NotNil(t, second.Due)
		assert.Equal(t, time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC), second.Due.UTC())
		assert.Equal(t, []string{"urgent", "review"}, second.Tags)
		require.Len(t, second.Annotations, 1)
		assert.Equal(t, "waiting on CI", second.Annotations[0].Description)
		assert.InDelta(t, 11.3, second.Urgency, 0.001)
	})

	t.Run("single object", func(t *testing.T) {
		tasks, err := ParseExport(`{"id":5,"description":"solo","status":"pending"}`)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, 5, tasks[0].ID)
	})

	t.Run("empty output means zero records", func(t *testing.T) {
		tasks, err := ParseExport("")
		require.NoError(t, err)
		assert.Empty(t, tasks)

		tasks, err = ParseExport("[]")
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("non-JSON output is malformed", func(t *testing.T) {
		_, err := ParseExport("ID Age Description\n 1 2d buy milk")
		var ierr *domain.InterpreterError
		require.ErrorAs(t, err, &ierr)
		assert.NotEmpty(t, ierr.Excerpt)
	})

	t.Run("array of non-objects is malformed", func(t *testing.T) {
		_, err := ParseExport(`[1, 2, 3]`)
		var ierr *domain.InterpreterError
		require.ErrorAs(t, err, &ierr)
	})

	t.Run("unparseable timestamps are dropped not fatal", func(t *testing.T) {
		tasks, err := ParseExport(`[{"id":1,"description":"x","status":"pending","due":"not-a-date"}]`)
		require.NoError(t, err)
		assert.Nil(t, tasks[0].Due)
	})
}

func TestInterpretTasks(t *testing.T) {
	t.Run("no matches is an empty success for list", func(t *testing.T) {
		tasks, err := InterpretTasks(OpListTasks, ExecResult{ExitCode: 1, Stderr: "No matches."})
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("no matches is NotFound for get", func(t *testing.T) {
		_, err := InterpretTasks(OpGetTask, ExecResult{ExitCode: 1, Stderr: "No matches."})
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	})

	t.Run("zero-exit empty export is NotFound for get", func(t *testing.T) {
		_, err := InterpretTasks(OpGetTask, ExecResult{Stdout: "[]"})
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	})

	t.Run("ambiguous failure is a command error", func(t *testing.T) {
		_, err := InterpretTasks(OpListTasks, ExecResult{ExitCode: 2, Stderr: "The expression could not be evaluated."})
		var cerr *domain.CommandError
		require.ErrorAs(t, err, &cerr)
		assert.Contains(t, cerr.Stderr, "expression")
		assert.Equal(t, 2, cerr.ExitCode)
	})

	t.Run("malformed zero-exit output is not a silent empty list", func(t *testing.T) {
		_, err := InterpretTasks(OpListTasks, ExecResult{Stdout: "three tasks, trust me"})
		var ierr *domain.InterpreterError
		require.ErrorAs(t, err, &ierr)
	})

	t.Run("parses structured output", func(t *testing.T) {
		tasks, err := InterpretTasks(OpSearchTasks, ExecResult{Stdout: sampleExport})
		require.NoError(t, err)
		assert.Len(t, tasks, 2)
	})
}

func TestInterpretMutation(t *testing.T) {
	t.Run("add echoes created id", func(t *testing.T) {
		conf, err := InterpretMutation(OpAddTask, ExecResult{Stdout: "Created task 12."})
		require.NoError(t, err)
		assert.Equal(t, "12", conf.TaskID)
		assert.Equal(t, "Created task 12.", conf.Message)
	})

	t.Run("add without recognizable id still succeeds", func(t *testing.T) {
		conf, err := InterpretMutation(OpAddTask, ExecResult{Stdout: "ok"})
		require.NoError(t, err)
		assert.Empty(t, conf.TaskID)
	})

	t.Run("zero exit confirms mutation", func(t *testing.T) {
		conf, err := InterpretMutation(OpCompleteTask, ExecResult{Stdout: "Completed task 3 'buy milk'.\nCompleted 1 task."})
		require.NoError(t, err)
		assert.Equal(t, OpCompleteTask, conf.Operation)
		assert.Equal(t, "Completed task 3 'buy milk'.", conf.Message)
	})

	t.Run("non-zero exit is a command error", func(t *testing.T) {
		_, err := InterpretMutation(OpDeleteTask, ExecResult{ExitCode: 1, Stderr: "Task not found."})
		var cerr *domain.CommandError
		require.ErrorAs(t, err, &cerr)
	})
}

func TestExcerptIsCapped(t *testing.T) {
	long := make([]byte, 5000)
	for i := range long {
		long[i] = 'x'
	}
	assert.Len(t, excerpt(string(long)), maxExcerptLen)
}
