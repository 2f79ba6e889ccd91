package taskwarrior

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/KaiErikNiermann/taskwarrior-mcp/internal/domain"
)

// Client composes the command builder, the executor, and the result
// interpreter into the eight typed operations. It holds no mutable state:
// every method is one validate → spawn → interpret pass, so a single Client
// is safe for any number of concurrent requests.
type Client struct {
	exec Executor
	log  zerolog.Logger
}

func NewClient(exec Executor, log zerolog.Logger) *Client {
	return &Client{exec: exec, log: log}
}

func (c *Client) run(ctx context.Context, op Operation, args []string) (ExecResult, error) {
	c.log.Debug().Str("operation", string(op)).Strs("args", args).Msg("invoking task")
	res, err := c.exec.Run(ctx, args...)
	if err != nil {
		c.log.Warn().Str("operation", string(op)).Err(err).Msg("task invocation failed")
		return ExecResult{}, err
	}
	return res, nil
}

// AddTask creates a task. The confirmation echoes back the identifier
// taskwarrior assigned, when its stdout communicates it.
func (c *Client) AddTask(ctx context.Context, req AddTaskRequest) (Confirmation, error) {
	args, err := BuildAdd(req)
	if err != nil {
		return Confirmation{}, err
	}
	res, err := c.run(ctx, OpAddTask, args)
	if err != nil {
		return Confirmation{}, err
	}
	return InterpretMutation(OpAddTask, res)
}

// ListTasks returns the tasks selected by the report, scoped to one project
// unless AllProjects is set. The default "next" report is urgency-sorted.
func (c *Client) ListTasks(ctx context.Context, req ListTasksRequest) ([]domain.Task, error) {
	args, err := BuildList(req)
	if err != nil {
		return nil, err
	}
	res, err := c.run(ctx, OpListTasks, args)
	if err != nil {
		return nil, err
	}
	tasks, err := InterpretTasks(OpListTasks, res)
	if err != nil {
		return nil, err
	}
	if req.Report == "" || req.Report == DefaultReport {
		sortByUrgency(tasks)
	}
	return tasks, nil
}

// SearchTasks matches the pattern against pending task descriptions within
// the project scope.
func (c *Client) SearchTasks(ctx context.Context, req SearchTasksRequest) ([]domain.Task, error) {
	args, err := BuildSearch(req)
	if err != nil {
		return nil, err
	}
	res, err := c.run(ctx, OpSearchTasks, args)
	if err != nil {
		return nil, err
	}
	return InterpretTasks(OpSearchTasks, res)
}

// GetTask fetches one task by id or UUID. A missing identifier surfaces as
// domain.ErrTaskNotFound, distinct from an empty listing.
func (c *Client) GetTask(ctx context.Context, id string) (domain.Task, error) {
	args, err := BuildGet(id)
	if err != nil {
		return domain.Task{}, err
	}
	res, err := c.run(ctx, OpGetTask, args)
	if err != nil {
		return domain.Task{}, err
	}
	tasks, err := InterpretTasks(OpGetTask, res)
	if err != nil {
		return domain.Task{}, err
	}
	return tasks[0], nil
}

func (c *Client) ModifyTask(ctx context.Context, req ModifyTaskRequest) (Confirmation, error) {
	args, err := BuildModify(req)
	if err != nil {
		return Confirmation{}, err
	}
	res, err := c.run(ctx, OpModifyTask, args)
	if err != nil {
		return Confirmation{}, err
	}
	return InterpretMutation(OpModifyTask, res)
}

func (c *Client) CompleteTask(ctx context.Context, id string) (Confirmation, error) {
	args, err := BuildComplete(id)
	if err != nil {
		return Confirmation{}, err
	}
	res, err := c.run(ctx, OpCompleteTask, args)
	if err != nil {
		return Confirmation{}, err
	}
	return InterpretMutation(OpCompleteTask, res)
}

func (c *Client) DeleteTask(ctx context.Context, id string) (Confirmation, error) {
	args, err := BuildDelete(id)
	if err != nil {
		return Confirmation{}, err
	}
	res, err := c.run(ctx, OpDeleteTask, args)
	if err != nil {
		return Confirmation{}, err
	}
	return InterpretMutation(OpDeleteTask, res)
}

func (c *Client) AnnotateTask(ctx context.Context, req AnnotateTaskRequest) (Confirmation, error) {
	args, err := BuildAnnotate(req)
	if err != nil {
		return Confirmation{}, err
	}
	res, err := c.run(ctx, OpAnnotateTask, args)
	if err != nil {
		return Confirmation{}, err
	}
	return InterpretMutation(OpAnnotateTask, res)
}

// sortByUrgency orders highest urgency first, matching taskwarrior's own
// "next" report ordering. The sort is stable so equal scores keep export
// order.
func sortByUrgency(tasks []domain.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Urgency > tasks[j].Urgency
	})
}
