package cli

import (
	"strconv"
	"strings"

	"focusdeck/internal/pomodoro"
	"focusdeck/internal/taskapi"

	"github.com/spf13/cobra"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Tasks on the task service",
	}
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksShowCmd(app))
	cmd.AddCommand(newTasksCreateCmd(app))
	cmd.AddCommand(newTasksStartCmd(app))
	cmd.AddCommand(newTasksStopCmd(app))
	cmd.AddCommand(newTasksDeleteCmd(app))
	return cmd
}

func newTasksListCmd(app *App) *cobra.Command {
	var running bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := taskClient(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			tasks, err := c.List(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			cache := taskapi.NewCache()
			cache.Replace(tasks)
			out := cache.Tasks()
			if running {
				out = cache.Running()
			}
			return writeOut(cmd, app, map[string]any{
				"data": out,
				"meta": map[string]any{"count": len(out), "total": cache.Len()},
				"_hints": []string{
					"focusdeck tasks start <id>",
					"focusdeck tasks create <name>",
				},
			})
		},
	}
	cmd.Flags().BoolVar(&running, "running", false, "Only tasks whose timer is running")
	return cmd
}

func newTasksShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := taskClient(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			tasks, err := c.List(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			cache := taskapi.NewCache()
			cache.Replace(tasks)
			t, ok := cache.Get(strings.TrimSpace(args[0]))
			if !ok {
				return writeErr(cmd, errNotFound("task", args[0]))
			}
			return writeOut(cmd, app, map[string]any{
				"data":   t,
				"_hints": []string{"focusdeck tasks start " + t.Key()},
			})
		},
	}
}

func newTasksCreateCmd(app *App) *cobra.Command {
	var (
		projectID int64
		labelIDs  []int64
	)
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := taskClient(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			req := taskapi.CreateRequest{Name: strings.Join(args, " "), LabelIDs: labelIDs}
			if cmd.Flags().Changed("project-id") {
				req.ProjectID = &projectID
			}
			tasks, err := c.Create(cmd.Context(), req)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": tasks})
		},
	}
	cmd.Flags().Int64Var(&projectID, "project-id", 0, "Project to file the task under")
	cmd.Flags().Int64SliceVar(&labelIDs, "label-id", nil, "Label to attach (repeatable)")
	return cmd
}

// newTasksStartCmd starts the task's timer on the service and attaches a
// focus session to it.
func newTasksStartCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "start <id>",
		Short: "Start a task and a focus session for it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := taskIDArg(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return taskAction(cmd, app, id, "start", func(t *pomodoro.Timer, name string) pomodoro.State {
				return t.Start(id, name)
			})
		},
	}
}

func newTasksStopCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <id>",
		Short: "Stop a task and its focus session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := taskIDArg(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return taskAction(cmd, app, id, "stop", func(t *pomodoro.Timer, _ string) pomodoro.State {
				return t.Stop(id)
			})
		},
	}
}

func newTasksDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := taskIDArg(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			c, err := taskClient(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			tasks, err := c.Delete(cmd.Context(), id)
			if err != nil {
				if taskapi.IsStatus(err, 404) {
					return writeErr(cmd, errNotFound("task", id))
				}
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": tasks})
		},
	}
}

// taskAction calls verb on the service, then applies timerFn to the local
// timer with the task's name from the response. The timer follows the
// service call only when it succeeds.
func taskAction(cmd *cobra.Command, app *App, id, verb string, timerFn func(*pomodoro.Timer, string) pomodoro.State) error {
	c, err := taskClient(app)
	if err != nil {
		return writeErr(cmd, err)
	}
	call := c.Start
	if verb == "stop" {
		call = c.Stop
	}
	tasks, err := call(cmd.Context(), id)
	if err != nil {
		if taskapi.IsStatus(err, 404) {
			return writeErr(cmd, errNotFound("task", id))
		}
		return writeErr(cmd, err)
	}
	cache := taskapi.NewCache()
	cache.Replace(tasks)
	task, ok := cache.Get(id)
	if !ok {
		return writeErr(cmd, errNotFound("task", id))
	}

	st, err := openStore(cmd, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer st.Close()
	timer := newTimer(app, st)
	s := timerFn(timer, task.Name)
	timer.Wait()

	return writeOut(cmd, app, map[string]any{
		"data": map[string]any{
			"task":  task,
			"timer": timerView(s),
		},
	})
}

func taskIDArg(s string) (string, error) {
	s = strings.TrimSpace(s)
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		return "", errNotFound("task", s)
	}
	return s, nil
}
