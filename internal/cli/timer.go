package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"focusdeck/internal/pomodoro"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newTimerCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Pomodoro timer",
	}
	cmd.AddCommand(newTimerStatusCmd(app))
	cmd.AddCommand(newTimerStartCmd(app))
	cmd.AddCommand(newTimerStopCmd(app))
	cmd.AddCommand(newTimerPauseCmd(app))
	cmd.AddCommand(newTimerResumeCmd(app))
	cmd.AddCommand(newTimerResetCmd(app))
	cmd.AddCommand(newTimerWatchCmd(app))
	return cmd
}

// timerView is the output shape of every timer command.
func timerView(s pomodoro.State) map[string]any {
	out := map[string]any{
		"mode":          string(s.Mode),
		"label":         pomodoro.Label(s.Mode),
		"remaining":     s.Remaining,
		"clock":         pomodoro.FormatClock(s.Remaining),
		"status":        pomodoro.StatusLine(s),
		"isRunning":     s.IsRunning,
		"completedWork": s.CompletedWork,
		"taskRunning":   s.TaskRunning,
	}
	if s.TaskID != "" {
		out["taskId"] = string(s.TaskID)
	}
	if s.TaskName != "" {
		out["taskName"] = s.TaskName
	}
	return out
}

// withTimer opens the store, applies fn and prints the resulting state.
func withTimer(cmd *cobra.Command, app *App, hints []string, fn func(*pomodoro.Timer) pomodoro.State) error {
	st, err := openStore(cmd, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer st.Close()

	timer := newTimer(app, st)
	s := fn(timer)
	// A completed focus session may be stopping its task on the service.
	timer.Wait()
	return writeOut(cmd, app, map[string]any{"data": timerView(s), "_hints": hints})
}

func newTimerStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the timer, catching up on time that passed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTimer(cmd, app, []string{
				"focusdeck timer start",
				"focusdeck timer pause",
				"focusdeck timer watch",
			}, (*pomodoro.Timer).Tick)
		},
	}
}

func newTimerStartCmd(app *App) *cobra.Command {
	var taskID, taskName string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a focus session, optionally for a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTimer(cmd, app, []string{"focusdeck timer pause", "focusdeck timer status"}, func(t *pomodoro.Timer) pomodoro.State {
				return t.Start(taskID, taskName)
			})
		},
	}
	cmd.Flags().StringVar(&taskID, "task-id", "", "Task to attach")
	cmd.Flags().StringVar(&taskName, "task-name", "", "Name shown next to the timer")
	return cmd
}

func newTimerStopCmd(app *App) *cobra.Command {
	var taskID string
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the session attached to a task",
		Long:  "Stops the countdown when --task-id is the attached task; otherwise the timer is left untouched.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTimer(cmd, app, []string{"focusdeck timer status"}, func(t *pomodoro.Timer) pomodoro.State {
				return t.Stop(taskID)
			})
		},
	}
	cmd.Flags().StringVar(&taskID, "task-id", "", "Task whose session to stop")
	_ = cmd.MarkFlagRequired("task-id")
	return cmd
}

func newTimerPauseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause the countdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTimer(cmd, app, []string{"focusdeck timer resume"}, (*pomodoro.Timer).Pause)
		},
	}
}

func newTimerResumeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume a paused countdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTimer(cmd, app, []string{"focusdeck timer pause"}, (*pomodoro.Timer).Resume)
		},
	}
}

func newTimerResetCmd(app *App) *cobra.Command {
	var modeName string
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Pause and refill the countdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, ok := pomodoro.ParseMode(modeName)
			if !ok {
				return writeErr(cmd, fmt.Errorf("invalid --mode %q (expected work|short|long)", modeName))
			}
			return withTimer(cmd, app, []string{"focusdeck timer start"}, func(t *pomodoro.Timer) pomodoro.State {
				return t.Reset(mode)
			})
		},
	}
	cmd.Flags().StringVar(&modeName, "mode", string(pomodoro.Work), "Mode to reset to (work|short|long)")
	return cmd
}

func newTimerWatchCmd(app *App) *cobra.Command {
	var (
		interval time.Duration
		count    int
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the timer on every tick and on changes from other clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return writeErr(cmd, fmt.Errorf("invalid --interval %s", interval))
			}
			st, err := openStore(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			timer := newTimer(app, st)
			events, unsubscribe := timer.Subscribe(16)
			defer unsubscribe()

			g, gctx := errgroup.WithContext(ctx)
			changes, err := st.Watch(gctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			g.Go(func() error {
				return timer.Run(gctx, interval, changes)
			})
			g.Go(func() error {
				return printEvents(gctx, cmd, app, events, count, cancel)
			})

			err = g.Wait()
			timer.Wait()
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", pomodoro.DefaultInterval, "Tick interval")
	cmd.Flags().IntVar(&count, "count", 0, "Exit after this many updates (0 = until interrupted)")
	return cmd
}

// printEvents writes one line per timer event. After count events it calls
// done, which stops the watch.
func printEvents(ctx context.Context, cmd *cobra.Command, app *App, events <-chan pomodoro.Event, count int, done func()) error {
	printed := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			data := timerView(ev.State)
			data["event"] = string(ev.Kind)
			if ev.Kind == pomodoro.EventComplete {
				data["finished"] = string(ev.Finished)
				data["message"] = ev.Title + ": " + ev.Message
			}
			if err := writeOut(cmd, app, map[string]any{"data": data}); err != nil {
				return err
			}
			printed++
			if count > 0 && printed >= count {
				done()
				return nil
			}
		}
	}
}
