// Package tui is the interactive terminal client: a tasks screen, a timer
// screen, the global timer in the header and the onboarding tour drawn over
// both.
package tui

import (
	"context"
	"errors"

	"focusdeck/internal/debug"
	"focusdeck/internal/kv"
	"focusdeck/internal/pomodoro"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	// Store holds the timer, tour progress and theme.
	Store kv.Store
	// Session holds the tour's navigation marker for this run.
	Session kv.Store
	// Watch reports changes to Store made by other processes.
	Watch func(ctx context.Context) (<-chan kv.Change, error)
	Timer *pomodoro.Timer
	// Tasks is nil when no task service is configured.
	Tasks TaskService
	Tour  TourOptions
	// Screen is the screen shown first, "tasks" by default.
	Screen       string
	Theme        string
	ColorProfile string
}

// Run shows the client until the user quits or ctx is done.
func Run(ctx context.Context, opts Options) error {
	applyColorProfilePreference(opts.ColorProfile)
	m := newAppModel(opts)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	g, gctx := errgroup.WithContext(ctx)
	if opts.Watch != nil {
		changes, err := opts.Watch(gctx)
		if err != nil {
			debug.Log("tui: watch store: %v", err)
		} else {
			g.Go(func() error {
				forward(gctx, changes, func(c kv.Change) { p.Send(changeMsg(c)) })
				return nil
			})
		}
	}
	events, unsubscribe := m.timer.Subscribe(16)
	defer unsubscribe()
	g.Go(func() error {
		forward(gctx, events, func(ev pomodoro.Event) { p.Send(timerEventMsg(ev)) })
		return nil
	})
	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		return err
	})

	err := g.Wait()
	m.timer.Wait()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

func forward[T any](ctx context.Context, ch <-chan T, send func(T)) {
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-ch:
			if !ok {
				return
			}
			send(v)
		}
	}
}
