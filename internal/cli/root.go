package cli

import (
	"fmt"
	"os"
	"strings"

	"focusdeck/internal/config"
	"focusdeck/internal/debug"
	"focusdeck/internal/format"
	"focusdeck/internal/kv"
	"focusdeck/internal/pomodoro"
	"focusdeck/internal/taskapi"
	"focusdeck/internal/tui"

	"github.com/spf13/cobra"
)

type App struct {
	Dir        string
	ConfigPath string
	Backend    string
	API        string
	PrettyJSON bool
	Format     string

	cfg    config.Config
	loaded bool
}

func NewRootCmd() *cobra.Command {
	app := &App{}
	var (
		forceTour bool
		screen    string
	)

	cmd := &cobra.Command{
		Use:          "focusdeck",
		Short:        "Pomodoro timer, task tracker client and onboarding tour",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive client
  focusdeck

  # Replay the onboarding tour from the first step
  focusdeck --tour

  # Scriptable commands
  focusdeck timer status
  focusdeck tasks start 42
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive client.
			if len(args) == 0 {
				return runTUI(cmd, app, forceTour, screen)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(app); err != nil {
			return writeErr(cmd, err)
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", "", "Directory holding the state store (env FOCUSDECK_DIR; default: the config dir)")
	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "Config file (default: $FOCUSDECK_CONFIG_DIR/config.yaml or ~/.focusdeck/config.yaml)")
	cmd.PersistentFlags().StringVar(&app.Backend, "store", "", "State store backend (file|sqlite|memory; env FOCUSDECK_STORE)")
	cmd.PersistentFlags().StringVar(&app.API, "api", "", "Task service base URL (env FOCUSDECK_API)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", "", "Output format (json|edn; env FOCUSDECK_FORMAT)")

	cmd.Flags().BoolVar(&forceTour, "tour", false, "Restart the onboarding tour")
	cmd.Flags().StringVar(&screen, "screen", "tasks", "Screen to open (tasks|timer)")

	cmd.AddCommand(newTimerCmd(app))
	cmd.AddCommand(newTourCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// loadConfig resolves the configuration once per invocation: flags over
// environment over file over defaults.
func loadConfig(app *App) (config.Config, error) {
	if app.loaded {
		return app.cfg, nil
	}
	cfg, err := config.Load(app.ConfigPath)
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv(os.Getenv)
	if app.Dir != "" {
		cfg.Storage.Dir = app.Dir
	}
	if app.Backend != "" {
		cfg.Storage.Backend = app.Backend
	}
	if app.API != "" {
		cfg.API.BaseURL = app.API
	}
	if app.Format != "" {
		cfg.Format = app.Format
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	app.cfg = cfg
	app.loaded = true
	return cfg, nil
}

// openStore opens the configured state store. A store that cannot be opened
// or refuses writes is replaced by an in-memory one, so commands keep working
// for this run without persisting.
func openStore(cmd *cobra.Command, app *App) (kv.Backend, error) {
	cfg, err := loadConfig(app)
	if err != nil {
		return nil, err
	}
	dir, err := cfg.StorageDir()
	if err == nil {
		var st kv.Backend
		st, err = kv.Open(cmd.Context(), cfg.Storage.Backend, dir)
		if err == nil {
			if kv.Writable(st) {
				return st, nil
			}
			_ = st.Close()
			err = kv.ErrUnavailable
		}
	}
	debug.Log("cli: open store: %v", err)
	fmt.Fprintf(cmd.ErrOrStderr(), "warning: state store unavailable (%v); state will not be saved\n", err)
	return kv.NewMemory(), nil
}

// taskClient returns the configured task service client, or
// taskapi.ErrNoBaseURL.
func taskClient(app *App) (*taskapi.Client, error) {
	cfg, err := loadConfig(app)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.API.BaseURL) == "" {
		return nil, taskapi.ErrNoBaseURL
	}
	return taskapi.New(cfg.API.BaseURL, cfg.API.Token, cfg.API.Timeout), nil
}

// newTimer builds the timer over store. Finishing a focus session stops the
// attached task on the service when one is configured.
func newTimer(app *App, store kv.Store) *pomodoro.Timer {
	opts := pomodoro.Options{}
	if c, err := taskClient(app); err == nil {
		opts.Stopper = c
	}
	return pomodoro.New(store, opts)
}

func runTUI(cmd *cobra.Command, app *App, forceTour bool, screen string) error {
	cfg, err := loadConfig(app)
	if err != nil {
		return err
	}
	st, err := openStore(cmd, app)
	if err != nil {
		return err
	}
	defer st.Close()

	opts := tui.Options{
		Store:   st,
		Session: kv.NewMemory(),
		Watch:   st.Watch,
		Timer:   newTimer(app, st),
		Tour: tui.TourOptions{
			Onboarding: cfg.Tour.Onboarding,
			Forced:     forceTour,
			CrossPage:  cfg.Tour.CrossPage,
			Source:     cfg.Tour.Source,
		},
		Screen:       screen,
		Theme:        cfg.TUI.Theme,
		ColorProfile: cfg.TUI.ColorProfile,
	}
	if c, err := taskClient(app); err == nil {
		opts.Tasks = c
	}
	return tui.Run(cmd.Context(), opts)
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, outputFormat(app), app.PrettyJSON)
}

func outputFormat(app *App) string {
	if app.loaded {
		return app.cfg.Format
	}
	return app.Format
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
