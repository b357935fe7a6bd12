package cli

import (
	"os"

	"focusdeck/internal/config"

	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration",
	}
	cmd.AddCommand(newConfigShowCmd(app))
	cmd.AddCommand(newConfigPathCmd(app))
	cmd.AddCommand(newConfigInitCmd(app))
	return cmd
}

func configPath(app *App) (string, error) {
	if app.ConfigPath != "" {
		return app.ConfigPath, nil
	}
	return config.Path()
}

// configView is the effective configuration with the token masked.
func configView(cfg config.Config, storageDir string) map[string]any {
	token := ""
	if cfg.API.Token != "" {
		token = "********"
	}
	return map[string]any{
		"api": map[string]any{
			"baseURL": cfg.API.BaseURL,
			"token":   token,
			"timeout": cfg.API.Timeout.String(),
		},
		"storage": map[string]any{
			"backend": cfg.Storage.Backend,
			"dir":     storageDir,
		},
		"tour": map[string]any{
			"onboarding": cfg.Tour.Onboarding,
			"crossPage":  cfg.Tour.CrossPage,
			"source":     cfg.Tour.Source,
		},
		"tui": map[string]any{
			"theme":        cfg.TUI.Theme,
			"colorProfile": cfg.TUI.ColorProfile,
		},
		"format": cfg.Format,
	}
}

func newConfigShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			dir, err := cfg.StorageDir()
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":   configView(cfg, dir),
				"_hints": []string{"focusdeck config path", "focusdeck config init"},
			})
		},
	}
}

func newConfigPathCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := configPath(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			_, statErr := os.Stat(p)
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"path":   p,
				"exists": statErr == nil,
			}})
		},
	}
}

func newConfigInitCmd(app *App) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := configPath(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if _, err := os.Stat(p); err == nil && !force {
				return writeOut(cmd, app, map[string]any{
					"data":   map[string]any{"path": p, "written": false},
					"_hints": []string{"focusdeck config init --force"},
				})
			}
			if err := config.Save(p, config.Default()); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"path": p, "written": true}})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file (the old one is kept as .bak)")
	return cmd
}
