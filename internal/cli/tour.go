package cli

import (
	"fmt"
	"strings"

	"focusdeck/internal/config"
	"focusdeck/internal/kv"
	"focusdeck/internal/tour"
	"focusdeck/internal/tour/htmlpage"
	"focusdeck/internal/tui"

	"github.com/spf13/cobra"
)

func newTourCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tour",
		Short: "Onboarding tour progress",
	}
	cmd.AddCommand(newTourStatusCmd(app))
	cmd.AddCommand(newTourResetCmd(app))
	cmd.AddCommand(newTourStepsCmd(app))
	cmd.AddCommand(newTourScanCmd(app))
	return cmd
}

// Step tables, one per client. Each keeps its progress under its own key.
const (
	tourClientTUI = "tui"
	tourClientWeb = "web"
)

type tourTable struct {
	client string
	key    string
	steps  []tour.Step
}

func lookupTourTable(client string) (tourTable, error) {
	switch strings.ToLower(strings.TrimSpace(client)) {
	case "", tourClientTUI:
		return tourTable{client: tourClientTUI, key: tui.TourStateKey, steps: tui.TourSteps()}, nil
	case tourClientWeb:
		return tourTable{client: tourClientWeb, key: tour.StateKey, steps: tour.DefaultSteps()}, nil
	default:
		return tourTable{}, fmt.Errorf("unknown tour client: %s (expected tui|web)", client)
	}
}

func tourTables() []tourTable {
	tuiTable, _ := lookupTourTable(tourClientTUI)
	webTable, _ := lookupTourTable(tourClientWeb)
	return []tourTable{tuiTable, webTable}
}

func newTourStatusCmd(app *App) *cobra.Command {
	var client string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show stored tour progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := lookupTourTable(client)
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := openStore(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			p := tour.LoadProgressAt(st, table.key)
			data := map[string]any{
				"client": table.client,
				"index":  p.Index,
				"done":   p.Done,
				"total":  len(table.steps),
			}
			if p.Index >= 0 && p.Index < len(table.steps) {
				data["step"] = table.steps[p.Index].ID
				data["page"] = table.steps[p.Index].Page
			}
			hints := []string{"focusdeck tour reset", "focusdeck --tour"}
			return writeOut(cmd, app, map[string]any{"data": data, "_hints": hints})
		},
	}
	cmd.Flags().StringVar(&client, "client", tourClientTUI, "Step table to report on (tui|web)")
	return cmd
}

func newTourResetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget tour progress so it starts again on the next run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()
			for _, table := range tourTables() {
				if err := tour.ResetAt(st, table.key); err != nil {
					return writeErr(cmd, err)
				}
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"reset": true}})
		},
	}
}

func newTourStepsCmd(app *App) *cobra.Command {
	var client string
	cmd := &cobra.Command{
		Use:   "steps",
		Short: "List a client's tour steps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := lookupTourTable(client)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": table.steps, "meta": map[string]any{"client": table.client}})
		},
	}
	cmd.Flags().StringVar(&client, "client", tourClientTUI, "Step table to list (tui|web)")
	return cmd
}

func newTourScanCmd(app *App) *cobra.Command {
	var (
		from    string
		forced  bool
		persist bool
	)
	cmd := &cobra.Command{
		Use:   "scan <file.html>...",
		Short: "Replay the web tour over HTML pages",
		Long: `Loads each HTML file as a page (path "/" + file name without extension)
and walks the web client's tour from --from, pressing Next until it ends.
Cross-page hand-offs load the target page. A "tour=1" query on --from restarts
the tour. With --persist, progress is the web client's stored progress.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(app)
			if err != nil {
				return writeErr(cmd, err)
			}

			site := htmlpage.NewSite()
			for _, file := range args {
				p, err := htmlpage.ParseFile(file)
				if err != nil {
					return writeErr(cmd, err)
				}
				site.Add(p)
			}
			if from == "" {
				from = site.Pages()[0].Path()
			}
			forced = forced || tour.ForcedFromURL(from)

			var store kv.Store = kv.NewMemory()
			if persist {
				st, err := openStore(cmd, app)
				if err != nil {
					return writeErr(cmd, err)
				}
				defer st.Close()
				store = st
			}

			tc := tour.Config{Store: store, Session: kv.NewMemory(), CrossPage: cfg.Tour.CrossPage, Key: tour.StateKey}
			if cfg.Tour.Source == config.SourceAnchors {
				tc.Source = tour.AnchorScan{}
			}
			visits, walkErr := htmlpage.Walk(site, from, tc, forced)
			data := map[string]any{
				"visits":   visits,
				"progress": tour.LoadProgressAt(store, tc.ProgressKey()),
			}
			if walkErr != nil {
				data["error"] = walkErr.Error()
			}
			if err := writeOut(cmd, app, map[string]any{"data": data}); err != nil {
				return err
			}
			if walkErr != nil && len(visits) == 0 {
				return writeErr(cmd, walkErr)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Page URL to start on (default: the first file)")
	cmd.Flags().BoolVar(&forced, "forced", false, "Restart the tour from the first step")
	cmd.Flags().BoolVar(&persist, "persist", false, "Read and write progress in the state store instead of a scratch store")
	return cmd
}
