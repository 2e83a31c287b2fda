package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/launchforge/launch-orchestrator/internal/config"
	"github.com/launchforge/launch-orchestrator/internal/domain"
	"github.com/launchforge/launch-orchestrator/internal/launchstore"
	"github.com/launchforge/launch-orchestrator/internal/llm"
	"github.com/launchforge/launch-orchestrator/internal/notify"
	"github.com/launchforge/launch-orchestrator/internal/observer"
	"github.com/launchforge/launch-orchestrator/internal/orchestrator"
	"github.com/launchforge/launch-orchestrator/internal/prompts"
	"github.com/launchforge/launch-orchestrator/internal/registry"
	"github.com/launchforge/launch-orchestrator/internal/schedule"
	"github.com/launchforge/launch-orchestrator/tui"
	"github.com/launchforge/launch-orchestrator/web/api"
)

var (
	createDescription  string
	createProductType  string
	createTargetMarket string
	createLaunchDate   string
	listStatus         string
	showFullSummary    bool
	servePort          int
)

func init() {
	createCmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a launch",
		Args:  cobra.ExactArgs(1),
		RunE:  runCreate,
	}
	createCmd.Flags().StringVar(&createDescription, "description", "", "what is being launched")
	createCmd.Flags().StringVar(&createProductType, "product-type", "", "product category")
	createCmd.Flags().StringVar(&createTargetMarket, "target-market", "", "intended audience")
	createCmd.Flags().StringVar(&createLaunchDate, "launch-date", "", "scheduled start (RFC 3339), auto-started by the serve sweep")
	rootCmd.AddCommand(createCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List launches",
		RunE:  runList,
	}
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status")
	rootCmd.AddCommand(listCmd)

	showCmd := &cobra.Command{
		Use:   "show LAUNCH",
		Short: "Show a launch and its agent results",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
	showCmd.Flags().BoolVar(&showFullSummary, "summary", false, "print the full consolidated report")
	rootCmd.AddCommand(showCmd)

	startCmd := &cobra.Command{
		Use:   "start LAUNCH",
		Short: "Run the workflow for a launch in the foreground",
		Args:  cobra.ExactArgs(1),
		RunE:  runStart,
	}
	rootCmd.AddCommand(startCmd)

	statusCmd := &cobra.Command{
		Use:   "status LAUNCH",
		Short: "Show workflow progress for a launch",
		Args:  cobra.ExactArgs(1),
		RunE:  runStatus,
	}
	rootCmd.AddCommand(statusCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete LAUNCH",
		Short: "Delete a launch and all its agent results",
		Args:  cobra.ExactArgs(1),
		RunE:  runDelete,
	}
	rootCmd.AddCommand(deleteCmd)

	agentsCmd := &cobra.Command{
		Use:   "agents",
		Short: "List the registered workflow agents in execution order",
		RunE:  runAgents,
	}
	rootCmd.AddCommand(agentsCmd)

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "Launch TUI dashboard",
		RunE:  runTUI,
	}
	rootCmd.AddCommand(tuiCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and workflow scheduler",
		RunE:  runServe,
	}
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return config.Load(path)
}

func openStore(cfg *config.Config) (*launchstore.Store, error) {
	if path := cfg.General.DatabasePath; path != ":memory:" {
		os.MkdirAll(filepath.Dir(path), 0755)
	}
	return launchstore.New(cfg.General.DatabasePath)
}

// buildWorkflow assembles the full agent pipeline from config
func buildWorkflow(cfg *config.Config, store *launchstore.Store) (*orchestrator.Manager, *prompts.Loader, error) {
	loader := prompts.NewLoader(cfg.General.PromptDir)

	reg, err := registry.Default(loader)
	if err != nil {
		return nil, nil, fmt.Errorf("loading agent registry: %w", err)
	}

	client := llm.NewClient(llm.Options{
		BaseURL:   cfg.LLM.BaseURL,
		Model:     cfg.LLM.Model,
		APIKey:    cfg.LLM.APIKey,
		Style:     llm.APIStyle(cfg.LLM.Style),
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   cfg.LLM.LLMTimeout(),
	})

	engine := orchestrator.New(store, reg, client, orchestrator.Config{
		MaxRetries: cfg.Workflow.MaxRetries,
		RetryDelay: cfg.Workflow.RetryDelay(),
	})

	var notifiers []notify.Notifier
	if cfg.Notifications.Desktop {
		notifiers = append(notifiers, notify.NewDesktopNotifier(true))
	}
	if cfg.Notifications.SlackWebhook != "" {
		notifiers = append(notifiers, notify.NewSlackNotifier(cfg.Notifications.SlackWebhook))
	}

	mgr := orchestrator.NewManager(engine, store, cfg.Workflow.MaxConcurrent, notify.NewMultiNotifier(notifiers...))
	return mgr, loader, nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var launchDate *time.Time
	if createLaunchDate != "" {
		t, err := time.Parse(time.RFC3339, createLaunchDate)
		if err != nil {
			return fmt.Errorf("--launch-date must be RFC 3339: %w", err)
		}
		launchDate = &t
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	launch := domain.NewLaunch(args[0], createDescription, createProductType, createTargetMarket, launchDate)
	if err := store.CreateLaunch(launch); err != nil {
		return err
	}

	fmt.Printf("Created launch %s (%s)\n", launch.ID, launch.Name)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var launches []*domain.Launch
	if listStatus != "" {
		launches, err = store.ListByStatus(domain.LaunchStatus(listStatus))
	} else {
		launches, err = store.ListLaunches()
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tCREATED")
	for _, l := range launches {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			l.ID, l.Name, l.Status, humanize.Time(l.CreatedAt))
	}
	w.Flush()

	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	launch, err := store.GetLaunch(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s  [%s]\n", launch.Name, launch.Status)
	fmt.Printf("ID:      %s\n", launch.ID)
	if launch.Description != "" {
		fmt.Printf("About:   %s\n", launch.Description)
	}
	if launch.ProductType != "" {
		fmt.Printf("Type:    %s\n", launch.ProductType)
	}
	if launch.TargetMarket != "" {
		fmt.Printf("Market:  %s\n", launch.TargetMarket)
	}
	fmt.Printf("Created: %s\n", humanize.Time(launch.CreatedAt))
	if launch.LaunchDate != nil {
		fmt.Printf("Scheduled: %s\n", launch.LaunchDate.Format(time.RFC3339))
	}

	results, err := store.GetAgentResults(launch.ID)
	if err != nil {
		return err
	}
	if len(results) > 0 {
		fmt.Println("\nAgent results:")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, r := range results {
			detail := fmt.Sprintf("%d chars", len(r.Output))
			if r.ErrorFlag {
				detail = r.ErrorMessage
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\n", r.AgentName, r.Status, detail)
		}
		w.Flush()
	}

	if showFullSummary && launch.Summary != "" {
		fmt.Println("\n" + launch.Summary)
	} else if launch.Summary != "" {
		fmt.Println("\nRun with --summary to print the consolidated report.")
	}

	return nil
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	mgr, _, err := buildWorkflow(cfg, store)
	if err != nil {
		return err
	}
	mgr.SetEventCallback(func(e orchestrator.Event) {
		if e.AgentName != "" {
			fmt.Printf("  %s: %s\n", e.AgentName, e.Status)
		}
	})

	if err := mgr.Start(args[0]); err != nil {
		return err
	}
	fmt.Printf("Running workflow for %s\n", args[0])
	mgr.Wait()

	launch, err := store.GetLaunch(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Workflow finished: %s\n", launch.Status)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	launch, err := store.GetLaunch(args[0])
	if err != nil {
		return err
	}

	results, err := store.GetAgentResults(args[0])
	if err != nil {
		return err
	}

	var completed, failed int
	for _, r := range results {
		if r.Status == domain.ResultFailed {
			failed++
		} else {
			completed++
		}
	}

	fmt.Printf("%s: %s | %d completed | %d failed\n",
		launch.Name, launch.Status, completed, failed)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.DeleteLaunch(args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted launch %s\n", args[0])
	return nil
}

func runAgents(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	loader := prompts.NewLoader(cfg.General.PromptDir)
	reg, err := registry.Default(loader)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tAGENT\tPHASE\tDESCRIPTION")
	for i, h := range reg.Handlers() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, h.Name, h.Phase, h.Description)
	}
	w.Flush()

	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	loader := prompts.NewLoader(cfg.General.PromptDir)
	reg, err := registry.Default(loader)
	if err != nil {
		return err
	}

	model := tui.NewModel(store, reg)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	mgr, loader, err := buildWorkflow(cfg, store)
	if err != nil {
		return err
	}

	reg, err := registry.Default(loader)
	if err != nil {
		return err
	}

	collector := observer.NewCollector()

	port := servePort
	if port == 0 {
		port = cfg.Web.Port
	}
	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, port)
	server := api.NewServer(store, mgr, reg, collector, addr)

	mgr.SetEventCallback(func(e orchestrator.Event) {
		switch e.Type {
		case "agent_completed":
			collector.RecordAgent(false)
		case "agent_failed":
			collector.RecordAgent(true)
		case "launch_completed":
			collector.RecordLaunch(false)
		case "launch_failed":
			collector.RecordLaunch(true)
		}
		server.Broadcast(api.SSEEvent{Type: e.Type, Data: e})
	})

	// Pick up template edits without a restart
	watcher, err := observer.NewPromptWatcher(loader.OverrideDirs(), func(files []string) {
		fmt.Printf("Reloading %d changed prompt template(s)\n", len(files))
		loader.Invalidate()
	})
	if err == nil {
		watcher.Start()
		defer watcher.Stop()
	}

	if cfg.Schedule.Enabled {
		sweeper, err := schedule.NewSweeper(store, mgr, cfg.Schedule.CronExpr)
		if err != nil {
			return fmt.Errorf("invalid schedule.cron: %w", err)
		}
		go sweeper.Run()
		defer sweeper.Stop()
		fmt.Printf("Schedule sweep active, next run %s\n", humanize.Time(sweeper.NextRun()))
	}

	// Finish anything a previous process left in progress
	if resumed, err := mgr.Resume(); err != nil {
		return err
	} else if resumed > 0 {
		fmt.Printf("Resumed %d interrupted launch(es)\n", resumed)
	}

	fmt.Printf("API listening at http://%s\n", addr)
	return server.Start()
}
