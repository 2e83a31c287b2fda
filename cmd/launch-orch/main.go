package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "launch-orch",
		Short: "Launch Orchestrator - Multi-agent product launch planner",
		Long: `Launch Orchestrator coordinates a pipeline of LLM agents that research,
plan, and document a product launch. Each agent builds on the output of
the agents before it; the finished run is consolidated into one report.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
