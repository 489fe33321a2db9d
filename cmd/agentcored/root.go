package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "agentcored",
	Short: "agentcored runs a hierarchical multi-agent control plane",
	Long: `agentcored boots a single-process AgentManager: a root TaskManager
that plans work and delegates it to TaskWorker/PageBuilderWorker agents via
start_task/edit_page tool calls, coordinated through the creation bus and
completion rendezvous.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .agentcored.yaml)")
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())
}

// Execute runs the root cobra command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("agentcored dev")
		},
	}
}
