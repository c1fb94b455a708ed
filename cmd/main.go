package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"startupsaathi-backend/internal/config"
	"startupsaathi-backend/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "./configs/config.yaml"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "startupsaathi",
	Short: "StartupSaathi assistant backend",
	Long: `StartupSaathi answers questions from Indian founders about registration,
compliance, funding and schemes.

Available subcommands:
  serve - Run the HTTP API
  ask   - Ask a question from the terminal`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "warning: could not read .env: %v\n", err)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "path to the YAML config file")
	rootCmd.AddCommand(serveCmd, askCmd)
}

// loadConfig tolerates a missing default config file; an explicit --config
// must exist.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configPath
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
