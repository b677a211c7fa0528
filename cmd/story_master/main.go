// Package main provides the story_master CLI: the story API server, the
// terminal writing app and a few maintenance commands.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/jonathan/story-master/internal/catalog"
	"github.com/jonathan/story-master/internal/config"
	"github.com/jonathan/story-master/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries the resolved configuration into subcommands.
type app struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "story_master",
		Short:         "Story Master creative writing tutor",
		Long:          "Story Master teaches children story structure and guides them through writing a story with an introduction, a middle and a conclusion.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.LogLevel = a.logLevel
			}
			a.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to JSON config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newWriteCmd(a),
		newProgressCmd(a),
		newStoriesCmd(a),
		newCatalogCmd(a),
	)
	return root
}

// logger builds a logger for the given output format. A non-empty path
// sends output to a file.
func (a *app) logger(format, path string) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Level:      a.cfg.LogLevel,
		Format:     format,
		OutputPath: path,
	})
}

// catalog returns the configured catalog, or the embedded one.
func (a *app) catalog() (*catalog.Catalog, error) {
	if a.cfg.CatalogPath != "" {
		return catalog.LoadFile(a.cfg.CatalogPath)
	}
	return catalog.Default()
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
