// Package cli wires the command line interface with cobra.
package cli

import (
	"os"

	"github.com/BartekS5/contentmigrate/internal/config"
	"github.com/BartekS5/contentmigrate/pkg/logger"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "contentmigrate",
		Short: "contentmigrate - field mapping and row migration for CMS content",
		Long: `contentmigrate rewrites CMS content records from one element type into another.
Migrations are declared in YAML or JSON definition files: a source filter, the
attachments to collect, the destination defaults and a list of field mappings.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(config.LoadConfig())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Close()
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.AddCommand(NewMigrateCmd(), NewJournalCmd())

	return rootCmd
}

func setupLogging(cfg *config.Config) error {
	if cfg.LogFile != "" {
		return logger.InitLogger(cfg.LogFile, cfg.LogLevel)
	}
	logger.SetOutput(os.Stderr, cfg.LogLevel)
	return nil
}
