package cli

import (
	"github.com/spf13/cobra"
)

type MigrateOptions struct {
	Definitions []string
	Run         bool
	Only        []string
	Verbose     bool
}

func NewMigrateCmd() *cobra.Command {
	opts := &MigrateOptions{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "List the defined migrations, or run them with --run",
		Example: `  contentmigrate migrate -d configs/migrations.yaml
  contentmigrate migrate -d configs/migrations.yaml --run --only teaser-to-textmedia`,
		RunE: func(c *cobra.Command, args []string) error {
			return runMigrate(c.Context(), c.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Definitions, "definitions", "d", []string{"configs/migrations.yaml"}, "Definition file (YAML or JSON), repeatable")
	cmd.Flags().BoolVarP(&opts.Run, "run", "r", false, "Run the migrations instead of listing them")
	cmd.Flags().StringArrayVarP(&opts.Only, "only", "o", nil, "Identifier of a migration to run, repeatable")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Log commit payloads")

	return cmd
}

type JournalOptions struct {
	Migration  string
	FailedOnly bool
	Limit      int64
}

func NewJournalCmd() *cobra.Command {
	opts := &JournalOptions{}

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show recorded row outcomes from the MongoDB journal",
		RunE: func(c *cobra.Command, args []string) error {
			return showJournal(c.Context(), c.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Migration, "migration", "m", "", "Only outcomes of this migration description")
	cmd.Flags().BoolVarP(&opts.FailedOnly, "failed", "f", false, "Only failed rows")
	cmd.Flags().Int64VarP(&opts.Limit, "limit", "n", 50, "Maximum number of outcomes")

	return cmd
}
