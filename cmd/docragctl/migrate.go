package main

import (
	"context"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or verify the database schema",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

// Opening the backend bootstraps the schema and checks the vector dimension.
func runMigrate(cmd *cobra.Command, _ []string) error {
	return withBackend(cmd, func(_ context.Context, b backend) error {
		return printJSON(cmd.OutOrStdout(), map[string]any{"migrated": true, "embed_dim": b.EmbedDim()})
	})
}
