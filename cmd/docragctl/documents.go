package main

import (
	"context"

	"github.com/spf13/cobra"
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Manage stored documents",
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored documents, newest first",
	Args:  cobra.NoArgs,
	RunE:  runDocumentsList,
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document with its chunks and embeddings",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsDelete,
}

var documentsLimit int

func init() {
	documentsListCmd.Flags().IntVarP(&documentsLimit, "limit", "n", 100, "Maximum number of documents to list")

	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	return withBackend(cmd, func(ctx context.Context, b backend) error {
		docs, err := b.ListDocuments(ctx, documentsLimit)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{"items": docs})
	})
}

func runDocumentsDelete(cmd *cobra.Command, args []string) error {
	return withBackend(cmd, func(ctx context.Context, b backend) error {
		if err := b.DeleteDocument(ctx, args[0]); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{"deleted": true, "id": args[0]})
	})
}
