package main

import (
	"context"

	"docrag/internal/ingest"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest a document from the local filesystem",
	Long:  `Parses, chunks and embeds a .txt, .md, .docx or .pdf file. Content already stored is skipped unless --force is set.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

var (
	ingestChunkSize    int
	ingestChunkOverlap int
	ingestForce        bool
)

func init() {
	ingestCmd.Flags().IntVar(&ingestChunkSize, "chunk-size", 0, "Chunk size in words (default from config)")
	ingestCmd.Flags().IntVar(&ingestChunkOverlap, "chunk-overlap", 0, "Chunk overlap in words (default from config)")
	ingestCmd.Flags().BoolVarP(&ingestForce, "force", "f", false, "Replace any stored document with the same content")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	opts := ingest.Options{Force: ingestForce}
	if cmd.Flags().Changed("chunk-size") {
		size := ingestChunkSize
		opts.ChunkSize = &size
	}
	if cmd.Flags().Changed("chunk-overlap") {
		overlap := ingestChunkOverlap
		opts.ChunkOverlap = &overlap
	}
	return withBackend(cmd, func(ctx context.Context, b backend) error {
		res, err := b.Ingest(ctx, args[0], opts)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	})
}
