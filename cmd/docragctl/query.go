package main

import (
	"context"
	"strings"

	"docrag/internal/rag"

	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Answer a question from the stored documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

var (
	queryTopK       int
	querySnippetMax int
	queryNoSources  bool
	queryDistance   bool
	queryChunkIndex bool
	queryNoFilename bool
)

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "Number of chunks to retrieve (default from config)")
	queryCmd.Flags().IntVar(&querySnippetMax, "snippet-max", 0, "Maximum snippet length in characters (default from config)")
	queryCmd.Flags().BoolVar(&queryNoSources, "no-sources", false, "Omit sources from the output")
	queryCmd.Flags().BoolVar(&queryDistance, "distance", false, "Include the vector distance of each source")
	queryCmd.Flags().BoolVar(&queryChunkIndex, "chunk-index", false, "Include the chunk index of each source")
	queryCmd.Flags().BoolVar(&queryNoFilename, "no-filename", false, "Omit the filename of each source")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	opts := rag.QueryOptions{
		TopK:              queryTopK,
		SnippetMax:        querySnippetMax,
		IncludeSources:    !queryNoSources,
		IncludeDistance:   queryDistance,
		IncludeChunkIndex: queryChunkIndex,
		IncludeFilename:   !queryNoFilename,
	}
	question := strings.Join(args, " ")
	return withBackend(cmd, func(ctx context.Context, b backend) error {
		ans, err := b.Query(ctx, question, opts)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), ans)
	})
}
