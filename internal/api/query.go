package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"docrag/internal/rag"
)

type queryRequest struct {
	Question          string `json:"question"`
	TopK              *int   `json:"top_k"`
	SnippetMax        *int   `json:"snippet_max"`
	IncludeSources    *bool  `json:"include_sources"`
	IncludeDistance   *bool  `json:"include_distance"`
	IncludeFilename   *bool  `json:"include_filename"`
	IncludeChunkIndex *bool  `json:"include_chunk_index"`
}

// options overlays the fields the caller set onto the defaults. Sizes left
// unset stay zero so the engine applies its configured defaults.
func (q queryRequest) options() rag.QueryOptions {
	opts := rag.DefaultQueryOptions()
	opts.TopK, opts.SnippetMax = 0, 0
	if q.TopK != nil {
		opts.TopK = *q.TopK
	}
	if q.SnippetMax != nil {
		opts.SnippetMax = *q.SnippetMax
	}
	if q.IncludeSources != nil {
		opts.IncludeSources = *q.IncludeSources
	}
	if q.IncludeDistance != nil {
		opts.IncludeDistance = *q.IncludeDistance
	}
	if q.IncludeFilename != nil {
		opts.IncludeFilename = *q.IncludeFilename
	}
	if q.IncludeChunkIndex != nil {
		opts.IncludeChunkIndex = *q.IncludeChunkIndex
	}
	return opts
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeErr(w, http.StatusBadRequest, errors.New("question is required"))
		return
	}
	ans, err := s.querier.Query(r.Context(), req.Question, req.options())
	if err != nil {
		writeCoreErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ans)
}
