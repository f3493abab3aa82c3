package models

import "time"

type DocumentStatus string

const (
	StatusUploaded DocumentStatus = "uploaded"
	StatusIndexing DocumentStatus = "indexing"
	StatusReady    DocumentStatus = "ready"
	StatusFailed   DocumentStatus = "failed"
)

// CanBecome reports whether the forward-only lifecycle
// uploaded -> indexing -> ready|failed allows moving from s to next.
func (s DocumentStatus) CanBecome(next DocumentStatus) bool {
	switch s {
	case StatusUploaded:
		return next == StatusIndexing
	case StatusIndexing:
		return next == StatusReady || next == StatusFailed
	}
	return false
}

type Document struct {
	ID        string         `json:"id"`
	Filename  string         `json:"filename"`
	FileType  string         `json:"file_type"`
	FileSize  int64          `json:"file_size"`
	Status    DocumentStatus `json:"status"`
	LocalPath string         `json:"local_path"`
	Checksum  string         `json:"checksum"`
	PageCount *int           `json:"page_count"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type Chunk struct {
	ID             string    `json:"id"`
	DocumentID     string    `json:"document_id"`
	PageNumber     *int      `json:"page_number"`
	ChunkIndex     int       `json:"chunk_index"`
	Text           string    `json:"text"`
	TokenCount     int       `json:"token_count"`
	StartOffset    *int      `json:"start_offset,omitempty"`
	EndOffset      *int      `json:"end_offset,omitempty"`
	EmbeddingModel string    `json:"embedding_model"`
	CreatedAt      time.Time `json:"created_at"`
}

// QueryRecord is the append-only audit row for one answered question.
type QueryRecord struct {
	ID               string    `json:"id"`
	Question         string    `json:"question"`
	Answer           string    `json:"answer"`
	Model            string    `json:"model"`
	TopK             int       `json:"top_k"`
	LatencyMS        *int      `json:"latency_ms,omitempty"`
	PromptTokens     *int      `json:"prompt_tokens,omitempty"`
	CompletionTokens *int      `json:"completion_tokens,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// RetrievalRow is one nearest-neighbor hit. Smaller Distance is closer.
type RetrievalRow struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	PageNumber *int    `json:"page_number"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Filename   string  `json:"filename"`
	Distance   float64 `json:"distance"`
}
