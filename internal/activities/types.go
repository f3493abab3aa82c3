package activities

type IngestDocumentInput struct {
	Path         string `json:"path"`
	OriginalName string `json:"original_name,omitempty"`
	ChunkSize    *int   `json:"chunk_size,omitempty"`
	ChunkOverlap *int   `json:"chunk_overlap,omitempty"`
	Force        bool   `json:"force,omitempty"`
}

type IngestDocumentOutput struct {
	DocumentID  string `json:"document_id"`
	Status      string `json:"status"`
	ChunksAdded int    `json:"chunks_added"`
	Skipped     bool   `json:"skipped"`
	Reason      string `json:"reason,omitempty"`
}
