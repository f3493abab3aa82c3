package workflows

const (
	StateRunning = "running"
	StateReady   = "ready"
	StateSkipped = "skipped"
	StateFailed  = "failed"
)

// IngestStatus is both the GetIngestStatus query result and the workflow result.
type IngestStatus struct {
	WorkflowID   string `json:"workflow_id"`
	Path         string `json:"path"`
	OriginalName string `json:"original_name,omitempty"`
	State        string `json:"state"`
	DocumentID   string `json:"document_id,omitempty"`
	ChunksAdded  int    `json:"chunks_added"`
	Reason       string `json:"reason,omitempty"`
	ErrorKind    string `json:"error_kind,omitempty"`
	Error        string `json:"error,omitempty"`
}
