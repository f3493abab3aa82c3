package workflows

import (
	"errors"
	"time"

	"docrag/internal/activities"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const QueryGetIngestStatus = "GetIngestStatus"

// Ingest activity limits. OCR of long scans can run for a long time, so the
// activity heartbeats every activities.DefaultHeartbeatInterval regardless of
// chunk progress.
const (
	IngestTimeout          = 2 * time.Hour
	IngestHeartbeatTimeout = 2 * time.Minute
)

// IngestDocumentWorkflow runs a single ingestion attempt. A failed ingestion
// completes the workflow with State failed instead of failing it, so the
// outcome stays queryable after close.
func IngestDocumentWorkflow(ctx workflow.Context, input activities.IngestDocumentInput) (IngestStatus, error) {
	status := IngestStatus{
		WorkflowID:   workflow.GetInfo(ctx).WorkflowExecution.ID,
		Path:         input.Path,
		OriginalName: input.OriginalName,
		State:        StateRunning,
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetIngestStatus, func() (IngestStatus, error) {
		return status, nil
	}); err != nil {
		return status, err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: IngestTimeout,
		HeartbeatTimeout:    IngestHeartbeatTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var out activities.IngestDocumentOutput
	if err := workflow.ExecuteActivity(ctx, "IngestDocumentActivity", input).Get(ctx, &out); err != nil {
		status.State = StateFailed
		status.Error, status.ErrorKind = failureDetail(err)
		workflow.GetLogger(ctx).Warn("ingest activity failed", "path", input.Path, "error", status.Error)
		return status, nil
	}

	status.DocumentID = out.DocumentID
	status.ChunksAdded = out.ChunksAdded
	status.Reason = out.Reason
	if out.Skipped {
		status.State = StateSkipped
	} else {
		status.State = StateReady
	}
	return status, nil
}

func failureDetail(err error) (msg, kind string) {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Message(), appErr.Type()
	}
	return err.Error(), ""
}
