package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"docrag/internal/activities"
	"docrag/internal/workflows"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	tclient "go.temporal.io/sdk/client"
	"go.uber.org/zap"
)

var ErrJobNotFound = errors.New("ingest job not found")

// TemporalJobs runs ingestions as IngestDocumentWorkflow executions.
type TemporalJobs struct {
	client    tclient.Client
	taskQueue string
}

func NewTemporalJobs(c tclient.Client, taskQueue string) *TemporalJobs {
	return &TemporalJobs{client: c, taskQueue: taskQueue}
}

func (j *TemporalJobs) StartIngest(ctx context.Context, in activities.IngestDocumentInput) (string, string, error) {
	we, err := j.client.ExecuteWorkflow(ctx, tclient.StartWorkflowOptions{
		ID:                    "ingest-" + uuid.NewString(),
		TaskQueue:             j.taskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}, workflows.IngestDocumentWorkflow, in)
	if err != nil {
		return "", "", fmt.Errorf("start ingest workflow: %w", err)
	}
	return we.GetID(), we.GetRunID(), nil
}

// IngestStatus queries a running workflow and reads the result of a closed
// one. Workflows that closed without a result report State failed.
func (j *TemporalJobs) IngestStatus(ctx context.Context, workflowID string) (workflows.IngestStatus, error) {
	desc, err := j.client.DescribeWorkflowExecution(ctx, workflowID, "")
	if err != nil {
		var nf *serviceerror.NotFound
		if errors.As(err, &nf) {
			return workflows.IngestStatus{}, ErrJobNotFound
		}
		return workflows.IngestStatus{}, fmt.Errorf("describe workflow: %w", err)
	}

	var status workflows.IngestStatus
	switch st := desc.GetWorkflowExecutionInfo().GetStatus(); st {
	case enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING:
		resp, err := j.client.QueryWorkflow(ctx, workflowID, "", workflows.QueryGetIngestStatus)
		if err != nil {
			return status, fmt.Errorf("query workflow: %w", err)
		}
		if err := resp.Get(&status); err != nil {
			return status, fmt.Errorf("decode ingest status: %w", err)
		}
	case enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		if err := j.client.GetWorkflow(ctx, workflowID, "").Get(ctx, &status); err != nil {
			return status, fmt.Errorf("read workflow result: %w", err)
		}
	default:
		status = workflows.IngestStatus{
			WorkflowID: workflowID,
			State:      workflows.StateFailed,
			Error:      "workflow " + strings.ToLower(strings.TrimPrefix(st.String(), "WORKFLOW_EXECUTION_STATUS_")),
		}
	}
	return status, nil
}

type jobRequest struct {
	ingestRequest
	OriginalName string `json:"original_name"`
}

// handleStartJob accepts either a JSON body naming a server-side path or a
// multipart upload, and starts an asynchronous ingestion of it.
func (s *Server) handleStartJob(w http.ResponseWriter, r *http.Request) {
	if s.jobs == nil {
		writeErr(w, http.StatusServiceUnavailable, errJobsDisabled)
		return
	}

	var in activities.IngestDocumentInput
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		path, opts, err := s.receiveUpload(w, r)
		if err != nil {
			writeUploadErr(w, err)
			return
		}
		in = activities.IngestDocumentInput{
			Path:         path,
			OriginalName: opts.OriginalName,
			ChunkSize:    opts.ChunkSize,
			ChunkOverlap: opts.ChunkOverlap,
			Force:        opts.Force,
		}
	} else {
		var req jobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
		req.Path = strings.TrimSpace(req.Path)
		if req.Path == "" {
			writeErr(w, http.StatusBadRequest, errors.New("path is required"))
			return
		}
		in = activities.IngestDocumentInput{
			Path:         req.Path,
			OriginalName: strings.TrimSpace(req.OriginalName),
			ChunkSize:    req.ChunkSize,
			ChunkOverlap: req.ChunkOverlap,
			Force:        req.Force != nil && *req.Force,
		}
	}

	wfID, runID, err := s.jobs.StartIngest(r.Context(), in)
	if err != nil {
		s.logger.Error("start ingest job failed", zap.String("path", in.Path), zap.Error(err))
		writeErr(w, http.StatusBadGateway, err)
		return
	}
	s.logger.Info("ingest job started", zap.String("workflow_id", wfID), zap.String("path", in.Path))
	writeJSON(w, http.StatusAccepted, map[string]any{"workflow_id": wfID, "run_id": runID})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	if s.jobs == nil {
		writeErr(w, http.StatusServiceUnavailable, errJobsDisabled)
		return
	}
	status, err := s.jobs.IngestStatus(r.Context(), chi.URLParam(r, "workflowID"))
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		writeErr(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
