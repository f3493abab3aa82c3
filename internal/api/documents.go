package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"docrag/internal/ingest"
	"docrag/internal/util"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ingestRequest struct {
	Path         string `json:"path"`
	ChunkSize    *int   `json:"chunk_size"`
	ChunkOverlap *int   `json:"chunk_overlap"`
	Force        *bool  `json:"force"`
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.ListDocuments(r.Context(), s.cfg.ListLimit)
	if err != nil {
		writeCoreErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": docs})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := documentID(w, r)
	if !ok {
		return
	}
	doc, err := s.store.GetDocument(r.Context(), id)
	if err != nil {
		writeCoreErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleListChunks(w http.ResponseWriter, r *http.Request) {
	id, ok := documentID(w, r)
	if !ok {
		return
	}
	if _, err := s.store.GetDocument(r.Context(), id); err != nil {
		writeCoreErr(w, err)
		return
	}
	chunks, err := s.store.ListChunks(r.Context(), id)
	if err != nil {
		writeCoreErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": chunks})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := documentID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteDocument(r.Context(), id); err != nil {
		writeCoreErr(w, err)
		return
	}
	s.logger.Info("document deleted", zap.String("document_id", id))
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (s *Server) handleIngestPath(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.Path = strings.TrimSpace(req.Path)
	if req.Path == "" {
		writeErr(w, http.StatusBadRequest, errors.New("path is required"))
		return
	}
	res, err := s.ingester.Ingest(r.Context(), req.Path, ingest.Options{
		ChunkSize:    req.ChunkSize,
		ChunkOverlap: req.ChunkOverlap,
		Force:        req.Force != nil && *req.Force,
	})
	if err != nil {
		writeCoreErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	saved, opts, err := s.receiveUpload(w, r)
	if err != nil {
		writeUploadErr(w, err)
		return
	}
	res, err := s.ingester.Ingest(r.Context(), saved, opts)
	if err != nil {
		writeCoreErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// receiveUpload stores the multipart "file" part under the upload dir as
// <uuid><ext> and returns its path with the ingestion options from the form.
func (s *Server) receiveUpload(w http.ResponseWriter, r *http.Request) (string, ingest.Options, error) {
	// Multipart framing adds a little on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return "", ingest.Options{}, &util.Error{Kind: util.KindValidation, Op: "upload", Msg: "parse multipart", Err: err}
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		return "", ingest.Options{}, util.Validation("upload", "file is required")
	}
	fh := files[0]
	if fh.Size > s.cfg.MaxUploadBytes {
		return "", ingest.Options{}, &http.MaxBytesError{Limit: s.cfg.MaxUploadBytes}
	}

	opts, err := formOptions(r)
	if err != nil {
		return "", ingest.Options{}, err
	}
	opts.OriginalName = filepath.Base(fh.Filename)

	path, err := saveUploadedFile(s.cfg.UploadDir, fh)
	if err != nil {
		return "", ingest.Options{}, err
	}
	s.logger.Info("upload stored", zap.String("path", path), zap.String("original_name", opts.OriginalName), zap.Int64("size", fh.Size))
	return path, opts, nil
}

func writeUploadErr(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeErr(w, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit))
	default:
		writeCoreErr(w, err)
	}
}

func saveUploadedFile(dstDir string, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	finalPath := util.StoredName(dstDir, uuid.NewString(), fh.Filename)
	if _, err := util.WriteFileAtomic(finalPath, src); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return finalPath, nil
}

// formOptions reads chunk_size, chunk_overlap and force from form fields.
// Empty fields are treated as absent.
func formOptions(r *http.Request) (ingest.Options, error) {
	var opts ingest.Options
	for _, f := range []struct {
		name string
		dst  **int
	}{
		{"chunk_size", &opts.ChunkSize},
		{"chunk_overlap", &opts.ChunkOverlap},
	} {
		v := strings.TrimSpace(r.FormValue(f.name))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, util.Validation("upload", "%s must be an integer, got %q", f.name, v)
		}
		*f.dst = &n
	}
	if v := strings.TrimSpace(r.FormValue("force")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, util.Validation("upload", "force must be a boolean, got %q", v)
		}
		opts.Force = b
	}
	return opts, nil
}

// documentID returns the {id} path parameter. A value that is not a UUID
// cannot name a stored document and is answered with 404.
func documentID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeErr(w, http.StatusNotFound, errNotFound)
		return "", false
	}
	return id, true
}
