package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"docrag/internal/storage"
	"docrag/internal/util"
)

var (
	errNotFound         = errors.New("not found")
	errMethodNotAllowed = errors.New("method not allowed")
	errJobsDisabled     = errors.New("asynchronous ingestion is not configured")
)

type apiError struct {
	Code    string
	Message string
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

// statusFor maps a core error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case util.IsKind(err, util.KindValidation), util.IsKind(err, util.KindResource):
		return http.StatusBadRequest
	case util.IsKind(err, util.KindDependency):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeCoreErr(w http.ResponseWriter, err error) {
	writeErr(w, statusFor(err), err)
}

func toAPIError(status int, err error) apiError {
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	switch {
	case status == http.StatusBadGateway:
		return apiError{Code: "RAG-UPSTREAM-5020", Message: messageOr(err, "Upstream backend unavailable. Retry shortly.")}
	case status == http.StatusServiceUnavailable:
		return apiError{Code: "RAG-API-5030", Message: messageOr(err, "Service unavailable.")}
	case status >= 500:
		switch {
		case strings.Contains(raw, "relation") && strings.Contains(raw, "does not exist"):
			return apiError{Code: "RAG-DB-5001", Message: "Database schema is not initialized. Run migrations and retry."}
		case strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"):
			return apiError{Code: "RAG-DB-5002", Message: "Database connection is unavailable. Check local services and retry."}
		default:
			return apiError{Code: "RAG-API-5000", Message: "Internal server error. Please retry or check service logs."}
		}
	case status == http.StatusNotFound:
		return apiError{Code: "RAG-API-4004", Message: "Requested resource was not found."}
	case status == http.StatusMethodNotAllowed:
		return apiError{Code: "RAG-API-4005", Message: "This endpoint does not support the requested method."}
	case status == http.StatusRequestEntityTooLarge:
		return apiError{Code: "RAG-API-4013", Message: messageOr(err, "Upload exceeds the size limit.")}
	case status == http.StatusConflict:
		return apiError{Code: "RAG-API-4009", Message: messageOr(err, "Operation conflicts with current state.")}
	default:
		return apiError{Code: "RAG-API-4001", Message: messageOr(err, "Invalid request. Check inputs and retry.")}
	}
}

// 4xx and upstream messages are classified and safe to echo.
func messageOr(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	return err.Error()
}
