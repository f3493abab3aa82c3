package providers

import (
	"context"
	"errors"
	"strings"

	"docrag/internal/util"
)

type ErrorType string

const (
	ErrorConfig       ErrorType = "config"
	ErrorTimeout      ErrorType = "timeout"
	ErrorUnavailable  ErrorType = "unavailable"
	ErrorModelMissing ErrorType = "model_missing"
	ErrorPermanent    ErrorType = "permanent"
)

// ClassifyError buckets a backend failure for logs and metrics labels.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}
	if util.IsKind(err, util.KindValidation) {
		return ErrorConfig
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	e := strings.ToLower(err.Error())
	switch {
	case strings.Contains(e, "timeout"), strings.Contains(e, "deadline"):
		return ErrorTimeout
	case strings.Contains(e, "connection refused"), strings.Contains(e, "no such host"), strings.Contains(e, " 502 "), strings.Contains(e, " 503 "):
		return ErrorUnavailable
	case strings.Contains(e, " 404 "), strings.Contains(e, "not found"):
		return ErrorModelMissing
	default:
		return ErrorPermanent
	}
}
