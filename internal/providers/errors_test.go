package providers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"docrag/internal/util"
)

func TestClassifyError(t *testing.T) {
	cases := map[string]ErrorType{
		"dial tcp 127.0.0.1:11434: connect: connection refused": ErrorUnavailable,
		"Client.Timeout exceeded while awaiting headers":        ErrorTimeout,
		"ollama embed failed: 404 model \"x\" not found":         ErrorModelMissing,
		"ollama chat failed: 500 boom":                           ErrorPermanent,
	}
	for msg, want := range cases {
		if got := ClassifyError(errors.New(msg)); got != want {
			t.Fatalf("classify %q: got %s want %s", msg, got, want)
		}
	}
}

func TestClassifyErrorKinds(t *testing.T) {
	if got := ClassifyError(util.Validation("embed", "embedding model is not set")); got != ErrorConfig {
		t.Fatalf("unset model: got %s", got)
	}
	if got := ClassifyError(fmt.Errorf("embed: %w", context.DeadlineExceeded)); got != ErrorTimeout {
		t.Fatalf("deadline: got %s", got)
	}
	if got := ClassifyError(nil); got != "" {
		t.Fatalf("nil: got %s", got)
	}
}
