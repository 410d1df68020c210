package telemetry

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestSetupWithoutEndpointIsNoop(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	shutdown := Setup(context.Background(), slog.New(slog.NewJSONHandler(io.Discard, nil)), "test")
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
