package observability

import (
	"context"
	"testing"

	"github.com/tbourn/go-integration-backend/internal/config"
)

func TestSetupOTel_DisabledIsNoop(t *testing.T) {
	shutdown, err := SetupOTel(context.Background(), config.OTELConfig{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("SetupOTel: %v", err)
	}
	if shutdown == nil {
		t.Fatal("shutdown is nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown: %v", err)
	}
}

func TestSetupOTel_EnabledReturnsShutdown(t *testing.T) {
	cfg := config.OTELConfig{
		Enabled:     true,
		Endpoint:    "localhost:4317",
		Insecure:    true,
		ServiceName: "integration-backend-test",
		SampleRatio: 1,
	}
	// The gRPC exporter connects lazily, so setup succeeds without a collector.
	shutdown, err := SetupOTel(context.Background(), cfg, "test")
	if err != nil {
		t.Fatalf("SetupOTel: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
