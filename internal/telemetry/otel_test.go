package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"mtga-analyzer/backend/internal/buildinfo"
	"mtga-analyzer/backend/internal/config"
)

func testTelemetryConfig() config.TelemetryConfig {
	return config.TelemetryConfig{
		OTLPEndpoint:     "localhost:19999",
		OTLPInsecure:     true,
		ServiceName:      "mtga-analyzer-test",
		ServiceNamespace: "mtga",
		SampleRatio:      1,
		ExportInterval:   time.Minute,
	}
}

func TestInitProvider_UnreachableCollector(t *testing.T) {
	// The gRPC client connects lazily, so setup succeeds with no collector running.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p, err := InitProvider(ctx, testTelemetryConfig())
	require.NoError(t, err)
	require.NotNil(t, p)

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer shutCancel()
	assert.NoError(t, p.Shutdown(shutCtx))
}

func TestNewResource(t *testing.T) {
	t.Parallel()

	res, err := newResource(context.Background(), testTelemetryConfig())
	require.NoError(t, err)

	attrs := res.Set()
	name, ok := attrs.Value(semconv.ServiceNameKey)
	require.True(t, ok)
	assert.Equal(t, "mtga-analyzer-test", name.AsString())

	version, ok := attrs.Value(semconv.ServiceVersionKey)
	require.True(t, ok)
	assert.Equal(t, buildinfo.Version, version.AsString())

	ns, ok := attrs.Value(semconv.ServiceNamespaceKey)
	require.True(t, ok)
	assert.Equal(t, "mtga", ns.AsString())

	_, ok = attrs.Value(semconv.HostNameKey)
	assert.False(t, ok, "host attributes are opt-in")
}

func TestNewResource_Options(t *testing.T) {
	t.Parallel()

	cfg := testTelemetryConfig()
	cfg.ServiceNamespace = ""
	cfg.HostAttributes = true

	res, err := newResource(context.Background(), cfg)
	require.NoError(t, err)

	_, ok := res.Set().Value(semconv.ServiceNamespaceKey)
	assert.False(t, ok)
	_, ok = res.Set().Value(semconv.HostNameKey)
	assert.True(t, ok)
}

func TestSampler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ratio float64
		want  string
	}{
		{1, "AlwaysOnSampler"},
		{2, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}

	for _, tc := range tests {
		desc := sampler(tc.ratio).Description()
		assert.Contains(t, desc, "ParentBased{root:"+tc.want, "ratio %v", tc.ratio)
	}
}
