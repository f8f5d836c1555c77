package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitMetrics_Idempotent(t *testing.T) {
	InitMetrics()
	InitMetrics()

	FramesDecoded.WithLabelValues("close").Inc()
	assert.GreaterOrEqual(t, testutil.ToFloat64(FramesDecoded.WithLabelValues("close")), 1.0)

	n, err := testutil.GatherAndCount(prometheus.DefaultGatherer, "mpm_frames_decoded_total")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)
}

func TestDecodeErrorsLabels(t *testing.T) {
	before := testutil.ToFloat64(DecodeErrors.WithLabelValues("open", "truncated"))
	DecodeErrors.WithLabelValues("open", "truncated").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(DecodeErrors.WithLabelValues("open", "truncated")))
}

func TestInitTracer(t *testing.T) {
	var out bytes.Buffer
	shutdown, err := InitTracer(&out, "test")
	require.NoError(t, err)

	_, span := otel.Tracer(TracerName).Start(context.Background(), "mpm.test")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, out.String(), "mpm.test")
}
