package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "sdcgo", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Enabled = false

	shutdown, err := Init(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	err = shutdown(ctx)
	assert.NoError(t, err)

	assert.False(t, IsEnabled())
}

func TestTracerReturnsNoOp(t *testing.T) {
	tracer = nil
	enabled = false

	tr := Tracer()
	require.NotNil(t, tr)
}

func TestStartSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartSpan(ctx, "test.operation")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}

func TestSpanFromContext(t *testing.T) {
	ctx := context.Background()

	span := SpanFromContext(ctx)
	require.NotNil(t, span)
}

func TestAddEvent(t *testing.T) {
	ctx := context.Background()

	require.NotPanics(t, func() {
		AddEvent(ctx, "test.event")
	})
}

func TestRecordError(t *testing.T) {
	ctx := context.Background()

	require.NotPanics(t, func() {
		RecordError(ctx, nil)
	})

	require.NotPanics(t, func() {
		RecordError(ctx, errors.New("test error"))
	})
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()

	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Ok, "success")
	})

	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Error, "failed")
	})
}

func TestSetAttributes(t *testing.T) {
	ctx := context.Background()

	require.NotPanics(t, func() {
		SetAttributes(ctx, PeerNetloc("192.168.1.1:5000"))
	})
}

func TestTraceID(t *testing.T) {
	ctx := context.Background()

	traceID := TraceID(ctx)
	assert.Equal(t, "", traceID)
}

func TestSpanID(t *testing.T) {
	ctx := context.Background()

	spanID := SpanID(ctx)
	assert.Equal(t, "", spanID)
}

func TestAttributeHelpers(t *testing.T) {
	t.Run("PeerNetloc", func(t *testing.T) {
		attr := PeerNetloc("192.168.1.100:5000")
		assert.Equal(t, AttrPeerNetloc, string(attr.Key))
		assert.Equal(t, "192.168.1.100:5000", attr.Value.AsString())
	})

	t.Run("PeerEPR", func(t *testing.T) {
		attr := PeerEPR("urn:uuid:1234")
		assert.Equal(t, AttrPeerEPR, string(attr.Key))
		assert.Equal(t, "urn:uuid:1234", attr.Value.AsString())
	})

	t.Run("Action", func(t *testing.T) {
		attr := Action("http://example.com/ws/SetValue")
		assert.Equal(t, AttrAction, string(attr.Key))
		assert.Equal(t, "http://example.com/ws/SetValue", attr.Value.AsString())
	})

	t.Run("MessageID", func(t *testing.T) {
		attr := MessageID("urn:uuid:abcd")
		assert.Equal(t, AttrMessageID, string(attr.Key))
		assert.Equal(t, "urn:uuid:abcd", attr.Value.AsString())
	})

	t.Run("FaultCode", func(t *testing.T) {
		attr := FaultCode("soap:Receiver")
		assert.Equal(t, AttrFaultCode, string(attr.Key))
		assert.Equal(t, "soap:Receiver", attr.Value.AsString())
	})

	t.Run("SubscriptionID", func(t *testing.T) {
		attr := SubscriptionID("sub-1")
		assert.Equal(t, AttrSubscriptionID, string(attr.Key))
		assert.Equal(t, "sub-1", attr.Value.AsString())
	})

	t.Run("Filter", func(t *testing.T) {
		attr := Filter("http://example.com/ws/EpisodicMetricReport")
		assert.Equal(t, AttrFilter, string(attr.Key))
		assert.Equal(t, "http://example.com/ws/EpisodicMetricReport", attr.Value.AsString())
	})

	t.Run("ExpiresSeconds", func(t *testing.T) {
		attr := ExpiresSeconds(600.0)
		assert.Equal(t, AttrExpiresSec, string(attr.Key))
		assert.Equal(t, 600.0, attr.Value.AsFloat64())
	})

	t.Run("Handle", func(t *testing.T) {
		attr := Handle("handle-1")
		assert.Equal(t, AttrHandle, string(attr.Key))
		assert.Equal(t, "handle-1", attr.Value.AsString())
	})

	t.Run("MdibVersion", func(t *testing.T) {
		attr := MdibVersion(42)
		assert.Equal(t, AttrMdibVersion, string(attr.Key))
		assert.Equal(t, int64(42), attr.Value.AsInt64())
	})

	t.Run("SequenceID", func(t *testing.T) {
		attr := SequenceID("urn:uuid:seq-1")
		assert.Equal(t, AttrSequenceID, string(attr.Key))
		assert.Equal(t, "urn:uuid:seq-1", attr.Value.AsString())
	})

	t.Run("TransactionID", func(t *testing.T) {
		attr := TransactionID(7)
		assert.Equal(t, AttrTransactionID, string(attr.Key))
		assert.Equal(t, int64(7), attr.Value.AsInt64())
	})

	t.Run("NodeType", func(t *testing.T) {
		attr := NodeType("Mds")
		assert.Equal(t, AttrNodeType, string(attr.Key))
		assert.Equal(t, "Mds", attr.Value.AsString())
	})

	t.Run("ReportFamily", func(t *testing.T) {
		attr := ReportFamily("EpisodicMetricReport")
		assert.Equal(t, AttrReportFamily, string(attr.Key))
		assert.Equal(t, "EpisodicMetricReport", attr.Value.AsString())
	})

	t.Run("PeriodMs", func(t *testing.T) {
		attr := PeriodMs(1000)
		assert.Equal(t, AttrPeriodMs, string(attr.Key))
		assert.Equal(t, int64(1000), attr.Value.AsInt64())
	})

	t.Run("Operation", func(t *testing.T) {
		attr := Operation("commit")
		assert.Equal(t, AttrOperation, string(attr.Key))
		assert.Equal(t, "commit", attr.Value.AsString())
	})

	t.Run("Status", func(t *testing.T) {
		attr := Status("ok")
		assert.Equal(t, AttrStatus, string(attr.Key))
		assert.Equal(t, "ok", attr.Value.AsString())
	})

	t.Run("Attempt", func(t *testing.T) {
		attr := Attempt(3)
		assert.Equal(t, AttrAttempt, string(attr.Key))
		assert.Equal(t, int64(3), attr.Value.AsInt64())
	})
}

func TestStartHostedServiceSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartHostedServiceSpan(ctx, SpanSetValue, "http://example.com/ws/SetValue")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	newCtx2, span2 := StartHostedServiceSpan(ctx, SpanGetMdib, "http://example.com/ws/GetMdib", Handle("mds-1"))
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()
}

func TestStartTransactionSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartTransactionSpan(ctx, 5, Handle("metric-1"))
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}

func TestStartNotifySpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartNotifySpan(ctx, "sub-1", "http://example.com/ws/EpisodicMetricReport")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}

func TestStartMirrorSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartMirrorSpan(ctx, SpanMirrorApplyReport, MdibVersion(10))
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}
