package consumer

import (
	"context"
	"time"

	"github.com/marmos91/sdcgo/internal/logger"
	"github.com/marmos91/sdcgo/pkg/mdib"
	"github.com/marmos91/sdcgo/pkg/mdib/report"
)

// RealtimeSample is one waveform sample with its back-computed wall-clock
// timestamp, derived from a state's DeterminationTime and the owning
// descriptor's SamplePeriod (§4.8 waveform handling).
type RealtimeSample struct {
	Value     float64
	Timestamp time.Time
}

// ringBuffer holds at most `max` realtime samples for one descriptor
// handle, oldest dropped first.
type ringBuffer struct {
	max     int
	samples []RealtimeSample
}

func newRingBuffer(max int) *ringBuffer {
	if max <= 0 {
		max = 100
	}
	return &ringBuffer{max: max}
}

func (b *ringBuffer) append(samples []RealtimeSample) {
	b.samples = append(b.samples, samples...)
	if over := len(b.samples) - b.max; over > 0 {
		b.samples = b.samples[over:]
	}
}

// defaultMaxRealtimeSamples bounds the realtime sample ring buffer kept per
// waveform descriptor handle.
const defaultMaxRealtimeSamples = 100

// SetMaxRealtimeSamples overrides the ring buffer capacity for handle by
// installing a new, empty buffer; samples already held for handle are
// discarded.
func (c *Mirror) SetMaxRealtimeSamples(handle mdib.Handle, max int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waveforms[handle] = newRingBuffer(max)
}

// Samples returns a copy of the realtime sample buffer currently held for
// handle.
func (c *Mirror) Samples(handle mdib.Handle) []RealtimeSample {
	c.mu.Lock()
	defer c.mu.Unlock()
	rb, ok := c.waveforms[handle]
	if !ok {
		return nil
	}
	out := make([]RealtimeSample, len(rb.samples))
	copy(out, rb.samples)
	return out
}

// applyWaveform appends every sample a WaveformStream report carries to
// its descriptor's ring buffer, computing each sample's timestamp by
// offsetting DeterminationTime backward by (n-1-i)*SamplePeriod — i.e.
// the last sample in the batch is timestamped at DeterminationTime.
func (c *Mirror) applyWaveform(ctx context.Context, r *report.Report) {
	for _, st := range r.States {
		if st.Waveform == nil {
			continue
		}
		entity, err := c.m.Store().Get(ctx, st.DescriptorHandle)
		if err != nil || entity.Descriptor.Metric == nil {
			logger.Warn("consumer: waveform state for unknown or non-metric descriptor", logger.Handle(string(st.DescriptorHandle)))
			continue
		}
		period := entity.Descriptor.Metric.SamplePeriod

		n := len(st.Waveform.Samples)
		samples := make([]RealtimeSample, n)
		for i, s := range st.Waveform.Samples {
			offset := time.Duration(n-1-i) * period
			samples[i] = RealtimeSample{Value: s.Value, Timestamp: st.Waveform.DeterminationTime.Add(-offset)}
		}

		c.mu.Lock()
		rb, ok := c.waveforms[st.DescriptorHandle]
		if !ok {
			rb = newRingBuffer(defaultMaxRealtimeSamples)
			c.waveforms[st.DescriptorHandle] = rb
		}
		rb.append(samples)
		c.mu.Unlock()

		clone := entity.Clone()
		clone.State = st
		if err := c.m.Store().Update(ctx, clone); err != nil {
			logger.Warn("consumer: failed to apply waveform state", logger.Err(err))
		}
	}
}
