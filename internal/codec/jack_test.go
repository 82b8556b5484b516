package codec_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micro-nova/acodec-go/internal/codec"
)

// manualScheduler queues callbacks until the test fires them.
type manualScheduler struct {
	mu      sync.Mutex
	pending []*manualTimer
}

type manualTimer struct {
	s     *manualScheduler
	after time.Duration
	f     func()
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for i, p := range t.s.pending {
		if p == t {
			t.s.pending = append(t.s.pending[:i], t.s.pending[i+1:]...)
			return true
		}
	}
	return false
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) codec.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{s: s, after: d, f: f}
	s.pending = append(s.pending, t)
	return t
}

func (s *manualScheduler) delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []time.Duration
	for _, t := range s.pending {
		out = append(out, t.after)
	}
	return out
}

// fire runs the oldest pending callback on the calling goroutine.
func (s *manualScheduler) fire(t *testing.T) {
	t.Helper()
	s.mu.Lock()
	require.NotEmpty(t, s.pending, "nothing scheduled")
	next := s.pending[0]
	s.pending = s.pending[1:]
	s.mu.Unlock()
	next.f()
}

type fakeIRQ struct {
	mu       sync.Mutex
	enabled  bool
	disables int
}

func (q *fakeIRQ) Enable() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enabled = true
}

func (q *fakeIRQ) Disable() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enabled = false
	q.disables++
}

func (q *fakeIRQ) isEnabled() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.enabled
}

type report struct {
	plugged bool
	jack    codec.JackType
}

type jackRig struct {
	*rig
	sched   *manualScheduler
	irq     *fakeIRQ
	det     *codec.Detector
	mu      sync.Mutex
	reports []report
}

func newJackRig(t *testing.T) *jackRig {
	j := &jackRig{rig: newRig(t), sched: &manualScheduler{}, irq: &fakeIRQ{}}
	j.det = codec.NewDetector(j.c, j.irq, j.sched, codec.ReporterFunc(func(ctx context.Context, plugged bool, jack codec.JackType) {
		// The codec must be usable from inside a report.
		_ = j.c.HPPlugged()
		j.mu.Lock()
		defer j.mu.Unlock()
		j.reports = append(j.reports, report{plugged, jack})
	}))
	j.det.Start()
	return j
}

func (j *jackRig) got() []report {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]report(nil), j.reports...)
}

func TestJackDetectPlugPollUnplug(t *testing.T) {
	j := newJackRig(t)
	require.True(t, j.irq.isEnabled())

	// Interrupt while unplugged masks the source and schedules the debounce.
	j.det.HandleInterrupt()
	assert.False(t, j.irq.isEnabled())
	assert.True(t, j.det.Masked())
	assert.Equal(t, []time.Duration{codec.DebounceDelay}, j.sched.delays())

	// A second interrupt while masked is dropped.
	j.det.HandleInterrupt()
	assert.Len(t, j.sched.delays(), 1)

	// Pin reads high: plugged, reported once, switched, polling.
	j.m.Set(codec.RegDACDigCon14, 1)
	j.sched.fire(t)
	assert.Equal(t, []report{{true, codec.JackHeadphone}}, j.got())
	assert.True(t, j.c.HPPlugged())
	assert.Equal(t, codec.HeadphoneOut, j.c.Output())
	assert.Equal(t, []time.Duration{codec.PollInterval}, j.sched.delays())
	assert.False(t, j.irq.isEnabled())

	// Still high at the next tick: no duplicate report.
	j.sched.fire(t)
	assert.Len(t, j.got(), 1)
	assert.True(t, j.c.HPPlugged())
	assert.Equal(t, []time.Duration{codec.PollInterval}, j.sched.delays())
	assert.False(t, j.irq.isEnabled())

	// Pin drops: unplugged, reported, back to line out, source unmasked.
	j.m.Set(codec.RegDACDigCon14, 0)
	j.sched.fire(t)
	assert.Equal(t, []report{{true, codec.JackHeadphone}, {false, codec.JackNone}}, j.got())
	assert.False(t, j.c.HPPlugged())
	assert.Equal(t, codec.LineOut, j.c.Output())
	assert.Empty(t, j.sched.delays())
	assert.True(t, j.irq.isEnabled())
	assert.False(t, j.det.Masked())

	// Playback was idle the whole time, so only the detect register was touched.
	assert.Empty(t, j.m.Writes())
}

func TestJackDetectSwitchesLiveWhileBusy(t *testing.T) {
	j := newJackRig(t)
	j.busy(t)

	j.det.HandleInterrupt()
	j.m.Set(codec.RegDACDigCon14, 1)
	j.sched.fire(t)

	assert.Equal(t, codec.HeadphoneOut, j.c.Output())
	assert.True(t, j.hp.Level())
	assert.False(t, j.spk.Level())
	assert.NotEmpty(t, j.m.Writes())
}

func TestJackDetectBounceResolvesUnplugged(t *testing.T) {
	j := newJackRig(t)
	j.det.HandleInterrupt()
	// Level already gone by the time the debounce runs.
	j.sched.fire(t)

	assert.Equal(t, []report{{false, codec.JackNone}}, j.got())
	assert.Empty(t, j.sched.delays())
	assert.True(t, j.irq.isEnabled())

	// The next interrupt is accepted again.
	j.det.HandleInterrupt()
	assert.Len(t, j.sched.delays(), 1)
}

func TestJackDetectReadFailureKeepsPolling(t *testing.T) {
	j := newJackRig(t)
	j.det.HandleInterrupt()
	j.m.SetFailRead(true)
	j.sched.fire(t)

	assert.Empty(t, j.got())
	assert.Equal(t, []time.Duration{codec.PollInterval}, j.sched.delays())
	assert.True(t, j.det.Masked())
	assert.False(t, j.irq.isEnabled())

	j.m.SetFailRead(false)
	j.m.Set(codec.RegDACDigCon14, 1)
	j.sched.fire(t)
	assert.Equal(t, []report{{true, codec.JackHeadphone}}, j.got())
}

func TestJackDetectStopCancelsPoll(t *testing.T) {
	j := newJackRig(t)
	j.det.HandleInterrupt()
	require.Len(t, j.sched.delays(), 1)

	j.det.Stop()
	assert.Empty(t, j.sched.delays())
	assert.False(t, j.irq.isEnabled())

	j.det.HandleInterrupt()
	assert.Empty(t, j.sched.delays(), "stopped detector ignores interrupts")
}

func TestDetachStopsDetector(t *testing.T) {
	j := newJackRig(t)
	ctx := context.Background()
	require.NoError(t, j.c.Attach(ctx))
	j.det.HandleInterrupt()
	require.NoError(t, j.c.Detach(ctx))
	assert.Empty(t, j.sched.delays())
	assert.False(t, j.irq.isEnabled())
}

func TestMultiReporter(t *testing.T) {
	var a, b []bool
	r := codec.MultiReporter(
		codec.ReporterFunc(func(_ context.Context, p bool, _ codec.JackType) { a = append(a, p) }),
		nil,
		codec.ReporterFunc(func(_ context.Context, p bool, _ codec.JackType) { b = append(b, p) }),
	)
	r.Report(context.Background(), true, codec.JackHeadphone)
	assert.Equal(t, []bool{true}, a)
	assert.Equal(t, []bool{true}, b)
}
