package codec

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	// DebounceDelay is the wait between a detect interrupt and the first poll.
	DebounceDelay = 10 * time.Millisecond
	// PollInterval is the poll period while a headphone is plugged.
	PollInterval = 2000 * time.Millisecond
)

// JackType classifies a jack report.
type JackType int

const (
	JackNone JackType = iota
	JackHeadphone
)

func (t JackType) String() string {
	if t == JackHeadphone {
		return "headphone"
	}
	return "none"
}

// Reporter receives plug and unplug events. It is called without the codec
// lock held and may query the codec.
type Reporter interface {
	Report(ctx context.Context, plugged bool, jack JackType)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, plugged bool, jack JackType)

func (f ReporterFunc) Report(ctx context.Context, plugged bool, jack JackType) { f(ctx, plugged, jack) }

// MultiReporter forwards each report to every non-nil reporter in order.
func MultiReporter(rs ...Reporter) Reporter {
	return ReporterFunc(func(ctx context.Context, plugged bool, jack JackType) {
		for _, r := range rs {
			if r != nil {
				r.Report(ctx, plugged, jack)
			}
		}
	})
}

// Timer is a pending scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d on its own goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// TimeScheduler schedules with time.AfterFunc.
type TimeScheduler struct{}

func (TimeScheduler) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// IRQ is a maskable interrupt source.
type IRQ interface {
	Enable()
	Disable()
}

// Detector is the headphone jack debounce and poll loop. An interrupt masks
// the source and schedules a poll. The poll reads the detect level; a low
// level reports unplug and unmasks, a high level reports plug once and keeps
// polling with the source still masked.
//
// The source is only unmasked by an unplugged reading, so a line stuck high
// leaves it masked for as long as the level stays up; the poll keeps running
// in that case.
type Detector struct {
	codec  *Codec
	irq    IRQ
	sched  Scheduler
	report Reporter

	mu      sync.Mutex
	masked  bool
	pending Timer
	stopped bool
}

// NewDetector binds a detector to c. irq may be nil when interrupts are
// injected through HandleInterrupt only.
func NewDetector(c *Codec, irq IRQ, sched Scheduler, report Reporter) *Detector {
	if sched == nil {
		sched = TimeScheduler{}
	}
	d := &Detector{codec: c, irq: irq, sched: sched, report: report}
	c.mu.Lock()
	c.detector = d
	c.mu.Unlock()
	return d
}

// Start arms the interrupt source.
func (d *Detector) Start() {
	d.mu.Lock()
	d.stopped = false
	d.masked = false
	d.mu.Unlock()
	if d.irq != nil {
		d.irq.Enable()
	}
}

// Stop cancels a pending poll and masks the source for good.
func (d *Detector) Stop() {
	d.mu.Lock()
	d.stopped = true
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
	d.mu.Unlock()
	if d.irq != nil {
		d.irq.Disable()
	}
}

// Masked reports whether the interrupt source is currently masked.
func (d *Detector) Masked() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.masked
}

// HandleInterrupt is the detect interrupt handler. Calls while the source is
// masked are dropped.
func (d *Detector) HandleInterrupt() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped || d.masked {
		return
	}
	d.masked = true
	if d.irq != nil {
		d.irq.Disable()
	}
	d.pending = d.sched.AfterFunc(DebounceDelay, d.poll)
	slog.Debug("jack: interrupt, debouncing", "delay", DebounceDelay)
}

func (d *Detector) schedule(after time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending = d.sched.AfterFunc(after, d.poll)
}

func (d *Detector) poll() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.pending = nil
	d.mu.Unlock()

	ctx := context.Background()
	plugged, changed, err := d.codec.senseJack(ctx)
	if err != nil {
		slog.Warn("jack: detect read failed, retrying", "err", err, "in", PollInterval)
		d.schedule(PollInterval)
		return
	}
	if plugged {
		d.schedule(PollInterval)
	}
	if changed && d.report != nil {
		jack := JackNone
		if plugged {
			jack = JackHeadphone
		}
		d.report.Report(ctx, plugged, jack)
	}
	if !plugged {
		d.mu.Lock()
		stopped := d.stopped
		d.masked = false
		d.mu.Unlock()
		if !stopped && d.irq != nil {
			d.irq.Enable()
		}
	}
}

// senseJack samples the detect level and updates the plug state and the
// routing. report is true when the caller must emit a jack report: on every
// unplugged reading and on the first plugged reading.
func (c *Codec) senseJack(ctx context.Context) (plugged, report bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, err := c.port.Read(ctx, RegDACDigCon14)
	if err != nil {
		return c.hpPlugged, false, fmt.Errorf("codec: read hp detect: %w", err)
	}

	target := LineOut
	if v == 0 {
		c.hpPlugged = false
		report = true
	} else {
		if !c.hpPlugged {
			c.hpPlugged = true
			report = true
		}
		target = HeadphoneOut
	}
	if report {
		slog.Info("jack: headphone state", "plugged", c.hpPlugged)
		if err := c.switchOutputLocked(ctx, target); err != nil {
			slog.Error("jack: output switch failed", "target", target, "err", err)
		}
	}
	return c.hpPlugged, report, nil
}
