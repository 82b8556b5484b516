package hardware

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

var (
	hostOnce sync.Once
	hostErr  error
)

// initHost initializes the periph.io host drivers once per process.
func initHost() error {
	hostOnce.Do(func() {
		if _, err := host.Init(); err != nil {
			hostErr = fmt.Errorf("gpio: host init failed: %w", err)
		}
	})
	return hostErr
}

func openPin(name string) (gpio.PinIO, error) {
	if err := initHost(); err != nil {
		return nil, err
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio: failed to open %s", name)
	}
	return p, nil
}

// GPIOLine is a Line driven through a periph.io GPIO pin.
type GPIOLine struct {
	pin       gpio.PinOut
	name      string
	activeLow bool
}

// OpenLine claims the named pin (e.g. "GPIO17") as an output and drives it
// to the de-asserted level.
func OpenLine(name string, activeLow bool) (*GPIOLine, error) {
	p, err := openPin(name)
	if err != nil {
		return nil, err
	}
	l := &GPIOLine{pin: p, name: name, activeLow: activeLow}
	if err := l.Out(false); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *GPIOLine) Out(on bool) error {
	level := gpio.Level(on != l.activeLow)
	if err := l.pin.Out(level); err != nil {
		return fmt.Errorf("gpio: drive %s %v: %w", l.name, level, err)
	}
	return nil
}

// ResetLine drives a codec reset input.
type ResetLine struct {
	line Line
}

// NewResetLine wraps a Line whose asserted state holds the codec in reset.
func NewResetLine(l Line) *ResetLine { return &ResetLine{line: l} }

// Pulse asserts reset for hold, then releases it.
func (r *ResetLine) Pulse(hold time.Duration) error {
	if err := r.line.Out(true); err != nil {
		return fmt.Errorf("reset: assert: %w", err)
	}
	time.Sleep(hold)
	if err := r.line.Out(false); err != nil {
		return fmt.Errorf("reset: release: %w", err)
	}
	slog.Debug("reset: codec reset pulse complete", "hold", hold)
	return nil
}

// edgePin is the part of gpio.PinIn the interrupt source needs.
type edgePin interface {
	Read() gpio.Level
	WaitForEdge(timeout time.Duration) bool
}

// GPIOIRQ turns a headphone-detect GPIO into a level-sensitive interrupt
// source. While enabled, the handler fires on every rising edge and, to keep
// level semantics, immediately on Enable if the pin is already high.
type GPIOIRQ struct {
	pin     edgePin
	name    string
	enabled atomic.Bool
	handler atomic.Pointer[func()]
}

// OpenIRQ claims the named pin as a pulled-down input with rising edge detection.
func OpenIRQ(name string) (*GPIOIRQ, error) {
	p, err := openPin(name)
	if err != nil {
		return nil, err
	}
	if err := p.In(gpio.PullDown, gpio.RisingEdge); err != nil {
		return nil, fmt.Errorf("gpio: configure %s as irq: %w", name, err)
	}
	return &GPIOIRQ{pin: p, name: name}, nil
}

// SetHandler installs the interrupt handler. It must be called before Enable,
// or a level already asserted at that point is lost.
func (q *GPIOIRQ) SetHandler(h func()) {
	q.handler.Store(&h)
}

// Run dispatches edges to the handler until ctx is cancelled. The source
// starts disabled; call Enable to arm it.
func (q *GPIOIRQ) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if !q.pin.WaitForEdge(200 * time.Millisecond) {
			continue
		}
		if h := q.handler.Load(); h != nil && q.enabled.Load() && q.pin.Read() == gpio.High {
			(*h)()
		}
	}
}

func (q *GPIOIRQ) Enable() {
	q.enabled.Store(true)
	if h := q.handler.Load(); h != nil && q.pin.Read() == gpio.High {
		slog.Debug("gpio: irq level already asserted on enable", "pin", q.name)
		go (*h)()
	}
}

func (q *GPIOIRQ) Disable() { q.enabled.Store(false) }
