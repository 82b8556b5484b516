// Package codec sequences power and signal routing for the RK3308 audio
// codec. It owns the ordered enable/disable of the DAC and ADC analog blocks,
// the output path switch, the digital mute ramp and the headphone jack
// detect loop. Register access and delays come from the hardware package.
package codec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/micro-nova/acodec-go/internal/hardware"
)

// Activity is the playback activity state.
type Activity int

const (
	Idle Activity = iota
	Busy
)

func (a Activity) String() string {
	if a == Busy {
		return "busy"
	}
	return "idle"
}

// Direction identifies a stream on the digital audio interface.
type Direction int

const (
	Playback Direction = iota
	Capture
)

func (d Direction) Valid() bool { return d == Playback || d == Capture }

func (d Direction) String() string {
	switch d {
	case Playback:
		return "playback"
	case Capture:
		return "capture"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection accepts "playback" or "capture".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "playback":
		return Playback, nil
	case "capture":
		return Capture, nil
	}
	return 0, fmt.Errorf("%w: unknown stream direction %q", ErrInvalidArgument, s)
}

// Resetter pulses the codec's hardware reset input.
type Resetter interface {
	Pulse(hold time.Duration) error
}

// Option configures a Codec.
type Option func(*Codec)

// WithRelays sets the headphone and speaker enable lines. Either may be nil.
func WithRelays(hp, spk hardware.Line) Option {
	return func(c *Codec) {
		c.hpCtl = hp
		c.spkCtl = spk
	}
}

// WithReset sets the hardware reset line pulsed on Attach and Recover.
func WithReset(r Resetter) Option {
	return func(c *Codec) { c.reset = r }
}

// WithMicBias sets the bias level applied on Attach.
func WithMicBias(b MicBias) Option {
	return func(c *Codec) { c.micBias = b }
}

// Codec is the power context of one codec instance. All exported methods are
// safe for concurrent use; each one holds the codec lock for its whole
// register sequence.
type Codec struct {
	mu      sync.Mutex
	port    hardware.Port
	delayer hardware.Delayer
	hpCtl   hardware.Line
	spkCtl  hardware.Line
	reset   Resetter

	output       Output
	activity     Activity
	dacState     DACState
	curGroup     int
	group0LineIn bool
	zeroCross    bool
	hpPlugged    bool
	capturing    bool
	muted        bool
	alc          bool
	attached     bool
	micBias      MicBias
	fault        error

	detector *Detector
}

// New returns a detached codec in the default state: line out, idle,
// zero-cross on, group 0 on microphone, 0.85 V micbias.
func New(port hardware.Port, delayer hardware.Delayer, opts ...Option) *Codec {
	c := &Codec{
		port:      port,
		delayer:   delayer,
		output:    LineOut,
		activity:  Idle,
		zeroCross: true,
		micBias:   MicBias085,
	}
	for _, o := range opts {
		o(c)
	}
	if c.delayer == nil {
		c.delayer = hardware.SleepDelayer{}
	}
	return c
}

const (
	resetHold   = 2 * time.Millisecond
	resetSettle = 250 * time.Microsecond
	chargeStep  = 50 * time.Microsecond
	vcmSettle   = 20 * time.Millisecond
)

func resetSeq() Sequence {
	s := Sequence{Name: "reset"}
	s.add(RegGlbCon, 0xffffffff, 0, resetSettle)
	s.add(RegGlbCon, 0xffffffff, glbSysWork|glbDACDigWork|glbADCDigWork, 0)
	return s
}

func powerOnSeq() Sequence {
	s := Sequence{Name: "power-on"}
	s.add(RegDACAnaCon01, dacPopLMask, dacPopLInit, 0)
	s.add(RegDACAnaCon01, dacPopRMask, dacPopRInit, 0)
	s.add(chargeCurrent.Reg, chargeCurrent.Mask, adcChargeMin, 0)
	s.set(RegADCAnaCon(0, 10), adcRefEn, 0)
	tail := Sequence{}
	tail.wait(vcmSettle)
	tail.add(chargeCurrent.Reg, chargeCurrent.Mask, adcChargeSteady, 0)
	return s.concat("power-on", rampSeq("", chargeCurrent, adcChargeMin, adcChargeMax, chargeStep), tail)
}

func powerOffSeq() Sequence {
	s := Sequence{Name: "power-off"}
	s.add(chargeCurrent.Reg, chargeCurrent.Mask, adcChargeMin, 0)
	s.clear(RegADCAnaCon(0, 10), adcRefEn, 0)
	tail := Sequence{}
	tail.wait(vcmSettle)
	return s.concat("power-off", rampSeq("", chargeCurrent, adcChargeMin, adcChargeMax, chargeStep), tail)
}

func headsetDetectSeq(on bool) Sequence {
	s := Sequence{Name: "hpdet"}
	if on {
		s.set(RegDACAnaCon00, dacHPDetEn, 0)
	} else {
		s.clear(RegDACAnaCon00, dacHPDetEn, 0)
	}
	return s
}

// Attach resets and powers the codec, biases the microphones, clears both
// paths and arms headset detection. Playback starts idle with both relays off.
func (c *Codec) Attach(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.activity = Idle
	c.capturing = false
	c.headphoneCtl(false)
	c.speakerCtl(false)
	if err := c.initLocked(ctx); err != nil {
		c.fault = err
		return fmt.Errorf("codec: attach: %w", err)
	}
	c.attached = true
	slog.Info("codec: attached", "output", c.output, "micbias_mv", c.micBias.Millivolts())
	return nil
}

func (c *Codec) initLocked(ctx context.Context) error {
	if err := c.resetLocked(ctx); err != nil {
		return err
	}
	if err := c.apply(ctx, powerOnSeq()); err != nil {
		return err
	}
	if err := c.apply(ctx, micBiasEnableSeq(c.micBias)); err != nil {
		return err
	}
	// Clear both paths so they start from a known state.
	if err := c.dacDisable(ctx); err != nil {
		return err
	}
	if err := c.closeCapture(ctx); err != nil {
		return err
	}
	return c.apply(ctx, headsetDetectSeq(true))
}

func (c *Codec) resetLocked(ctx context.Context) error {
	if c.reset != nil {
		if err := c.reset.Pulse(resetHold); err != nil {
			return fmt.Errorf("codec: reset line: %w", err)
		}
	}
	if inv, ok := c.port.(interface{ Invalidate() }); ok {
		inv.Invalidate()
	}
	return c.apply(ctx, resetSeq())
}

// Detach stops jack detection, closes any open stream, drops the relays and
// powers the analog section down. It keeps going after a register fault and
// returns every error it saw.
func (c *Codec) Detach(ctx context.Context) error {
	c.mu.Lock()
	d := c.detector
	c.mu.Unlock()
	if d != nil {
		d.Stop()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.activity == Busy {
		c.activity = Idle
		errs = append(errs, c.dacDisable(ctx))
	}
	if c.capturing {
		c.capturing = false
		errs = append(errs, c.closeCapture(ctx))
	}
	c.headphoneCtl(false)
	c.speakerCtl(false)
	errs = append(errs,
		c.apply(ctx, headsetDetectSeq(false)),
		c.apply(ctx, powerOffSeq()),
		c.apply(ctx, micBiasDisableSeq()),
	)
	c.attached = false
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("codec: detach: %w", err)
	}
	slog.Info("codec: detached")
	return nil
}

// Recover brings hardware back in line with the tracked state after a
// register fault: full reset and power-up, then the playback and capture
// paths that were active are enabled again.
func (c *Codec) Recover(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	wasBusy := c.activity == Busy
	wasCapturing := c.capturing
	slog.Warn("codec: recovering", "busy", wasBusy, "capturing", wasCapturing, "fault", c.fault)

	c.activity = Idle
	c.capturing = false
	if err := c.initLocked(ctx); err != nil {
		c.fault = err
		return fmt.Errorf("codec: recover: %w", err)
	}
	c.attached = true
	if wasBusy {
		if err := c.dacEnable(ctx); err != nil {
			c.fault = err
			return fmt.Errorf("codec: recover playback: %w", err)
		}
		c.activity = Busy
		c.speakerCtl(c.output.hasLine() && !c.muted)
		c.headphoneCtl(c.output.hasHP() && !c.muted)
	}
	if wasCapturing {
		if err := c.openCapture(ctx); err != nil {
			c.fault = err
			return fmt.Errorf("codec: recover capture: %w", err)
		}
		c.capturing = true
	}
	c.fault = nil
	return nil
}

// OnStreamOpen powers up the path for a stream that is about to start.
// Opening playback moves the activity state to busy.
func (c *Codec) OnStreamOpen(ctx context.Context, dir Direction) error {
	if !dir.Valid() {
		return fmt.Errorf("%w: direction %d", ErrInvalidArgument, int(dir))
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	switch dir {
	case Playback:
		if c.activity == Busy {
			slog.Debug("codec: playback already open")
			return nil
		}
		if err := c.dacEnable(ctx); err != nil {
			c.fault = err
			return err
		}
		c.activity = Busy
	case Capture:
		if c.capturing {
			slog.Debug("codec: capture already open")
			return nil
		}
		if err := c.openCapture(ctx); err != nil {
			c.fault = err
			return err
		}
		c.capturing = true
	}
	return nil
}

// OnStreamClose powers down the path of a stream that has stopped. Closing
// playback moves the activity state to idle before the DAC is disabled.
func (c *Codec) OnStreamClose(ctx context.Context, dir Direction) error {
	if !dir.Valid() {
		return fmt.Errorf("%w: direction %d", ErrInvalidArgument, int(dir))
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	switch dir {
	case Playback:
		c.activity = Idle
		err = c.dacDisable(ctx)
	case Capture:
		c.capturing = false
		err = c.closeCapture(ctx)
	}
	if err != nil {
		c.fault = err
	}
	return err
}

func (c *Codec) openCapture(ctx context.Context) error {
	if err := c.apply(ctx, alcEnableSeq()); err != nil {
		return err
	}
	c.alc = true
	if err := c.adcEnable(ctx); err != nil {
		return err
	}
	return c.apply(ctx, channelMapSeq(c.group0LineIn))
}

func (c *Codec) closeCapture(ctx context.Context) error {
	if err := c.apply(ctx, alcDisableSeq()); err != nil {
		return err
	}
	c.alc = false
	return c.apply(ctx, adcDisableSeq())
}

// Output returns the current DAC routing target.
func (c *Codec) Output() Output {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.output
}

// Activity returns the playback activity state.
func (c *Codec) Activity() Activity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activity
}

// Group returns the selected ADC channel group.
func (c *Codec) Group() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.curGroup
}

// SetGroup selects the ADC channel group, 0..3.
func (c *Codec) SetGroup(grp int) error {
	if grp < 0 || grp >= NumGroups {
		return fmt.Errorf("%w: channel group %d", ErrInvalidArgument, grp)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.curGroup = grp
	return nil
}

// Group0LineIn reports whether ADC group 0 takes line-in instead of the mic.
func (c *Codec) Group0LineIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.group0LineIn
}

// SetGroup0LineIn selects the group 0 input. It takes effect on the next
// capture open.
func (c *Codec) SetGroup0LineIn(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.group0LineIn = on
}

// ZeroCross reports whether ADC zero-cross detection is forced on.
func (c *Codec) ZeroCross() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zeroCross
}

// SetZeroCross sets the zero-cross flag used by the next capture open.
func (c *Codec) SetZeroCross(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zeroCross = on
}

// HPPlugged returns the last observed headphone plug state.
func (c *Codec) HPPlugged() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hpPlugged
}

// MicBias returns the configured microphone bias level.
func (c *Codec) MicBias() MicBias {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.micBias
}

// Fault returns the last register fault, cleared by a successful Recover.
func (c *Codec) Fault() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fault
}

// Status is a point-in-time copy of the power context.
type Status struct {
	Output       Output
	Activity     Activity
	DAC          DACState
	Group        int
	Group0LineIn bool
	ZeroCross    bool
	HPPlugged    bool
	Capturing    bool
	Muted        bool
	ALC          bool
	MicBias      MicBias
	Attached     bool
	Fault        error
}

// Status returns a snapshot of the power context.
func (c *Codec) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Output:       c.output,
		Activity:     c.activity,
		DAC:          c.dacState,
		Group:        c.curGroup,
		Group0LineIn: c.group0LineIn,
		ZeroCross:    c.zeroCross,
		HPPlugged:    c.hpPlugged,
		Capturing:    c.capturing,
		Muted:        c.muted,
		ALC:          c.alc,
		MicBias:      c.micBias,
		Attached:     c.attached,
		Fault:        c.fault,
	}
}
