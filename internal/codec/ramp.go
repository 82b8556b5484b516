package codec

import (
	"context"
	"fmt"
	"time"

	"github.com/micro-nova/acodec-go/internal/hardware"
)

// Field is a right-aligned bitfield inside a register.
type Field struct {
	Reg  hardware.Register
	Mask uint32
}

var (
	// CICGain is the DAC digital interpolation filter gain; 2 is loudest, 7 quietest.
	CICGain = Field{Reg: RegDACDigCon04, Mask: dacCICGainMask}

	chargeCurrent = Field{Reg: RegADCAnaCon(0, 10), Mask: adcChargeMask}
)

// rampSeq steps f from one value to another, one unit per write, with delay
// after each write. Both ends are written; from == to writes nothing.
func rampSeq(name string, f Field, from, to uint32, delay time.Duration) Sequence {
	s := Sequence{Name: name}
	if from == to {
		return s
	}
	v := from
	for {
		s.add(f.Reg, f.Mask, v, delay)
		if v == to {
			return s
		}
		if from > to {
			v--
		} else {
			v++
		}
	}
}

// Ramp moves a digital gain field from one value to another a unit at a
// time, sleeping stepDelay after every write.
func (c *Codec) Ramp(ctx context.Context, f Field, from, to uint32, stepDelay time.Duration) error {
	if from&^f.Mask != 0 || to&^f.Mask != 0 {
		return fmt.Errorf("%w: ramp %d..%d outside mask 0x%x", ErrInvalidArgument, from, to, f.Mask)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apply(ctx, rampSeq("ramp", f, from, to, stepDelay))
}

// OnMute handles the stream mute callback. Muting playback fades the CIC gain
// from loud to whisper and then drops both relays. Unmuting raises the relays
// for the current routing and fades back up. Capture mute is not handled by
// the codec.
func (c *Codec) OnMute(ctx context.Context, dir Direction, mute bool) error {
	if !dir.Valid() {
		return fmt.Errorf("%w: direction %d", ErrInvalidArgument, int(dir))
	}
	if dir != Playback {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if mute {
		if err := c.apply(ctx, rampSeq("mute", CICGain, dacCICGainLoud, dacCICGainMin, FadeStep)); err != nil {
			c.fault = err
			return err
		}
		c.headphoneCtl(false)
		c.speakerCtl(false)
		c.muted = true
		return nil
	}

	if c.output.hasLine() {
		c.speakerCtl(true)
	}
	if c.output.hasHP() {
		c.headphoneCtl(true)
	}
	if err := c.apply(ctx, rampSeq("unmute", CICGain, dacCICGainMin, dacCICGainLoud, FadeStep)); err != nil {
		c.fault = err
		return err
	}
	c.muted = false
	return nil
}
