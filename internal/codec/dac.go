package codec

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DACState is the power state of the playback path.
type DACState int

const (
	DACDisabled DACState = iota
	DACEnabling
	DACEnabled
	DACDisabling
)

func (s DACState) String() string {
	switch s {
	case DACDisabled:
		return "disabled"
	case DACEnabling:
		return "enabling"
	case DACEnabled:
		return "enabled"
	case DACDisabling:
		return "disabling"
	default:
		return "unknown"
	}
}

const (
	settle    = 20 * time.Microsecond
	settleRef = 50 * time.Microsecond

	// FadeStep is the delay between digital gain steps.
	FadeStep = 250 * time.Microsecond
)

func lineoutEnableSeq() Sequence {
	s := Sequence{Name: "lineout-enable"}
	s.set(RegDACAnaCon04, lineoutLEn|lineoutREn, settle)
	s.set(RegDACAnaCon04, lineoutLUnmute|lineoutRUnmute, settle)
	return s
}

func lineoutDisableSeq() Sequence {
	s := Sequence{Name: "lineout-disable"}
	s.clear(RegDACAnaCon04, lineoutLEn|lineoutREn, 0)
	s.clear(RegDACAnaCon04, lineoutLUnmute|lineoutRUnmute, 0)
	return s
}

func hpoutEnableSeq() Sequence {
	s := Sequence{Name: "hpout-enable"}
	s.add(RegDACAnaCon01, dacPopLMask|dacPopRMask, dacPopLWork|dacPopRWork, settle)
	s.set(RegDACAnaCon03, hpoutLEn|hpoutREn, settle)
	s.set(RegDACAnaCon03, hpoutLWork|hpoutRWork, settle)
	s.set(RegDACAnaCon03, hpoutLUnmute|hpoutRUnmute, settle)
	return s
}

func hpoutDisableSeq() Sequence {
	s := Sequence{Name: "hpout-disable"}
	s.add(RegDACAnaCon01, dacPopLMask|dacPopRMask, dacPopLInit|dacPopRInit, 0)
	s.clear(RegDACAnaCon03, hpoutLEn|hpoutREn, 0)
	s.clear(RegDACAnaCon03, hpoutLWork|hpoutRWork, 0)
	s.clear(RegDACAnaCon03, hpoutLUnmute|hpoutRUnmute, 0)
	return s
}

// dacEnableSeq is the 19 step analog power-up for the given routing. Steps
// for an output that is not routed are left out.
func dacEnableSeq(out Output) Sequence {
	s := Sequence{Name: "dac-enable"}
	s.set(RegDACAnaCon00, dacCurrentEn, settle)
	s.set(RegDACAnaCon01, dacBufRefL|dacBufRefR, settleRef)
	if out.hasHP() {
		s.add(RegDACAnaCon01, dacPopLMask|dacPopRMask, dacPopLWork|dacPopRWork, settle)
	}
	s.set(RegDACAnaCon13, hpmixLEn|hpmixREn, settleRef)
	s.set(RegDACAnaCon13, hpmixLWork|hpmixRWork, settle)
	if out.hasLine() {
		s.set(RegDACAnaCon04, lineoutLEn|lineoutREn, settle)
	}
	if out.hasHP() {
		s.set(RegDACAnaCon03, hpoutLEn|hpoutREn, settle)
		s.set(RegDACAnaCon03, hpoutLWork|hpoutRWork, settle)
	}
	s.set(RegDACAnaCon02, dacLRef|dacRRef, settle)
	s.set(RegDACAnaCon02, dacLClk|dacRClk, settle)
	s.set(RegDACAnaCon02, dacLEn|dacREn, settle)
	s.set(RegDACAnaCon02, dacLWork|dacRWork, settle)
	s.add(RegDACAnaCon12, hpmixLSelMask|hpmixRSelMask, hpmixLSelI2S|hpmixRSelI2S, settle)
	s.set(RegDACAnaCon13, hpmixLUnmute|hpmixRUnmute, settle)
	s.add(RegDACAnaCon12, hpmixLGainMask|hpmixRGainMask, hpmixLGainN6dB|hpmixRGainN6dB, settle)
	if out.hasHP() {
		s.set(RegDACAnaCon03, hpoutLUnmute|hpoutRUnmute, settle)
	}
	if out.hasLine() {
		s.set(RegDACAnaCon04, lineoutLUnmute|lineoutRUnmute, settle)
	}
	if out.hasHP() {
		s.add(RegDACAnaCon05, hpoutGainMask, HPOutGainFloor, 0)
		s.add(RegDACAnaCon06, hpoutGainMask, HPOutGainFloor, settle)
	}
	if out.hasLine() {
		s.add(RegDACAnaCon04, lineoutLGainMask|lineoutRGainMask, lineoutGainN6dB, settle)
	}
	return s
}

// dacDisableHead runs before the fade-out, dacDisableTail after it.
func dacDisableHead() Sequence {
	s := Sequence{Name: "dac-disable"}
	s.add(RegDACAnaCon04, lineoutLGainMask|lineoutRGainMask, lineoutGainN6dB, 0)
	return s
}

func dacDisableTail() Sequence {
	s := Sequence{Name: "dac-disable"}
	s.clear(RegDACAnaCon13, hpmixLUnmute|hpmixRUnmute, 0)
	s.add(RegDACAnaCon12, hpmixLSelMask|hpmixRSelMask, hpmixSelNone, 0)
	s.clear(RegDACAnaCon03, hpoutLUnmute|hpoutRUnmute, 0)
	s.clear(RegDACAnaCon02, dacLWork|dacRWork, 0)
	s.clear(RegDACAnaCon03, hpoutLEn|hpoutREn, 0)
	s.clear(RegDACAnaCon04, lineoutLUnmute|lineoutRUnmute, 0)
	s.clear(RegDACAnaCon04, lineoutLEn|lineoutREn, 0)
	s.clear(RegDACAnaCon13, hpmixLEn|hpmixREn, 0)
	s.clear(RegDACAnaCon02, dacLEn|dacREn, 0)
	s.clear(RegDACAnaCon02, dacLClk|dacRClk, 0)
	s.clear(RegDACAnaCon02, dacLRef|dacRRef, 0)
	s.add(RegDACAnaCon01, dacPopLMask|dacPopRMask, dacPopLInit|dacPopRInit, 0)
	s.clear(RegDACAnaCon01, dacBufRefL|dacBufRefR, 0)
	s.clear(RegDACAnaCon00, dacCurrentEn, 0)
	s.clear(RegDACAnaCon03, hpoutLWork|hpoutRWork, 0)
	s.clear(RegDACAnaCon13, hpmixLWork|hpmixRWork, 0)
	s.add(RegDACAnaCon12, hpmixLGainMask|hpmixRGainMask, hpmixLGainN6dB|hpmixRGainN6dB, 0)
	return s
}

func (c *Codec) dacEnable(ctx context.Context) error {
	c.dacState = DACEnabling
	if err := c.apply(ctx, dacEnableSeq(c.output)); err != nil {
		c.dacState = DACDisabled
		return err
	}
	c.dacState = DACEnabled
	return nil
}

func (c *Codec) dacDisable(ctx context.Context) error {
	c.dacState = DACDisabling
	err := c.apply(ctx, dacDisableHead())
	if err == nil {
		err = c.fadeOut(ctx)
	}
	if err == nil {
		err = c.apply(ctx, dacDisableTail())
	}
	c.dacState = DACDisabled
	return err
}

// fadeOut steps the headphone gain of both channels down to the floor in
// lock-step, starting from the values currently programmed.
func (c *Codec) fadeOut(ctx context.Context) error {
	l, err := c.port.Read(ctx, RegDACAnaCon05)
	if err != nil {
		return fmt.Errorf("codec: fade-out: read left gain: %w", err)
	}
	r, err := c.port.Read(ctx, RegDACAnaCon06)
	if err != nil {
		return fmt.Errorf("codec: fade-out: read right gain: %w", err)
	}
	l &= hpoutGainMask
	r &= hpoutGainMask
	if l != r {
		slog.Warn("codec: headphone gain mismatch", "left", l, "right", r)
	}
	return c.apply(ctx, fadeSeq(l, r))
}

// fadeSeq writes both gains, then lowers whichever is still above the floor,
// until both sit at the floor.
func fadeSeq(l, r uint32) Sequence {
	s := Sequence{Name: "fade-out"}
	for {
		s.add(RegDACAnaCon05, hpoutGainMask, l, 0)
		s.add(RegDACAnaCon06, hpoutGainMask, r, FadeStep)
		if l <= HPOutGainFloor && r <= HPOutGainFloor {
			return s
		}
		if l > HPOutGainFloor {
			l--
		}
		if r > HPOutGainFloor {
			r--
		}
	}
}

// DACDigitalReset pulses the DAC digital block through reset.
func (c *Codec) DACDigitalReset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apply(ctx, digitalResetSeq("dac-dig-reset", glbDACDigWork))
}

// ADCDigitalReset pulses the ADC digital block through reset.
func (c *Codec) ADCDigitalReset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apply(ctx, digitalResetSeq("adc-dig-reset", glbADCDigWork))
}

func digitalResetSeq(name string, bit uint32) Sequence {
	s := Sequence{Name: name}
	s.clear(RegGlbCon, bit, settleRef)
	s.set(RegGlbCon, bit, 0)
	return s
}
