package codec

import (
	"context"
	"fmt"
	"time"

	"github.com/micro-nova/acodec-go/internal/hardware"
)

// MicBias is the microphone bias voltage step written to ADC_ANA_CON07[2:0].
type MicBias int

const (
	MicBias050 MicBias = iota // 0.50 V
	MicBias055
	MicBias060
	MicBias065
	MicBias070
	MicBias075
	MicBias080
	MicBias085 // 0.85 V, vendor default
)

// Valid reports whether b is one of the eight defined steps.
func (b MicBias) Valid() bool { return b >= MicBias050 && b <= MicBias085 }

// Millivolts returns the bias voltage in mV.
func (b MicBias) Millivolts() int { return 500 + 50*int(b) }

const (
	reinitSettle  = 2 * time.Millisecond
	micBiasSettle = 20 * time.Millisecond
)

func anaCon(n int) func(int) hardware.Register {
	return func(grp int) hardware.Register { return RegADCAnaCon(grp, n) }
}

// adcEnableHead is the ADC power-up up to and including the 0 dB gains. The
// per channel zero-cross step and the reinit cycle follow it.
func adcEnableHead(group0LineIn bool) Sequence {
	s := Sequence{Name: "adc-enable"}
	for grp := 0; grp < NumGroups; grp++ {
		sel := uint32(adcCh1InMic | adcCh2InMic)
		if grp == 0 && group0LineIn {
			sel = adcCh1InLineIn | adcCh2InLineIn
		}
		s.add(RegADCAnaCon(grp, 7), adcCh1InSelMask|adcCh2InSelMask, sel, 0)
	}
	s.eachGroup(anaCon(0), adcCh1MicUnmute|adcCh2MicUnmute, adcCh1MicUnmute|adcCh2MicUnmute, 0)
	s.eachGroup(anaCon(6), adcCurrentEn, adcCurrentEn, 0)
	s.eachGroup(anaCon(0), adcCh1BufRef|adcCh2BufRef, adcCh1BufRef|adcCh2BufRef, 0)
	s.eachGroup(anaCon(0), adcCh1MicEn|adcCh2MicEn, adcCh1MicEn|adcCh2MicEn, 0)
	s.eachGroup(anaCon(2), adcCh1ALCEn|adcCh2ALCEn, adcCh1ALCEn|adcCh2ALCEn, 0)
	s.eachGroup(anaCon(5), adcCh1ClkEn|adcCh2ClkEn, adcCh1ClkEn|adcCh2ClkEn, 0)
	s.eachGroup(anaCon(5), adcCh1ADCEn|adcCh2ADCEn, adcCh1ADCEn|adcCh2ADCEn, 0)
	s.eachGroup(anaCon(5), adcCh1ADCWork|adcCh2ADCWork, adcCh1ADCWork|adcCh2ADCWork, 0)
	s.eachGroup(anaCon(2), adcCh1ALCWork|adcCh2ALCWork, adcCh1ALCWork|adcCh2ALCWork, 0)
	s.eachGroup(anaCon(0), adcCh1MicWork|adcCh2MicWork, adcCh1MicWork|adcCh2MicWork, 0)
	s.eachGroup(anaCon(1), adcCh1MicGainMask|adcCh2MicGainMask, adcMicGain0dB, 0)
	for grp := 0; grp < NumGroups; grp++ {
		s.add(RegADCAnaCon(grp, 3), adcALCGainMask, adcALCGain0dB, 0)
		s.add(RegADCAnaCon(grp, 4), adcALCGainMask, adcALCGain0dB, 0)
	}
	return s
}

// workBits lists the converter, ALC and mic work bits in reinit order.
var workBits = []struct {
	n    int
	bits uint32
}{
	{5, adcCh1ADCWork | adcCh2ADCWork},
	{2, adcCh1ALCWork | adcCh2ALCWork},
	{0, adcCh1MicWork | adcCh2MicWork},
}

// reinitSeq drops every work bit to init, waits for the converters to
// settle, and raises them again.
func reinitSeq() Sequence {
	s := Sequence{Name: "adc-reinit"}
	for i, w := range workBits {
		d := time.Duration(0)
		if i == len(workBits)-1 {
			d = reinitSettle
		}
		s.eachGroup(anaCon(w.n), w.bits, 0, d)
	}
	for _, w := range workBits {
		s.eachGroup(anaCon(w.n), w.bits, w.bits, 0)
	}
	return s
}

func adcDisableSeq() Sequence {
	s := Sequence{Name: "adc-disable"}
	s.eachGroup(anaCon(2), adcCh1ZeroCross|adcCh2ZeroCross, 0, 0)
	s.eachGroup(anaCon(5), adcCh1ADCEn|adcCh2ADCEn, 0, 0)
	s.eachGroup(anaCon(5), adcCh1ClkEn|adcCh2ClkEn, 0, 0)
	s.eachGroup(anaCon(2), adcCh1ALCEn|adcCh2ALCEn, 0, 0)
	s.eachGroup(anaCon(0), adcCh1MicEn|adcCh2MicEn, 0, 0)
	s.eachGroup(anaCon(0), adcCh1BufRef|adcCh2BufRef, 0, 0)
	s.eachGroup(anaCon(6), adcCurrentEn, 0, 0)
	for _, w := range workBits {
		s.eachGroup(anaCon(w.n), w.bits, 0, 0)
	}
	return s
}

// channelMapSeq programs the digital L/R mapping. Line-in on group 0 arrives
// swapped, so only that group is remapped in that case.
func channelMapSeq(group0LineIn bool) Sequence {
	s := Sequence{Name: "adc-channel-map"}
	if group0LineIn {
		s.add(RegADCDigCon03(0), adcLChMask, adcLChNormalRight, 0)
		s.add(RegADCDigCon03(0), adcRChMask, adcRChNormalLeft, 0)
		return s
	}
	for grp := 0; grp < NumGroups; grp++ {
		s.add(RegADCDigCon03(grp), adcLChMask, adcLChNormalLeft, 0)
		s.add(RegADCDigCon03(grp), adcRChMask, adcRChNormalRight, 0)
	}
	return s
}

func (c *Codec) adcEnable(ctx context.Context) error {
	if err := c.apply(ctx, adcEnableHead(c.group0LineIn)); err != nil {
		return err
	}
	if err := c.zeroCrossEnable(ctx); err != nil {
		return err
	}
	return c.apply(ctx, reinitSeq())
}

// zeroCrossEnable turns on zero-cross detection per sub-channel when the
// global flag is set or that channel's ALC function is active. Left and right
// are decided independently.
func (c *Codec) zeroCrossEnable(ctx context.Context) error {
	s := Sequence{Name: "adc-zerocross"}
	for grp := 0; grp < NumGroups; grp++ {
		for _, ch := range []struct {
			right bool
			bit   uint32
		}{{false, adcCh1ZeroCross}, {true, adcCh2ZeroCross}} {
			on := c.zeroCross
			if !on {
				v, err := c.port.Read(ctx, RegALCDigCon(grp, ch.right, alcCon09))
				if err != nil {
					return fmt.Errorf("codec: zero-cross: read alc group %d: %w", grp, err)
				}
				on = v&alcFuncSel != 0
			}
			if on {
				s.set(RegADCAnaCon(grp, 2), ch.bit, 0)
			}
		}
	}
	return c.apply(ctx, s)
}

func micBiasEnableSeq(level MicBias) Sequence {
	s := Sequence{Name: "micbias-enable"}
	s.add(RegADCAnaCon(0, 7), adcMicBiasLevelMask, uint32(level), micBiasSettle)
	s.set(RegADCAnaCon(0, 8), adcMicBiasCurrentEn, 0)
	s.set(RegADCAnaCon(1, 7), adcMicBiasBufEn, 0)
	s.set(RegADCAnaCon(2, 7), adcMicBiasBufEn, 0)
	return s
}

func micBiasDisableSeq() Sequence {
	s := Sequence{Name: "micbias-disable"}
	s.clear(RegADCAnaCon(1, 7), adcMicBiasBufEn, 0)
	s.clear(RegADCAnaCon(2, 7), adcMicBiasBufEn, 0)
	s.clear(RegADCAnaCon(0, 8), adcMicBiasCurrentEn, 0)
	return s
}

// SetMicBias validates and applies a new microphone bias level. On a
// detached codec the level is stored and applied by the next Attach.
func (c *Codec) SetMicBias(ctx context.Context, level MicBias) error {
	if !level.Valid() {
		return fmt.Errorf("%w: micbias %d", ErrInvalidArgument, int(level))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.attached {
		c.micBias = level
		return nil
	}
	if err := c.apply(ctx, micBiasEnableSeq(level)); err != nil {
		c.fault = err
		return err
	}
	c.micBias = level
	return nil
}
