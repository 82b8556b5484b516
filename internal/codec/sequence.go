package codec

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/micro-nova/acodec-go/internal/hardware"
)

// Step is one masked register update followed by a settling delay. A step
// with a zero mask only waits.
type Step struct {
	Reg   hardware.Register
	Mask  uint32
	Val   uint32
	Delay time.Duration
}

// Sequence is a named, ordered list of steps.
type Sequence struct {
	Name  string
	Steps []Step
}

func (s *Sequence) add(reg hardware.Register, mask, val uint32, delay time.Duration) {
	s.Steps = append(s.Steps, Step{Reg: reg, Mask: mask, Val: val, Delay: delay})
}

// set enables every bit of mask.
func (s *Sequence) set(reg hardware.Register, mask uint32, delay time.Duration) {
	s.add(reg, mask, mask, delay)
}

// clear disables every bit of mask.
func (s *Sequence) clear(reg hardware.Register, mask uint32, delay time.Duration) {
	s.add(reg, mask, 0, delay)
}

func (s *Sequence) wait(d time.Duration) {
	s.Steps = append(s.Steps, Step{Delay: d})
}

// eachGroup appends the same update for every ADC channel group. Only the
// last group carries the delay.
func (s *Sequence) eachGroup(reg func(grp int) hardware.Register, mask, val uint32, delay time.Duration) {
	for grp := 0; grp < NumGroups; grp++ {
		d := time.Duration(0)
		if grp == NumGroups-1 {
			d = delay
		}
		s.add(reg(grp), mask, val, d)
	}
}

func (s Sequence) concat(name string, others ...Sequence) Sequence {
	out := Sequence{Name: name, Steps: append([]Step(nil), s.Steps...)}
	for _, o := range others {
		out.Steps = append(out.Steps, o.Steps...)
	}
	return out
}

// SeqError reports a register fault in the middle of a sequence. Steps before
// Index have been applied; the rest have not.
type SeqError struct {
	Seq   string
	Index int
	Reg   hardware.Register
	Err   error
}

func (e *SeqError) Error() string {
	return fmt.Sprintf("codec: %s step %d (reg 0x%03x): %v", e.Seq, e.Index, e.Reg, e.Err)
}

func (e *SeqError) Unwrap() error { return e.Err }

// apply runs seq against the port. A failing step aborts the sequence in
// place; nothing is rolled back.
func (c *Codec) apply(ctx context.Context, seq Sequence) error {
	slog.Debug("codec: sequence start", "seq", seq.Name, "steps", len(seq.Steps))
	for i, st := range seq.Steps {
		if st.Mask == 0 {
			c.delay(st.Delay)
			continue
		}
		if err := c.port.Update(ctx, st.Reg, st.Mask, st.Val); err != nil {
			return &SeqError{Seq: seq.Name, Index: i, Reg: st.Reg, Err: err}
		}
		c.delay(st.Delay)
	}
	return nil
}

func (c *Codec) delay(d time.Duration) {
	switch {
	case d <= 0:
	case d%time.Millisecond == 0:
		c.delayer.DelayMilliseconds(int(d / time.Millisecond))
	default:
		c.delayer.DelayMicroseconds(int(d / time.Microsecond))
	}
}
