package codec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/micro-nova/acodec-go/internal/hardware"
)

// ErrInvalidArgument is returned for out-of-range operator input. The codec
// state is left untouched when it is returned.
var ErrInvalidArgument = errors.New("codec: invalid argument")

// Output is a DAC output routing target. The numeric values match the
// encoding operators already use on the command line (0, 1, 11).
type Output int

const (
	LineOut             Output = 0
	HeadphoneOut        Output = 1
	LineAndHeadphoneOut Output = 11
)

// Valid reports whether o is one of the three routing targets.
func (o Output) Valid() bool {
	switch o {
	case LineOut, HeadphoneOut, LineAndHeadphoneOut:
		return true
	}
	return false
}

func (o Output) hasLine() bool { return o == LineOut || o == LineAndHeadphoneOut }

func (o Output) hasHP() bool { return o == HeadphoneOut || o == LineAndHeadphoneOut }

func (o Output) String() string {
	switch o {
	case LineOut:
		return "line"
	case HeadphoneOut:
		return "hp"
	case LineAndHeadphoneOut:
		return "both"
	default:
		return "Output(" + strconv.Itoa(int(o)) + ")"
	}
}

// ParseOutput accepts "line", "hp", "both" or the numeric forms 0, 1, 11.
func ParseOutput(s string) (Output, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "line", "lineout", "0":
		return LineOut, nil
	case "hp", "hpout", "headphone", "1":
		return HeadphoneOut, nil
	case "both", "11":
		return LineAndHeadphoneOut, nil
	}
	return 0, fmt.Errorf("%w: unknown output %q", ErrInvalidArgument, s)
}

func (o Output) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("%w: output %d", ErrInvalidArgument, int(o))
	}
	return []byte(o.String()), nil
}

func (o *Output) UnmarshalText(b []byte) error {
	v, err := ParseOutput(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// SwitchOutput changes the DAC routing target. While playback is idle only
// the stored target changes and the next DAC power-up picks it up. While
// playback is busy the relays and the output stages are reconfigured live.
func (c *Codec) SwitchOutput(ctx context.Context, out Output) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.switchOutputLocked(ctx, out)
}

func (c *Codec) switchOutputLocked(ctx context.Context, out Output) error {
	if !out.Valid() {
		slog.Error("codec: unknown output", "output", int(out))
		return fmt.Errorf("%w: output %d", ErrInvalidArgument, int(out))
	}
	if out == c.output {
		slog.Info("codec: output unchanged", "output", out)
		return nil
	}

	if c.activity == Busy {
		var seqs []Sequence
		switch out {
		case LineOut:
			c.headphoneCtl(false)
			c.speakerCtl(true)
			seqs = []Sequence{hpoutDisableSeq(), lineoutEnableSeq()}
		case HeadphoneOut:
			c.speakerCtl(false)
			c.headphoneCtl(true)
			seqs = []Sequence{lineoutDisableSeq(), hpoutEnableSeq()}
		case LineAndHeadphoneOut:
			c.speakerCtl(true)
			c.headphoneCtl(true)
			seqs = []Sequence{lineoutEnableSeq(), hpoutEnableSeq()}
		}
		for _, s := range seqs {
			if err := c.apply(ctx, s); err != nil {
				c.fault = err
				return err
			}
		}
	}

	c.output = out
	slog.Debug("codec: switched output", "output", out, "live", c.activity == Busy)
	return nil
}

func (c *Codec) headphoneCtl(on bool) { c.drive(c.hpCtl, "hp-ctl", on) }

func (c *Codec) speakerCtl(on bool) { c.drive(c.spkCtl, "spk-ctl", on) }

// drive sets an optional relay line. A missing line is a no-op and a failing
// one is logged; relay faults never abort a path transition.
func (c *Codec) drive(l hardware.Line, name string, on bool) {
	if l == nil {
		return
	}
	if err := l.Out(on); err != nil {
		slog.Warn("codec: control line failed", "line", name, "on", on, "err", err)
	}
}
