package codec

import "context"

// ALC envelope written by EnableALC. The values are vendor estimates.
const (
	alcMaxLo = 0x26
	alcMaxHi = 0x40
	alcMinLo = 0x36
	alcMinHi = 0x20
)

func alcEnableSeq() Sequence {
	s := Sequence{Name: "alc-enable"}
	for grp := 0; grp < NumGroups; grp++ {
		for _, lv := range []struct {
			n   int
			val uint32
		}{{alcCon05, alcMaxLo}, {alcCon06, alcMaxHi}, {alcCon07, alcMinLo}, {alcCon08, alcMinHi}} {
			s.add(RegALCDigCon(grp, false, lv.n), alcLevelMask, lv.val, 0)
			s.add(RegALCDigCon(grp, true, lv.n), alcLevelMask, lv.val, 0)
		}
	}
	for grp := 0; grp < NumGroups; grp++ {
		s.add(RegALCDigCon(grp, false, alcCon04), alcApproxRateMask, alcApproxRate44k1, 0)
		s.add(RegALCDigCon(grp, true, alcCon04), alcApproxRateMask, alcApproxRate44k1, 0)
	}
	if agcFunction {
		for grp := 0; grp < NumGroups; grp++ {
			s.set(RegALCDigCon(grp, false, alcCon09), alcFuncSel, 0)
			s.set(RegALCDigCon(grp, true, alcCon09), alcFuncSel, 0)
		}
		s.eachGroup(anaCon(11), adcALCLConGain|adcALCRConGain, adcALCLConGain|adcALCRConGain, 0)
	}
	return s
}

// alcDisableSeq hands PGA gain back from the ALC. Gains are not touched, so
// the last value the ALC settled on stays in effect.
func alcDisableSeq() Sequence {
	s := Sequence{Name: "alc-disable"}
	for grp := 0; grp < NumGroups; grp++ {
		s.clear(RegALCDigCon(grp, false, alcCon09), alcFuncSel, 0)
		s.clear(RegALCDigCon(grp, true, alcCon09), alcFuncSel, 0)
	}
	s.eachGroup(anaCon(11), adcALCLConGain|adcALCRConGain, 0, 0)
	return s
}

// AGCBuild reports whether this binary was built with the agc tag, which
// lets EnableALC hand the PGA gain to the ALC function.
func AGCBuild() bool { return agcFunction }

// EnableALC programs the ALC envelope on every group.
func (c *Codec) EnableALC(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.apply(ctx, alcEnableSeq()); err != nil {
		c.fault = err
		return err
	}
	c.alc = true
	return nil
}

// DisableALC releases ALC control of the PGA gain.
func (c *Codec) DisableALC(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.apply(ctx, alcDisableSeq()); err != nil {
		c.fault = err
		return err
	}
	c.alc = false
	return nil
}
