package codec

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micro-nova/acodec-go/internal/hardware"
)

func touches(s Sequence, reg hardware.Register, mask uint32) bool {
	for _, st := range s.Steps {
		if st.Reg == reg && st.Mask&mask != 0 {
			return true
		}
	}
	return false
}

func TestDACEnableGating(t *testing.T) {
	hpOnly := []uint32{hpoutLEn | hpoutREn, hpoutLWork | hpoutRWork, hpoutLUnmute | hpoutRUnmute}
	lineOnly := []uint32{lineoutLEn | lineoutREn, lineoutLUnmute | lineoutRUnmute, lineoutLGainMask}

	cases := []struct {
		out      Output
		steps    int
		line, hp bool
	}{
		{LineOut, 14, true, false},
		{HeadphoneOut, 17, false, true},
		{LineAndHeadphoneOut, 20, true, true},
	}
	for _, tc := range cases {
		s := dacEnableSeq(tc.out)
		assert.Len(t, s.Steps, tc.steps, tc.out.String())
		for _, m := range hpOnly {
			assert.Equal(t, tc.hp, touches(s, RegDACAnaCon03, m), "%s hp bits %#x", tc.out, m)
		}
		assert.Equal(t, tc.hp, touches(s, RegDACAnaCon01, dacPopLMask), "%s pop", tc.out)
		assert.Equal(t, tc.hp, touches(s, RegDACAnaCon05, hpoutGainMask), "%s hp gain", tc.out)
		for _, m := range lineOnly {
			assert.Equal(t, tc.line, touches(s, RegDACAnaCon04, m), "%s line bits %#x", tc.out, m)
		}
	}
}

func TestDACEnableOrder(t *testing.T) {
	s := dacEnableSeq(LineAndHeadphoneOut)
	idx := func(reg hardware.Register, mask uint32) int {
		for i, st := range s.Steps {
			if st.Reg == reg && st.Mask == mask {
				return i
			}
		}
		t.Fatalf("step %#x/%#x missing", reg, mask)
		return -1
	}
	current := idx(RegDACAnaCon00, dacCurrentEn)
	bufRef := idx(RegDACAnaCon01, dacBufRefL|dacBufRefR)
	hpmix := idx(RegDACAnaCon13, hpmixLEn|hpmixREn)
	hpEn := idx(RegDACAnaCon03, hpoutLEn|hpoutREn)
	hpWork := idx(RegDACAnaCon03, hpoutLWork|hpoutRWork)
	dacRef := idx(RegDACAnaCon02, dacLRef|dacRRef)
	dacWork := idx(RegDACAnaCon02, dacLWork|dacRWork)
	sel := idx(RegDACAnaCon12, hpmixLSelMask|hpmixRSelMask)

	assert.True(t, current < bufRef && bufRef < hpmix && hpmix < hpEn && hpEn < hpWork)
	assert.True(t, hpWork < dacRef && dacRef < dacWork && dacWork < sel)

	assert.Equal(t, settleRef, s.Steps[bufRef].Delay)
	assert.Equal(t, settleRef, s.Steps[hpmix].Delay)
	assert.Equal(t, settle, s.Steps[current].Delay)
}

func TestDACDisableMirrorsEnable(t *testing.T) {
	tail := dacDisableTail()
	require.Len(t, tail.Steps, 17)
	assert.Equal(t, RegDACAnaCon13, tail.Steps[0].Reg, "hpmix mute first")
	last := tail.Steps[len(tail.Steps)-1]
	assert.Equal(t, RegDACAnaCon12, last.Reg)
	assert.Equal(t, uint32(hpmixLGainN6dB|hpmixRGainN6dB), last.Val)
	for _, st := range tail.Steps {
		assert.Zero(t, st.Delay)
	}
}

func TestFadeSeqAlreadyAtFloor(t *testing.T) {
	s := fadeSeq(HPOutGainFloor, HPOutGainFloor)
	require.Len(t, s.Steps, 2)
	assert.Equal(t, FadeStep, s.Steps[1].Delay)
}

func TestRampSeqEnds(t *testing.T) {
	assert.Empty(t, rampSeq("r", CICGain, 3, 3, 0).Steps)
	s := rampSeq("r", chargeCurrent, adcChargeMin, adcChargeMax, chargeStep)
	require.Len(t, s.Steps, 0x7f)
	assert.Equal(t, uint32(1), s.Steps[0].Val)
	assert.Equal(t, uint32(0x7f), s.Steps[0x7e].Val)
}

func TestAttachPowerOn(t *testing.T) {
	m := hardware.NewMock()
	d := &hardware.RecordingDelayer{}
	c := New(m, d)
	require.NoError(t, c.Attach(context.Background()))

	charge := RegADCAnaCon(0, 10)
	var ramp int
	for _, op := range m.Writes() {
		if op.Reg == charge && op.Mask == adcChargeMask {
			ramp++
		}
	}
	// set to 1, ramp 1..0x7f, settle at 0x7c
	assert.Equal(t, 1+0x7f+1, ramp)
	assert.Equal(t, uint32(adcRefEn|adcChargeSteady), m.Get(charge))
	assert.Equal(t, uint32(MicBias085), m.Get(RegADCAnaCon(0, 7))&adcMicBiasLevelMask)
	assert.NotZero(t, m.Get(RegADCAnaCon(0, 8))&adcMicBiasCurrentEn)
	assert.NotZero(t, m.Get(RegADCAnaCon(1, 7))&adcMicBiasBufEn)
	assert.NotZero(t, m.Get(RegADCAnaCon(2, 7))&adcMicBiasBufEn)
	assert.NotZero(t, m.Get(RegDACAnaCon00)&dacHPDetEn)
	assert.Equal(t, uint32(dacPopLInit|dacPopRInit), m.Get(RegDACAnaCon01))

	delays := d.Delays()
	assert.Contains(t, delays, vcmSettle)
	assert.Contains(t, delays, micBiasSettle)
}

func TestDetachPowerOff(t *testing.T) {
	m := hardware.NewMock()
	c := New(m, &hardware.RecordingDelayer{})
	ctx := context.Background()
	require.NoError(t, c.Attach(ctx))
	require.NoError(t, c.Detach(ctx))

	assert.Zero(t, m.Get(RegADCAnaCon(0, 10))&adcRefEn)
	assert.Zero(t, m.Get(RegDACAnaCon00)&dacHPDetEn)
	assert.Zero(t, m.Get(RegADCAnaCon(0, 8))&adcMicBiasCurrentEn)
	assert.Zero(t, m.Get(RegADCAnaCon(1, 7))&adcMicBiasBufEn)
}

func TestCaptureOpenZeroCrossPerChannel(t *testing.T) {
	if agcFunction {
		t.Skip("agc builds enable the ALC function on every channel")
	}
	m := hardware.NewMock()
	c := New(m, &hardware.RecordingDelayer{})
	c.SetZeroCross(false)
	// Only the right ALC of group 1 runs its function.
	m.Set(RegALCDigCon(1, true, alcCon09), alcFuncSel)

	require.NoError(t, c.OnStreamOpen(context.Background(), Capture))
	for grp := 0; grp < NumGroups; grp++ {
		v := m.Get(RegADCAnaCon(grp, 2))
		assert.Zero(t, v&adcCh1ZeroCross, "group %d left", grp)
		assert.Equal(t, grp == 1, v&adcCh2ZeroCross != 0, "group %d right", grp)
	}
}

func TestCaptureOpenZeroCrossGlobal(t *testing.T) {
	m := hardware.NewMock()
	c := New(m, &hardware.RecordingDelayer{})
	require.NoError(t, c.OnStreamOpen(context.Background(), Capture))
	for grp := 0; grp < NumGroups; grp++ {
		v := m.Get(RegADCAnaCon(grp, 2))
		assert.Equal(t, uint32(adcCh1ZeroCross|adcCh2ZeroCross), v&(adcCh1ZeroCross|adcCh2ZeroCross))
		assert.Equal(t, uint32(adcCh1ALCWork|adcCh2ALCWork), v&(adcCh1ALCWork|adcCh2ALCWork), "work restored after reinit")
	}
}

func TestCaptureOpenReinitCycle(t *testing.T) {
	m := hardware.NewMock()
	d := &hardware.RecordingDelayer{}
	c := New(m, d)
	require.NoError(t, c.OnStreamOpen(context.Background(), Capture))

	assert.Equal(t, []time.Duration{reinitSettle}, d.Delays())

	// The last writes to CON05 of group 3 are: work on, work off, work on.
	vals := []uint32{}
	for _, op := range m.Writes() {
		if op.Reg == RegADCAnaCon(3, 5) && op.Mask == adcCh1ADCWork|adcCh2ADCWork {
			vals = append(vals, op.Val)
		}
	}
	work := uint32(adcCh1ADCWork | adcCh2ADCWork)
	assert.Equal(t, []uint32{work, 0, work}, vals)
}

func TestCaptureChannelMap(t *testing.T) {
	m := hardware.NewMock()
	c := New(m, &hardware.RecordingDelayer{})
	for grp := 0; grp < NumGroups; grp++ {
		m.Set(RegADCDigCon03(grp), 0xf)
	}
	c.SetGroup0LineIn(true)
	require.NoError(t, c.OnStreamOpen(context.Background(), Capture))

	assert.Equal(t, uint32(adcLChNormalRight|adcRChNormalLeft), m.Get(RegADCDigCon03(0)))
	for grp := 1; grp < NumGroups; grp++ {
		assert.Equal(t, uint32(0xf), m.Get(RegADCDigCon03(grp)), "group %d untouched", grp)
	}

	require.NoError(t, c.OnStreamClose(context.Background(), Capture))
	c.SetGroup0LineIn(false)
	require.NoError(t, c.OnStreamOpen(context.Background(), Capture))
	for grp := 0; grp < NumGroups; grp++ {
		assert.Zero(t, m.Get(RegADCDigCon03(grp)), "group %d normal", grp)
	}
}

func TestALCSequences(t *testing.T) {
	en := alcEnableSeq()
	want := 2*4*NumGroups + 2*NumGroups
	if agcFunction {
		want += 2*NumGroups + NumGroups
	}
	assert.Len(t, en.Steps, want)
	assert.Equal(t, agcFunction, touches(en, RegALCDigCon(0, false, alcCon09), alcFuncSel))

	dis := alcDisableSeq()
	for _, st := range dis.Steps {
		assert.Zero(t, st.Val, "disable only clears")
		assert.False(t, st.Reg == RegADCAnaCon(0, 3) || st.Reg == RegADCAnaCon(0, 4), "gain frozen")
	}
}

func TestCaptureCloseDisablesALCFirst(t *testing.T) {
	m := hardware.NewMock()
	c := New(m, &hardware.RecordingDelayer{})
	ctx := context.Background()
	require.NoError(t, c.OnStreamOpen(ctx, Capture))
	m.ResetOps()
	require.NoError(t, c.OnStreamClose(ctx, Capture))

	w := m.Writes()
	require.NotEmpty(t, w)
	assert.Equal(t, RegALCDigCon(0, false, alcCon09), w[0].Reg)
	assert.False(t, c.Status().ALC)
}

func TestDigitalResets(t *testing.T) {
	m := hardware.NewMock()
	d := &hardware.RecordingDelayer{}
	c := New(m, d)
	ctx := context.Background()
	m.Set(RegGlbCon, glbSysWork|glbDACDigWork|glbADCDigWork)

	require.NoError(t, c.DACDigitalReset(ctx))
	require.NoError(t, c.ADCDigitalReset(ctx))
	w := m.Writes()
	require.Len(t, w, 4)
	assert.Equal(t, []uint32{0, glbDACDigWork, 0, glbADCDigWork}, []uint32{w[0].Val, w[1].Val, w[2].Val, w[3].Val})
	assert.Equal(t, uint32(0x7), m.Get(RegGlbCon))
	assert.Equal(t, []time.Duration{settleRef, settleRef}, d.Delays())
}

func TestWaitStepSkipsPort(t *testing.T) {
	m := hardware.NewMock()
	d := &hardware.RecordingDelayer{}
	c := New(m, d)
	s := Sequence{Name: "w"}
	s.wait(3 * time.Millisecond)
	s.wait(75 * time.Microsecond)
	require.NoError(t, c.apply(context.Background(), s))
	assert.Empty(t, m.Ops())
	assert.Equal(t, []time.Duration{3 * time.Millisecond, 75 * time.Microsecond}, d.Delays())
}
