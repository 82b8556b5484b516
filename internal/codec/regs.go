package codec

import "github.com/micro-nova/acodec-go/internal/hardware"

// Register map of the RK3308 audio codec. Every register is 32 bits wide with
// the control bits in the low byte. ADC blocks repeat once per channel group.

// NumGroups is the number of ADC stereo channel groups.
const NumGroups = 4

const (
	RegGlbCon hardware.Register = 0x000

	dacDigBase hardware.Register = 0x300
	dacAnaBase hardware.Register = 0x440

	RegDACDigCon04 = dacDigBase + 0x10
	RegDACDigCon14 = dacDigBase + 0x38 // headphone detect level (volatile, read-only)

	RegDACAnaCon00 = dacAnaBase + 0x00
	RegDACAnaCon01 = dacAnaBase + 0x04
	RegDACAnaCon02 = dacAnaBase + 0x08
	RegDACAnaCon03 = dacAnaBase + 0x0c
	RegDACAnaCon04 = dacAnaBase + 0x10
	RegDACAnaCon05 = dacAnaBase + 0x14
	RegDACAnaCon06 = dacAnaBase + 0x18
	RegDACAnaCon12 = dacAnaBase + 0x30
	RegDACAnaCon13 = dacAnaBase + 0x34

	// MaxRegister is the last valid register offset.
	MaxRegister = RegDACAnaCon13
)

func adcDigBase(grp int) hardware.Register { return hardware.Register(grp&0x3) * 0xc0 }

func adcAnaBase(grp int) hardware.Register { return hardware.Register(grp&0x3)*0x40 + 0x340 }

// RegADCDigCon03 holds the per-group digital L/R channel mapping.
func RegADCDigCon03(grp int) hardware.Register { return adcDigBase(grp) + 0x10 }

// RegALCDigCon returns ALC digital register n for the left (right=false) or
// right ALC block of a group.
func RegALCDigCon(grp int, right bool, n int) hardware.Register {
	base := adcDigBase(grp) + 0x40
	if right {
		base = adcDigBase(grp) + 0x80
	}
	return base + hardware.Register(n)*4
}

// RegADCAnaCon returns analog ADC register n (0..11) of a group.
func RegADCAnaCon(grp, n int) hardware.Register {
	return adcAnaBase(grp) + hardware.Register(n)*4
}

// GLB_CON
const (
	glbADCDigWork = 1 << 0
	glbDACDigWork = 1 << 1
	glbSysWork    = 1 << 2
)

// DAC_DIG_CON04
const (
	dacCICGainMask = 0x7 // CIC interpolation filter gain; 0x2 loudest, 0x7 quietest
	dacCICGainLoud = 0x2
	dacCICGainMin  = 0x7
)

// DAC_ANA_CON00
const (
	dacCurrentEn = 1 << 0
	dacHPDetEn   = 1 << 1
)

// DAC_ANA_CON01: pop-sound control [1:0]/[5:4], reference buffer [2]/[6]
const (
	dacPopLMask = 0x3 << 0
	dacPopLInit = 0x1 << 0
	dacPopLWork = 0x2 << 0
	dacBufRefL  = 1 << 2
	dacPopRMask = 0x3 << 4
	dacPopRInit = 0x1 << 4
	dacPopRWork = 0x2 << 4
	dacBufRefR  = 1 << 6
)

// DAC_ANA_CON02: per side reference, clock, converter enable, converter work.
const (
	dacLRef  = 1 << 0
	dacLClk  = 1 << 1
	dacLEn   = 1 << 2
	dacLWork = 1 << 3
	dacRRef  = 1 << 4
	dacRClk  = 1 << 5
	dacREn   = 1 << 6
	dacRWork = 1 << 7
)

// DAC_ANA_CON03: headphone output stage.
const (
	hpoutLEn     = 1 << 0
	hpoutLWork   = 1 << 1
	hpoutLUnmute = 1 << 2
	hpoutREn     = 1 << 4
	hpoutRWork   = 1 << 5
	hpoutRUnmute = 1 << 6
)

// DAC_ANA_CON04: line output stage. Gain 0 is -6 dB.
const (
	lineoutLEn       = 1 << 0
	lineoutLUnmute   = 1 << 1
	lineoutLGainMask = 0x3 << 2
	lineoutREn       = 1 << 4
	lineoutRUnmute   = 1 << 5
	lineoutRGainMask = 0x3 << 6
	lineoutGainN6dB  = 0
)

// DAC_ANA_CON05 / CON06: headphone output gain, 1.5 dB per step from -39 dB.
const (
	hpoutGainMask  = 0x1f
	HPOutGainFloor = 0x00 // -39 dB
	HPOutGainMax   = 0x1e // +6 dB
)

// DAC_ANA_CON12: HPMIX gain [1:0]/[5:4], source select [3:2]/[7:6].
const (
	hpmixLGainMask = 0x3 << 0
	hpmixLSelMask  = 0x3 << 2
	hpmixRGainMask = 0x3 << 4
	hpmixRSelMask  = 0x3 << 6

	hpmixLGainN6dB = 0x1 << 0
	hpmixRGainN6dB = 0x1 << 4
	hpmixLSelI2S   = 0x1 << 2
	hpmixRSelI2S   = 0x1 << 6
	hpmixSelNone   = 0
)

// DAC_ANA_CON13: HPMIX enable, work, unmute.
const (
	hpmixLEn     = 1 << 0
	hpmixLWork   = 1 << 1
	hpmixLUnmute = 1 << 2
	hpmixREn     = 1 << 4
	hpmixRWork   = 1 << 5
	hpmixRUnmute = 1 << 6
)

// ADC_ANA_CON00: mic front end. CH1 in the low nibble, CH2 in the high nibble.
const (
	adcCh1BufRef    = 1 << 0
	adcCh1MicEn     = 1 << 1
	adcCh1MicWork   = 1 << 2
	adcCh1MicUnmute = 1 << 3
	adcCh2BufRef    = 1 << 4
	adcCh2MicEn     = 1 << 5
	adcCh2MicWork   = 1 << 6
	adcCh2MicUnmute = 1 << 7
)

// ADC_ANA_CON01: mic gain.
const (
	adcCh1MicGainMask = 0x3 << 0
	adcCh2MicGainMask = 0x3 << 4
	adcMicGain0dB     = 0
)

// ADC_ANA_CON02: zero-cross detect, ALC enable, ALC work.
const (
	adcCh1ZeroCross = 1 << 0
	adcCh1ALCEn     = 1 << 1
	adcCh1ALCWork   = 1 << 2
	adcCh2ZeroCross = 1 << 4
	adcCh2ALCEn     = 1 << 5
	adcCh2ALCWork   = 1 << 6
)

// ADC_ANA_CON03 / CON04: ALC (PGA) gain for CH1 / CH2.
const (
	adcALCGainMask = 0x1f
	adcALCGain0dB  = 0x0c
)

// ADC_ANA_CON05: converter clock, enable, work.
const (
	adcCh1ClkEn   = 1 << 0
	adcCh1ADCEn   = 1 << 1
	adcCh1ADCWork = 1 << 2
	adcCh2ClkEn   = 1 << 4
	adcCh2ADCEn   = 1 << 5
	adcCh2ADCWork = 1 << 6
)

// ADC_ANA_CON06
const adcCurrentEn = 1 << 0

// ADC_ANA_CON07: micbias level [2:0] (group 0 only), bias buffer [3],
// input select [5:4]/[7:6].
const (
	adcMicBiasLevelMask = 0x7
	adcMicBiasBufEn     = 1 << 3
	adcCh1InSelMask     = 0x3 << 4
	adcCh2InSelMask     = 0x3 << 6
	adcCh1InMic         = 0x1 << 4
	adcCh2InMic         = 0x1 << 6
	adcCh1InLineIn      = 0x2 << 4
	adcCh2InLineIn      = 0x2 << 6
)

// ADC_ANA_CON08 (group 0 only)
const adcMicBiasCurrentEn = 1 << 4

// ADC_ANA_CON10 (group 0 only): VCM charge current select [6:0], reference enable [7].
const (
	adcChargeMask   = 0x7f
	adcChargeMin    = 0x01
	adcChargeMax    = 0x7f
	adcChargeSteady = 0x7c
	adcRefEn        = 1 << 7
)

// ADC_ANA_CON11: ALC control of the PGA gain.
const (
	adcALCLConGain = 1 << 0
	adcALCRConGain = 1 << 1
)

// ADC_DIG_CON03: digital channel source, L in [3:2], R in [1:0].
const (
	adcRChMask        = 0x3 << 0
	adcLChMask        = 0x3 << 2
	adcRChNormalRight = 0x0 << 0
	adcRChNormalLeft  = 0x1 << 0
	adcLChNormalLeft  = 0x0 << 2
	adcLChNormalRight = 0x1 << 2
)

// ALC digital register indices and fields.
const (
	alcCon04 = 4 // approximation rate
	alcCon05 = 5 // max level, low byte
	alcCon06 = 6 // max level, high byte
	alcCon07 = 7 // min level, low byte
	alcCon08 = 8 // min level, high byte
	alcCon09 = 9 // function select

	alcApproxRateMask = 0x7
	alcApproxRate44k1 = 0x2
	alcLevelMask      = 0xff
	alcFuncSel        = 1 << 6
)
