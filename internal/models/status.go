package models

// Status is the operator view of the codec power context.
type Status struct {
	Output       string `json:"output"`
	Activity     string `json:"activity"`
	DAC          string `json:"dac"`
	Group        int    `json:"group"`
	Group0LineIn bool   `json:"group0_linein"`
	ZeroCross    bool   `json:"zerocross"`
	HPPlugged    bool   `json:"hp_plugged"`
	Capturing    bool   `json:"capturing"`
	Muted        bool   `json:"muted"`
	ALC          bool   `json:"alc"`
	MicBias      int    `json:"micbias"`
	MicBiasMV    int    `json:"micbias_mv"`
	Attached     bool   `json:"attached"`
	Fault        string `json:"fault,omitempty"`
	Info         Info   `json:"info"`
}

// Info describes the running daemon.
type Info struct {
	Version string `json:"version"`
	Mock    bool   `json:"mock"`
	AGC     bool   `json:"agc"`
}

// JackEvent is published on every jack report.
type JackEvent struct {
	Plugged bool   `json:"plugged"`
	Jack    string `json:"jack"`
}
