package models

// OutputRequest selects the DAC routing target: "line", "hp" or "both".
type OutputRequest struct {
	Output string `json:"output"`
}

// MicBiasRequest sets the microphone bias level, 0..7.
type MicBiasRequest struct {
	Level *int `json:"level"`
}

// ALCRequest enables or disables the capture ALC.
type ALCRequest struct {
	Enable bool `json:"enable"`
}

// MuteRequest drives the digital mute of one stream direction.
type MuteRequest struct {
	Mute bool `json:"mute"`
}
