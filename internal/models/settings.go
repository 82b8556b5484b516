package models

import "fmt"

// Settings is the persisted operator configuration.
type Settings struct {
	Output       string `json:"output"`
	Group        int    `json:"group"`
	Group0LineIn bool   `json:"group0_linein"`
	ZeroCross    bool   `json:"zerocross"`
	MicBias      int    `json:"micbias"`
}

// DefaultSettings matches the codec's power-on defaults.
func DefaultSettings() Settings {
	return Settings{
		Output:    "line",
		ZeroCross: true,
		MicBias:   7,
	}
}

// DeepCopy returns an independent copy.
func (s Settings) DeepCopy() Settings { return s }

// Validate checks ranges that do not need the codec to interpret.
func (s Settings) Validate() error {
	if s.Group < 0 || s.Group > 3 {
		return ErrInvalidField("group", fmt.Sprintf("group %d out of range 0..3", s.Group))
	}
	if s.MicBias < 0 || s.MicBias > 7 {
		return ErrInvalidField("micbias", fmt.Sprintf("micbias %d out of range 0..7", s.MicBias))
	}
	return nil
}

// SettingsUpdate is a partial update; nil fields are left unchanged.
type SettingsUpdate struct {
	Output       *string `json:"output,omitempty"`
	Group        *int    `json:"group,omitempty"`
	Group0LineIn *bool   `json:"group0_linein,omitempty"`
	ZeroCross    *bool   `json:"zerocross,omitempty"`
	MicBias      *int    `json:"micbias,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u SettingsUpdate) Empty() bool {
	return u.Output == nil && u.Group == nil && u.Group0LineIn == nil &&
		u.ZeroCross == nil && u.MicBias == nil
}

// Apply returns s with the non-nil fields of u applied.
func (u SettingsUpdate) Apply(s Settings) Settings {
	if u.Output != nil {
		s.Output = *u.Output
	}
	if u.Group != nil {
		s.Group = *u.Group
	}
	if u.Group0LineIn != nil {
		s.Group0LineIn = *u.Group0LineIn
	}
	if u.ZeroCross != nil {
		s.ZeroCross = *u.ZeroCross
	}
	if u.MicBias != nil {
		s.MicBias = *u.MicBias
	}
	return s
}
