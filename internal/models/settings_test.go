package models_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micro-nova/acodec-go/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestDefaultSettings(t *testing.T) {
	s := models.DefaultSettings()
	assert.Equal(t, "line", s.Output)
	assert.Equal(t, 0, s.Group)
	assert.False(t, s.Group0LineIn)
	assert.True(t, s.ZeroCross, "zerocross should default on")
	assert.Equal(t, 7, s.MicBias)
	assert.NoError(t, s.Validate())
}

func TestSettingsUpdateApply(t *testing.T) {
	base := models.DefaultSettings()
	u := models.SettingsUpdate{Output: ptr("hp"), Group: ptr(2), ZeroCross: ptr(false)}
	got := u.Apply(base)

	assert.Equal(t, "hp", got.Output)
	assert.Equal(t, 2, got.Group)
	assert.False(t, got.ZeroCross)
	assert.Equal(t, base.MicBias, got.MicBias, "untouched field changed")
	assert.Equal(t, base.Group0LineIn, got.Group0LineIn, "untouched field changed")
	assert.Equal(t, "line", base.Output, "apply mutated its input")
}

func TestSettingsUpdateEmpty(t *testing.T) {
	var u models.SettingsUpdate
	assert.True(t, u.Empty())
	require.NoError(t, json.Unmarshal([]byte(`{"group0_linein":false}`), &u))
	assert.False(t, u.Empty(), "explicit false should count as a change")
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name  string
		s     models.Settings
		field string
	}{
		{"group low", models.Settings{Group: -1}, "group"},
		{"group high", models.Settings{Group: 4}, "group"},
		{"micbias high", models.Settings{MicBias: 8}, "micbias"},
		{"micbias low", models.Settings{MicBias: -1}, "micbias"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ae *models.AppError
			require.ErrorAs(t, tt.s.Validate(), &ae)
			assert.Equal(t, 400, ae.Status)
			assert.Equal(t, tt.field, ae.Field)
		})
	}
}

func TestStatusJSON(t *testing.T) {
	b, err := json.Marshal(models.Status{Output: "both", MicBias: 7, MicBiasMV: 850})
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "both", m["output"])
	assert.Equal(t, float64(850), m["micbias_mv"])
	assert.NotContains(t, m, "fault", "empty fault should be omitted")
}
