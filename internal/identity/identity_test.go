package identity_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micro-nova/acodec-go/internal/identity"
)

func TestGetVersion(t *testing.T) {
	tests := []struct {
		name string
		file string
		want string
	}{
		{"missing", "", identity.DefaultVersion},
		{"from file", `{"version":"1.2.3"}`, "1.2.3"},
		{"invalid json", "not json", identity.DefaultVersion},
		{"empty version", `{"version":""}`, identity.DefaultVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.file != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.json"), []byte(tt.file), 0644))
			}
			assert.Equal(t, tt.want, identity.GetVersion(dir))
		})
	}
}

func TestGetHostname(t *testing.T) {
	assert.NotEmpty(t, identity.GetHostname())
}
