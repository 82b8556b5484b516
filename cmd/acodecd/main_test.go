package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micro-nova/acodec-go/internal/hardware"
)

func TestListenPort(t *testing.T) {
	tests := []struct {
		addr string
		want int
	}{
		{":8080", 8080},
		{"127.0.0.1:9000", 9000},
		{":", 80},
		{"localhost", 80},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, listenPort(tt.addr), "listenPort(%q)", tt.addr)
	}
}

func TestOpenBus(t *testing.T) {
	b, err := openBus(true, "mmio", "0x0", "")
	require.NoError(t, err)
	assert.False(t, b.IsReal(), "mock bus reports real hardware")
	assert.IsType(t, &hardware.Mock{}, b)

	_, err = openBus(false, "spi", "0x0", "")
	assert.Error(t, err, "unknown bus kind accepted")
	_, err = openBus(false, "mmio", "not-a-number", "")
	assert.Error(t, err, "bad base address accepted")
}

func TestOpenLineEmptyIsNil(t *testing.T) {
	l, err := openLine("", false)
	require.NoError(t, err)
	assert.Nil(t, l)
}
