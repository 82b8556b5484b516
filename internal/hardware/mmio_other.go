//go:build !linux

package hardware

import (
	"context"
	"errors"
)

var errNoMMIO = errors.New("mmio: /dev/mem register access is only supported on linux")

// MMIO is unavailable off Linux; every call fails.
type MMIO struct{}

func NewMMIO(base int64, size int) *MMIO { return &MMIO{} }

func (m *MMIO) Open() error { return errNoMMIO }

func (m *MMIO) ReadReg(ctx context.Context, reg Register) (uint32, error) { return 0, errNoMMIO }

func (m *MMIO) WriteReg(ctx context.Context, reg Register, val uint32) error { return errNoMMIO }

func (m *MMIO) Close() error { return nil }

func (m *MMIO) IsReal() bool { return true }
