//go:build linux

package hardware

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

const memDevPath = "/dev/mem"

// MMIO is the real register bus for a codec integrated into the SoC. It maps
// the codec's register window out of /dev/mem and performs single 32-bit
// loads and stores on it.
type MMIO struct {
	mu   sync.Mutex
	base int64
	size int
	mem  []byte
	f    *os.File
}

// NewMMIO creates an unmapped MMIO bus for the register window at base.
// Open must be called before use.
func NewMMIO(base int64, size int) *MMIO {
	return &MMIO{base: base, size: size}
}

// Open maps the register window.
func (m *MMIO) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mem != nil {
		return nil
	}
	pageSize := int64(os.Getpagesize())
	if m.base%pageSize != 0 {
		return fmt.Errorf("mmio: base 0x%x not page aligned", m.base)
	}
	f, err := os.OpenFile(memDevPath, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return fmt.Errorf("mmio: open %s: %w", memDevPath, err)
	}
	mem, err := unix.Mmap(int(f.Fd()), m.base, m.size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return fmt.Errorf("mmio: mmap 0x%x+0x%x: %w", m.base, m.size, err)
	}
	m.f = f
	m.mem = mem
	slog.Info("mmio: codec register window mapped", "base", fmt.Sprintf("0x%08x", m.base), "size", m.size)
	return nil
}

func (m *MMIO) word(reg Register) (*uint32, error) {
	if m.mem == nil {
		return nil, fmt.Errorf("mmio: bus not opened")
	}
	if reg%4 != 0 || int(reg)+4 > len(m.mem) {
		return nil, fmt.Errorf("mmio: register 0x%03x outside window", reg)
	}
	return (*uint32)(unsafe.Pointer(&m.mem[reg])), nil
}

func (m *MMIO) ReadReg(ctx context.Context, reg Register) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.word(reg)
	if err != nil {
		return 0, err
	}
	return atomic.LoadUint32(p), nil
}

func (m *MMIO) WriteReg(ctx context.Context, reg Register, val uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.word(reg)
	if err != nil {
		return err
	}
	atomic.StoreUint32(p, val)
	return nil
}

// Close unmaps the register window.
func (m *MMIO) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mem == nil {
		return nil
	}
	err := unix.Munmap(m.mem)
	m.mem = nil
	if m.f != nil {
		m.f.Close()
		m.f = nil
	}
	return err
}

func (m *MMIO) IsReal() bool { return true }
