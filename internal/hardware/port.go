// Package hardware provides the hardware abstraction layer for the codec daemon.
// It defines the register Port consumed by the codec core and the buses,
// control lines and delay primitive that back it on real boards and in tests.
package hardware

import (
	"context"
	"time"
)

// Register is a byte offset into the codec's 32-bit register space.
type Register = uint32

// Bus is raw, uncached 32-bit register access to a codec instance.
type Bus interface {
	// ReadReg reads a single register.
	ReadReg(ctx context.Context, reg Register) (uint32, error)

	// WriteReg writes a single register.
	WriteReg(ctx context.Context, reg Register, val uint32) error

	// Close releases the underlying device.
	Close() error

	// IsReal returns true for a bus attached to real hardware, false for a mock.
	IsReal() bool
}

// Port is the register access port used by the codec core.
// All methods are safe for concurrent use; read-modify-write cycles issued
// through Update are serialised by the implementation.
type Port interface {
	// Read returns the current value of a register.
	Read(ctx context.Context, reg Register) (uint32, error)

	// Update replaces the bits selected by mask with the matching bits of val.
	Update(ctx context.Context, reg Register, mask, val uint32) error

	// Write replaces the whole register.
	Write(ctx context.Context, reg Register, val uint32) error
}

// Line is a single binary control output such as a headphone or speaker
// amplifier enable. On is the asserted state regardless of pin polarity.
type Line interface {
	Out(on bool) error
}

// Delayer is the blocking delay primitive used between sequence steps.
type Delayer interface {
	DelayMicroseconds(n int)
	DelayMilliseconds(n int)
}

// SleepDelayer blocks the calling goroutine with time.Sleep.
type SleepDelayer struct{}

func (SleepDelayer) DelayMicroseconds(n int) { time.Sleep(time.Duration(n) * time.Microsecond) }

func (SleepDelayer) DelayMilliseconds(n int) { time.Sleep(time.Duration(n) * time.Millisecond) }
