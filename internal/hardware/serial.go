package hardware

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.bug.st/serial"
	"golang.org/x/time/rate"
)

// Serial bridge framing. Bench boards without SoC access put the codec
// behind a small MCU that forwards register traffic from a UART:
//
//	request:  op(1) reg(4, big endian) val(4, big endian)
//	response: status(1) [val(4) for reads]
const (
	bridgeOpRead  = 'R'
	bridgeOpWrite = 'W'
	bridgeACK     = 0x06
	bridgeNAK     = 0x15

	bridgeBaud         = 115200
	bridgeReadTimeout  = 100 * time.Millisecond
	maxBridgeOpsPerSec = 1000
)

// SerialBus is a register bus spoken over a UART to a bridge MCU.
type SerialBus struct {
	mu      sync.Mutex
	rw      io.ReadWriteCloser
	limiter *rate.Limiter
}

// OpenSerial opens the bridge on the given serial device.
func OpenSerial(dev string) (*SerialBus, error) {
	port, err := serial.Open(dev, &serial.Mode{
		BaudRate: bridgeBaud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", dev, err)
	}
	if err := port.SetReadTimeout(bridgeReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("serial: set timeout: %w", err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		slog.Debug("serial: could not flush input buffer", "dev", dev, "err", err)
	}
	slog.Info("serial: register bridge opened", "dev", dev, "baud", bridgeBaud)
	return NewSerialBus(port), nil
}

// NewSerialBus speaks the bridge protocol over an already open stream.
func NewSerialBus(rw io.ReadWriteCloser) *SerialBus {
	return &SerialBus{
		rw:      rw,
		limiter: rate.NewLimiter(rate.Limit(maxBridgeOpsPerSec), 16),
	}
}

func (b *SerialBus) transact(ctx context.Context, op byte, reg Register, val uint32, resp []byte) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	var req [9]byte
	req[0] = op
	binary.BigEndian.PutUint32(req[1:5], reg)
	binary.BigEndian.PutUint32(req[5:9], val)
	if _, err := b.rw.Write(req[:]); err != nil {
		return fmt.Errorf("serial: write %c 0x%03x: %w", op, reg, err)
	}
	if _, err := io.ReadFull(b.rw, resp); err != nil {
		return fmt.Errorf("serial: response %c 0x%03x: %w", op, reg, err)
	}
	switch resp[0] {
	case bridgeACK:
		return nil
	case bridgeNAK:
		return fmt.Errorf("serial: bridge rejected %c 0x%03x", op, reg)
	default:
		return fmt.Errorf("serial: bad status 0x%02x for %c 0x%03x", resp[0], op, reg)
	}
}

func (b *SerialBus) ReadReg(ctx context.Context, reg Register) (uint32, error) {
	var resp [5]byte
	if err := b.transact(ctx, bridgeOpRead, reg, 0, resp[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(resp[1:]), nil
}

func (b *SerialBus) WriteReg(ctx context.Context, reg Register, val uint32) error {
	var resp [1]byte
	return b.transact(ctx, bridgeOpWrite, reg, val, resp[:])
}

func (b *SerialBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rw.Close()
}

func (b *SerialBus) IsReal() bool { return true }
