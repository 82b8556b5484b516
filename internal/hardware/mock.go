package hardware

import (
	"context"
	"sync"
	"time"
)

// OpKind identifies a recorded register operation.
type OpKind int

const (
	OpRead OpKind = iota
	OpUpdate
	OpWrite
)

func (k OpKind) String() string {
	switch k {
	case OpRead:
		return "read"
	case OpUpdate:
		return "update"
	case OpWrite:
		return "write"
	default:
		return "unknown"
	}
}

// Op is one register operation recorded by Mock.
type Op struct {
	Kind OpKind
	Reg  Register
	Mask uint32
	Val  uint32 // value written (Update: the masked value passed in; Read: the value returned)
}

// Mock is a thread-safe in-memory register file that implements both Bus and
// Port. Every Port operation is appended to an op log so tests can assert the
// exact order of register traffic.
type Mock struct {
	mu         sync.Mutex
	regs       map[Register]uint32
	ops        []Op
	failWrite  bool
	failRead   bool
	writesLeft int // fail every write once this reaches zero; <0 disables
}

// NewMock creates a new mock with all registers reading zero.
func NewMock() *Mock {
	return &Mock{
		regs:       make(map[Register]uint32),
		writesLeft: -1,
	}
}

// SetFailWrite configures the mock to fail all write operations.
func (m *Mock) SetFailWrite(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrite = fail
}

// SetFailRead configures the mock to fail all read operations.
func (m *Mock) SetFailRead(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failRead = fail
}

// FailWritesAfter lets n more writes (Update or Write) succeed, then fails the rest.
func (m *Mock) FailWritesAfter(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writesLeft = n
}

func (m *Mock) writeAllowed() bool {
	if m.failWrite {
		return false
	}
	if m.writesLeft == 0 {
		return false
	}
	if m.writesLeft > 0 {
		m.writesLeft--
	}
	return true
}

func (m *Mock) Read(ctx context.Context, reg Register) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRead {
		return 0, ErrHardware("mock: read failure configured")
	}
	v := m.regs[reg]
	m.ops = append(m.ops, Op{Kind: OpRead, Reg: reg, Val: v})
	return v, nil
}

func (m *Mock) Update(ctx context.Context, reg Register, mask, val uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.writeAllowed() {
		return ErrHardware("mock: write failure configured")
	}
	m.regs[reg] = m.regs[reg]&^mask | val&mask
	m.ops = append(m.ops, Op{Kind: OpUpdate, Reg: reg, Mask: mask, Val: val & mask})
	return nil
}

func (m *Mock) Write(ctx context.Context, reg Register, val uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.writeAllowed() {
		return ErrHardware("mock: write failure configured")
	}
	m.regs[reg] = val
	m.ops = append(m.ops, Op{Kind: OpWrite, Reg: reg, Mask: 0xffffffff, Val: val})
	return nil
}

// ReadReg implements Bus. Bus traffic is not recorded in the op log.
func (m *Mock) ReadReg(ctx context.Context, reg Register) (uint32, error) {
	// Simulate bus timing
	time.Sleep(time.Microsecond)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRead {
		return 0, ErrHardware("mock: read failure configured")
	}
	return m.regs[reg], nil
}

// WriteReg implements Bus.
func (m *Mock) WriteReg(ctx context.Context, reg Register, val uint32) error {
	time.Sleep(time.Microsecond)
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.writeAllowed() {
		return ErrHardware("mock: write failure configured")
	}
	m.regs[reg] = val
	return nil
}

func (m *Mock) Close() error { return nil }

func (m *Mock) IsReal() bool { return false }

// Set stores a register value without recording an op, e.g. to simulate the
// codec raising a status bit.
func (m *Mock) Set(reg Register, val uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regs[reg] = val
}

// Get returns a register value for testing purposes.
func (m *Mock) Get(reg Register) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.regs[reg]
}

// Ops returns a copy of the op log.
func (m *Mock) Ops() []Op {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Op, len(m.ops))
	copy(out, m.ops)
	return out
}

// Writes returns the Update and Write ops from the log, in order.
func (m *Mock) Writes() []Op {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Op
	for _, op := range m.ops {
		if op.Kind != OpRead {
			out = append(out, op)
		}
	}
	return out
}

// ResetOps clears the op log.
func (m *Mock) ResetOps() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = nil
}

// MockLine is a control line that remembers every level driven onto it.
type MockLine struct {
	mu      sync.Mutex
	history []bool
}

func (l *MockLine) Out(on bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.history = append(l.history, on)
	return nil
}

// Level returns the last driven level (false if never driven).
func (l *MockLine) Level() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.history) == 0 {
		return false
	}
	return l.history[len(l.history)-1]
}

// History returns every level driven so far.
func (l *MockLine) History() []bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]bool, len(l.history))
	copy(out, l.history)
	return out
}

// RecordingDelayer records requested delays instead of sleeping.
type RecordingDelayer struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (d *RecordingDelayer) DelayMicroseconds(n int) { d.add(time.Duration(n) * time.Microsecond) }

func (d *RecordingDelayer) DelayMilliseconds(n int) { d.add(time.Duration(n) * time.Millisecond) }

func (d *RecordingDelayer) add(v time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delays = append(d.delays, v)
}

// Delays returns every recorded delay in order.
func (d *RecordingDelayer) Delays() []time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]time.Duration, len(d.delays))
	copy(out, d.delays)
	return out
}

// Total returns the sum of all recorded delays.
func (d *RecordingDelayer) Total() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	var t time.Duration
	for _, v := range d.delays {
		t += v
	}
	return t
}

// HardwareError is returned when a hardware operation fails.
type HardwareError struct {
	msg string
}

func (e HardwareError) Error() string { return e.msg }

// ErrHardware creates a new hardware error.
func ErrHardware(msg string) error { return HardwareError{msg: msg} }
