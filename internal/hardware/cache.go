package hardware

import (
	"context"
	"fmt"
	"sync"
)

// CachedPort is a Port backed by a Bus with a flat write-through register cache.
// Volatile registers (status bits the codec changes on its own, such as the
// headphone detect level) always bypass the cache on read.
type CachedPort struct {
	mu       sync.Mutex
	bus      Bus
	cache    map[Register]uint32
	volatile map[Register]bool
	maxReg   Register
}

// NewCachedPort wraps bus. maxReg bounds the register space; offsets past it
// or not 32-bit aligned are rejected before touching the bus.
func NewCachedPort(bus Bus, maxReg Register, volatile ...Register) *CachedPort {
	p := &CachedPort{
		bus:      bus,
		cache:    make(map[Register]uint32),
		volatile: make(map[Register]bool, len(volatile)),
		maxReg:   maxReg,
	}
	for _, r := range volatile {
		p.volatile[r] = true
	}
	return p
}

func (p *CachedPort) check(reg Register) error {
	if reg%4 != 0 || reg > p.maxReg {
		return fmt.Errorf("regcache: invalid register 0x%03x", reg)
	}
	return nil
}

func (p *CachedPort) Read(ctx context.Context, reg Register) (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.readLocked(ctx, reg)
}

func (p *CachedPort) readLocked(ctx context.Context, reg Register) (uint32, error) {
	if err := p.check(reg); err != nil {
		return 0, err
	}
	if !p.volatile[reg] {
		if v, ok := p.cache[reg]; ok {
			return v, nil
		}
	}
	v, err := p.bus.ReadReg(ctx, reg)
	if err != nil {
		return 0, fmt.Errorf("regcache: read 0x%03x: %w", reg, err)
	}
	if !p.volatile[reg] {
		p.cache[reg] = v
	}
	return v, nil
}

func (p *CachedPort) Update(ctx context.Context, reg Register, mask, val uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	old, err := p.readLocked(ctx, reg)
	if err != nil {
		return err
	}
	return p.writeLocked(ctx, reg, old&^mask|val&mask)
}

func (p *CachedPort) Write(ctx context.Context, reg Register, val uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(reg); err != nil {
		return err
	}
	return p.writeLocked(ctx, reg, val)
}

func (p *CachedPort) writeLocked(ctx context.Context, reg Register, val uint32) error {
	if err := p.bus.WriteReg(ctx, reg, val); err != nil {
		// The hardware value is unknown now; force a re-read next time.
		delete(p.cache, reg)
		return fmt.Errorf("regcache: write 0x%03x: %w", reg, err)
	}
	if !p.volatile[reg] {
		p.cache[reg] = val
	}
	return nil
}

// Invalidate drops every cached value. Called after a codec reset, when the
// hardware has returned to its power-on defaults.
func (p *CachedPort) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache = make(map[Register]uint32)
}

// Cached returns the cached value of reg and whether one is held. For tests.
func (p *CachedPort) Cached(reg Register) (uint32, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.cache[reg]
	return v, ok
}
