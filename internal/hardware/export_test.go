package hardware

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// NewTestIRQ builds an interrupt source over a fake pin.
func NewTestIRQ(read func() gpio.Level, edges <-chan struct{}) *GPIOIRQ {
	return &GPIOIRQ{pin: fakeEdgePin{read: read, edges: edges}, name: "test"}
}

type fakeEdgePin struct {
	read  func() gpio.Level
	edges <-chan struct{}
}

func (p fakeEdgePin) Read() gpio.Level { return p.read() }

func (p fakeEdgePin) WaitForEdge(timeout time.Duration) bool {
	select {
	case <-p.edges:
		return true
	case <-time.After(timeout):
		return false
	}
}
