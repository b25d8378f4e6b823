package sensor

import (
	"context"
	"sync"

	"github.com/dustinteng/idx-flowmeter/internal/domain"
)

// DefaultLitersPerPulse is the conversion factor for the stock flowmeter
// head: one magnet rotation moves 2.5 mL.
const DefaultLitersPerPulse = 0.0025

// PulseTotalizer converts a cumulative pulse count to liters. The count is
// monotonically non-decreasing; a count lower than the last one seen (an MCU
// reboot) is ignored so the total never runs backwards.
type PulseTotalizer struct {
	mu             sync.Mutex
	litersPerPulse float64
	pulses         uint64
	seen           bool
}

var _ domain.LiterSource = (*PulseTotalizer)(nil)

func NewPulseTotalizer(litersPerPulse float64) *PulseTotalizer {
	return &PulseTotalizer{litersPerPulse: litersPerPulse}
}

// SetPulses records the latest cumulative pulse count reported by the MCU.
func (p *PulseTotalizer) SetPulses(count uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.seen && count < p.pulses {
		return
	}
	p.pulses = count
	p.seen = true
}

// TotalLiters returns the accumulated volume. Before the first pulse report
// arrives it returns domain.ErrSensorUnavailable.
func (p *PulseTotalizer) TotalLiters(_ context.Context) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.seen {
		return 0, domain.ErrSensorUnavailable
	}
	return float64(p.pulses) * p.litersPerPulse, nil
}
