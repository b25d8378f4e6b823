package sensor

import (
	"context"

	"github.com/dustinteng/idx-flowmeter/internal/domain"
	"github.com/jonboulle/clockwork"
)

// SimulatedSource pretends to be a flowmeter with a constant flow rate.
// Useful for development without hardware attached.
type SimulatedSource struct {
	clock        clockwork.Clock
	startedAt    int64
	litersPerSec float64
}

var _ domain.LiterSource = (*SimulatedSource)(nil)

// NewSimulatedSource returns a source whose total grows by litersPerSec.
func NewSimulatedSource(litersPerSec float64, clock clockwork.Clock) *SimulatedSource {
	return &SimulatedSource{
		clock:        clock,
		startedAt:    clock.Now().UnixNano(),
		litersPerSec: litersPerSec,
	}
}

func (s *SimulatedSource) TotalLiters(_ context.Context) (float64, error) {
	elapsed := float64(s.clock.Now().UnixNano()-s.startedAt) / 1e9
	return elapsed * s.litersPerSec, nil
}
