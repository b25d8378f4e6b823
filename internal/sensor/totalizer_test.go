package sensor

import (
	"context"
	"testing"
	"time"

	"github.com/dustinteng/idx-flowmeter/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPulseTotalizer_UnavailableBeforeFirstReport(t *testing.T) {
	p := NewPulseTotalizer(DefaultLitersPerPulse)

	_, err := p.TotalLiters(context.Background())
	assert.ErrorIs(t, err, domain.ErrSensorUnavailable)
}

func TestPulseTotalizer_ConvertsPulsesToLiters(t *testing.T) {
	p := NewPulseTotalizer(DefaultLitersPerPulse)
	p.SetPulses(4000)

	total, err := p.TotalLiters(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 10.0, total, 1e-9)
}

func TestPulseTotalizer_IgnoresBackwardsCount(t *testing.T) {
	p := NewPulseTotalizer(DefaultLitersPerPulse)
	p.SetPulses(1000)
	p.SetPulses(400) // MCU rebooted and restarted its counter

	total, err := p.TotalLiters(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 2.5, total, 1e-9, "total never runs backwards")
}

func TestPulseTotalizer_Monotonic(t *testing.T) {
	p := NewPulseTotalizer(DefaultLitersPerPulse)

	var prev float64
	for _, count := range []uint64{10, 10, 250, 251, 10000} {
		p.SetPulses(count)
		total, err := p.TotalLiters(context.Background())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, total, prev)
		prev = total
	}
}

func TestSimulatedSource_AdvancesWithClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	src := NewSimulatedSource(0.5, clock)

	total, err := src.TotalLiters(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.0, total, 1e-9)

	clock.Advance(10 * time.Second)
	total, err = src.TotalLiters(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 5.0, total, 1e-9)
}
