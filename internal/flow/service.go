// Package flow derives the resettable liters-flowed counter from the raw
// sensor accumulator and the persisted baseline.
package flow

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/dustinteng/idx-flowmeter/internal/domain"
	"github.com/dustinteng/idx-flowmeter/internal/metrics"
	"github.com/sony/gobreaker"
)

const (
	breakerOpenAfter   = 5
	breakerRecoveryDur = 30 * time.Second
)

// Service reads the flow sensor with a bounded timeout and a circuit
// breaker so a stalled sensor can never hang an HTTP handler. Failed reads
// fall back to the last-known total; the dashboard stays responsive no
// matter what the hardware does.
type Service struct {
	source      domain.LiterSource
	store       domain.SettingsStore
	breaker     *gobreaker.CircuitBreaker
	readTimeout time.Duration

	mu        sync.Mutex
	lastTotal float64
}

var _ domain.FlowService = (*Service)(nil)

func NewService(source domain.LiterSource, store domain.SettingsStore, readTimeout time.Duration) *Service {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "sensor",
		Timeout: breakerRecoveryDur,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerOpenAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Sensor circuit breaker state changed",
				"from", from.String(), "to", to.String())
			metrics.SensorBreakerState.Set(stateToFloat(to))
		},
	})

	return &Service{
		source:      source,
		store:       store,
		breaker:     breaker,
		readTimeout: readTimeout,
	}
}

// LitersFlowed returns total minus baseline, rounded to milliliters, never
// negative. A failed sensor read is answered from the last-known total.
func (s *Service) LitersFlowed(ctx context.Context) float64 {
	total := s.currentTotal(ctx)
	flowed := total - s.store.Baseline()
	if flowed < 0 {
		flowed = 0
	}
	return math.Round(flowed*1000) / 1000
}

// Reset captures the current total as the new baseline. Always succeeds:
// when the sensor does not answer, the last-known total is used.
func (s *Service) Reset(ctx context.Context) {
	total := s.currentTotal(ctx)
	s.store.SetBaseline(total)
	metrics.FlowCounterResets.Inc()
	slog.Info("Flow counter reset", "baseline", total)
}

func (s *Service) currentTotal(ctx context.Context) float64 {
	start := time.Now()
	v, err := s.breaker.Execute(func() (any, error) {
		return s.read(ctx)
	})
	metrics.SensorReadDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		status := "error"
		if errors.Is(err, domain.ErrSensorTimeout) {
			status = "timeout"
		}
		metrics.SensorReadsTotal.WithLabelValues(status).Inc()
		metrics.SensorFallbacks.Inc()
		slog.Warn("Sensor read failed, using last-known total", "error", err)

		s.mu.Lock()
		defer s.mu.Unlock()
		return s.lastTotal
	}

	total := v.(float64)
	metrics.SensorReadsTotal.WithLabelValues("ok").Inc()

	s.mu.Lock()
	s.lastTotal = total
	s.mu.Unlock()
	return total
}

// read bounds the sensor call with the configured timeout. The call runs in
// its own goroutine so a source that ignores the context cannot block us.
func (s *Service) read(ctx context.Context) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.readTimeout)
	defer cancel()

	type result struct {
		total float64
		err   error
	}
	ch := make(chan result, 1)

	go func() {
		total, err := s.source.TotalLiters(ctx)
		ch <- result{total, err}
	}()

	select {
	case r := <-ch:
		return r.total, r.err
	case <-ctx.Done():
		return 0, domain.ErrSensorTimeout
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
