package scan

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/coachpo/taskbus/errs"
	"github.com/coachpo/taskbus/internal/bus/eventbus"
	"github.com/coachpo/taskbus/internal/observability"
)

const component = "scan"

// ErrSensorGlitch is returned by the simulated sensor on a transient failure.
var ErrSensorGlitch = errors.New("sensor glitch")

// Reading is one sensor sample.
type Reading struct {
	Distance          float32
	AtmosphereDensity float32
}

// Sensor reads data for a planet. Errors are retried unless wrapped with
// backoff.Permanent.
type Sensor func(ctx context.Context, planetID int) (Reading, error)

// Config tunes the simulated workload.
type Config struct {
	MinLatency    time.Duration
	MaxLatency    time.Duration
	SensorRetries uint
	RetryInterval time.Duration
	FailureRate   float64
}

// DefaultConfig mirrors a probe taking between half a second and 2.5s.
func DefaultConfig() Config {
	return Config{
		MinLatency:    500 * time.Millisecond,
		MaxLatency:    2500 * time.Millisecond,
		SensorRetries: 3,
		RetryInterval: 50 * time.Millisecond,
		FailureRate:   0.2,
	}
}

// Scanner handles PlanetaryScan events.
type Scanner struct {
	cfg     Config
	results *Results
	sensor  Sensor
	logger  observability.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithSensor replaces the simulated sensor.
func WithSensor(sensor Sensor) Option {
	return func(s *Scanner) {
		if sensor != nil {
			s.sensor = sensor
		}
	}
}

// WithLogger overrides the process logger.
func WithLogger(logger observability.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScanner builds a scanner that reports into results.
func NewScanner(cfg Config, results *Results, opts ...Option) *Scanner {
	if cfg.MaxLatency < cfg.MinLatency {
		cfg.MaxLatency = cfg.MinLatency
	}
	if results == nil {
		results = NewResults()
	}
	s := &Scanner{
		cfg:     cfg,
		results: results,
		logger:  observability.Log(),
	}
	s.sensor = s.simulatedSensor
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Results returns the collector the scanner reports into.
func (s *Scanner) Results() *Results { return s.results }

// Register subscribes the scanner on bus.
func (s *Scanner) Register(bus *eventbus.Bus) error {
	return eventbus.Subscribe(bus, s.Handle)
}

// Handle runs one probe: a simulated flight, then a retried sensor read.
func (s *Scanner) Handle(ctx context.Context, evt *PlanetaryScan) error {
	start := time.Now()
	if err := sleep(ctx, s.flightTime()); err != nil {
		return err
	}

	attempts := 0
	reading, err := backoff.Retry(ctx, func() (Reading, error) {
		attempts++
		return s.sensor(ctx, evt.PlanetID)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(s.cfg.RetryInterval)),
		backoff.WithMaxTries(s.cfg.SensorRetries+1),
	)
	evt.Attempts = attempts
	evt.CalculationTime = time.Since(start)
	if err != nil {
		s.results.RecordFailure()
		s.logger.Error("probe lost",
			observability.F("planet", evt.PlanetID),
			observability.F("probe", evt.ProbeID.String()),
			observability.F("attempts", attempts),
			observability.F("error", err))
		return errs.New(component, errs.CodeHandlerFailed,
			errs.WithMessage("sensor read failed"),
			errs.WithField("planet", strconv.Itoa(evt.PlanetID)),
			errs.WithCause(err))
	}

	evt.Distance = reading.Distance
	evt.AtmosphereDensity = reading.AtmosphereDensity
	s.results.Add(evt)
	s.logger.Debug("probe reported",
		observability.F("planet", evt.PlanetID),
		observability.F("distance_ly", evt.Distance),
		observability.F("latency", evt.CalculationTime.String()))
	return nil
}

func (s *Scanner) flightTime() time.Duration {
	spread := s.cfg.MaxLatency - s.cfg.MinLatency
	if spread <= 0 {
		return s.cfg.MinLatency
	}
	return s.cfg.MinLatency + rand.N(spread)
}

func (s *Scanner) simulatedSensor(context.Context, int) (Reading, error) {
	if s.cfg.FailureRate > 0 && rand.Float64() < s.cfg.FailureRate {
		return Reading{}, ErrSensorGlitch
	}
	return Reading{
		Distance:          0.1 + rand.Float32()*99.9,
		AtmosphereDensity: float32(0.5 + rand.NormFloat64()*0.15),
	}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
