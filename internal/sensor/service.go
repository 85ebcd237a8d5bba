package sensor

import (
	"context"
	"time"
)

// Broadcaster delivers a newly stored reading to live subscribers.
// Delivery is best-effort; implementations must not block the caller.
type Broadcaster interface {
	BroadcastReading(reading Reading)
}

// Mirror receives a copy of each stored reading for external telemetry.
// Writes are fire-and-forget.
type Mirror interface {
	WriteReading(sensorID int64, temperatura float64, timestamp time.Time)
}

// Service is the ingest path: it persists a reading, then pushes the same
// payload to the live broadcast channel and, when configured, to the
// time-series mirror. Broadcast happens only after the write succeeded, so
// subscribers never see a reading that was not stored.
type Service struct {
	readings    Repository
	broadcaster Broadcaster
	mirror      Mirror // optional
}

// NewService creates an ingest service. mirror may be nil.
func NewService(readings Repository, broadcaster Broadcaster, mirror Mirror) *Service {
	return &Service{
		readings:    readings,
		broadcaster: broadcaster,
		mirror:      mirror,
	}
}

// Ingest stores the reading and broadcasts it. The returned reading carries
// the generated id and the effective timestamp.
func (s *Service) Ingest(ctx context.Context, reading Reading) (Reading, error) {
	if err := s.readings.Insert(ctx, &reading); err != nil {
		return Reading{}, err
	}

	s.broadcaster.BroadcastReading(reading)

	if s.mirror != nil {
		s.mirror.WriteReading(reading.SensorID, reading.Temperatura, reading.Timestamp)
	}

	return reading, nil
}

// ListAll returns every stored reading in insertion order.
func (s *Service) ListAll(ctx context.Context) ([]Reading, error) {
	return s.readings.ListAll(ctx)
}

// ListBetween parses the caller-supplied bounds and returns the readings in
// the inclusive range. A missing or malformed bound fails with
// ErrInvalidRange rather than silently returning a wrong result. A
// date-only end bound covers its whole day: fim=2026-08-15 includes
// readings up to 23:59:59 that day, not just the ones at midnight.
func (s *Service) ListBetween(ctx context.Context, start, end string) ([]Reading, error) {
	if start == "" || end == "" {
		return nil, ErrInvalidRange
	}

	startTime, err := ParseTimestamp(start)
	if err != nil {
		return nil, ErrInvalidRange
	}
	endTime, err := ParseTimestamp(end)
	if err != nil {
		return nil, ErrInvalidRange
	}
	if isDateOnly(end) {
		endTime = endTime.Add(24*time.Hour - time.Second)
	}

	return s.readings.ListBetween(ctx, startTime, endTime)
}

// ClearAll deletes every stored reading.
func (s *Service) ClearAll(ctx context.Context) error {
	return s.readings.DeleteAll(ctx)
}
