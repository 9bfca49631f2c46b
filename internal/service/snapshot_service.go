package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/lucas-remigio/graocerto.pt/internal/postgres"
	"github.com/lucas-remigio/graocerto.pt/internal/relay"
)

type HealthSource interface {
	Health() relay.Health
}

type SnapshotWriter interface {
	Insert(ctx context.Context, s postgres.Snapshot) error
}

// SnapshotService periodically stores the relay's aggregate health.
type SnapshotService struct {
	source     HealthSource
	writer     SnapshotWriter
	instanceID string
	interval   time.Duration
	now        func() time.Time
}

func NewSnapshotService(source HealthSource, writer SnapshotWriter, instanceID string, interval time.Duration) *SnapshotService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SnapshotService{
		source:     source,
		writer:     writer,
		instanceID: instanceID,
		interval:   interval,
		now:        time.Now,
	}
}

// Run takes a snapshot every interval until ctx is done. Write errors are logged, not returned.
func (s *SnapshotService) Run(ctx context.Context) error {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if err := s.SnapshotOnce(ctx); err != nil {
				slog.Warn("relay snapshot failed", "err", err)
			}
		}
	}
}

func (s *SnapshotService) SnapshotOnce(ctx context.Context) error {
	h := s.source.Health()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return s.writer.Insert(ctx, postgres.Snapshot{
		InstanceID:  s.instanceID,
		TakenAt:     s.now().UTC(),
		Connections: h.Connections,
		Rooms:       h.Rooms,
	})
}
