package cart

import (
	"context"

	"go.uber.org/zap"
)

// Service opens per-session carts backed by a snapshot store.
type Service struct {
	snapshots SnapshotStore
	logger    *zap.Logger
}

func NewService(snapshots SnapshotStore, logger *zap.Logger) *Service {
	return &Service{snapshots: snapshots, logger: logger}
}

// Open rehydrates the cart of a visitor session.
func (s *Service) Open(ctx context.Context, sessionID string) *Store {
	return Open(ctx, sessionID, s.snapshots, s.logger)
}
