package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	Export(ctx context.Context) (Snapshot, error)
	Import(ctx context.Context, s Snapshot) error
}

// Service exports and imports full-database snapshots as JSON.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// ExportJSON serialises the whole database.
func (s *Service) ExportJSON(ctx context.Context) ([]byte, error) {
	snap, err := s.repo.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: export: %w", err)
	}
	snap.Version = Version
	snap.ExportedAt = s.now().UTC()
	return json.MarshalIndent(snap, "", "  ")
}

// ImportJSON replaces the whole database with the snapshot. The version is
// checked before anything is touched.
func (s *Service) ImportJSON(ctx context.Context, data []byte) error {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("snapshot: decode: %w", err)
	}
	if snap.Version != Version {
		return fmt.Errorf("snapshot: unsupported version %d", snap.Version)
	}
	if err := s.repo.Import(ctx, snap); err != nil {
		return fmt.Errorf("snapshot: import: %w", err)
	}
	return nil
}
