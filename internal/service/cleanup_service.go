package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chatrelay/backend/internal/repository"
)

// CleanupService enforces the data retention window. It is invoked by a
// separately scheduled job (see cmd/cleanup), not by a loop inside the
// request-serving process.
type CleanupService struct {
	repo          repository.Repository
	retentionDays int
}

func NewCleanupService(repo repository.Repository, retentionDays int) *CleanupService {
	return &CleanupService{repo: repo, retentionDays: retentionDays}
}

// Run deletes conversations (and their messages, via cascade) last updated
// before the retention cutoff. Returns how many conversations were removed.
func (s *CleanupService) Run(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)
	slog.Info("Starting data cleanup", "retention_days", s.retentionDays, "cutoff", cutoff.Format(time.RFC3339))

	removed, err := s.repo.DeleteConversationsOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("could not delete old conversations: %w", err)
	}
	slog.Info("Data cleanup completed", "conversations_removed", removed)
	return removed, nil
}
