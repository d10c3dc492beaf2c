package service

import (
	"context"

	"github.com/rs/zerolog"

	"yourday/internal/repository"
)

// OverlapFinding is an overlapping pair found in the store for one owner.
type OverlapFinding struct {
	OwnerID string
	OverlapPair
}

// AuditService sweeps the store for tasks that overlap despite the write-time
// check, e.g. written by another process or by an older deployment.
type AuditService struct {
	taskRepo *repository.TaskRepository
	log      zerolog.Logger
}

func NewAuditService(taskRepo *repository.TaskRepository, log zerolog.Logger) *AuditService {
	return &AuditService{taskRepo: taskRepo, log: log.With().Str("component", "audit").Logger()}
}

// Run checks every owner and logs each overlapping pair.
func (s *AuditService) Run(ctx context.Context) ([]OverlapFinding, error) {
	owners, err := s.taskRepo.ListOwners(ctx)
	if err != nil {
		return nil, err
	}

	var findings []OverlapFinding
	for _, owner := range owners {
		select {
		case <-ctx.Done():
			return findings, ctx.Err()
		default:
		}

		tasks, err := s.taskRepo.List(ctx, owner, repository.TaskFilter{})
		if err != nil {
			return findings, err
		}
		for _, pair := range OverlappingPairs(tasks) {
			s.log.Warn().
				Str("owner_id", owner).
				Str("first_id", pair.First.ID).
				Time("first_end", pair.First.EndTime).
				Str("second_id", pair.Second.ID).
				Time("second_start", pair.Second.StartTime).
				Msg("overlapping tasks in store")
			findings = append(findings, OverlapFinding{OwnerID: owner, OverlapPair: pair})
		}
	}

	s.log.Info().Int("owners", len(owners)).Int("overlaps", len(findings)).Msg("overlap audit finished")
	return findings, nil
}
