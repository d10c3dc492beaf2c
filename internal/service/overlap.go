package service

import (
	"context"
	"sort"
	"time"

	"yourday/internal/model"
)

// OverlapFinder looks up the earliest task of an owner intersecting [start, end).
type OverlapFinder interface {
	FindOverlapping(ctx context.Context, ownerID string, start, end time.Time, excludeID string) (*model.Task, error)
}

// DetectConflict checks the candidate interval against the owner's tasks only.
// excludeID is the task being updated, or empty on create. It returns a
// *model.ConflictError naming the first blocking task.
func DetectConflict(ctx context.Context, finder OverlapFinder, ownerID string, start, end time.Time, excludeID string) error {
	blocking, err := finder.FindOverlapping(ctx, ownerID, start, end, excludeID)
	if err != nil {
		return err
	}
	if blocking == nil {
		return nil
	}
	return model.NewConflictError(*blocking)
}

// OverlapPair is two tasks of one owner whose intervals intersect.
// First never starts after Second.
type OverlapPair struct {
	First  model.Task
	Second model.Task
}

// OverlappingPairs returns every intersecting pair among tasks of a single owner.
func OverlappingPairs(tasks []model.Task) []OverlapPair {
	sorted := make([]model.Task, len(tasks))
	copy(sorted, tasks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})

	var pairs []OverlapPair
	active := make([]model.Task, 0, len(sorted))
	for _, t := range sorted {
		kept := active[:0]
		for _, a := range active {
			if a.Overlaps(t.StartTime, t.EndTime) {
				pairs = append(pairs, OverlapPair{First: a, Second: t})
				kept = append(kept, a)
			}
		}
		active = append(kept, t)
	}
	return pairs
}
