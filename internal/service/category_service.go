package service

import (
	"context"

	"yourday/internal/model"
	"yourday/internal/repository"
)

// CategorySummary is one row of the category side table with the owner's usage.
type CategorySummary struct {
	Category model.Category `json:"category"`
	Label    string         `json:"label"`
	Color    string         `json:"color"`
	Count    int64          `json:"count"`
}

// CategoryService provides helpers around categories.
type CategoryService struct {
	repo *repository.CategoryRepository
}

func NewCategoryService(repo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// Summary lists every category in display order, including unused ones.
func (s *CategoryService) Summary(ctx context.Context, ownerID string) ([]CategorySummary, error) {
	counts, err := s.repo.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	categories := model.Categories()
	out := make([]CategorySummary, 0, len(categories))
	for _, c := range categories {
		out = append(out, CategorySummary{
			Category: c,
			Label:    c.Label(),
			Color:    c.Color(),
			Count:    counts[c],
		})
	}
	return out, nil
}
