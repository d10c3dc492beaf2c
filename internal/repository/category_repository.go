package repository

import (
	"context"

	"gorm.io/gorm"

	"yourday/internal/model"
)

// CategoryRepository aggregates tasks by category.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

type categoryCount struct {
	Category model.Category
	Total    int64
}

// CountByOwner returns how many tasks the owner has per category. Categories
// without tasks are absent from the map.
func (r *CategoryRepository) CountByOwner(ctx context.Context, ownerID string) (map[model.Category]int64, error) {
	var rows []categoryCount
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Select("category, count(*) AS total").
		Where("owner_id = ?", ownerID).
		Group("category").
		Scan(&rows).Error; err != nil {
		return nil, &model.PersistenceError{Op: "count categories", Err: err}
	}

	counts := make(map[model.Category]int64, len(rows))
	for _, row := range rows {
		counts[row.Category] = row.Total
	}
	return counts, nil
}
