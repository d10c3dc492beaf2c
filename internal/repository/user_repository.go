package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"yourday/internal/model"
)

// UserRepository links Telegram accounts to task owners.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// LinkTelegram returns the owner link of a Telegram account, creating it with a
// fresh owner id on first contact. Profile fields are refreshed every time; the
// owner id never changes.
func (r *UserRepository) LinkTelegram(ctx context.Context, telegramID int64, firstName, lastName, username string) (*model.User, error) {
	db := r.db.WithContext(ctx)

	candidate := model.User{
		OwnerID:    uuid.NewString(),
		TelegramID: telegramID,
		FirstName:  firstName,
		LastName:   lastName,
		Username:   username,
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "telegram_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"first_name", "last_name", "username", "updated_at"}),
	}).Create(&candidate).Error
	if err != nil {
		return nil, &model.PersistenceError{Op: "link telegram account", Err: err}
	}

	var link model.User
	if err := db.Where("telegram_id = ?", telegramID).First(&link).Error; err != nil {
		return nil, &model.PersistenceError{Op: "load telegram link", Err: err}
	}
	return &link, nil
}
