package database

import (
	"fmt"

	"github.com/toorbo1/telegram-community1-sub000/models"

	"gorm.io/gorm"
)

func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Task{},
		&models.UserTask{},
		&models.Verification{},
		&models.Withdrawal{},
		&models.Transaction{},
		&models.BonusGrant{},
		&models.SupportChat{},
		&models.SupportMessage{},
		&models.Post{},
		&models.PostReaction{},
		&models.RevokedToken{},
	}
}

// Migrate runs AutoMigrate inside a transaction where the dialect allows it.
func Migrate(db *gorm.DB) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := tx.AutoMigrate(Models()...); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// SeedTasks inserts the starter catalog when the tasks table is empty.
func SeedTasks(db *gorm.DB, creatorID int64) (int, error) {
	var count int64
	if err := db.Model(&models.Task{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}
	seed := []models.Task{
		{Title: "Подписаться на канал", Description: "Подпишитесь на наш Telegram канал", Price: 50, Category: models.CategorySubscribe, Difficulty: "Легкая", TimeEstimate: "5 мин", PeopleRequired: 100},
		{Title: "Посмотреть видео", Description: "Посмотрите видео до конца", Price: 30, Category: models.CategoryView, Difficulty: "Легкая", TimeEstimate: "10 мин", PeopleRequired: 100},
		{Title: "Сделать репост", Description: "Сделайте репост записи", Price: 70, Category: models.CategoryRepost, Difficulty: "Средняя", TimeEstimate: "5 мин", PeopleRequired: 50},
	}
	for i := range seed {
		seed[i].Status = models.TaskStatusActive
		seed[i].CreatedBy = creatorID
	}
	if err := db.Create(&seed).Error; err != nil {
		return 0, fmt.Errorf("seed tasks: %w", err)
	}
	return len(seed), nil
}
