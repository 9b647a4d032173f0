package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/toorbo1/telegram-community1-sub000/events"
	"github.com/toorbo1/telegram-community1-sub000/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type TaskInput struct {
	Title          string  `json:"title" validate:"required,max=255"`
	Description    string  `json:"description" validate:"required"`
	Price          int64   `json:"price" validate:"gt=0"`
	Category       string  `json:"category" validate:"omitempty,oneof=social subscribe view comment repost general other"`
	Difficulty     string  `json:"difficulty" validate:"max=20"`
	TimeEstimate   string  `json:"time_estimate" validate:"max=50"`
	PeopleRequired int64   `json:"people_required" validate:"gte=1"`
	ImageURL       *string `json:"image_url" validate:"omitempty,max=512"`
	URL            *string `json:"url" validate:"omitempty,url,max=512"`
}

func (in *TaskInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	if in.Category == "" {
		in.Category = models.CategoryGeneral
	}
	switch {
	case in.Title == "":
		return fmt.Errorf("%w: title is required", ErrValidation)
	case in.Description == "":
		return fmt.Errorf("%w: description is required", ErrValidation)
	case in.Price <= 0:
		return fmt.Errorf("%w: price must be positive", ErrValidation)
	case in.PeopleRequired < 1:
		return fmt.Errorf("%w: people_required must be at least 1", ErrValidation)
	case !models.IsTaskCategory(in.Category):
		return fmt.Errorf("%w: unknown category %q", ErrValidation, in.Category)
	}
	return nil
}

func (s *Service) CreateTask(ctx context.Context, in TaskInput, creatorID int64) (*models.Task, error) {
	db := s.db.WithContext(ctx)
	if err := s.requireAdmin(db, creatorID); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	task := models.Task{
		Title:          in.Title,
		Description:    in.Description,
		Price:          in.Price,
		Category:       in.Category,
		Difficulty:     in.Difficulty,
		TimeEstimate:   in.TimeEstimate,
		PeopleRequired: in.PeopleRequired,
		ImageURL:       in.ImageURL,
		URL:            in.URL,
		Status:         models.TaskStatusActive,
		CreatedBy:      creatorID,
	}
	if err := db.Create(&task).Error; err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	s.log.Info("task created", zap.Uint("task_id", task.ID), zap.Int64("by", creatorID))
	s.publish(ctx, events.Event{Type: events.TaskCreated, TaskID: task.ID})
	return &task, nil
}

// DeleteTask deactivates a task that has history and removes it otherwise.
func (s *Service) DeleteTask(ctx context.Context, taskID uint, requesterID int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		if err := s.requireAdmin(tx, requesterID); err != nil {
			return err
		}
		var refs int64
		if err := tx.Model(&models.UserTask{}).Where("task_id = ?", task.ID).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return tx.Model(&models.Task{}).Where("id = ?", task.ID).Update("status", models.TaskStatusInactive).Error
		}
		return tx.Delete(&models.Task{}, task.ID).Error
	})
	if err != nil {
		return err
	}
	s.log.Info("task removed", zap.Uint("task_id", taskID), zap.Int64("by", requesterID))
	s.publish(ctx, events.Event{Type: events.TaskRemoved, TaskID: taskID})
	return nil
}

type TaskFilter struct {
	Search   string
	Category string
}

// inflight counts assignments that hold a quota slot without having completed.
const inflightSQL = "(SELECT COUNT(*) FROM user_tasks ut WHERE ut.task_id = tasks.id AND ut.status IN ('active','pending_review'))"

// ListAvailableTasks lists active tasks with free quota that the user has
// neither an open attempt for nor already completed.
func (s *Service) ListAvailableTasks(ctx context.Context, userID int64, f TaskFilter) ([]models.Task, error) {
	q := s.db.WithContext(ctx).Model(&models.Task{}).
		Where("tasks.status = ?", models.TaskStatusActive).
		Where("tasks.people_required - tasks.completed_count - "+inflightSQL+" > 0").
		Where("NOT EXISTS (SELECT 1 FROM user_tasks mine WHERE mine.task_id = tasks.id AND mine.user_id = ? AND mine.status IN ('active','pending_review','completed'))", userID)
	q = applyTaskFilter(q, f)
	var tasks []models.Task
	if err := q.Order("tasks.created_at DESC, tasks.id DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

type TaskStats struct {
	models.Task
	InFlight int64 `json:"in_flight"`
}

// ListTasks is the admin view, inactive tasks included.
func (s *Service) ListTasks(ctx context.Context, adminID int64, f TaskFilter, status string) ([]TaskStats, error) {
	db := s.db.WithContext(ctx)
	if err := s.requireAdmin(db, adminID); err != nil {
		return nil, err
	}
	q := db.Model(&models.Task{}).Select("tasks.*, " + inflightSQL + " AS in_flight")
	if status != "" {
		q = q.Where("tasks.status = ?", status)
	}
	q = applyTaskFilter(q, f)
	var out []TaskStats
	if err := q.Order("tasks.created_at DESC, tasks.id DESC").Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) GetTask(ctx context.Context, taskID uint) (*models.Task, error) {
	var task models.Task
	if err := s.db.WithContext(ctx).Where("id = ?", taskID).Limit(1).Find(&task).Error; err != nil {
		return nil, err
	}
	if task.ID == 0 {
		return nil, fmt.Errorf("%w: task %d", ErrNotFound, taskID)
	}
	return &task, nil
}

func applyTaskFilter(q *gorm.DB, f TaskFilter) *gorm.DB {
	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("(LOWER(tasks.title) LIKE ? OR LOWER(tasks.description) LIKE ?)", like, like)
	}
	if cat := strings.ToLower(strings.TrimSpace(f.Category)); cat != "" && cat != "all" {
		q = q.Where("tasks.category = ?", cat)
	}
	return q
}
