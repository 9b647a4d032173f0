package models

import "time"

const (
	TaskStatusActive   = "active"
	TaskStatusInactive = "inactive"
)

const (
	CategorySocial    = "social"
	CategorySubscribe = "subscribe"
	CategoryView      = "view"
	CategoryComment   = "comment"
	CategoryRepost    = "repost"
	CategoryGeneral   = "general"
	CategoryOther     = "other"
)

var TaskCategories = []string{
	CategorySocial, CategorySubscribe, CategoryView, CategoryComment,
	CategoryRepost, CategoryGeneral, CategoryOther,
}

func IsTaskCategory(c string) bool {
	for _, v := range TaskCategories {
		if v == c {
			return true
		}
	}
	return false
}

type Task struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Title          string    `gorm:"type:varchar(255);not null" json:"title"`
	Description    string    `gorm:"type:text;not null" json:"description"`
	Price          int64     `gorm:"not null" json:"price"`
	Category       string    `gorm:"type:varchar(20);not null;default:'general';index" json:"category"`
	Difficulty     string    `gorm:"type:varchar(20)" json:"difficulty"`
	TimeEstimate   string    `gorm:"type:varchar(50)" json:"time_estimate"`
	PeopleRequired int64     `gorm:"not null;default:1" json:"people_required"`
	CompletedCount int64     `gorm:"not null;default:0" json:"completed_count"`
	ImageURL       *string   `gorm:"type:varchar(512)" json:"image_url,omitempty"`
	URL            *string   `gorm:"type:varchar(512)" json:"url,omitempty"`
	Status         string    `gorm:"type:varchar(10);not null;default:'active';index" json:"status"`
	CreatedBy      int64     `gorm:"not null;index" json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Task) TableName() string {
	return "tasks"
}

const (
	UserTaskActive        = "active"
	UserTaskPendingReview = "pending_review"
	UserTaskCompleted     = "completed"
	UserTaskRejected      = "rejected"
	UserTaskCancelled     = "cancelled"
)

// UserTask is one user's attempt at one task. OpenKey is set to "<user>:<task>"
// while the attempt is active or pending review and NULL afterwards, so the
// unique index admits a single open attempt per pair.
type UserTask struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        int64      `gorm:"not null;index:idx_user_tasks_user_task" json:"user_id"`
	TaskID        uint       `gorm:"not null;index:idx_user_tasks_user_task" json:"task_id"`
	Status        string     `gorm:"type:varchar(20);not null;index" json:"status"`
	OpenKey       *string    `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	StartedAt     time.Time  `json:"started_at"`
	ScreenshotURL *string    `gorm:"type:varchar(512)" json:"screenshot_url,omitempty"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time  `json:"-"`
	UpdatedAt     time.Time  `json:"-"`
	Task          *Task      `gorm:"foreignKey:TaskID" json:"task,omitempty"`
}

func (UserTask) TableName() string {
	return "user_tasks"
}
