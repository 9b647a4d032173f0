package models

import "time"

const (
	VerificationPending  = "pending"
	VerificationApproved = "approved"
	VerificationRejected = "rejected"
)

// Verification snapshots the submitter and task at submission time.
type Verification struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserTaskID    uint       `gorm:"not null;uniqueIndex" json:"user_task_id"`
	UserID        int64      `gorm:"not null;index" json:"user_id"`
	TaskID        uint       `gorm:"not null;index" json:"task_id"`
	UserName      string     `gorm:"size:255" json:"user_name"`
	UserHandle    string     `gorm:"size:64" json:"user_handle"`
	TaskTitle     string     `gorm:"type:varchar(255);not null" json:"task_title"`
	TaskPrice     int64      `gorm:"not null" json:"task_price"`
	ScreenshotURL string     `gorm:"type:varchar(512);not null" json:"screenshot_url"`
	Status        string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Comment       *string    `gorm:"type:text" json:"comment,omitempty"`
	SubmittedAt   time.Time  `gorm:"not null;index" json:"submitted_at"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy    *int64     `json:"reviewed_by,omitempty"`
}

func (Verification) TableName() string {
	return "task_verifications"
}
