package models

import (
	"time"
)

// TaskUpdate is a progress note on a task. At least one of Comment, URL or
// ScreenshotPath must be present. Updates are owned by their task and removed
// together with it.
type TaskUpdate struct {
	ID             uint64    `gorm:"primarykey" json:"id"`
	Comment        string    `gorm:"type:text" json:"comment"`
	URL            string    `gorm:"type:varchar(500)" json:"url"`
	ScreenshotPath string    `gorm:"type:varchar(500)" json:"screenshot_path"`
	CreatedAt      time.Time `json:"created_at"`
	TaskID         uint64    `gorm:"not null" json:"task_id"`
	AuthorID       uint64    `gorm:"not null" json:"updated_by_uid"`

	// Relations
	Task   Task `gorm:"foreignKey:TaskID" json:"-"`
	Author User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

// IsEmpty reports whether the update carries no content at all.
func (u *TaskUpdate) IsEmpty() bool {
	return u.Comment == "" && u.URL == "" && u.ScreenshotPath == ""
}
