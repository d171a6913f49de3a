package dto

import (
	"time"

	"github.com/boehmtech/task-tracker/internal/models"
)

// TaskDTO represents a task in API responses. Mutating endpoints always
// return the full current representation, never a partial diff.
type TaskDTO struct {
	ID          uint64              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
	IsOverdue   bool                `json:"is_overdue"`
	AssigneeID  *uint64             `json:"assignee_uid"`
	CreatorID   uint64              `json:"created_by_uid"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Assignee    *UserDTO            `json:"assignee,omitempty"`
	Creator     *UserDTO            `json:"creator,omitempty"`
	Updates     []TaskUpdateDTO     `json:"updates,omitempty"`
}

// TaskUpdateDTO represents a task update in API responses
type TaskUpdateDTO struct {
	ID             uint64    `json:"id"`
	Comment        string    `json:"comment"`
	URL            string    `json:"url"`
	ScreenshotPath string    `json:"screenshot_path"`
	CreatedAt      time.Time `json:"created_at"`
	TaskID         uint64    `json:"task_id"`
	AuthorID       uint64    `json:"updated_by_uid"`
	Author         *UserDTO  `json:"author,omitempty"`
}

// DashboardStats holds role-scoped dashboard counts. Optional fields are
// pointers so they drop out of the payload for roles that may not see them.
type DashboardStats struct {
	TotalTasks      *int64 `json:"total_tasks,omitempty"`
	MyTasks         *int64 `json:"my_tasks,omitempty"`
	PendingTasks    int64  `json:"pending_tasks"`
	InProgressTasks int64  `json:"in_progress_tasks"`
	CompletedTasks  int64  `json:"completed_tasks"`
	OverdueTasks    int64  `json:"overdue_tasks"`
	TotalUsers      *int64 `json:"total_users,omitempty"`
	ActiveUsers     *int64 `json:"active_users,omitempty"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		DueDate:     task.DueDate,
		IsOverdue:   task.IsOverdue(time.Now()),
		AssigneeID:  task.AssigneeID,
		CreatorID:   task.CreatorID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	// Include assignee if preloaded
	if task.Assignee != nil && task.Assignee.ID != 0 {
		assignee := ToUserDTO(*task.Assignee)
		dto.Assignee = &assignee
	}

	// Include creator if preloaded
	if task.Creator.ID != 0 {
		creator := ToUserDTO(task.Creator)
		dto.Creator = &creator
	}

	return dto
}

// ToTaskDTOWithUpdates converts a task including its update trail
func ToTaskDTOWithUpdates(task models.Task) TaskDTO {
	dto := ToTaskDTO(task)
	dto.Updates = make([]TaskUpdateDTO, len(task.Updates))
	for i, u := range task.Updates {
		dto.Updates[i] = ToTaskUpdateDTO(u)
	}
	return dto
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	dtos := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		dtos[i] = ToTaskDTO(t)
	}
	return dtos
}

// ToTaskUpdateDTO converts a TaskUpdate model to TaskUpdateDTO
func ToTaskUpdateDTO(update models.TaskUpdate) TaskUpdateDTO {
	dto := TaskUpdateDTO{
		ID:             update.ID,
		Comment:        update.Comment,
		URL:            update.URL,
		ScreenshotPath: update.ScreenshotPath,
		CreatedAt:      update.CreatedAt,
		TaskID:         update.TaskID,
		AuthorID:       update.AuthorID,
	}

	if update.Author.ID != 0 {
		author := ToUserDTO(update.Author)
		dto.Author = &author
	}

	return dto
}
