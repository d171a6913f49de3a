package repository

import (
	"time"

	"github.com/boehmtech/task-tracker/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID, including deactivated accounts
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by exact username, including deactivated accounts
	FindByUsername(username string) (*models.User, error)

	// FindByEmail finds a user by exact email, including deactivated accounts
	FindByEmail(email string) (*models.User, error)

	// List retrieves users matching the filter, newest first
	List(filter UserFilter) ([]models.User, error)

	// Update persists changes to a user
	Update(user *models.User) error

	// Search finds active users whose username or display name contains the
	// query, case-insensitive, capped at limit results
	Search(query string, limit int) ([]models.User, error)

	// EmailTaken reports whether another user already holds the email
	EmailTaken(email string, excludeID uint64) (bool, error)

	// Counts returns the total and active user counts
	Counts() (total int64, active int64, err error)
}

// UserFilter holds filtering options for listing users
type UserFilter struct {
	Role     *models.Role
	IsActive *bool
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// FindByIDWithUpdates finds a task with its update trail, newest update first
	FindByIDWithUpdates(id uint64) (*models.Task, error)

	// List retrieves tasks matching the filter, ordered by due date ascending
	// with tasks lacking a due date sorted last
	List(filter TaskFilter) ([]models.Task, error)

	// Update persists changes to a task
	Update(task *models.Task) error

	// Delete hard-deletes a task and its updates atomically
	Delete(id uint64) error

	// AddUpdate appends an update and touches the parent task's updated_at
	// in one transaction
	AddUpdate(update *models.TaskUpdate) error

	// Stats computes task counts, scoped to an assignee when given. The
	// overdue count is derived from due date and status at query time.
	Stats(assigneeID *uint64, now time.Time) (TaskStats, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	Status     *models.TaskStatus
	AssigneeID *uint64
	CreatorID  *uint64
}

// TaskStats holds aggregate task counts for the dashboard
type TaskStats struct {
	Total      int64
	Pending    int64
	InProgress int64
	Completed  int64
	Overdue    int64
}
