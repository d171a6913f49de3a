package repository

import (
	"time"

	"github.com/boehmtech/task-tracker/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// FindByIDWithUpdates finds a task with its update trail ordered newest first
func (r *GormTaskRepository) FindByIDWithUpdates(id uint64) (*models.Task, error) {
	var task models.Task
	err := r.db.
		Preload("Assignee").
		Preload("Creator").
		Preload("Updates", func(db *gorm.DB) *gorm.DB {
			return db.Order("task_updates.created_at DESC")
		}).
		Preload("Updates.Author").
		First(&task, id).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// List retrieves tasks matching the filter. Results are ordered by due date
// ascending; tasks without a due date sort last, since they are never the
// most urgent.
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, error) {
	var tasks []models.Task
	query := r.db.Model(&models.Task{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.AssigneeID != nil {
		query = query.Where("assignee_id = ?", *filter.AssigneeID)
	}
	if filter.CreatorID != nil {
		query = query.Where("creator_id = ?", *filter.CreatorID)
	}

	err := query.
		Order("CASE WHEN due_date IS NULL THEN 1 ELSE 0 END, due_date ASC").
		Preload("Assignee").
		Preload("Creator").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

// Update persists changes to a task
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Save(task).Error
}

// Delete hard-deletes a task and cascades to its updates
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskUpdate{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Task{}, id).Error
	})
}

// AddUpdate appends an update and touches the parent task's updated_at in
// one transaction, so either both writes commit or neither does.
func (r *GormTaskRepository) AddUpdate(update *models.TaskUpdate) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(update).Error; err != nil {
			return err
		}
		return tx.Model(&models.Task{}).
			Where("id = ?", update.TaskID).
			Update("updated_at", time.Now()).Error
	})
}

// Stats computes task counts, optionally scoped to an assignee
func (r *GormTaskRepository) Stats(assigneeID *uint64, now time.Time) (TaskStats, error) {
	var stats TaskStats

	base := func() *gorm.DB {
		q := r.db.Model(&models.Task{})
		if assigneeID != nil {
			q = q.Where("assignee_id = ?", *assigneeID)
		}
		return q
	}

	if err := base().Count(&stats.Total).Error; err != nil {
		return stats, err
	}
	if err := base().Where("status = ?", models.TaskStatusPending).Count(&stats.Pending).Error; err != nil {
		return stats, err
	}
	if err := base().Where("status = ?", models.TaskStatusInProgress).Count(&stats.InProgress).Error; err != nil {
		return stats, err
	}
	if err := base().Where("status = ?", models.TaskStatusCompleted).Count(&stats.Completed).Error; err != nil {
		return stats, err
	}

	// Overdue is always derived from due date and status, never stored.
	err := base().
		Where("due_date < ?", now).
		Where("status NOT IN ?", []models.TaskStatus{models.TaskStatusCompleted, models.TaskStatusCancelled}).
		Count(&stats.Overdue).Error
	if err != nil {
		return stats, err
	}

	return stats, nil
}
