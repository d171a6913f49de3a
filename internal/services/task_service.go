package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/boehmtech/task-tracker/internal/models"
	"github.com/boehmtech/task-tracker/internal/repository"
	"github.com/boehmtech/task-tracker/internal/storage"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrTaskAccessDenied  = errors.New("access denied")
	ErrTitleRequired     = errors.New("title is required")
	ErrAssigneeNotFound  = errors.New("assignee not found")
	ErrEmptyUpdate       = errors.New("at least one of comment, url, or screenshot is required")
	ErrUnsupportedUpload = errors.New("unsupported screenshot file type")
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
	blobs    storage.BlobStore
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository, blobs storage.BlobStore) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		blobs:    blobs,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Status     *models.TaskStatus
	AssignedTo *uint64
	CreatedBy  *uint64
}

// List returns tasks visible to the actor. Admins see the whole table; plain
// users see only their assigned tasks, and the assigned_to/created_by filters
// are honored for admins only.
func (s *TaskService) List(actor *models.User, input ListTasksInput) ([]models.Task, error) {
	filter := repository.TaskFilter{Status: input.Status}

	if actor.HasRole(models.RoleAdmin) {
		filter.AssigneeID = input.AssignedTo
		filter.CreatorID = input.CreatedBy
	} else {
		filter.AssigneeID = &actor.ID
	}

	tasks, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	DueDate     *time.Time
	AssigneeID  *uint64
}

// Create creates a task with the actor as creator. Admin only. A named
// assignee must exist.
func (s *TaskService) Create(actor *models.User, input CreateTaskInput) (*models.Task, error) {
	if !actor.HasRole(models.RoleAdmin) {
		return nil, ErrNotPermitted
	}
	if input.Title == "" {
		return nil, ErrTitleRequired
	}

	if input.AssigneeID != nil {
		if _, err := s.userRepo.FindByID(*input.AssigneeID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrAssigneeNotFound
			}
			return nil, fmt.Errorf("failed to check assignee: %w", err)
		}
	}

	if input.Status == "" {
		input.Status = models.TaskStatusPending
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}

	task := &models.Task{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		AssigneeID:  input.AssigneeID,
		CreatorID:   actor.ID,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, "Assignee", "Creator")
}

// Get returns a task, optionally with its update trail (newest update first).
// Plain users may only fetch tasks assigned to them.
func (s *TaskService) Get(actor *models.User, taskID uint64, includeUpdates bool) (*models.Task, error) {
	var task *models.Task
	var err error

	if includeUpdates {
		task, err = s.taskRepo.FindByIDWithUpdates(taskID)
	} else {
		task, err = s.taskRepo.FindByID(taskID, "Assignee", "Creator")
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.ensureTaskAccess(actor, task); err != nil {
		return nil, err
	}

	return task, nil
}

// UpdateTaskInput represents input for updating a task. Nil pointers leave
// fields untouched; SetDueDate with a nil DueDate clears the deadline.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	AssigneeID  *uint64
	DueDate     *time.Time
	SetDueDate  bool
}

// Update mutates a task. Plain users may only move status between the four
// valid values on their own tasks; unrecognized status values are ignored
// rather than rejected, matching long-standing client behavior. Admins may
// change every field; a nonexistent assignee is likewise ignored.
func (s *TaskService) Update(actor *models.User, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.ensureTaskAccess(actor, task); err != nil {
		return nil, err
	}

	if actor.HasRole(models.RoleAdmin) {
		if input.Title != nil {
			task.Title = *input.Title
		}
		if input.Description != nil {
			task.Description = *input.Description
		}
		if input.Status != nil {
			applyStatus(task, *input.Status)
		}
		if input.Priority != nil {
			task.Priority = models.TaskPriority(*input.Priority)
		}
		if input.AssigneeID != nil {
			if _, err := s.userRepo.FindByID(*input.AssigneeID); err == nil {
				task.AssigneeID = input.AssigneeID
			}
		}
		if input.SetDueDate {
			task.DueDate = input.DueDate
		}
	} else if input.Status != nil {
		applyStatus(task, *input.Status)
	}

	task.UpdatedAt = time.Now()
	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, "Assignee", "Creator")
}

// Delete hard-deletes a task and its update trail. Admin only.
func (s *TaskService) Delete(actor *models.User, taskID uint64) error {
	if !actor.HasRole(models.RoleAdmin) {
		return ErrNotPermitted
	}

	if _, err := s.taskRepo.FindByID(taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// Screenshot is an uploaded image attached to a task update.
type Screenshot struct {
	Data     []byte
	Filename string
}

// AddUpdateInput represents input for appending a task update.
type AddUpdateInput struct {
	Comment    string
	URL        string
	Screenshot *Screenshot
}

// AddUpdate appends an update to a task the actor may access. The screenshot
// goes through the blob store; only its reference path is kept. The parent
// task's updated_at is touched in the same transaction.
func (s *TaskService) AddUpdate(actor *models.User, taskID uint64, input AddUpdateInput) (*models.TaskUpdate, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.ensureTaskAccess(actor, task); err != nil {
		return nil, err
	}

	var screenshotPath string
	if input.Screenshot != nil {
		path, err := s.blobs.Store(input.Screenshot.Data, input.Screenshot.Filename)
		if err != nil {
			if errors.Is(err, storage.ErrUnsupportedExtension) {
				return nil, ErrUnsupportedUpload
			}
			return nil, fmt.Errorf("failed to store screenshot: %w", err)
		}
		screenshotPath = path
	}

	update := &models.TaskUpdate{
		Comment:        input.Comment,
		URL:            input.URL,
		ScreenshotPath: screenshotPath,
		TaskID:         task.ID,
		AuthorID:       actor.ID,
	}

	if update.IsEmpty() {
		return nil, ErrEmptyUpdate
	}

	if err := s.taskRepo.AddUpdate(update); err != nil {
		return nil, fmt.Errorf("failed to add task update: %w", err)
	}

	update.Author = *actor
	return update, nil
}

// DashboardStats returns role-scoped dashboard counts. Superadmins get user
// counts on top of the global task counts; admins get global task counts;
// plain users get counts over their own assigned tasks.
func (s *TaskService) DashboardStats(actor *models.User) (*DashboardStatsResult, error) {
	var assigneeID *uint64
	if !actor.HasRole(models.RoleAdmin) {
		assigneeID = &actor.ID
	}

	stats, err := s.taskRepo.Stats(assigneeID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to compute task stats: %w", err)
	}

	result := &DashboardStatsResult{
		Tasks:  stats,
		Scoped: assigneeID != nil,
	}

	if actor.Role == models.RoleSuperadmin {
		total, active, err := s.userRepo.Counts()
		if err != nil {
			return nil, fmt.Errorf("failed to count users: %w", err)
		}
		result.TotalUsers = &total
		result.ActiveUsers = &active
	}

	return result, nil
}

// DashboardStatsResult carries the computed counts back to the handler.
type DashboardStatsResult struct {
	Tasks       repository.TaskStats
	Scoped      bool
	TotalUsers  *int64
	ActiveUsers *int64
}

// ensureTaskAccess enforces the ownership rule: admins see every task, plain
// users only tasks assigned to them.
func (s *TaskService) ensureTaskAccess(actor *models.User, task *models.Task) error {
	if actor.HasRole(models.RoleAdmin) {
		return nil
	}
	if task.AssigneeID != nil && *task.AssigneeID == actor.ID {
		return nil
	}
	return ErrTaskAccessDenied
}

// applyStatus moves a task into one of the four valid statuses; anything
// else is dropped on the floor.
func applyStatus(task *models.Task, status string) {
	next := models.TaskStatus(status)
	if next.IsValid() {
		task.Status = next
	}
}
