package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/boehmtech/task-tracker/internal/dto"
	apierrors "github.com/boehmtech/task-tracker/internal/errors"
	"github.com/boehmtech/task-tracker/internal/middleware"
	"github.com/boehmtech/task-tracker/internal/models"
	"github.com/boehmtech/task-tracker/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TaskHandler coordinates task HTTP handlers.
type TaskHandler struct {
	taskService *services.TaskService
	logger      *zap.SugaredLogger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService, logger *zap.SugaredLogger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// ListTasks returns tasks visible to the current user. Admins may filter by
// assigned_to and created_by; everyone may filter by status.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	var input services.ListTasksInput
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.TaskStatus(statusStr)
		input.Status = &status
	}
	if idStr := c.Query("assigned_to"); idStr != "" {
		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid assigned_to")
			return
		}
		input.AssignedTo = &id
	}
	if idStr := c.Query("created_by"); idStr != "" {
		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid created_by")
			return
		}
		input.CreatedBy = &id
	}

	tasks, err := h.taskService.List(actor, input)
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": dto.ToTaskDTOs(tasks)})
}

// CreateTask creates a new task with the actor as creator.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateTaskRequest struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Status      string  `json:"status"`
		Priority    string  `json:"priority"`
		DueDate     *string `json:"due_date"`
		AssigneeID  *uint64 `json:"assignee_uid"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	var dueDate *time.Time
	if req.DueDate != nil && *req.DueDate != "" {
		parsed, err := parseDueDate(*req.DueDate)
		if err != nil {
			apierrors.BadRequest(c, "Invalid due date format")
			return
		}
		dueDate = &parsed
	}

	task, err := h.taskService.Create(actor, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskStatus(req.Status),
		Priority:    models.TaskPriority(req.Priority),
		DueDate:     dueDate,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// GetTask returns a task, with its update trail when include_updates is set.
func (h *TaskHandler) GetTask(c *gin.Context) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	includeUpdates := c.Query("include_updates") == "true"

	task, err := h.taskService.Get(actor, id, includeUpdates)
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	if includeUpdates {
		c.JSON(http.StatusOK, dto.ToTaskDTOWithUpdates(*task))
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// UpdateTask mutates a task. The raw body is parsed so a present-but-null
// due_date can be told apart from an absent one.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	var rawReq map[string]any
	if err := c.ShouldBindJSON(&rawReq); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	var input services.UpdateTaskInput
	if title, ok := rawReq["title"].(string); ok {
		input.Title = &title
	}
	if desc, ok := rawReq["description"].(string); ok {
		input.Description = &desc
	}
	if status, ok := rawReq["status"].(string); ok {
		input.Status = &status
	}
	if priority, ok := rawReq["priority"].(string); ok {
		input.Priority = &priority
	}
	if assignee, ok := rawReq["assignee_uid"].(float64); ok {
		assigneeID := uint64(assignee)
		input.AssigneeID = &assigneeID
	}
	if _, ok := rawReq["due_date"]; ok {
		input.SetDueDate = true
		if dueDateStr, ok := rawReq["due_date"].(string); ok {
			parsed, err := parseDueDate(dueDateStr)
			if err != nil {
				apierrors.BadRequest(c, "Invalid due date format")
				return
			}
			input.DueDate = &parsed
		}
	}

	task, err := h.taskService.Update(actor, id, input)
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask hard-deletes a task and its updates.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	if err := h.taskService.Delete(actor, id); err != nil {
		h.respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// AddTaskUpdate appends a progress update, optionally with a screenshot
// uploaded as multipart form data.
func (h *TaskHandler) AddTaskUpdate(c *gin.Context) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	input := services.AddUpdateInput{
		Comment: c.PostForm("comment"),
		URL:     c.PostForm("url"),
	}

	if fileHeader, err := c.FormFile("screenshot"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			apierrors.BadRequest(c, "Failed to read screenshot")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			apierrors.BadRequest(c, "Failed to read screenshot")
			return
		}
		input.Screenshot = &services.Screenshot{
			Data:     data,
			Filename: fileHeader.Filename,
		}
	}

	update, err := h.taskService.AddUpdate(actor, id, input)
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskUpdateDTO(*update))
}

// DashboardStats returns role-scoped dashboard counts.
func (h *TaskHandler) DashboardStats(c *gin.Context) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	result, err := h.taskService.DashboardStats(actor)
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	stats := dto.DashboardStats{
		PendingTasks:    result.Tasks.Pending,
		InProgressTasks: result.Tasks.InProgress,
		CompletedTasks:  result.Tasks.Completed,
		OverdueTasks:    result.Tasks.Overdue,
		TotalUsers:      result.TotalUsers,
		ActiveUsers:     result.ActiveUsers,
	}
	if result.Scoped {
		stats.MyTasks = &result.Tasks.Total
	} else {
		stats.TotalTasks = &result.Tasks.Total
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (h *TaskHandler) respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrTaskAccessDenied),
		errors.Is(err, services.ErrNotPermitted):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrAssigneeNotFound),
		errors.Is(err, services.ErrEmptyUpdate),
		errors.Is(err, services.ErrUnsupportedUpload):
		apierrors.BadRequest(c, err.Error())
	default:
		h.logger.Errorw("task request failed", "error", err)
		apierrors.InternalError(c, "")
	}
}

// parseDueDate accepts RFC 3339 timestamps and bare dates.
func parseDueDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
