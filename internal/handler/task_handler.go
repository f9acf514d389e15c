package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"trackr/internal/errors"
	"trackr/internal/middleware"
	"trackr/internal/model"
	"trackr/internal/service"
)

// TaskHandler handles task endpoints. Every route requires BearerAuth.
type TaskHandler struct {
	taskService service.TaskService
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// CreateTaskRequest represents a task creation request.
type CreateTaskRequest struct {
	Title       string  `json:"title" example:"Write spec"`
	Description *string `json:"description,omitempty"`
	Status      string  `json:"status,omitempty" example:"to-do" enums:"to-do,in-progress,done"`
}

// UpdateTaskRequest represents a partial task update. Omitted fields are unchanged.
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty" enums:"to-do,in-progress,done"`
}

// TaskResponse is the API view of a task.
type TaskResponse struct {
	ID            uint                   `json:"id"`
	UserID        uint                   `json:"user_id"`
	Title         string                 `json:"title"`
	Description   *string                `json:"description"`
	Status        model.TaskStatus       `json:"status"`
	TotalDuration *model.ElapsedDuration `json:"total_duration"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
	CompletedAt   *time.Time             `json:"completed_at"`
}

func newTaskResponse(t *model.Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
	if t.TotalDurationSeconds != nil {
		d := service.DecomposeDuration(*t.TotalDurationSeconds)
		resp.TotalDuration = &d
	}
	if t.CompletedAt != nil {
		completed := t.CompletedAt.UTC()
		resp.CompletedAt = &completed
	}
	return resp
}

// ListTasks godoc
// @Summary List the caller's tasks, newest first
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Success 200 {array} TaskResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(c echo.Context) error {
	claims, ok := middleware.UserClaims(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	tasks, err := h.taskService.List(c.Request().Context(), claims.UserID)
	if err != nil {
		return domainError(err)
	}

	resp := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		resp = append(resp, newTaskResponse(&tasks[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetStats godoc
// @Summary Task counts per status and average completion time
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.TaskStats
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /tasks/stats [get]
func (h *TaskHandler) GetStats(c echo.Context) error {
	claims, ok := middleware.UserClaims(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	stats, err := h.taskService.Stats(c.Request().Context(), claims.UserID)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

// GetTask godoc
// @Summary Get a task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Success 200 {object} TaskResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetTask(c echo.Context) error {
	claims, ok := middleware.UserClaims(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	id, err := taskID(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.Get(c.Request().Context(), claims.UserID, id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, newTaskResponse(task))
}

// CreateTask godoc
// @Summary Create a task
// @Description A task created with status "done" completes immediately with a zero duration.
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTaskRequest true "Task data"
// @Success 201 {object} TaskResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c echo.Context) error {
	claims, ok := middleware.UserClaims(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	var req CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	task, err := h.taskService.Create(c.Request().Context(), claims.UserID, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, newTaskResponse(task))
}

// UpdateTask godoc
// @Summary Update a task
// @Description Moving a task to "done" records the time elapsed since creation. A done task cannot change status.
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Param request body UpdateTaskRequest true "Fields to change"
// @Success 200 {object} TaskResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /tasks/{id} [put]
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	claims, ok := middleware.UserClaims(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	id, err := taskID(c)
	if err != nil {
		return err
	}

	var req UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	task, err := h.taskService.Update(c.Request().Context(), claims.UserID, id, service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, newTaskResponse(task))
}

// DeleteTask godoc
// @Summary Delete a task
// @Tags tasks
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	claims, ok := middleware.UserClaims(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	id, err := taskID(c)
	if err != nil {
		return err
	}

	if err := h.taskService.Delete(c.Request().Context(), claims.UserID, id); err != nil {
		return domainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func taskID(c echo.Context) (uint, error) {
	var id uint
	if err := echo.PathParamsBinder(c).MustUint("id", &id).BindError(); err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid task id",
			Code:  "INVALID_ID",
		})
	}
	return id, nil
}
