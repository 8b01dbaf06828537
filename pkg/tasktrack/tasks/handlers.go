package tasks

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/apperr"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/auth"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/models"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/pagination"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/response"
	"gorm.io/gorm"
)

var tagsFilterPattern = regexp.MustCompile(`^(\d+,)*\d+$`)

// Handler handles task-related requests
type Handler struct {
	db      *gorm.DB
	service *Service
}

// NewHandler creates a new tasks handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db, service: NewService(db)}
}

// UserRef references a user by id in request bodies
type UserRef struct {
	ID uint `json:"id" binding:"required"`
}

// TagRef references a tag by id in request bodies
type TagRef struct {
	ID uint `json:"id" binding:"required"`
}

// CreateTaskRequest is the POST /tasks body
type CreateTaskRequest struct {
	Title       string                 `json:"title" binding:"required,min=5,max=100"`
	Description *string                `json:"description"`
	Status      string                 `json:"status"`
	Priority    string                 `json:"priority"`
	DueDate     *string                `json:"due_date"`
	AssignedTo  *UserRef               `json:"assigned_to"`
	Metadata    map[string]interface{} `json:"metadata"`
	Tags        []TagRef               `json:"tags"`
}

// ReplaceTaskRequest is the PUT /tasks/:id body. Version is checked at
// the service boundary so its absence yields the service-level message.
type ReplaceTaskRequest struct {
	Title       string                 `json:"title" binding:"required,min=5,max=100"`
	Description *string                `json:"description"`
	Status      string                 `json:"status" binding:"required"`
	Priority    string                 `json:"priority" binding:"required"`
	DueDate     *string                `json:"due_date"`
	AssignedTo  *UserRef               `json:"assigned_to"`
	Metadata    map[string]interface{} `json:"metadata"`
	Tags        []TagRef               `json:"tags"`
	Version     *int                   `json:"version"`
}

// PatchTaskRequest is the PATCH /tasks/:id body; only supplied fields
// are merged
type PatchTaskRequest struct {
	Title       *string                `json:"title" binding:"omitempty,min=5,max=100"`
	Description *string                `json:"description"`
	Status      *string                `json:"status"`
	Priority    *string                `json:"priority"`
	DueDate     *string                `json:"due_date"`
	AssignedTo  *UserRef               `json:"assigned_to"`
	Metadata    map[string]interface{} `json:"metadata"`
	Tags        []TagRef               `json:"tags"`
}

// UserBrief is the embedded assignee shape
type UserBrief struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TagBrief is the embedded tag shape
type TagBrief struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// TaskResponse represents a task in API responses
type TaskResponse struct {
	ID          uint                   `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Status      string                 `json:"status"`
	Priority    string                 `json:"priority"`
	DueDate     *string                `json:"due_date"`
	AssignedTo  *UserBrief             `json:"assigned_to"`
	Metadata    map[string]interface{} `json:"metadata"`
	Tags        []TagBrief             `json:"tags"`
	Version     int                    `json:"version"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// TaskLogResponse represents an audit entry in API responses
type TaskLogResponse struct {
	TaskID        uint                   `json:"task_id"`
	OperationType string                 `json:"operation_type"`
	Changes       map[string]interface{} `json:"changes"`
	CreatedBy     *UserBrief             `json:"created_by"`
	CreatedAt     time.Time              `json:"created_at"`
}

func toTaskResponse(t *models.Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Metadata:    t.Metadata,
		Version:     t.Version,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		Tags:        make([]TagBrief, 0, len(t.Tags)),
	}
	if t.DueDate != nil {
		due := t.DueDate.Format(dueDateLayout)
		resp.DueDate = &due
	}
	if t.AssignedUser != nil {
		resp.AssignedTo = &UserBrief{ID: t.AssignedUser.ID, Name: t.AssignedUser.Name, Email: t.AssignedUser.Email}
	}
	for _, tag := range t.Tags {
		resp.Tags = append(resp.Tags, TagBrief{ID: tag.ID, Name: tag.Name, Color: tag.Color})
	}
	return resp
}

func toTaskLogResponse(l *models.TaskLog) TaskLogResponse {
	resp := TaskLogResponse{
		TaskID:        l.TaskID,
		OperationType: string(l.OperationType),
		Changes:       l.Changes,
		CreatedAt:     l.CreatedAt,
	}
	if l.CreatedBy != nil {
		resp.CreatedBy = &UserBrief{ID: l.CreatedBy.ID, Name: l.CreatedBy.Name, Email: l.CreatedBy.Email}
	}
	return resp
}

// buildInput validates the body fields that binding cannot express and
// converts them into a service input. forCreate/full control the
// due-date floor check, which applies to POST and PUT only.
func (h *Handler) buildInput(title, description *string, status, priority, dueDate *string,
	assignedTo *UserRef, metadata map[string]interface{}, tags []TagRef, version *int, enforceDateFloor bool) (TaskInput, map[string]string) {

	in := TaskInput{
		Title:       title,
		Description: description,
		Metadata:    metadata,
		Version:     version,
	}
	fieldErrors := map[string]string{}

	if status != nil && *status != "" {
		parsed, ok := models.ParseTaskStatus(*status)
		if !ok {
			fieldErrors["status"] = "The selected status is invalid. Valid statuses are: " + strings.Join(models.TaskStatusValues(), ", ")
		} else {
			in.Status = &parsed
		}
	}

	if priority != nil && *priority != "" {
		parsed, ok := models.ParseTaskPriority(*priority)
		if !ok {
			fieldErrors["priority"] = "The selected priority is invalid. Valid priorities are: " + strings.Join(models.TaskPriorityValues(), ", ")
		} else {
			in.Priority = &parsed
		}
	}

	if dueDate != nil && *dueDate != "" {
		parsed, err := time.Parse(dueDateLayout, *dueDate)
		if err != nil {
			fieldErrors["due_date"] = "The due date is not a valid date."
		} else {
			if enforceDateFloor {
				today, _ := time.Parse(dueDateLayout, time.Now().Format(dueDateLayout))
				if parsed.Before(today) {
					fieldErrors["due_date"] = "The due date must be a date after or equal to today."
				}
			}
			if _, exists := fieldErrors["due_date"]; !exists {
				in.DueDate = &parsed
			}
		}
	}

	if assignedTo != nil {
		var count int64
		h.db.Model(&models.User{}).Where("id = ?", assignedTo.ID).Count(&count)
		if count == 0 {
			fieldErrors["assigned_to.id"] = fmt.Sprintf("The user with id %d does not exist.", assignedTo.ID)
		} else {
			id := assignedTo.ID
			in.AssignedTo = &id
		}
	}

	if len(tags) > 0 {
		ids := make([]uint, 0, len(tags))
		for _, tag := range tags {
			ids = append(ids, tag.ID)
		}
		var count int64
		h.db.Model(&models.Tag{}).Where("id IN ?", ids).Count(&count)
		if count != int64(len(ids)) {
			fieldErrors["tags"] = "Invalid tag ids. Some tag(s) is not found."
		} else {
			in.TagIDs = ids
		}
	}

	return in, fieldErrors
}

func taskID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, apperr.NotFound("No record found for given id")
	}
	return uint(id), nil
}

// Index returns one page of tasks matching the query filters
func (h *Handler) Index(c *gin.Context) {
	p, ok := auth.CurrentPrincipal(c)
	if !ok {
		response.SendError(c, apperr.Unauthorized("Authentication required"))
		return
	}

	fieldErrors := map[string]string{}
	filters := Filters{
		Status:       c.Query("status"),
		Priority:     c.Query("priority"),
		DueDateRange: c.Query("due_date_range"),
		Tags:         c.Query("tags"),
		Keyword:      c.Query("keyword"),
	}

	if filters.Status != "" {
		if _, ok := models.ParseTaskStatus(filters.Status); !ok {
			fieldErrors["status"] = "The selected status is invalid. Valid statuses are: " + strings.Join(models.TaskStatusValues(), ", ")
		}
	}
	if filters.Priority != "" {
		if _, ok := models.ParseTaskPriority(filters.Priority); !ok {
			fieldErrors["priority"] = "The selected priority is invalid. Valid priorities are: " + strings.Join(models.TaskPriorityValues(), ", ")
		}
	}
	if raw := c.Query("assigned_to"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			fieldErrors["assigned_to"] = "The assigned to must be an integer."
		} else {
			var count int64
			h.db.Model(&models.User{}).Where("id = ?", id).Count(&count)
			if count == 0 {
				fieldErrors["assigned_to"] = fmt.Sprintf("The user with id %d does not exist.", id)
			} else {
				filters.AssignedTo = uint(id)
			}
		}
	}
	if filters.Tags != "" && !tagsFilterPattern.MatchString(filters.Tags) {
		fieldErrors["tags"] = "The tags format is invalid."
	}
	if filters.DueDateRange != "" {
		if _, _, err := ParseDueDateRange(filters.DueDateRange); err != nil {
			fieldErrors["due_date_range"] = err.Error()
		}
	}
	if raw := c.Query("only_deleted"); raw != "" {
		onlyDeleted, err := strconv.ParseBool(raw)
		if err != nil {
			fieldErrors["only_deleted"] = "The only deleted field must be true or false."
		} else {
			filters.OnlyDeleted = onlyDeleted
		}
	}

	if len(fieldErrors) > 0 {
		response.SendValidationErrors(c, fieldErrors)
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	page, _ := strconv.Atoi(c.Query("page"))

	results, meta, err := h.service.List(p, filters, limit, page, c.Query("sort"), c.Query("direction"))
	if err != nil {
		response.SendError(c, err)
		return
	}

	items := make([]TaskResponse, 0, len(results))
	for i := range results {
		items = append(items, toTaskResponse(&results[i]))
	}
	response.SendOK(c, http.StatusOK, pagination.Page{Meta: meta, Results: items})
}

// Store creates a new task
func (h *Handler) Store(c *gin.Context) {
	p, ok := auth.CurrentPrincipal(c)
	if !ok {
		response.SendError(c, apperr.Unauthorized("Authentication required"))
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, apperr.Validation("", err.Error()))
		return
	}

	in, fieldErrors := h.buildInput(&req.Title, req.Description, &req.Status, &req.Priority,
		req.DueDate, req.AssignedTo, req.Metadata, req.Tags, nil, true)
	if len(fieldErrors) > 0 {
		response.SendValidationErrors(c, fieldErrors)
		return
	}

	task, err := h.service.Create(p, in)
	if err != nil {
		response.SendError(c, err)
		return
	}
	response.SendCreated(c, toTaskResponse(task))
}

// Show returns a single task
func (h *Handler) Show(c *gin.Context) {
	p, _ := auth.CurrentPrincipal(c)
	id, err := taskID(c)
	if err != nil {
		response.SendError(c, err)
		return
	}

	task, err := h.service.Find(p, id)
	if err != nil {
		response.SendError(c, err)
		return
	}
	response.SendOK(c, http.StatusOK, toTaskResponse(task))
}

// Update fully replaces a task (PUT semantics, optimistic concurrency)
func (h *Handler) Update(c *gin.Context) {
	p, _ := auth.CurrentPrincipal(c)
	id, err := taskID(c)
	if err != nil {
		response.SendError(c, err)
		return
	}

	var req ReplaceTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, apperr.Validation("", err.Error()))
		return
	}

	in, fieldErrors := h.buildInput(&req.Title, req.Description, &req.Status, &req.Priority,
		req.DueDate, req.AssignedTo, req.Metadata, req.Tags, req.Version, true)
	if len(fieldErrors) > 0 {
		response.SendValidationErrors(c, fieldErrors)
		return
	}

	task, err := h.service.Update(p, id, in, true)
	if err != nil {
		response.SendError(c, err)
		return
	}
	response.SendOK(c, http.StatusOK, toTaskResponse(task))
}

// Patch partially updates a task (no version check)
func (h *Handler) Patch(c *gin.Context) {
	p, _ := auth.CurrentPrincipal(c)
	id, err := taskID(c)
	if err != nil {
		response.SendError(c, err)
		return
	}

	var req PatchTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, apperr.Validation("", err.Error()))
		return
	}

	in, fieldErrors := h.buildInput(req.Title, req.Description, req.Status, req.Priority,
		req.DueDate, req.AssignedTo, req.Metadata, req.Tags, nil, false)
	if len(fieldErrors) > 0 {
		response.SendValidationErrors(c, fieldErrors)
		return
	}

	task, err := h.service.Update(p, id, in, false)
	if err != nil {
		response.SendError(c, err)
		return
	}
	response.SendOK(c, http.StatusOK, toTaskResponse(task))
}

// Destroy soft-deletes a task
func (h *Handler) Destroy(c *gin.Context) {
	p, _ := auth.CurrentPrincipal(c)
	id, err := taskID(c)
	if err != nil {
		response.SendError(c, err)
		return
	}

	if err := h.service.Delete(p, id); err != nil {
		response.SendError(c, err)
		return
	}
	response.SendNoContent(c)
}

// ToggleStatus cycles a task's status
func (h *Handler) ToggleStatus(c *gin.Context) {
	p, _ := auth.CurrentPrincipal(c)
	id, err := taskID(c)
	if err != nil {
		response.SendError(c, err)
		return
	}

	task, err := h.service.ToggleStatus(p, id)
	if err != nil {
		response.SendError(c, err)
		return
	}
	response.SendOK(c, http.StatusOK, toTaskResponse(task))
}

// Restore brings back a soft-deleted task
func (h *Handler) Restore(c *gin.Context) {
	p, _ := auth.CurrentPrincipal(c)
	id, err := taskID(c)
	if err != nil {
		response.SendError(c, err)
		return
	}

	task, err := h.service.Restore(p, id)
	if err != nil {
		response.SendError(c, err)
		return
	}
	response.SendOK(c, http.StatusOK, toTaskResponse(task))
}

// Logs returns a task's audit entries, newest first
func (h *Handler) Logs(c *gin.Context) {
	p, _ := auth.CurrentPrincipal(c)
	id, err := taskID(c)
	if err != nil {
		response.SendError(c, err)
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	page, _ := strconv.Atoi(c.Query("page"))

	logs, meta, err := h.service.Logs(p, id, limit, page)
	if err != nil {
		response.SendError(c, err)
		return
	}

	items := make([]TaskLogResponse, 0, len(logs))
	for i := range logs {
		items = append(items, toTaskLogResponse(&logs[i]))
	}
	response.SendOK(c, http.StatusOK, pagination.Page{Meta: meta, Results: items})
}

// RegisterRoutes registers task routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tasks", h.Index)
	rg.POST("/tasks", h.Store)
	rg.GET("/tasks/:id", h.Show)
	rg.PUT("/tasks/:id", h.Update)
	rg.PATCH("/tasks/:id", h.Patch)
	rg.DELETE("/tasks/:id", h.Destroy)
	rg.PATCH("/tasks/:id/toggle-status", h.ToggleStatus)
	rg.PATCH("/tasks/:id/restore", h.Restore)
	rg.GET("/tasks/:id/logs", h.Logs)
}
