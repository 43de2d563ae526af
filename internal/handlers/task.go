package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskboard-dev/taskboard/db"
	"github.com/taskboard-dev/taskboard/internal/authz"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/types"
	"github.com/taskboard-dev/taskboard/internal/utils"
	"gorm.io/gorm"
)

type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description" binding:"max=1000"`
	Status      string `json:"status" binding:"required"`
	AssigneeID  uint   `json:"assignee_id"`
}

// Pointer fields so any subset may change independently.
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	AssigneeID  *uint   `json:"assignee_id"`
}

func invalidStatusMessage(status string) string {
	return "Invalid status " + status + ", must be one of: " + strings.Join(types.TaskStatuses, ", ")
}

func ListTasks(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := authz.GetProject(db.DB, projectID)

	if err != nil {
		respondProjectLookup(ctx, err)
		return
	}

	hasAccess, err := authz.HasAccess(db.DB, project, userID)

	if err != nil {
		log.Printf("Failed to check access for user %d on project %d: %v", userID, projectID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	if !hasAccess {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this project"})
		return
	}

	var tasks []models.Task

	if err := db.DB.Preload("Assignee").
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		log.Printf("Failed to fetch tasks for project %d: %v", projectID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	response := make([]types.TaskResponse, 0, len(tasks))

	for i := range tasks {
		response = append(response, toTaskResponse(&tasks[i]))
	}

	ctx.JSON(http.StatusOK, gin.H{"tasks": response})
}

func CreateTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CreateTaskRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return
	}

	if !types.IsValidTaskStatus(body.Status) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": invalidStatusMessage(body.Status)})
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := authz.GetProject(db.DB, projectID)

	if err != nil {
		respondProjectLookup(ctx, err)
		return
	}

	hasAccess, err := authz.HasAccess(db.DB, project, userID)

	if err != nil {
		log.Printf("Failed to check access for user %d on project %d: %v", userID, projectID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	if !hasAccess {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this project"})
		return
	}

	// Unassigned tasks go to their creator
	assigneeID := body.AssigneeID

	if assigneeID == 0 {
		assigneeID = userID
	} else if assigneeID != userID {
		assigneeHasAccess, err := authz.HasAccess(db.DB, project, assigneeID)

		if err != nil {
			log.Printf("Failed to check access for assignee %d on project %d: %v", assigneeID, projectID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
			return
		}

		if !assigneeHasAccess {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Assignee is not a member of this project"})
			return
		}
	}

	task := models.Task{
		Title:       body.Title,
		Description: body.Description,
		Status:      body.Status,
		ProjectID:   projectID,
		AssigneeID:  assigneeID,
	}

	if err := db.DB.Create(&task).Error; err != nil {
		log.Printf("Failed to create task in project %d: %v", projectID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	if err := db.DB.Preload("Assignee").First(&task, task.ID).Error; err != nil {
		log.Printf("Failed to reload task %d: %v", task.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	BroadcastProjectRefresh(projectID, "task_created")

	ctx.JSON(http.StatusCreated, gin.H{"task": toTaskResponse(&task)})
}

func GetTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, taskID, err := utils.GetProjectTaskID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := authz.GetProject(db.DB, projectID)

	if err != nil {
		respondProjectLookup(ctx, err)
		return
	}

	hasAccess, err := authz.HasAccess(db.DB, project, userID)

	if err != nil {
		log.Printf("Failed to check access for user %d on project %d: %v", userID, projectID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}

	if !hasAccess {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this project"})
		return
	}

	var task models.Task

	if err := db.DB.Preload("Assignee").
		Where("id = ? AND project_id = ?", taskID, projectID).
		First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		log.Printf("Failed to fetch task %d: %v", taskID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"task": toTaskResponse(&task)})
}

func UpdateTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body UpdateTaskRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return
	}

	projectID, taskID, err := utils.GetProjectTaskID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := authz.GetProject(db.DB, projectID)

	if err != nil {
		respondProjectLookup(ctx, err)
		return
	}

	task, err := authz.GetProjectTask(db.DB, projectID, taskID)

	if err != nil {
		respondTaskLookup(ctx, err)
		return
	}

	canEdit, err := authz.CanEditTask(db.DB, task, userID)

	if err != nil {
		log.Printf("Failed to check edit permission for user %d on task %d: %v", userID, taskID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	if !canEdit {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only the project owner or the assignee can modify this task"})
		return
	}

	if body.Title != nil {
		if strings.TrimSpace(*body.Title) == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Title cannot be empty"})
			return
		}
		task.Title = *body.Title
	}

	if body.Description != nil {
		task.Description = *body.Description
	}

	// Drag-and-drop sends only this field. Re-setting the current status is
	// a normal write, unknown columns are rejected before writing.
	if body.Status != nil {
		if !types.IsValidTaskStatus(*body.Status) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": invalidStatusMessage(*body.Status)})
			return
		}
		task.Status = *body.Status
	}

	if body.AssigneeID != nil && *body.AssigneeID != 0 {
		assigneeHasAccess, err := authz.HasAccess(db.DB, project, *body.AssigneeID)

		if err != nil {
			log.Printf("Failed to check access for assignee %d on project %d: %v", *body.AssigneeID, projectID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
			return
		}

		if !assigneeHasAccess {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Assignee is not a member of this project"})
			return
		}

		task.AssigneeID = *body.AssigneeID
	}

	if err := db.DB.Save(task).Error; err != nil {
		log.Printf("Failed to update task %d: %v", taskID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	if err := db.DB.Preload("Assignee").First(task, task.ID).Error; err != nil {
		log.Printf("Failed to reload task %d: %v", taskID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	BroadcastProjectRefresh(projectID, "task_updated")

	ctx.JSON(http.StatusOK, gin.H{"task": toTaskResponse(task)})
}

func DeleteTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, taskID, err := utils.GetProjectTaskID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := authz.GetProject(db.DB, projectID); err != nil {
		respondProjectLookup(ctx, err)
		return
	}

	task, err := authz.GetProjectTask(db.DB, projectID, taskID)

	if err != nil {
		respondTaskLookup(ctx, err)
		return
	}

	canEdit, err := authz.CanEditTask(db.DB, task, userID)

	if err != nil {
		log.Printf("Failed to check edit permission for user %d on task %d: %v", userID, taskID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	if !canEdit {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only the project owner or the assignee can modify this task"})
		return
	}

	if err := db.DB.Delete(task).Error; err != nil {
		log.Printf("Failed to delete task %d: %v", taskID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	BroadcastProjectRefresh(projectID, "task_deleted")

	ctx.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

func respondTaskLookup(ctx *gin.Context, err error) {
	if errors.Is(err, authz.ErrTaskNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	log.Printf("Failed to retrieve task: %v", err)
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
}
