package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskboard-dev/taskboard/db"
	"github.com/taskboard-dev/taskboard/internal/authz"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/types"
	"github.com/taskboard-dev/taskboard/internal/utils"
	"gorm.io/gorm"
)

type CreateProjectRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

type UpdateProjectRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

func projectCounts(tx *gorm.DB, projectID uint) types.ProjectCounts {
	var counts types.ProjectCounts

	tx.Model(&models.Membership{}).Where("project_id = ?", projectID).Count(&counts.Members)
	tx.Model(&models.Task{}).Where("project_id = ?", projectID).Count(&counts.Tasks)

	return counts
}

func toProjectResponse(project *models.Project) types.ProjectResponse {
	return types.ProjectResponse{
		ID:      project.ID,
		Name:    project.Name,
		OwnerID: project.OwnerID,
		Owner: types.UserResponse{
			ID:    project.Owner.ID,
			Email: project.Owner.Email,
		},
		CreatedAt: project.CreatedAt,
		UpdatedAt: project.UpdatedAt,
		Counts:    projectCounts(db.DB, project.ID),
	}
}

func toTaskResponse(task *models.Task) types.TaskResponse {
	return types.TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		ProjectID:   task.ProjectID,
		AssigneeID:  task.AssigneeID,
		Assignee: types.UserResponse{
			ID:    task.Assignee.ID,
			Email: task.Assignee.Email,
		},
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}
}

func CreateProject(ctx *gin.Context) {
	var body CreateProjectRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project := models.Project{
		Name:    body.Name,
		OwnerID: userID,
	}

	// The owner's membership row is created in the same transaction so a
	// project is never left without at least one member.
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		membership := models.Membership{
			UserID:    userID,
			ProjectID: project.ID,
		}

		return tx.Create(&membership).Error
	})

	if err != nil {
		log.Printf("Failed to create project: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	if err := db.DB.Preload("Owner").First(&project, project.ID).Error; err != nil {
		log.Printf("Failed to reload project %d: %v", project.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"project": toProjectResponse(&project)})
}

func ListProjects(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var memberProjectIDs []uint

	if err := db.DB.Model(&models.Membership{}).
		Where("user_id = ?", userID).
		Pluck("project_id", &memberProjectIDs).Error; err != nil {
		log.Printf("Failed to fetch memberships for user %d: %v", userID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	query := db.DB.Preload("Owner").Order("created_at DESC")

	if len(memberProjectIDs) > 0 {
		query = query.Where("owner_id = ? OR id IN ?", userID, memberProjectIDs)
	} else {
		query = query.Where("owner_id = ?", userID)
	}

	var projects []models.Project

	if err := query.Find(&projects).Error; err != nil {
		log.Printf("Failed to fetch projects for user %d: %v", userID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	response := make([]types.ProjectResponse, 0, len(projects))

	for i := range projects {
		response = append(response, toProjectResponse(&projects[i]))
	}

	ctx.JSON(http.StatusOK, gin.H{"projects": response})
}

func GetProject(ctx *gin.Context) {
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
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		return
	}

	if !hasAccess {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this project"})
		return
	}

	if err := db.DB.Preload("Owner").First(project, project.ID).Error; err != nil {
		log.Printf("Failed to reload project %d: %v", projectID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		return
	}

	var memberships []models.Membership

	if err := db.DB.Preload("User").Where("project_id = ?", projectID).Find(&memberships).Error; err != nil {
		log.Printf("Failed to fetch members for project %d: %v", projectID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		return
	}

	var tasks []models.Task

	if err := db.DB.Preload("Assignee").
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		log.Printf("Failed to fetch tasks for project %d: %v", projectID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		return
	}

	detail := types.ProjectDetailResponse{
		ProjectResponse: toProjectResponse(project),
		Members:         make([]types.MemberResponse, 0, len(memberships)),
		Tasks:           make([]types.TaskResponse, 0, len(tasks)),
	}

	for i := range memberships {
		detail.Members = append(detail.Members, toMemberResponse(&memberships[i]))
	}

	for i := range tasks {
		detail.Tasks = append(detail.Tasks, toTaskResponse(&tasks[i]))
	}

	ctx.JSON(http.StatusOK, gin.H{"project": detail})
}

func UpdateProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body UpdateProjectRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
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

	if !authz.IsOwner(project, userID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only the owner can update this project"})
		return
	}

	project.Name = body.Name

	if err := db.DB.Save(project).Error; err != nil {
		log.Printf("Failed to update project %d: %v", projectID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}

	if err := db.DB.Preload("Owner").First(project, project.ID).Error; err != nil {
		log.Printf("Failed to reload project %d: %v", projectID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"project": toProjectResponse(project)})
}

func DeleteProject(ctx *gin.Context) {
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

	if !authz.IsOwner(project, userID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only the owner can delete this project"})
		return
	}

	// Tasks and memberships go with the project. Done explicitly rather
	// than relying on FK cascade since rows are soft-deleted.
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		if err := tx.Where("project_id = ?", projectID).Delete(&models.Membership{}).Error; err != nil {
			return err
		}

		return tx.Delete(project).Error
	})

	if err != nil {
		log.Printf("Failed to delete project %d: %v", projectID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

func respondProjectLookup(ctx *gin.Context, err error) {
	if errors.Is(err, authz.ErrProjectNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	log.Printf("Failed to retrieve project: %v", err)
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
}
