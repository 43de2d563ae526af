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

type AddMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func toMemberResponse(membership *models.Membership) types.MemberResponse {
	return types.MemberResponse{
		ID:     membership.ID,
		UserID: membership.UserID,
		User: types.UserResponse{
			ID:    membership.User.ID,
			Email: membership.User.Email,
		},
		CreatedAt: membership.CreatedAt,
	}
}

func ListMembers(ctx *gin.Context) {
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
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve members"})
		return
	}

	if !hasAccess {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this project"})
		return
	}

	var memberships []models.Membership

	if err := db.DB.Preload("User").Where("project_id = ?", projectID).Find(&memberships).Error; err != nil {
		log.Printf("Failed to fetch members for project %d: %v", projectID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve members"})
		return
	}

	response := make([]types.MemberResponse, 0, len(memberships))

	for i := range memberships {
		response = append(response, toMemberResponse(&memberships[i]))
	}

	ctx.JSON(http.StatusOK, gin.H{"members": response})
}

func AddMember(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body AddMemberRequest

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
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only the owner can add members"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))

	var targetUser models.User

	if err := db.DB.Where("email = ?", email).First(&targetUser).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "No user with this email"})
			return
		}
		log.Printf("Failed to look up user %q: %v", email, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
		return
	}

	var existing models.Membership

	err = db.DB.Where("user_id = ? AND project_id = ?", targetUser.ID, projectID).First(&existing).Error

	if err == nil {
		ctx.JSON(http.StatusConflict, gin.H{"error": "User is already a member of this project"})
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Failed to check membership for user %d on project %d: %v", targetUser.ID, projectID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
		return
	}

	membership := models.Membership{
		UserID:    targetUser.ID,
		ProjectID: projectID,
	}

	if err := db.DB.Create(&membership).Error; err != nil {
		log.Printf("Failed to add member %d to project %d: %v", targetUser.ID, projectID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
		return
	}

	membership.User = targetUser
	BroadcastProjectRefresh(projectID, "members_changed")

	ctx.JSON(http.StatusCreated, gin.H{"member": toMemberResponse(&membership)})
}

func RemoveMember(ctx *gin.Context) {
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

	targetUserID, err := utils.GetUserIDParam(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := authz.GetProject(db.DB, projectID)

	if err != nil {
		respondProjectLookup(ctx, err)
		return
	}

	// Owner removes anyone, a member removes only themselves
	if !authz.IsOwner(project, userID) && targetUserID != userID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to remove this member"})
		return
	}

	// The owner can never leave their own project
	if targetUserID == project.OwnerID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "The project owner cannot be removed"})
		return
	}

	var membership models.Membership

	if err := db.DB.Where("user_id = ? AND project_id = ?", targetUserID, projectID).First(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User is not a member of this project"})
			return
		}
		log.Printf("Failed to check membership for user %d on project %d: %v", targetUserID, projectID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
		return
	}

	// The leaver's tasks go back to the owner before the membership row is
	// dropped, in one transaction, so no task ever points at a user without
	// access.
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Task{}).
			Where("project_id = ? AND assignee_id = ?", projectID, targetUserID).
			Update("assignee_id", project.OwnerID).Error; err != nil {
			return err
		}

		// Hard delete: the unique (user, project) index must not block a
		// later re-invite.
		return tx.Unscoped().Delete(&membership).Error
	})

	if err != nil {
		log.Printf("Failed to remove member %d from project %d: %v", targetUserID, projectID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
		return
	}

	BroadcastProjectRefresh(projectID, "members_changed")

	message := "Member removed successfully"
	if targetUserID == userID {
		message = "You have left the project"
	}

	ctx.JSON(http.StatusOK, gin.H{"message": message})
}
