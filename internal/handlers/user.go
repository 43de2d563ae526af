package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskboard-dev/taskboard/db"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/types"
	"github.com/taskboard-dev/taskboard/internal/utils"
)

const searchResultLimit = 10

// SearchUsers backs the member-invite autocomplete.
func SearchUsers(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	query := strings.TrimSpace(ctx.Query("q"))

	if len(query) < 2 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Query must be at least 2 characters"})
		return
	}

	var users []models.User

	// Emails are stored lowercase, so lowering the pattern gives a
	// case-insensitive match on every dialect.
	pattern := "%" + strings.ToLower(query) + "%"

	if err := db.DB.Where("email LIKE ? AND id != ?", pattern, userID).
		Order("email ASC").
		Limit(searchResultLimit).
		Find(&users).Error; err != nil {
		log.Printf("Failed to search users for %q: %v", query, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search users"})
		return
	}

	response := make([]types.UserResponse, 0, len(users))

	for _, user := range users {
		response = append(response, types.UserResponse{
			ID:    user.ID,
			Email: user.Email,
		})
	}

	ctx.JSON(http.StatusOK, gin.H{"users": response})
}
