// Package authz holds the access predicates shared by every resource
// handler. Predicates always read fresh rows; nothing here is cached.
package authz

import (
	"errors"

	"github.com/taskboard-dev/taskboard/internal/models"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrTaskNotFound    = errors.New("task not found")
)

// GetProject loads a project or reports ErrProjectNotFound, so callers can
// keep "does not exist" distinct from "not allowed".
func GetProject(db *gorm.DB, projectID uint) (*models.Project, error) {
	var project models.Project

	if err := db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	return &project, nil
}

// GetProjectTask loads a task scoped to its project.
func GetProjectTask(db *gorm.DB, projectID, taskID uint) (*models.Task, error) {
	var task models.Task

	if err := db.Where("id = ? AND project_id = ?", taskID, projectID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	return &task, nil
}

// IsOwner reports whether userID owns the project.
func IsOwner(project *models.Project, userID uint) bool {
	return project.OwnerID == userID
}

// HasAccess reports whether userID may view the project: ownership or an
// explicit membership row. The owner also gets a membership row at project
// creation, so the ownership check is redundant-safe.
func HasAccess(db *gorm.DB, project *models.Project, userID uint) (bool, error) {
	if IsOwner(project, userID) {
		return true, nil
	}

	var count int64

	err := db.Model(&models.Membership{}).
		Where("user_id = ? AND project_id = ?", userID, project.ID).
		Count(&count).Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// CanEditTask reports whether userID may update or delete the task: the
// project owner or the current assignee. The pre-update assignee authorizes
// the edit, including one that reassigns away from themselves.
func CanEditTask(db *gorm.DB, task *models.Task, userID uint) (bool, error) {
	if task.AssigneeID == userID {
		return true, nil
	}

	project, err := GetProject(db, task.ProjectID)

	if err != nil {
		return false, err
	}

	return IsOwner(project, userID), nil
}
