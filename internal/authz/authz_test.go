package authz_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskboard-dev/taskboard/internal/authz"
	"github.com/taskboard-dev/taskboard/internal/models"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, gdb.AutoMigrate(&models.User{}, &models.Project{}, &models.Membership{}, &models.Task{}))

	return gdb
}

func seedUser(t *testing.T, gdb *gorm.DB, email string) models.User {
	t.Helper()

	user := models.User{Email: email, PasswordHash: "x"}
	require.NoError(t, gdb.Create(&user).Error)

	return user
}

func seedProject(t *testing.T, gdb *gorm.DB, owner models.User) models.Project {
	t.Helper()

	project := models.Project{Name: "Launch", OwnerID: owner.ID}
	require.NoError(t, gdb.Create(&project).Error)
	// Mirror project creation: the owner gets an explicit membership row
	require.NoError(t, gdb.Create(&models.Membership{UserID: owner.ID, ProjectID: project.ID}).Error)

	return project
}

func TestHasAccess_BothDirections(t *testing.T) {
	gdb := newTestDB(t)

	owner := seedUser(t, gdb, "owner@example.com")
	member := seedUser(t, gdb, "member@example.com")
	stranger := seedUser(t, gdb, "stranger@example.com")

	project := seedProject(t, gdb, owner)
	require.NoError(t, gdb.Create(&models.Membership{UserID: member.ID, ProjectID: project.ID}).Error)

	for _, tt := range []struct {
		name   string
		userID uint
		want   bool
	}{
		{"owner", owner.ID, true},
		{"member", member.ID, true},
		{"stranger", stranger.ID, false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got, err := authz.HasAccess(gdb, &project, tt.userID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Ownership grants access even if the owner's membership row is somehow
// missing; the row is redundant-safe, not load-bearing.
func TestHasAccess_OwnerWithoutMembershipRow(t *testing.T) {
	gdb := newTestDB(t)

	owner := seedUser(t, gdb, "owner@example.com")
	project := models.Project{Name: "Bare", OwnerID: owner.ID}
	require.NoError(t, gdb.Create(&project).Error)

	got, err := authz.HasAccess(gdb, &project, owner.ID)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestIsOwner(t *testing.T) {
	gdb := newTestDB(t)

	owner := seedUser(t, gdb, "owner@example.com")
	other := seedUser(t, gdb, "other@example.com")
	project := seedProject(t, gdb, owner)

	assert.True(t, authz.IsOwner(&project, owner.ID))
	assert.False(t, authz.IsOwner(&project, other.ID))
}

func TestCanEditTask(t *testing.T) {
	gdb := newTestDB(t)

	owner := seedUser(t, gdb, "owner@example.com")
	assignee := seedUser(t, gdb, "assignee@example.com")
	bystander := seedUser(t, gdb, "bystander@example.com")

	project := seedProject(t, gdb, owner)
	for _, u := range []models.User{assignee, bystander} {
		require.NoError(t, gdb.Create(&models.Membership{UserID: u.ID, ProjectID: project.ID}).Error)
	}

	task := models.Task{Title: "Design", Status: "todo", ProjectID: project.ID, AssigneeID: assignee.ID}
	require.NoError(t, gdb.Create(&task).Error)

	for _, tt := range []struct {
		name   string
		userID uint
		want   bool
	}{
		{"project owner", owner.ID, true},
		{"current assignee", assignee.ID, true},
		{"plain member", bystander.ID, false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got, err := authz.CanEditTask(gdb, &task, tt.userID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetProject_NotFound(t *testing.T) {
	gdb := newTestDB(t)

	_, err := authz.GetProject(gdb, 9999)
	assert.ErrorIs(t, err, authz.ErrProjectNotFound)
}

func TestGetProjectTask_NotFound(t *testing.T) {
	gdb := newTestDB(t)

	owner := seedUser(t, gdb, "owner@example.com")
	project := seedProject(t, gdb, owner)

	_, err := authz.GetProjectTask(gdb, project.ID, 42)
	assert.ErrorIs(t, err, authz.ErrTaskNotFound)
}
