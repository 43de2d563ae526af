package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"github.com/taskboard-dev/taskboard/db"
	"github.com/taskboard-dev/taskboard/internal/auth"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/router"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// setupServer wires the real router against a fresh in-memory database.
// Handlers read the db.DB global, so tests in this package do not run in
// parallel.
func setupServer(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")
	require.NoError(t, auth.InitJWTSecret())

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()))

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	db.DB = gdb
	require.NoError(t, db.MigrateDatabase())

	return router.NewRouter()
}

// createUser inserts a user directly and returns a valid session token for
// them. The register/login endpoints have their own tests.
func createUser(t *testing.T, email string) (uint, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{Email: email, PasswordHash: string(hash)}
	require.NoError(t, db.DB.Create(&user).Error)

	token, err := auth.GenerateJWT(user.ID, user.Email)
	require.NoError(t, err)

	return user.ID, token
}

func doRequest(t *testing.T, r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

type userPayload struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

type memberPayload struct {
	ID     uint        `json:"id"`
	UserID uint        `json:"user_id"`
	User   userPayload `json:"user"`
}

type taskPayload struct {
	ID          uint        `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Status      string      `json:"status"`
	ProjectID   uint        `json:"project_id"`
	AssigneeID  uint        `json:"assignee_id"`
	Assignee    userPayload `json:"assignee"`
}

type countsPayload struct {
	Members int64 `json:"members"`
	Tasks   int64 `json:"tasks"`
}

type projectPayload struct {
	ID      uint            `json:"id"`
	Name    string          `json:"name"`
	OwnerID uint            `json:"owner_id"`
	Owner   userPayload     `json:"owner"`
	Counts  countsPayload   `json:"_count"`
	Members []memberPayload `json:"members"`
	Tasks   []taskPayload   `json:"tasks"`
}

// createProject makes a project through the API and returns its id.
func createProject(t *testing.T, r http.Handler, token, name string) uint {
	t.Helper()

	w := doRequest(t, r, http.MethodPost, "/api/projects", token, gin.H{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Project projectPayload `json:"project"`
	}
	decodeBody(t, w, &resp)
	require.NotZero(t, resp.Project.ID)

	return resp.Project.ID
}

// addMember adds an existing user to a project through the API.
func addMember(t *testing.T, r http.Handler, token string, projectID uint, email string) {
	t.Helper()

	path := fmt.Sprintf("/api/projects/%d/members", projectID)
	w := doRequest(t, r, http.MethodPost, path, token, gin.H{"email": email})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

// createTask makes a task through the API and returns its payload.
func createTask(t *testing.T, r http.Handler, token string, projectID uint, body gin.H) taskPayload {
	t.Helper()

	path := fmt.Sprintf("/api/projects/%d/tasks", projectID)
	w := doRequest(t, r, http.MethodPost, path, token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Task taskPayload `json:"task"`
	}
	decodeBody(t, w, &resp)

	return resp.Task
}
