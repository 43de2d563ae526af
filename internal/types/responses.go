package types

import "time"

type UserResponse struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

type MemberResponse struct {
	ID        uint         `json:"id"`
	UserID    uint         `json:"user_id"`
	User      UserResponse `json:"user"`
	CreatedAt time.Time    `json:"created_at"`
}

type TaskResponse struct {
	ID          uint         `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      string       `json:"status"`
	ProjectID   uint         `json:"project_id"`
	AssigneeID  uint         `json:"assignee_id"`
	Assignee    UserResponse `json:"assignee"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type ProjectCounts struct {
	Members int64 `json:"members"`
	Tasks   int64 `json:"tasks"`
}

type ProjectResponse struct {
	ID        uint          `json:"id"`
	Name      string        `json:"name"`
	OwnerID   uint          `json:"owner_id"`
	Owner     UserResponse  `json:"owner"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Counts    ProjectCounts `json:"_count"`
}

type ProjectDetailResponse struct {
	ProjectResponse
	Members []MemberResponse `json:"members"`
	Tasks   []TaskResponse   `json:"tasks"`
}
