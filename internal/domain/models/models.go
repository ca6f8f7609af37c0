package models

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	StatusNotStarted = "Not Started"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"

	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// IDSet — множество идентификаторов пользователей. Сериализуется как
// отсортированный JSON-массив, порядок элементов значения не имеет.
type IDSet map[string]struct{}

func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Add(id string) {
	s[id] = struct{}{}
}

func (s IDSet) Values() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}

type User struct {
	ID        string    `json:"id" validate:"omitempty,uuid"`
	Name      string    `json:"name" validate:"required,min=1,max=100"`
	Email     string    `json:"email" validate:"required,email"`
	Country   string    `json:"country" validate:"required,min=1,max=100"`
	Password  string    `json:"-" validate:"required"`
	CreatedAt time.Time `json:"createdAt"`
}

type Project struct {
	ID            string    `json:"id" validate:"omitempty,uuid"`
	Name          string    `json:"name" validate:"required,min=1,max=100"`
	Description   string    `json:"description" validate:"required,max=500"`
	OwnerID       string    `json:"ownerId"`
	Collaborators IDSet     `json:"collaborators"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Task struct {
	ID          string     `json:"id" validate:"omitempty,uuid"`
	ProjectID   string     `json:"projectId"`
	Title       string     `json:"title" validate:"required,min=1,max=100"`
	Description string     `json:"description" validate:"omitempty,max=500"`
	Status      string     `json:"status" validate:"required"`
	Priority    string     `json:"priority" validate:"required"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Comments    []Comment  `json:"comments"`
	CreatedBy   string     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type Comment struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"taskId"`
	Text      string    `json:"text"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=100"`
	Country  string `json:"country" validate:"required,min=1,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Name    string `json:"name" validate:"omitempty,min=1,max=100"`
	Country string `json:"country" validate:"omitempty,min=1,max=100"`
}

type CreateProjectRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"required,max=500"`
}

type UpdateProjectRequest struct {
	Name        string `json:"name" validate:"omitempty,min=1,max=100"`
	Description string `json:"description" validate:"omitempty,max=500"`
}

type AddCollaboratorRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type CreateTaskRequest struct {
	ProjectID   string     `json:"projectId" validate:"required"`
	Title       string     `json:"title" validate:"required,min=1,max=100"`
	Description string     `json:"description" validate:"omitempty,max=500"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
}

type UpdateTaskRequest struct {
	Title       string     `json:"title" validate:"omitempty,min=1,max=100"`
	Description string     `json:"description" validate:"omitempty,max=500"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
}

type AddCommentRequest struct {
	Text string `json:"text" validate:"required"`
}
