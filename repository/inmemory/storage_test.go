package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projectmanager/internal/domain/errors"
	"projectmanager/internal/domain/models"
)

func testUser(id, email string) *models.User {
	return &models.User{
		ID:        id,
		Name:      "Test",
		Email:     email,
		Country:   "Latvia",
		Password:  "hash",
		CreatedAt: time.Now(),
	}
}

func testProject(id, ownerID string) *models.Project {
	return &models.Project{
		ID:            id,
		Name:          "Проект",
		Description:   "описание",
		OwnerID:       ownerID,
		Collaborators: models.NewIDSet(),
		CreatedAt:     time.Now(),
	}
}

func testTask(id, projectID string) *models.Task {
	return &models.Task{
		ID:        id,
		ProjectID: projectID,
		Title:     "Задача",
		Status:    models.StatusNotStarted,
		Priority:  models.PriorityMedium,
		CreatedBy: "u1",
		CreatedAt: time.Now(),
	}
}

func TestUserCRUD(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, testUser("u1", "a@example.com")))
	assert.ErrorIs(t, s.CreateUser(ctx, testUser("u2", "a@example.com")), errors.ErrUserAlreadyExists)

	got, err := s.GetUserByID(ctx, "u1")
	assert.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)

	got, err = s.GetUserByEmail(ctx, "a@example.com")
	assert.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	_, err = s.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, errors.ErrUserNotFound)
	_, err = s.GetUserByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, errors.ErrUserNotFound)

	got.Name = "Renamed"
	assert.NoError(t, s.UpdateUser(ctx, "u1", got))
	got, err = s.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)

	assert.ErrorIs(t, s.UpdateUser(ctx, "missing", got), errors.ErrUserNotFound)
}

func TestEmailIsCaseSensitive(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, testUser("u1", "User@Example.com")))
	_, err := s.GetUserByEmail(ctx, "user@example.com")
	assert.ErrorIs(t, err, errors.ErrUserNotFound)
	_, err = s.GetUserByEmail(ctx, "User@Example.com")
	assert.NoError(t, err)
}

func TestProjectQuotaEnforcedAtInsert(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, s.CreateProject(ctx, testProject(fmt.Sprintf("p%d", i), "owner")))
	}
	assert.ErrorIs(t, s.CreateProject(ctx, testProject("p4", "owner")), errors.ErrQuotaExceeded)

	count, err := s.CountProjectsByOwner(ctx, "owner")
	assert.NoError(t, err)
	assert.Equal(t, 4, count)

	// Чужой владелец лимитом не задет.
	assert.NoError(t, s.CreateProject(ctx, testProject("q1", "other")))
}

func TestProjectQuotaConcurrent(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.CreateProject(ctx, testProject(fmt.Sprintf("p%d", i), "owner"))
		}(i)
	}
	wg.Wait()

	count, err := s.CountProjectsByOwner(ctx, "owner")
	assert.NoError(t, err)
	assert.Equal(t, 4, count, "одновременные вставки не обходят лимит")
}

func TestProjectCollaborators(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	p := testProject("p1", "owner")
	require.NoError(t, s.CreateProject(ctx, p))

	p.Collaborators.Add("collab")
	require.NoError(t, s.UpdateProject(ctx, "p1", p))

	got, err := s.GetProjectByID(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, got.Collaborators.Contains("collab"))

	// Копия из хранилища не делит множество с вызывающим.
	got.Collaborators.Add("intruder")
	again, err := s.GetProjectByID(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, again.Collaborators.Contains("intruder"))
}

func TestGetProjectsForUser(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	own := testProject("p1", "alice")
	require.NoError(t, s.CreateProject(ctx, own))

	shared := testProject("p2", "bob")
	shared.Collaborators.Add("alice")
	require.NoError(t, s.CreateProject(ctx, shared))

	other := testProject("p3", "bob")
	require.NoError(t, s.CreateProject(ctx, other))

	projects, err := s.GetProjectsForUser(ctx, "alice")
	assert.NoError(t, err)
	require.Len(t, projects, 2)
	ids := []string{projects[0].ID, projects[1].ID}
	assert.Contains(t, ids, "p1")
	assert.Contains(t, ids, "p2")
}

func TestTaskCRUD(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	require.NoError(t, s.CreateProject(ctx, testProject("p1", "owner")))
	require.NoError(t, s.CreateTask(ctx, testTask("t1", "p1")))
	require.NoError(t, s.CreateTask(ctx, testTask("t2", "p1")))

	got, err := s.GetTaskByID(ctx, "t1")
	assert.NoError(t, err)
	assert.Equal(t, "p1", got.ProjectID)

	_, err = s.GetTaskByID(ctx, "missing")
	assert.ErrorIs(t, err, errors.ErrTaskNotFound)

	tasks, err := s.GetTasksByProject(ctx, "p1")
	assert.NoError(t, err)
	assert.Len(t, tasks, 2)

	got.Title = "Новый заголовок"
	assert.NoError(t, s.UpdateTask(ctx, "t1", got))
	got, err = s.GetTaskByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Новый заголовок", got.Title)

	assert.ErrorIs(t, s.UpdateTask(ctx, "missing", got), errors.ErrTaskNotFound)

	assert.NoError(t, s.DeleteTask(ctx, "t1"))
	assert.ErrorIs(t, s.DeleteTask(ctx, "t1"), errors.ErrTaskNotFound)
}

func TestCommentsNewestFirst(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()
	require.NoError(t, s.CreateTask(ctx, testTask("t1", "p1")))

	for i, text := range []string{"первый", "второй", "третий"} {
		require.NoError(t, s.AddComment(ctx, &models.Comment{
			ID:        fmt.Sprintf("c%d", i),
			TaskID:    "t1",
			Text:      text,
			AuthorID:  "u1",
			CreatedAt: time.Now(),
		}))
	}

	comments, err := s.GetCommentsByTask(ctx, "t1")
	assert.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "третий", comments[0].Text)
	assert.Equal(t, "первый", comments[2].Text)

	assert.ErrorIs(t, s.AddComment(ctx, &models.Comment{ID: "cx", TaskID: "missing"}), errors.ErrTaskNotFound)
	_, err = s.GetCommentsByTask(ctx, "missing")
	assert.ErrorIs(t, err, errors.ErrTaskNotFound)
}

func TestDeleteProjectCascade(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	require.NoError(t, s.CreateProject(ctx, testProject("p1", "owner")))
	require.NoError(t, s.CreateProject(ctx, testProject("p2", "owner")))
	require.NoError(t, s.CreateTask(ctx, testTask("t1", "p1")))
	require.NoError(t, s.CreateTask(ctx, testTask("t2", "p1")))
	require.NoError(t, s.CreateTask(ctx, testTask("t3", "p2")))
	require.NoError(t, s.AddComment(ctx, &models.Comment{ID: "c1", TaskID: "t1", Text: "x", AuthorID: "u1"}))

	require.NoError(t, s.DeleteProjectCascade(ctx, "p1"))

	_, err := s.GetProjectByID(ctx, "p1")
	assert.ErrorIs(t, err, errors.ErrProjectNotFound)
	_, err = s.GetTaskByID(ctx, "t1")
	assert.ErrorIs(t, err, errors.ErrTaskNotFound)
	_, err = s.GetTaskByID(ctx, "t2")
	assert.ErrorIs(t, err, errors.ErrTaskNotFound)

	// Соседний проект не задет.
	_, err = s.GetTaskByID(ctx, "t3")
	assert.NoError(t, err)

	assert.ErrorIs(t, s.DeleteProjectCascade(ctx, "missing"), errors.ErrProjectNotFound)
}
