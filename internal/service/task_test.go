package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projectmanager/internal/domain/errors"
	"projectmanager/internal/domain/models"
)

func createTask(t *testing.T, svc *Service, principalID, projectID, title string) *models.Task {
	t.Helper()
	task, err := svc.CreateTask(context.Background(), principalID, models.CreateTaskRequest{
		ProjectID: projectID,
		Title:     title,
	})
	require.NoError(t, err)
	return task
}

func TestCreateTask(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	owner := registerUser(t, svc, "owner@example.com")
	collab := registerUser(t, svc, "collab@example.com")
	stranger := registerUser(t, svc, "stranger@example.com")

	project := createProject(t, svc, owner.ID, "Проект")
	_, err := svc.AddCollaborator(ctx, owner.ID, project.ID, "collab@example.com")
	require.NoError(t, err)

	task := createTask(t, svc, owner.ID, project.ID, "Первая")
	assert.Equal(t, models.StatusNotStarted, task.Status)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.Nil(t, task.CompletedAt)
	assert.Equal(t, owner.ID, task.CreatedBy)

	collabTask := createTask(t, svc, collab.ID, project.ID, "От участника")
	assert.Equal(t, collab.ID, collabTask.CreatedBy)

	_, err = svc.CreateTask(ctx, stranger.ID, models.CreateTaskRequest{ProjectID: project.ID, Title: "Чужая"})
	assert.ErrorIs(t, err, errors.ErrForbidden)

	_, err = svc.CreateTask(ctx, owner.ID, models.CreateTaskRequest{ProjectID: "missing", Title: "Никуда"})
	assert.ErrorIs(t, err, errors.ErrProjectNotFound)
}

func TestUpdateTaskStatusTransitions(t *testing.T) {
	statuses := []string{models.StatusNotStarted, models.StatusInProgress, models.StatusCompleted}

	// Все девять пар переходов, включая переход в тот же статус. После
	// каждого обновления completedAt заполнено тогда и только тогда,
	// когда статус Completed.
	for _, from := range statuses {
		for _, to := range statuses {
			t.Run(from+" -> "+to, func(t *testing.T) {
				svc := newTestService(t)
				ctx := context.Background()
				owner := registerUser(t, svc, "owner@example.com")
				project := createProject(t, svc, owner.ID, "Проект")
				task := createTask(t, svc, owner.ID, project.ID, "Задача")

				if from != models.StatusNotStarted {
					_, err := svc.UpdateTask(ctx, owner.ID, task.ID, models.UpdateTaskRequest{Status: from})
					require.NoError(t, err)
				}

				before, err := svc.GetTask(ctx, owner.ID, task.ID)
				require.NoError(t, err)
				var beforeCompletedAt *time.Time
				if before.CompletedAt != nil {
					v := *before.CompletedAt
					beforeCompletedAt = &v
				}

				updated, err := svc.UpdateTask(ctx, owner.ID, task.ID, models.UpdateTaskRequest{Status: to})
				require.NoError(t, err)

				assert.Equal(t, to, updated.Status)
				if to == models.StatusCompleted {
					require.NotNil(t, updated.CompletedAt)
					if from == models.StatusCompleted {
						assert.Equal(t, beforeCompletedAt, updated.CompletedAt, "повторный Completed не трогает отметку")
					}
				} else {
					assert.Nil(t, updated.CompletedAt)
				}
			})
		}
	}
}

func TestUpdateTaskPartial(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	owner := registerUser(t, svc, "owner@example.com")
	project := createProject(t, svc, owner.ID, "Проект")

	due := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
	task, err := svc.CreateTask(ctx, owner.ID, models.CreateTaskRequest{
		ProjectID:   project.ID,
		Title:       "Задача",
		Description: "старое описание",
		Priority:    models.PriorityHigh,
		DueDate:     &due,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateTask(ctx, owner.ID, task.ID, models.UpdateTaskRequest{Title: "Новый заголовок"})
	assert.NoError(t, err)
	assert.Equal(t, "Новый заголовок", updated.Title)
	assert.Equal(t, "старое описание", updated.Description)
	assert.Equal(t, models.PriorityHigh, updated.Priority)
	assert.Equal(t, due, updated.DueDate.UTC())
	assert.Equal(t, models.StatusNotStarted, updated.Status)
}

func TestTaskAccess(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	owner := registerUser(t, svc, "owner@example.com")
	collab := registerUser(t, svc, "collab@example.com")
	stranger := registerUser(t, svc, "stranger@example.com")

	project := createProject(t, svc, owner.ID, "Проект")
	_, err := svc.AddCollaborator(ctx, owner.ID, project.ID, "collab@example.com")
	require.NoError(t, err)
	task := createTask(t, svc, owner.ID, project.ID, "Задача")

	// Участник читает и обновляет.
	_, err = svc.GetTask(ctx, collab.ID, task.ID)
	assert.NoError(t, err)
	_, err = svc.UpdateTask(ctx, collab.ID, task.ID, models.UpdateTaskRequest{Title: "Правка участника"})
	assert.NoError(t, err)

	// Посторонний получает forbidden на существующей задаче.
	_, err = svc.GetTask(ctx, stranger.ID, task.ID)
	assert.ErrorIs(t, err, errors.ErrForbidden)
	_, err = svc.UpdateTask(ctx, stranger.ID, task.ID, models.UpdateTaskRequest{Title: "Чужая правка"})
	assert.ErrorIs(t, err, errors.ErrForbidden)

	// Несуществующая задача — notfound, в том числе для постороннего.
	_, err = svc.GetTask(ctx, stranger.ID, "missing")
	assert.ErrorIs(t, err, errors.ErrTaskNotFound)
	_, err = svc.GetTask(ctx, owner.ID, "missing")
	assert.ErrorIs(t, err, errors.ErrTaskNotFound)
}

func TestDeleteTaskOwnerOnly(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	owner := registerUser(t, svc, "owner@example.com")
	collab := registerUser(t, svc, "collab@example.com")

	project := createProject(t, svc, owner.ID, "Проект")
	_, err := svc.AddCollaborator(ctx, owner.ID, project.ID, "collab@example.com")
	require.NoError(t, err)

	// Участник создаёт задачу, но удалить её не может даже он сам.
	task := createTask(t, svc, collab.ID, project.ID, "Задача участника")
	assert.ErrorIs(t, svc.DeleteTask(ctx, collab.ID, task.ID), errors.ErrForbidden)

	assert.NoError(t, svc.DeleteTask(ctx, owner.ID, task.ID))
	assert.ErrorIs(t, svc.DeleteTask(ctx, owner.ID, task.ID), errors.ErrTaskNotFound)
}

func TestDeleteProjectCascade(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	owner := registerUser(t, svc, "owner@example.com")

	project := createProject(t, svc, owner.ID, "Проект")
	t1 := createTask(t, svc, owner.ID, project.ID, "T1")
	t2 := createTask(t, svc, owner.ID, project.ID, "T2")
	_, err := svc.AddComment(ctx, owner.ID, t1.ID, "комментарий")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProject(ctx, owner.ID, project.ID))

	_, err = svc.GetTask(ctx, owner.ID, t1.ID)
	assert.ErrorIs(t, err, errors.ErrTaskNotFound)
	_, err = svc.GetTask(ctx, owner.ID, t2.ID)
	assert.ErrorIs(t, err, errors.ErrTaskNotFound)
}

func TestAddComment(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	owner := registerUser(t, svc, "owner@example.com")
	collab := registerUser(t, svc, "collab@example.com")
	stranger := registerUser(t, svc, "stranger@example.com")

	project := createProject(t, svc, owner.ID, "Проект")
	_, err := svc.AddCollaborator(ctx, owner.ID, project.ID, "collab@example.com")
	require.NoError(t, err)
	task := createTask(t, svc, owner.ID, project.ID, "Задача")

	first, err := svc.AddComment(ctx, owner.ID, task.ID, "первый")
	assert.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.AddComment(ctx, collab.ID, task.ID, "второй")
	assert.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, "второй", second[0].Text, "новые комментарии идут первыми")
	assert.Equal(t, "первый", second[1].Text)
	assert.Equal(t, collab.ID, second[0].AuthorID)

	_, err = svc.AddComment(ctx, stranger.ID, task.ID, "чужой")
	assert.ErrorIs(t, err, errors.ErrForbidden)

	_, err = svc.AddComment(ctx, owner.ID, "missing", "в никуда")
	assert.ErrorIs(t, err, errors.ErrTaskNotFound)
}

func TestAddCommentWhitespaceOnly(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	owner := registerUser(t, svc, "owner@example.com")
	project := createProject(t, svc, owner.ID, "Проект")
	task := createTask(t, svc, owner.ID, project.ID, "Задача")

	for _, text := range []string{"", "   ", "\t\n "} {
		_, err := svc.AddComment(ctx, owner.ID, task.ID, text)
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	}

	// Список комментариев при этом не изменился.
	got, err := svc.GetTask(ctx, owner.ID, task.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Comments)
}
