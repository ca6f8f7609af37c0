package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"projectmanager/internal/domain/errors"
	"projectmanager/internal/domain/models"
	"projectmanager/internal/policy"
)

func (s *Service) CreateTask(ctx context.Context, principalID string, req models.CreateTaskRequest) (*models.Task, error) {
	project, err := s.repo.GetProjectByID(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccess(principalID, project, policy.ModeWrite) {
		return nil, errors.ErrForbidden
	}

	status := req.Status
	if status == "" {
		status = models.StatusNotStarted
	}
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	task := &models.Task{
		ID:          uuid.New().String(),
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     req.DueDate,
		Comments:    []models.Comment{},
		CreatedBy:   principalID,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	log.Println("[SUCCESS] Задача создана:", task.ID)
	return task, nil
}

func (s *Service) ListTasks(ctx context.Context, principalID, projectID string) ([]models.Task, error) {
	project, err := s.repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccess(principalID, project, policy.ModeRead) {
		return nil, errors.ErrForbidden
	}
	return s.repo.GetTasksByProject(ctx, projectID)
}

func (s *Service) GetTask(ctx context.Context, principalID, taskID string) (*models.Task, error) {
	task, project, err := s.resolveTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccessTask(principalID, task, project, policy.ModeRead) {
		return nil, errors.ErrForbidden
	}
	return task, nil
}

func (s *Service) UpdateTask(ctx context.Context, principalID, taskID string, req models.UpdateTaskRequest) (*models.Task, error) {
	task, project, err := s.resolveTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccessTask(principalID, task, project, policy.ModeWrite) {
		return nil, errors.ErrForbidden
	}

	if req.Title != "" {
		task.Title = req.Title
	}
	if req.Description != "" {
		task.Description = req.Description
	}
	if req.Priority != "" {
		task.Priority = req.Priority
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.Status != "" {
		applyStatus(task, req.Status, time.Now())
	}

	if err := s.repo.UpdateTask(ctx, taskID, task); err != nil {
		return nil, err
	}
	log.Println("[SUCCESS] Задача обновлена:", taskID)
	return task, nil
}

// applyStatus переводит задачу в новый статус и поддерживает инвариант:
// completedAt заполнено тогда и только тогда, когда статус Completed.
// Переход в тот же статус отметку не трогает.
func applyStatus(task *models.Task, status string, now time.Time) {
	if status == task.Status {
		return
	}
	task.Status = status
	if status == models.StatusCompleted {
		task.CompletedAt = &now
	} else {
		task.CompletedAt = nil
	}
}

func (s *Service) DeleteTask(ctx context.Context, principalID, taskID string) error {
	task, project, err := s.resolveTask(ctx, taskID)
	if err != nil {
		return err
	}
	// Удалять задачи может только владелец проекта, участникам
	// доступно лишь создание и изменение.
	if !policy.CanAccessTask(principalID, task, project, policy.ModeManage) {
		return errors.ErrForbidden
	}
	if err := s.repo.DeleteTask(ctx, taskID); err != nil {
		return err
	}
	log.Println("[SUCCESS] Задача удалена:", taskID)
	return nil
}

func (s *Service) AddComment(ctx context.Context, principalID, taskID, text string) ([]models.Comment, error) {
	task, project, err := s.resolveTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccessTask(principalID, task, project, policy.ModeWrite) {
		return nil, errors.ErrForbidden
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.ErrInvalidInput
	}

	comment := &models.Comment{
		ID:        uuid.New().String(),
		TaskID:    taskID,
		Text:      text,
		AuthorID:  principalID,
		CreatedAt: time.Now(),
	}
	if err := s.repo.AddComment(ctx, comment); err != nil {
		return nil, err
	}
	log.Println("[SUCCESS] Комментарий добавлен к задаче:", taskID)
	return s.repo.GetCommentsByTask(ctx, taskID)
}

// resolveTask загружает задачу и её родительский проект. Сначала
// проверяется существование, затем права: несуществующий ресурс всегда
// даёт NotFound независимо от принципала.
func (s *Service) resolveTask(ctx context.Context, taskID string) (*models.Task, *models.Project, error) {
	task, err := s.repo.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	project, err := s.repo.GetProjectByID(ctx, task.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return task, project, nil
}
