package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"projectmanager/internal/domain/errors"
	"projectmanager/internal/domain/models"
	"projectmanager/internal/policy"
)

func (s *Service) CreateProject(ctx context.Context, ownerID string, req models.CreateProjectRequest) (*models.Project, error) {
	count, err := s.repo.CountProjectsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if count >= ProjectQuota {
		return nil, errors.ErrQuotaExceeded
	}

	project := &models.Project{
		ID:            uuid.New().String(),
		Name:          req.Name,
		Description:   req.Description,
		OwnerID:       ownerID,
		Collaborators: models.NewIDSet(),
		CreatedAt:     time.Now(),
	}
	// Хранилище повторно проверяет лимит при вставке: две одновременные
	// операции одного пользователя не создадут пятый проект.
	if err := s.repo.CreateProject(ctx, project); err != nil {
		return nil, err
	}
	log.Println("[SUCCESS] Проект создан:", project.ID)
	return project, nil
}

func (s *Service) ListProjects(ctx context.Context, principalID string) ([]models.Project, error) {
	return s.repo.GetProjectsForUser(ctx, principalID)
}

func (s *Service) GetProject(ctx context.Context, principalID, projectID string) (*models.Project, error) {
	project, err := s.repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccess(principalID, project, policy.ModeRead) {
		return nil, errors.ErrForbidden
	}
	return project, nil
}

func (s *Service) UpdateProject(ctx context.Context, principalID, projectID string, req models.UpdateProjectRequest) (*models.Project, error) {
	project, err := s.repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccess(principalID, project, policy.ModeManage) {
		return nil, errors.ErrForbidden
	}

	if req.Name != "" {
		project.Name = req.Name
	}
	if req.Description != "" {
		project.Description = req.Description
	}
	if err := s.repo.UpdateProject(ctx, projectID, project); err != nil {
		return nil, err
	}
	log.Println("[SUCCESS] Проект обновлён:", projectID)
	return project, nil
}

func (s *Service) DeleteProject(ctx context.Context, principalID, projectID string) error {
	project, err := s.repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return err
	}
	if !policy.CanAccess(principalID, project, policy.ModeManage) {
		return errors.ErrForbidden
	}
	// Вместе с проектом удаляются все его задачи и их комментарии.
	if err := s.repo.DeleteProjectCascade(ctx, projectID); err != nil {
		return err
	}
	log.Println("[SUCCESS] Проект удалён вместе с задачами:", projectID)
	return nil
}

func (s *Service) AddCollaborator(ctx context.Context, principalID, projectID, email string) (*models.Project, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, errors.ErrUserNotFound
	}

	project, err := s.repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccess(principalID, project, policy.ModeManage) {
		return nil, errors.ErrForbidden
	}
	if project.Collaborators.Contains(user.ID) {
		return nil, errors.ErrAlreadyCollaborator
	}

	project.Collaborators.Add(user.ID)
	if err := s.repo.UpdateProject(ctx, projectID, project); err != nil {
		return nil, err
	}
	log.Println("[SUCCESS] Участник добавлен в проект:", projectID, user.ID)
	return project, nil
}
