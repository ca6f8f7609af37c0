// Package service реализует прикладную логику трекера: учётные записи,
// проекты с лимитом на владельца, задачи со статусной машиной и
// комментарии. Все операции получают контекст и явный дескриптор
// хранилища через Repository.
package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"projectmanager/internal/auth"
	"projectmanager/internal/domain/errors"
	"projectmanager/internal/domain/models"
)

// ProjectQuota — максимум одновременно принадлежащих пользователю проектов.
const ProjectQuota = 4

type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, user *models.User) error

	CreateProject(ctx context.Context, project *models.Project) error
	GetProjectByID(ctx context.Context, id string) (*models.Project, error)
	GetProjectsForUser(ctx context.Context, userID string) ([]models.Project, error)
	CountProjectsByOwner(ctx context.Context, ownerID string) (int, error)
	UpdateProject(ctx context.Context, id string, project *models.Project) error
	DeleteProjectCascade(ctx context.Context, id string) error

	CreateTask(ctx context.Context, task *models.Task) error
	GetTaskByID(ctx context.Context, id string) (*models.Task, error)
	GetTasksByProject(ctx context.Context, projectID string) ([]models.Task, error)
	UpdateTask(ctx context.Context, id string, task *models.Task) error
	DeleteTask(ctx context.Context, id string) error

	AddComment(ctx context.Context, comment *models.Comment) error
	GetCommentsByTask(ctx context.Context, taskID string) ([]models.Comment, error)
}

type Service struct {
	repo   Repository
	tokens *auth.TokenManager
}

func New(repo Repository, tokens *auth.TokenManager) *Service {
	if repo == nil || tokens == nil {
		return nil
	}
	return &Service{repo: repo, tokens: tokens}
}

func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.User, string, error) {
	if existing, _ := s.repo.GetUserByEmail(ctx, req.Email); existing != nil {
		return nil, "", errors.ErrUserAlreadyExists
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Println("[ERROR] Не удалось хешировать пароль:", err)
		return nil, "", errors.ErrInternalServer
	}

	user := &models.User{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Email:     req.Email,
		Country:   req.Country,
		Password:  hash,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		log.Println("[ERROR] Не удалось выпустить токен:", err)
		return nil, "", errors.ErrInternalServer
	}
	log.Println("[SUCCESS] Пользователь зарегистрирован:", user.ID)
	return user, token, nil
}

func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.User, string, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", errors.ErrInvalidCredentials
	}
	if !auth.CheckPassword(req.Password, user.Password) {
		return nil, "", errors.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		log.Println("[ERROR] Не удалось выпустить токен:", err)
		return nil, "", errors.ErrInternalServer
	}
	log.Println("[SUCCESS] Вход выполнен:", user.ID)
	return user, token, nil
}

func (s *Service) GetMe(ctx context.Context, principalID string) (*models.User, error) {
	return s.repo.GetUserByID(ctx, principalID)
}

func (s *Service) UpdateProfile(ctx context.Context, principalID string, req models.UpdateProfileRequest) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, principalID)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Country != "" {
		user.Country = req.Country
	}
	if err := s.repo.UpdateUser(ctx, principalID, user); err != nil {
		return nil, err
	}
	return user, nil
}
