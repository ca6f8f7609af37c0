// Package storage — хранилище в памяти. Используется в тестах и как
// запасной вариант, когда база данных недоступна.
package storage

import (
	"context"
	"sort"
	"sync"

	"projectmanager/internal/domain/errors"
	"projectmanager/internal/domain/models"
)

type Storage struct {
	mu       sync.RWMutex
	users    map[string]models.User
	projects map[string]models.Project
	tasks    map[string]models.Task
	comments map[string][]models.Comment
}

func NewStorage() *Storage {
	return &Storage{
		users:    make(map[string]models.User),
		projects: make(map[string]models.Project),
		tasks:    make(map[string]models.Task),
		comments: make(map[string][]models.Comment),
	}
}

func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return errors.ErrUserAlreadyExists
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, exists := s.users[id]
	if !exists {
		return nil, errors.ErrUserNotFound
	}
	return &user, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, errors.ErrUserNotFound
}

func (s *Storage) UpdateUser(ctx context.Context, id string, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[id]; !exists {
		return errors.ErrUserNotFound
	}
	s.users[id] = *user
	return nil
}

func (s *Storage) CreateProject(ctx context.Context, project *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Лимит проверяется под той же блокировкой, что и вставка:
	// одновременные запросы не обойдут квоту.
	count := 0
	for _, p := range s.projects {
		if p.OwnerID == project.OwnerID {
			count++
		}
	}
	if count >= 4 {
		return errors.ErrQuotaExceeded
	}
	s.projects[project.ID] = cloneProject(project)
	return nil
}

func (s *Storage) GetProjectByID(ctx context.Context, id string) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	project, exists := s.projects[id]
	if !exists {
		return nil, errors.ErrProjectNotFound
	}
	p := cloneProject(&project)
	return &p, nil
}

func (s *Storage) GetProjectsForUser(ctx context.Context, userID string) ([]models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	projects := []models.Project{}
	for _, p := range s.projects {
		if p.OwnerID == userID || p.Collaborators.Contains(userID) {
			projects = append(projects, cloneProject(&p))
		}
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].CreatedAt.Before(projects[j].CreatedAt)
	})
	return projects, nil
}

func (s *Storage) CountProjectsByOwner(ctx context.Context, ownerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, p := range s.projects {
		if p.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

func (s *Storage) UpdateProject(ctx context.Context, id string, project *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.projects[id]; !exists {
		return errors.ErrProjectNotFound
	}
	s.projects[id] = cloneProject(project)
	return nil
}

func (s *Storage) DeleteProjectCascade(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.projects[id]; !exists {
		return errors.ErrProjectNotFound
	}
	for taskID, task := range s.tasks {
		if task.ProjectID == id {
			delete(s.tasks, taskID)
			delete(s.comments, taskID)
		}
	}
	delete(s.projects, id)
	return nil
}

func (s *Storage) CreateTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = *task
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, exists := s.tasks[id]
	if !exists {
		return nil, errors.ErrTaskNotFound
	}
	task.Comments = append([]models.Comment{}, s.comments[id]...)
	return &task, nil
}

func (s *Storage) GetTasksByProject(ctx context.Context, projectID string) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tasks := []models.Task{}
	for id, t := range s.tasks {
		if t.ProjectID == projectID {
			t.Comments = append([]models.Comment{}, s.comments[id]...)
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (s *Storage) UpdateTask(ctx context.Context, id string, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[id]; !exists {
		return errors.ErrTaskNotFound
	}
	task.ID = id
	s.tasks[id] = *task
	return nil
}

func (s *Storage) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[id]; !exists {
		return errors.ErrTaskNotFound
	}
	delete(s.tasks, id)
	delete(s.comments, id)
	return nil
}

func (s *Storage) AddComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[comment.TaskID]; !exists {
		return errors.ErrTaskNotFound
	}
	// Новые комментарии добавляются в начало списка.
	s.comments[comment.TaskID] = append([]models.Comment{*comment}, s.comments[comment.TaskID]...)
	return nil
}

func (s *Storage) GetCommentsByTask(ctx context.Context, taskID string) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, exists := s.tasks[taskID]; !exists {
		return nil, errors.ErrTaskNotFound
	}
	return append([]models.Comment{}, s.comments[taskID]...), nil
}

func cloneProject(p *models.Project) models.Project {
	c := *p
	c.Collaborators = models.NewIDSet(p.Collaborators.Values()...)
	return c
}
