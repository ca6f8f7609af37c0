package db

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5"

	"projectmanager/internal/domain/errors"
	"projectmanager/internal/domain/models"
)

const queryTimeout = 15 * time.Second

type Storage struct {
	conn *pgx.Conn

	prepCreateUser     string
	prepGetUserByID    string
	prepGetUserByEmail string
	prepUpdateUser     string

	prepCreateProject    string
	prepGetProjectByID   string
	prepProjectsForUser  string
	prepCountByOwner     string
	prepUpdateProject    string
	prepGetCollaborators string

	prepCreateTask     string
	prepGetTaskByID    string
	prepTasksByProject string
	prepUpdateTask     string
	prepDeleteTask     string

	prepAddComment     string
	prepCommentsByTask string
}

func NewStorage(connStr string) (*Storage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		log.Println("[ERROR] Не удалось подключиться к базе данных:", err)
		return nil, err
	}

	s := &Storage{
		conn: conn,

		prepCreateUser:     `INSERT INTO users (id, name, email, country, password, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		prepGetUserByID:    `SELECT id, name, email, country, password, created_at FROM users WHERE id = $1`,
		prepGetUserByEmail: `SELECT id, name, email, country, password, created_at FROM users WHERE email = $1`,
		prepUpdateUser:     `UPDATE users SET name = $1, country = $2 WHERE id = $3`,

		// Вставка обусловлена текущим числом проектов владельца:
		// при одновременных запросах пятый проект не появится.
		prepCreateProject: `INSERT INTO projects (id, name, description, owner_id, created_at)
			SELECT $1, $2, $3, $4, $5
			WHERE (SELECT count(*) FROM projects WHERE owner_id = $4) < $6`,
		prepGetProjectByID: `SELECT id, name, description, owner_id, created_at FROM projects WHERE id = $1`,
		prepProjectsForUser: `SELECT id, name, description, owner_id, created_at FROM projects
			WHERE owner_id = $1
			   OR id IN (SELECT project_id FROM project_collaborators WHERE user_id = $1)
			ORDER BY created_at`,
		prepCountByOwner:     `SELECT count(*) FROM projects WHERE owner_id = $1`,
		prepUpdateProject:    `UPDATE projects SET name = $1, description = $2 WHERE id = $3`,
		prepGetCollaborators: `SELECT user_id FROM project_collaborators WHERE project_id = $1`,

		prepCreateTask: `INSERT INTO tasks (id, project_id, title, description, status, priority, due_date, completed_at, created_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		prepGetTaskByID: `SELECT id, project_id, title, description, status, priority, due_date, completed_at, created_by, created_at
			FROM tasks WHERE id = $1`,
		prepTasksByProject: `SELECT id, project_id, title, description, status, priority, due_date, completed_at, created_by, created_at
			FROM tasks WHERE project_id = $1 ORDER BY created_at`,
		prepUpdateTask: `UPDATE tasks SET title = $1, description = $2, status = $3, priority = $4, due_date = $5, completed_at = $6 WHERE id = $7`,
		prepDeleteTask: `DELETE FROM tasks WHERE id = $1`,

		prepAddComment:     `INSERT INTO comments (id, task_id, text, author_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
		prepCommentsByTask: `SELECT id, task_id, text, author_id, created_at FROM comments WHERE task_id = $1 ORDER BY created_at DESC`,
	}
	log.Println("[SUCCESS] Соединение с базой данных установлено успешно")
	return s, nil
}

func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := s.conn.Exec(ctx, s.prepCreateUser, user.ID, user.Name, user.Email, user.Country, user.Password, user.CreatedAt)
	if err != nil {
		log.Println("[ERROR] Не удалось создать пользователя:", err)
		return errors.ErrUserAlreadyExists
	}
	log.Println("[SUCCESS] Пользователь успешно создан:", user.ID)
	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	row := s.conn.QueryRow(ctx, s.prepGetUserByID, id)
	return scanUser(row, id)
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	row := s.conn.QueryRow(ctx, s.prepGetUserByEmail, email)
	return scanUser(row, email)
}

func scanUser(row pgx.Row, key string) (*models.User, error) {
	user := &models.User{}
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Country, &user.Password, &user.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.ErrUserNotFound
		}
		log.Println("[ERROR] Ошибка при получении пользователя:", key, err)
		return nil, err
	}
	return user, nil
}

func (s *Storage) UpdateUser(ctx context.Context, id string, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	ct, err := s.conn.Exec(ctx, s.prepUpdateUser, user.Name, user.Country, id)
	if err != nil {
		log.Println("[ERROR] Не удалось обновить пользователя:", err)
		return err
	}
	if ct.RowsAffected() == 0 {
		return errors.ErrUserNotFound
	}
	log.Println("[SUCCESS] Пользователь успешно обновлен:", id)
	return nil
}

func (s *Storage) CreateProject(ctx context.Context, project *models.Project) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	ct, err := s.conn.Exec(ctx, s.prepCreateProject,
		project.ID, project.Name, project.Description, project.OwnerID, project.CreatedAt, 4)
	if err != nil {
		log.Println("[ERROR] Не удалось создать проект:", err)
		return err
	}
	if ct.RowsAffected() == 0 {
		log.Println("[WARN] Лимит проектов владельца исчерпан:", project.OwnerID)
		return errors.ErrQuotaExceeded
	}
	log.Println("[SUCCESS] Проект успешно создан:", project.ID)
	return nil
}

func (s *Storage) GetProjectByID(ctx context.Context, id string) (*models.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	row := s.conn.QueryRow(ctx, s.prepGetProjectByID, id)
	project := &models.Project{}
	if err := row.Scan(&project.ID, &project.Name, &project.Description, &project.OwnerID, &project.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.ErrProjectNotFound
		}
		log.Println("[ERROR] Ошибка при получении проекта:", err)
		return nil, err
	}
	collaborators, err := s.loadCollaborators(ctx, id)
	if err != nil {
		return nil, err
	}
	project.Collaborators = collaborators
	return project, nil
}

func (s *Storage) loadCollaborators(ctx context.Context, projectID string) (models.IDSet, error) {
	rows, err := s.conn.Query(ctx, s.prepGetCollaborators, projectID)
	if err != nil {
		log.Println("[ERROR] Не удалось получить участников проекта:", err)
		return nil, err
	}
	defer rows.Close()

	set := models.NewIDSet()
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		set.Add(userID)
	}
	return set, rows.Err()
}

func (s *Storage) GetProjectsForUser(ctx context.Context, userID string) ([]models.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := s.conn.Query(ctx, s.prepProjectsForUser, userID)
	if err != nil {
		log.Println("[ERROR] Не удалось получить проекты пользователя:", err)
		return nil, err
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p := models.Project{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.CreatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range projects {
		collaborators, err := s.loadCollaborators(ctx, projects[i].ID)
		if err != nil {
			return nil, err
		}
		projects[i].Collaborators = collaborators
	}
	return projects, nil
}

func (s *Storage) CountProjectsByOwner(ctx context.Context, ownerID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	var count int
	if err := s.conn.QueryRow(ctx, s.prepCountByOwner, ownerID).Scan(&count); err != nil {
		log.Println("[ERROR] Не удалось посчитать проекты владельца:", err)
		return 0, err
	}
	return count, nil
}

func (s *Storage) UpdateProject(ctx context.Context, id string, project *models.Project) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, s.prepUpdateProject, project.Name, project.Description, id)
	if err != nil {
		log.Println("[ERROR] Не удалось обновить проект:", err)
		return err
	}
	if ct.RowsAffected() == 0 {
		return errors.ErrProjectNotFound
	}
	// Состав участников синхронизируется целиком: множество в модели —
	// источник истины.
	if _, err := tx.Exec(ctx, `DELETE FROM project_collaborators WHERE project_id = $1`, id); err != nil {
		return err
	}
	for _, userID := range project.Collaborators.Values() {
		if _, err := tx.Exec(ctx, `INSERT INTO project_collaborators (project_id, user_id) VALUES ($1, $2)`, id, userID); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	log.Println("[SUCCESS] Проект успешно обновлен:", id)
	return nil
}

func (s *Storage) DeleteProjectCascade(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM comments WHERE task_id IN (SELECT id FROM tasks WHERE project_id = $1)`, id); err != nil {
		log.Println("[ERROR] Не удалось удалить комментарии проекта:", err)
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM tasks WHERE project_id = $1`, id); err != nil {
		log.Println("[ERROR] Не удалось удалить задачи проекта:", err)
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM project_collaborators WHERE project_id = $1`, id); err != nil {
		return err
	}
	ct, err := tx.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		log.Println("[ERROR] Не удалось удалить проект:", err)
		return err
	}
	if ct.RowsAffected() == 0 {
		return errors.ErrProjectNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	log.Println("[SUCCESS] Проект удалён вместе с задачами:", id)
	return nil
}

func (s *Storage) CreateTask(ctx context.Context, task *models.Task) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := s.conn.Exec(ctx, s.prepCreateTask,
		task.ID, task.ProjectID, task.Title, task.Description, task.Status, task.Priority,
		task.DueDate, task.CompletedAt, task.CreatedBy, task.CreatedAt)
	if err != nil {
		log.Println("[ERROR] Не удалось создать задачу:", err)
		return err
	}
	log.Println("[SUCCESS] Задача успешно создана:", task.ID)
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, id string) (*models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	row := s.conn.QueryRow(ctx, s.prepGetTaskByID, id)
	task := &models.Task{}
	if err := row.Scan(&task.ID, &task.ProjectID, &task.Title, &task.Description, &task.Status,
		&task.Priority, &task.DueDate, &task.CompletedAt, &task.CreatedBy, &task.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.ErrTaskNotFound
		}
		log.Println("[ERROR] Ошибка при получении задачи:", err)
		return nil, err
	}
	comments, err := s.GetCommentsByTask(ctx, id)
	if err != nil {
		return nil, err
	}
	task.Comments = comments
	return task, nil
}

func (s *Storage) GetTasksByProject(ctx context.Context, projectID string) ([]models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := s.conn.Query(ctx, s.prepTasksByProject, projectID)
	if err != nil {
		log.Println("[ERROR] Не удалось получить задачи проекта:", err)
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task := models.Task{}
		if err := rows.Scan(&task.ID, &task.ProjectID, &task.Title, &task.Description, &task.Status,
			&task.Priority, &task.DueDate, &task.CompletedAt, &task.CreatedBy, &task.CreatedAt); err != nil {
			return nil, err
		}
		task.Comments = []models.Comment{}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	log.Println("[SUCCESS] Получено задач:", len(tasks))
	return tasks, nil
}

func (s *Storage) UpdateTask(ctx context.Context, id string, task *models.Task) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	ct, err := s.conn.Exec(ctx, s.prepUpdateTask,
		task.Title, task.Description, task.Status, task.Priority, task.DueDate, task.CompletedAt, id)
	if err != nil {
		log.Println("[ERROR] Не удалось обновить задачу:", err)
		return err
	}
	if ct.RowsAffected() == 0 {
		return errors.ErrTaskNotFound
	}
	log.Println("[SUCCESS] Задача успешно обновлена:", id)
	return nil
}

func (s *Storage) DeleteTask(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM comments WHERE task_id = $1`, id); err != nil {
		return err
	}
	ct, err := tx.Exec(ctx, s.prepDeleteTask, id)
	if err != nil {
		log.Println("[ERROR] Не удалось удалить задачу:", err)
		return err
	}
	if ct.RowsAffected() == 0 {
		return errors.ErrTaskNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	log.Println("[SUCCESS] Задача удалена:", id)
	return nil
}

func (s *Storage) AddComment(ctx context.Context, comment *models.Comment) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := s.conn.Exec(ctx, s.prepAddComment,
		comment.ID, comment.TaskID, comment.Text, comment.AuthorID, comment.CreatedAt)
	if err != nil {
		log.Println("[ERROR] Не удалось добавить комментарий:", err)
		return err
	}
	log.Println("[SUCCESS] Комментарий добавлен:", comment.ID)
	return nil
}

func (s *Storage) GetCommentsByTask(ctx context.Context, taskID string) ([]models.Comment, error) {
	rows, err := s.conn.Query(ctx, s.prepCommentsByTask, taskID)
	if err != nil {
		log.Println("[ERROR] Не удалось получить комментарии задачи:", err)
		return nil, err
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		c := models.Comment{}
		if err := rows.Scan(&c.ID, &c.TaskID, &c.Text, &c.AuthorID, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
