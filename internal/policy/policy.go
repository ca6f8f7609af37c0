// Package policy решает, разрешён ли принципалу доступ к проекту или
// задаче. Функции чистые: никаких обращений к хранилищу, решение
// принимается по уже загруженным сущностям.
package policy

import (
	"projectmanager/internal/domain/models"
)

type Mode int

const (
	// ModeRead — просмотр проекта и его задач.
	ModeRead Mode = iota
	// ModeWrite — создание и изменение задач, добавление комментариев.
	ModeWrite
	// ModeManage — изменение и удаление проекта, удаление задач,
	// добавление участников. Только для владельца.
	ModeManage
)

type Role int

const (
	RoleNone Role = iota
	RoleCollaborator
	RoleOwner
)

// allowed — таблица прав: какая роль достаточна для какого режима.
// Участники могут читать и писать, но не управлять: удаление проекта
// и задач остаётся за владельцем.
var allowed = map[Mode]map[Role]bool{
	ModeRead:   {RoleOwner: true, RoleCollaborator: true},
	ModeWrite:  {RoleOwner: true, RoleCollaborator: true},
	ModeManage: {RoleOwner: true},
}

// RoleOf определяет роль принципала в проекте.
func RoleOf(principalID string, project *models.Project) Role {
	if project == nil {
		return RoleNone
	}
	if project.OwnerID == principalID {
		return RoleOwner
	}
	if project.Collaborators.Contains(principalID) {
		return RoleCollaborator
	}
	return RoleNone
}

func CanAccess(principalID string, project *models.Project, mode Mode) bool {
	return allowed[mode][RoleOf(principalID, project)]
}

// CanAccessTask сводится к проверке доступа к родительскому проекту:
// у задач нет собственных прав.
func CanAccessTask(principalID string, task *models.Task, project *models.Project, mode Mode) bool {
	if task == nil || project == nil || task.ProjectID != project.ID {
		return false
	}
	return CanAccess(principalID, project, mode)
}
