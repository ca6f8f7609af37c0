package errors

import "errors"

var (
	ErrUserNotFound        = errors.New("пользователь не найден")
	ErrProjectNotFound     = errors.New("проект не найден")
	ErrTaskNotFound        = errors.New("задача не найдена")
	ErrInvalidCredentials  = errors.New("неверные учетные данные")
	ErrUserAlreadyExists   = errors.New("пользователь уже существует")
	ErrInvalidInput        = errors.New("некорректные входные данные")
	ErrUnauthorized        = errors.New("нет доступа")
	ErrForbidden           = errors.New("доступ запрещён")
	ErrQuotaExceeded       = errors.New("превышен лимит проектов пользователя")
	ErrAlreadyCollaborator = errors.New("пользователь уже является участником проекта")
	ErrInternalServer      = errors.New("внутренняя ошибка сервера")
	ErrBadRequest          = errors.New("неверный запрос")
	ErrValidationFailed    = errors.New("ошибка валидации")

	ErrTokenExpired   = errors.New("срок действия токена истёк")
	ErrTokenMalformed = errors.New("некорректный формат токена")
	ErrTokenInvalid   = errors.New("недействительный токен")

	ErrConfigFileReadFailed = errors.New("не удалось прочитать файл конфигурации")
	ErrConfigParseFailed    = errors.New("не удалось разобрать файл конфигурации")
	ErrConfigInvalidFormat  = errors.New("некорректное значение конфигурации")

	ErrInvalidGzipRequest    = errors.New("некорректное gzip-тело запроса")
	ErrGzipCompressionFailed = errors.New("ошибка сжатия ответа")

	ErrInvalidName        = errors.New("некорректное имя")
	ErrInvalidEmail       = errors.New("некорректный email")
	ErrInvalidPassword    = errors.New("некорректный пароль")
	ErrInvalidCountry     = errors.New("некорректная страна")
	ErrInvalidStatus      = errors.New("недопустимый статус задачи")
	ErrInvalidPriority    = errors.New("недопустимый приоритет задачи")
	ErrInvalidTitle       = errors.New("некорректный заголовок задачи")
	ErrInvalidDescription = errors.New("некорректное описание")
)
