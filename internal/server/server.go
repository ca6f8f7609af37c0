package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator"

	"projectmanager/internal/auth"
	"projectmanager/internal/domain/errors"
	"projectmanager/internal/domain/models"
)

type Service interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, string, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.User, string, error)
	GetMe(ctx context.Context, principalID string) (*models.User, error)
	UpdateProfile(ctx context.Context, principalID string, req models.UpdateProfileRequest) (*models.User, error)

	CreateProject(ctx context.Context, ownerID string, req models.CreateProjectRequest) (*models.Project, error)
	ListProjects(ctx context.Context, principalID string) ([]models.Project, error)
	GetProject(ctx context.Context, principalID, projectID string) (*models.Project, error)
	UpdateProject(ctx context.Context, principalID, projectID string, req models.UpdateProjectRequest) (*models.Project, error)
	DeleteProject(ctx context.Context, principalID, projectID string) error
	AddCollaborator(ctx context.Context, principalID, projectID, email string) (*models.Project, error)

	CreateTask(ctx context.Context, principalID string, req models.CreateTaskRequest) (*models.Task, error)
	ListTasks(ctx context.Context, principalID, projectID string) ([]models.Task, error)
	GetTask(ctx context.Context, principalID, taskID string) (*models.Task, error)
	UpdateTask(ctx context.Context, principalID, taskID string, req models.UpdateTaskRequest) (*models.Task, error)
	DeleteTask(ctx context.Context, principalID, taskID string) error
	AddComment(ctx context.Context, principalID, taskID, text string) ([]models.Comment, error)
}

type TrackerAPI struct {
	httpSrv *http.Server
	svc     Service
	tokens  *auth.TokenManager
}

func NewTrackerAPI(svc Service, tokens *auth.TokenManager, cfg *Config) *TrackerAPI {
	if svc == nil || tokens == nil || cfg == nil {
		return nil
	}

	api := &TrackerAPI{
		httpSrv: &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Addr, cfg.Port)},
		svc:     svc,
		tokens:  tokens,
	}
	api.configRoutes()
	return api
}

func (api *TrackerAPI) Start() error {
	if api.httpSrv == nil {
		return errors.ErrInternalServer
	}
	if api.httpSrv.Addr == "" {
		api.httpSrv.Addr = ":8080"
	}
	return api.httpSrv.ListenAndServe()
}

func (api *TrackerAPI) Shutdown(ctx context.Context) error {
	if api.httpSrv == nil {
		return nil
	}
	return api.httpSrv.Shutdown(ctx)
}

func (api *TrackerAPI) configRoutes() {
	router := gin.Default()
	router.Use(GzipRequestDecompress(), GzipResponseCompress())

	router.NoMethod(func(ctx *gin.Context) {
		ctx.JSON(http.StatusMethodNotAllowed, gin.H{"error": "использован некорректный HTTP-метод"})
	})

	authorized := AuthRequired(api.tokens)

	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/register", api.register)
		authGroup.POST("/login", api.login)
		authGroup.GET("/me", authorized, api.getMe)
		authGroup.PUT("/updateprofile", authorized, api.updateProfile)
	}

	projects := router.Group("/api/projects", authorized)
	{
		projects.POST("", api.createProject)
		projects.GET("", api.listProjects)
		projects.GET(":projectID", api.getProject)
		projects.PUT(":projectID", api.updateProject)
		projects.DELETE(":projectID", api.deleteProject)
		projects.PUT(":projectID/collaborators", api.addCollaborator)
	}

	tasks := router.Group("/api/tasks", authorized)
	{
		tasks.POST("", api.createTask)
		tasks.GET("project/:projectID", api.listTasks)
		tasks.GET(":taskID", api.getTask)
		tasks.PUT(":taskID", api.updateTask)
		tasks.DELETE(":taskID", api.deleteTask)
		tasks.POST(":taskID/comments", api.addComment)
	}

	api.httpSrv.Handler = router
}

var allowedTaskStatuses = map[string]bool{
	models.StatusNotStarted: true,
	models.StatusInProgress: true,
	models.StatusCompleted:  true,
}

var allowedTaskPriorities = map[string]bool{
	models.PriorityLow:    true,
	models.PriorityMedium: true,
	models.PriorityHigh:   true,
}

func (api *TrackerAPI) register(ctx *gin.Context) {
	var req models.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrBadRequest.Error()})
		return
	}
	valid := validator.New()
	if err := valid.Struct(req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": validationErrorToErrorResponse(err).Error()})
		return
	}

	user, token, err := api.svc.Register(ctx.Request.Context(), req)
	if err != nil {
		api.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"success": true, "token": token, "user": userView(user)})
}

func (api *TrackerAPI) login(ctx *gin.Context) {
	var req models.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrBadRequest.Error()})
		return
	}
	valid := validator.New()
	if err := valid.Struct(req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrValidationFailed.Error()})
		return
	}

	user, token, err := api.svc.Login(ctx.Request.Context(), req)
	if err != nil {
		api.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "token": token, "user": userView(user)})
}

func (api *TrackerAPI) getMe(ctx *gin.Context) {
	user, err := api.svc.GetMe(ctx.Request.Context(), principalID(ctx))
	if err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": userView(user)})
}

func (api *TrackerAPI) updateProfile(ctx *gin.Context) {
	var req models.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrBadRequest.Error()})
		return
	}
	valid := validator.New()
	if err := valid.Struct(req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": validationErrorToErrorResponse(err).Error()})
		return
	}

	user, err := api.svc.UpdateProfile(ctx.Request.Context(), principalID(ctx), req)
	if err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": userView(user)})
}

func (api *TrackerAPI) createProject(ctx *gin.Context) {
	var req models.CreateProjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrBadRequest.Error()})
		return
	}
	valid := validator.New()
	if err := valid.Struct(req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": validationErrorToErrorResponse(err).Error()})
		return
	}

	project, err := api.svc.CreateProject(ctx.Request.Context(), principalID(ctx), req)
	if err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"success": true, "data": project})
}

func (api *TrackerAPI) listProjects(ctx *gin.Context) {
	projects, err := api.svc.ListProjects(ctx.Request.Context(), principalID(ctx))
	if err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "count": len(projects), "data": projects})
}

func (api *TrackerAPI) getProject(ctx *gin.Context) {
	project, err := api.svc.GetProject(ctx.Request.Context(), principalID(ctx), ctx.Param("projectID"))
	if err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": project})
}

func (api *TrackerAPI) updateProject(ctx *gin.Context) {
	var req models.UpdateProjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrBadRequest.Error()})
		return
	}
	valid := validator.New()
	if err := valid.Struct(req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": validationErrorToErrorResponse(err).Error()})
		return
	}

	project, err := api.svc.UpdateProject(ctx.Request.Context(), principalID(ctx), ctx.Param("projectID"), req)
	if err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": project})
}

func (api *TrackerAPI) deleteProject(ctx *gin.Context) {
	if err := api.svc.DeleteProject(ctx.Request.Context(), principalID(ctx), ctx.Param("projectID")); err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{}})
}

func (api *TrackerAPI) addCollaborator(ctx *gin.Context) {
	var req models.AddCollaboratorRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrBadRequest.Error()})
		return
	}
	valid := validator.New()
	if err := valid.Struct(req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrInvalidEmail.Error()})
		return
	}

	project, err := api.svc.AddCollaborator(ctx.Request.Context(), principalID(ctx), ctx.Param("projectID"), req.Email)
	if err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": project})
}

func (api *TrackerAPI) createTask(ctx *gin.Context) {
	var req models.CreateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrBadRequest.Error()})
		return
	}
	valid := validator.New()
	if err := valid.Struct(req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": validationErrorToErrorResponse(err).Error()})
		return
	}
	if req.Status != "" && !allowedTaskStatuses[req.Status] {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrInvalidStatus.Error()})
		return
	}
	if req.Priority != "" && !allowedTaskPriorities[req.Priority] {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrInvalidPriority.Error()})
		return
	}

	task, err := api.svc.CreateTask(ctx.Request.Context(), principalID(ctx), req)
	if err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"success": true, "data": task})
}

func (api *TrackerAPI) listTasks(ctx *gin.Context) {
	tasks, err := api.svc.ListTasks(ctx.Request.Context(), principalID(ctx), ctx.Param("projectID"))
	if err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "count": len(tasks), "data": tasks})
}

func (api *TrackerAPI) getTask(ctx *gin.Context) {
	task, err := api.svc.GetTask(ctx.Request.Context(), principalID(ctx), ctx.Param("taskID"))
	if err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": task})
}

func (api *TrackerAPI) updateTask(ctx *gin.Context) {
	var req models.UpdateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrBadRequest.Error()})
		return
	}
	valid := validator.New()
	if err := valid.Struct(req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": validationErrorToErrorResponse(err).Error()})
		return
	}
	if req.Status != "" && !allowedTaskStatuses[req.Status] {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrInvalidStatus.Error()})
		return
	}
	if req.Priority != "" && !allowedTaskPriorities[req.Priority] {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrInvalidPriority.Error()})
		return
	}

	task, err := api.svc.UpdateTask(ctx.Request.Context(), principalID(ctx), ctx.Param("taskID"), req)
	if err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": task})
}

func (api *TrackerAPI) deleteTask(ctx *gin.Context) {
	if err := api.svc.DeleteTask(ctx.Request.Context(), principalID(ctx), ctx.Param("taskID")); err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{}})
}

func (api *TrackerAPI) addComment(ctx *gin.Context) {
	var req models.AddCommentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrBadRequest.Error()})
		return
	}

	comments, err := api.svc.AddComment(ctx.Request.Context(), principalID(ctx), ctx.Param("taskID"), req.Text)
	if err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": comments})
}

// userView — внешнее представление пользователя; хеш пароля наружу не
// отдаётся никогда.
func userView(user *models.User) gin.H {
	return gin.H{
		"id":      user.ID,
		"name":    user.Name,
		"email":   user.Email,
		"country": user.Country,
	}
}

func (api *TrackerAPI) respondError(ctx *gin.Context, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		log.Println("[ERROR] Внутренняя ошибка при обработке запроса:", err)
		ctx.JSON(status, gin.H{"error": errors.ErrInternalServer.Error()})
		return
	}
	ctx.JSON(status, gin.H{"error": err.Error()})
}

func statusForError(err error) int {
	switch err {
	case errors.ErrUserNotFound, errors.ErrProjectNotFound, errors.ErrTaskNotFound:
		return http.StatusNotFound
	case errors.ErrForbidden, errors.ErrUnauthorized, errors.ErrInvalidCredentials,
		errors.ErrTokenExpired, errors.ErrTokenMalformed, errors.ErrTokenInvalid:
		return http.StatusUnauthorized
	case errors.ErrQuotaExceeded, errors.ErrInvalidInput, errors.ErrAlreadyCollaborator,
		errors.ErrUserAlreadyExists, errors.ErrBadRequest, errors.ErrValidationFailed:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func validationErrorToErrorResponse(err error) error {
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, verr := range verrs {
			switch verr.Field() {
			case "Name":
				return errors.ErrInvalidName
			case "Email":
				return errors.ErrInvalidEmail
			case "Password":
				return errors.ErrInvalidPassword
			case "Country":
				return errors.ErrInvalidCountry
			case "Title":
				return errors.ErrInvalidTitle
			case "Description":
				return errors.ErrInvalidDescription
			case "ProjectID":
				return errors.ErrInvalidInput
			}
		}
	}
	return errors.ErrValidationFailed
}
