package http

import (
	"context"
	stdhttp "net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"cps-console/internal/audit"
	"cps-console/internal/auth"
	"cps-console/internal/config"
	"cps-console/internal/http/handler"
	"cps-console/internal/http/metrics"
	"cps-console/internal/http/middleware"
	"cps-console/internal/store"
)

const (
	jsonKeyStatus = "status"
	statusOK      = "ok"
)

// ServerDependencies are the collaborators NewServer wires into routes.
type ServerDependencies struct {
	Config        *config.Config
	Backend       store.Backend
	// Uploader hosts multipart uploads; nil disables POST /api/images/upload.
	Uploader      handler.ImageUploader
	JWTService    *auth.JWTService
	// Authenticator serves POST /api/auth/login; nil disables password login.
	Authenticator handler.Authenticator
	// Audit records API mutations and serves GET /api/audit-events; nil
	// disables both.
	Audit         audit.Recorder
	// Metrics defaults to a fresh counter set.
	Metrics       *metrics.Metrics
	Logger        *zap.Logger
}

type Server struct {
	echo *echo.Echo
	deps *ServerDependencies
}

func NewServer(deps *ServerDependencies) *Server {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("http")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewErrorHandler(log)

	e.Server.ReadTimeout = deps.Config.Server.ReadTimeout
	e.Server.WriteTimeout = deps.Config.Server.WriteTimeout

	// Request ID first so every log line carries it.
	e.Use(middleware.RequestID())
	counters := deps.Metrics
	if counters == nil {
		counters = metrics.New()
	}
	e.Use(counters.Middleware())
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.BodyLimit(deps.Config.Server.BodyLimit))

	projectHandler := handler.NewProjectHandler(deps.Backend, deps.Backend)
	categoryHandler := handler.NewCategoryHandler(deps.Backend)
	subProjectHandler := handler.NewSubProjectHandler(deps.Backend)
	contentHandler := handler.NewContentHandler(deps.Backend, deps.Backend, deps.Backend)
	docHandler := handler.NewDocumentationHandler(deps.Backend)
	imageHandler := handler.NewImageHandler(deps.Backend, deps.Uploader, deps.Config.ImageHost.MaxBytes)

	var auditTrail []echo.MiddlewareFunc
	if deps.Audit != nil {
		auditTrail = append(auditTrail, audit.Middleware(deps.Audit, log.Named("audit")))
	}

	limiter := middleware.NewRateLimiter(deps.Config.Server.RateLimitRPS, deps.Config.Server.RateLimitBurst)

	e.GET("/health", healthCheck)
	counters.Register(e)
	if deps.Config.Server.Profiling {
		metrics.RegisterPprof(e)
	}
	if deps.Authenticator != nil {
		loginChain := append(auditTrail, limiter.Middleware())
		e.POST("/api/auth/login", handler.NewAuthHandler(deps.Authenticator).Login, loginChain...)
	}

	api := e.Group("/api")
	// Before the JWT check so rejected mutations are recorded too.
	api.Use(auditTrail...)
	if deps.JWTService != nil {
		api.Use(auth.NewMiddleware(deps.JWTService).RequireJWT())
	}
	api.Use(limiter.Middleware())

	api.GET("/projects", projectHandler.ListProjects)
	api.POST("/projects", projectHandler.CreateProject)
	api.GET("/projects/:id", projectHandler.GetProject)
	api.PUT("/projects/:id", projectHandler.UpdateProject)
	api.DELETE("/projects/:id", projectHandler.DeleteProject)
	api.GET("/projects/:id/sub-projects", projectHandler.ListSubProjects)

	api.GET("/project-categories", categoryHandler.ListCategories)
	api.POST("/project-categories", categoryHandler.CreateCategory)
	api.PUT("/project-categories/:id", categoryHandler.UpdateCategory)
	api.DELETE("/project-categories/:id", categoryHandler.DeleteCategory)

	api.GET("/sub-projects", subProjectHandler.ListSubProjects)
	api.POST("/sub-projects", subProjectHandler.CreateSubProject)
	api.POST("/sub-projects/reorder", subProjectHandler.ReorderSubProjects)
	api.GET("/sub-projects/:id", subProjectHandler.GetSubProject)
	api.PUT("/sub-projects/:id", subProjectHandler.UpdateSubProject)
	api.DELETE("/sub-projects/:id", subProjectHandler.DeleteSubProject)

	api.GET("/content-types", contentHandler.ListContentTypes)
	api.POST("/content-types", contentHandler.CreateContentType)
	api.PUT("/content-types/:id", contentHandler.UpdateContentType)
	api.DELETE("/content-types/:id", contentHandler.DeleteContentType)

	api.POST("/contents", contentHandler.CreateContent)
	api.PUT("/contents/:id", contentHandler.UpdateContent)
	api.DELETE("/contents/:id", contentHandler.DeleteContent)

	api.POST("/text-commands", contentHandler.CreateTextCommand)
	api.POST("/text-commands/bulk-delete", contentHandler.BulkDeleteTextCommands)
	api.PUT("/text-commands/:id", contentHandler.UpdateTextCommand)
	api.DELETE("/text-commands/:id", contentHandler.DeleteTextCommand)

	api.GET("/documentation", docHandler.ListDocumentation)
	api.POST("/documentation/generate", docHandler.GenerateDocumentation)

	api.GET("/uploaded-images", imageHandler.ListUploadedImages)
	api.POST("/uploaded-images", imageHandler.SaveUploadedImage)
	api.POST("/images/upload", imageHandler.UploadImage)

	if deps.Audit != nil {
		api.GET("/audit-events", handler.NewAuditHandler(deps.Audit).ListEvents)
	}

	return &Server{
		echo: e,
		deps: deps,
	}
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() stdhttp.Handler {
	return s.echo
}

func healthCheck(c echo.Context) error {
	return c.JSON(stdhttp.StatusOK, map[string]string{
		jsonKeyStatus: statusOK,
	})
}
