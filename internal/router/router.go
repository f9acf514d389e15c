package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"trackr/internal/auth"
	"trackr/internal/handler"
	"trackr/internal/middleware"
)

// Deps carries everything the routes need.
type Deps struct {
	Logger      *zap.Logger
	JWTService  *auth.JWTService
	TokenStore  auth.TokenStoreInterface
	AuthHandler *handler.AuthHandler
	UserHandler *handler.UserHandler
	TaskHandler *handler.TaskHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, deps Deps) error {
	v := validator.New()
	if err := handler.RegisterValidations(v); err != nil {
		return err
	}
	e.Validator = &CustomValidator{validator: v}
	e.HTTPErrorHandler = middleware.ErrorHandler(deps.Logger)

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(echomw.Recover())

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")
	bearer := middleware.BearerAuth(deps.JWTService, deps.TokenStore)

	// Public routes
	api.POST("/auth/register", deps.AuthHandler.Register)
	api.POST("/auth/login", deps.AuthHandler.Login)
	api.POST("/auth/refresh", deps.AuthHandler.Refresh)

	// Secured routes (require a bearer token)
	api.POST("/auth/logout", deps.AuthHandler.Logout, bearer)
	api.GET("/auth/me", deps.UserHandler.Me, bearer)

	tasks := api.Group("/tasks", bearer)
	tasks.GET("", deps.TaskHandler.ListTasks)
	tasks.POST("", deps.TaskHandler.CreateTask)
	tasks.GET("/stats", deps.TaskHandler.GetStats)
	tasks.GET("/:id", deps.TaskHandler.GetTask)
	tasks.PUT("/:id", deps.TaskHandler.UpdateTask)
	tasks.DELETE("/:id", deps.TaskHandler.DeleteTask)

	return nil
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
