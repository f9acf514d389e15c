package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"trackr/internal/auth"
	"trackr/internal/config"
	"trackr/internal/db"
	apperrors "trackr/internal/errors"
	"trackr/internal/logger"
	"trackr/internal/model"
	"trackr/internal/repository"
	"trackr/internal/service"
)

const (
	demoUsername = "demo"
	demoEmail    = "demo@trackr.local"
	demoPassword = "demo1234"
)

type seedTask struct {
	title       string
	description string
	status      model.TaskStatus
	// finish moves the task to done after creation so it gets a real duration.
	finish bool
}

var demoTasks = []seedTask{
	{title: "Set up development environment", description: "Install Go, MySQL and Redis", status: model.TaskStatusDone},
	{title: "Write API documentation", description: "Describe every endpoint in Swagger", status: model.TaskStatusInProgress, finish: true},
	{title: "Review pull requests", status: model.TaskStatusInProgress},
	{title: "Plan next sprint", description: "Collect estimates from the team", status: model.TaskStatusToDo},
	{title: "Update dependencies", status: model.TaskStatusToDo},
}

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.IsDevelopment())
	if err != nil {
		panic(err)
	}
	defer log.Sync() //nolint:errcheck

	if err := seed(context.Background(), cfg, log); err != nil {
		log.Fatal("seed failed", zap.Error(err))
	}
}

func seed(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN, gormlogger.Warn)
	if err != nil {
		return err
	}
	log.Info("connected to database", zap.String("driver", cfg.DBDriver))

	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	userRepo := repository.NewUserRepository(gormDB)
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authService := service.NewAuthService(userRepo, jwtService, auth.NewTokenStore(nil))
	taskService := service.NewTaskService(repository.NewTaskRepository(gormDB), nil)

	user, err := authService.Register(ctx, demoUsername, demoEmail, demoPassword)
	switch {
	case errors.Is(err, apperrors.ErrUsernameTaken), errors.Is(err, apperrors.ErrEmailTaken):
		if user, err = userRepo.FindByEmail(ctx, demoEmail); err != nil {
			return fmt.Errorf("demo user exists but cannot be loaded: %w", err)
		}
		log.Info("demo user already exists", zap.Uint("user_id", user.ID))
	case err != nil:
		return err
	default:
		log.Info("created demo user", zap.Uint("user_id", user.ID), zap.String("email", demoEmail))
	}

	existing, err := taskService.List(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Info("demo tasks already seeded, skipping", zap.Int("count", len(existing)))
		return nil
	}

	for _, st := range demoTasks {
		in := service.CreateTaskInput{Title: st.title, Status: string(st.status)}
		if st.description != "" {
			desc := st.description
			in.Description = &desc
		}

		task, err := taskService.Create(ctx, user.ID, in)
		if err != nil {
			return fmt.Errorf("create task %q: %w", st.title, err)
		}
		if st.finish {
			done := string(model.TaskStatusDone)
			if task, err = taskService.Update(ctx, user.ID, task.ID, service.UpdateTaskInput{Status: &done}); err != nil {
				return fmt.Errorf("complete task %q: %w", st.title, err)
			}
		}
		log.Info("seeded task", zap.Uint("task_id", task.ID), zap.String("status", string(task.Status)))
	}

	log.Info("seed completed", zap.Int("tasks", len(demoTasks)))
	return nil
}
