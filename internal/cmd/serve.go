package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"yourday/internal/auth"
	"yourday/internal/bot"
	"yourday/internal/handler"
	"yourday/internal/repository"
	"yourday/internal/service"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the overlap audit and the Telegram bot",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// services is everything the commands build on top of one database.
type services struct {
	db        *gorm.DB
	users     *repository.UserRepository
	tasks     *service.TaskService
	category  *service.CategoryService
	reminders *service.ReminderService
	audit     *service.AuditService
}

func openServices() (*services, error) {
	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	taskRepo := repository.NewTaskRepository(db)
	return &services{
		db:        db,
		users:     repository.NewUserRepository(db),
		tasks:     service.NewTaskService(taskRepo, log),
		category:  service.NewCategoryService(repository.NewCategoryRepository(db)),
		reminders: service.NewReminderService(taskRepo),
		audit:     service.NewAuditService(taskRepo, log),
	}, nil
}

func (s *services) Close() {
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.RequireSecret(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	if cfg.AuditInterval > 0 {
		scheduler := service.NewSchedulerService(time.UTC, log)
		if _, err := scheduler.ScheduleInterval("overlap-audit", cfg.AuditInterval, time.Minute, func(jobCtx context.Context) error {
			_, err := svc.audit.Run(jobCtx)
			return err
		}); err != nil {
			return fmt.Errorf("schedule audit: %w", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	if cfg.TelegramToken != "" {
		telegramBot, err := bot.New(cfg.TelegramToken, svc.users, svc.tasks, svc.category, svc.reminders, cfg.ReminderWindow, cfg.RequestTimeout, log)
		if err != nil {
			return err
		}
		go func() {
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("bot stopped")
			}
		}()
	}

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	h := handler.NewTaskHandler(svc.tasks, svc.category, svc.reminders, cfg.RequestTimeout, cfg.ReminderWindow, log)
	e := handler.NewRouter(h, tokens, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("server listening")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("shutdown complete")
	return nil
}
