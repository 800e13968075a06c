package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/lessonhub/booking_service/internal/app"
	"github.com/lessonhub/booking_service/internal/config"
	"github.com/lessonhub/booking_service/internal/handler"
	"github.com/lessonhub/booking_service/internal/middleware"
	"github.com/lessonhub/booking_service/internal/notify"
	"github.com/lessonhub/booking_service/internal/repository"
	"github.com/lessonhub/booking_service/internal/service"
)

type customValidator struct {
	validator *validator.Validate
}

func (cv *customValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create database pool", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, "migrations")
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	if err := migrator.Close(); err != nil {
		logger.Warn("Failed to close migrator", zap.Error(err))
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("Failed to load time zone", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(pool)
	slotRepo := repository.NewSlotRepository(pool)
	reservationRepo := repository.NewReservationRepository(pool)
	policyRepo := repository.NewPolicyRepository(pool)

	sender := notify.NewSMTPSender(cfg.SMTPAddr, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	renderer := notify.NewRenderer(loc)

	slotService := service.NewSlotService(userRepo, slotRepo, logger)
	bookingService := service.NewBookingService(userRepo, slotRepo, reservationRepo, policyRepo, sender, renderer, cfg.SendTimeout, logger)
	policyService := service.NewPolicyService(policyRepo, logger)
	reminderService := service.NewReminderService(reservationRepo, sender, renderer, cfg.SendTimeout, logger)

	scheduler := app.NewScheduler(reminderService, cfg.DispatchInterval, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	e := echo.New()
	e.HideBanner = true
	e.Validator = &customValidator{validator: validator.New()}
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.PATCH},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	authMiddleware := middleware.JWTAuth(cfg.JWTSecret)
	handler.SetupSlotRoutes(e, slotService, authMiddleware)
	handler.SetupReservationRoutes(e, bookingService, authMiddleware)
	handler.SetupPolicyRoutes(e, policyService, authMiddleware)
	handler.SetupReminderRoutes(e, reminderService, cfg.DispatchToken)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", cfg.HTTPAddr))
		if err := e.Start(cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
}
