package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/warrantyhub/warranty-system/internal/config"
	"github.com/warrantyhub/warranty-system/internal/events"
	"github.com/warrantyhub/warranty-system/internal/httpserver"
	authmw "github.com/warrantyhub/warranty-system/internal/middleware"
	"github.com/warrantyhub/warranty-system/internal/models"
	"github.com/warrantyhub/warranty-system/internal/repo"
	"github.com/warrantyhub/warranty-system/internal/service"
	"github.com/warrantyhub/warranty-system/pkg/db"
	"github.com/warrantyhub/warranty-system/pkg/logging"
	loggingmw "github.com/warrantyhub/warranty-system/pkg/middleware/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(loggingmw.RequestLogger(logger))

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gormDB, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := gormDB.AutoMigrate(&models.User{}, &models.RefreshToken{}); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	producer := events.NewProducer(cfg.KafkaBrokers)
	defer producer.Close()

	gormRepo := repo.GormRepo{DB: gormDB}

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{
			Svc: &service.AuthService{
				Repo:   gormRepo,
				Tokens: cfg.JWT,
			},
			Repo:   gormRepo,
			Events: producer,
		},
		AttachUser: &authmw.AttachUser{
			Tokens: cfg.JWT,
			Repo:   gormRepo,
		},
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.ServerPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown", "error", err)
	}
}
