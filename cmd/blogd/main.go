package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	blog "github.com/goliatone/go-blog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	logger := stdLogger{}
	cfg := loadConfig(logger)

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.dsn)
	if err != nil {
		logger.Error("open database: %v", err)
		os.Exit(1)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	ctx := context.Background()

	if err := blog.CreateSchema(ctx, db); err != nil {
		logger.Error("create schema: %v", err)
		os.Exit(1)
	}

	repo := blog.NewRepositoryManager(db)
	provider := blog.NewUserProvider(repo.Users()).WithLogger(logger)
	auther := blog.NewAuthenticator(provider, cfg).WithLogger(logger)

	api := blog.NewAPI(
		blog.WithAPILogger(logger),
		blog.WithAPIDebug(cfg.debug),
		blog.WithRepository(repo),
		blog.WithAuthenticator(auther),
		blog.WithAPITokenService(auther.TokenService()),
		blog.WithIdentityProvider(provider),
		blog.WithAPIConfig(cfg),
	)

	app := fiber.New(fiber.Config{
		AppName:      "blogd",
		ErrorHandler: blog.NewErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(cors.New())

	api.RegisterRoutes(app)

	go func() {
		logger.Info("listening on :%s", cfg.port)
		if err := app.Listen(":" + cfg.port); err != nil {
			logger.Error("server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown: %v", err)
	}
}

type stdLogger struct{}

func (stdLogger) Debug(format string, args ...any) { logLine("DBG", format, args...) }
func (stdLogger) Info(format string, args ...any)  { logLine("INF", format, args...) }
func (stdLogger) Warn(format string, args ...any)  { logLine("WRN", format, args...) }
func (stdLogger) Error(format string, args ...any) { logLine("ERR", format, args...) }

func logLine(level, format string, args ...any) {
	fmt.Printf("[%s] BLOGD %s\n", level, fmt.Sprintf(format, args...))
}
