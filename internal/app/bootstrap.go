package app

import (
	"fmt"
	"strings"

	"staff-match/internal/config"
	"staff-match/internal/delivery/http/handler"
	"staff-match/internal/delivery/http/middleware"
	"staff-match/internal/delivery/http/routes"
	"staff-match/internal/ws"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

func New(c *Container) *App {
	f := fiber.New(fiber.Config{AppName: c.Config.App.AppName})

	registerGlobalMiddleware(f, c.Logger)
	registerRoutes(f, c)

	return &App{Fiber: f, Container: c}
}

func Bootstrap(cfg config.Config, log *zap.Logger) (*App, func() error, error) {
	c, err := NewContainer(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	app := New(c)
	return app, c.Close, nil
}

func registerGlobalMiddleware(app *fiber.App, log *zap.Logger) {
	if app == nil {
		return
	}

	app.Use(middleware.NewAccessLogMiddleware(log.Named("http")).Middleware())
	app.Use(middleware.NewErrorMiddleware(log).Middleware())
}

func registerRoutes(app *fiber.App, c *Container) {
	if app == nil || c == nil {
		return
	}

	checks := map[string]handler.Pinger{}
	if c.DB != nil {
		checks["database"] = c.DB
	}
	if c.Redis != nil {
		checks["cache"] = c.Redis
	}

	reg := routes.Registry{
		Health:    handler.NewHealthHandler(checks),
		Match:     handler.NewMatchHandler(c.MatchingUC),
		Feedback:  handler.NewFeedbackHandler(c.FeedbackUC),
		Auth:      middleware.NewAuthMiddleware(c.Tokens),
		MatchesWS: ws.NewHandler(c.Hub, c.Logger.Named("ws")).HandleMatchesWS,
	}
	reg.Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
