package routes

import (
	"staff-match/internal/delivery/http/handler"
	"staff-match/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v3"
)

type Registry struct {
	Health   *handler.HealthHandler
	Match    *handler.MatchHandler
	Feedback *handler.FeedbackHandler
	Auth     *middleware.AuthMiddleware
	// MatchesWS upgrades /ws/matches; nil leaves the route unmounted.
	MatchesWS fiber.Handler
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.registerHealth(app)
	r.registerAPI(app)
	r.registerWS(app)
}

func (r *Registry) registerHealth(app *fiber.App) {
	if r.Health != nil {
		r.Health.RegisterRoutes(app)
	}
}

func (r *Registry) registerAPI(app *fiber.App) {
	v1 := app.Group("/api").Group("/v1")

	if r.Match != nil {
		r.Match.RegisterRoutes(v1)
	}
	if r.Feedback != nil {
		var auth fiber.Handler
		if r.Auth != nil {
			auth = r.Auth.Middleware()
		}
		r.Feedback.RegisterRoutes(v1, auth)
	}
}

func (r *Registry) registerWS(app *fiber.App) {
	if r.MatchesWS != nil {
		app.Get("/ws/matches", r.MatchesWS)
	}
}
