package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/board-service/internal/api/http/handlers"
	"github.com/spec-kit/board-service/internal/auth"
	"github.com/spec-kit/board-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	Auth   *handlers.AuthHandler
	Users  *handlers.UsersHandler
	Boards *handlers.BoardsHandler
	Tasks  *handlers.TasksHandler
	Gate   *auth.Gate
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	gate := cfg.Gate

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)
	authGroup.Post("/logout", gate.Require(), cfg.Auth.Logout)
	authGroup.Post("/password/change", gate.Require(), cfg.Auth.ChangePassword)

	users := app.Group("/users")
	users.Get("/me", gate.Require(), cfg.Users.Me)
	users.Get("/", gate.Require(domain.RoleAdmin), cfg.Users.List)
	users.Patch("/:id", gate.Require(domain.RoleAdmin), cfg.Users.Update)
	users.Delete("/:id", gate.Require(domain.RoleAdmin), cfg.Users.Delete)

	boards := app.Group("/boards")
	boards.Get("/", gate.Optional(), cfg.Boards.List)
	boards.Post("/", gate.Require(), cfg.Boards.Create)
	boards.Get("/:id", gate.Require(), cfg.Boards.Get)
	boards.Patch("/:id", gate.Require(), cfg.Boards.Update)
	boards.Delete("/:id", gate.Require(), cfg.Boards.Archive)
	boards.Post("/:id/members", gate.Require(), cfg.Boards.AddMember)
	boards.Delete("/:id/members/:userId", gate.Require(), cfg.Boards.RemoveMember)
	boards.Get("/:id/tasks", gate.Require(), cfg.Tasks.ListByBoard)
	boards.Post("/:id/tasks", gate.Require(), cfg.Tasks.Create)

	tasks := app.Group("/tasks")
	tasks.Get("/:id", gate.Require(), cfg.Tasks.Get)
	tasks.Patch("/:id", gate.Require(), cfg.Tasks.Update)
	tasks.Delete("/:id", gate.Require(), cfg.Tasks.Delete)
}
