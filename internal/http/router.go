package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/go-task-manager/internal/http/handlers"
	"github.com/pribylovaa/go-task-manager/internal/http/middleware"
	"github.com/pribylovaa/go-task-manager/internal/service"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		middleware.AuthBearer(),         // вынимаем Bearer токен в контекст; решение — за гардом
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	// Зависимости хендлеров.
	h := handlers.New(svc)

	// Регистрация маршрутов.
	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h, svc)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h, svc)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, svc *service.Service) {
	// auth: без гарда. Logout требует токен в заголовке, но не его валидность.
	r.Post("/signup", h.SignUp)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)

	// Защищённые маршруты: каждый запрос проходит гард заново, стателессно.
	r.Group(func(gr chi.Router) {
		gr.Use(middleware.Authenticate(svc))

		// users
		gr.Get("/profile", h.Profile)
		gr.Post("/change-password", h.ChangePassword)

		// tasks
		gr.Post("/tasks", h.CreateTask)
		gr.Get("/tasks", h.ListTasks)
		gr.Get("/tasks/search", h.SearchTasks)
		gr.Get("/tasks/{id}", h.GetTask)
		gr.Put("/tasks/{id}", h.UpdateTask)
		gr.Delete("/tasks/{id}", h.DeleteTask)
	})
}
