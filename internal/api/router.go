package api

import (
	"log/slog"
	"net/http"
	"time"

	"shop-service/internal/api/handlers"
	"shop-service/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Deps struct {
	Store          handlers.Pinger
	Tokens         handlers.TokenParser
	Accounts       *service.Accounts
	Catalog        *service.Catalog
	Carts          *service.CartManager
	Orders         *service.OrderEngine
	AdminAPIKey    string
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(d.Logger))
	r.Use(middleware.Recoverer)
	if d.RequestTimeout > 0 {
		r.Use(middleware.Timeout(d.RequestTimeout))
	}

	health := handlers.NewHealthHandler(d.Store, d.Logger)
	authH := handlers.NewAuthHandler(d.Accounts, d.Logger)
	categories := handlers.NewCategoryHandler(d.Catalog, d.Logger)
	products := handlers.NewProductHandler(d.Catalog, d.Logger)
	carts := handlers.NewCartHandler(d.Carts, d.Logger)
	orders := handlers.NewOrderHandler(d.Orders, d.Logger)
	admin := handlers.NewAdminHandler(d.Orders, d.Logger)

	requireUser := handlers.RequireUser(d.Tokens, d.Accounts, d.Logger)

	r.Get("/healthz", health.Health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authH.Register)
		r.Post("/login", authH.Login)
		r.With(requireUser).Post("/logout", authH.Logout)
	})

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", categories.GetAll)
		r.Get("/{id}", categories.GetByID)
		r.Group(func(r chi.Router) {
			r.Use(requireUser)
			r.Post("/", categories.Create)
			r.Put("/{id}", categories.Update)
			r.Delete("/{id}", categories.Delete)
		})
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", products.List)
		r.Get("/{id}", products.GetByID)
		r.Get("/{id}/operations", products.Operations)
		r.Group(func(r chi.Router) {
			r.Use(requireUser)
			r.Post("/", products.Create)
			r.Put("/{id}", products.Update)
			r.Delete("/{id}", products.Delete)
		})
	})

	r.Route("/cart", func(r chi.Router) {
		r.Use(requireUser)
		r.Get("/", carts.Get)
		r.Post("/", carts.Add)
		r.Put("/{itemID}", carts.Update)
		r.Delete("/{itemID}", carts.Remove)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Use(requireUser)
		r.Get("/", orders.List)
		r.Post("/", orders.Create)
		r.Get("/{id}", orders.GetByID)
		r.Post("/{id}/cancel", orders.Cancel)
	})

	if d.AdminAPIKey != "" {
		r.Route("/admin", func(r chi.Router) {
			r.Use(handlers.RequireAdminKey(d.AdminAPIKey))
			r.Post("/orders/{id}/status", admin.AdvanceStatus)
		})
	}

	return r
}

// RequestLogger writes one structured line per request.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"latency_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_ip", r.RemoteAddr,
			)
		})
	}
}
