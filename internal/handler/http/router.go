package http

import (
	"io"
	"log/slog"

	"github.com/cmlabs-hris/erp-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/erp-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/erp-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/erp-backend-go/internal/pkg/metrics"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterConfig struct {
	AllowedOrigins []string
	Logger         *slog.Logger
	LogLevel       slog.Level
}

func NewRouter(
	cfg RouterConfig,
	JWTService jwt.Service,
	authHandler AuthHandler,
	commissionHandler CommissionHandler,
	salesHandler SalesHandler,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RequestID)
	if cfg.Logger != nil {
		r.Use(httplog.RequestLogger(cfg.Logger, &httplog.Options{
			Level:  cfg.LogLevel,
			Schema: httplog.SchemaECS,
		}))
	}

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))
	r.Use(metrics.Middleware)

	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.With(middleware.RequirePermission(user.PermissionCommissionViewOwn)).
				Get("/commission-details", commissionHandler.GetDetails)

			r.Route("/commission-statements", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionCommissionViewAll)).Get("/", commissionHandler.MonthlySummary)
				r.With(middleware.RequirePermission(user.PermissionCommissionExport)).Get("/export", commissionHandler.Export)
				r.With(middleware.RequirePermission(user.PermissionCommissionViewAll)).Get("/events", commissionHandler.Events)
				r.With(middleware.RequirePermission(user.PermissionCommissionConfirm)).Post("/confirm", commissionHandler.Confirm)

				// Owner only
				r.With(middleware.RequirePermission(user.PermissionCommissionReopen)).Post("/reopen", commissionHandler.Reopen)
			})

			r.Route("/misc-commissions", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionMiscView)).Get("/", commissionHandler.ListMisc)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionMiscManage))
					r.Post("/", commissionHandler.CreateMisc)
					r.Delete("/{id}", commissionHandler.DeleteMisc)
				})
			})

			r.Route("/sales-db", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionSalesCreate)).Post("/", salesHandler.CreateRecord)
				r.With(middleware.RequirePermission(user.PermissionSalesView)).Get("/duplicates", salesHandler.FindDuplicates)
				r.With(middleware.RequirePermission(user.PermissionSalesView)).Get("/{id}", salesHandler.GetRecord)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Use(middleware.RequirePermission(user.PermissionSalesManage))
					r.Put("/{id}", salesHandler.UpdateRecord)
				})
			})

			r.Route("/sales-clients", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionSalesView)).Get("/", salesHandler.ListClients)
				r.With(middleware.RequirePermission(user.PermissionSalesClientManage)).Put("/", salesHandler.UpsertClient)
			})
		})
	})
	return r
}

// NewLogger builds the ECS-formatted slog logger shared by the request log and the app.
func NewLogger(w io.Writer, level slog.Level, attrs ...any) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(false)
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(attrs...)
}
