package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/isdelr/mediinsight-be/internal/api/handlers"
	"github.com/isdelr/mediinsight-be/internal/auth"
	"github.com/isdelr/mediinsight-be/internal/chat"
	"github.com/isdelr/mediinsight-be/internal/services"
	"github.com/isdelr/mediinsight-be/internal/websocket"
)

// AppDeps is what the app process router serves from.
type AppDeps struct {
	Users   services.UserServiceProvider
	Reports services.ReportServiceProvider
	Events  services.EventServiceProvider
	Gateway handlers.Predictor
	Tokens  *auth.TokenManager
	Hub     *websocket.Hub
	Chat    chat.Completer
	Stats   handlers.StatsProvider

	CORSOrigins   []string
	DashboardURL  string
	SecureCookies bool
}

// DashboardDeps is what the analytics dashboard router serves from.
type DashboardDeps struct {
	Users   services.UserServiceProvider
	Reports services.ReportServiceProvider
	Events  services.EventServiceProvider
	Gateway handlers.Predictor
	Tokens  *auth.TokenManager
	Reset   handlers.ResetFlow

	CORSOrigins   []string
	SecureCookies bool
}

func baseRouter(origins []string, tokens *auth.TokenManager, users services.UserServiceProvider) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(tokens.Middleware(users))
	return r
}

// NewRouter creates the router of the app process.
func NewRouter(deps AppDeps) *chi.Mux {
	r := baseRouter(deps.CORSOrigins, deps.Tokens, deps.Users)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(deps.Users, deps.Events, deps.Tokens, deps.SecureCookies)
	predictionHandler := handlers.NewPredictionHandler(deps.Gateway, deps.Events)
	reportHandler := handlers.NewReportHandler(deps.Reports, deps.Gateway, false)
	adminHandler := handlers.NewAdminHandler(deps.Users, deps.Reports, deps.Events, deps.Stats)
	eventHandler := handlers.NewEventHandler(deps.Events)
	chatHandler := handlers.NewChatHandler(deps.Chat)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub, deps.CORSOrigins)

	r.Get("/", userHandler.Home)
	r.Get("/signup", userHandler.SignupForm)
	r.Post("/signup", userHandler.Register)
	r.Get("/login", userHandler.LoginForm)
	r.Post("/login", userHandler.Login)
	r.Post("/logout", userHandler.Logout)
	r.Get("/me", userHandler.GetMe)

	r.Route("/predict/{kind}", func(r chi.Router) {
		r.Get("/", predictionHandler.Form)
		r.Post("/", predictionHandler.Submit)
	})

	r.Get("/dashboard", reportHandler.List)
	r.Get("/charts/usage.png", reportHandler.UsageChart)
	r.Get("/charts/breakdown.png", reportHandler.BreakdownChart)

	r.Route("/reports", func(r chi.Router) {
		r.Get("/export.csv", reportHandler.ExportCSV)
		r.Get("/export.pdf", reportHandler.ExportPDF)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/download", reportHandler.Download)
			r.Post("/rerun", reportHandler.Rerun)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/", adminHandler.Dashboard)
		r.Get("/events", eventHandler.GetRecent)
		r.Delete("/reports/{id}", adminHandler.DeleteReport)
		r.Post("/reports/{id}/delete", adminHandler.DeleteReport)
	})

	r.Post("/chat", chatHandler.Send)
	r.Get("/ws", wsHandler.Serve)
	r.Get("/analytics", handlers.AnalyticsRedirect(deps.DashboardURL))

	return r
}

// resetRequestsPerMinute caps reset traffic per client IP.
const resetRequestsPerMinute = 10

// NewDashboardRouter creates the router of the analytics dashboard process.
func NewDashboardRouter(deps DashboardDeps) *chi.Mux {
	r := baseRouter(deps.CORSOrigins, deps.Tokens, deps.Users)

	userHandler := handlers.NewUserHandler(deps.Users, deps.Events, deps.Tokens, deps.SecureCookies)
	passwordHandler := handlers.NewPasswordHandler(deps.Reset, deps.Events)
	reportHandler := handlers.NewReportHandler(deps.Reports, deps.Gateway, true)

	r.Get("/", http.RedirectHandler(handlers.DashboardPage, http.StatusFound).ServeHTTP)
	r.Get("/login", userHandler.LoginForm)
	r.Post("/login", userHandler.Login)
	r.Post("/logout", userHandler.Logout)
	r.Get("/me", userHandler.GetMe)
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(resetRequestsPerMinute, time.Minute))
		r.Post("/forgot-password", passwordHandler.Forgot)
		r.Post("/reset-password", passwordHandler.Reset)
	})

	r.Get("/dashboard", reportHandler.List)
	r.Route("/reports", func(r chi.Router) {
		r.Get("/", reportHandler.List)
		r.Get("/chart.png", reportHandler.BreakdownChart)
		r.Get("/usage.png", reportHandler.UsageChart)
		r.Get("/export.csv", reportHandler.ExportCSV)
		r.Get("/export.pdf", reportHandler.ExportPDF)
		r.Post("/{id}/rerun", reportHandler.Rerun)
	})

	return r
}
