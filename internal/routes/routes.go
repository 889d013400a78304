package routes

import (
	"net/http"

	"github.com/templui/claimguard/internal/app"
	"github.com/templui/claimguard/internal/handler"
	"github.com/templui/claimguard/internal/middleware"
	"github.com/templui/claimguard/internal/storage"
)

// multipartOverhead covers form fields and part headers around the images.
const multipartOverhead = 1 << 20

func SetupRoutes(app *app.App) http.Handler {
	cfg := app.Cfg

	// Handlers
	health := handler.NewHealthHandler(app.Store, app.Model, cfg.AppName, cfg.AppVersion)
	auth := handler.NewAuthHandler(app.AuthService, app.UserService)
	claims := handler.NewClaimHandler(app.ClaimService, int64(cfg.MaxBatchImages)*cfg.MaxUploadSize+multipartOverhead)
	analyze := handler.NewAnalyzeHandler(app.AnalysisService, int64(cfg.MaxBatchImages)*cfg.MaxUploadSize+multipartOverhead)

	authLimit := middleware.RateLimit(app.AuthLimiter)
	analyzeLimit := middleware.RateLimit(app.AnalyzeLimiter)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /{$}", health.Root)
	mux.HandleFunc("GET /health", health.Health)

	// Uploaded images (local driver only; S3 serves its own URLs)
	if local, ok := app.Storage.(*storage.LocalStorage); ok {
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(local.FileSystem())))
	}

	// Auth (rate limited)
	mux.HandleFunc("POST /api/auth/register", authLimit(auth.Register))
	mux.HandleFunc("POST /api/auth/login", authLimit(auth.Login))
	mux.HandleFunc("POST /api/auth/logout", auth.Logout)

	// Analysis without persistence (rate limited)
	mux.HandleFunc("POST /api/analyze/fraud", analyzeLimit(analyze.Fraud))
	mux.HandleFunc("POST /api/analyze/fraud/base64", analyzeLimit(analyze.FraudBase64))
	mux.HandleFunc("POST /api/analyze/damage", analyzeLimit(analyze.Damage))
	mux.HandleFunc("POST /api/analyze/batch", analyzeLimit(analyze.Batch))

	// ============================================================================
	// PROTECTED ROUTES (/api/*)
	// ============================================================================

	mux.HandleFunc("GET /api/auth/me", middleware.RequireAuth(auth.Me))
	mux.HandleFunc("PATCH /api/auth/me", middleware.RequireAuth(auth.UpdateMe))

	// Claims
	mux.HandleFunc("POST /api/claims", middleware.RequireAuth(claims.Create))
	mux.HandleFunc("GET /api/claims", middleware.RequireAuth(claims.List))
	mux.HandleFunc("GET /api/claims/{id}", middleware.RequireAuth(claims.Get))
	mux.HandleFunc("PUT /api/claims/{id}", middleware.RequireAuth(claims.Update))
	mux.HandleFunc("DELETE /api/claims/{id}", middleware.RequireAuth(claims.Delete))
	mux.HandleFunc("POST /api/claims/{id}/comments", middleware.RequireAuth(claims.AddComment))

	// Fallback
	mux.HandleFunc("/{path...}", health.NotFound)

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.RequestLogging,
		middleware.Recover,
		middleware.CORS(middleware.DefaultCORS(cfg.CORSOrigins)),
		middleware.AuthMiddleware(app.AuthService),
	)
}
