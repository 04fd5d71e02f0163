package api

import (
	"database/sql"
	"net/http"
	"time"
)

// Options configures the API router.
type Options struct {
	JWTSecret   string
	TokenTTL    time.Duration
	ResetTTL    time.Duration
	ResetURL    string
	Mailer      Mailer
	CORSOrigins []string
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, opts Options) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{
		DB:        db,
		JWTSecret: opts.JWTSecret,
		TokenTTL:  opts.TokenTTL,
		ResetTTL:  opts.ResetTTL,
		ResetURL:  opts.ResetURL,
		Mailer:    opts.Mailer,
	}
	itemsHandler := &ItemsHandler{DB: db}
	statsHandler := &StatsHandler{DB: db}

	authMW := AuthMiddleware(opts.JWTSecret, db)
	protected := func(h http.HandlerFunc) http.Handler { return authMW(h) }

	mux.HandleFunc("GET /api/health", health)

	// Public auth routes.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/forgot-password", authHandler.ForgotPassword)
	mux.HandleFunc("POST /api/auth/reset-password", authHandler.ResetPassword)

	// Authenticated auth routes.
	mux.Handle("POST /api/auth/logout", protected(authHandler.Logout))
	mux.Handle("GET /api/auth/verify", protected(authHandler.Verify))
	mux.Handle("PUT /api/auth/password", protected(authHandler.ChangePassword))

	// Items.
	mux.Handle("GET /api/items", protected(itemsHandler.List))
	mux.Handle("POST /api/items", protected(itemsHandler.Create))
	mux.Handle("GET /api/items/search", protected(itemsHandler.Search))
	mux.Handle("POST /api/items/bulk", protected(itemsHandler.BulkCreate))
	mux.Handle("POST /api/items/bulk-delete", protected(itemsHandler.BulkDelete))
	mux.Handle("GET /api/items/{id}", protected(itemsHandler.Get))
	mux.Handle("PUT /api/items/{id}", protected(itemsHandler.Replace))
	mux.Handle("PATCH /api/items/{id}", protected(itemsHandler.Patch))
	mux.Handle("DELETE /api/items/{id}", protected(itemsHandler.Delete))
	mux.Handle("PATCH /api/items/{id}/status", protected(itemsHandler.UpdateStatus))
	mux.Handle("PUT /api/items/{id}/image", protected(itemsHandler.UploadImage))
	mux.Handle("GET /api/items/{id}/image", protected(itemsHandler.GetImage))

	// Stats.
	mux.Handle("GET /api/stats/summary", protected(statsHandler.Summary))
	mux.Handle("GET /api/stats/monthly-spending", protected(statsHandler.MonthlySpending))
	mux.Handle("GET /api/stats/categories", protected(statsHandler.Categories))
	mux.Handle("GET /api/stats/frequency", protected(statsHandler.Frequency))

	var handler http.Handler = mux
	if len(opts.CORSOrigins) > 0 {
		handler = CORS(opts.CORSOrigins, handler)
	}
	return LoggingMiddleware(handler)
}

func health(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
