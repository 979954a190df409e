package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abrezinsky/everyonevotes/internal/metrics"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// instrument records request durations labelled by route pattern
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RequestDuration.
			WithLabelValues(path, r.Method, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(instrument)

	// Operational endpoints
	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		// Auth (public)
		r.Post("/api/auth/send-otp", h.handleSendOTP)
		r.Post("/api/auth/verify-otp", h.handleVerifyOTP)
		r.Post("/api/auth/register", h.handleRegister)
		r.Post("/api/auth/logout", h.handleLogout)
		r.Post("/api/admin/login", h.handleOfficerLogin)

		r.Get("/api/constituencies", h.handleConstituencies)

		// Voter API (protected)
		r.Group(func(r chi.Router) {
			r.Use(h.Sessions.RequireVoter)
			r.Get("/api/candidates", h.handleCandidates)
			r.Get("/api/vote/eligibility", h.handleEligibility)
			r.Post("/api/vote/validate", h.handleValidateVote)
			r.Post("/api/vote", h.handleCastVote)
			r.Get("/api/vote/receipt", h.handleReceipt)
		})

		// Officer API (protected)
		r.Group(func(r chi.Router) {
			r.Use(h.Sessions.RequireOfficer(h.OfficerStore))
			r.Get("/api/admin/dashboard", h.handleDashboard)
			r.Get("/api/admin/statistics", h.handleStatistics)
		})
	})

	// Live dashboard; no timeout on the upgraded connection
	r.Group(func(r chi.Router) {
		r.Use(h.Sessions.RequireOfficer(h.OfficerStore))
		r.Get("/ws", h.Hub.ServeWs)
	})

	return r
}

// handleHealth reports whether the backing stores respond
func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.health(ctx); err != nil {
			if h.Log != nil {
				h.Log.Warn("Health check failed", "error", err)
			}
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	respondOK(w, map[string]string{"status": "ok"})
}
