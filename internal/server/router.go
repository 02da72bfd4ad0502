package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

// RouterDependencies collects handler dependencies.
type RouterDependencies struct {
	Health           HealthService
	API              *APIHandlers
	Idempotency      *IdempotencyCache
	AllowedOrigins   []string
	AllowCredentials bool
}

// NewRouter wires the HTTP routes exposed by the wallet API.
func NewRouter(logger *slog.Logger, deps RouterDependencies) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		payload := map[string]any{
			"status": "ok",
		}

		if deps.Health != nil {
			if err := deps.Health.Probe(ctx); err != nil {
				logger.Error("health probe failed", "error", err)
				status = http.StatusServiceUnavailable
				payload["status"] = "degraded"
				payload["error"] = err.Error()
			}
		}

		respondJSON(w, status, payload)
	}).Methods(http.MethodGet)

	if api := deps.API; api != nil {
		commit := http.Handler(http.HandlerFunc(api.commitTransaction))
		if deps.Idempotency != nil {
			commit = deps.Idempotency.Middleware(commit)
		}

		r.HandleFunc("/login", api.login).Methods(http.MethodPost)
		r.HandleFunc("/register", api.register).Methods(http.MethodPost)
		r.HandleFunc("/users", api.listUsers).Methods(http.MethodGet)
		r.HandleFunc("/contacts", api.listContacts).Methods(http.MethodGet)
		r.Handle("/transaction", commit).Methods(http.MethodPost)
		r.HandleFunc("/transactions/{userId}", api.history).Methods(http.MethodGet)
		r.HandleFunc("/ledger/{userId}/transactions", api.mirroredHistory).Methods(http.MethodGet)

		r.HandleFunc("/flows", api.startFlow).Methods(http.MethodPost)
		flows := r.PathPrefix("/flows").Subrouter()
		flows.HandleFunc("/{id}", api.viewFlow).Methods(http.MethodGet)
		flows.HandleFunc("/{id}", api.endFlow).Methods(http.MethodDelete)
		flows.HandleFunc("/{id}/draft", api.updateDraft).Methods(http.MethodPatch)
		flows.HandleFunc("/{id}/continue", api.continueFlow).Methods(http.MethodPost)
		flows.HandleFunc("/{id}/next", api.nextStep).Methods(http.MethodPost)
		flows.HandleFunc("/{id}/back", api.backStep).Methods(http.MethodPost)
		flows.HandleFunc("/{id}/hold", api.holdToConfirm).Methods(http.MethodPost)
		flows.HandleFunc("/{id}/release", api.releaseHold).Methods(http.MethodPost)
	}

	handler := http.Handler(loggingMiddleware(logger, r))
	if len(deps.AllowedOrigins) > 0 {
		handler = corsMiddleware(deps.AllowedOrigins, deps.AllowCredentials)(handler)
	}
	return handler
}

func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(r.Context(), level, "request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func corsMiddleware(allowedOrigins []string, allowCredentials bool) func(http.Handler) http.Handler {
	normalized := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		normalized[origin] = struct{}{}
	}
	_, wildcard := normalized["*"]

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			_, listed := normalized[origin]
			if origin == "" || (!listed && !wildcard) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			if allowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+idempotencyHeader)
			w.Header().Set("Access-Control-Expose-Headers", idempotencyHitHeader)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
