package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"spotsong-billing/internal/domain/ports/adapter"
	"spotsong-billing/internal/usecase"
)

// Server is the ops surface: health, metrics and a read-only plan listing.
// Purchases and issuance stay on the library boundary; they have no routes.
type Server struct {
	planUC   *usecase.PlanUseCase
	verifier adapter.IdentityVerifier
	log      *zerolog.Logger
	server   *http.Server
}

func NewServer(planUC *usecase.PlanUseCase, verifier adapter.IdentityVerifier, logger *zerolog.Logger) *Server {
	return &Server{planUC: planUC, verifier: verifier, log: logger}
}

func (s *Server) Start(port int) error {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.With(s.authMiddleware).Get("/api/v1/plans", s.handleListPlans)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info().Int("port", port).Msg("ops server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// authMiddleware maps the bearer credential to a principal via the identity
// collaborator and rejects the request otherwise.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if _, err := s.verifier.Verify(r.Context(), parts[1]); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.planUC.List(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("list plans")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(plans); err != nil {
		s.log.Error().Err(err).Msg("encode plans")
	}
}
