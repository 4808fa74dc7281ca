package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/oyasudev/oyasify/internal/config"
	"github.com/oyasudev/oyasify/internal/models"
	"github.com/oyasudev/oyasify/internal/repository"
	"github.com/oyasudev/oyasify/internal/service"
)

// Server is the Owner's review panel: pending payment and product requests,
// approve/reject/answer actions and the notification badge count. Basic auth
// guards the transport; the services still verify the acting account holds
// the Owner badge.
type Server struct {
	cfg           config.Config
	log           *slog.Logger
	accounts      *repository.AccountRepository
	payments      *service.PaymentService
	requests      *service.ProductRequestService
	notifications *service.NotificationService
	router        *chi.Mux
}

func NewServer(cfg config.Config, log *slog.Logger, accounts *repository.AccountRepository, payments *service.PaymentService, requests *service.ProductRequestService, notifications *service.NotificationService) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	s := &Server{
		cfg:           cfg,
		log:           log,
		accounts:      accounts,
		payments:      payments,
		requests:      requests,
		notifications: notifications,
		router:        r,
	}

	r.Group(func(protected chi.Router) {
		protected.Use(s.basicAuthMiddleware())
		protected.Route("/payments", func(r chi.Router) {
			r.Get("/pending", s.handlePendingPayments)
			r.Post("/{id}/approve", s.handleApprovePayment)
			r.Post("/{id}/reject", s.handleRejectPayment)
		})
		protected.Route("/product-requests", func(r chi.Router) {
			r.Get("/pending", s.handlePendingProductRequests)
			r.Post("/{id}/answer", s.handleAnswerProductRequest)
		})
		protected.Get("/notifications", s.handleNotificationCount)
		protected.Get("/accounts/{nickname}", s.handleGetAccount)
	})
	return s
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.AdminListenAddr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("admin shutdown error", "err", err)
		}
	}()

	s.log.Info("admin panel listening", "addr", s.cfg.AdminListenAddr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("admin listen: %w", err)
	}
	return nil
}

// owner resolves the Owner account acting behind the basic-auth session.
func (s *Server) owner(ctx context.Context) (*models.Account, error) {
	account, err := s.accounts.GetByNickname(ctx, s.cfg.ReservedNickname)
	if err != nil {
		return nil, err
	}
	if account == nil || !account.IsOwner() {
		return nil, fmt.Errorf("owner account is not registered")
	}
	return account, nil
}

func (s *Server) handlePendingPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.payments.Pending(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, payments)
}

func (s *Server) handleApprovePayment(w http.ResponseWriter, r *http.Request) {
	actor, err := s.owner(r.Context())
	if err != nil {
		s.badRequest(w, err)
		return
	}
	if err := s.payments.Approve(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		s.internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRejectPayment(w http.ResponseWriter, r *http.Request) {
	actor, err := s.owner(r.Context())
	if err != nil {
		s.badRequest(w, err)
		return
	}
	if err := s.payments.Reject(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		s.internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePendingProductRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := s.requests.Pending(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, requests)
}

type answerRequest struct {
	Links []string `json:"links"`
}

func (s *Server) handleAnswerProductRequest(w http.ResponseWriter, r *http.Request) {
	actor, err := s.owner(r.Context())
	if err != nil {
		s.badRequest(w, err)
		return
	}
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := s.requests.Answer(r.Context(), actor, chi.URLParam(r, "id"), req.Links); err != nil {
		s.internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNotificationCount(w http.ResponseWriter, r *http.Request) {
	actor, err := s.owner(r.Context())
	if err != nil {
		s.badRequest(w, err)
		return
	}
	count, err := s.notifications.Count(r.Context(), actor)
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

type accountView struct {
	ID            string         `json:"id"`
	Email         string         `json:"email"`
	Nickname      string         `json:"nickname"`
	Plan          string         `json:"plan"`
	ExpiresAt     *time.Time     `json:"expires_at,omitempty"`
	Badges        []string       `json:"badges"`
	Credits       map[string]int `json:"credits"`
	WalletBalance float64        `json:"wallet_balance"`
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.accounts.GetByNickname(r.Context(), chi.URLParam(r, "nickname"))
	if err != nil {
		s.internalError(w, err)
		return
	}
	if account == nil {
		http.Error(w, "account not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, accountView{
		ID:            account.ID,
		Email:         account.Email,
		Nickname:      account.Nickname,
		Plan:          string(account.Access.Plan),
		ExpiresAt:     account.Access.ExpiresAt,
		Badges:        account.Profile.Badges,
		Credits:       account.Credits,
		WalletBalance: account.WalletBalance,
	})
}

func (s *Server) basicAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || user != s.cfg.AdminUsername || pass != s.cfg.AdminPassword {
				w.Header().Set("WWW-Authenticate", `Basic realm="oyasify"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.Error("admin handler error", "err", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
