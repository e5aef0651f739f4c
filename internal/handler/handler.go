package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Dan9191/payplanner/internal/installment"
	"github.com/Dan9191/payplanner/internal/middleware"
	"github.com/Dan9191/payplanner/internal/models"
	"github.com/Dan9191/payplanner/internal/payment"
	"github.com/Dan9191/payplanner/internal/repository"
	"github.com/Dan9191/payplanner/internal/service"
	"github.com/Dan9191/payplanner/internal/timeline"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Planner is the business surface the handlers call
type Planner interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	CreatePayment(ctx context.Context, p models.PaymentRecord, actor string) (*models.PaymentRecord, error)
	GetPayment(ctx context.Context, id int64) (*models.PaymentRecord, error)
	UpdatePayment(ctx context.Context, id int64, edit payment.Edit, actor string) (*models.PaymentRecord, error)
	Timeline(ctx context.Context, id int64) ([]timeline.Entry, error)
	Calculate(ctx context.Context, req models.InstallmentRequest) (models.InstallmentResult, error)
	KeyRate(ctx context.Context) (decimal.Decimal, error)
}

type Handler struct {
	svc Planner
	log *logrus.Logger
}

func NewHandler(svc Planner, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail maps a service error to a status code
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, installment.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, repository.ErrDuplicate):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.log.WithError(err).WithField("path", r.URL.Path).Error("Request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func paymentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid payment id")
		return 0, false
	}
	return id, true
}

func actor(r *http.Request) string {
	if name, ok := middleware.Username(r.Context()); ok {
		return name
	}
	return payment.SystemActor
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decode(w, r, &req) {
		return
	}
	user, err := h.svc.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decode(w, r, &req) {
		return
	}
	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Calculate returns an installment schedule
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req models.InstallmentRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Calculate(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// KeyRate returns the current central bank key rate
func (h *Handler) KeyRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.svc.KeyRate(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"keyRate": rate})
}

// CreatePayment stores a new payment
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentRecord
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.CreatePayment(r.Context(), req, actor(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// GetPayment returns one payment
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := paymentID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.GetPayment(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdatePayment applies a partial edit
func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := paymentID(w, r)
	if !ok {
		return
	}
	var edit payment.Edit
	if !decode(w, r, &edit) {
		return
	}
	p, err := h.svc.UpdatePayment(r.Context(), id, edit, actor(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Timeline returns the payment history
func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	id, ok := paymentID(w, r)
	if !ok {
		return
	}
	entries, err := h.svc.Timeline(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Routes registers the public and the token protected endpoints
func (h *Handler) Routes(r *mux.Router, auth mux.MiddlewareFunc) {
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/calculate", h.Calculate).Methods("POST")
	r.HandleFunc("/key-rate", h.KeyRate).Methods("GET")

	payments := r.PathPrefix("/payments").Subrouter()
	payments.Use(auth)
	payments.HandleFunc("", h.CreatePayment).Methods("POST")
	payments.HandleFunc("/{id:[0-9]+}", h.GetPayment).Methods("GET")
	payments.HandleFunc("/{id:[0-9]+}", h.UpdatePayment).Methods("PATCH")
	payments.HandleFunc("/{id:[0-9]+}/timeline", h.Timeline).Methods("GET")
}
