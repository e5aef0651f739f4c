package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dan9191/payplanner/internal/config"
	"github.com/Dan9191/payplanner/internal/installment"
	"github.com/Dan9191/payplanner/internal/middleware"
	"github.com/Dan9191/payplanner/internal/models"
	"github.com/Dan9191/payplanner/internal/money"
	"github.com/Dan9191/payplanner/internal/payment"
	"github.com/Dan9191/payplanner/internal/repository"
	"github.com/Dan9191/payplanner/internal/timeline"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
)

const tokenTTL = 24 * time.Hour

// Store is the persistence the service depends on
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreatePayment(ctx context.Context, p *models.PaymentRecord) error
	GetPayment(ctx context.Context, id int64) (*models.PaymentRecord, error)
	UpdatePayment(ctx context.Context, p *models.PaymentRecord) error
}

// Notifier tells clients about status transitions
type Notifier interface {
	NotifyStatus(p models.PaymentRecord) error
}

// RateSource provides the central bank key rate in percent
type RateSource interface {
	GetKeyRate(ctx context.Context) (decimal.Decimal, error)
}

// Service handles business logic
type Service struct {
	repo     Store
	notifier Notifier
	rates    RateSource
	log      *logrus.Logger
	config   *config.Config
	now      func() time.Time
}

// NewService initializes a new service
func NewService(repo Store, notifier Notifier, rates RateSource, log *logrus.Logger, cfg *config.Config) *Service {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		rates:    rates,
		log:      log,
		config:   cfg,
		now:      func() time.Time { return time.Now().In(loc) },
	}
}

// Register creates a new user with hashed password
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username, email = strings.TrimSpace(username), strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", ErrInvalidInput)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.FindUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Email)
	return tokenString, nil
}

// CreatePayment normalizes and stores a new payment
func (s *Service) CreatePayment(ctx context.Context, p models.PaymentRecord, actor string) (*models.PaymentRecord, error) {
	if p.Status != "" {
		if _, err := models.ParseStatus(string(p.Status)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	rec, _, err := payment.Create(p, s.now(), actor)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreatePayment(ctx, &rec); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"payment_id": rec.ID, "status": rec.Status, "actor": actor}).Info("Payment created")
	return &rec, nil
}

// GetPayment returns a stored payment
func (s *Service) GetPayment(ctx context.Context, id int64) (*models.PaymentRecord, error) {
	return s.repo.GetPayment(ctx, id)
}

// UpdatePayment applies an edit, stores the result and notifies the client
// when the payment was settled or became overdue
func (s *Service) UpdatePayment(ctx context.Context, id int64, edit payment.Edit, actor string) (*models.PaymentRecord, error) {
	current, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}

	next, events, err := payment.Update(*current, edit, s.now(), actor)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePayment(ctx, &next); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"payment_id": id, "events": len(events), "status": next.Status, "actor": actor}).Info("Payment updated")

	if next.Status != current.Status && (next.Status == models.StatusCompleted || next.Status == models.StatusOverdue) {
		if err := s.notifier.NotifyStatus(next); err != nil {
			s.log.WithError(err).WithField("payment_id", id).Warn("Status notification failed")
		}
	}
	return &next, nil
}

// Timeline returns the recorded history of a payment, oldest first
func (s *Service) Timeline(ctx context.Context, id int64) ([]timeline.Entry, error) {
	p, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	return timeline.Load(p.Timeline).Entries(), nil
}

// Calculate builds an installment schedule, starting today when no start date
// is given. UseKeyRate replaces the annual rate with the current key rate.
func (s *Service) Calculate(ctx context.Context, req models.InstallmentRequest) (models.InstallmentResult, error) {
	if req.UseKeyRate {
		rate, err := s.KeyRate(ctx)
		if err != nil {
			return models.InstallmentResult{}, err
		}
		req.AnnualRate = rate
	}
	if req.StartDate.IsZero() {
		req.StartDate = money.Date(s.now())
	}
	return installment.Calculate(req)
}

// KeyRate returns the current central bank key rate
func (s *Service) KeyRate(ctx context.Context) (decimal.Decimal, error) {
	rate, err := s.rates.GetKeyRate(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get key rate: %w", err)
	}
	return rate, nil
}
