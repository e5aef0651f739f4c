package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/payplanner/internal/models"
	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a row does not exist
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint rejects an insert
	ErrDuplicate = errors.New("already exists")
)

const uniqueViolation = "23505"

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO planner.users (username, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, user.Username, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("user %s: %w", user.Email, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, created_at, updated_at
		FROM planner.users
		WHERE email = $1`
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

const paymentColumns = `id, client_name, client_email, description, amount, paid_amount,
		due_date, planned_date, last_payment_date, paid_date, status, is_paid,
		reschedule_count, audit_notes, timeline, created_at, updated_at`

// nullDate stores an unset due date as NULL so the overdue sweep never matches it
func nullDate(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

// CreatePayment inserts a payment record
func (r *Repository) CreatePayment(ctx context.Context, p *models.PaymentRecord) error {
	query := `
		INSERT INTO planner.payments (client_name, client_email, description, amount, paid_amount,
			due_date, planned_date, last_payment_date, paid_date, status, is_paid,
			reschedule_count, audit_notes, timeline, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		p.ClientName, p.ClientEmail, p.Description, p.AmountDue, p.PaidAmount,
		nullDate(p.DueDate), p.PlannedDate, p.LastPaymentDate, p.PaidDate, p.Status, p.IsPaid,
		p.RescheduleCount, p.AuditNotes, p.Timeline,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetPayment retrieves a payment by id
func (r *Repository) GetPayment(ctx context.Context, id int64) (*models.PaymentRecord, error) {
	p := &models.PaymentRecord{}
	var due sql.NullTime
	query := `SELECT ` + paymentColumns + ` FROM planner.payments WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.ClientName, &p.ClientEmail, &p.Description, &p.AmountDue, &p.PaidAmount,
		&due, &p.PlannedDate, &p.LastPaymentDate, &p.PaidDate, &p.Status, &p.IsPaid,
		&p.RescheduleCount, &p.AuditNotes, &p.Timeline, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("payment %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if due.Valid {
		p.DueDate = due.Time
	}
	return p, nil
}

// UpdatePayment stores every field of an existing payment
func (r *Repository) UpdatePayment(ctx context.Context, p *models.PaymentRecord) error {
	query := `
		UPDATE planner.payments
		SET client_name = $1, client_email = $2, description = $3, amount = $4, paid_amount = $5,
			due_date = $6, planned_date = $7, last_payment_date = $8, paid_date = $9, status = $10,
			is_paid = $11, reschedule_count = $12, audit_notes = $13, timeline = $14,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $15
		RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		p.ClientName, p.ClientEmail, p.Description, p.AmountDue, p.PaidAmount,
		nullDate(p.DueDate), p.PlannedDate, p.LastPaymentDate, p.PaidDate, p.Status,
		p.IsPaid, p.RescheduleCount, p.AuditNotes, p.Timeline, p.ID,
	).Scan(&p.UpdatedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("payment %d: %w", p.ID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	return nil
}

// MarkOverdue flips every unpaid pending payment due before today to overdue
// in a single transaction.
func (r *Repository) MarkOverdue(ctx context.Context, today time.Time) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin overdue sweep: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE planner.payments
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE is_paid = false AND status = $2 AND due_date < $3`
	res, err := tx.ExecContext(ctx, query, models.StatusOverdue, models.StatusPending, today)
	if err != nil {
		return 0, fmt.Errorf("failed to mark payments overdue: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count overdue payments: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit overdue sweep: %w", err)
	}
	return n, nil
}
