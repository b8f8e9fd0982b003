/**
 * @description
 * This file implements the data access layer for the dunning service.
 * It contains all the SQL queries and logic for interacting with the
 * database for reminder processing.
 */
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duespark/dunning-service/internal/domain"
)

// ErrContactNotFound is returned when an invoice has no contact record.
var ErrContactNotFound = errors.New("contact not found")

// Repository handles database operations for the dunning service.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ListOverdueInvoices fetches all unpaid invoices whose due date has passed.
func (r *Repository) ListOverdueInvoices(ctx context.Context) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	query := `
        SELECT id, user_id, invoice_number, amount, currency, status, due_date
        FROM invoices
        WHERE status IN ('pending', 'overdue')
          AND due_date < NOW()
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var inv domain.Invoice
		if err := rows.Scan(&inv.ID, &inv.UserID, &inv.InvoiceNumber, &inv.Amount, &inv.Currency, &inv.Status, &inv.DueDate); err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}

	return invoices, rows.Err()
}

// FindContactByInvoiceID fetches the contact record for an invoice.
func (r *Repository) FindContactByInvoiceID(ctx context.Context, invoiceID string) (*domain.Contact, error) {
	var contact domain.Contact
	query := `
        SELECT invoice_id, COALESCE(email, ''), COALESCE(phone, ''), opted_out
        FROM contacts
        WHERE invoice_id = $1
    `
	err := r.db.QueryRow(ctx, query, invoiceID).Scan(&contact.InvoiceID, &contact.Email, &contact.Phone, &contact.OptedOut)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}
	return &contact, nil
}

// ListActiveConfigs fetches all enabled reminder configurations.
func (r *Repository) ListActiveConfigs(ctx context.Context) ([]domain.ReminderConfig, error) {
	var configs []domain.ReminderConfig
	query := `
        SELECT id, user_id, enabled, channels, interval_days, max_reminders,
               business_hours_only, exclude_weekends,
               business_hours_start, business_hours_end,
               gentle_min, gentle_max, firm_min, firm_max, urgent_min,
               COALESCE(payment_details, '')
        FROM reminder_configs
        WHERE enabled = TRUE
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var cfg domain.ReminderConfig
		var channels []string
		err := rows.Scan(
			&cfg.ID, &cfg.UserID, &cfg.Enabled, &channels, &cfg.IntervalDays, &cfg.MaxReminders,
			&cfg.BusinessHoursOnly, &cfg.ExcludeWeekends,
			&cfg.BusinessHoursStart, &cfg.BusinessHoursEnd,
			&cfg.Escalation.Gentle.Min, &cfg.Escalation.Gentle.Max,
			&cfg.Escalation.Firm.Min, &cfg.Escalation.Firm.Max,
			&cfg.Escalation.UrgentMin,
			&cfg.PaymentDetails,
		)
		if err != nil {
			return nil, err
		}
		for _, ch := range channels {
			cfg.Channels = append(cfg.Channels, domain.Channel(ch))
		}
		configs = append(configs, cfg)
	}

	return configs, rows.Err()
}

// CreateLog inserts a new reminder log row in its initial state.
func (r *Repository) CreateLog(ctx context.Context, log *domain.ReminderLog) error {
	query := `
        INSERT INTO reminder_logs
            (id, invoice_id, channel, status, message, escalation_level, sent_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
    `
	_, err := r.db.Exec(ctx, query,
		log.ID, log.InvoiceID, log.Channel, log.Status, log.Message, log.Level, log.SentAt)
	return err
}

// UpdateLog settles a reminder log row to its terminal state.
func (r *Repository) UpdateLog(ctx context.Context, log *domain.ReminderLog) error {
	query := `
        UPDATE reminder_logs
        SET status = $1,
            delivered_at = $2,
            error = $3,
            cost = $4,
            retryable = $5,
            updated_at = NOW()
        WHERE id = $6
    `
	_, err := r.db.Exec(ctx, query,
		log.Status, log.DeliveredAt, log.Error, log.Cost, log.Retryable, log.ID)
	return err
}

// FindLogsByInvoiceID fetches all reminder log rows for an invoice, newest
// first.
func (r *Repository) FindLogsByInvoiceID(ctx context.Context, invoiceID string) ([]domain.ReminderLog, error) {
	var logs []domain.ReminderLog
	query := `
        SELECT id, invoice_id, channel, status, message, escalation_level,
               sent_at, delivered_at, error, cost, COALESCE(retryable, FALSE),
               created_at, updated_at
        FROM reminder_logs
        WHERE invoice_id = $1
        ORDER BY sent_at DESC
    `
	rows, err := r.db.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var log domain.ReminderLog
		err := rows.Scan(
			&log.ID, &log.InvoiceID, &log.Channel, &log.Status, &log.Message, &log.Level,
			&log.SentAt, &log.DeliveredAt, &log.Error, &log.Cost, &log.Retryable,
			&log.CreatedAt, &log.UpdatedAt)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}

	return logs, rows.Err()
}

// CountSent returns the number of successfully sent reminders for an invoice.
func (r *Repository) CountSent(ctx context.Context, invoiceID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM reminder_logs WHERE invoice_id = $1 AND status = 'sent'`
	if err := r.db.QueryRow(ctx, query, invoiceID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// MonthlySpend sums the recorded delivery costs for a tenant's reminders
// since the given instant.
func (r *Repository) MonthlySpend(ctx context.Context, userID string, since time.Time) (float64, error) {
	var spend float64
	query := `
        SELECT COALESCE(SUM(l.cost), 0)
        FROM reminder_logs l
        JOIN invoices i ON i.id = l.invoice_id
        WHERE i.user_id = $1
          AND l.sent_at >= $2
          AND l.cost IS NOT NULL
    `
	if err := r.db.QueryRow(ctx, query, userID, since).Scan(&spend); err != nil {
		return 0, err
	}
	return spend, nil
}
