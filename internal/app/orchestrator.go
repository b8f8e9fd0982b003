/**
 * @description
 * The reminder orchestrator drives one scheduler tick: for every overdue
 * invoice it evaluates eligibility, resolves the escalation tone, composes
 * the message and dispatches it on each configured channel, recording a
 * reminder log row per channel attempt.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/duespark/dunning-service/internal/domain"
)

// ErrTickInProgress is returned when a tick starts while the previous one
// is still running. Overlapping ticks are rejected, never queued, so two
// ticks can never evaluate the same interval constraint concurrently.
var ErrTickInProgress = errors.New("reminder tick already in progress")

// Repository is the persistence surface the orchestrator needs.
type Repository interface {
	ListActiveConfigs(ctx context.Context) ([]domain.ReminderConfig, error)
	ListOverdueInvoices(ctx context.Context) ([]domain.Invoice, error)
	FindContactByInvoiceID(ctx context.Context, invoiceID string) (*domain.Contact, error)
	CreateLog(ctx context.Context, log *domain.ReminderLog) error
	UpdateLog(ctx context.Context, log *domain.ReminderLog) error
	FindLogsByInvoiceID(ctx context.Context, invoiceID string) ([]domain.ReminderLog, error)
}

// Transport delivers one message to one address on a specific channel.
type Transport interface {
	Send(ctx context.Context, address, message string) (domain.SendReceipt, error)
}

// TickResult summarizes one orchestrator tick.
type TickResult struct {
	Evaluated int `json:"evaluated"`
	Skipped   int `json:"skipped"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
}

// Orchestrator runs the reminder pipeline once per scheduler tick.
type Orchestrator struct {
	repo        Repository
	evaluator   *Evaluator
	dispatcher  *Dispatcher
	composer    Composer
	transports  map[domain.Channel]Transport
	notifier    Notifier
	paused      *PauseList
	clock       Clock
	logger      *slog.Logger
	workerCount int
	retryPolicy RetryPolicy
	alertAfter  int

	tickMu sync.Mutex
}

// OrchestratorParams bundles the orchestrator's dependencies.
type OrchestratorParams struct {
	Repo        Repository
	Evaluator   *Evaluator
	Dispatcher  *Dispatcher
	Composer    Composer
	Transports  map[domain.Channel]Transport
	Notifier    Notifier
	Paused      *PauseList
	Clock       Clock
	Logger      *slog.Logger
	WorkerCount int
	RetryPolicy RetryPolicy
	// AlertAfter is the number of failures in one tick that triggers a
	// single aggregated notification. Zero selects the default of 3.
	AlertAfter int
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(p OrchestratorParams) *Orchestrator {
	if p.Clock == nil {
		p.Clock = time.Now
	}
	if p.WorkerCount <= 0 {
		p.WorkerCount = 4
	}
	if p.AlertAfter <= 0 {
		p.AlertAfter = 3
	}
	if p.Paused == nil {
		p.Paused = NewPauseList()
	}
	return &Orchestrator{
		repo:        p.Repo,
		evaluator:   p.Evaluator,
		dispatcher:  p.Dispatcher,
		composer:    p.Composer,
		transports:  p.Transports,
		notifier:    p.Notifier,
		paused:      p.Paused,
		clock:       p.Clock,
		logger:      p.Logger,
		workerCount: p.WorkerCount,
		retryPolicy: p.RetryPolicy,
		alertAfter:  p.AlertAfter,
	}
}

// tickState is the only state shared across invoice workers within a tick.
type tickState struct {
	evaluated atomic.Int64
	skipped   atomic.Int64
	sent      atomic.Int64
	failed    atomic.Int64

	mu         sync.Mutex
	invoiceIDs []string
	errs       []string
}

func (s *tickState) recordFailure(invoiceID string, msg string) {
	s.failed.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoiceIDs = append(s.invoiceIDs, invoiceID)
	s.errs = append(s.errs, msg)
}

// RunTick processes all overdue invoices once. Invoices are handled
// concurrently by a bounded worker pool; each invoice's eligibility and
// delivery are independent of every other invoice's. A failure threshold
// triggers one aggregated notification for the whole tick, and a crash
// anywhere in the tick is reported without poisoning the next tick.
func (o *Orchestrator) RunTick(ctx context.Context) (result *TickResult, err error) {
	if !o.tickMu.TryLock() {
		return nil, ErrTickInProgress
	}
	defer o.tickMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reminder tick panic: %v", r)
			o.notifier.NotifySchedulerFailure(ctx, err)
			result = nil
		}
	}()

	started := o.clock()
	o.logger.Info("reminder tick started")

	configs, err := o.repo.ListActiveConfigs(ctx)
	if err != nil {
		wrapped := fmt.Errorf("load reminder configs: %w", err)
		o.notifier.NotifySchedulerFailure(ctx, wrapped)
		return nil, wrapped
	}

	configByUser := make(map[string]domain.ReminderConfig, len(configs))
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		configByUser[cfg.UserID] = cfg
	}

	invoices, err := o.repo.ListOverdueInvoices(ctx)
	if err != nil {
		wrapped := fmt.Errorf("list overdue invoices: %w", err)
		o.notifier.NotifySchedulerFailure(ctx, wrapped)
		return nil, wrapped
	}

	state := &tickState{}
	sem := make(chan struct{}, o.workerCount)
	var wg sync.WaitGroup

	for _, invoice := range invoices {
		cfg, ok := configByUser[invoice.UserID]
		if !ok {
			state.skipped.Add(1)
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(invoice domain.Invoice, cfg domain.ReminderConfig) {
			defer wg.Done()
			defer func() { <-sem }()
			o.processInvoice(ctx, invoice, cfg, state)
		}(invoice, cfg)
	}
	wg.Wait()

	failed := int(state.failed.Load())
	if failed >= o.alertAfter {
		state.mu.Lock()
		ids := append([]string(nil), state.invoiceIDs...)
		errs := append([]string(nil), state.errs...)
		state.mu.Unlock()
		o.notifier.NotifyFailedBatch(ctx, failed, ids, errs)
	}

	result = &TickResult{
		Evaluated: int(state.evaluated.Load()),
		Skipped:   int(state.skipped.Load()),
		Sent:      int(state.sent.Load()),
		Failed:    failed,
	}
	o.logger.Info("reminder tick finished",
		"evaluated", result.Evaluated,
		"skipped", result.Skipped,
		"sent", result.Sent,
		"failed", result.Failed,
		"duration", o.clock().Sub(started).String(),
	)
	return result, nil
}

// processInvoice runs the full pipeline for one invoice. Errors are caught
// and recorded here so one bad invoice never aborts the rest of the batch.
func (o *Orchestrator) processInvoice(ctx context.Context, invoice domain.Invoice, cfg domain.ReminderConfig, state *tickState) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("invoice processing panic", "invoice_id", invoice.ID, "panic", r)
			state.recordFailure(invoice.ID, fmt.Sprintf("panic: %v", r))
		}
	}()

	if o.paused.Contains(invoice.ID) {
		o.logger.Debug("invoice paused, skipping", "invoice_id", invoice.ID)
		state.skipped.Add(1)
		return
	}

	contact, err := o.repo.FindContactByInvoiceID(ctx, invoice.ID)
	if err != nil {
		o.logger.Warn("no contact for invoice, skipping", "invoice_id", invoice.ID, "error", err)
		state.skipped.Add(1)
		return
	}

	history, err := o.repo.FindLogsByInvoiceID(ctx, invoice.ID)
	if err != nil {
		o.logger.Error("failed to load reminder history", "invoice_id", invoice.ID, "error", err)
		state.recordFailure(invoice.ID, fmt.Sprintf("load history: %v", err))
		return
	}

	state.evaluated.Add(1)

	decision, err := o.evaluator.Evaluate(ctx, *contact, cfg, history)
	if err != nil {
		o.logger.Error("eligibility evaluation failed", "invoice_id", invoice.ID, "error", err)
		state.recordFailure(invoice.ID, fmt.Sprintf("evaluate: %v", err))
		return
	}
	if !decision.Send {
		// Skipped invoices leave no log row; only attempted sends are logged.
		o.logger.Debug("invoice not eligible", "invoice_id", invoice.ID, "reason", decision.Reason)
		state.skipped.Add(1)
		return
	}

	now := o.clock()
	daysOverdue := o.daysOverdue(invoice, now)
	level := ResolveTone(cfg.Escalation, daysOverdue)
	message := o.composer.Compose(level, invoice, *contact, cfg.PaymentDetails, CountSent(history))

	for _, channel := range cfg.Channels {
		address := addressFor(*contact, channel)
		if address == "" {
			continue
		}

		transport, ok := o.transports[channel]
		if !ok {
			o.logger.Warn("no transport configured for channel", "channel", channel)
			continue
		}

		o.deliverOnChannel(ctx, invoice, channel, transport, address, message, level, state)
	}
}

// deliverOnChannel creates the pending log row, dispatches with retry, and
// settles the row to its terminal state. Channel-level failures are recorded
// without aborting the invoice's other channels.
func (o *Orchestrator) deliverOnChannel(ctx context.Context, invoice domain.Invoice, channel domain.Channel, transport Transport, address, message string, level domain.EscalationLevel, state *tickState) {
	now := o.clock()
	log := &domain.ReminderLog{
		ID:        uuid.NewString(),
		InvoiceID: invoice.ID,
		Channel:   channel,
		Status:    domain.LogStatusPending,
		Message:   message,
		Level:     level,
		SentAt:    now,
	}
	if err := o.repo.CreateLog(ctx, log); err != nil {
		o.logger.Error("failed to create reminder log", "invoice_id", invoice.ID, "channel", channel, "error", err)
		state.recordFailure(invoice.ID, fmt.Sprintf("create log: %v", err))
		return
	}

	outcome := o.dispatcher.Dispatch(func() (domain.SendReceipt, error) {
		return transport.Send(ctx, address, message)
	}, o.retryPolicy)

	if outcome.Success {
		delivered := o.clock()
		log.Status = domain.LogStatusSent
		log.DeliveredAt = &delivered
		log.Cost = &outcome.Cost
	} else {
		errMsg := outcome.Err.Error()
		log.Status = domain.LogStatusFailed
		log.Error = &errMsg
		log.Retryable = outcome.Retryable
	}

	if err := o.repo.UpdateLog(ctx, log); err != nil {
		o.logger.Error("failed to update reminder log", "log_id", log.ID, "error", err)
		state.recordFailure(invoice.ID, fmt.Sprintf("update log: %v", err))
		return
	}

	if outcome.Success {
		o.logger.Info("reminder sent",
			"invoice_id", invoice.ID,
			"channel", channel,
			"level", level,
			"attempts", outcome.Attempts,
			"message_id", outcome.MessageID,
		)
		state.sent.Add(1)
		return
	}

	o.logger.Error("reminder delivery failed",
		"invoice_id", invoice.ID,
		"channel", channel,
		"attempts", outcome.Attempts,
		"retryable", outcome.Retryable,
		"error", outcome.Err,
	)
	state.recordFailure(invoice.ID, fmt.Sprintf("%s: %v", channel, outcome.Err))
}

func (o *Orchestrator) daysOverdue(invoice domain.Invoice, now time.Time) int {
	days := int(now.Sub(invoice.DueDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func addressFor(contact domain.Contact, channel domain.Channel) string {
	switch channel {
	case domain.ChannelEmail:
		return contact.Email
	case domain.ChannelSMS:
		return contact.Phone
	default:
		return ""
	}
}
