/**
 * @description
 * Domain models for the dunning reminder service.
 */
package domain

import "time"

// Channel identifies a delivery channel for reminders.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Invoice is a read-only view of an overdue invoice. The invoice lifecycle
// is owned by the invoicing service; this service never mutates it.
type Invoice struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	InvoiceNumber string    `json:"invoice_number"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	DueDate       time.Time `json:"due_date"`
}

// Contact holds the reachable addresses for an invoice's debtor. At least
// one of Email/Phone is guaranteed non-empty by the service that creates
// contacts. OptedOut is an absolute veto over all automated reminders.
type Contact struct {
	InvoiceID string `json:"invoice_id"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	OptedOut  bool   `json:"opted_out"`
}

// EscalationRange is an inclusive days-overdue range.
type EscalationRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// EscalationLevels maps days overdue to a reminder tone. Ranges are
// validated at config-save time to be non-overlapping and increasing.
type EscalationLevels struct {
	Gentle    EscalationRange `json:"gentle"`
	Firm      EscalationRange `json:"firm"`
	UrgentMin int             `json:"urgent_min"`
}

// ReminderConfig is the per-tenant dunning configuration. The service
// assumes it was validated on save: IntervalDays >= 1, MaxReminders >= 1,
// Channels non-empty, business hours well-formed HH:MM with start < end.
type ReminderConfig struct {
	ID                 string           `json:"id"`
	UserID             string           `json:"user_id"`
	Enabled            bool             `json:"enabled"`
	Channels           []Channel        `json:"channels"`
	IntervalDays       int              `json:"interval_days"`
	MaxReminders       int              `json:"max_reminders"`
	BusinessHoursOnly  bool             `json:"business_hours_only"`
	ExcludeWeekends    bool             `json:"exclude_weekends"`
	BusinessHoursStart string           `json:"business_hours_start"`
	BusinessHoursEnd   string           `json:"business_hours_end"`
	Escalation         EscalationLevels `json:"escalation"`
	PaymentDetails     string           `json:"payment_details"`
}

// EscalationLevel is the tone a reminder carries.
type EscalationLevel string

const (
	LevelGentle EscalationLevel = "gentle"
	LevelFirm   EscalationLevel = "firm"
	LevelUrgent EscalationLevel = "urgent"
)

// Urgency orders escalation levels: gentle < firm < urgent.
func (l EscalationLevel) Urgency() int {
	switch l {
	case LevelFirm:
		return 2
	case LevelUrgent:
		return 3
	default:
		return 1
	}
}

// LogStatus is the lifecycle state of a reminder log row.
type LogStatus string

const (
	LogStatusPending LogStatus = "pending"
	LogStatusSent    LogStatus = "sent"
	LogStatusFailed  LogStatus = "failed"
)

// ReminderLog is the append-only record of one delivery attempt-set on one
// channel. Rows are created pending before dispatch and updated in place to
// sent or failed afterwards; they are never deleted. Eligibility checks
// reconstruct reminder counts and spacing solely from these rows.
type ReminderLog struct {
	ID          string          `json:"id"`
	InvoiceID   string          `json:"invoice_id"`
	Channel     Channel         `json:"channel"`
	Status      LogStatus       `json:"status"`
	Message     string          `json:"message"`
	Level       EscalationLevel `json:"escalation_level"`
	SentAt      time.Time       `json:"sent_at"`
	DeliveredAt *time.Time      `json:"delivered_at,omitempty"`
	Error       *string         `json:"error,omitempty"`
	Cost        *float64        `json:"cost,omitempty"`
	Retryable   bool            `json:"retryable"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// SkipReason is the machine-readable reason attached to every eligibility
// decision. Exactly one reason accompanies each decision.
type SkipReason string

const (
	ReasonAllChecksPassed      SkipReason = "all_checks_passed"
	ReasonMaxRemindersReached  SkipReason = "max_reminders_reached"
	ReasonIntervalNotMet       SkipReason = "interval_not_met"
	ReasonWeekendExcluded      SkipReason = "weekend_excluded"
	ReasonOutsideBusinessHours SkipReason = "outside_business_hours"
	ReasonOptedOut             SkipReason = "opted_out"
	ReasonBudgetExceeded       SkipReason = "budget_exceeded"
)

// EligibilityDecision is the send/no-send verdict for one invoice.
type EligibilityDecision struct {
	Send   bool       `json:"send"`
	Reason SkipReason `json:"reason"`
}

// SendReceipt is the success payload returned by a channel transport.
type SendReceipt struct {
	MessageID string  `json:"message_id"`
	Cost      float64 `json:"cost"`
}
