/**
 * @description
 * Eligibility evaluation for reminder sends. Combines opt-out, budget,
 * max-count, interval, weekend and business-hours constraints into a single
 * decision with a machine-readable reason.
 */
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/duespark/dunning-service/internal/domain"
)

// Clock supplies the current time. Injected so evaluation is deterministic
// under test.
type Clock func() time.Time

// BudgetChecker reports whether a tenant is still within its monthly
// messaging budget.
type BudgetChecker interface {
	IsWithinBudget(ctx context.Context, userID string) (bool, error)
}

// Evaluator decides whether a reminder may be sent right now.
type Evaluator struct {
	clock  Clock
	budget BudgetChecker
}

// NewEvaluator creates an Evaluator. A nil clock defaults to time.Now.
func NewEvaluator(clock Clock, budget BudgetChecker) *Evaluator {
	if clock == nil {
		clock = time.Now
	}
	return &Evaluator{clock: clock, budget: budget}
}

// Evaluate applies the eligibility checks in a fixed order, short-circuiting
// on the first failure. The order is a contract: reason codes are observable
// and must be deterministic when several constraints fail at once.
//
//  1. opted_out
//  2. budget_exceeded
//  3. max_reminders_reached (counts successful sends only)
//  4. interval_not_met
//  5. weekend_excluded
//  6. outside_business_hours
func (e *Evaluator) Evaluate(ctx context.Context, contact domain.Contact, cfg domain.ReminderConfig, history []domain.ReminderLog) (domain.EligibilityDecision, error) {
	if contact.OptedOut {
		return domain.EligibilityDecision{Send: false, Reason: domain.ReasonOptedOut}, nil
	}

	if e.budget != nil {
		within, err := e.budget.IsWithinBudget(ctx, cfg.UserID)
		if err != nil {
			return domain.EligibilityDecision{}, fmt.Errorf("budget check: %w", err)
		}
		if !within {
			return domain.EligibilityDecision{Send: false, Reason: domain.ReasonBudgetExceeded}, nil
		}
	}

	if CountSent(history) >= cfg.MaxReminders {
		return domain.EligibilityDecision{Send: false, Reason: domain.ReasonMaxRemindersReached}, nil
	}

	now := e.clock()

	if last, ok := lastSentAt(history); ok {
		if daysBetween(last, now) < cfg.IntervalDays {
			return domain.EligibilityDecision{Send: false, Reason: domain.ReasonIntervalNotMet}, nil
		}
	}

	if cfg.ExcludeWeekends && isWeekend(now) {
		return domain.EligibilityDecision{Send: false, Reason: domain.ReasonWeekendExcluded}, nil
	}

	if cfg.BusinessHoursOnly {
		within, err := withinBusinessHours(now, cfg.BusinessHoursStart, cfg.BusinessHoursEnd)
		if err != nil {
			return domain.EligibilityDecision{}, err
		}
		if !within {
			return domain.EligibilityDecision{Send: false, Reason: domain.ReasonOutsideBusinessHours}, nil
		}
	}

	return domain.EligibilityDecision{Send: true, Reason: domain.ReasonAllChecksPassed}, nil
}

// CountSent returns the number of history rows that reached the sent state.
// Failed and pending attempts do not count against the max-reminders cap.
func CountSent(history []domain.ReminderLog) int {
	n := 0
	for _, log := range history {
		if log.Status == domain.LogStatusSent {
			n++
		}
	}
	return n
}

func lastSentAt(history []domain.ReminderLog) (time.Time, bool) {
	var last time.Time
	found := false
	for _, log := range history {
		if log.SentAt.IsZero() {
			continue
		}
		if !found || log.SentAt.After(last) {
			last = log.SentAt
			found = true
		}
	}
	return last, found
}

// daysBetween is the whole-day floor of the absolute difference between two
// instants. It is deliberately not calendar-aware: two events 23h59m apart
// are 0 days apart, which changes eligibility near midnight.
func daysBetween(a, b time.Time) int {
	diff := b.Sub(a)
	if diff < 0 {
		diff = -diff
	}
	return int(diff.Milliseconds() / millisPerDay)
}

const millisPerDay = 24 * 60 * 60 * 1000

// isWeekend uses the wall-clock weekday of the supplied instant. Times are
// interpreted in the server's local zone; tenant-local zones are not modeled.
func isWeekend(now time.Time) bool {
	wd := now.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// withinBusinessHours tests start <= minute-of-day < end (end-exclusive).
func withinBusinessHours(now time.Time, start, end string) (bool, error) {
	startMin, err := parseMinuteOfDay(start)
	if err != nil {
		return false, fmt.Errorf("invalid business hours start %q: %w", start, err)
	}
	endMin, err := parseMinuteOfDay(end)
	if err != nil {
		return false, fmt.Errorf("invalid business hours end %q: %w", end, err)
	}

	current := now.Hour()*60 + now.Minute()
	return current >= startMin && current < endMin, nil
}

func parseMinuteOfDay(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
