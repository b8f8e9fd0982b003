/**
 * @description
 * Maps days overdue to a reminder escalation level.
 */
package app

import "github.com/duespark/dunning-service/internal/domain"

// ResolveTone returns the escalation level for the given days overdue.
// Days falling in a gap between configured ranges resolve to gentle; a gap
// is a configuration artifact, not an error.
func ResolveTone(levels domain.EscalationLevels, daysOverdue int) domain.EscalationLevel {
	if daysOverdue >= levels.UrgentMin {
		return domain.LevelUrgent
	}
	if daysOverdue >= levels.Firm.Min && daysOverdue <= levels.Firm.Max {
		return domain.LevelFirm
	}
	if daysOverdue >= levels.Gentle.Min && daysOverdue <= levels.Gentle.Max {
		return domain.LevelGentle
	}
	return domain.LevelGentle
}
