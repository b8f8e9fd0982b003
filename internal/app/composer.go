/**
 * @description
 * Default reminder message composition. One template per escalation level,
 * interpolating invoice details and payment instructions.
 */
package app

import (
	"fmt"
	"strings"

	"github.com/duespark/dunning-service/internal/domain"
)

// Composer builds the outbound reminder text for one invoice.
type Composer interface {
	Compose(level domain.EscalationLevel, invoice domain.Invoice, contact domain.Contact, paymentDetails string, previousReminderCount int) string
}

// TemplateComposer is the built-in Composer.
type TemplateComposer struct{}

// NewTemplateComposer creates the default composer.
func NewTemplateComposer() *TemplateComposer {
	return &TemplateComposer{}
}

// Compose renders the reminder body for the given tone.
func (c *TemplateComposer) Compose(level domain.EscalationLevel, invoice domain.Invoice, contact domain.Contact, paymentDetails string, previousReminderCount int) string {
	amount := FormatAmount(invoice.Amount, invoice.Currency)

	var b strings.Builder
	switch level {
	case domain.LevelUrgent:
		fmt.Fprintf(&b, "URGENT: Invoice %s for %s is seriously overdue. Immediate payment is required to avoid further action.", invoice.InvoiceNumber, amount)
	case domain.LevelFirm:
		fmt.Fprintf(&b, "Invoice %s for %s is overdue. Please arrange payment as soon as possible.", invoice.InvoiceNumber, amount)
	default:
		fmt.Fprintf(&b, "Friendly reminder: invoice %s for %s is past its due date. We would appreciate your payment at your earliest convenience.", invoice.InvoiceNumber, amount)
	}

	fmt.Fprintf(&b, " It was due on %s.", invoice.DueDate.Format("2 January 2006"))

	if previousReminderCount > 0 {
		fmt.Fprintf(&b, " This is reminder number %d for this invoice.", previousReminderCount+1)
	}

	if paymentDetails != "" {
		fmt.Fprintf(&b, " Payment details: %s", paymentDetails)
	}

	return b.String()
}

// FormatAmount renders a minor-unit amount as a human-readable figure,
// e.g. 123456 EUR -> "EUR 1234.56".
func FormatAmount(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	if currency == "" {
		return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
	}
	return fmt.Sprintf("%s %s%d.%02d", currency, sign, minor/100, minor%100)
}
