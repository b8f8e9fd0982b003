/**
 * @description
 * In-process set of invoices excluded from reminder processing. Owned by the
 * orchestrator's caller and injected, so tests can reset state and multiple
 * orchestrators never share hidden globals.
 */
package app

import "sync"

// PauseList tracks invoice ids whose reminders are temporarily suspended.
// Safe for concurrent use. Not persisted; a restart clears it.
type PauseList struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

// NewPauseList creates an empty pause list.
func NewPauseList() *PauseList {
	return &PauseList{ids: make(map[string]struct{})}
}

// Pause suspends reminders for the invoice.
func (p *PauseList) Pause(invoiceID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids[invoiceID] = struct{}{}
}

// Resume lifts a suspension. Resuming an unpaused invoice is a no-op.
func (p *PauseList) Resume(invoiceID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.ids, invoiceID)
}

// Contains reports whether the invoice is currently paused.
func (p *PauseList) Contains(invoiceID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.ids[invoiceID]
	return ok
}

// List returns the currently paused invoice ids.
func (p *PauseList) List() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.ids))
	for id := range p.ids {
		out = append(out, id)
	}
	return out
}
