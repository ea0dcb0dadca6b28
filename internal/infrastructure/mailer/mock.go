package mailer

import (
	"context"
	"slices"
	"sync"
)

// Mock records sent emails. Err is returned from every Send.
type Mock struct {
	mu   sync.Mutex
	sent []Email
	Err  error
}

func (m *Mock) Send(_ context.Context, e Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, e)
	return nil
}

func (m *Mock) Sent() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.sent)
}
