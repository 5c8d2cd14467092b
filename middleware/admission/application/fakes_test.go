package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"admission-gate/middleware/admission/domain"
)

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type fakeMessenger struct {
	mu      sync.Mutex
	nextID  int64
	sent    []domain.OutgoingMessage
	deleted []domain.MessageRef
	sendErr error
	delErr  error
}

func (m *fakeMessenger) Send(_ context.Context, msg domain.OutgoingMessage) (domain.MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return domain.MessageRef{}, m.sendErr
	}
	m.nextID++
	m.sent = append(m.sent, msg)
	return domain.MessageRef{ChatID: msg.ChatID, MessageID: m.nextID}, nil
}

func (m *fakeMessenger) Delete(_ context.Context, ref domain.MessageRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.delErr != nil {
		return m.delErr
	}
	m.deleted = append(m.deleted, ref)
	return nil
}

func (m *fakeMessenger) Sent() []domain.OutgoingMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.OutgoingMessage(nil), m.sent...)
}

func (m *fakeMessenger) Deleted() []domain.MessageRef {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.MessageRef(nil), m.deleted...)
}

// mapLedger é um PromptLedger mínimo para testes do gate.
type mapLedger struct {
	mu       sync.Mutex
	cooldown time.Duration
	last     map[domain.UserID]time.Time
}

func newMapLedger(cooldown time.Duration) *mapLedger {
	return &mapLedger{cooldown: cooldown, last: map[domain.UserID]time.Time{}}
}

func (l *mapLedger) Reserve(user domain.UserID, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if at, ok := l.last[user]; ok && now.Sub(at) < l.cooldown {
		return false
	}
	l.last[user] = now
	return true
}

func staticProbe(m domain.Membership, err error) domain.MembershipProbe {
	return domain.ProbeFunc(func(context.Context, domain.UserID) (domain.Membership, error) {
		return m, err
	})
}

var errProbe = errors.New("probe timeout")
