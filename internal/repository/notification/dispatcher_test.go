//go:build !integration

package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	"justEatMore/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	to      string
	subject string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (f *fakeSender) SendEmail(_ context.Context, _, toEmail, subject, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{to: toEmail, subject: subject})
	return f.err
}

func TestDispatcherRoutesEvents(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, Recipient{Name: "Ops", Email: "ops@justeatmore.test"}, 8)

	d.Notify(context.Background(), domain.OrderEvent{
		Kind:      domain.EventOrderCreated,
		Reference: "JEM-00000001",
		Customer:  "Rina",
		Email:     "rina@example.com",
		Status:    domain.StatusPendingApproval,
	})
	d.Notify(context.Background(), domain.OrderEvent{
		Kind:      domain.EventMarginNotMet,
		Reference: "JEM-00000001",
		Message:   "Could only achieve 20.0% margin (target: 38.0%).",
	})
	d.Notify(context.Background(), domain.OrderEvent{
		Kind:      domain.EventStatusChanged,
		Reference: "JEM-00000002",
		Status:    domain.StatusPaymentVerified,
	})
	d.Close()

	require.Len(t, sender.sent, 3, "status change without a customer email is only logged")
	assert.Equal(t, sent{to: "rina@example.com", subject: "We received your order JEM-00000001"}, sender.sent[0])
	assert.Equal(t, "ops@justeatmore.test", sender.sent[1].to)
	assert.Equal(t, "[margin_not_met] order JEM-00000001", sender.sent[2].subject)
}

func TestDispatcherSwallowsSendErrors(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp down")}
	d := NewDispatcher(sender, Recipient{Email: "ops@justeatmore.test"}, 1)

	d.Notify(context.Background(), domain.OrderEvent{Kind: domain.EventStockCommitFailed, Reference: "JEM-1"})
	d.Close()

	assert.Len(t, sender.sent, 1)
}

func TestDispatcherWithoutSender(t *testing.T) {
	d := NewDispatcher(nil, Recipient{}, 1)
	d.Notify(context.Background(), domain.OrderEvent{Kind: domain.EventOrderExpired, Reference: "JEM-1"})
	d.Close()
	d.Close()
}
