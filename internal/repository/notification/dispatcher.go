package notification

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"justEatMore/domain"
	"justEatMore/pkg/logger"
)

// EmailSender delivers one message. Mailjet and SendGrid both satisfy it.
type EmailSender interface {
	SendEmail(ctx context.Context, toName, toEmail, subject, message string) error
}

type Recipient struct {
	Name  string
	Email string
}

// Dispatcher turns order events into emails on a background worker. Notify
// never blocks the caller; when the queue is full the event is logged and
// dropped. A nil sender logs events instead of mailing them.
type Dispatcher struct {
	sender  EmailSender
	admin   Recipient
	queue   chan domain.OrderEvent
	timeout time.Duration
	wg      sync.WaitGroup
	once    sync.Once
}

func NewDispatcher(sender EmailSender, admin Recipient, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	d := &Dispatcher{
		sender:  sender,
		admin:   admin,
		queue:   make(chan domain.OrderEvent, queueSize),
		timeout: 10 * time.Second,
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *Dispatcher) Notify(_ context.Context, event domain.OrderEvent) {
	select {
	case d.queue <- event:
	default:
		logger.Warn("notification queue full, dropping event", "kind", string(event.Kind), "order_ref", event.Reference)
	}
}

// Close stops accepting events and waits for queued ones to be sent.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for event := range d.queue {
		for _, m := range d.messages(event) {
			d.deliver(event, m)
		}
	}
}

type message struct {
	to      Recipient
	subject string
	body    string
}

func (d *Dispatcher) deliver(event domain.OrderEvent, m message) {
	if d.sender == nil || m.to.Email == "" {
		logger.Info("notification", "kind", string(event.Kind), "order_ref", event.Reference, "to", m.to.Email, "subject", m.subject)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.sender.SendEmail(ctx, m.to.Name, m.to.Email, m.subject, m.body); err != nil {
		logger.Warn("failed to send notification", "kind", string(event.Kind), "order_ref", event.Reference, "error", err.Error())
	}
}

// messages renders the emails an event produces. Customers hear about their
// own order; staff hear about everything that needs a decision.
func (d *Dispatcher) messages(event domain.OrderEvent) []message {
	customer := Recipient{Name: event.Customer, Email: event.Email}

	switch event.Kind {
	case domain.EventOrderCreated:
		return []message{
			{
				to:      customer,
				subject: fmt.Sprintf("We received your order %s", event.Reference),
				body:    fmt.Sprintf("Hi %s,\n\nThanks for your order %s. Its status is %s.\n%s", event.Customer, event.Reference, event.Status, event.Message),
			},
			{
				to:      d.admin,
				subject: fmt.Sprintf("New order %s", event.Reference),
				body:    fmt.Sprintf("Order %s from %s is %s.\n%s", event.Reference, event.Customer, event.Status, event.Message),
			},
		}
	case domain.EventStatusChanged:
		return []message{{
			to:      customer,
			subject: fmt.Sprintf("Order %s is now %s", event.Reference, strings.ReplaceAll(string(event.Status), "_", " ")),
			body:    fmt.Sprintf("Hi %s,\n\n%s", event.Customer, event.Message),
		}}
	case domain.EventOrderExpired:
		return []message{{
			to:      customer,
			subject: fmt.Sprintf("Order %s expired", event.Reference),
			body:    fmt.Sprintf("Hi %s,\n\nWe did not receive payment for order %s in time, so it was cancelled.", event.Customer, event.Reference),
		}}
	case domain.EventMarginNotMet, domain.EventStockCommitFailed, domain.EventStockRestored:
		return []message{{
			to:      d.admin,
			subject: fmt.Sprintf("[%s] order %s", event.Kind, event.Reference),
			body:    event.Message,
		}}
	default:
		return nil
	}
}

func htmlBody(text string) string {
	return strings.ReplaceAll(html.EscapeString(text), "\n", "<br>")
}
