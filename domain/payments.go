package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentPending = "PENDING"
	PaymentPaid    = "PAID"
	PaymentSettled = "SETTLED"
	PaymentExpired = "EXPIRED"
)

type Payment struct {
	ID         uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID    uint64          `gorm:"column:order_id;index;not null" json:"order_id"`
	ExternalID string          `gorm:"column:external_id;uniqueIndex;not null" json:"external_id"`
	InvoiceURL string          `gorm:"column:invoice_url" json:"invoice_url"`
	Status     string          `gorm:"column:status;size:16;default:PENDING" json:"status"`
	Amount     decimal.Decimal `gorm:"column:amount;type:numeric(10,2)" json:"amount"`
	PaidAt     *time.Time      `gorm:"column:paid_at" json:"paid_at,omitempty"`
	CreatedAt  time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

// Settled reports whether a gateway status counts as money received.
func Settled(status string) bool {
	return status == PaymentPaid || status == PaymentSettled
}
