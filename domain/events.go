package domain

import "time"

type OrderEventKind string

const (
	EventOrderCreated      OrderEventKind = "order_created"
	EventStatusChanged     OrderEventKind = "status_changed"
	EventMarginNotMet      OrderEventKind = "margin_not_met"
	EventStockCommitFailed OrderEventKind = "stock_commit_failed"
	EventStockRestored     OrderEventKind = "stock_restored"
	EventOrderExpired      OrderEventKind = "order_expired"
)

type OrderEvent struct {
	Kind       OrderEventKind
	OrderID    uint64
	Reference  string
	Customer   string
	Email      string
	Status     OrderStatus
	Message    string
	OccurredAt time.Time
}
