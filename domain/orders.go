package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OrderStatus string

const (
	StatusPendingApproval OrderStatus = "pending_approval"
	StatusApproved        OrderStatus = "approved"
	StatusPaymentUploaded OrderStatus = "payment_uploaded"
	StatusPaymentVerified OrderStatus = "payment_verified"
	StatusProcessing      OrderStatus = "processing"
	StatusCompleted       OrderStatus = "completed"
	StatusCancelled       OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPendingApproval, StatusApproved, StatusPaymentUploaded,
		StatusPaymentVerified, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == StatusCancelled
}

// CREATE TABLE public.orders (
//     id                  BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     reference           VARCHAR(32) UNIQUE NOT NULL,
//     customer_name       TEXT NOT NULL,
//     customer_phone      TEXT,
//     customer_email      TEXT,
//     pickup_spot         TEXT,
//     bundle_type_id      BIGINT REFERENCES bundle_types(id),
//     bundle_name         TEXT,
//     kind                VARCHAR(16) NOT NULL,
//     allow_list_mode     BOOLEAN DEFAULT FALSE,
//     status              VARCHAR(24) NOT NULL,
//     selling_price       NUMERIC(10,2),
//     packaging_cost      NUMERIC(10,2),
//     total_cost          NUMERIC(12,4),
//     net_profit          NUMERIC(12,4),
//     profit_margin       NUMERIC(6,4),
//     target_margin       NUMERIC(6,4),
//     margin_met          BOOLEAN DEFAULT FALSE,
//     allocation_message  TEXT,
//     diagnostics         JSONB,
//     stock_committed     BOOLEAN DEFAULT FALSE,
//     payment_deadline    TIMESTAMPTZ,
//     payment_link        TEXT,
//     cancel_reason       TEXT,
//     created_at          TIMESTAMPTZ DEFAULT NOW(),
//     updated_at          TIMESTAMPTZ DEFAULT NOW()
// );

type Order struct {
	ID                uint64            `gorm:"primaryKey;autoIncrement" json:"id"`
	Reference         string            `gorm:"column:reference;size:32;uniqueIndex;not null" json:"reference"`
	CustomerName      string            `gorm:"column:customer_name;not null" json:"customer_name"`
	CustomerPhone     string            `gorm:"column:customer_phone" json:"customer_phone"`
	CustomerEmail     string            `gorm:"column:customer_email" json:"customer_email"`
	PickupSpot        string            `gorm:"column:pickup_spot" json:"pickup_spot"`
	BundleTypeID      *uint64           `gorm:"column:bundle_type_id" json:"bundle_type_id,omitempty"`
	BundleName        string            `gorm:"column:bundle_name" json:"bundle_name"`
	Kind              BundleKind        `gorm:"column:kind;size:16;not null" json:"kind"`
	AllowListMode     bool              `gorm:"column:allow_list_mode;default:false" json:"allow_list_mode"`
	Status            OrderStatus       `gorm:"column:status;size:24;index;not null" json:"status"`
	SellingPrice      decimal.Decimal   `gorm:"column:selling_price;type:numeric(10,2)" json:"selling_price"`
	PackagingCost     decimal.Decimal   `gorm:"column:packaging_cost;type:numeric(10,2)" json:"packaging_cost"`
	TotalCost         decimal.Decimal   `gorm:"column:total_cost;type:numeric(12,4)" json:"total_cost"`
	NetProfit         decimal.Decimal   `gorm:"column:net_profit;type:numeric(12,4)" json:"net_profit"`
	ProfitMargin      decimal.Decimal   `gorm:"column:profit_margin;type:numeric(6,4)" json:"profit_margin"`
	TargetMargin      decimal.Decimal   `gorm:"column:target_margin;type:numeric(6,4)" json:"target_margin"`
	MarginMet         bool              `gorm:"column:margin_met;default:false" json:"margin_met"`
	AllocationMessage string            `gorm:"column:allocation_message" json:"allocation_message"`
	Diagnostics       datatypes.JSONMap `gorm:"column:diagnostics;type:jsonb" json:"diagnostics,omitempty"`
	StockCommitted    bool              `gorm:"column:stock_committed;default:false" json:"stock_committed"`
	PaymentDeadline   *time.Time        `gorm:"column:payment_deadline;index" json:"payment_deadline,omitempty"`
	PaymentLink       string            `gorm:"column:payment_link" json:"payment_link,omitempty"`
	CancelReason      string            `gorm:"column:cancel_reason" json:"cancel_reason,omitempty"`
	Items             []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt         time.Time         `gorm:"column:created_at" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"column:updated_at" json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// Quantities returns the order lines keyed by item id.
func (o Order) Quantities() map[uint64]int {
	out := make(map[uint64]int, len(o.Items))
	for _, it := range o.Items {
		out[it.ItemID] += it.Quantity
	}
	return out
}

func (o Order) Count(c Category) int {
	n := 0
	for _, it := range o.Items {
		if it.Category == c {
			n += it.Quantity
		}
	}
	return n
}

// Overdue reports whether an approved order has passed its payment deadline.
func (o Order) Overdue(now time.Time) bool {
	return o.Status == StatusApproved && o.PaymentDeadline != nil && now.After(*o.PaymentDeadline)
}

type OrderItem struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   uint64          `gorm:"column:order_id;index;not null" json:"order_id"`
	ItemID    uint64          `gorm:"column:item_id;index;not null" json:"item_id"`
	ItemName  string          `gorm:"column:item_name" json:"item_name"`
	Category  Category        `gorm:"column:category;type:varchar(10)" json:"category"`
	Quantity  int             `gorm:"column:quantity;not null" json:"quantity"`
	UnitCost  decimal.Decimal `gorm:"column:unit_cost;type:numeric(10,4)" json:"unit_cost"`
	IsStarred bool            `gorm:"column:is_starred;default:false" json:"is_starred"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// OrderStats aggregates completed orders for the admin dashboard.
type OrderStats struct {
	CompletedOrders int             `json:"completed_orders"`
	Revenue         decimal.Decimal `json:"revenue"`
	Cost            decimal.Decimal `json:"cost"`
	NetProfit       decimal.Decimal `json:"net_profit"`
	AverageMargin   decimal.Decimal `json:"average_margin"`
}
