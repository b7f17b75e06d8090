package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CREATE TABLE public.items (
//     id             BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     name           TEXT NOT NULL,
//     category       VARCHAR(10) NOT NULL,
//     cost_per_bag   NUMERIC(10,2),
//     units_per_bag  INTEGER DEFAULT 1,
//     unit_cost      NUMERIC(10,4),
//     current_stock  INTEGER DEFAULT 0 CHECK (current_stock >= 0),
//     is_spicy       BOOLEAN DEFAULT FALSE,
//     created_at     TIMESTAMPTZ DEFAULT NOW(),
//     updated_at     TIMESTAMPTZ DEFAULT NOW()
// );

type Category string

const (
	CategorySnack Category = "snack"
	CategoryJuice Category = "juice"
)

// Categories lists every category in allocation order.
var Categories = []Category{CategorySnack, CategoryJuice}

func (c Category) Valid() bool {
	return c == CategorySnack || c == CategoryJuice
}

// Plural is used in diagnostics ("need 30 snacks").
func (c Category) Plural() string {
	return string(c) + "s"
}

// LowStockThreshold marks items the dashboard flags for restock.
const LowStockThreshold = 5

type Item struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"column:name;type:text;not null" json:"name"`
	Category    Category        `gorm:"column:category;type:varchar(10);index;not null" json:"category"`
	CostPerBag  decimal.Decimal `gorm:"column:cost_per_bag;type:numeric(10,2)" json:"cost_per_bag"`
	UnitsPerBag int             `gorm:"column:units_per_bag;default:1" json:"units_per_bag"`
	UnitCost    decimal.Decimal `gorm:"column:unit_cost;type:numeric(10,4)" json:"unit_cost"`
	Stock       int             `gorm:"column:current_stock;index;default:0" json:"stock"`
	IsSpicy     bool            `gorm:"column:is_spicy;default:false" json:"is_spicy"`
	CreatedAt   time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Item) TableName() string {
	return "items"
}

// DeriveUnitCost sets UnitCost from the bag price and bag size.
func (i *Item) DeriveUnitCost() {
	if i.UnitsPerBag <= 0 || !i.CostPerBag.IsPositive() {
		return
	}
	i.UnitCost = i.CostPerBag.Div(decimal.NewFromInt(int64(i.UnitsPerBag))).Round(4)
}

func (i Item) IsLowStock() bool {
	return i.Stock < LowStockThreshold
}
