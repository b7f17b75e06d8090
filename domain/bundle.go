package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CREATE TABLE public.bundle_types (
//     id               BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     name             TEXT UNIQUE NOT NULL,
//     description      TEXT,
//     required_snacks  INTEGER DEFAULT 0,
//     required_juices  INTEGER DEFAULT 0,
//     selling_price    NUMERIC(10,2),
//     packaging_cost   NUMERIC(10,2) DEFAULT 0,
//     is_active        BOOLEAN DEFAULT TRUE,
//     created_at       TIMESTAMPTZ DEFAULT NOW()
// );

type BundleType struct {
	ID             uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string          `gorm:"column:name;type:text;uniqueIndex;not null" json:"name"`
	Description    string          `gorm:"column:description;type:text" json:"description"`
	RequiredSnacks int             `gorm:"column:required_snacks;default:0" json:"required_snacks"`
	RequiredJuices int             `gorm:"column:required_juices;default:0" json:"required_juices"`
	SellingPrice   decimal.Decimal `gorm:"column:selling_price;type:numeric(10,2)" json:"selling_price"`
	PackagingCost  decimal.Decimal `gorm:"column:packaging_cost;type:numeric(10,2);default:0" json:"packaging_cost"`
	IsActive       bool            `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt      time.Time       `gorm:"column:created_at" json:"created_at"`
}

func (BundleType) TableName() string {
	return "bundle_types"
}

func (b BundleType) TotalItems() int {
	return b.RequiredSnacks + b.RequiredJuices
}

type BundleKind string

const (
	BundlePredefined BundleKind = "predefined"
	BundleCustom     BundleKind = "custom"
)

// BundleRequest is what the orchestrator allocates against. A zero SellingPrice
// means the price is discovered from cost.
type BundleRequest struct {
	Kind          BundleKind
	SellingPrice  decimal.Decimal
	SnackCount    int
	JuiceCount    int
	PackagingCost decimal.Decimal
	TargetMargin  decimal.Decimal
	Favorites     []uint64
	// AllowList restricts the candidate pool to these items. Empty means the
	// whole in-stock catalog is eligible.
	AllowList   []uint64
	IgnoreStock bool
}

func (r BundleRequest) AllowListMode() bool {
	return len(r.AllowList) > 0
}

func (r BundleRequest) Required(c Category) int {
	switch c {
	case CategorySnack:
		return r.SnackCount
	case CategoryJuice:
		return r.JuiceCount
	}
	return 0
}

type AllocationResult struct {
	Quantities     map[uint64]int  `json:"quantities"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	AchievedMargin decimal.Decimal `json:"achieved_margin"`
	MarginMet      bool            `json:"margin_met"`
	Message        string          `json:"message"`
}

type BundleLine struct {
	ItemID   uint64          `json:"item_id"`
	Name     string          `json:"name"`
	Category Category        `json:"category"`
	Quantity int             `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	Favorite bool            `json:"favorite"`
}

func (l BundleLine) Cost() decimal.Decimal {
	return l.UnitCost.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Allocation passes reported on a BundleSummary.
const (
	PassMarginEnforced = "margin_enforced"
	PassMarginRelaxed  = "margin_relaxed"
)

type BundleSummary struct {
	Kind          BundleKind       `json:"kind"`
	Allocation    AllocationResult `json:"allocation"`
	Lines         []BundleLine     `json:"lines"`
	SellingPrice  decimal.Decimal  `json:"selling_price"`
	PackagingCost decimal.Decimal  `json:"packaging_cost"`
	TotalCost     decimal.Decimal  `json:"total_cost"`
	NetProfit     decimal.Decimal  `json:"net_profit"`
	ProfitMargin  decimal.Decimal  `json:"profit_margin"`
	TargetMargin  decimal.Decimal  `json:"target_margin"`
	MarginMet     bool             `json:"margin_met"`
	NeedsApproval bool             `json:"needs_approval"`
	Pass          string           `json:"pass"`
}
