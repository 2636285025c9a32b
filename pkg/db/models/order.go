package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a historical sales record loaded from the orders feed. It is read-only at runtime.
type Order struct {
	ID           int64           `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID      string          `gorm:"column:order_id;not null"`
	ProductID    string          `gorm:"column:product_id;not null;index:idx_orders_product_id"`
	Currency     string          `gorm:"column:currency"`
	Quantity     int             `gorm:"column:quantity"`
	ShippingCost decimal.Decimal `gorm:"column:shipping_cost;type:numeric(12,2)"`
	Amount       decimal.Decimal `gorm:"column:amount;type:numeric(12,2)"`
	Channel      string          `gorm:"column:channel"`
	ChannelGroup string          `gorm:"column:channel_group"`
	Campaign     string          `gorm:"column:campaign"`
	DateTime     time.Time       `gorm:"column:date_time;not null"`
}
