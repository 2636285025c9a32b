package inventory

import (
	"time"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
)

// BulkUpdateMessage is the fixed summary returned by bulk updates.
const BulkUpdateMessage = "Bulk update complete"

// ItemDTO is the inventory payload returned to clients.
type ItemDTO struct {
	ProductID   string     `json:"product_id"`
	ProductName string     `json:"product_name"`
	Quantity    int        `json:"quantity"`
	Category    string     `json:"category"`
	SubCategory string     `json:"sub_category"`
	Orders      []OrderDTO `json:"orders"`
	OrderCount  *int64     `json:"order_count,omitempty"`
}

// OrderDTO exposes one historical order of an item.
type OrderDTO struct {
	OrderID      string    `json:"order_id"`
	Currency     string    `json:"currency"`
	Quantity     int       `json:"quantity"`
	ShippingCost float64   `json:"shipping_cost"`
	Amount       float64   `json:"amount"`
	Channel      string    `json:"channel"`
	ChannelGroup string    `json:"channel_group"`
	Campaign     string    `json:"campaign"`
	DateTime     time.Time `json:"date_time"`
}

// BulkUpdateDTO partitions the product ids of a bulk request by outcome.
type BulkUpdateDTO struct {
	Message   string   `json:"message"`
	Succeeded []string `json:"successful updates"`
	Failed    []string `json:"unsuccessful updates"`
}

func toItemDTO(item models.InventoryItem, orders []models.Order, orderCount *int64) ItemDTO {
	return ItemDTO{
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		Quantity:    item.Quantity,
		Category:    item.Category,
		SubCategory: item.SubCategory,
		Orders:      toOrderDTOs(orders),
		OrderCount:  orderCount,
	}
}

func toOrderDTOs(orders []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, OrderDTO{
			OrderID:      o.OrderID,
			Currency:     o.Currency,
			Quantity:     o.Quantity,
			ShippingCost: o.ShippingCost.InexactFloat64(),
			Amount:       o.Amount.InexactFloat64(),
			Channel:      o.Channel,
			ChannelGroup: o.ChannelGroup,
			Campaign:     o.Campaign,
			DateTime:     o.DateTime.UTC(),
		})
	}
	return out
}
