package models

// InventoryItem is a stock-keeping record keyed by its external product id.
type InventoryItem struct {
	ProductID   string `gorm:"column:product_id;primaryKey"`
	ProductName string `gorm:"column:product_name;not null"`
	Quantity    int    `gorm:"column:quantity;not null;default:0"`
	Category    string `gorm:"column:category;not null"`
	SubCategory string `gorm:"column:sub_category;not null"`
}
