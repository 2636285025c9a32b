package inventory

import (
	"context"

	"github.com/angelmondragon/stockroom-backend/internal/repo"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const listColumns = `inventory_items.product_id,
       inventory_items.product_name,
       inventory_items.quantity,
       inventory_items.category,
       inventory_items.sub_category,
       COUNT(orders.id) AS order_count`

var (
	sortColumns = map[SortField]clause.OrderByColumn{
		SortQuantity:   {Column: clause.Column{Table: "inventory_items", Name: "quantity"}},
		SortOrderCount: {Column: clause.Column{Name: "order_count"}},
	}
	productIDOrder = clause.OrderByColumn{Column: clause.Column{Table: "inventory_items", Name: "product_id"}}
)

// ListRow is one grouped row of the inventory/orders join.
type ListRow struct {
	ProductID   string
	ProductName string
	Quantity    int
	Category    string
	SubCategory string
	OrderCount  int64
}

func (r ListRow) Item() models.InventoryItem {
	return models.InventoryItem{
		ProductID:   r.ProductID,
		ProductName: r.ProductName,
		Quantity:    r.Quantity,
		Category:    r.Category,
		SubCategory: r.SubCategory,
	}
}

// Repository persists inventory items and reads their orders.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Bind(tx)}
}

// List returns one page of inventory rows joined with their order counts.
func (r *Repository) List(ctx context.Context, filters ListFilters, sort SortField, page pagination.Params) ([]ListRow, error) {
	query := r.DB(ctx).
		Table("inventory_items").
		Select(listColumns).
		Joins("LEFT JOIN orders ON orders.product_id = inventory_items.product_id")

	if filters.Category != "" {
		query = query.Where("inventory_items.category = ?", filters.Category)
	}
	if filters.SubCategory != "" {
		query = query.Where("inventory_items.sub_category = ?", filters.SubCategory)
	}
	if filters.OnlyInStock {
		query = query.Where("inventory_items.quantity > ?", 0)
	}

	query = query.Group("inventory_items.product_id")
	if col, ok := sortColumns[sort]; ok {
		query = query.Order(col)
	}
	// stable page boundaries
	query = query.Order(productIDOrder)

	var rows []ListRow
	if err := query.Scopes(repo.Paginate(page)).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// OrdersByProductIDs loads the complete order history for each product, oldest first.
func (r *Repository) OrdersByProductIDs(ctx context.Context, productIDs []string) (map[string][]models.Order, error) {
	out := make(map[string][]models.Order, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	var rows []models.Order
	if err := r.DB(ctx).
		Where("product_id IN ?", productIDs).
		Order("id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ProductID] = append(out[row.ProductID], row)
	}
	return out, nil
}

// FindByProductID loads an inventory item by primary key.
func (r *Repository) FindByProductID(ctx context.Context, productID string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.DB(ctx).First(&item, "product_id = ?", productID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateColumns applies the provided column values to one item.
func (r *Repository) UpdateColumns(ctx context.Context, productID string, columns map[string]any) error {
	return r.DB(ctx).
		Model(&models.InventoryItem{}).
		Where("product_id = ?", productID).
		Updates(columns).
		Error
}
